package auth

import "errors"

var (
	// ErrClientSecretMissing means the OAuth client secret file could not be read.
	ErrClientSecretMissing = errors.New("client secret missing")
	// ErrClientSecretMalformed means the client secret file has no usable installed or web client.
	ErrClientSecretMalformed = errors.New("client secret malformed")
	// ErrAuthorizationDenied means the interactive grant was refused, abandoned or failed.
	ErrAuthorizationDenied = errors.New("authorization denied")
	// ErrCacheWriteFailed means a granted credential could not be written to the token cache.
	ErrCacheWriteFailed = errors.New("failed to cache credential")
)

package auth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// Handle is a usable credential for the current run.
type Handle struct {
	record    AuthorizedUser
	config    *oauth2.Config
	token     *oauth2.Token
	fromCache bool

	// PersistErr is set when a fresh grant could not be cached. The handle is still usable.
	PersistErr error
}

// Record returns the credential fields backing this handle.
func (h *Handle) Record() AuthorizedUser {
	return h.record
}

// FromCache reports whether the handle was loaded from the token cache.
func (h *Handle) FromCache() bool {
	return h.fromCache
}

// TokenSource returns a source of access tokens, refreshing them as needed.
func (h *Handle) TokenSource(ctx context.Context) oauth2.TokenSource {
	return h.config.TokenSource(ctx, h.token)
}

// HTTPClient returns an HTTP client that authorizes every request with this credential.
func (h *Handle) HTTPClient(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, h.TokenSource(ctx))
}

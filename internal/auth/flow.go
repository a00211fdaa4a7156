package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
)

// Grant is the outcome of a successful interactive authorization.
type Grant struct {
	ClientID     string
	ClientSecret string
	Token        *oauth2.Token

	// Config is the client configuration the token was issued for.
	Config *oauth2.Config
}

// Record converts the grant into the cached record format.
func (g *Grant) Record() *AuthorizedUser {
	rec := &AuthorizedUser{
		Type:         AuthorizedUserType,
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
	}
	if g.Token != nil {
		rec.RefreshToken = g.Token.RefreshToken
	}
	return rec
}

// Flow obtains a fresh grant using the client secret file and a Consenter.
type Flow struct {
	logger           *slog.Logger
	clientSecretPath string
	consent          Consenter
}

// NewFlow creates a flow that reads the OAuth client from clientSecretPath.
func NewFlow(logger *slog.Logger, clientSecretPath string, consent Consenter) *Flow {
	return &Flow{logger: logger, clientSecretPath: clientSecretPath, consent: consent}
}

// Run loads the client secret and asks the user to grant scopes.
// The client secret is read on every call and is never modified.
func (f *Flow) Run(ctx context.Context, scopes []string) (*Grant, error) {
	config, err := LoadClientSecret(f.clientSecretPath, scopes...)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Starting Google authorization flow.", "clientSecret", f.clientSecretPath, "scopes", scopes)
	token, err := f.consent.Obtain(ctx, config)
	if err != nil {
		if !errors.Is(err, ErrAuthorizationDenied) {
			err = fmt.Errorf("%w: %w", ErrAuthorizationDenied, err)
		}
		return nil, err
	}

	return &Grant{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Token:        token,
		Config:       config,
	}, nil
}

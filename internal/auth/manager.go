package auth

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// CredentialStore persists a single cached credential record.
type CredentialStore interface {
	// Load returns nil when no usable record exists.
	Load() *AuthorizedUser
	Save(rec *AuthorizedUser) error
}

// GrantFlow obtains a new grant interactively.
type GrantFlow interface {
	Run(ctx context.Context, scopes []string) (*Grant, error)
}

// Manager hands out a credential, preferring the cache over asking the user.
type Manager struct {
	logger *slog.Logger
	store  CredentialStore
	flow   GrantFlow
	scopes []string

	// Endpoint is used to refresh cached credentials. Defaults to google.Endpoint.
	Endpoint oauth2.Endpoint
}

// NewManager creates a Manager for the given scopes.
func NewManager(logger *slog.Logger, store CredentialStore, flow GrantFlow, scopes []string) *Manager {
	return &Manager{
		logger:   logger,
		store:    store,
		flow:     flow,
		scopes:   scopes,
		Endpoint: google.Endpoint,
	}
}

// Authorize returns a usable credential. A cached record is used as is; otherwise the
// interactive flow runs once and its result is cached. Failing to cache is not an error:
// the fresh grant is returned with PersistErr set. Nothing is retried.
func (m *Manager) Authorize(ctx context.Context) (*Handle, error) {
	if rec := m.store.Load(); rec != nil {
		m.logger.Debug("Using cached credential.", "clientID", rec.ClientID)
		return m.handleFromRecord(rec), nil
	}

	grant, err := m.flow.Run(ctx, m.scopes)
	if err != nil {
		return nil, err
	}

	h := &Handle{
		record: *grant.Record(),
		config: grant.Config,
		token:  grant.Token,
	}
	if h.config == nil {
		h.config = m.config(grant.ClientID, grant.ClientSecret)
	}

	if !h.record.Complete() {
		h.PersistErr = fmt.Errorf("%w: grant carries no refresh token", ErrCacheWriteFailed)
	} else if err := m.store.Save(&h.record); err != nil {
		h.PersistErr = err
	}
	if h.PersistErr != nil {
		m.logger.Warn("Authorization succeeded but the credential was not cached; you will be asked again next time.", "error", h.PersistErr)
	} else {
		m.logger.Info("Authorization succeeded and the credential was cached.")
	}
	return h, nil
}

func (m *Manager) handleFromRecord(rec *AuthorizedUser) *Handle {
	return &Handle{
		record:    *rec,
		config:    m.config(rec.ClientID, rec.ClientSecret),
		token:     &oauth2.Token{RefreshToken: rec.RefreshToken},
		fromCache: true,
	}
}

func (m *Manager) config(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     m.Endpoint,
		Scopes:       m.scopes,
	}
}

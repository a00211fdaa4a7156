package auth

import (
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// LoadClientSecret reads an OAuth client secret file as downloaded from the Google Cloud console
// and returns the matching OAuth2 config. Both "installed" and "web" clients are accepted.
func LoadClientSecret(path string, scopes ...string) (*oauth2.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read %s: %w", ErrClientSecretMissing, path, err)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to parse %s: %w", ErrClientSecretMalformed, path, err)
	}
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("%w: %s has no client_id or client_secret", ErrClientSecretMalformed, path)
	}
	return config, nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gcalevent/internal/models"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const appName = "gcalevent"

const (
	// DefaultClientSecretFile is the OAuth client file looked up in the working directory.
	DefaultClientSecretFile = "credentials.json"
	// DefaultTokenFile is the credential cache written in the working directory.
	DefaultTokenFile = "token.json"
)

// CalDAVConfig describes the optional CalDAV mirror.
type CalDAVConfig struct {
	Enabled      bool   `yaml:"enabled"`
	URL          string `yaml:"url"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	CalendarName string `yaml:"calendar_name"`
	CalendarPath string `yaml:"calendar_path"`
}

// Config is everything a run needs. It is built once at startup and passed down explicitly.
type Config struct {
	// ClientSecretPath is the OAuth client secret file (installed or web client).
	ClientSecretPath string `yaml:"client_secret"`
	// TokenPath is where the authorized_user record is cached.
	TokenPath string `yaml:"token"`

	// Calendar and TimeZone provide defaults for the event flags.
	Calendar string `yaml:"calendar"`
	TimeZone string `yaml:"timezone"`

	LogLevel string `yaml:"log_level"`

	// ConsentTimeout bounds the wait for the browser consent. Zero waits forever.
	ConsentTimeout time.Duration `yaml:"consent_timeout"`
	// CallbackAddr is the listen address of the local OAuth redirect handler.
	CallbackAddr string `yaml:"callback_addr"`
	// NoBrowser disables opening the consent page automatically.
	NoBrowser bool `yaml:"no_browser"`

	// ICSOut, if set, receives an iCalendar copy of the created event.
	ICSOut string `yaml:"ics_out"`

	CalDAV CalDAVConfig `yaml:"caldav"`

	Scopes []string         `yaml:"-"`
	Event  models.EventSpec `yaml:"-"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		ClientSecretPath: DefaultClientSecretFile,
		TokenPath:        DefaultTokenFile,
		Calendar:         "primary",
		LogLevel:         "info",
		ConsentTimeout:   5 * time.Minute,
		CallbackAddr:     "127.0.0.1:0",
	}
}

// DefaultPath returns the XDG location of the config file.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// Load reads the YAML config at path on top of the defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ResolveClientSecretPath returns path unless it is the default file name and that file is
// missing from the working directory, in which case the XDG config directories are searched.
func ResolveClientSecretPath(path string) string {
	if path != DefaultClientSecretFile {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	for _, dir := range append([]string{xdg.ConfigHome}, xdg.ConfigDirs...) {
		candidate := filepath.Join(dir, appName, DefaultClientSecretFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return path
}

// ApplyEnv fills CalDAV settings from CALDAV_* environment variables when set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.CalDAV.URL, "CALDAV_URL")
	set(&c.CalDAV.Username, "CALDAV_USERNAME")
	set(&c.CalDAV.Password, "CALDAV_PASSWORD")
	set(&c.CalDAV.CalendarName, "CALDAV_CALENDAR")
	set(&c.LogLevel, "LOG_LEVEL")
}

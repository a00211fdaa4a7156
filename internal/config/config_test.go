package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPath(t *testing.T) {
	path := DefaultPath()
	assert.Equal(t, filepath.Join(xdg.ConfigHome, "gcalevent", "config.yaml"), path)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "credentials.json", cfg.ClientSecretPath)
	assert.Equal(t, "token.json", cfg.TokenPath)
	assert.Equal(t, 5*time.Minute, cfg.ConsentTimeout)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
client_secret: /etc/gcalevent/client.json
token: /var/lib/gcalevent/token.json
calendar: team@example.com
timezone: Europe/Berlin
consent_timeout: 90s
ics_out: event.ics
caldav:
  enabled: true
  url: https://dav.example.com/
  calendar_name: Work
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/etc/gcalevent/client.json", cfg.ClientSecretPath)
	assert.Equal(t, "/var/lib/gcalevent/token.json", cfg.TokenPath)
	assert.Equal(t, "team@example.com", cfg.Calendar)
	assert.Equal(t, "Europe/Berlin", cfg.TimeZone)
	assert.Equal(t, 90*time.Second, cfg.ConsentTimeout)
	assert.Equal(t, "event.ics", cfg.ICSOut)
	assert.True(t, cfg.CalDAV.Enabled)
	assert.Equal(t, "https://dav.example.com/", cfg.CalDAV.URL)
	assert.Equal(t, "Work", cfg.CalDAV.CalendarName)

	// Untouched keys keep their defaults.
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:0", cfg.CallbackAddr)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("calendar: [unterminated"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestResolveClientSecretPath(t *testing.T) {
	t.Run("explicit path is kept", func(t *testing.T) {
		assert.Equal(t, "/some/where.json", ResolveClientSecretPath("/some/where.json"))
	})

	t.Run("falls back to xdg config dir", func(t *testing.T) {
		chdir(t, t.TempDir())
		origDirs := xdg.ConfigDirs
		origHome := xdg.ConfigHome
		defer func() {
			xdg.ConfigDirs = origDirs
			xdg.ConfigHome = origHome
		}()

		home := t.TempDir()
		xdg.ConfigHome = home
		xdg.ConfigDirs = nil
		want := filepath.Join(home, "gcalevent", "credentials.json")
		require.NoError(t, os.MkdirAll(filepath.Dir(want), 0700))
		require.NoError(t, os.WriteFile(want, []byte("{}"), 0600))

		assert.Equal(t, want, ResolveClientSecretPath(DefaultClientSecretFile))
	})

	t.Run("working directory wins", func(t *testing.T) {
		chdir(t, t.TempDir())
		require.NoError(t, os.WriteFile(DefaultClientSecretFile, []byte("{}"), 0600))
		assert.Equal(t, DefaultClientSecretFile, ResolveClientSecretPath(DefaultClientSecretFile))
	})

	t.Run("nothing found keeps default", func(t *testing.T) {
		chdir(t, t.TempDir())
		origDirs := xdg.ConfigDirs
		origHome := xdg.ConfigHome
		defer func() {
			xdg.ConfigDirs = origDirs
			xdg.ConfigHome = origHome
		}()
		xdg.ConfigHome = t.TempDir()
		xdg.ConfigDirs = nil

		assert.Equal(t, DefaultClientSecretFile, ResolveClientSecretPath(DefaultClientSecretFile))
	})
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CALDAV_URL":      "https://dav.example.com/",
		"CALDAV_USERNAME": "alice",
		"CALDAV_PASSWORD": "secret",
		"LOG_LEVEL":       "debug",
	}
	cfg := DefaultConfig()
	cfg.CalDAV.CalendarName = "FromFile"
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "https://dav.example.com/", cfg.CalDAV.URL)
	assert.Equal(t, "alice", cfg.CalDAV.Username)
	assert.Equal(t, "secret", cfg.CalDAV.Password)
	assert.Equal(t, "FromFile", cfg.CalDAV.CalendarName)
	assert.Equal(t, "debug", cfg.LogLevel)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

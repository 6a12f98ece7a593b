package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "environment.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMergesFileAndEnvironment(t *testing.T) {
	path := writeEnvFile(t, `{"key":"k1","hostname":"acme.example.com","screenShareKey":"ss","screenShareDomain":"share.example.com"}`)
	t.Setenv("CCAI_ENVIRONMENT_FILE", path)
	t.Setenv("CCAI_HOME", t.TempDir())
	t.Setenv("CCAI_KEY", "override")
	t.Setenv("CCAI_SIGNING_URL", "http://127.0.0.1:3000/")
	t.Setenv("CCAI_MENU_ID", "12")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "override", cfg.Key)
	require.Equal(t, "acme.example.com", cfg.Hostname)
	require.Equal(t, "ss", cfg.ScreenShareKey)
	require.Equal(t, "http://127.0.0.1:3000", cfg.SigningURL)
	require.Equal(t, "https://acme.example.com", cfg.ServerURL())
	require.Equal(t, "en", cfg.Language)
	require.Equal(t, "12", cfg.MenuID)
	require.False(t, cfg.PushoverEnabled())
}

func TestLoadEnvironmentErrors(t *testing.T) {
	_, err := LoadEnvironment(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, ErrEnvironment)

	_, err = LoadEnvironment(writeEnvFile(t, "{not json"))
	require.ErrorIs(t, err, ErrEnvironment)

	_, err = LoadEnvironment(writeEnvFile(t, `{"key":"k"}`))
	require.ErrorIs(t, err, ErrEnvironment)
	require.Contains(t, err.Error(), "missing hostname")
}

func TestParseMenuID(t *testing.T) {
	id, ok := ParseMenuID(" 7 ")
	require.True(t, ok)
	require.Equal(t, 7, id)

	_, ok = ParseMenuID("seven")
	require.False(t, ok)
	_, ok = ParseMenuID("-1")
	require.False(t, ok)
}

func TestServerURLKeepsScheme(t *testing.T) {
	cfg := &Config{Environment: Environment{Hostname: "http://localhost:3000/"}}
	require.Equal(t, "http://localhost:3000", cfg.ServerURL())
}

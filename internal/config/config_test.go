package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, DefaultBaseURL, cfg.Apifox.BaseURL)
	assert.Equal(t, DefaultAPIVersion, cfg.Apifox.APIVersion)
	assert.Equal(t, DefaultLocale, cfg.Apifox.Locale)
	assert.Equal(t, DefaultOASVersion, cfg.Apifox.OASVersion)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, DefaultJournalPath, cfg.Journal.SQLitePath)
	assert.False(t, cfg.Rules.ExtractSchemas)
}

func TestValidate(t *testing.T) {
	cfg := NewConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APIFOX_TOKEN")

	cfg.Apifox.Token = "APS-0123456789abcdef"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APIFOX_PROJECT_ID")

	cfg.Apifox.ProjectID = "4242"
	assert.NoError(t, cfg.Validate())
}

func TestMaskedToken(t *testing.T) {
	cfg := NewConfig()
	cfg.Apifox.Token = "APS-0123456789abcdef"
	assert.Equal(t, "APS-0123...cdef", cfg.MaskedToken())

	cfg.Apifox.Token = "short"
	assert.Equal(t, "***", cfg.MaskedToken())
}

func TestTimeoutFallback(t *testing.T) {
	cfg := NewConfig()
	cfg.Apifox.TimeoutSeconds = 0
	assert.Equal(t, DefaultTimeoutSeconds*time.Second, cfg.Timeout())

	cfg.Apifox.TimeoutSeconds = 5
	assert.Equal(t, 5*time.Second, cfg.Timeout())
}

func TestEnvironmentCredentials(t *testing.T) {
	t.Setenv("APIFOX_TOKEN", "APS-from-environment")
	t.Setenv("APIFOX_PROJECT_ID", "777")

	cfg, err := LoadConfigWithPath(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "APS-from-environment", cfg.Apifox.Token)
	assert.Equal(t, "777", cfg.Apifox.ProjectID)
	assert.NoError(t, cfg.Validate())
}

func TestEnvironmentOverridesNestedSettings(t *testing.T) {
	t.Setenv("APIFOX_BASE_URL", "https://apifox.internal/v1")
	t.Setenv("APIFOX_TIMEOUT_SECONDS", "12")
	t.Setenv("APIFOX_EXTRACT_SCHEMAS", "true")
	t.Setenv("APIFOX_LOG_LEVEL", "debug")

	cfg, err := LoadConfigWithPath(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "https://apifox.internal/v1", cfg.Apifox.BaseURL)
	assert.Equal(t, 12*time.Second, cfg.Timeout())
	assert.True(t, cfg.Rules.ExtractSchemas)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultConfigFilename)

	cfg := NewConfig()
	cfg.Apifox.ProjectID = "4242"
	require.NoError(t, cfg.SaveToFile(path))
	assert.Equal(t, path, cfg.GetConfigPath())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var saved struct {
		Apifox struct {
			ProjectID string `json:"project_id"`
		} `json:"apifox"`
	}
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, "4242", saved.Apifox.ProjectID)
}

// stdout carries MCP frames, so loading must not print to it
func TestLoadKeepsStdoutClean(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)

	stdout := os.Stdout
	os.Stdout = w
	_, loadErr := LoadConfigWithPath(filepath.Join(t.TempDir(), "missing.json"))
	os.Stdout = stdout
	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, loadErr)
	assert.Empty(t, out)
}

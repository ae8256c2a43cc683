package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"readme_url": "https://example.com/README.md",
		"cache_max_age": "24h",
		"enrich_concurrency": 4,
		"port": 9000,
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://example.com/README.md", cfg.ReadmeURL)
	assert.Equal(t, Duration(24*time.Hour), cfg.CacheMaxAge)
	assert.Equal(t, 4, cfg.EnrichConcurrency)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
readme_url: https://example.com/README.md
refresh_interval: 30m
enrich_timeout: 5s
port: 8081
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, Duration(30*time.Minute), cfg.RefreshInterval)
	assert.Equal(t, Duration(5*time.Second), cfg.EnrichTimeout)
	assert.Equal(t, 8081, cfg.Port)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{ invalid json }`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAMLDuration(t *testing.T) {
	path := writeConfig(t, "config.yml", "cache_max_age: forever\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Defaults(), false},
		{"empty", Config{}, false},
		{"bad url", Config{ReadmeURL: "not a url"}, true},
		{"negative concurrency", Config{EnrichConcurrency: -1}, true},
		{"port out of range", Config{Port: 70000}, true},
		{"negative max age", Config{CacheMaxAge: Duration(-time.Second)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "config error")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{Port: 9999, Token: "abc"}
	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, 9999, merged.Port)
	assert.Equal(t, "abc", merged.Token)
	assert.Equal(t, DefaultReadmeURL, merged.ReadmeURL)
	assert.Equal(t, Duration(DefaultCacheMaxAge), merged.CacheMaxAge)
	assert.Equal(t, Duration(DefaultRefreshInterval), merged.RefreshInterval)
	assert.Equal(t, DefaultConcurrency, merged.EnrichConcurrency)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GITHUB_READ_ONLY", "token-from-env")
	t.Setenv("CACHE_MAX_AGE", "1h")
	t.Setenv("ENRICH_CONCURRENCY", "3")

	cfg := &Config{Token: "from-file", EnrichConcurrency: 10}
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "token-from-env", cfg.Token)
	assert.Equal(t, Duration(time.Hour), cfg.CacheMaxAge)
	assert.Equal(t, 3, cfg.EnrichConcurrency)
}

func TestApplyEnv_Malformed(t *testing.T) {
	t.Setenv("PORT", "eighty")

	err := (&Config{}).ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, "config.json", `{"port": 9000, "enrich_concurrency": 2}`)
	t.Setenv("PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port, "env overrides file")
	assert.Equal(t, 2, cfg.EnrichConcurrency, "file overrides defaults")
	assert.Equal(t, Duration(DefaultEnrichTimeout), cfg.EnrichTimeout)
}

func TestDuration_JSONRoundTrip(t *testing.T) {
	data, err := Duration(90 * time.Second).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(data))
}

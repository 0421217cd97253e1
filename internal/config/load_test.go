package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv sets environment variables for a test and restores the previous
// values on cleanup.
func setupEnv(t *testing.T, envVars map[string]string) {
	t.Helper()
	for name, value := range envVars {
		if value == "" {
			orig, had := os.LookupEnv(name)
			os.Unsetenv(name)
			if had {
				t.Cleanup(func() { os.Setenv(name, orig) })
			}
			continue
		}
		t.Setenv(name, value)
	}
}

// providerEnv returns a complete provider environment block for a role.
func providerEnv(role, baseURL string) map[string]string {
	prefix := "ARXIV_LLM_" + role + "_"
	return map[string]string{
		prefix + "BASE_URL": baseURL,
		prefix + "API_KEY":  "test-key",
		prefix + "MODEL":    "test-model",
	}
}

func validEnv() map[string]string {
	env := map[string]string{}
	for k, v := range providerEnv("DEFAULT", "https://llm.example.com/v1") {
		env[k] = v
	}
	for k, v := range providerEnv("STRONG", "https://strong.example.com/v1") {
		env[k] = v
	}
	return env
}

func TestLoadDefaults(t *testing.T) {
	setupEnv(t, validEnv())

	cfg, err := Load("")

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.LogLevel, "Default log level should be 'info'")
	assert.Equal(t, "cs.AI", cfg.Category)
	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, 3, cfg.PaperMaxAttempts)
	assert.Equal(t, 1000, cfg.MaxResults)
	assert.Equal(t, DefaultFailurePatterns, cfg.FailurePatterns)
	assert.Equal(t, 20, cfg.LLM.Default.RPM)
	assert.InDelta(t, 60.0, cfg.LLM.Default.TimeoutS, 0.001)
	assert.Nil(t, cfg.LLM.Backup, "Backup should be absent unless configured")
}

func TestLoadEnvOverrides(t *testing.T) {
	env := validEnv()
	env["ARXIV_CATEGORY"] = "cs.CL"
	env["ARXIV_CONCURRENCY"] = "2"
	env["ARXIV_LOG_LEVEL"] = "debug"
	env["ARXIV_LLM_DEFAULT_RPM"] = "7"
	setupEnv(t, env)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "cs.CL", cfg.Category)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 7, cfg.LLM.Default.RPM)
}

func TestLoadBackupProvider(t *testing.T) {
	env := validEnv()
	for k, v := range providerEnv("BACKUP", "https://backup.example.com/v1") {
		env[k] = v
	}
	setupEnv(t, env)

	cfg, err := Load("")

	require.NoError(t, err)
	require.NotNil(t, cfg.LLM.Backup)
	assert.Equal(t, "https://backup.example.com/v1", cfg.LLM.Backup.BaseURL)
	assert.Equal(t, 20, cfg.LLM.Backup.RPM, "backup inherits provider defaults")
}

func TestLoadMissingProviderFails(t *testing.T) {
	setupEnv(t, providerEnv("DEFAULT", "https://llm.example.com/v1"))

	_, err := Load("")

	require.Error(t, err, "strong provider is required")
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadInvalidLogLevelFails(t *testing.T) {
	env := validEnv()
	env["ARXIV_LOG_LEVEL"] = "verbose"
	setupEnv(t, env)

	_, err := Load("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "LogLevel")
}

func TestLoadConfigFile(t *testing.T) {
	setupEnv(t, validEnv())

	dir := t.TempDir()
	path := filepath.Join(dir, "daydayarxiv.yaml")
	content := "category: math.CO\nconcurrency: 9\nfailure_patterns:\n  - \"sorry\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "math.CO", cfg.Category)
	assert.Equal(t, 9, cfg.Concurrency)
	assert.Equal(t, []string{"sorry"}, cfg.FailurePatterns)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	setupEnv(t, validEnv())

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
}

func TestValidateRejectsZeroRPM(t *testing.T) {
	env := validEnv()
	env["ARXIV_LLM_DEFAULT_RPM"] = "0"
	setupEnv(t, env)

	_, err := Load("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "RPM")
}

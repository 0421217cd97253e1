package config

import "time"

// Config holds all application configuration.
// It is built once at startup from defaults, an optional config file,
// environment variables and CLI flags, then validated eagerly before any I/O.
type Config struct {
	// DataDir is the root of the frontend data tree ({date}/{category}.json).
	DataDir string `mapstructure:"data_dir" validate:"required"`

	// LogDir receives per-run JSON log files; empty disables file logging.
	LogDir string `mapstructure:"log_dir"`

	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// Category is the default arXiv category processed by the run command.
	Category string `mapstructure:"category" validate:"required"`

	// MaxResults caps how many papers a single fetch may return.
	MaxResults int `mapstructure:"max_results" validate:"gt=0"`

	// Concurrency bounds how many papers are processed at once.
	Concurrency int `mapstructure:"concurrency" validate:"gt=0"`

	// BatchSize chunks pending papers between scheduling passes; zero or
	// negative means one pass over everything pending.
	BatchSize int `mapstructure:"batch_size"`

	// Force discards existing batch state and reprocesses from scratch.
	Force bool `mapstructure:"force"`

	// PaperMaxAttempts is the per-paper attempt ceiling across runs.
	PaperMaxAttempts int `mapstructure:"paper_max_attempts" validate:"gt=0"`

	// FailOnError makes the CLI exit non-zero when any date fails.
	FailOnError bool `mapstructure:"fail_on_error"`

	// StateSaveIntervalS coalesces state writes within this window;
	// zero persists on every mutation.
	StateSaveIntervalS float64 `mapstructure:"state_save_interval_s" validate:"gte=0"`

	// FailurePatterns are substrings that mark generated text as a known
	// model failure; matching is case-insensitive.
	FailurePatterns []string `mapstructure:"failure_patterns" validate:"required,min=1"`

	LLM LLMConfig `mapstructure:"llm" validate:"required"`
}

// LLMConfig wires the provider roles: Default serves per-paper generation,
// Strong serves the daily summary, Backup (optional) is the fallback target
// after repeated primary failures.
type LLMConfig struct {
	Default ProviderConfig  `mapstructure:"default" validate:"required"`
	Strong  ProviderConfig  `mapstructure:"strong" validate:"required"`
	Backup  *ProviderConfig `mapstructure:"backup" validate:"omitempty"`
}

// ProviderConfig describes one OpenAI-compatible generation endpoint.
type ProviderConfig struct {
	BaseURL    string  `mapstructure:"base_url" validate:"required,url"`
	APIKey     string  `mapstructure:"api_key" validate:"required"`
	Model      string  `mapstructure:"model" validate:"required"`
	RPM        int     `mapstructure:"rpm" validate:"gt=0"`
	TimeoutS   float64 `mapstructure:"timeout_s" validate:"gt=0"`
	MaxRetries int     `mapstructure:"max_retries" validate:"gte=0"`
}

// Timeout returns the per-call timeout as a duration.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutS * float64(time.Second))
}

// SaveInterval returns the state-write coalescing window as a duration.
func (c Config) SaveInterval() time.Duration {
	return time.Duration(c.StateSaveIntervalS * float64(time.Second))
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// ARXIV_LLM_DEFAULT_API_KEY maps to llm.default.api_key.
const EnvPrefix = "ARXIV"

// DefaultFailurePatterns mark model refusals the prompts instruct the model to
// emit on failure; any output containing one is rejected.
var DefaultFailurePatterns = []string{"翻译失败", "生成失败", "快报生成失败"}

// Load builds configuration in layers: defaults, then an optional config file
// (explicit path or ./daydayarxiv.yaml), then ARXIV_-prefixed environment
// variables. The result is validated before being returned; CLI flag overrides
// are applied by the commands on top of the returned struct.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("daydayarxiv")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// The backup role is optional: defaults alone (no endpoint, key or model)
	// mean no backup is configured.
	if b := cfg.LLM.Backup; b != nil && b.BaseURL == "" && b.APIKey == "" && b.Model == "" {
		cfg.LLM.Backup = nil
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the assembled configuration, translating validator errors
// into a readable message. It must pass before any network or disk I/O.
func Validate(cfg *Config) error {
	validate := validator.New()
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
	}
	return fmt.Errorf("invalid configuration: %w", err)
}

// setDefaults registers every known key so environment-only overrides are
// picked up by Unmarshal even without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")
	v.SetDefault("log_dir", "logs")
	v.SetDefault("log_level", "info")
	v.SetDefault("category", "cs.AI")
	v.SetDefault("max_results", 1000)
	v.SetDefault("concurrency", 5)
	v.SetDefault("batch_size", 10)
	v.SetDefault("force", false)
	v.SetDefault("paper_max_attempts", 3)
	v.SetDefault("fail_on_error", false)
	v.SetDefault("state_save_interval_s", 1.0)
	v.SetDefault("failure_patterns", DefaultFailurePatterns)

	for _, role := range []string{"default", "strong", "backup"} {
		v.SetDefault("llm."+role+".base_url", "")
		v.SetDefault("llm."+role+".api_key", "")
		v.SetDefault("llm."+role+".model", "")
		v.SetDefault("llm."+role+".rpm", 20)
		v.SetDefault("llm."+role+".timeout_s", 60.0)
		v.SetDefault("llm."+role+".max_retries", 3)
	}
}

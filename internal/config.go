package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultKBBaseURL       = "http://localhost:3050/api/v1"
	DefaultLLMBaseURL      = "https://api.openai.com/v1"
	DefaultLLMModel        = "gpt-3.5-turbo"
	DefaultLLMTemperature  = 0.5
	DefaultCompletionDelay = 1000 * time.Millisecond
	DefaultCompletionLines = 30
	DefaultHTTPTimeout     = 120 * time.Second
	DefaultConfigFileName  = ".code-assistant.yaml"
)

// Config holds the runtime configuration
type Config struct {
	KnowledgeBase KnowledgeBaseConfig `yaml:"knowledge_base"`
	LLM           LLMConfig           `yaml:"llm"`
	Completion    CompletionConfig    `yaml:"completion"`
}

// KnowledgeBaseConfig configures the remote knowledge-base service
type KnowledgeBaseConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// LLMConfig configures the remote chat-completion service
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// CompletionConfig configures the inline completion assistant
type CompletionConfig struct {
	Delay    time.Duration `yaml:"delay"`
	MaxLines int           `yaml:"max_lines"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() Config {
	return Config{
		KnowledgeBase: KnowledgeBaseConfig{
			BaseURL: DefaultKBBaseURL,
			Timeout: DefaultHTTPTimeout,
		},
		LLM: LLMConfig{
			BaseURL:     DefaultLLMBaseURL,
			Model:       DefaultLLMModel,
			Temperature: DefaultLLMTemperature,
		},
		Completion: CompletionConfig{
			Delay:    DefaultCompletionDelay,
			MaxLines: DefaultCompletionLines,
		},
	}
}

// DefaultConfigPath returns ~/.code-assistant.yaml
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(home, DefaultConfigFileName)
}

// LoadConfig builds the configuration from defaults, an optional YAML file, a .env
// file in the working directory and finally the process environment.
// A missing file at path is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	_ = godotenv.Load(".env")

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			LogDebug("Loaded config from %s", path)
		case errors.Is(err, os.ErrNotExist):
			LogDebug("No config file at %s, using defaults", path)
		default:
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	setString(&c.KnowledgeBase.BaseURL, "KB_BASE_URL")
	setString(&c.KnowledgeBase.APIKey, "KB_API_KEY")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.Model, "LLM_MODEL")

	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid LLM_TEMPERATURE %q: %w", v, err)
		}
		c.LLM.Temperature = f
	}
	if v := os.Getenv("COMPLETION_DELAY_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid COMPLETION_DELAY_MS %q: %w", v, err)
		}
		c.Completion.Delay = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("COMPLETION_MAX_LINES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid COMPLETION_MAX_LINES %q: %w", v, err)
		}
		c.Completion.MaxLines = n
	}
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		s, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HTTP_TIMEOUT_SECONDS %q: %w", v, err)
		}
		c.KnowledgeBase.Timeout = time.Duration(s) * time.Second
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the configuration for unusable values
func (c Config) Validate() error {
	if c.KnowledgeBase.BaseURL == "" {
		return fmt.Errorf("knowledge_base.base_url is required")
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if c.Completion.Delay <= 0 {
		return fmt.Errorf("completion.delay must be positive, got %s", c.Completion.Delay)
	}
	if c.Completion.MaxLines <= 0 {
		return fmt.Errorf("completion.max_lines must be positive, got %d", c.Completion.MaxLines)
	}
	return nil
}

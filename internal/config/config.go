// Package config loads learnwatch.yml, layers .env and environment
// overrides on top, fills defaults and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/learnwatch/internal/llm"
	"github.com/dusk-indust/learnwatch/internal/result"
)

const (
	DefaultDebounce     = 500 * time.Millisecond
	DefaultTestTimeout  = 30 * time.Second
	DefaultPytestBinary = "pytest"
	DefaultLogMode      = "dev"
	DefaultMaxTokens    = 1000
	DefaultTemperature  = 0.3
	DefaultCacheSize    = 128
	studentIDFile       = "student_id"
)

// Environment variables that override file settings.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvProvider     = "LEARNWATCH_LLM_PROVIDER"
	EnvOllamaHost   = "OLLAMA_HOST"
	EnvStudentID    = "LEARNWATCH_STUDENT_ID"
	EnvDataDir      = "LEARNWATCH_DATA_DIR"
	EnvLogMode      = "LEARNWATCH_LOG_MODE"
	EnvPytestBinary = "LEARNWATCH_PYTEST"
)

// Config holds every learnwatch setting.
type Config struct {
	StudentID    string        `yaml:"studentId,omitempty"`
	DataDir      string        `yaml:"dataDir,omitempty" validate:"required"`
	LogMode      string        `yaml:"logMode,omitempty" validate:"oneof=dev prod"`
	LogLevel     string        `yaml:"logLevel,omitempty" validate:"omitempty,oneof=debug info warn error"`
	Debounce     time.Duration `yaml:"debounce,omitempty" validate:"min=10ms"`
	TestTimeout  time.Duration `yaml:"testTimeout,omitempty" validate:"min=1s"`
	PytestBinary string        `yaml:"pytestBinary,omitempty" validate:"required"`
	IgnoreDirs   []string      `yaml:"ignoreDirs,omitempty"`
	Seed         uint64        `yaml:"seed,omitempty"`
	GraphStore   string        `yaml:"graphStore,omitempty" validate:"omitempty,oneof=memory kuzu"`
	LLM          LLMConfig     `yaml:"llm,omitempty"`
}

// LLMConfig configures optional hint-text generation.
type LLMConfig struct {
	Provider    string   `yaml:"provider,omitempty" validate:"oneof=none openai ollama auto"`
	Model       string   `yaml:"model,omitempty"`
	OllamaModel string   `yaml:"ollamaModel,omitempty"`
	BaseURL     string   `yaml:"baseUrl,omitempty" validate:"omitempty,url"`
	APIKey      string   `yaml:"apiKey,omitempty" validate:"required_if=Provider openai"`
	MaxTokens   int      `yaml:"maxTokens,omitempty" validate:"min=1"`
	Temperature *float32 `yaml:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
	CacheSize   int      `yaml:"cacheSize,omitempty" validate:"min=0"`
}

// Enabled reports whether any provider may be used.
func (c LLMConfig) Enabled() bool {
	return c.Provider != llm.ProviderNone
}

// ProviderConfig converts to the llm package configuration.
func (c LLMConfig) ProviderConfig() llm.Config {
	temperature := float32(DefaultTemperature)
	if c.Temperature != nil {
		temperature = *c.Temperature
	}
	return llm.Config{
		Provider:    c.Provider,
		OpenAIModel: c.Model,
		OllamaModel: c.OllamaModel,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		CacheSize:   c.CacheSize,
	}
}

var validate = validator.New()

// Load reads learnwatch.yml or learnwatch.yaml from dir, then dir/.env and
// the process environment. A missing file is not an error. Invalid settings
// come back as a result.ValidationError.
func Load(dir string) (*Config, error) {
	cfg, err := readFile(dir)
	if err != nil {
		return nil, err
	}

	// Existing variables win over .env.
	_ = godotenv.Load(filepath.Join(dir, ".env"))
	applyEnv(cfg)
	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(dir string) (*Config, error) {
	for _, name := range []string{"learnwatch.yml", "learnwatch.yaml"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, result.Wrap(result.ValidationError, fmt.Errorf("parse %s: %w", name, err))
		}
		return &cfg, nil
	}
	return &Config{}, nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.LLM.APIKey, EnvOpenAIKey)
	set(&cfg.LLM.Provider, EnvProvider)
	set(&cfg.LLM.BaseURL, EnvOllamaHost)
	set(&cfg.StudentID, EnvStudentID)
	set(&cfg.DataDir, EnvDataDir)
	set(&cfg.LogMode, EnvLogMode)
	set(&cfg.PytestBinary, EnvPytestBinary)

	if cfg.LLM.BaseURL != "" && !strings.Contains(cfg.LLM.BaseURL, "://") {
		cfg.LLM.BaseURL = "http://" + cfg.LLM.BaseURL
	}
}

func applyDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	if cfg.LogMode == "" {
		cfg.LogMode = DefaultLogMode
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.TestTimeout == 0 {
		cfg.TestTimeout = DefaultTestTimeout
	}
	if cfg.PytestBinary == "" {
		cfg.PytestBinary = DefaultPytestBinary
	}
	if cfg.IgnoreDirs == nil {
		cfg.IgnoreDirs = []string{".git", ".venv", "venv", "__pycache__", ".pytest_cache", "node_modules"}
	}
	if cfg.GraphStore == "" {
		cfg.GraphStore = "memory"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = llm.ProviderAuto
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = llm.DefaultOpenAIModel
	}
	if cfg.LLM.OllamaModel == "" {
		cfg.LLM.OllamaModel = llm.DefaultOllamaModel
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = llm.DefaultOllamaURL
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = DefaultMaxTokens
	}
	if cfg.LLM.Temperature == nil {
		t := float32(DefaultTemperature)
		cfg.LLM.Temperature = &t
	}
	if cfg.LLM.CacheSize == 0 {
		cfg.LLM.CacheSize = DefaultCacheSize
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".learnwatch"
	}
	return filepath.Join(home, ".learnwatch")
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			if fe.Tag() == "required_if" {
				msgs = append(msgs, fmt.Sprintf("%s is required when %s", fe.Namespace(), fe.Param()))
				continue
			}
			msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return result.Wrap(result.ValidationError, errors.New("invalid config: "+strings.Join(msgs, "; ")))
	}
	return result.Wrap(result.ValidationError, err)
}

// ResolveStudentID returns cfg.StudentID, or the id stored in the data
// directory, generating and storing a new uuid on first use.
func ResolveStudentID(cfg *Config) (string, error) {
	if cfg.StudentID != "" {
		return cfg.StudentID, nil
	}
	path := filepath.Join(cfg.DataDir, studentIDFile)
	if data, err := os.ReadFile(path); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			cfg.StudentID = id
			return id, nil
		}
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	id := uuid.NewString()
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write student id: %w", err)
	}
	cfg.StudentID = id
	return id, nil
}

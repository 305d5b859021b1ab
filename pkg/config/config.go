package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/nikogura/resumeforge/pkg/jd"
	"github.com/nikogura/resumeforge/pkg/llm"
	"github.com/pkg/errors"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Environment variables that override the config file.
const (
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvProvider        = "RESUMEFORGE_PROVIDER"
	EnvScrapeURL       = "RESUMEFORGE_SCRAPE_URL"
	EnvRedisURL        = "RESUMEFORGE_REDIS_URL"
)

// Config represents the resumeforge configuration.
type Config struct {
	Provider        string        `json:"provider" validate:"omitempty,oneof=gemini anthropic"`
	GeminiAPIKey    string        `json:"gemini_api_key,omitempty"`
	AnthropicAPIKey string        `json:"anthropic_api_key,omitempty"`
	Models          ModelsConfig  `json:"models"`
	ScrapeURL       string        `json:"scrape_url" validate:"omitempty,url"`
	Store           StoreConfig   `json:"store"`
	Pandoc          PandocConfig  `json:"pandoc"`
	Defaults        DefaultConfig `json:"defaults"`
}

// ModelsConfig holds model names per task. Empty uses the provider default.
type ModelsConfig struct {
	Tailor      string `json:"tailor,omitempty"`
	CoverLetter string `json:"cover_letter,omitempty"`
}

// StoreConfig selects where saved resumes, jobs and presets live.
type StoreConfig struct {
	Backend  string `json:"backend" validate:"omitempty,oneof=file memory redis"`
	Path     string `json:"path,omitempty"`
	RedisURL string `json:"redis_url,omitempty" validate:"omitempty,url"`
}

// PandocConfig holds optional pandoc template settings for the pandoc PDF engine.
type PandocConfig struct {
	TemplatePath string `json:"template_path,omitempty"`
	ClassFile    string `json:"class_file,omitempty"`
}

// DefaultConfig holds default values.
type DefaultConfig struct {
	OutputDir string `json:"output_dir"`
}

// Dir returns ~/.resumeforge.
func Dir() (dir string, err error) {
	var homeDir string
	homeDir, err = os.UserHomeDir()
	if err != nil {
		err = errors.Wrap(err, "failed to get home directory")
		return dir, err
	}

	dir = filepath.Join(homeDir, ".resumeforge")
	return dir, err
}

// DefaultPath returns ~/.resumeforge/config.json.
func DefaultPath() (path string, err error) {
	var dir string
	dir, err = Dir()
	if err != nil {
		return path, err
	}

	path = filepath.Join(dir, "config.json")
	return path, err
}

// APIKey returns the credential for the selected provider.
func (c *Config) APIKey() (key string) {
	if c.Provider == llm.ProviderAnthropic {
		key = c.AnthropicAPIKey
		return key
	}
	key = c.GeminiAPIKey
	return key
}

// SetAPIKey sets the credential for the selected provider.
func (c *Config) SetAPIKey(key string) {
	if c.Provider == llm.ProviderAnthropic {
		c.AnthropicAPIKey = key
		return
	}
	c.GeminiAPIKey = key
}

// GetTailorModel returns the model for tailoring, with a provider default.
func (c *Config) GetTailorModel() (model string) {
	model = c.Models.Tailor
	if model == "" {
		model = defaultModel(c.Provider)
	}
	return model
}

// GetCoverLetterModel returns the model for cover letters, falling back to the tailoring model.
func (c *Config) GetCoverLetterModel() (model string) {
	model = c.Models.CoverLetter
	if model == "" {
		model = c.GetTailorModel()
	}
	return model
}

func defaultModel(provider string) (model string) {
	if provider == llm.ProviderAnthropic {
		model = llm.ClaudeModel
		return model
	}
	model = llm.GeminiModel
	return model
}

// Load reads configuration from the specified path, or ~/.resumeforge/config.json.
// A missing file at the default path yields defaults; a missing explicit path is an error.
// .env files in the working directory and ~/.resumeforge are loaded first; real
// environment variables win over both and over the file.
func Load(configPath string) (config *Config, err error) {
	explicit := configPath != ""

	var dir string
	dir, err = Dir()
	if err != nil {
		return config, err
	}

	if !explicit {
		configPath = filepath.Join(dir, "config.json")
	}

	err = loadDotEnv(".env", filepath.Join(dir, ".env"))
	if err != nil {
		return config, err
	}

	config = &Config{}

	var data []byte
	data, err = os.ReadFile(configPath)
	switch {
	case err == nil:
		err = json.Unmarshal(data, config)
		if err != nil {
			err = errors.Wrapf(err, "failed to parse config file: %s", configPath)
			return config, err
		}
	case os.IsNotExist(err) && !explicit:
		err = nil
	default:
		err = errors.Wrapf(err, "failed to read config file: %s (run 'resumeforge init' to create)", configPath)
		return config, err
	}

	config.applyEnv()
	config.applyDefaults(dir)

	err = config.Validate()
	if err != nil {
		err = errors.Wrap(err, "invalid configuration")
		return config, err
	}

	return config, err
}

// loadDotEnv loads each existing file. godotenv never overrides variables already set.
func loadDotEnv(paths ...string) (err error) {
	for _, path := range paths {
		_, statErr := os.Stat(path)
		if statErr != nil {
			continue
		}
		err = godotenv.Load(path)
		if err != nil {
			err = errors.Wrapf(err, "failed to load env file: %s", path)
			return err
		}
	}
	return err
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvProvider); v != "" {
		c.Provider = strings.ToLower(v)
	}
	if v := os.Getenv(EnvGeminiAPIKey); v != "" {
		c.GeminiAPIKey = v
	}
	if v := os.Getenv(EnvAnthropicAPIKey); v != "" {
		c.AnthropicAPIKey = v
	}
	if v := os.Getenv(EnvScrapeURL); v != "" {
		c.ScrapeURL = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Store.RedisURL = v
		c.Store.Backend = BackendRedis
	}
}

func (c *Config) applyDefaults(dir string) {
	if c.Provider == "" {
		c.Provider = llm.ProviderGemini
	}
	if c.ScrapeURL == "" {
		c.ScrapeURL = jd.DefaultScrapeURL
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendFile
	}
	if c.Store.Backend == BackendFile && c.Store.Path == "" {
		c.Store.Path = filepath.Join(dir, "store.json")
	}
	if c.Defaults.OutputDir == "" {
		c.Defaults.OutputDir = "."
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() (err error) {
	validate := validator.New()
	err = validate.Struct(c)
	if err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			first := validationErrs[0]
			err = errors.Errorf("%s failed %q validation", first.Namespace(), first.Tag())
			return err
		}
		err = errors.Wrap(err, "validation failed")
		return err
	}

	if c.Store.Backend == BackendRedis && c.Store.RedisURL == "" {
		err = errors.New("store.redis_url is required for the redis backend")
		return err
	}

	if c.Store.Backend == BackendFile && c.Store.Path != "" {
		info, statErr := os.Stat(c.Store.Path)
		if statErr == nil && info.IsDir() {
			err = errors.Errorf("store.path is a directory: %s", c.Store.Path)
			return err
		}
	}

	// Pandoc files are optional, but when configured they must exist.
	if c.Pandoc.TemplatePath != "" {
		_, err = os.Stat(c.Pandoc.TemplatePath)
		if os.IsNotExist(err) {
			err = errors.Errorf("pandoc.template_path does not exist: %s", c.Pandoc.TemplatePath)
			return err
		}
	}
	if c.Pandoc.ClassFile != "" {
		_, err = os.Stat(c.Pandoc.ClassFile)
		if os.IsNotExist(err) {
			err = errors.Errorf("pandoc.class_file does not exist: %s", c.Pandoc.ClassFile)
			return err
		}
	}

	err = nil
	return err
}

// InitConfig creates a default configuration file.
func InitConfig(configPath string) (err error) {
	if configPath == "" {
		configPath, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	// Check if config already exists
	_, err = os.Stat(configPath)
	if err == nil {
		err = errors.Errorf("config file already exists: %s", configPath)
		return err
	}

	configDir := filepath.Dir(configPath)
	err = os.MkdirAll(configDir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create config directory: %s", configDir)
		return err
	}

	defaultConfig := Config{
		Provider:  llm.ProviderGemini,
		ScrapeURL: jd.DefaultScrapeURL,
		Models: ModelsConfig{
			Tailor:      llm.GeminiModel,
			CoverLetter: llm.GeminiModel,
		},
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    filepath.Join(configDir, "store.json"),
		},
		Defaults: DefaultConfig{
			OutputDir: ".",
		},
	}

	var data []byte
	data, err = json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		err = errors.Wrap(err, "failed to marshal default config")
		return err
	}

	err = os.WriteFile(configPath, data, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write config file: %s", configPath)
		return err
	}

	return err
}

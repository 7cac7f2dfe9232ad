package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"

	"github.com/iishyfishyy/shellmind/internal/llm"
)

const (
	ConfigDirName  = ".shellmind"
	ConfigFileName = "config.yaml"
	EnvFileName    = ".env"
)

// HistoryDriver selects where command history is persisted
type HistoryDriver string

const (
	HistoryMemory HistoryDriver = "memory"
	HistorySQLite HistoryDriver = "sqlite"
	HistoryRedis  HistoryDriver = "redis"
)

// Config represents the application configuration
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`

	// Confirm asks before running model-proposed shell commands
	Confirm bool `yaml:"confirm"`
}

// BackendConfig holds the model backend settings. Several may be set;
// llm.Select decides which one wins.
type BackendConfig struct {
	ModelPath string `yaml:"model_path,omitempty"`
	APIURL    string `yaml:"api_url,omitempty"`
	OllamaURL string `yaml:"ollama_url,omitempty"`
	ModelName string `yaml:"model_name,omitempty"`
}

type HistoryConfig struct {
	Driver     HistoryDriver `yaml:"driver"`
	Path       string        `yaml:"path,omitempty"`
	MaxEntries int           `yaml:"max_entries,omitempty"`
	Redis      RedisConfig   `yaml:"redis,omitempty"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Key      string `yaml:"key,omitempty"`
	// TTL expires the shared history after a period without commands
	TTL time.Duration `yaml:"ttl,omitempty"`
}

type LogConfig struct {
	Debug bool `yaml:"debug"`
	// File enables the daily log file under the config directory
	File bool `yaml:"file"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		History: HistoryConfig{
			Driver:     HistoryMemory,
			MaxEntries: 1000,
		},
		Server: ServerConfig{
			Addr: ":8000",
		},
	}
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ConfigDirName), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// Load reads the config file, then .env, then SHELLMIND_* variables.
// A missing file yields the defaults.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom is Load with an explicit config file path
func LoadFrom(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// .env in the working directory never overrides variables already set
	if err := gotenv.Load(EnvFileName); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", EnvFileName, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	setString("SHELLMIND_MODEL_PATH", &c.Backend.ModelPath)
	setString("SHELLMIND_API_URL", &c.Backend.APIURL)
	setString("SHELLMIND_OLLAMA_URL", &c.Backend.OllamaURL)
	setString("SHELLMIND_MODEL_NAME", &c.Backend.ModelName)
	setString("SHELLMIND_REDIS_ADDR", &c.History.Redis.Addr)
	setString("SHELLMIND_REDIS_PASSWORD", &c.History.Redis.Password)
	setString("SHELLMIND_SERVER_ADDR", &c.Server.Addr)

	if v, ok := os.LookupEnv("SHELLMIND_HISTORY_DRIVER"); ok {
		c.History.Driver = HistoryDriver(v)
	}
	if v, ok := os.LookupEnv("SHELLMIND_DEBUG"); ok {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SHELLMIND_DEBUG value %q: %w", v, err)
		}
		c.Log.Debug = debug
	}
	return nil
}

// Validate checks values that would otherwise fail later
func (c *Config) Validate() error {
	switch c.History.Driver {
	case "", HistoryMemory, HistorySQLite:
	case HistoryRedis:
		if c.History.Redis.Addr == "" {
			return fmt.Errorf("history driver redis requires history.redis.addr")
		}
	default:
		return fmt.Errorf("unknown history driver %q", c.History.Driver)
	}
	if c.History.MaxEntries < 0 {
		return fmt.Errorf("history.max_entries must not be negative")
	}
	return nil
}

// LLMOptions converts the backend section for llm.Select
func (c *Config) LLMOptions() llm.Options {
	return llm.Options{
		ModelPath:      c.Backend.ModelPath,
		RemoteURL:      c.Backend.APIURL,
		InferenceURL:   c.Backend.OllamaURL,
		InferenceModel: c.Backend.ModelName,
	}
}

// HistoryPath returns the SQLite database path, defaulting to the config dir
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Save writes the configuration to the default location
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, configPath)
}

// SaveTo writes the configuration to configPath
func SaveTo(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists checks if a configuration file exists
func Exists() (bool, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return false, err
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/menta2k/creature-card/pkg/catalog"
	"github.com/menta2k/creature-card/pkg/processing"
)

// Environment variables that override file settings
const (
	EnvAPIURL   = "CREATURE_CARD_API_URL"
	EnvMaxID    = "CREATURE_CARD_MAX_ID"
	EnvAddr     = "CREATURE_CARD_ADDR"
	EnvFormat   = "CREATURE_CARD_FORMAT"
	EnvLogLevel = "CREATURE_CARD_LOG_LEVEL"
)

// Config holds the application configuration
type Config struct {
	Catalog    CatalogConfig    `json:"catalog" yaml:"catalog"`
	Trimmer    TrimmerConfig    `json:"trimmer" yaml:"trimmer"`
	Processing ProcessingConfig `json:"processing" yaml:"processing"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// CatalogConfig holds settings for the record catalog
type CatalogConfig struct {
	BaseURL   string `json:"base_url" yaml:"base_url"`
	MaxID     int    `json:"max_id" yaml:"max_id"`
	Timeout   string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// TrimmerConfig holds settings for encoding trimmed sprites
type TrimmerConfig struct {
	Format       string `json:"format" yaml:"format"`
	Quality      int    `json:"quality" yaml:"quality"`
	Lossless     bool   `json:"lossless" yaml:"lossless"`
	DisplayScale int    `json:"display_scale" yaml:"display_scale"`
}

// ProcessingConfig holds settings for sprite downloads
type ProcessingConfig struct {
	SpriteCacheBytes int64  `json:"sprite_cache_bytes" yaml:"sprite_cache_bytes"`
	FetchTimeout     string `json:"fetch_timeout,omitempty" yaml:"fetch_timeout,omitempty"`
}

// ServerConfig holds settings for the HTTP server
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL: catalog.DefaultBaseURL,
			MaxID:   catalog.DefaultMaxID,
		},
		Trimmer: TrimmerConfig{
			Format:       "png",
			Quality:      90,
			Lossless:     true,
			DisplayScale: 1,
		},
		Processing: ProcessingConfig{},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a JSON or YAML file. Fields missing
// from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := Default()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON or YAML file, chosen by extension
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// LoadEnv applies overrides from envFile (when it exists) and the process
// environment. Process variables win over the file.
func (c *Config) LoadEnv(envFile string) error {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = vars
		case !os.IsNotExist(errors.Cause(err)):
			return errors.Wrapf(err, "failed to read %s", envFile)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	if v, ok := lookup(EnvAPIURL); ok {
		c.Catalog.BaseURL = v
	}
	if v, ok := lookup(EnvMaxID); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvMaxID)
		}
		c.Catalog.MaxID = n
	}
	if v, ok := lookup(EnvAddr); ok {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvFormat); ok {
		c.Trimmer.Format = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = v
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url cannot be empty")
	}

	if c.Catalog.MaxID < 1 {
		return fmt.Errorf("catalog.max_id must be positive")
	}

	if _, err := parseDuration(c.Catalog.Timeout); err != nil {
		return fmt.Errorf("catalog.timeout: %v", err)
	}

	if c.Trimmer.Format != "png" && c.Trimmer.Format != "webp" {
		return fmt.Errorf("trimmer.format must be png or webp")
	}

	if c.Trimmer.Quality < 1 || c.Trimmer.Quality > 100 {
		return fmt.Errorf("trimmer.quality must be between 1 and 100")
	}

	if c.Trimmer.DisplayScale < 1 {
		return fmt.Errorf("trimmer.display_scale must be positive")
	}

	if c.Processing.SpriteCacheBytes < 0 {
		return fmt.Errorf("processing.sprite_cache_bytes cannot be negative")
	}

	if _, err := parseDuration(c.Processing.FetchTimeout); err != nil {
		return fmt.Errorf("processing.fetch_timeout: %v", err)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}

	return nil
}

// CatalogClientConfig converts the catalog section for catalog.NewClientWithConfig.
// Call Validate first; an unparsable timeout is treated as none.
func (c *Config) CatalogClientConfig() catalog.Config {
	timeout, _ := parseDuration(c.Catalog.Timeout)
	return catalog.Config{
		BaseURL:   c.Catalog.BaseURL,
		MaxID:     c.Catalog.MaxID,
		Timeout:   timeout,
		UserAgent: c.Catalog.UserAgent,
	}
}

// ProcessorConfig converts the trimmer and processing sections for
// processing.NewProcessorWithConfig
func (c *Config) ProcessorConfig() processing.Config {
	timeout, _ := parseDuration(c.Processing.FetchTimeout)
	return processing.Config{
		Format:       c.Trimmer.Format,
		Quality:      c.Trimmer.Quality,
		Lossless:     c.Trimmer.Lossless,
		FetchTimeout: timeout,
		CacheBytes:   c.Processing.SpriteCacheBytes,
		UserAgent:    c.Catalog.UserAgent,
	}
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration cannot be negative")
	}
	return d, nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "creature-card", "config.json")
}

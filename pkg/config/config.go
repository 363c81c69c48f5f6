package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the Bing image downloader
type Config struct {
	// Search settings
	Search SearchConfig `yaml:"search" json:"search"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SearchConfig holds search-request configuration
type SearchConfig struct {
	AdultContent bool   `yaml:"adult_content" json:"adult_content"`
	Filter       string `yaml:"filter" json:"filter"`
	UserAgent    string `yaml:"user_agent" json:"user_agent"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	// ConcurrentDownloads caps the per-page download burst.
	// 0 means unbounded: every eligible candidate on a page is
	// fetched at once.
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	Timeout             time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerMinute   int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	ForceReplace  bool   `yaml:"force_replace" json:"force_replace"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			AdultContent: false,
			Filter:       "",
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) " +
				"AppleWebKit/537.11 (KHTML, like Gecko) " +
				"Chrome/23.0.1271.64 Safari/537.11",
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 0,
			Timeout:             60 * time.Second,
			RequestsPerMinute:   0, // 0 means no rate limiting
		},
		Output: OutputConfig{
			BaseDirectory: "dataset",
			ForceReplace:  false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if outputDir := os.Getenv("BINGDL_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if concurrent := os.Getenv("BINGDL_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}

	if timeout := os.Getenv("BINGDL_TIMEOUT"); timeout != "" {
		var val int
		fmt.Sscanf(timeout, "%d", &val)
		if val > 0 {
			c.Download.Timeout = time.Duration(val) * time.Second
		}
	}

	if rpm := os.Getenv("BINGDL_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.Download.RequestsPerMinute = val
		}
	}

	if adult := os.Getenv("BINGDL_ADULT_CONTENT"); adult != "" {
		c.Search.AdultContent = strings.ToLower(adult) == "true"
	}

	if filter := os.Getenv("BINGDL_FILTER"); filter != "" {
		c.Search.Filter = filter
	}

	if userAgent := os.Getenv("BINGDL_USER_AGENT"); userAgent != "" {
		c.Search.UserAgent = userAgent
	}

	if logLevel := os.Getenv("BINGDL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".bingdl.yaml",
		".bingdl.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "bingdl", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "bingdl", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".bingdl.yaml"),
		filepath.Join(os.Getenv("HOME"), ".bingdl.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Download.ConcurrentDownloads < 0 {
		errs = append(errs, errors.New("concurrent downloads cannot be negative"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	if c.Search.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	if c.Search.Filter != "" && !knownFilter(c.Search.Filter) {
		errs = append(errs, fmt.Errorf("unknown filter shorthand: %s", c.Search.Filter))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// knownFilter reports whether the shorthand maps to a search filter code.
func knownFilter(shorthand string) bool {
	switch shorthand {
	case "line", "linedrawing", "photo", "clipart", "gif", "animatedgif", "transparent":
		return true
	}
	return false
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if timeout, ok := flags["timeout"].(int); ok && timeout > 0 {
		c.Download.Timeout = time.Duration(timeout) * time.Second
	}
	if rpm, ok := flags["rate-limit"].(int); ok && rpm > 0 {
		c.Download.RequestsPerMinute = rpm
	}
	if adult, ok := flags["adult"].(bool); ok {
		c.Search.AdultContent = adult
	}
	if filter, ok := flags["filter"].(string); ok && filter != "" {
		c.Search.Filter = filter
	}
	if force, ok := flags["force"].(bool); ok {
		c.Output.ForceReplace = force
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".bingdl.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spiffcs/ghissues/internal/constants"
)

// Config represents the application configuration. Pointer and empty
// fields fall back to defaults through the accessor methods.
type Config struct {
	DefaultOwner      string `yaml:"default_owner,omitempty"`
	DefaultRepo       string `yaml:"default_repo,omitempty"`
	PerPage           int    `yaml:"per_page,omitempty"`
	CacheEnabled      *bool  `yaml:"cache_enabled,omitempty"`
	CacheTTLValue     string `yaml:"cache_ttl,omitempty"`
	RequestRetries    *int   `yaml:"request_retries,omitempty"`
	RequestRetryDelay string `yaml:"request_retry_delay,omitempty"`
	LogFile           string `yaml:"log_file,omitempty"`
	Format            string `yaml:"format,omitempty"`
}

// Keys lists the settable keys in file order.
var Keys = []string{
	"default_owner",
	"default_repo",
	"per_page",
	"cache_enabled",
	"cache_ttl",
	"request_retries",
	"request_retry_delay",
	"log_file",
	"format",
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".ghissues"
	}
	return filepath.Join(configDir, "ghissues")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".ghissues.yaml"
}

// Load reads the global config, then merges a local .ghissues.yaml on top
// (local values take precedence).
func Load() (*Config, error) {
	return LoadFrom(ConfigPath(), LocalConfigPath())
}

// LoadFrom is Load with explicit paths. Missing files are skipped.
func LoadFrom(globalPath, localPath string) (*Config, error) {
	cfg := &Config{}
	if err := readInto(globalPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}

	var local Config
	if err := readInto(localPath, &local); err != nil {
		return nil, fmt.Errorf("failed to load local config: %w", err)
	}
	cfg = mergeConfig(cfg, &local)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readInto(path string, cfg *Config) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := *global
	if local.DefaultOwner != "" {
		result.DefaultOwner = local.DefaultOwner
	}
	if local.DefaultRepo != "" {
		result.DefaultRepo = local.DefaultRepo
	}
	if local.PerPage != 0 {
		result.PerPage = local.PerPage
	}
	if local.CacheEnabled != nil {
		result.CacheEnabled = local.CacheEnabled
	}
	if local.CacheTTLValue != "" {
		result.CacheTTLValue = local.CacheTTLValue
	}
	if local.RequestRetries != nil {
		result.RequestRetries = local.RequestRetries
	}
	if local.RequestRetryDelay != "" {
		result.RequestRetryDelay = local.RequestRetryDelay
	}
	if local.LogFile != "" {
		result.LogFile = local.LogFile
	}
	if local.Format != "" {
		result.Format = local.Format
	}
	return &result
}

// Validate checks values that cannot fall back silently.
func (c *Config) Validate() error {
	if c.PerPage < 0 || c.PerPage > constants.MaxPerPage {
		return fmt.Errorf("per_page must be between 1 and %d, got %d", constants.MaxPerPage, c.PerPage)
	}
	if c.RequestRetries != nil && *c.RequestRetries < 0 {
		return fmt.Errorf("request_retries must not be negative, got %d", *c.RequestRetries)
	}
	for key, v := range map[string]string{"cache_ttl": c.CacheTTLValue, "request_retry_delay": c.RequestRetryDelay} {
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: invalid duration %q: %w", key, v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %s", key, v)
		}
	}
	switch c.Format {
	case "", "table", "json", "markdown":
	default:
		return fmt.Errorf("format must be table, json or markdown, got %q", c.Format)
	}
	return nil
}

// GetPerPage returns the page size for lists and search.
func (c *Config) GetPerPage() int {
	if c.PerPage <= 0 {
		return constants.DefaultPerPage
	}
	return c.PerPage
}

// IsCacheEnabled reports whether responses are cached.
func (c *Config) IsCacheEnabled() bool {
	return c.CacheEnabled == nil || *c.CacheEnabled
}

// CacheTTL returns the freshness window for cached responses.
func (c *Config) CacheTTL() time.Duration {
	return durationOr(c.CacheTTLValue, constants.DefaultCacheTTL)
}

// GetRequestRetries returns how many times transient failures are retried.
func (c *Config) GetRequestRetries() int {
	if c.RequestRetries == nil {
		return constants.DefaultRequestRetries
	}
	return *c.RequestRetries
}

// GetRequestRetryDelay returns the delay between retries.
func (c *Config) GetRequestRetryDelay() time.Duration {
	return durationOr(c.RequestRetryDelay, constants.DefaultRequestRetryDelay)
}

// GetFormat returns the default CLI output format.
func (c *Config) GetFormat() string {
	if c.Format == "" {
		return "table"
	}
	return c.Format
}

func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Set assigns key from its string form, as given on the command line.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "default_owner":
		c.DefaultOwner = value
	case "default_repo":
		if owner, repo, ok := strings.Cut(value, "/"); ok {
			c.DefaultOwner, c.DefaultRepo = owner, repo
		} else {
			c.DefaultRepo = value
		}
	case "per_page":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("per_page: %w", err)
		}
		c.PerPage = n
	case "cache_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("cache_enabled: %w", err)
		}
		c.CacheEnabled = &b
	case "cache_ttl":
		c.CacheTTLValue = value
	case "request_retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("request_retries: %w", err)
		}
		c.RequestRetries = &n
	case "request_retry_delay":
		c.RequestRetryDelay = value
	case "log_file":
		c.LogFile = value
	case "format":
		c.Format = value
	default:
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys, ", "))
	}
	return c.Validate()
}

// Save saves the configuration to the global config file.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return SaveTo(ConfigPath(), string(data))
}

// GetGitHubToken returns the token from GITHUB_TOKEN, falling back to
// GH_TOKEN. Tokens are never read from the config file.
func (c *Config) GetGitHubToken() string {
	if tok := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); tok != "" {
		return tok
	}
	return strings.TrimSpace(os.Getenv("GH_TOKEN"))
}

// DefaultConfig returns a fully populated config with all default values.
func DefaultConfig() *Config {
	enabled := true
	retries := constants.DefaultRequestRetries
	return &Config{
		PerPage:           constants.DefaultPerPage,
		CacheEnabled:      &enabled,
		CacheTTLValue:     constants.DefaultCacheTTL.String(),
		RequestRetries:    &retries,
		RequestRetryDelay: constants.DefaultRequestRetryDelay.String(),
		Format:            "table",
	}
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# ghissues configuration file
# See: ghissues config defaults  (for all available options)
# Tokens are read from GITHUB_TOKEN or GH_TOKEN, never from this file.

# Repository used when --repo is not given and the current directory
# is not a GitHub checkout (optional)
# default_owner: octocat
# default_repo: hello-world

# Issues per page (1-100)
per_page: 30

# Response cache
cache_enabled: true
cache_ttl: 5m

# Retries for transient network errors
# request_retries: 3
# request_retry_delay: 1s

# Log file for the interactive UI (optional)
# log_file: /tmp/ghissues.log

# Output format for list and view: table, json or markdown
format: table
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}

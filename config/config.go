// Package config provides configuration for all livedash-deploy services.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	SnapshotsDir = "snapshots"
	TmpDir       = "tmp"
)

// EnvProvider abstracts environment variable access for testing
type EnvProvider interface {
	Getenv(key string) string
	UserHomeDir() (string, error)
}

// DefaultEnvProvider implements EnvProvider using real OS functions
type DefaultEnvProvider struct{}

func (p *DefaultEnvProvider) Getenv(key string) string {
	return os.Getenv(key)
}

func (p *DefaultEnvProvider) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

// GetDefaultDataDir returns the default data directory following the XDG Base
// Directory specification.
func GetDefaultDataDir() string {
	return getDefaultDataDirWithEnv(&DefaultEnvProvider{})
}

func getDefaultDataDirWithEnv(env EnvProvider) string {
	// Use XDG_DATA_HOME if set, otherwise fallback to ~/.local/share
	xdgDataHome := env.Getenv("XDG_DATA_HOME")
	if xdgDataHome != "" {
		return filepath.Join(xdgDataHome, "livedash-deploy")
	}

	homeDir, _ := env.UserHomeDir()
	return filepath.Join(homeDir, ".local", "share", "livedash-deploy")
}

// Config holds configuration for all services
type Config struct {
	// Core paths
	DataDir      string
	DatabasePath string
	SnapshotsDir string
	TmpDir       string

	// The deployed application
	ServiceName string
	// AppDir is the checkout of the application being deployed.
	AppDir string
	// ConfigFiles are the application config files captured into snapshots,
	// relative to AppDir.
	ConfigFiles []string
	// DependencyManifest is the dependency lock file captured into snapshots,
	// relative to AppDir.
	DependencyManifest string
	// FlagsFile is the feature flag store, relative to AppDir.
	FlagsFile string
	// FeatureFlags are the flags enabled by the deployment's activation phase.
	FeatureFlags []string

	// Logging
	LogLevel     string
	ColorEnabled bool

	// Docker
	DockerHost    string
	DockerCommand string
	ComposeFiles  []string

	// External tool commands
	MigrateCommand     []string
	DataRestoreCommand []string
	DataVerifyCommand  []string
	InstallCommand     []string

	// Health gate
	HealthURL      string
	HealthTimeout  time.Duration
	HealthInterval time.Duration

	// Budgets and timeouts
	MaxDowntime    time.Duration
	CommandTimeout time.Duration
	GitTimeout     time.Duration

	// Encryption
	EncryptionKey string

	// Environment provider for testing
	env EnvProvider
}

// NewConfig creates a new configuration with optional data directory override
func NewConfig(cliDataDir string) (*Config, error) {
	return NewConfigWithEnv(&DefaultEnvProvider{}, cliDataDir)
}

// NewConfigWithEnv creates a new configuration with a custom environment
// provider (for testing)
func NewConfigWithEnv(env EnvProvider, cliDataDir string) (*Config, error) {
	c := &Config{env: env}

	// Set defaults first
	c.setDefaults()

	// Override with environment variables
	c.loadFromEnv()

	// Override with CLI flags (if provided)
	if cliDataDir != "" {
		c.DataDir = cliDataDir
	}

	// Derive dependent paths
	c.derivePaths()

	// Try to read encryption key from the key file as fallback (after data
	// dir is finalized)
	if c.EncryptionKey == "" {
		if key := c.readEncryptionKeyFromFile(); key != "" {
			c.EncryptionKey = key
		}
	}

	// Validate
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return c, nil
}

// setDefaults sets sensible default values
func (c *Config) setDefaults() {
	c.DataDir = getDefaultDataDirWithEnv(c.env)
	c.ServiceName = "livedash"
	c.AppDir = "/srv/livedash"
	c.ConfigFiles = []string{".env", "config/production.yaml"}
	c.DependencyManifest = "package-lock.json"
	c.FlagsFile = "config/flags.yaml"
	c.LogLevel = "info"
	c.ColorEnabled = true
	c.DockerHost = "unix:///var/run/docker.sock"
	c.DockerCommand = "docker"
	c.ComposeFiles = []string{"compose.yaml"}
	c.MigrateCommand = []string{"npx", "prisma", "migrate", "deploy"}
	c.DataRestoreCommand = []string{"scripts/restore-db.sh"}
	c.DataVerifyCommand = []string{"scripts/verify-db.sh"}
	c.InstallCommand = []string{"npm", "ci"}
	c.HealthURL = "http://127.0.0.1:3000/api/health"
	c.HealthTimeout = 60 * time.Second
	c.HealthInterval = 2 * time.Second
	c.MaxDowntime = 30 * time.Second
	c.CommandTimeout = 10 * time.Minute
	c.GitTimeout = 5 * time.Minute
	// Don't set a default encryption key - it must be provided explicitly
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if v := c.env.Getenv("LIVEDASH_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := c.env.Getenv("LIVEDASH_DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := c.env.Getenv("LIVEDASH_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := c.env.Getenv("LIVEDASH_APP_DIR"); v != "" {
		c.AppDir = v
	}
	if v := c.env.Getenv("LIVEDASH_FEATURE_FLAGS"); v != "" {
		c.FeatureFlags = nil
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				c.FeatureFlags = append(c.FeatureFlags, name)
			}
		}
	}
	if v := c.env.Getenv("LIVEDASH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := c.env.Getenv("LIVEDASH_COLOR_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.ColorEnabled = enabled
		}
	}
	if v := c.env.Getenv("LIVEDASH_DOCKER_HOST"); v != "" {
		c.DockerHost = v
	}
	if v := c.env.Getenv("LIVEDASH_DOCKER_COMMAND"); v != "" {
		c.DockerCommand = v
	}
	if v := c.env.Getenv("LIVEDASH_HEALTH_URL"); v != "" {
		c.HealthURL = v
	}
	if v := c.env.Getenv("LIVEDASH_HEALTH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.HealthTimeout = d
		}
	}
	if v := c.env.Getenv("LIVEDASH_MAX_DOWNTIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.MaxDowntime = d
		}
	}
	if v := c.env.Getenv("LIVEDASH_COMMAND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.CommandTimeout = d
		}
	}
	if v := c.env.Getenv("LIVEDASH_GIT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.GitTimeout = d
		}
	}
	if v := c.env.Getenv("LIVEDASH_ENCRYPTION_KEY"); v != "" {
		c.EncryptionKey = v
	}
}

// readEncryptionKeyFromFile attempts to read the encryption key from the key
// file in the data directory
func (c *Config) readEncryptionKeyFromFile() string {
	keyFile := filepath.Join(c.DataDir, "encryption.key")

	data, err := os.ReadFile(keyFile)
	if err != nil {
		// Key file doesn't exist or can't be read, that's okay
		return ""
	}

	return string(trimNewline(data))
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

// derivePaths calculates dependent paths from the base DataDir
func (c *Config) derivePaths() {
	c.TmpDir = filepath.Join(c.DataDir, TmpDir)
	c.SnapshotsDir = filepath.Join(c.DataDir, SnapshotsDir)

	// Set default database path if not explicitly configured
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.DataDir, "livedash-deploy.db")
	}
}

// validate ensures configuration values are valid
func (c *Config) validate() error {
	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warning": true, "error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warning, or error)", c.LogLevel)
	}

	if c.ServiceName == "" {
		return fmt.Errorf("service name cannot be empty")
	}

	if c.AppDir == "" {
		return fmt.Errorf("app directory cannot be empty")
	}

	// Validate timeouts and budgets
	if c.MaxDowntime <= 0 {
		return fmt.Errorf("max downtime must be positive, got: %v", c.MaxDowntime)
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command timeout must be positive, got: %v", c.CommandTimeout)
	}
	if c.GitTimeout <= 0 {
		return fmt.Errorf("git timeout must be positive, got: %v", c.GitTimeout)
	}
	if c.HealthTimeout <= 0 {
		return fmt.Errorf("health timeout must be positive, got: %v", c.HealthTimeout)
	}

	// Validate Docker command is not empty
	if c.DockerCommand == "" {
		return fmt.Errorf("docker command cannot be empty")
	}

	// Require encryption key to be provided via environment variable or key file
	if c.EncryptionKey == "" {
		return fmt.Errorf(
			"encryption key is required - set LIVEDASH_ENCRYPTION_KEY environment variable or ensure encryption.key exists in data directory (%s)",
			c.DataDir,
		)
	}

	return nil
}

// GetLogLevel returns the configured log level
func (c *Config) GetLogLevel() string {
	return c.LogLevel
}

// FlagsPath returns the absolute path of the feature flag store.
func (c *Config) FlagsPath() string {
	return filepath.Join(c.AppDir, c.FlagsFile)
}

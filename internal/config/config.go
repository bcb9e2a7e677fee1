// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/listenupapp/taxonomy-server/internal/prefer"
)

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Storage    StorageConfig
	Server     ServerConfig
	Taxonomies TaxonomiesConfig
	Auth       AuthConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig holds the on-disk locations of the database, search index and auth key.
type StorageConfig struct {
	DataPath string
}

// DatabasePath returns the path of the SQLite database file.
func (s StorageConfig) DatabasePath() string {
	return filepath.Join(s.DataPath, "taxonomy.db")
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name         string        // Host name used in term links (default: localhost:8080)
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	TrustProxy   bool          // Take the client address from X-Forwarded-For (default: false)
}

// TaxonomiesConfig holds the term link prefix and the server default representation.
type TaxonomiesConfig struct {
	// URLPrefix is the path before "{code}/terms/" in term links.
	URLPrefix string
	// DefaultInclude and DefaultExclude are Prefer flag lists.
	DefaultInclude string
	DefaultExclude string
}

// Representation parses the default include and exclude lists.
func (t TaxonomiesConfig) Representation() (prefer.Representation, error) {
	include, err := prefer.ParseFlags(t.DefaultInclude)
	if err != nil {
		return prefer.Representation{}, fmt.Errorf("default include: %w", err)
	}
	exclude, err := prefer.ParseFlags(t.DefaultExclude)
	if err != nil {
		return prefer.Representation{}, fmt.Errorf("default exclude: %w", err)
	}
	return prefer.Representation{Include: include, Exclude: exclude}, nil
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for access tokens (32 bytes)
	TokenKey      []byte
	TokenDuration time.Duration // e.g., 720h
}

// CORSConfig holds the allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig holds the per-client request rate limit.
type RateLimitConfig struct {
	RequestsPerSecond float64 // 0 disables rate limiting
	Burst             int
}

// Defaults for values without an obvious zero.
const (
	DefaultURLPrefix      = "/api/v1/taxonomies/"
	DefaultInclude        = "self slug lvl data url drl"
	DefaultTokenDuration  = "720h"
	DefaultRateLimitRPS   = "20"
	DefaultRateLimitBurst = 40
)

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from args and the environment with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("taxonomy-server", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for the database, search index and auth key")
	serverName := fs.String("server-name", "", "Host name used in term links")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	trustProxy := fs.String("trust-proxy", "", "Trust X-Forwarded-For (default: false)")

	// Taxonomy flags
	urlPrefix := fs.String("url-prefix", "", "Path prefix of term links (default: "+DefaultURLPrefix+")")
	defaultInclude := fs.String("default-include", "", "Default Prefer include list")
	defaultExclude := fs.String("default-exclude", "", "Default Prefer exclude list")

	tokenDuration := fs.String("token-duration", "", "Access token lifetime (e.g., 720h)")
	corsOrigins := fs.String("cors-origins", "", "Comma separated allowed origins (default: *)")
	rateLimitRPS := fs.String("rate-limit-rps", "", "Requests per second per client, 0 disables")
	rateLimitBurst := fs.String("rate-limit-burst", "", "Rate limit burst size")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Name:       getConfigValue(*serverName, "SERVER_NAME", "localhost:8080"),
			Port:       getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			TrustProxy: getBoolConfigValue(*trustProxy, "SERVER_TRUST_PROXY", false),
		},
		Taxonomies: TaxonomiesConfig{
			URLPrefix:      getConfigValue(*urlPrefix, "TAXONOMIES_URL_PREFIX", DefaultURLPrefix),
			DefaultInclude: getConfigValue(*defaultInclude, "TAXONOMIES_DEFAULT_INCLUDE", DefaultInclude),
			DefaultExclude: getConfigValue(*defaultExclude, "TAXONOMIES_DEFAULT_EXCLUDE", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
		RateLimit: RateLimitConfig{
			Burst: getIntConfigValue(*rateLimitBurst, "RATE_LIMIT_BURST", DefaultRateLimitBurst),
		},
	}

	var err error
	if cfg.Auth.TokenDuration, err = getDurationConfigValue(*tokenDuration, "TOKEN_DURATION", DefaultTokenDuration); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	rpsStr := getConfigValue(*rateLimitRPS, "RATE_LIMIT_RPS", DefaultRateLimitRPS)
	cfg.RateLimit.RequestsPerSecond, err = strconv.ParseFloat(rpsStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rpsStr, err)
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %s", c.Server.Port)
	}

	if c.Server.Name == "" {
		return errors.New("server name is required to build term links")
	}

	if !strings.HasPrefix(c.Taxonomies.URLPrefix, "/") || !strings.HasSuffix(c.Taxonomies.URLPrefix, "/") {
		return fmt.Errorf("invalid url prefix %q: must start and end with /", c.Taxonomies.URLPrefix)
	}

	if _, err := c.Taxonomies.Representation(); err != nil {
		return err
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("invalid rate limit: %v", c.RateLimit.RequestsPerSecond)
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("invalid rate limit burst: %d", c.RateLimit.Burst)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data path to ~/.taxonomy-server.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Storage.DataPath, filepath.Join(homeDir, ".taxonomy-server"))
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), strValue, err)
	}
	return d, nil
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}

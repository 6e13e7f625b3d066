// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Database backends.
const (
	BackendMongo  = "mongo"
	BackendBadger = "badger"
)

// Storage backends.
const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// Upload naming strategies.
const (
	NamingNanoID   = "nanoid"
	NamingUUID     = "uuid"
	NamingOriginal = "original"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Auth     AuthConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	// DataPath is the root for the embedded database, local images, and the auth key.
	DataPath string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string        // default: 5000
	Host           string        // host name used to build absolute file URLs
	PublicURL      string        // overrides Host when set, e.g. https://img.example.com
	ReadTimeout    time.Duration // default: 2m, uploads are read inside this window
	WriteTimeout   time.Duration // default: 2m
	IdleTimeout    time.Duration // default: 60s
	CORSOrigins    []string
	TrustedProxies []string // peers allowed to set X-Forwarded-For; empty trusts none
}

// DatabaseConfig holds document store configuration.
type DatabaseConfig struct {
	Backend  string
	URI      string
	Username string
	Password string
	Host     string
	Port     string
	Name     string
	// Path is the badger directory.
	Path string
}

// StorageConfig holds file store configuration.
type StorageConfig struct {
	Backend        string
	Path           string
	URLPrefix      string
	Naming         string
	MaxUploadBytes int64
	S3             S3Config
}

// S3Config holds MinIO/S3 credentials for the minio storage backend.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Enabled bool
	// Secret derives the token key. Empty means a generated key file under DataPath.
	Secret             string
	TokenDuration      time.Duration
	LoginRatePerMinute int
	LoginBurst         int
	Account            AccountConfig
}

// AccountConfig seeds the single user account at startup when Email and Password are set.
type AccountConfig struct {
	Email    string
	Name     string
	Password string
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("imagevault", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for local data")

	serverPort := fs.String("port", "", "Server port (default: 5000)")
	serverHost := fs.String("host", "", "Host name used in absolute file URLs")
	publicURL := fs.String("public-url", "", "Public base URL for stored files")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 2m)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 2m)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins (default: *)")
	trustedProxies := fs.String("trusted-proxies", "", "Comma-separated proxy addresses or CIDRs whose X-Forwarded-For is trusted")

	dbBackend := fs.String("db-backend", "", "Document store backend: mongo or badger")
	dbURI := fs.String("db-uri", "", "MongoDB connection string")
	dbPath := fs.String("db-path", "", "Badger database directory")

	storageBackend := fs.String("storage-backend", "", "File store backend: local or minio")
	storagePath := fs.String("storage-path", "", "Directory for stored images")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			DataPath:    getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "5000"),
			Host:           getConfigValue(*serverHost, "SERVER_HOST", ""),
			PublicURL:      getConfigValue(*publicURL, "SERVER_PUBLIC_URL", ""),
			CORSOrigins:    splitList(getConfigValue(*corsOrigins, "CORS_ALLOWED_ORIGINS", "*")),
			TrustedProxies: splitList(getConfigValue(*trustedProxies, "SERVER_TRUSTED_PROXIES", "")),
		},
		Database: DatabaseConfig{
			Backend:  strings.ToLower(getConfigValue(*dbBackend, "DB_BACKEND", BackendMongo)),
			URI:      getConfigValue(*dbURI, "DB_URI", ""),
			Username: getConfigValue("", "DB_USERNAME", ""),
			Password: getConfigValue("", "DB_PASSWORD", ""),
			Host:     getConfigValue("", "DB_HOST", "localhost"),
			Port:     getConfigValue("", "DB_PORT", "27017"),
			Name:     getConfigValue("", "DB_NAME", "imagevault"),
			Path:     getConfigValue(*dbPath, "DB_PATH", ""),
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(getConfigValue(*storageBackend, "STORAGE_BACKEND", StorageLocal)),
			Path:           getConfigValue(*storagePath, "STORAGE_PATH", ""),
			URLPrefix:      getConfigValue("", "STORAGE_URL_PREFIX", "/images"),
			Naming:         strings.ToLower(getConfigValue("", "STORAGE_NAMING", NamingNanoID)),
			MaxUploadBytes: getInt64ConfigValue("", "STORAGE_MAX_UPLOAD_BYTES", 32<<20),
			S3: S3Config{
				Endpoint:  getConfigValue("", "S3_ENDPOINT", ""),
				AccessKey: getConfigValue("", "S3_ACCESS_KEY", ""),
				SecretKey: getConfigValue("", "S3_SECRET_KEY", ""),
				Bucket:    getConfigValue("", "S3_BUCKET", ""),
			},
		},
		Auth: AuthConfig{
			Enabled:            getBoolConfigValue("", "AUTH_ENABLED", true),
			Secret:             getConfigValue("", "SESSION_SECRET", ""),
			LoginRatePerMinute: getIntConfigValue("", "LOGIN_RATE_PER_MINUTE", 10),
			LoginBurst:         getIntConfigValue("", "LOGIN_RATE_BURST", 5),
			Account: AccountConfig{
				Email:    getConfigValue("", "ACCOUNT_EMAIL", ""),
				Name:     getConfigValue("", "ACCOUNT_NAME", ""),
				Password: getConfigValue("", "ACCOUNT_PASSWORD", ""),
			},
		},
	}

	var err error
	if cfg.Auth.TokenDuration, err = parseDuration("", "TOKEN_DURATION", "168h"); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = parseDuration(*readTimeout, "SERVER_READ_TIMEOUT", "2m"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDuration(*writeTimeout, "SERVER_WRITE_TIMEOUT", "2m"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseDuration(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
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

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}

	for _, proxy := range c.Server.TrustedProxies {
		if _, err := netip.ParsePrefix(proxy); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(proxy); err != nil {
			return fmt.Errorf("invalid trusted proxy: %q (must be an IP address or CIDR)", proxy)
		}
	}

	switch c.Database.Backend {
	case BackendMongo:
		if c.Database.URI == "" && c.Database.Host == "" {
			return errors.New("DB_HOST or DB_URI is required for the mongo backend")
		}
		if c.Database.Name == "" {
			return errors.New("DB_NAME is required for the mongo backend")
		}
	case BackendBadger:
		if c.Database.Path == "" {
			return errors.New("database path cannot be empty after expansion")
		}
	default:
		return fmt.Errorf("invalid database backend: %s (must be mongo or badger)", c.Database.Backend)
	}

	switch c.Storage.Backend {
	case StorageLocal:
		if c.Storage.Path == "" {
			return errors.New("storage path cannot be empty after expansion")
		}
	case StorageMinio:
		s3 := c.Storage.S3
		if s3.Endpoint == "" || s3.AccessKey == "" || s3.SecretKey == "" || s3.Bucket == "" {
			return errors.New("S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY and S3_BUCKET are required for the minio backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be local or minio)", c.Storage.Backend)
	}

	switch c.Storage.Naming {
	case NamingNanoID, NamingUUID, NamingOriginal:
	default:
		return fmt.Errorf("invalid storage naming: %s (must be nanoid, uuid, or original)", c.Storage.Naming)
	}

	if !strings.HasPrefix(c.Storage.URLPrefix, "/") || c.Storage.URLPrefix == "/" {
		return fmt.Errorf("invalid storage url prefix: %q (must start with / and name a path)", c.Storage.URLPrefix)
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return errors.New("STORAGE_MAX_UPLOAD_BYTES must be positive")
	}

	if c.Auth.TokenDuration <= 0 {
		return errors.New("TOKEN_DURATION must be positive")
	}
	if c.Auth.LoginRatePerMinute <= 0 || c.Auth.LoginBurst <= 0 {
		return errors.New("login rate limit must be positive")
	}
	if (c.Auth.Account.Email == "") != (c.Auth.Account.Password == "") {
		return errors.New("ACCOUNT_EMAIL and ACCOUNT_PASSWORD must be set together")
	}

	return nil
}

// MongoURI returns the configured connection string, building one from the
// individual DB_* values when DB_URI is unset.
func (d DatabaseConfig) MongoURI() string {
	if d.URI != "" {
		return d.URI
	}

	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(d.Host, d.Port),
		Path:   "/",
	}
	if d.Username != "" {
		u.User = url.UserPassword(d.Username, d.Password)
		u.RawQuery = "authSource=admin"
	}
	return u.String()
}

// PublicBaseURL returns the absolute base for file URLs, or "" when only
// relative URLs can be produced.
func (s ServerConfig) PublicBaseURL() string {
	if s.PublicURL != "" {
		return strings.TrimRight(s.PublicURL, "/")
	}
	if s.Host == "" {
		return ""
	}

	host := s.Host
	scheme := "http"
	if i := strings.Index(host, "://"); i >= 0 {
		scheme = host[:i]
		host = host[i+3:]
	}
	host = strings.TrimRight(host, "/")
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, s.Port)
	}
	return scheme + "://" + host
}

// IsProduction reports whether the app runs in production.
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	if c.App.DataPath, err = expandPath(c.App.DataPath, filepath.Join(homeDir, "ImageVault")); err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	if c.Database.Path, err = expandPath(c.Database.Path, filepath.Join(c.App.DataPath, "db")); err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}
	if c.Storage.Path, err = expandPath(c.Storage.Path, filepath.Join(c.App.DataPath, "images")); err != nil {
		return fmt.Errorf("invalid storage path: %w", err)
	}
	c.Storage.URLPrefix = "/" + strings.Trim(c.Storage.URLPrefix, "/")
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func parseDuration(flagValue, envKey, defaultValue string) (time.Duration, error) {
	raw := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, raw, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
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

func getInt64ConfigValue(flagValue, envKey string, defaultValue int64) int64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseInt(strValue, 10, 64)
	if err != nil {
		return defaultValue
	}
	return result
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

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}

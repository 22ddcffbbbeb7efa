package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything the storefront client needs at startup.
type Config struct {
	StoreDomain       string
	StorefrontToken   string
	APIVersion        string
	StatePath         string
	LogPath           string
	LogLevel          string
	OrdersPageSize    int
	RequestsPerSecond float64
	RequestTimeout    time.Duration
	Storage           string
	RedisAddr         string
	RedisPrefix       string
	MetricsAddr       string
}

// Storage backends understood by kv.Open.
const (
	StorageFile   = "file"
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

const (
	defaultConfigPath        = "~/.config/fleura/config.toml"
	defaultEnvPath           = ".env"
	defaultStatePath         = "~/.local/share/fleura/state.toml"
	defaultLogPath           = "~/.local/state/fleura/fleura.log"
	defaultLogLevel          = "info"
	defaultAPIVersion        = "2023-01"
	defaultOrdersPageSize    = 20
	defaultRequestsPerSecond = 4
	defaultRequestTimeout    = 10 * time.Second
	defaultRedisPrefix       = "fleura:"
)

// Environment variables that override file configuration.
const (
	EnvStoreDomain     = "SHOPIFY_STORE_DOMAIN"
	EnvStorefrontToken = "SHOPIFY_STOREFRONT_ACCESS_TOKEN"
	EnvAPIVersion      = "SHOPIFY_API_VERSION"
	EnvLogLevel        = "FLEURA_LOG_LEVEL"
)

var (
	ErrMissingDomain = errors.New("store domain is not configured")
	ErrMissingToken  = errors.New("storefront access token is not configured")
)

type rawConfig struct {
	StoreDomain           string  `toml:"store_domain"`
	StorefrontToken       string  `toml:"storefront_token"`
	APIVersion            string  `toml:"api_version"`
	StatePath             string  `toml:"state_path"`
	LogPath               string  `toml:"log_path"`
	LogLevel              string  `toml:"log_level"`
	OrdersPageSize        int     `toml:"orders_page_size"`
	RequestsPerSecond     float64 `toml:"requests_per_second"`
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
	Storage               string  `toml:"storage"`
	RedisAddr             string  `toml:"redis_addr"`
	RedisPrefix           string  `toml:"redis_prefix"`
	MetricsAddr           string  `toml:"metrics_addr"`
}

// Load reads the TOML config at path, overlays the dotenv file at envPath and
// then the process environment. Missing files fall back to defaults.
func Load(path, envPath string) (Config, error) {
	resolved, err := resolvePath(path, defaultConfigPath)
	if err != nil {
		return Config{}, err
	}

	var raw rawConfig
	bytes, err := readOptional(resolved)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(bytes) > 0 {
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	env, err := readEnv(envPath)
	if err != nil {
		return Config{}, err
	}
	raw.StoreDomain = override(raw.StoreDomain, env, EnvStoreDomain)
	raw.StorefrontToken = override(raw.StorefrontToken, env, EnvStorefrontToken)
	raw.APIVersion = override(raw.APIVersion, env, EnvAPIVersion)
	raw.LogLevel = override(raw.LogLevel, env, EnvLogLevel)

	return normalize(raw), nil
}

func normalize(raw rawConfig) Config {
	cfg := Config{
		StoreDomain:       strings.TrimSpace(raw.StoreDomain),
		StorefrontToken:   strings.TrimSpace(raw.StorefrontToken),
		APIVersion:        orDefault(raw.APIVersion, defaultAPIVersion),
		StatePath:         mustExpand(orDefault(raw.StatePath, defaultStatePath)),
		LogPath:           mustExpand(orDefault(raw.LogPath, defaultLogPath)),
		LogLevel:          strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel)),
		OrdersPageSize:    raw.OrdersPageSize,
		RequestsPerSecond: raw.RequestsPerSecond,
		RequestTimeout:    time.Duration(raw.RequestTimeoutSeconds) * time.Second,
		Storage:           strings.ToLower(orDefault(raw.Storage, StorageFile)),
		RedisAddr:         strings.TrimSpace(raw.RedisAddr),
		RedisPrefix:       orDefault(raw.RedisPrefix, defaultRedisPrefix),
		MetricsAddr:       strings.TrimSpace(raw.MetricsAddr),
	}
	if cfg.OrdersPageSize <= 0 {
		cfg.OrdersPageSize = defaultOrdersPageSize
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRequestsPerSecond
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	return cfg
}

// Endpoint returns the Storefront GraphQL endpoint for the configured shop.
func (c Config) Endpoint() string {
	domain := strings.TrimRight(strings.TrimSpace(c.StoreDomain), "/")
	if domain == "" {
		return ""
	}
	if !strings.Contains(domain, "://") {
		domain = "https://" + domain
	}
	version := c.APIVersion
	if strings.TrimSpace(version) == "" {
		version = defaultAPIVersion
	}
	return domain + "/api/" + version + "/graphql.json"
}

// Validate reports configuration the gateway cannot work without.
func (c Config) Validate() error {
	var errs []error
	if c.StoreDomain == "" {
		errs = append(errs, ErrMissingDomain)
	}
	if c.StorefrontToken == "" {
		errs = append(errs, ErrMissingToken)
	}
	return errors.Join(errs...)
}

func readOptional(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// readEnv merges the dotenv file (if any) with the process environment for
// the keys Fleura understands. Process values win.
func readEnv(envPath string) (map[string]string, error) {
	values := map[string]string{}
	path := strings.TrimSpace(envPath)
	if path == "" {
		path = defaultEnvPath
	}
	resolved, err := expandPath(path)
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(resolved); statErr == nil {
		fileValues, err := godotenv.Read(resolved)
		if err != nil {
			return nil, fmt.Errorf("parse env file: %w", err)
		}
		for k, v := range fileValues {
			values[k] = v
		}
	}
	for _, key := range []string{EnvStoreDomain, EnvStorefrontToken, EnvAPIVersion, EnvLogLevel} {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			values[key] = v
		}
	}
	return values, nil
}

func override(current string, env map[string]string, key string) string {
	if v := strings.TrimSpace(env[key]); v != "" {
		return v
	}
	return current
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path, fallback string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(fallback)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

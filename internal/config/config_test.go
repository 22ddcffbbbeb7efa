package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvStoreDomain, EnvStorefrontToken, EnvAPIVersion, EnvLogLevel} {
		t.Setenv(key, "")
	}
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"), filepath.Join(home, "missing.env"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIVersion != defaultAPIVersion {
		t.Fatalf("APIVersion = %q, want %q", cfg.APIVersion, defaultAPIVersion)
	}
	wantState, err := expandPath(defaultStatePath)
	if err != nil {
		t.Fatalf("expandPath(defaultStatePath) returned error: %v", err)
	}
	if cfg.StatePath != wantState {
		t.Fatalf("StatePath = %q, want %q", cfg.StatePath, wantState)
	}
	if cfg.OrdersPageSize != defaultOrdersPageSize {
		t.Fatalf("OrdersPageSize = %d, want %d", cfg.OrdersPageSize, defaultOrdersPageSize)
	}
	if cfg.RequestTimeout != defaultRequestTimeout {
		t.Fatalf("RequestTimeout = %v, want %v", cfg.RequestTimeout, defaultRequestTimeout)
	}
	if cfg.Storage != StorageFile {
		t.Fatalf("Storage = %q, want %q", cfg.Storage, StorageFile)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrMissingDomain) || !errors.Is(err, ErrMissingToken) {
		t.Fatalf("Validate = %v, want missing domain and token", err)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
store_domain = "  fleura.myshopify.com  "
storefront_token = " tok "
state_path = "  ~/.fleura/state.toml  "
orders_page_size = 5
request_timeout_seconds = 3
storage = " MEMORY "
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path, filepath.Join(home, "none.env"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.StoreDomain != "fleura.myshopify.com" || cfg.StorefrontToken != "tok" {
		t.Fatalf("credentials = %q/%q, want trimmed values", cfg.StoreDomain, cfg.StorefrontToken)
	}
	if !strings.HasPrefix(cfg.StatePath, home) {
		t.Fatalf("StatePath = %q, want it under HOME %q", cfg.StatePath, home)
	}
	if cfg.OrdersPageSize != 5 || cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("OrdersPageSize/RequestTimeout = %d/%v, want 5/3s", cfg.OrdersPageSize, cfg.RequestTimeout)
	}
	if cfg.Storage != StorageMemory {
		t.Fatalf("Storage = %q, want %q", cfg.Storage, StorageMemory)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestLoad_EnvFileAndProcessEnvOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`store_domain = "toml.myshopify.com"
storefront_token = "toml-token"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("SHOPIFY_STORE_DOMAIN=env.myshopify.com\nSHOPIFY_STOREFRONT_ACCESS_TOKEN=env-token\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv(EnvStorefrontToken, "process-token")

	cfg, err := Load(path, envPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.StoreDomain != "env.myshopify.com" {
		t.Fatalf("StoreDomain = %q, want dotenv value", cfg.StoreDomain)
	}
	if cfg.StorefrontToken != "process-token" {
		t.Fatalf("StorefrontToken = %q, want process env value", cfg.StorefrontToken)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`store_domain = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path, filepath.Join(t.TempDir(), "none.env"))
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestEndpoint(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"empty", Config{}, ""},
		{"bare domain", Config{StoreDomain: "shop.myshopify.com"}, "https://shop.myshopify.com/api/2023-01/graphql.json"},
		{"scheme kept", Config{StoreDomain: "http://localhost:8080/", APIVersion: "2024-04"}, "http://localhost:8080/api/2024-04/graphql.json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.Endpoint(); got != tc.want {
				t.Fatalf("Endpoint = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

// Package config loads Fleura's runtime configuration.
//
// # Overview
//
// Configuration comes from three layers, later layers winning:
//
//  1. TOML file (default ~/.config/fleura/config.toml)
//  2. Dotenv file (default ./.env), read with godotenv without touching the
//     process environment
//  3. Process environment
//
// Only the shop credentials, API version and log level can be overridden from
// the environment. Everything else lives in the TOML file.
//
// # TOML Format
//
//	store_domain = "fleura-duesseldorf.myshopify.com"
//	storefront_token = "..."
//	api_version = "2023-01"
//	state_path = "~/.local/share/fleura/state.toml"
//	log_path = "~/.local/state/fleura/fleura.log"
//	log_level = "debug"
//	orders_page_size = 20
//	requests_per_second = 4
//	request_timeout_seconds = 10
//	storage = "file"          # file | memory | redis
//	redis_addr = "127.0.0.1:6379"
//	redis_prefix = "fleura:"
//	metrics_addr = "127.0.0.1:9464"
//
// Every field is optional. A missing config file is not an error; a malformed
// one is. Values are trimmed and tilde paths expanded.
//
// # Environment
//
//   - SHOPIFY_STORE_DOMAIN
//   - SHOPIFY_STOREFRONT_ACCESS_TOKEN
//   - SHOPIFY_API_VERSION
//   - FLEURA_LOG_LEVEL
//
// Load does not require credentials. Call Config.Validate before building a
// gateway client.
package config

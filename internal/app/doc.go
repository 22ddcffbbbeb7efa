// Package app provides the orchestration layer for the Fleura storefront.
//
// # Overview
//
// This package wires together configuration, logging, metrics, the
// Storefront API client, local storage, the three state containers and the
// UI. It is the composition root: every dependency is built here and
// handed down.
//
// # Architecture
//
//  1. Load config.toml, overlay .env and the process environment
//  2. Open the log file (the terminal belongs to the UI)
//  3. Build the metrics recorder and the Storefront GraphQL client
//  4. Open the key-value store (file, memory or redis)
//  5. Construct the session, cart and wishlist containers and the modal guard
//  6. Resolve the stored session, wishlist and cart concurrently
//  7. Launch the cart reconcile poller and the optional metrics listener
//  8. Start the TUI and block until the user quits or the context ends
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read config + env
//	       ├─────> logging.Setup()      Log file
//	       ├─────> Build()              Client, store, containers
//	       ├─────> Services.Start()     Session.Init | Wishlist.Load | Cart.Seed
//	       ├─────> StartPoller()        Background cart reconcile
//	       └─────> ui.Run()             Start TUI (blocks)
//
//	Background Poller Loop:
//	┌─────────────────────────────────────────┐
//	│ StartPoller() goroutine                 │
//	│  ├─> cart.Reconcile()                   │
//	│  │    └─> FetchCart / CreateCart        │
//	│  └─> container publishes snapshot       │
//	│      └─> UI re-reads Snapshot()         │
//	└─────────────────────────────────────────┘
//
// # Polling Behavior
//
// The poller reconciles the cart at a fixed interval (default 10 seconds,
// -sync to override). Each consecutive failure doubles the wait, capped at
// 30 seconds; the first success resets it. Reconcile replaces the local
// projection with the gateway's cart, which clears the dirty flag left by
// a failed optimistic update. When Seed could not reach the gateway, the
// next Reconcile fetches the stored cart instead of starting a new one.
//
// An unreadable wishlist is retried from Start with the same backoff.
// Until it loads, wishlist changes stay in memory and nothing is written.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Unreadable or invalid config, or missing store domain / token
//   - Log file cannot be opened
//   - Storage backend cannot be opened (for redis, the server must answer PING)
//
// Recoverable errors (logged, reflected in container state):
//   - Stored session rejected or expired
//   - Stored cart missing or unreachable
//   - Corrupt or unreadable wishlist data
//   - Reconcile failures
//
// # Dependencies
//
//   - config: TOML + dotenv configuration
//   - logging: logrus file logger
//   - metrics: Prometheus recorder
//   - shopify: Storefront GraphQL client
//   - kv: local key-value persistence
//   - session, cart, wishlist: state containers
//   - modal: cart overlay debounce guard
//   - ui: Bubble Tea storefront
package app

// Package state provides the thread-safe building blocks Fleura's state
// containers are made of.
//
// # Overview
//
// Each container (session, cart, wishlist) keeps its data in a Store and
// computes every change as a pure function of the previous value. The UI
// and the background poller only ever read snapshots.
//
//	Effect layer (container):          Consumer (UI):
//	┌─────────────────────┐            ┌──────────────────┐
//	│ gateway call        │            │                  │
//	│      ↓              │            │ <-Subscribe()    │
//	│ store.Update(fn)    │───────────→│ store.Snapshot() │
//	│      ↓              │  (mutex)   │      ↓           │
//	│ notify subscribers  │            │ render           │
//	└─────────────────────┘            └──────────────────┘
//
// # Update Semantics
//
// Update applies fn to the current value under the write lock. One call is
// one observable step: readers see the value before fn or after it, never
// a partial result. fn must be pure and fast; network I/O happens outside
// the lock and its outcome is committed with a second Update.
//
// # Defensive Copying
//
// Snapshot and Update return the value passed through the clone function
// given to New, so callers may modify what they receive without touching
// the stored value. Containers supply clone functions that copy their
// slices and pointers.
//
// # Subscriptions
//
// Subscribe returns a channel with a one-slot buffer. Notifications are sent
// without blocking, so several quick updates collapse into one wake-up and
// a stalled reader can never hold up a writer.
//
// # Health
//
// Health is a value type recording the outcome of repeated remote calls.
// Failures keep the last good data, record the error and count; two
// consecutive failures mark the dependency as offline. Any success resets
// the count.
package state

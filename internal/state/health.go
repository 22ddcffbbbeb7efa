package state

import "time"

// offlineThreshold is the number of consecutive failures after which a
// remote dependency is shown as offline.
const offlineThreshold = 2

// Health tracks the outcome of repeated calls to a remote dependency.
type Health struct {
	LastError           error
	LastCheck           time.Time
	ConsecutiveFailures int
}

// Record returns h updated with the outcome of one call. A failure keeps
// earlier data intact and only bumps the counter; a success resets it.
func (h Health) Record(err error, at time.Time) Health {
	h.LastCheck = at
	if err != nil {
		h.LastError = err
		h.ConsecutiveFailures++
		return h
	}
	h.LastError = nil
	h.ConsecutiveFailures = 0
	return h
}

// Offline reports whether the dependency has failed repeatedly.
func (h Health) Offline() bool {
	return h.ConsecutiveFailures >= offlineThreshold
}

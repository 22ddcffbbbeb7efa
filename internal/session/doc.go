// Package session is the single authority over the customer session: the
// access token, profile, orders and address book.
//
// State changes are computed by Reduce, a pure function of the previous
// State and an Event. Container is the effect layer: it calls the gateway,
// then commits the outcome as an event. Every operation resolves to a
// Result; transport failures are logged and turned into a single synthetic
// error message, and field-level errors from the API are passed through
// unchanged.
//
// Order and address responses carry the token and a request sequence
// number. Reduce drops a response fetched with another token or older than
// the last one applied, so concurrent reloads cannot roll the list back.
package session

// Package cart owns the shopping cart shown by the UI.
//
// AddItem and UpdateItem are pure projections over shopify.Cart. Container
// commits a projection immediately, then confirms it with the gateway and
// adopts the returned snapshot. Failures are not rolled back: the cart is
// marked Dirty and the next Reconcile replaces it with the authoritative
// version. A cart id stored by an earlier run is never replaced while the
// gateway still knows that cart.
package cart

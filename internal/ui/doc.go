// Package ui provides the Bubble Tea storefront.
//
// The model never mutates shop state itself. Key presses call into the
// session, cart and wishlist containers (directly for local-only changes,
// through tea.Cmd for anything that reaches the gateway), and the model
// re-reads their snapshots whenever a container publishes a change.
//
// # Views
//
//   - Catalog: product list; a adds to cart, w toggles the wishlist
//   - Wishlist: saved products resolved against the catalog
//   - Account: sign-in, registration and password reset forms when signed
//     out; profile, orders and addresses when signed in
//   - Diagnostics: cart sync health and the tail of the log file
//
// The cart is an overlay rather than a view. It is opened through a
// modal.Guard so a burst of add-to-cart presses opens it once; the guard's
// transitions arrive as modalMsg values sent from Run.
package ui

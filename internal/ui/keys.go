package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	Escape     key.Binding
	Reconcile  key.Binding
	OpenCart   key.Binding

	// View switching
	ViewCatalog     key.Binding
	ViewWishlist    key.Binding
	ViewAccount     key.Binding
	ViewDiagnostics key.Binding

	// Navigation
	Up   key.Binding
	Down key.Binding

	// Catalog and wishlist
	AddToCart      key.Binding
	ToggleWishlist key.Binding

	// Cart overlay
	Plus   key.Binding
	Minus  key.Binding
	Remove key.Binding

	// Account
	Login      key.Binding
	Register   key.Binding
	Recover    key.Binding
	NewAddress key.Binding
	Logout     key.Binding

	// Forms
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Cycle views"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close cart / back to catalog"),
		),
		Reconcile: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Sync cart"),
		),
		OpenCart: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Open cart"),
		),

		ViewCatalog: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Catalog"),
		),
		ViewWishlist: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Wishlist"),
		),
		ViewAccount: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Account"),
		),
		ViewDiagnostics: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "Diagnostics"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),

		AddToCart: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add to cart"),
		),
		ToggleWishlist: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Toggle wishlist"),
		),

		Plus: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "One more"),
		),
		Minus: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "One less"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Remove line"),
		),

		Login: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Sign in"),
		),
		Register: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "Create account"),
		),
		Recover: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Reset password"),
		),
		NewAddress: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "New address"),
		),
		Logout: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Sign out"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Submit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.OpenCart, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view, one group per column.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ViewCatalog, k.ViewWishlist, k.ViewAccount, k.ViewDiagnostics, k.Up, k.Down},
		{k.AddToCart, k.ToggleWishlist, k.OpenCart, k.Plus, k.Minus, k.Remove, k.Reconcile},
		{k.Login, k.Register, k.Recover, k.NewAddress, k.Logout},
		{k.CycleTheme, k.Escape, k.Help, k.Quit},
	}
}

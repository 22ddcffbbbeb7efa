package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fleura/storefront/internal/cart"
	"github.com/fleura/storefront/internal/kv"
	"github.com/fleura/storefront/internal/logging"
	"github.com/fleura/storefront/internal/shopify"
	"github.com/fleura/storefront/internal/wishlist"
)

// Messages

type tickMsg time.Time

type source int

const (
	sourceSession source = iota
	sourceCart
	sourceWishlist
	sourceCount
)

// changedMsg reports that a container published a new snapshot.
type changedMsg struct{ source source }

type productsMsg struct {
	products []shopify.Product
	err      error
}

type wishlistProductsMsg struct {
	products []shopify.Product
	err      error
}

// modalMsg carries a cart modal transition from the debounce guard.
type modalMsg struct{ open bool }

type cartDoneMsg struct {
	action string
	err    error
}

type logTailMsg struct {
	lines []string
	err   error
}

type flashMsg string

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// watchCmd waits for the next change notification from src.
func (m Model) watchCmd(src source) tea.Cmd {
	ch := m.watches[src]
	if ch == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			return changedMsg{source: src}
		}
	}
}

const catalogPage = 100

func (m Model) loadProductsCmd() tea.Cmd {
	ctx, catalog := m.ctx, m.catalog
	return func() tea.Msg {
		products, err := catalog.FetchProducts(ctx, shopify.ProductQuery{First: catalogPage})
		return productsMsg{products: products, err: err}
	}
}

func (m Model) loadWishlistCmd() tea.Cmd {
	ctx, catalog, handles := m.ctx, m.catalog, m.wishlist.Handles()
	return func() tea.Msg {
		products, err := wishlist.Products(ctx, catalog, handles)
		return wishlistProductsMsg{products: products, err: err}
	}
}

func (m Model) addToCartCmd(v shopify.Variant, p shopify.Product) tea.Cmd {
	ctx, c := m.ctx, m.cart
	return func() tea.Msg {
		return cartDoneMsg{action: "add", err: c.Add(ctx, v, p)}
	}
}

func (m Model) updateCartCmd(merchandiseID string, action cart.Action) tea.Cmd {
	ctx, c := m.ctx, m.cart
	return func() tea.Msg {
		return cartDoneMsg{action: string(action), err: c.Update(ctx, merchandiseID, action)}
	}
}

func (m Model) reconcileCmd() tea.Cmd {
	ctx, c := m.ctx, m.cart
	return func() tea.Msg {
		if err := c.Reconcile(ctx); err != nil {
			return flashMsg("Cart sync failed: " + err.Error())
		}
		return flashMsg("Cart synced")
	}
}

func (m Model) saveThemeCmd(name string) tea.Cmd {
	if m.kv == nil {
		return nil
	}
	ctx, store, log := m.ctx, m.kv, m.log
	return func() tea.Msg {
		if err := store.Set(ctx, kv.KeyTheme, name); err != nil {
			log.WithError(err).Warn("persist theme")
		}
		return nil
	}
}

func (m Model) tailLogsCmd() tea.Cmd {
	path := m.logPath
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logging.Tail(path, logTailLines)
		return logTailMsg{lines: lines, err: err}
	}
}

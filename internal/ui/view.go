package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fleura/storefront/internal/cart"
	"github.com/fleura/storefront/internal/shopify"
)

func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	left := styles.Logo.Render("✿ Fleura")

	who := "Guest"
	switch {
	case m.sess.Initializing:
		who = "Restoring session..."
	case m.sess.Authenticated && m.sess.Customer != nil:
		who = m.sess.Customer.Email
	}

	qty := cart.TotalQuantity(m.crt.Cart.Lines)
	right := fmt.Sprintf("%s  Cart %d", who, qty)
	if total := m.crt.Cart.Cost.TotalAmount; total.Amount != "" {
		right += " · " + total.String()
	}
	right += " " + styles.Badge(cartBadge(m.crt))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return styles.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func cartBadge(s cart.State) string {
	switch {
	case s.Health.Offline():
		return "offline"
	case s.Dirty:
		return "syncing"
	default:
		return "synced"
	}
}

func (m Model) renderTabs() string {
	styles := m.theme.Styles()
	tabs := make([]string, 0, viewCount)
	for v := ViewCatalog; v < viewCount; v++ {
		label := fmt.Sprintf(" %d %s ", int(v)+1, v)
		if v == m.view {
			tabs = append(tabs, styles.Selected.Render(label))
		} else {
			tabs = append(tabs, styles.MutedText.Render(label))
		}
	}
	return strings.Join(tabs, " ")
}

func (m Model) renderContent() string {
	switch m.view {
	case ViewCatalog:
		return m.renderProducts(m.products, m.selected, m.catalogErr, "The shop is empty right now.")
	case ViewWishlist:
		if len(m.wish.Handles) == 0 {
			return m.theme.Styles().MutedText.Render("Press w on a product to save it here.")
		}
		return m.renderProducts(m.wishProducts, m.wishSelected, m.wishErr, "Loading your wishlist...")
	case ViewAccount:
		return m.accountViewport.View()
	case ViewDiagnostics:
		return m.logViewport.View()
	}
	return ""
}

func (m Model) renderProducts(products []shopify.Product, selected int, errText, empty string) string {
	styles := m.theme.Styles()
	var b strings.Builder
	if errText != "" {
		b.WriteString(styles.DangerText.Render(errText))
		b.WriteString("\n")
	}
	if len(products) == 0 {
		b.WriteString(styles.MutedText.Render(empty))
		return b.String()
	}

	rows := m.height - 5
	if rows < 1 {
		rows = len(products)
	}
	start := 0
	if selected >= rows {
		start = selected - rows + 1
	}
	end := min(len(products), start+rows)

	for i := start; i < end; i++ {
		p := products[i]
		line := fmt.Sprintf("%-36s %12s", truncate(p.Title, 36), p.PriceRange.MinVariantPrice.String())
		var badges []string
		if m.wishlistHas(p.Handle) {
			badges = append(badges, styles.Badge("wishlist"))
		}
		if p.OnSale() {
			badges = append(badges, styles.Badge("sale"))
		}
		if !p.AvailableForSale {
			badges = append(badges, styles.Badge("sold out"))
		}
		if i == selected {
			line = styles.Selected.Render(line)
		} else {
			line = styles.Text.Render(line)
		}
		b.WriteString(line)
		if len(badges) > 0 {
			b.WriteString(" ")
			b.WriteString(strings.Join(badges, " "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) wishlistHas(handle string) bool {
	for _, h := range m.wish.Handles {
		if h == handle {
			return true
		}
	}
	return false
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	text := m.flash
	if text == "" {
		hints := make([]string, 0, 4)
		for _, k := range m.keys.ShortHelp() {
			hints = append(hints, k.Help().Key+" "+strings.ToLower(k.Help().Desc))
		}
		text = strings.Join(hints, " · ")
	}
	return styles.Footer.Width(m.width).Render(text)
}

func (m Model) renderCart() string {
	styles := m.theme.Styles()
	c := m.crt.Cart

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Your cart"))
	b.WriteString("  ")
	b.WriteString(styles.Badge(cartBadge(m.crt)))
	b.WriteString("\n\n")

	if len(c.Lines) == 0 {
		b.WriteString(styles.MutedText.Render("Your cart is empty."))
	}
	for i, l := range c.Lines {
		title := l.Merchandise.Product.Title
		if l.Merchandise.Title != "" && l.Merchandise.Title != "Default Title" {
			title += " · " + l.Merchandise.Title
		}
		line := fmt.Sprintf("%-30s ×%-3d %12s", truncate(title, 30), l.Quantity, l.Cost.TotalAmount.String())
		if i == m.cartSelected {
			line = styles.Selected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(c.Lines) > 0 {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%-35s %12s\n", "Subtotal", c.Cost.SubtotalAmount.String()))
		if c.Cost.TotalTaxAmount.MustMinor() > 0 {
			b.WriteString(fmt.Sprintf("%-35s %12s\n", "Tax", c.Cost.TotalTaxAmount.String()))
		}
		b.WriteString(styles.Text.Bold(true).Render(fmt.Sprintf("%-35s %12s", "Total", c.Cost.TotalAmount.String())))
		b.WriteString("\n")
	}
	if c.CheckoutURL != "" {
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("Checkout: "))
		b.WriteString(styles.AccentText.Render(c.CheckoutURL))
		b.WriteString("\n")
	}
	if err := m.crt.Health.LastError; err != nil {
		b.WriteString("\n")
		b.WriteString(styles.WarningText.Render(err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("+/- quantity · x remove · r sync · esc close"))

	return m.overlay(styles.Modal.Width(60).Render(b.String()))
}

func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	titles := []string{"Browse", "Cart", "Account", "General"}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	groups := m.keys.FullHelp()
	for i, group := range groups {
		b.WriteString(styles.AccentText.Bold(true).Render(titles[i]))
		b.WriteString("\n")
		for _, k := range group {
			keyStyle := lipgloss.NewStyle().
				Foreground(lipgloss.Color(m.theme.Warning)).
				Width(12)
			b.WriteString(keyStyle.Render(k.Help().Key))
			b.WriteString(styles.Text.Render(k.Help().Desc))
			b.WriteString("\n")
		}
		if i < len(groups)-1 {
			b.WriteString("\n")
		}
	}
	return m.overlay(styles.Modal.Width(44).Render(b.String()))
}

func (m Model) renderDiagnosticsBody() string {
	styles := m.theme.Styles()
	var b strings.Builder

	h := m.crt.Health
	b.WriteString(styles.AccentText.Render("Cart sync"))
	b.WriteString("\n")
	if !m.crt.LastSynced.IsZero() {
		b.WriteString(fmt.Sprintf("  last synced  %s\n", m.crt.LastSynced.Format("15:04:05")))
	}
	b.WriteString(fmt.Sprintf("  failures     %d\n", h.ConsecutiveFailures))
	if h.LastError != nil {
		b.WriteString("  last error   ")
		b.WriteString(styles.DangerText.Render(h.LastError.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.AccentText.Render("Log"))
	if m.logPath != "" {
		b.WriteString(styles.FaintText.Render("  " + m.logPath))
	}
	b.WriteString("\n")
	for _, line := range m.logLines {
		b.WriteString(styleLogLine(styles, line))
		b.WriteString("\n")
	}
	return b.String()
}

func styleLogLine(styles Styles, line string) string {
	switch {
	case strings.Contains(line, "level=error"), strings.Contains(line, "level=fatal"):
		return styles.DangerText.Render(line)
	case strings.Contains(line, "level=warning"):
		return styles.WarningText.Render(line)
	case strings.Contains(line, "level=debug"):
		return styles.FaintText.Render(line)
	}
	return styles.Text.Render(line)
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}

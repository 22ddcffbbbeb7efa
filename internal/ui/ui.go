package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/fleura/storefront/internal/cart"
	"github.com/fleura/storefront/internal/kv"
	"github.com/fleura/storefront/internal/logging"
	"github.com/fleura/storefront/internal/modal"
	"github.com/fleura/storefront/internal/session"
	"github.com/fleura/storefront/internal/shopify"
	"github.com/fleura/storefront/internal/wishlist"
)

// View represents the current active view.
type View int

const (
	ViewCatalog View = iota
	ViewWishlist
	ViewAccount
	ViewDiagnostics
	viewCount
)

func (v View) String() string {
	switch v {
	case ViewCatalog:
		return "Catalog"
	case ViewWishlist:
		return "Wishlist"
	case ViewAccount:
		return "Account"
	case ViewDiagnostics:
		return "Diagnostics"
	}
	return "?"
}

// Catalog lists products for the catalog and wishlist views.
type Catalog interface {
	FetchProducts(ctx context.Context, q shopify.ProductQuery) ([]shopify.Product, error)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Catalog   Catalog
	Session   *session.Container
	Cart      *cart.Container
	Wishlist  *wishlist.Container
	Modal     *modal.Guard
	Store     kv.Store
	Logger    logrus.FieldLogger
	LogPath   string
	ThemeName string
	Tick      time.Duration
}

const logTailLines = 200

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx      context.Context
	catalog  Catalog
	session  *session.Container
	cart     *cart.Container
	wishlist *wishlist.Container
	modal    *modal.Guard
	kv       kv.Store
	log      logrus.FieldLogger
	logPath  string
	tick     time.Duration
	keys     keyMap

	theme  Theme
	view   View
	width  int
	height int
	ready  bool

	sess session.State
	crt  cart.State
	wish wishlist.State

	products     []shopify.Product
	catalogErr   string
	wishProducts []shopify.Product
	wishErr      string
	selected     int
	wishSelected int

	cartOpen     bool
	cartSelected int

	showHelp bool
	form     *form
	flash    string

	accountViewport viewport.Model
	logViewport     viewport.Model
	logLines        []string

	watches [sourceCount]<-chan struct{}
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = time.Second
	}
	m := Model{
		ctx:      ctx,
		catalog:  opts.Catalog,
		session:  opts.Session,
		cart:     opts.Cart,
		wishlist: opts.Wishlist,
		modal:    opts.Modal,
		kv:       opts.Store,
		log:      logging.Component(opts.Logger, "ui"),
		logPath:  opts.LogPath,
		tick:     tick,
		keys:     DefaultKeyMap(),
		theme:    GetTheme(opts.ThemeName),
		view:     ViewCatalog,
	}
	m.watches[sourceSession], _ = m.session.Subscribe()
	m.watches[sourceCart], _ = m.cart.Subscribe()
	m.watches[sourceWishlist], _ = m.wishlist.Subscribe()
	m.refreshSnapshots()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.tick),
		m.loadProductsCmd(),
		m.watchCmd(sourceSession),
		m.watchCmd(sourceCart),
		m.watchCmd(sourceWishlist),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.accountViewport = viewport.New(0, 0)
			m.logViewport = viewport.New(0, 0)
		}
		m.ready = true
		m.resizeViewports()
		m.updateAccountViewport()
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		m.refreshSnapshots()
		cmds := []tea.Cmd{tickCmd(m.tick)}
		if m.view == ViewDiagnostics {
			cmds = append(cmds, m.tailLogsCmd())
		}
		return m, tea.Batch(cmds...)

	case changedMsg:
		m.refreshSnapshots()
		m.updateAccountViewport()
		cmds := []tea.Cmd{m.watchCmd(msg.source)}
		if msg.source == sourceWishlist && m.view == ViewWishlist {
			cmds = append(cmds, m.loadWishlistCmd())
		}
		return m, tea.Batch(cmds...)

	case productsMsg:
		m.products = msg.products
		m.catalogErr = errText(msg.err)
		m.selected = clamp(m.selected, len(m.products))
		return m, nil

	case wishlistProductsMsg:
		m.wishProducts = msg.products
		m.wishErr = errText(msg.err)
		m.wishSelected = clamp(m.wishSelected, len(m.wishProducts))
		return m, nil

	case modalMsg:
		// Notifications can arrive out of order; the guard has the final say.
		m.cartOpen = msg.open && m.modal.State() == modal.Open
		if m.cartOpen {
			m.cartSelected = clamp(m.cartSelected, len(m.crt.Cart.Lines))
		}
		return m, nil

	case cartDoneMsg:
		m.refreshSnapshots()
		if msg.err != nil {
			m.flash = fmt.Sprintf("Cart %s not confirmed yet: %v", msg.action, msg.err)
		}
		return m, nil

	case accountMsg:
		m.handleAccountResult(msg)
		m.refreshSnapshots()
		m.updateAccountViewport()
		return m, nil

	case logTailMsg:
		if msg.err != nil {
			m.logLines = []string{"log unavailable: " + msg.err.Error()}
		} else {
			m.logLines = msg.lines
		}
		m.updateLogViewport()
		return m, nil

	case flashMsg:
		m.flash = string(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	switch {
	case m.showHelp:
		return m.renderHelp()
	case m.form != nil:
		return m.renderForm()
	case m.cartOpen:
		return m.renderCart()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.form != nil {
		return m.handleFormKey(msg)
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		return m, m.saveThemeCmd(m.theme.Name)

	case key.Matches(msg, m.keys.Reconcile):
		m.flash = "Syncing cart..."
		return m, m.reconcileCmd()

	case key.Matches(msg, m.keys.OpenCart):
		m.modal.Open()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if m.cartOpen || m.modal.State() != modal.Closed {
			m.modal.Close()
			m.cartOpen = false
			return m, nil
		}
		m.view = ViewCatalog
		return m, nil
	}

	if m.cartOpen {
		return m.handleCartKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Tab):
		return m.switchView((m.view + 1) % viewCount)
	case key.Matches(msg, m.keys.ViewCatalog):
		return m.switchView(ViewCatalog)
	case key.Matches(msg, m.keys.ViewWishlist):
		return m.switchView(ViewWishlist)
	case key.Matches(msg, m.keys.ViewAccount):
		return m.switchView(ViewAccount)
	case key.Matches(msg, m.keys.ViewDiagnostics):
		return m.switchView(ViewDiagnostics)
	}

	switch m.view {
	case ViewCatalog:
		cmd := m.handleProductKey(msg, m.products, &m.selected)
		return m, cmd
	case ViewWishlist:
		cmd := m.handleProductKey(msg, m.wishProducts, &m.wishSelected)
		return m, cmd
	case ViewAccount:
		return m.handleAccountKey(msg)
	case ViewDiagnostics:
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.view = v
	switch v {
	case ViewWishlist:
		return m, m.loadWishlistCmd()
	case ViewDiagnostics:
		return m, m.tailLogsCmd()
	case ViewCatalog:
		if len(m.products) == 0 {
			return m, m.loadProductsCmd()
		}
	}
	return m, nil
}

// handleProductKey serves the catalog and wishlist lists, which share keys.
func (m *Model) handleProductKey(msg tea.KeyMsg, products []shopify.Product, selected *int) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		if *selected > 0 {
			*selected--
		}
	case key.Matches(msg, m.keys.Down):
		if *selected < len(products)-1 {
			*selected++
		}
	case key.Matches(msg, m.keys.AddToCart):
		if len(products) == 0 {
			return nil
		}
		p := products[*selected]
		v, ok := p.DefaultVariant()
		if !ok || !v.AvailableForSale {
			m.flash = p.Title + " is sold out"
			return nil
		}
		m.flash = "Added " + p.Title
		m.modal.Open()
		return m.addToCartCmd(v, p)
	case key.Matches(msg, m.keys.ToggleWishlist):
		if len(products) == 0 {
			return nil
		}
		p := products[*selected]
		if m.wishlist.Toggle(m.ctx, p.Handle) {
			m.flash = p.Title + " saved to wishlist"
		} else {
			m.flash = p.Title + " removed from wishlist"
		}
		m.wish = m.wishlist.Snapshot()
	}
	return nil
}

func (m Model) handleCartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	lines := m.crt.Cart.Lines
	if len(lines) == 0 {
		return m, nil
	}
	m.cartSelected = clamp(m.cartSelected, len(lines))
	var action cart.Action
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cartSelected > 0 {
			m.cartSelected--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cartSelected < len(lines)-1 {
			m.cartSelected++
		}
		return m, nil
	case key.Matches(msg, m.keys.Plus):
		action = cart.ActionPlus
	case key.Matches(msg, m.keys.Minus):
		action = cart.ActionMinus
	case key.Matches(msg, m.keys.Remove):
		action = cart.ActionDelete
	default:
		return m, nil
	}
	return m, m.updateCartCmd(lines[m.cartSelected].Merchandise.ID, action)
}

func (m Model) handleAccountKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.sess.Authenticated {
		switch {
		case key.Matches(msg, m.keys.Login):
			m.form = newForm(formLogin)
		case key.Matches(msg, m.keys.Register):
			m.form = newForm(formRegister)
		case key.Matches(msg, m.keys.Recover):
			m.form = newForm(formRecover)
		}
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.NewAddress):
		m.form = newForm(formAddress)
		return m, nil
	case key.Matches(msg, m.keys.Logout):
		return m, m.logoutCmd()
	}
	var cmd tea.Cmd
	m.accountViewport, cmd = m.accountViewport.Update(msg)
	return m, cmd
}

func (m *Model) refreshSnapshots() {
	m.sess = m.session.Snapshot()
	m.crt = m.cart.Snapshot()
	m.wish = m.wishlist.Snapshot()
}

func (m *Model) resizeViewports() {
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	m.accountViewport.Width = m.width
	m.accountViewport.Height = h
	m.logViewport.Width = m.width
	m.logViewport.Height = h
}

func (m *Model) updateAccountViewport() {
	if !m.ready {
		return
	}
	m.accountViewport.SetContent(m.renderAccountBody())
}

func (m *Model) updateLogViewport() {
	if !m.ready {
		return
	}
	m.logViewport.SetContent(m.renderDiagnosticsBody())
	m.logViewport.GotoBottom()
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func userErrorText(errs []shopify.UserError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Run starts the Bubble Tea program. The modal guard's transitions are fed
// back into the program as messages.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	if opts.Modal != nil {
		// Send blocks until the event loop reads it, and Close can fire this
		// from inside Update.
		opts.Modal.OnChange(func(open bool) { go p.Send(modalMsg{open: open}) })
	}
	_, err := p.Run()
	return err
}

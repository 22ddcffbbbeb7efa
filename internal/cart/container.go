package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fleura/storefront/internal/kv"
	"github.com/fleura/storefront/internal/logging"
	"github.com/fleura/storefront/internal/metrics"
	"github.com/fleura/storefront/internal/shopify"
	"github.com/fleura/storefront/internal/state"
)

var (
	// ErrNoCart is returned when a line update targets a cart the gateway
	// has not created yet.
	ErrNoCart = errors.New("cart: no cart on the gateway yet")
	// ErrUnconfirmedLine is returned when a line exists only optimistically.
	ErrUnconfirmedLine = errors.New("cart: line not confirmed by the gateway yet")
)

// Gateway is the subset of the Storefront API the cart needs.
type Gateway interface {
	FetchCart(ctx context.Context, cartID string) (*shopify.Cart, error)
	CreateCart(ctx context.Context, lines []shopify.CartLineInput) (*shopify.Cart, error)
	AddCartLines(ctx context.Context, cartID string, lines []shopify.CartLineInput) (*shopify.Cart, error)
	UpdateCartLines(ctx context.Context, cartID string, lines []shopify.CartLineUpdateInput) (*shopify.Cart, error)
	RemoveCartLines(ctx context.Context, cartID string, lineIDs []string) (*shopify.Cart, error)
}

var _ Gateway = (*shopify.Client)(nil)

// State is the cart as the UI sees it. Dirty is set while local optimistic
// changes have not been confirmed by the gateway.
type State struct {
	Cart       shopify.Cart
	Dirty      bool
	LastSynced time.Time
	Health     state.Health
}

func cloneState(s State) State {
	s.Cart = cloneCart(s.Cart)
	return s
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger; entries carry component=cart.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Container) { c.log = logging.Component(l, "cart") }
}

// WithClock replaces time.Now for sync timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Container) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMetrics records reconciles and the dirty flag on r. A nil recorder
// is allowed.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Container) { c.metrics = r }
}

// Container owns the local cart. Optimistic projections are committed at
// once; gateway calls are serialized behind them and their snapshots
// replace the local cart when they succeed. A failed call leaves the
// projection in place and marks the cart dirty until the next Reconcile.
type Container struct {
	gw      Gateway
	kv      kv.Store
	store   *state.Store[State]
	log     logrus.FieldLogger
	metrics *metrics.Recorder
	now     func() time.Time

	remote sync.Mutex
}

// New returns an empty cart. Call Seed to load the stored one.
func New(gw Gateway, store kv.Store, opts ...Option) *Container {
	c := &Container{
		gw:    gw,
		kv:    store,
		store: state.New(State{}, cloneState),
		log:   logging.Component(nil, "cart"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current cart state.
func (c *Container) Snapshot() State {
	return c.store.Snapshot()
}

// Subscribe notifies after each change, optimistic or confirmed.
func (c *Container) Subscribe() (<-chan struct{}, func()) {
	return c.store.Subscribe()
}

// Seed loads the cart whose id was stored by an earlier run. Any failure
// leaves an empty cart; it never fails startup.
func (c *Container) Seed(ctx context.Context) {
	c.remote.Lock()
	defer c.remote.Unlock()

	id, err := c.kv.Get(ctx, kv.KeyCartID)
	if err != nil || strings.TrimSpace(id) == "" {
		if err != nil && !errors.Is(err, kv.ErrNotFound) {
			c.log.WithError(err).Warn("read stored cart id")
		}
		return
	}

	remote, err := c.gw.FetchCart(ctx, id)
	if err != nil {
		c.log.WithError(err).WithField("cart", id).Warn("seed cart")
		c.store.Update(func(s State) State {
			s.Health = s.Health.Record(err, c.now())
			return s
		})
		return
	}
	if remote == nil {
		c.log.WithField("cart", id).Info("stored cart no longer exists")
		c.forgetCartID(ctx)
		c.commit(shopify.Cart{}, nil)
		return
	}
	c.commit(*remote, nil)
}

// AddCartItem is the local projection of adding one unit of variant. It
// does not call the gateway.
func (c *Container) AddCartItem(variant shopify.Variant, product shopify.Product) State {
	return c.store.Update(func(s State) State {
		s.Cart = AddItem(s.Cart, variant, product)
		return s
	})
}

// Add projects the addition locally, then confirms it with the gateway.
// Without a cart in memory it adds to the stored cart, and creates a cart
// only when none is stored or the stored one is gone. On failure the
// projection stays and the cart is marked dirty.
func (c *Container) Add(ctx context.Context, variant shopify.Variant, product shopify.Product) error {
	c.AddCartItem(variant, product)

	c.remote.Lock()
	defer c.remote.Unlock()

	lines := []shopify.CartLineInput{{MerchandiseID: variant.ID, Quantity: 1}}
	id := c.store.Snapshot().Cart.ID
	var (
		remote *shopify.Cart
		err    error
	)
	if id == "" {
		var existing *shopify.Cart
		existing, err = c.storedCart(ctx)
		if err == nil && existing != nil {
			id = existing.ID
		}
	}
	switch {
	case err != nil:
	case id == "":
		remote, err = c.gw.CreateCart(ctx, lines)
		if err == nil && remote != nil {
			c.rememberCartID(ctx, remote.ID)
		}
	default:
		remote, err = c.gw.AddCartLines(ctx, id, lines)
	}
	if err == nil && remote == nil {
		err = fmt.Errorf("add %s: gateway returned no cart", variant.ID)
	}
	if err != nil {
		c.log.WithError(err).WithField("variant", variant.ID).Warn("add to cart")
		c.markDirty(err)
		return err
	}
	c.commit(*remote, nil)
	return nil
}

// Update projects action on the line locally, then confirms it with the
// gateway. The quantity sent is the projected one read after earlier
// updates have settled, so rapid presses converge on the local total.
func (c *Container) Update(ctx context.Context, merchandiseID string, action Action) error {
	before := c.store.Snapshot()
	i := lineIndex(before.Cart.Lines, merchandiseID)
	if i < 0 {
		return fmt.Errorf("cart: no line for %s", merchandiseID)
	}
	lineID := before.Cart.Lines[i].ID

	c.store.Update(func(s State) State {
		s.Cart = UpdateItem(s.Cart, merchandiseID, action)
		return s
	})

	c.remote.Lock()
	defer c.remote.Unlock()

	current := c.store.Snapshot().Cart
	qty := 0
	if j := lineIndex(current.Lines, merchandiseID); j >= 0 {
		qty = current.Lines[j].Quantity
		if current.Lines[j].ID != "" {
			lineID = current.Lines[j].ID
		}
	}

	var err error
	switch {
	case current.ID == "":
		err = ErrNoCart
	case lineID == "":
		err = ErrUnconfirmedLine
	}
	if err != nil {
		c.markDirty(err)
		return err
	}

	var remote *shopify.Cart
	if qty <= 0 {
		remote, err = c.gw.RemoveCartLines(ctx, current.ID, []string{lineID})
	} else {
		remote, err = c.gw.UpdateCartLines(ctx, current.ID, []shopify.CartLineUpdateInput{{
			ID: lineID, MerchandiseID: merchandiseID, Quantity: qty,
		}})
	}
	if err == nil && remote == nil {
		err = fmt.Errorf("update %s: gateway returned no cart", merchandiseID)
	}
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"variant": merchandiseID, "action": action}).Warn("update cart")
		c.markDirty(err)
		return err
	}
	c.commit(*remote, nil)
	return nil
}

// Reconcile replaces the local cart with the authoritative one. Without a
// cart in memory the stored cart is fetched first; local lines are added to
// it, or to a new cart when none is stored.
func (c *Container) Reconcile(ctx context.Context) error {
	c.remote.Lock()
	defer c.remote.Unlock()

	local := c.store.Snapshot()
	var (
		remote *shopify.Cart
		err    error
	)
	if local.Cart.ID == "" {
		remote, err = c.storedCart(ctx)
	}
	switch {
	case err != nil:
	case local.Cart.ID == "" && len(local.Cart.Lines) == 0:
		if remote == nil {
			remote = &local.Cart
		}
	case local.Cart.ID == "" && remote != nil:
		remote, err = c.gw.AddCartLines(ctx, remote.ID, lineInputs(local.Cart.Lines))
	case local.Cart.ID == "":
		remote, err = c.gw.CreateCart(ctx, lineInputs(local.Cart.Lines))
		if err == nil && remote != nil {
			c.rememberCartID(ctx, remote.ID)
		}
	default:
		remote, err = c.gw.FetchCart(ctx, local.Cart.ID)
		if err == nil && remote == nil {
			c.log.WithField("cart", local.Cart.ID).Info("cart expired on the gateway")
			c.forgetCartID(ctx)
			remote = &shopify.Cart{}
		}
	}
	if err == nil && remote == nil {
		err = errors.New("reconcile: gateway returned no cart")
	}
	if err != nil {
		c.metrics.ObserveReconcile(metrics.OutcomeTransport)
		c.store.Update(func(s State) State {
			s.Health = s.Health.Record(err, c.now())
			return s
		})
		return err
	}
	c.commit(*remote, nil)
	c.metrics.ObserveReconcile(metrics.OutcomeOK)
	return nil
}

// commit adopts an authoritative snapshot and clears the dirty flag.
func (c *Container) commit(remote shopify.Cart, err error) {
	now := c.now()
	c.store.Update(func(s State) State {
		s.Cart = cloneCart(remote)
		s.Dirty = false
		s.LastSynced = now
		s.Health = s.Health.Record(err, now)
		return s
	})
	c.metrics.SetCartDirty(false)
}

func (c *Container) markDirty(err error) {
	now := c.now()
	c.store.Update(func(s State) State {
		s.Dirty = true
		s.Health = s.Health.Record(err, now)
		return s
	})
	c.metrics.SetCartDirty(true)
}

// storedCart fetches the cart whose id is stored. It returns nil without an
// error when no id is stored or the gateway no longer knows the cart, and
// forgets the id in the latter case.
func (c *Container) storedCart(ctx context.Context) (*shopify.Cart, error) {
	id, err := c.kv.Get(ctx, kv.KeyCartID)
	if errors.Is(err, kv.ErrNotFound) || (err == nil && strings.TrimSpace(id) == "") {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read stored cart id: %w", err)
	}
	remote, err := c.gw.FetchCart(ctx, id)
	if err != nil {
		return nil, err
	}
	if remote == nil {
		c.log.WithField("cart", id).Info("stored cart no longer exists")
		c.forgetCartID(ctx)
	}
	return remote, nil
}

func (c *Container) rememberCartID(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := c.kv.Set(ctx, kv.KeyCartID, id); err != nil {
		c.log.WithError(err).Warn("persist cart id")
	}
}

func (c *Container) forgetCartID(ctx context.Context) {
	if err := c.kv.Delete(ctx, kv.KeyCartID); err != nil {
		c.log.WithError(err).Warn("clear cart id")
	}
}

func lineInputs(lines []shopify.CartLine) []shopify.CartLineInput {
	out := make([]shopify.CartLineInput, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		out = append(out, shopify.CartLineInput{MerchandiseID: l.Merchandise.ID, Quantity: l.Quantity})
	}
	return slices.Clip(out)
}

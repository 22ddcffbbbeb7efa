// Package wishlist keeps the customer's favourite product handles on this
// device. It never calls the gateway for membership; Products resolves
// handles against the catalog for display.
package wishlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fleura/storefront/internal/kv"
	"github.com/fleura/storefront/internal/logging"
	"github.com/fleura/storefront/internal/shopify"
	"github.com/fleura/storefront/internal/state"
)

// State is the wishlist as the UI sees it.
type State struct {
	Handles []string
	Loaded  bool
}

func cloneState(s State) State {
	s.Handles = slices.Clone(s.Handles)
	return s
}

type opKind int

const (
	opAdd opKind = iota
	opRemove
)

type op struct {
	kind   opKind
	handle string
}

// Container holds the wishlist. Nothing is written to the store before Load
// completes; mutations made earlier are journaled and replayed on top of the
// stored list.
type Container struct {
	kv    kv.Store
	log   logrus.FieldLogger
	store *state.Store[State]

	mu      sync.Mutex
	loaded  bool
	loading bool
	journal []op
}

// New returns an unloaded wishlist. logger may be nil.
func New(store kv.Store, logger logrus.FieldLogger) *Container {
	return &Container{
		kv:    store,
		log:   logging.Component(logger, "wishlist"),
		store: state.New(State{}, cloneState),
	}
}

// Snapshot returns a copy of the current wishlist.
func (c *Container) Snapshot() State {
	return c.store.Snapshot()
}

// Subscribe notifies after each change.
func (c *Container) Subscribe() (<-chan struct{}, func()) {
	return c.store.Subscribe()
}

// Handles returns the current list in insertion order.
func (c *Container) Handles() []string {
	return c.store.Snapshot().Handles
}

// Load reads the stored list once. Corrupt data is logged and treated as
// empty. When the store cannot be read the error is returned and the
// wishlist stays unloaded: mutations keep being journaled and nothing is
// written until a later Load succeeds.
func (c *Container) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.loaded || c.loading {
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	c.mu.Unlock()

	stored, err := c.read(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		return err
	}

	handles := stored
	for _, o := range c.journal {
		handles = apply(handles, o)
	}
	replayed := len(c.journal) > 0
	c.journal = nil
	c.loaded = true

	c.store.Update(func(s State) State {
		s.Handles = handles
		s.Loaded = true
		return s
	})
	if replayed {
		c.persist(ctx, handles)
	}
	return nil
}

func (c *Container) read(ctx context.Context) ([]string, error) {
	raw, err := c.kv.Get(ctx, kv.KeyWishlist)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		c.log.WithError(err).Warn("read wishlist")
		return nil, fmt.Errorf("read wishlist: %w", err)
	}
	var handles []string
	if err := json.Unmarshal([]byte(raw), &handles); err != nil {
		c.log.WithError(err).Warn("stored wishlist is corrupt; starting empty")
		return nil, nil
	}
	return dedupe(handles), nil
}

// Add inserts handle. Adding a present handle does nothing.
func (c *Container) Add(ctx context.Context, handle string) {
	c.mutate(ctx, op{kind: opAdd, handle: handle})
}

// Remove deletes handle if present.
func (c *Container) Remove(ctx context.Context, handle string) {
	c.mutate(ctx, op{kind: opRemove, handle: handle})
}

// Toggle flips membership and reports whether handle is now present.
func (c *Container) Toggle(ctx context.Context, handle string) bool {
	if handle == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	o := op{kind: opAdd, handle: handle}
	if slices.Contains(c.store.Snapshot().Handles, handle) {
		o.kind = opRemove
	}
	c.mutateLocked(ctx, o)
	return o.kind == opAdd
}

// Contains reports membership.
func (c *Container) Contains(handle string) bool {
	return slices.Contains(c.store.Snapshot().Handles, handle)
}

func (c *Container) mutate(ctx context.Context, o op) {
	if o.handle == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mutateLocked(ctx, o)
}

func (c *Container) mutateLocked(ctx context.Context, o op) {
	next := c.store.Update(func(s State) State {
		s.Handles = apply(s.Handles, o)
		return s
	})
	if !c.loaded {
		c.journal = append(c.journal, o)
		return
	}
	c.persist(ctx, next.Handles)
}

func (c *Container) persist(ctx context.Context, handles []string) {
	if handles == nil {
		handles = []string{}
	}
	data, err := json.Marshal(handles)
	if err != nil {
		c.log.WithError(err).Warn("encode wishlist")
		return
	}
	if err := c.kv.Set(ctx, kv.KeyWishlist, string(data)); err != nil {
		c.log.WithError(err).Warn("persist wishlist")
	}
}

// apply returns handles after o without modifying the input.
func apply(handles []string, o op) []string {
	switch o.kind {
	case opAdd:
		if slices.Contains(handles, o.handle) {
			return handles
		}
		return append(slices.Clone(handles), o.handle)
	case opRemove:
		i := slices.Index(handles, o.handle)
		if i < 0 {
			return handles
		}
		return slices.Delete(slices.Clone(handles), i, i+1)
	}
	return handles
}

func dedupe(handles []string) []string {
	seen := make(map[string]struct{}, len(handles))
	out := make([]string, 0, len(handles))
	for _, h := range handles {
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

// ProductLister lists catalog products.
type ProductLister interface {
	FetchProducts(ctx context.Context, q shopify.ProductQuery) ([]shopify.Product, error)
}

const catalogPage = 250

// Products resolves handles against the catalog, keeping wishlist order.
// Handles with no matching product are skipped. On failure the slice is
// empty and the error is returned.
func Products(ctx context.Context, lister ProductLister, handles []string) ([]shopify.Product, error) {
	if len(handles) == 0 {
		return nil, nil
	}
	all, err := lister.FetchProducts(ctx, shopify.ProductQuery{First: catalogPage})
	if err != nil {
		return nil, fmt.Errorf("resolve wishlist: %w", err)
	}
	byHandle := make(map[string]shopify.Product, len(all))
	for _, p := range all {
		byHandle[p.Handle] = p
	}
	out := make([]shopify.Product, 0, len(handles))
	for _, h := range handles {
		if p, ok := byHandle[h]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fleura/storefront/internal/kv"
	"github.com/fleura/storefront/internal/logging"
	"github.com/fleura/storefront/internal/metrics"
	"github.com/fleura/storefront/internal/shopify"
	"github.com/fleura/storefront/internal/state"
)

// ErrNotAuthenticated is logged when an operation needs a token and none is held.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// Messages shown for failures that carry no field-level errors.
const (
	MsgLoginFailed      = "Login failed. Please try again."
	MsgRegisterFailed   = "Registration failed. Please try again."
	MsgUpdateFailed     = "Update failed. Please try again."
	MsgAddAddressFailed = "Failed to add address. Please try again."
	MsgRecoverFailed    = "Password recovery failed. Please try again."
	MsgNotAuthenticated = "Not authenticated"
	MsgSessionExpired   = "Session expired. Please log in again."
)

const defaultOrdersPageSize = 20

// Gateway is the subset of the Storefront API the session needs.
type Gateway interface {
	CreateCustomer(ctx context.Context, input shopify.CustomerCreateInput) (shopify.CustomerResult, error)
	CreateAccessToken(ctx context.Context, email, password string) (shopify.AccessTokenResult, error)
	DeleteAccessToken(ctx context.Context, token string) (shopify.DeleteTokenResult, error)
	FetchCustomer(ctx context.Context, token string) (*shopify.Customer, error)
	UpdateCustomer(ctx context.Context, token string, input shopify.CustomerUpdateInput) (shopify.CustomerUpdateResult, error)
	FetchOrders(ctx context.Context, token string, first int) ([]shopify.Order, error)
	FetchAddresses(ctx context.Context, token string) (shopify.AddressBook, error)
	CreateAddress(ctx context.Context, token string, input shopify.AddressInput) (shopify.AddressResult, error)
	UpdateAddress(ctx context.Context, token, id string, input shopify.AddressInput) (shopify.AddressResult, error)
	DeleteAddress(ctx context.Context, token, id string) ([]shopify.UserError, error)
	SetDefaultAddress(ctx context.Context, token, id string) ([]shopify.UserError, error)
	RecoverPassword(ctx context.Context, email string) ([]shopify.UserError, error)
}

var _ Gateway = (*shopify.Client)(nil)

// Result is what every account operation resolves to.
type Result struct {
	Success bool
	Errors  []shopify.UserError
}

func failure(msg string) Result {
	return Result{Errors: []shopify.UserError{{Message: msg}}}
}

func rejected(errs []shopify.UserError) Result {
	return Result{Errors: errs}
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger; entries carry component=session.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Container) { c.log = logging.Component(l, "session") }
}

// WithOrdersPageSize sets how many orders are fetched. Non-positive values
// keep the default of 20.
func WithOrdersPageSize(n int) Option {
	return func(c *Container) {
		if n > 0 {
			c.ordersPage = n
		}
	}
}

// WithClock replaces time.Now for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Container) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMetrics records session operations on r. A nil recorder is allowed.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Container) { c.metrics = r }
}

// Container is the single authority over the customer session. It owns the
// stored access token; other components read it through Token.
type Container struct {
	gw         Gateway
	kv         kv.Store
	store      *state.Store[State]
	log        logrus.FieldLogger
	metrics    *metrics.Recorder
	now        func() time.Time
	ordersPage int
	seq        atomic.Uint64
	initOnce   sync.Once
	tokenMu    sync.Mutex // guards the stored token keys
}

// New builds a Container in the initializing state. Call Init once to
// resolve the stored token.
func New(gw Gateway, store kv.Store, opts ...Option) *Container {
	c := &Container{
		gw:         gw,
		kv:         store,
		store:      state.New(Initial(), cloneState),
		log:        logging.Component(nil, "session"),
		now:        time.Now,
		ordersPage: defaultOrdersPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current session.
func (c *Container) Snapshot() State {
	return c.store.Snapshot()
}

// Subscribe notifies after each committed transition.
func (c *Container) Subscribe() (<-chan struct{}, func()) {
	return c.store.Subscribe()
}

// Token returns the in-memory access token, or "" when signed out.
func (c *Container) Token() string {
	return c.store.Snapshot().Token
}

// ClearError dismisses the inline error.
func (c *Container) ClearError() {
	c.dispatch(ErrorCleared{})
}

func (c *Container) dispatch(e Event) State {
	return c.store.Update(func(s State) State { return Reduce(s, e) })
}

// Init resolves the stored token once per container. Later calls do nothing.
func (c *Container) Init(ctx context.Context) {
	c.initOnce.Do(func() { c.init(ctx) })
}

func (c *Container) init(ctx context.Context) {
	gen := c.store.Snapshot().generation
	token, err := c.kv.Get(ctx, kv.KeyAccessToken)
	if err != nil || strings.TrimSpace(token) == "" {
		if err != nil && !errors.Is(err, kv.ErrNotFound) {
			c.log.WithError(err).Warn("read stored token")
		}
		c.dispatch(InitFinished{})
		return
	}

	if raw, err := c.kv.Get(ctx, kv.KeyAccessTokenExpiry); err == nil {
		if exp, ok := (shopify.AccessToken{ExpiresAt: raw}).Expiry(); ok && !c.now().Before(exp) {
			c.log.WithField("expires_at", raw).Info("stored token expired")
			c.expire(ctx, token, gen, MsgSessionExpired)
			return
		}
	}

	c.dispatch(LoadingStarted{})
	customer, err := c.gw.FetchCustomer(ctx, token)
	switch {
	case err != nil && ctx.Err() != nil:
		// Shutting down; keep the token for the next start.
		c.dispatch(InitFinished{})
		return
	case err != nil:
		c.log.WithError(err).Warn("restore session")
		c.expire(ctx, token, gen, MsgSessionExpired)
		return
	case customer == nil:
		c.log.Info("stored token no longer valid")
		c.expire(ctx, token, gen, "")
		return
	}

	if s := c.dispatch(Restored{Customer: customer, Token: token, Generation: gen}); s.Token != token {
		c.log.Debug("session changed during restore; stored token ignored")
		return
	}
	c.metrics.ObserveSession("restored")
	c.loadCustomerData(ctx, token)
}

// expire drops a stored token that failed the startup check. A session
// started while the check ran is left alone.
func (c *Container) expire(ctx context.Context, token string, gen uint64, msg string) {
	c.clearStoredTokenIf(ctx, token)
	c.metrics.ObserveSession("expired")
	c.dispatch(SessionExpired{Message: msg, Generation: gen})
}

// Login creates a token, loads the profile, then loads orders and addresses
// concurrently. The token is persisted only once the profile is known.
func (c *Container) Login(ctx context.Context, email, password string) Result {
	log := c.log.WithField("op", "login")
	c.dispatch(LoadingStarted{})

	res, err := c.gw.CreateAccessToken(ctx, email, password)
	if err != nil {
		log.WithError(err).Warn("create access token")
		c.dispatch(Failed{Message: MsgLoginFailed})
		return failure(MsgLoginFailed)
	}
	if len(res.UserErrors) > 0 {
		c.dispatch(LoadingFinished{})
		return rejected(res.UserErrors)
	}
	if res.Token == nil || res.Token.AccessToken == "" {
		c.dispatch(Failed{Message: MsgLoginFailed})
		return failure(MsgLoginFailed)
	}
	token := *res.Token

	customer, err := c.gw.FetchCustomer(ctx, token.AccessToken)
	if err != nil || customer == nil {
		log.WithError(err).Warn("fetch customer after login")
		c.dispatch(Failed{Message: MsgLoginFailed})
		return failure(MsgLoginFailed)
	}

	c.persistToken(ctx, token)
	c.dispatch(LoggedIn{Customer: customer, Token: token.AccessToken})
	c.metrics.ObserveSession("login")
	log.WithField("customer", customer.ID).Info("logged in")

	c.loadCustomerData(ctx, token.AccessToken)
	return Result{Success: true}
}

// Register creates the account and, when that succeeds cleanly, logs in
// with the same credentials.
func (c *Container) Register(ctx context.Context, input shopify.CustomerCreateInput) Result {
	c.dispatch(LoadingStarted{})
	res, err := c.gw.CreateCustomer(ctx, input)
	if err != nil {
		c.log.WithError(err).WithField("op", "register").Warn("create customer")
		c.dispatch(Failed{Message: MsgRegisterFailed})
		return failure(MsgRegisterFailed)
	}
	if len(res.UserErrors) > 0 {
		c.dispatch(LoadingFinished{})
		return rejected(res.UserErrors)
	}
	c.metrics.ObserveSession("register")
	return c.Login(ctx, input.Email, input.Password)
}

// Logout always succeeds locally. Deleting the remote token is best effort.
func (c *Container) Logout(ctx context.Context) {
	if token := c.Token(); token != "" {
		if _, err := c.gw.DeleteAccessToken(ctx, token); err != nil {
			c.log.WithError(err).WithField("op", "logout").Warn("delete access token")
		}
	}
	c.clearStoredToken(ctx)
	c.dispatch(LoggedOut{})
	c.metrics.ObserveSession("logout")
}

// UpdateProfile changes profile fields and adopts a refreshed token when the
// API issues one.
func (c *Container) UpdateProfile(ctx context.Context, input shopify.CustomerUpdateInput) Result {
	token := c.Token()
	if token == "" {
		return failure(MsgNotAuthenticated)
	}
	c.dispatch(LoadingStarted{})
	res, err := c.gw.UpdateCustomer(ctx, token, input)
	if err != nil {
		c.log.WithError(err).WithField("op", "update_profile").Warn("update customer")
		c.dispatch(Failed{Message: MsgUpdateFailed})
		return failure(MsgUpdateFailed)
	}
	if len(res.UserErrors) > 0 {
		c.dispatch(LoadingFinished{})
		return rejected(res.UserErrors)
	}

	refreshed := ""
	if res.Token != nil && res.Token.AccessToken != "" {
		refreshed = res.Token.AccessToken
		c.persistToken(ctx, *res.Token)
	}
	c.dispatch(CustomerUpdated{Customer: res.Customer, Token: refreshed})
	return Result{Success: true}
}

// LoadOrders replaces the order list. It does nothing when signed out;
// failures are logged and leave the list as it was.
func (c *Container) LoadOrders(ctx context.Context) {
	if err := c.loadOrders(ctx, c.Token()); err != nil {
		c.log.WithError(err).Warn("load orders")
	}
}

// LoadAddresses replaces the address book. Same failure rules as LoadOrders.
func (c *Container) LoadAddresses(ctx context.Context) {
	if err := c.loadAddresses(ctx, c.Token()); err != nil {
		c.log.WithError(err).Warn("load addresses")
	}
}

func (c *Container) loadOrders(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	seq := c.seq.Add(1)
	orders, err := c.gw.FetchOrders(ctx, token, c.ordersPage)
	if err != nil {
		return err
	}
	c.dispatch(OrdersLoaded{Token: token, Seq: seq, Orders: orders})
	return nil
}

func (c *Container) loadAddresses(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	seq := c.seq.Add(1)
	book, err := c.gw.FetchAddresses(ctx, token)
	if err != nil {
		return err
	}
	c.dispatch(AddressesLoaded{Token: token, Seq: seq, Addresses: book.Addresses, Default: book.Default})
	return nil
}

// loadCustomerData fetches orders and addresses concurrently and waits for both.
func (c *Container) loadCustomerData(ctx context.Context, token string) {
	var g errgroup.Group
	g.Go(func() error { return c.loadOrders(ctx, token) })
	g.Go(func() error { return c.loadAddresses(ctx, token) })
	if err := g.Wait(); err != nil {
		c.log.WithError(err).Warn("load customer data")
	}
}

// AddAddress creates an address, then reloads the whole address book.
func (c *Container) AddAddress(ctx context.Context, input shopify.AddressInput) Result {
	token := c.Token()
	if token == "" {
		return failure(MsgNotAuthenticated)
	}
	res, err := c.gw.CreateAddress(ctx, token, input)
	if err != nil {
		c.log.WithError(err).WithField("op", "add_address").Warn("create address")
		return failure(MsgAddAddressFailed)
	}
	if len(res.UserErrors) > 0 {
		return rejected(res.UserErrors)
	}
	c.LoadAddresses(ctx)
	return Result{Success: true}
}

// UpdateAddress edits an address, then reloads the address book.
func (c *Container) UpdateAddress(ctx context.Context, id string, input shopify.AddressInput) Result {
	token := c.Token()
	if token == "" {
		return failure(MsgNotAuthenticated)
	}
	res, err := c.gw.UpdateAddress(ctx, token, id, input)
	if err != nil {
		c.log.WithError(err).WithField("op", "update_address").Warn("update address")
		return failure(MsgUpdateFailed)
	}
	if len(res.UserErrors) > 0 {
		return rejected(res.UserErrors)
	}
	c.LoadAddresses(ctx)
	return Result{Success: true}
}

// DeleteAddress removes an address, then reloads the address book.
func (c *Container) DeleteAddress(ctx context.Context, id string) Result {
	return c.addressMutation(ctx, "delete_address", func(token string) ([]shopify.UserError, error) {
		return c.gw.DeleteAddress(ctx, token, id)
	})
}

// SetDefaultAddress changes the default address, then reloads the address book.
func (c *Container) SetDefaultAddress(ctx context.Context, id string) Result {
	return c.addressMutation(ctx, "set_default_address", func(token string) ([]shopify.UserError, error) {
		return c.gw.SetDefaultAddress(ctx, token, id)
	})
}

func (c *Container) addressMutation(ctx context.Context, op string, call func(token string) ([]shopify.UserError, error)) Result {
	token := c.Token()
	if token == "" {
		c.log.WithField("op", op).Debug(ErrNotAuthenticated)
		return failure(MsgNotAuthenticated)
	}
	userErrs, err := call(token)
	if err != nil {
		c.log.WithError(err).WithField("op", op).Warn("address mutation")
		return failure(MsgUpdateFailed)
	}
	if len(userErrs) > 0 {
		return rejected(userErrs)
	}
	c.LoadAddresses(ctx)
	return Result{Success: true}
}

// RecoverPassword asks for a reset email. It does not touch session state.
func (c *Container) RecoverPassword(ctx context.Context, email string) Result {
	userErrs, err := c.gw.RecoverPassword(ctx, email)
	if err != nil {
		c.log.WithError(err).WithField("op", "recover_password").Warn("recover password")
		return failure(MsgRecoverFailed)
	}
	if len(userErrs) > 0 {
		return rejected(userErrs)
	}
	return Result{Success: true}
}

func (c *Container) persistToken(ctx context.Context, token shopify.AccessToken) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	if err := c.kv.Set(ctx, kv.KeyAccessToken, token.AccessToken); err != nil {
		c.log.WithError(err).Warn("persist token")
		return
	}
	if token.ExpiresAt == "" {
		_ = c.kv.Delete(ctx, kv.KeyAccessTokenExpiry)
		return
	}
	if err := c.kv.Set(ctx, kv.KeyAccessTokenExpiry, token.ExpiresAt); err != nil {
		c.log.WithError(err).Warn("persist token expiry")
	}
}

func (c *Container) clearStoredToken(ctx context.Context) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	c.deleteStoredToken(ctx)
}

// clearStoredTokenIf deletes the stored token only while it is still token.
func (c *Container) clearStoredTokenIf(ctx context.Context, token string) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	current, err := c.kv.Get(ctx, kv.KeyAccessToken)
	if err != nil || current != token {
		return
	}
	c.deleteStoredToken(ctx)
}

func (c *Container) deleteStoredToken(ctx context.Context) {
	for _, key := range []string{kv.KeyAccessToken, kv.KeyAccessTokenExpiry} {
		if err := c.kv.Delete(ctx, key); err != nil {
			c.log.WithError(err).WithField("key", key).Warn("clear stored token")
		}
	}
}

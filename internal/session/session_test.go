package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleura/storefront/internal/kv"
	"github.com/fleura/storefront/internal/shopify"
)

var errNetwork = errors.New("dial tcp: connection refused")

// fakeGateway is an in-memory account backend keyed by token.
type fakeGateway struct {
	mu sync.Mutex

	customers map[string]*shopify.Customer // by token
	passwords map[string]string            // email -> password
	orders    []shopify.Order
	book      shopify.AddressBook

	createErr     error
	tokenErr      error
	fetchErr      error
	deleteErr     error
	ordersErr     error
	createUserErr []shopify.UserError
	addressErrs   []shopify.UserError
	refreshToken  string
	onCreate      func()

	deleted       []string
	fetchOrdersN  int
	fetchAddressN int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		customers: map[string]*shopify.Customer{},
		passwords: map[string]string{},
	}
}

func (f *fakeGateway) addCustomer(email, password, token string) *shopify.Customer {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &shopify.Customer{ID: "gid://shopify/Customer/" + token, Email: email, FirstName: "Ann"}
	f.passwords[email] = password
	f.customers[token] = c
	return c
}

func (f *fakeGateway) CreateCustomer(_ context.Context, in shopify.CustomerCreateInput) (shopify.CustomerResult, error) {
	if f.onCreate != nil {
		f.onCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return shopify.CustomerResult{}, f.createErr
	}
	if len(f.createUserErr) > 0 {
		return shopify.CustomerResult{UserErrors: f.createUserErr}, nil
	}
	f.passwords[in.Email] = in.Password
	c := &shopify.Customer{ID: "gid://shopify/Customer/new", Email: in.Email, FirstName: in.FirstName}
	f.customers["tok-"+in.Email] = c
	return shopify.CustomerResult{Customer: c}, nil
}

func (f *fakeGateway) CreateAccessToken(_ context.Context, email, password string) (shopify.AccessTokenResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokenErr != nil {
		return shopify.AccessTokenResult{}, f.tokenErr
	}
	if pw, ok := f.passwords[email]; !ok || pw != password {
		return shopify.AccessTokenResult{UserErrors: []shopify.UserError{{
			Field: []string{"input"}, Message: "Unidentified customer", Code: "UNIDENTIFIED_CUSTOMER",
		}}}, nil
	}
	token := "tok-" + email
	for tok, c := range f.customers {
		if c.Email == email && tok != token {
			f.customers[token] = c
		}
	}
	return shopify.AccessTokenResult{Token: &shopify.AccessToken{AccessToken: token, ExpiresAt: "2099-01-01T00:00:00Z"}}, nil
}

func (f *fakeGateway) DeleteAccessToken(_ context.Context, token string) (shopify.DeleteTokenResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, token)
	if f.deleteErr != nil {
		return shopify.DeleteTokenResult{}, f.deleteErr
	}
	return shopify.DeleteTokenResult{DeletedAccessToken: token}, nil
}

func (f *fakeGateway) FetchCustomer(_ context.Context, token string) (*shopify.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.customers[token], nil
}

func (f *fakeGateway) UpdateCustomer(_ context.Context, token string, in shopify.CustomerUpdateInput) (shopify.CustomerUpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[token]
	if !ok {
		return shopify.CustomerUpdateResult{}, errors.New("unknown token")
	}
	updated := *c
	if in.FirstName != nil {
		updated.FirstName = *in.FirstName
	}
	res := shopify.CustomerUpdateResult{Customer: &updated}
	if f.refreshToken != "" {
		f.customers[f.refreshToken] = &updated
		res.Token = &shopify.AccessToken{AccessToken: f.refreshToken, ExpiresAt: "2099-01-01T00:00:00Z"}
	}
	return res, nil
}

func (f *fakeGateway) FetchOrders(_ context.Context, token string, first int) ([]shopify.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchOrdersN++
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}
	if len(f.orders) > first {
		return f.orders[:first], nil
	}
	return f.orders, nil
}

func (f *fakeGateway) FetchAddresses(_ context.Context, token string) (shopify.AddressBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchAddressN++
	book := shopify.AddressBook{Addresses: slices.Clone(f.book.Addresses)}
	if f.book.Default != nil {
		d := *f.book.Default
		book.Default = &d
	}
	return book, nil
}

func (f *fakeGateway) CreateAddress(_ context.Context, token string, in shopify.AddressInput) (shopify.AddressResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.addressErrs) > 0 {
		return shopify.AddressResult{UserErrors: f.addressErrs}, nil
	}
	a := shopify.Address{ID: "addr-" + in.City, City: in.City}
	f.book.Addresses = append(f.book.Addresses, a)
	if f.book.Default == nil {
		f.book.Default = &a
	}
	return shopify.AddressResult{Address: &a}, nil
}

func (f *fakeGateway) UpdateAddress(_ context.Context, token, id string, in shopify.AddressInput) (shopify.AddressResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.book.Addresses {
		if f.book.Addresses[i].ID == id {
			f.book.Addresses[i].City = in.City
			a := f.book.Addresses[i]
			return shopify.AddressResult{Address: &a}, nil
		}
	}
	return shopify.AddressResult{UserErrors: []shopify.UserError{{Message: "Address not found"}}}, nil
}

func (f *fakeGateway) DeleteAddress(_ context.Context, token, id string) ([]shopify.UserError, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.book.Addresses[:0]
	for _, a := range f.book.Addresses {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	f.book.Addresses = kept
	return nil, nil
}

func (f *fakeGateway) SetDefaultAddress(_ context.Context, token, id string) ([]shopify.UserError, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.book.Addresses {
		if a.ID == id {
			d := a
			f.book.Default = &d
			return nil, nil
		}
	}
	return []shopify.UserError{{Message: "Address not found"}}, nil
}

func (f *fakeGateway) RecoverPassword(_ context.Context, email string) ([]shopify.UserError, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.passwords[email]; !ok {
		return []shopify.UserError{{Message: "Could not find customer", Code: "UNIDENTIFIED_CUSTOMER"}}, nil
	}
	return nil, nil
}

// heldFetchGateway holds FetchCustomer for one token until release is closed,
// then answers with customer and err.
type heldFetchGateway struct {
	*fakeGateway
	token    string
	customer *shopify.Customer
	err      error
	started  chan struct{}
	release  chan struct{}
}

func newHeldFetchGateway(token string) *heldFetchGateway {
	return &heldFetchGateway{
		fakeGateway: newFakeGateway(),
		token:       token,
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *heldFetchGateway) FetchCustomer(ctx context.Context, token string) (*shopify.Customer, error) {
	if token != g.token {
		return g.fakeGateway.FetchCustomer(ctx, token)
	}
	close(g.started)
	<-g.release
	return g.customer, g.err
}

func stored(t *testing.T, s kv.Store, key string) string {
	t.Helper()
	return kv.GetOr(context.Background(), s, key, "")
}

func TestInit_NoStoredToken(t *testing.T) {
	c := New(newFakeGateway(), kv.NewMemoryStore())
	assert.True(t, c.Snapshot().Initializing)

	c.Init(context.Background())

	s := c.Snapshot()
	assert.False(t, s.Initializing)
	assert.False(t, s.Authenticated)
	assert.Empty(t, s.Error)
}

func TestInit_RestoresStoredToken(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.addCustomer("ann@example.com", "pw", "tok-1")
	gw.orders = []shopify.Order{{ID: "o1"}, {ID: "o2"}}
	gw.book = shopify.AddressBook{Addresses: []shopify.Address{{ID: "a1"}}, Default: &shopify.Address{ID: "a1"}}
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, kv.KeyAccessToken, "tok-1"))

	c := New(gw, store)
	c.Init(ctx)

	s := c.Snapshot()
	assert.False(t, s.Initializing)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "tok-1", s.Token)
	require.NotNil(t, s.Customer)
	assert.Equal(t, "ann@example.com", s.Customer.Email)
	assert.Len(t, s.Orders, 2)
	require.NotNil(t, s.DefaultAddress)
	assert.Equal(t, "a1", s.DefaultAddress.ID)
}

func TestInit_RejectedTokenRecovers(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.fetchErr = errNetwork
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, kv.KeyAccessToken, "stale"))
	require.NoError(t, store.Set(ctx, kv.KeyAccessTokenExpiry, "2099-01-01T00:00:00Z"))

	c := New(gw, store)
	c.Init(ctx)

	s := c.Snapshot()
	assert.False(t, s.Initializing)
	assert.False(t, s.Authenticated)
	assert.Empty(t, s.Token)
	assert.Nil(t, s.Customer)
	assert.Equal(t, MsgSessionExpired, s.Error)
	_, err := store.Get(ctx, kv.KeyAccessToken)
	assert.ErrorIs(t, err, kv.ErrNotFound)
	_, err = store.Get(ctx, kv.KeyAccessTokenExpiry)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestInit_UnknownTokenClearsQuietly(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, kv.KeyAccessToken, "gone"))

	c := New(newFakeGateway(), store)
	c.Init(ctx)

	s := c.Snapshot()
	assert.False(t, s.Initializing)
	assert.False(t, s.Authenticated)
	assert.Empty(t, s.Error)
	assert.Empty(t, stored(t, store, kv.KeyAccessToken))
}

func TestInit_ExpiredTokenSkipsGateway(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.addCustomer("ann@example.com", "pw", "tok-1")
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, kv.KeyAccessToken, "tok-1"))
	require.NoError(t, store.Set(ctx, kv.KeyAccessTokenExpiry, "2024-01-01T00:00:00Z"))

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	gw.fetchErr = errors.New("must not be called")
	c := New(gw, store, WithClock(func() time.Time { return now }))
	c.Init(ctx)

	s := c.Snapshot()
	assert.False(t, s.Initializing)
	assert.False(t, s.Authenticated)
	assert.Equal(t, MsgSessionExpired, s.Error)
	assert.Empty(t, stored(t, store, kv.KeyAccessToken))
}

func TestInit_LoginDuringRestoreSurvivesFailedCheck(t *testing.T) {
	ctx := context.Background()
	gw := newHeldFetchGateway("old-token")
	gw.err = errNetwork
	gw.addCustomer("bea@example.com", "pw", "seed")
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, kv.KeyAccessToken, "old-token"))
	require.NoError(t, store.Set(ctx, kv.KeyAccessTokenExpiry, "2099-01-01T00:00:00Z"))

	c := New(gw, store)
	done := make(chan struct{})
	go func() {
		c.Init(ctx)
		close(done)
	}()
	<-gw.started

	res := c.Login(ctx, "bea@example.com", "pw")
	require.True(t, res.Success)

	close(gw.release)
	<-done

	s := c.Snapshot()
	assert.False(t, s.Initializing)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "tok-bea@example.com", s.Token)
	assert.Empty(t, s.Error)
	require.NotNil(t, s.Customer)
	assert.Equal(t, "bea@example.com", s.Customer.Email)
	assert.Equal(t, "tok-bea@example.com", stored(t, store, kv.KeyAccessToken))
	assert.Equal(t, "2099-01-01T00:00:00Z", stored(t, store, kv.KeyAccessTokenExpiry))
}

func TestInit_LoginDuringRestoreKeepsNewSession(t *testing.T) {
	ctx := context.Background()
	gw := newHeldFetchGateway("old-token")
	gw.customer = &shopify.Customer{ID: "old", Email: "old@example.com"}
	gw.addCustomer("bea@example.com", "pw", "seed")
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, kv.KeyAccessToken, "old-token"))

	c := New(gw, store)
	done := make(chan struct{})
	go func() {
		c.Init(ctx)
		close(done)
	}()
	<-gw.started

	require.True(t, c.Login(ctx, "bea@example.com", "pw").Success)
	close(gw.release)
	<-done

	s := c.Snapshot()
	assert.False(t, s.Initializing)
	assert.Equal(t, "tok-bea@example.com", s.Token)
	require.NotNil(t, s.Customer)
	assert.Equal(t, "bea@example.com", s.Customer.Email)
	assert.Equal(t, "tok-bea@example.com", stored(t, store, kv.KeyAccessToken))
}

func TestInit_LogoutDuringRestoreStaysSignedOut(t *testing.T) {
	ctx := context.Background()
	gw := newHeldFetchGateway("old-token")
	gw.customer = &shopify.Customer{ID: "old"}
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, kv.KeyAccessToken, "old-token"))

	c := New(gw, store)
	done := make(chan struct{})
	go func() {
		c.Init(ctx)
		close(done)
	}()
	<-gw.started

	c.Logout(ctx)
	close(gw.release)
	<-done

	s := c.Snapshot()
	assert.False(t, s.Initializing)
	assert.False(t, s.Authenticated)
	assert.Nil(t, s.Customer)
}

func TestInit_RunsOnce(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	c := New(gw, kv.NewMemoryStore())
	c.Init(ctx)

	gw.addCustomer("ann@example.com", "pw", "tok-1")
	require.True(t, c.Login(ctx, "ann@example.com", "pw").Success)
	c.Init(ctx)

	s := c.Snapshot()
	assert.True(t, s.Authenticated, "second Init must not reset the session")
	assert.False(t, s.Initializing)
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.addCustomer("ann@example.com", "pw", "seed")
	gw.orders = []shopify.Order{{ID: "o1"}, {ID: "o2"}, {ID: "o3"}}
	gw.book = shopify.AddressBook{Addresses: []shopify.Address{{ID: "a1"}}}
	store := kv.NewMemoryStore()

	c := New(gw, store, WithOrdersPageSize(2))
	c.Init(ctx)
	res := c.Login(ctx, "ann@example.com", "pw")

	require.True(t, res.Success)
	assert.Empty(t, res.Errors)
	s := c.Snapshot()
	assert.True(t, s.Authenticated)
	assert.False(t, s.Loading)
	assert.Equal(t, "tok-ann@example.com", s.Token)
	assert.Len(t, s.Orders, 2)
	assert.Len(t, s.Addresses, 1)
	assert.Equal(t, "tok-ann@example.com", stored(t, store, kv.KeyAccessToken))
	assert.Equal(t, "2099-01-01T00:00:00Z", stored(t, store, kv.KeyAccessTokenExpiry))
	assert.Equal(t, s.Token, c.Token())
}

func TestLogin_UserErrorsReturnedVerbatim(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	c := New(newFakeGateway(), store)
	c.Init(ctx)

	res := c.Login(ctx, "nobody@example.com", "pw")

	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "UNIDENTIFIED_CUSTOMER", res.Errors[0].Code)
	assert.Equal(t, []string{"input"}, res.Errors[0].Field)
	s := c.Snapshot()
	assert.False(t, s.Authenticated)
	assert.False(t, s.Loading)
	assert.Empty(t, stored(t, store, kv.KeyAccessToken))
}

func TestLogin_TransportErrorKeepsSession(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.addCustomer("ann@example.com", "pw", "seed")
	c := New(gw, kv.NewMemoryStore())
	c.Init(ctx)
	require.True(t, c.Login(ctx, "ann@example.com", "pw").Success)

	gw.tokenErr = errNetwork
	res := c.Login(ctx, "ann@example.com", "pw")

	assert.False(t, res.Success)
	assert.Equal(t, []shopify.UserError{{Message: MsgLoginFailed}}, res.Errors)
	s := c.Snapshot()
	assert.True(t, s.Authenticated, "a failed login must not drop the existing session")
	assert.Equal(t, MsgLoginFailed, s.Error)
}

func TestLogin_ProfileFailureLeavesNoToken(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.addCustomer("ann@example.com", "pw", "seed")
	store := kv.NewMemoryStore()
	c := New(gw, store)
	c.Init(ctx)

	gw.fetchErr = errNetwork
	res := c.Login(ctx, "ann@example.com", "pw")

	assert.False(t, res.Success)
	assert.False(t, c.Snapshot().Authenticated)
	assert.Empty(t, stored(t, store, kv.KeyAccessToken))
}

func TestRegister_AutoLogin(t *testing.T) {
	ctx := context.Background()
	c := New(newFakeGateway(), kv.NewMemoryStore())
	c.Init(ctx)

	res := c.Register(ctx, shopify.CustomerCreateInput{Email: "bea@example.com", Password: "pw", FirstName: "Bea"})

	require.True(t, res.Success)
	s := c.Snapshot()
	assert.True(t, s.Authenticated)
	require.NotNil(t, s.Customer)
	assert.Equal(t, "Bea", s.Customer.FirstName)
}

func TestRegister_UserErrorsSkipLogin(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.createUserErr = []shopify.UserError{{Field: []string{"input", "email"}, Message: "Email has already been taken", Code: "TAKEN"}}
	c := New(gw, kv.NewMemoryStore())
	c.Init(ctx)

	res := c.Register(ctx, shopify.CustomerCreateInput{Email: "bea@example.com", Password: "pw"})

	assert.False(t, res.Success)
	assert.Equal(t, gw.createUserErr, res.Errors)
	assert.False(t, c.Snapshot().Authenticated)
}

func TestRegister_TransportError(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.createErr = errNetwork
	c := New(gw, kv.NewMemoryStore())

	res := c.Register(ctx, shopify.CustomerCreateInput{Email: "bea@example.com", Password: "pw"})
	assert.Equal(t, []shopify.UserError{{Message: MsgRegisterFailed}}, res.Errors)
	s := c.Snapshot()
	assert.False(t, s.Loading)
	assert.Equal(t, MsgRegisterFailed, s.Error)
}

func TestRegister_ShowsLoadingWhileCreating(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	c := New(gw, kv.NewMemoryStore())
	c.Init(ctx)
	c.store.Update(func(s State) State { return Reduce(s, Failed{Message: "old"}) })

	var during State
	gw.onCreate = func() { during = c.Snapshot() }

	res := c.Register(ctx, shopify.CustomerCreateInput{Email: "bea@example.com", Password: "pw"})
	require.True(t, res.Success)
	assert.True(t, during.Loading)
	assert.Empty(t, during.Error)
	assert.False(t, c.Snapshot().Loading)
}

func TestLogout_GatewayFailureStillResets(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.addCustomer("ann@example.com", "pw", "seed")
	store := kv.NewMemoryStore()
	c := New(gw, store)
	c.Init(ctx)
	require.True(t, c.Login(ctx, "ann@example.com", "pw").Success)

	gw.deleteErr = errNetwork
	c.Logout(ctx)

	s := c.Snapshot()
	assert.False(t, s.Authenticated)
	assert.Empty(t, s.Token)
	assert.Nil(t, s.Customer)
	assert.Empty(t, s.Orders)
	assert.False(t, s.Initializing)
	assert.Empty(t, stored(t, store, kv.KeyAccessToken))
	assert.Equal(t, []string{"tok-ann@example.com"}, gw.deleted)
}

func TestLogout_WhenSignedOutSkipsGateway(t *testing.T) {
	gw := newFakeGateway()
	c := New(gw, kv.NewMemoryStore())
	c.Logout(context.Background())
	assert.Empty(t, gw.deleted)
	assert.False(t, c.Snapshot().Authenticated)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.addCustomer("ann@example.com", "pw", "seed")
	store := kv.NewMemoryStore()
	c := New(gw, store)

	res := c.UpdateProfile(ctx, shopify.CustomerUpdateInput{})
	assert.Equal(t, []shopify.UserError{{Message: MsgNotAuthenticated}}, res.Errors)

	c.Init(ctx)
	require.True(t, c.Login(ctx, "ann@example.com", "pw").Success)

	name := "Annie"
	gw.refreshToken = "tok-refreshed"
	res = c.UpdateProfile(ctx, shopify.CustomerUpdateInput{FirstName: &name})

	require.True(t, res.Success)
	s := c.Snapshot()
	assert.Equal(t, "Annie", s.Customer.FirstName)
	assert.Equal(t, "tok-refreshed", s.Token)
	assert.Equal(t, "tok-refreshed", stored(t, store, kv.KeyAccessToken))
}

func TestLoadOrders_NoopWhenSignedOut(t *testing.T) {
	gw := newFakeGateway()
	c := New(gw, kv.NewMemoryStore())
	c.LoadOrders(context.Background())
	c.LoadAddresses(context.Background())
	assert.Zero(t, gw.fetchOrdersN)
	assert.Zero(t, gw.fetchAddressN)
}

func TestLoadOrders_FailureKeepsList(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.addCustomer("ann@example.com", "pw", "seed")
	gw.orders = []shopify.Order{{ID: "o1"}}
	c := New(gw, kv.NewMemoryStore())
	require.True(t, c.Login(ctx, "ann@example.com", "pw").Success)

	gw.ordersErr = errNetwork
	c.LoadOrders(ctx)

	s := c.Snapshot()
	assert.Len(t, s.Orders, 1)
	assert.Empty(t, s.Error)
}

func TestAddressBookOperations(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.addCustomer("ann@example.com", "pw", "seed")
	c := New(gw, kv.NewMemoryStore())
	require.True(t, c.Login(ctx, "ann@example.com", "pw").Success)

	require.True(t, c.AddAddress(ctx, shopify.AddressInput{City: "Lyon"}).Success)
	require.True(t, c.AddAddress(ctx, shopify.AddressInput{City: "Paris"}).Success)
	s := c.Snapshot()
	require.Len(t, s.Addresses, 2)
	assert.Equal(t, "addr-Lyon", s.DefaultAddress.ID)

	require.True(t, c.SetDefaultAddress(ctx, "addr-Paris").Success)
	assert.Equal(t, "addr-Paris", c.Snapshot().DefaultAddress.ID)

	require.True(t, c.UpdateAddress(ctx, "addr-Lyon", shopify.AddressInput{City: "Nice"}).Success)
	assert.Equal(t, "Nice", c.Snapshot().Addresses[0].City)

	res := c.UpdateAddress(ctx, "missing", shopify.AddressInput{City: "Nice"})
	assert.False(t, res.Success)
	assert.Equal(t, "Address not found", res.Errors[0].Message)

	require.True(t, c.DeleteAddress(ctx, "addr-Lyon").Success)
	assert.Len(t, c.Snapshot().Addresses, 1)

	gw.addressErrs = []shopify.UserError{{Field: []string{"address", "zip"}, Message: "Zip is invalid"}}
	res = c.AddAddress(ctx, shopify.AddressInput{City: "Lille"})
	assert.Equal(t, gw.addressErrs, res.Errors)
}

func TestAddressOperations_RequireToken(t *testing.T) {
	ctx := context.Background()
	c := New(newFakeGateway(), kv.NewMemoryStore())
	for _, res := range []Result{
		c.AddAddress(ctx, shopify.AddressInput{}),
		c.UpdateAddress(ctx, "a", shopify.AddressInput{}),
		c.DeleteAddress(ctx, "a"),
		c.SetDefaultAddress(ctx, "a"),
	} {
		assert.Equal(t, []shopify.UserError{{Message: MsgNotAuthenticated}}, res.Errors)
	}
}

func TestRecoverPassword(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.addCustomer("ann@example.com", "pw", "seed")
	c := New(gw, kv.NewMemoryStore())

	assert.True(t, c.RecoverPassword(ctx, "ann@example.com").Success)
	res := c.RecoverPassword(ctx, "nobody@example.com")
	assert.False(t, res.Success)
	assert.Equal(t, "UNIDENTIFIED_CUSTOMER", res.Errors[0].Code)
	assert.False(t, c.Snapshot().Authenticated)
}

func TestClearErrorAndSubscribe(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.fetchErr = errNetwork
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, kv.KeyAccessToken, "stale"))
	c := New(gw, store)
	ch, unsubscribe := c.Subscribe()
	defer unsubscribe()

	c.Init(ctx)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change notification")
	}
	assert.Equal(t, MsgSessionExpired, c.Snapshot().Error)

	c.ClearError()
	assert.Empty(t, c.Snapshot().Error)
}

package session

import (
	"slices"

	"github.com/fleura/storefront/internal/shopify"
)

// State is the session as the UI sees it. Authenticated always equals
// Token != "".
type State struct {
	Customer       *shopify.Customer
	Token          string
	Orders         []shopify.Order
	Addresses      []shopify.Address
	DefaultAddress *shopify.Address
	Authenticated  bool
	Loading        bool
	Initializing   bool
	Error          string

	// generation advances on every login and logout. Startup results carry
	// the generation they were checked under and are dropped once it moves.
	generation   uint64
	ordersSeq    uint64
	addressesSeq uint64
}

// Initial is the state of a freshly created container.
func Initial() State {
	return State{Initializing: true}
}

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

type (
	// LoadingStarted marks an account operation in flight.
	LoadingStarted struct{}
	// LoadingFinished ends an operation that changed nothing else.
	LoadingFinished struct{}
	// InitFinished resolves the startup check when no usable token exists.
	InitFinished struct{}
	// Restored adopts a stored token whose profile loaded at startup.
	// Generation is the session generation the check started under.
	Restored struct {
		Customer   *shopify.Customer
		Token      string
		Generation uint64
	}
	// SessionExpired discards the stored session found at startup. Message
	// may be empty.
	SessionExpired struct {
		Message    string
		Generation uint64
	}
	// LoggedIn adopts a freshly created token and its profile.
	LoggedIn struct {
		Customer *shopify.Customer
		Token    string
	}
	// LoggedOut resets the session.
	LoggedOut struct{}
	// CustomerUpdated replaces the profile and, when Token is set, the token.
	CustomerUpdated struct {
		Customer *shopify.Customer
		Token    string
	}
	// OrdersLoaded carries orders fetched with Token for request Seq.
	OrdersLoaded struct {
		Token  string
		Seq    uint64
		Orders []shopify.Order
	}
	// AddressesLoaded carries an address book fetched with Token for request Seq.
	AddressesLoaded struct {
		Token     string
		Seq       uint64
		Addresses []shopify.Address
		Default   *shopify.Address
	}
	// Failed reports an operation failure inline.
	Failed struct {
		Message string
	}
	// ErrorCleared dismisses the inline error.
	ErrorCleared struct{}
)

func (LoadingStarted) isEvent()  {}
func (LoadingFinished) isEvent() {}
func (InitFinished) isEvent()    {}
func (Restored) isEvent()        {}
func (SessionExpired) isEvent()  {}
func (LoggedIn) isEvent()        {}
func (LoggedOut) isEvent()       {}
func (CustomerUpdated) isEvent() {}
func (OrdersLoaded) isEvent()    {}
func (AddressesLoaded) isEvent() {}
func (Failed) isEvent()          {}
func (ErrorCleared) isEvent()    {}

// Reduce returns the state that follows s after e. It never mutates s.
func Reduce(s State, e Event) State {
	switch e := e.(type) {
	case LoadingStarted:
		s.Loading = true
		s.Error = ""
	case LoadingFinished:
		s.Loading = false
	case InitFinished:
		s.Loading = false
		s.Initializing = false
	case Restored:
		if e.Generation != s.generation {
			s.Initializing = false
			break
		}
		s.Customer = e.Customer
		s.Token = e.Token
		s.Loading = false
		s.Initializing = false
		s.Error = ""
	case SessionExpired:
		if e.Generation != s.generation {
			s.Initializing = false
			break
		}
		s = reset(s)
		s.Initializing = false
		s.Error = e.Message
	case LoggedIn:
		s.generation++
		s.Customer = e.Customer
		s.Token = e.Token
		s.Orders = nil
		s.Addresses = nil
		s.DefaultAddress = nil
		s.Loading = false
		s.Error = ""
	case LoggedOut:
		s = reset(s)
		s.generation++
	case CustomerUpdated:
		if e.Customer != nil {
			s.Customer = e.Customer
		}
		if e.Token != "" && s.Token != "" {
			s.Token = e.Token
		}
		s.Loading = false
	case OrdersLoaded:
		if s.Token == "" || e.Token != s.Token || e.Seq <= s.ordersSeq {
			break
		}
		s.ordersSeq = e.Seq
		s.Orders = e.Orders
	case AddressesLoaded:
		if s.Token == "" || e.Token != s.Token || e.Seq <= s.addressesSeq {
			break
		}
		s.addressesSeq = e.Seq
		s.Addresses = e.Addresses
		s.DefaultAddress = e.Default
	case Failed:
		s.Loading = false
		s.Error = e.Message
	case ErrorCleared:
		s.Error = ""
	}
	s.Authenticated = s.Token != ""
	return s
}

// reset clears the session but keeps the startup flag, the generation and
// the request sequence high-water marks.
func reset(s State) State {
	next := Initial()
	next.Initializing = s.Initializing
	next.generation = s.generation
	next.ordersSeq = s.ordersSeq
	next.addressesSeq = s.addressesSeq
	return next
}

func cloneState(s State) State {
	if s.Customer != nil {
		c := *s.Customer
		c.Addresses = slices.Clone(c.Addresses)
		if c.DefaultAddress != nil {
			d := *c.DefaultAddress
			c.DefaultAddress = &d
		}
		s.Customer = &c
	}
	if s.DefaultAddress != nil {
		d := *s.DefaultAddress
		s.DefaultAddress = &d
	}
	s.Orders = slices.Clone(s.Orders)
	s.Addresses = slices.Clone(s.Addresses)
	return s
}

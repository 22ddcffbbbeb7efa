package shopify

import (
	"encoding/json"
	"strings"
	"time"
)

// Image mirrors the Storefront Image object.
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// SelectedOption is one option value of a variant (e.g. Size: Large).
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProductOption lists the values an option can take.
type ProductOption struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Variant is a purchasable configuration of a product (merchandise).
type Variant struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	AvailableForSale bool             `json:"availableForSale"`
	SelectedOptions  []SelectedOption `json:"selectedOptions"`
	Price            Money            `json:"price"`
}

// PriceRange bounds the variant prices of a product.
type PriceRange struct {
	MaxVariantPrice Money `json:"maxVariantPrice"`
	MinVariantPrice Money `json:"minVariantPrice"`
}

// Product is the reshaped catalog product with flattened connections.
type Product struct {
	ID               string          `json:"id"`
	Handle           string          `json:"handle"`
	AvailableForSale bool            `json:"availableForSale"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Options          []ProductOption `json:"options"`
	PriceRange       PriceRange      `json:"priceRange"`
	Variants         []Variant       `json:"variants"`
	FeaturedImage    Image           `json:"featuredImage"`
	Images           []Image         `json:"images"`
	Tags             []string        `json:"tags"`
	UpdatedAt        string          `json:"updatedAt"`
}

// DefaultVariant returns the first variant, which quick-add uses.
func (p Product) DefaultVariant() (Variant, bool) {
	if len(p.Variants) == 0 {
		return Variant{}, false
	}
	return p.Variants[0], true
}

// OnSale reports whether the price range spans more than one price.
func (p Product) OnSale() bool {
	lo, errLo := p.PriceRange.MinVariantPrice.Minor()
	hi, errHi := p.PriceRange.MaxVariantPrice.Minor()
	return errLo == nil && errHi == nil && hi > lo
}

// Address is a customer mailing address.
type Address struct {
	ID            string `json:"id"`
	Address1      string `json:"address1"`
	Address2      string `json:"address2,omitempty"`
	City          string `json:"city"`
	Company       string `json:"company,omitempty"`
	Country       string `json:"country"`
	CountryCodeV2 string `json:"countryCodeV2"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Phone         string `json:"phone,omitempty"`
	Province      string `json:"province,omitempty"`
	ProvinceCode  string `json:"provinceCode,omitempty"`
	Zip           string `json:"zip"`
}

// Lines renders the address as display lines.
func (a Address) Lines() []string {
	var lines []string
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	for _, l := range []string{name, a.Company, a.Address1, a.Address2, strings.TrimSpace(a.Zip + " " + a.City), a.Province, a.Country} {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Customer is the reshaped customer profile.
type Customer struct {
	ID               string      `json:"id"`
	Email            string      `json:"email"`
	FirstName        string      `json:"firstName"`
	LastName         string      `json:"lastName"`
	DisplayName      string      `json:"displayName"`
	Phone            string      `json:"phone,omitempty"`
	AcceptsMarketing bool        `json:"acceptsMarketing"`
	CreatedAt        string      `json:"createdAt"`
	UpdatedAt        string      `json:"updatedAt"`
	NumberOfOrders   json.Number `json:"numberOfOrders"`
	DefaultAddress   *Address    `json:"defaultAddress,omitempty"`
	Addresses        []Address   `json:"addresses"`
}

// OrderVariant is the variant snapshot attached to an order line.
type OrderVariant struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Price   Money  `json:"price"`
	Image   *Image `json:"image,omitempty"`
	Product struct {
		ID     string `json:"id"`
		Handle string `json:"handle"`
		Title  string `json:"title"`
	} `json:"product"`
}

// OrderLineItem is one line of a placed order.
type OrderLineItem struct {
	Title                string        `json:"title"`
	Quantity             int           `json:"quantity"`
	Variant              *OrderVariant `json:"variant,omitempty"`
	OriginalTotalPrice   *Money        `json:"originalTotalPrice,omitempty"`
	DiscountedTotalPrice *Money        `json:"discountedTotalPrice,omitempty"`
}

// Order is a placed order with flattened line items.
type Order struct {
	ID                string          `json:"id"`
	OrderNumber       int             `json:"orderNumber"`
	Name              string          `json:"name"`
	ProcessedAt       string          `json:"processedAt"`
	FinancialStatus   string          `json:"financialStatus,omitempty"`
	FulfillmentStatus string          `json:"fulfillmentStatus,omitempty"`
	CurrentTotalPrice *Money          `json:"currentTotalPrice,omitempty"`
	StatusURL         string          `json:"statusUrl,omitempty"`
	ShippingAddress   *Address        `json:"shippingAddress,omitempty"`
	BillingAddress    *Address        `json:"billingAddress,omitempty"`
	LineItems         []OrderLineItem `json:"lineItems"`
}

// ProcessedTime parses ProcessedAt, returning the zero time when unparsable.
func (o Order) ProcessedTime() time.Time {
	t, err := time.Parse(time.RFC3339, o.ProcessedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// AccessToken is an opaque customer session token and its expiry.
type AccessToken struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   string `json:"expiresAt"`
}

// Expiry parses ExpiresAt. ok is false when the value is missing or invalid.
func (t AccessToken) Expiry() (time.Time, bool) {
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(t.ExpiresAt))
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// UserError is a field-level validation error returned by a mutation.
type UserError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

// CartProduct is the product summary embedded in a cart line.
type CartProduct struct {
	ID            string `json:"id"`
	Handle        string `json:"handle"`
	Title         string `json:"title"`
	FeaturedImage Image  `json:"featuredImage"`
}

// Merchandise is the variant a cart line refers to.
type Merchandise struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	SelectedOptions []SelectedOption `json:"selectedOptions"`
	Product         CartProduct      `json:"product"`
}

// LineCost carries the total of one cart line.
type LineCost struct {
	TotalAmount Money `json:"totalAmount"`
}

// CartLine is one line of a cart. ID is empty for optimistic lines the
// gateway has not confirmed yet.
type CartLine struct {
	ID          string      `json:"id,omitempty"`
	Quantity    int         `json:"quantity"`
	Cost        LineCost    `json:"cost"`
	Merchandise Merchandise `json:"merchandise"`
}

// CartCost aggregates cart amounts.
type CartCost struct {
	SubtotalAmount Money `json:"subtotalAmount"`
	TotalAmount    Money `json:"totalAmount"`
	TotalTaxAmount Money `json:"totalTaxAmount"`
}

// Cart is the reshaped cart snapshot.
type Cart struct {
	ID            string     `json:"id,omitempty"`
	CheckoutURL   string     `json:"checkoutUrl,omitempty"`
	Cost          CartCost   `json:"cost"`
	Lines         []CartLine `json:"lines"`
	TotalQuantity int        `json:"totalQuantity"`
}

// CustomerCreateInput is the payload of createAccount.
type CustomerCreateInput struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FirstName        string `json:"firstName,omitempty"`
	LastName         string `json:"lastName,omitempty"`
	Phone            string `json:"phone,omitempty"`
	AcceptsMarketing bool   `json:"acceptsMarketing"`
}

// CustomerUpdateInput carries the profile fields to change. Nil fields are
// left untouched.
type CustomerUpdateInput struct {
	Email            *string `json:"email,omitempty"`
	FirstName        *string `json:"firstName,omitempty"`
	LastName         *string `json:"lastName,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	AcceptsMarketing *bool   `json:"acceptsMarketing,omitempty"`
}

// AddressInput is a MailingAddressInput.
type AddressInput struct {
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	Company   string `json:"company,omitempty"`
	Country   string `json:"country"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
	Province  string `json:"province,omitempty"`
	Zip       string `json:"zip"`
}

// CartLineInput adds merchandise to a cart.
type CartLineInput struct {
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}

// CartLineUpdateInput changes the quantity of an existing line.
type CartLineUpdateInput struct {
	ID            string `json:"id"`
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}

// ProductQuery filters and sorts a catalog listing.
type ProductQuery struct {
	Query   string
	SortKey string
	Reverse bool
	First   int
}

// Result types of the account operations.

type CustomerResult struct {
	Customer   *Customer
	UserErrors []UserError
}

type AccessTokenResult struct {
	Token      *AccessToken
	UserErrors []UserError
}

type DeleteTokenResult struct {
	DeletedAccessToken string
	UserErrors         []UserError
}

type CustomerUpdateResult struct {
	Customer   *Customer
	Token      *AccessToken
	UserErrors []UserError
}

type AddressResult struct {
	Address    *Address
	UserErrors []UserError
}

type AddressBook struct {
	Addresses []Address
	Default   *Address
}

type connection[T any] struct {
	Edges []struct {
		Node T `json:"node"`
	} `json:"edges"`
}

func (c connection[T]) nodes() []T {
	if len(c.Edges) == 0 {
		return nil
	}
	out := make([]T, 0, len(c.Edges))
	for _, e := range c.Edges {
		out = append(out, e.Node)
	}
	return out
}

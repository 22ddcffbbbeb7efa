package shopify

import (
	"context"
	"strings"
)

type cartWire struct {
	Cart
	Lines connection[CartLine] `json:"lines"`
}

func (w *cartWire) reshape() *Cart {
	if w == nil {
		return nil
	}
	c := w.Cart
	c.Lines = w.Lines.nodes()
	if c.Cost.TotalTaxAmount.Amount == "" {
		c.Cost.TotalTaxAmount = Money{Amount: "0.0", CurrencyCode: c.Cost.TotalAmount.CurrencyCode}
	}
	return &c
}

type cartPayload struct {
	Cart       *cartWire   `json:"cart"`
	UserErrors []UserError `json:"userErrors"`
}

func (p cartPayload) result() (*Cart, error) {
	if len(p.UserErrors) > 0 {
		return p.Cart.reshape(), CartErrors(p.UserErrors)
	}
	return p.Cart.reshape(), nil
}

// FetchCart returns the cart with the given id, or nil when it no longer
// exists (expired or completed). An empty id is not an error.
func (c *Client) FetchCart(ctx context.Context, cartID string) (*Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, nil
	}
	var payload *cartWire
	if err := c.execute(ctx, "getCart", map[string]any{"cartId": cartID}, &payload); err != nil {
		return nil, err
	}
	return payload.reshape(), nil
}

// CreateCart creates a cart, optionally seeded with lines.
func (c *Client) CreateCart(ctx context.Context, lines []CartLineInput) (*Cart, error) {
	var payload cartPayload
	vars := map[string]any{}
	if len(lines) > 0 {
		vars["lineItems"] = lines
	}
	if err := c.execute(ctx, "createCart", vars, &payload); err != nil {
		return nil, err
	}
	return payload.result()
}

// AddCartLines adds merchandise to an existing cart.
func (c *Client) AddCartLines(ctx context.Context, cartID string, lines []CartLineInput) (*Cart, error) {
	var payload cartPayload
	if err := c.execute(ctx, "addToCart", map[string]any{"cartId": cartID, "lines": lines}, &payload); err != nil {
		return nil, err
	}
	return payload.result()
}

// UpdateCartLines changes line quantities.
func (c *Client) UpdateCartLines(ctx context.Context, cartID string, lines []CartLineUpdateInput) (*Cart, error) {
	var payload cartPayload
	if err := c.execute(ctx, "editCartItems", map[string]any{"cartId": cartID, "lines": lines}, &payload); err != nil {
		return nil, err
	}
	return payload.result()
}

// RemoveCartLines deletes lines by id.
func (c *Client) RemoveCartLines(ctx context.Context, cartID string, lineIDs []string) (*Cart, error) {
	var payload cartPayload
	if err := c.execute(ctx, "removeFromCart", map[string]any{"cartId": cartID, "lineIds": lineIDs}, &payload); err != nil {
		return nil, err
	}
	return payload.result()
}

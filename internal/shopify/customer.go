package shopify

import (
	"context"
	"fmt"
	"strings"
)

type customerWire struct {
	Customer
	Addresses connection[Address] `json:"addresses"`
}

func (w *customerWire) reshape() *Customer {
	if w == nil {
		return nil
	}
	c := w.Customer
	c.Addresses = w.Addresses.nodes()
	return &c
}

type orderWire struct {
	Order
	LineItems connection[OrderLineItem] `json:"lineItems"`
}

// CreateCustomer registers a new customer account.
func (c *Client) CreateCustomer(ctx context.Context, input CustomerCreateInput) (CustomerResult, error) {
	var payload struct {
		Customer   *customerWire `json:"customer"`
		UserErrors []UserError   `json:"customerUserErrors"`
	}
	if err := c.execute(ctx, "customerCreate", map[string]any{"input": input}, &payload); err != nil {
		return CustomerResult{}, err
	}
	return CustomerResult{Customer: payload.Customer.reshape(), UserErrors: payload.UserErrors}, nil
}

// CreateAccessToken exchanges credentials for a customer access token.
func (c *Client) CreateAccessToken(ctx context.Context, email, password string) (AccessTokenResult, error) {
	var payload struct {
		Token      *AccessToken `json:"customerAccessToken"`
		UserErrors []UserError  `json:"customerUserErrors"`
	}
	vars := map[string]any{"input": map[string]string{"email": strings.TrimSpace(email), "password": password}}
	if err := c.execute(ctx, "customerAccessTokenCreate", vars, &payload); err != nil {
		return AccessTokenResult{}, err
	}
	return AccessTokenResult{Token: payload.Token, UserErrors: payload.UserErrors}, nil
}

// DeleteAccessToken invalidates a customer access token.
func (c *Client) DeleteAccessToken(ctx context.Context, token string) (DeleteTokenResult, error) {
	var payload struct {
		DeletedAccessToken string      `json:"deletedAccessToken"`
		UserErrors         []UserError `json:"userErrors"`
	}
	if err := c.execute(ctx, "customerAccessTokenDelete", map[string]any{"customerAccessToken": token}, &payload); err != nil {
		return DeleteTokenResult{}, err
	}
	return DeleteTokenResult{DeletedAccessToken: payload.DeletedAccessToken, UserErrors: payload.UserErrors}, nil
}

// FetchCustomer returns the profile behind token, or nil when the API does
// not recognise the token.
func (c *Client) FetchCustomer(ctx context.Context, token string) (*Customer, error) {
	var payload *customerWire
	if err := c.execute(ctx, "getCustomer", map[string]any{"customerAccessToken": token}, &payload); err != nil {
		return nil, err
	}
	return payload.reshape(), nil
}

// UpdateCustomer changes profile fields. The API may issue a refreshed token
// when the email or password changes.
func (c *Client) UpdateCustomer(ctx context.Context, token string, input CustomerUpdateInput) (CustomerUpdateResult, error) {
	var payload struct {
		Customer   *customerWire `json:"customer"`
		Token      *AccessToken  `json:"customerAccessToken"`
		UserErrors []UserError   `json:"customerUserErrors"`
	}
	vars := map[string]any{"customerAccessToken": token, "customer": input}
	if err := c.execute(ctx, "customerUpdate", vars, &payload); err != nil {
		return CustomerUpdateResult{}, err
	}
	return CustomerUpdateResult{
		Customer:   payload.Customer.reshape(),
		Token:      payload.Token,
		UserErrors: payload.UserErrors,
	}, nil
}

// FetchOrders returns up to first orders, most recent first.
func (c *Client) FetchOrders(ctx context.Context, token string, first int) ([]Order, error) {
	if first <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", first)
	}
	var payload *struct {
		Orders connection[orderWire] `json:"orders"`
	}
	vars := map[string]any{"customerAccessToken": token, "first": first}
	if err := c.execute(ctx, "getCustomerOrders", vars, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	wires := payload.Orders.nodes()
	orders := make([]Order, 0, len(wires))
	for _, w := range wires {
		o := w.Order
		o.LineItems = w.LineItems.nodes()
		orders = append(orders, o)
	}
	return orders, nil
}

// FetchAddresses returns the address book and its default entry.
func (c *Client) FetchAddresses(ctx context.Context, token string) (AddressBook, error) {
	var payload *struct {
		Addresses      connection[Address] `json:"addresses"`
		DefaultAddress *Address            `json:"defaultAddress"`
	}
	if err := c.execute(ctx, "getCustomerAddresses", map[string]any{"customerAccessToken": token}, &payload); err != nil {
		return AddressBook{}, err
	}
	if payload == nil {
		return AddressBook{}, nil
	}
	return AddressBook{Addresses: payload.Addresses.nodes(), Default: payload.DefaultAddress}, nil
}

type addressPayload struct {
	Address    *Address    `json:"customerAddress"`
	UserErrors []UserError `json:"customerUserErrors"`
}

// CreateAddress adds an address to the customer's address book.
func (c *Client) CreateAddress(ctx context.Context, token string, input AddressInput) (AddressResult, error) {
	var payload addressPayload
	vars := map[string]any{"customerAccessToken": token, "address": input}
	if err := c.execute(ctx, "customerAddressCreate", vars, &payload); err != nil {
		return AddressResult{}, err
	}
	return AddressResult(payload), nil
}

// UpdateAddress replaces the fields of an existing address.
func (c *Client) UpdateAddress(ctx context.Context, token, id string, input AddressInput) (AddressResult, error) {
	var payload addressPayload
	vars := map[string]any{"customerAccessToken": token, "id": id, "address": input}
	if err := c.execute(ctx, "customerAddressUpdate", vars, &payload); err != nil {
		return AddressResult{}, err
	}
	return AddressResult(payload), nil
}

// DeleteAddress removes an address. Only user errors are returned on success.
func (c *Client) DeleteAddress(ctx context.Context, token, id string) ([]UserError, error) {
	var payload struct {
		UserErrors []UserError `json:"customerUserErrors"`
	}
	vars := map[string]any{"customerAccessToken": token, "id": id}
	if err := c.execute(ctx, "customerAddressDelete", vars, &payload); err != nil {
		return nil, err
	}
	return payload.UserErrors, nil
}

// SetDefaultAddress marks an address as the default one.
func (c *Client) SetDefaultAddress(ctx context.Context, token, id string) ([]UserError, error) {
	var payload struct {
		UserErrors []UserError `json:"customerUserErrors"`
	}
	vars := map[string]any{"customerAccessToken": token, "addressId": id}
	if err := c.execute(ctx, "customerDefaultAddressUpdate", vars, &payload); err != nil {
		return nil, err
	}
	return payload.UserErrors, nil
}

// RecoverPassword asks the API to email a password reset link.
func (c *Client) RecoverPassword(ctx context.Context, email string) ([]UserError, error) {
	var payload struct {
		UserErrors []UserError `json:"customerUserErrors"`
	}
	if err := c.execute(ctx, "customerRecover", map[string]any{"email": strings.TrimSpace(email)}, &payload); err != nil {
		return nil, err
	}
	return payload.UserErrors, nil
}

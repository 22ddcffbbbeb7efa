package cart

import (
	"slices"

	"github.com/fleura/storefront/internal/shopify"
)

// Action changes the quantity of a line.
type Action string

const (
	ActionPlus   Action = "plus"
	ActionMinus  Action = "minus"
	ActionDelete Action = "delete"
)

// AddItem returns c with one unit of variant added: an existing line for the
// variant is incremented, otherwise a line is appended. Totals are
// recomputed from the lines. c is not modified.
func AddItem(c shopify.Cart, variant shopify.Variant, product shopify.Product) shopify.Cart {
	out := cloneCart(c)
	unit := variant.Price.MustMinor()
	currency := variant.Price.CurrencyCode

	if i := lineIndex(out.Lines, variant.ID); i >= 0 {
		line := &out.Lines[i]
		line.Quantity++
		line.Cost.TotalAmount = shopify.MoneyFromMinor(unit*int64(line.Quantity), currency)
	} else {
		out.Lines = append(out.Lines, shopify.CartLine{
			Quantity: 1,
			Cost:     shopify.LineCost{TotalAmount: shopify.MoneyFromMinor(unit, currency)},
			Merchandise: shopify.Merchandise{
				ID:              variant.ID,
				Title:           variant.Title,
				SelectedOptions: slices.Clone(variant.SelectedOptions),
				Product: shopify.CartProduct{
					ID:            product.ID,
					Handle:        product.Handle,
					Title:         product.Title,
					FeaturedImage: product.FeaturedImage,
				},
			},
		})
	}
	return recompute(out, currency)
}

// UpdateItem applies action to the line holding merchandiseID. Minus on a
// single unit removes the line. Unknown ids leave the cart unchanged.
func UpdateItem(c shopify.Cart, merchandiseID string, action Action) shopify.Cart {
	out := cloneCart(c)
	i := lineIndex(out.Lines, merchandiseID)
	if i < 0 {
		return out
	}
	line := &out.Lines[i]
	currency := line.Cost.TotalAmount.CurrencyCode

	switch action {
	case ActionDelete:
		out.Lines = slices.Delete(out.Lines, i, i+1)
	case ActionMinus:
		if line.Quantity <= 1 {
			out.Lines = slices.Delete(out.Lines, i, i+1)
			break
		}
		unit := unitPrice(*line)
		line.Quantity--
		line.Cost.TotalAmount = shopify.MoneyFromMinor(unit*int64(line.Quantity), currency)
	case ActionPlus:
		unit := unitPrice(*line)
		line.Quantity++
		line.Cost.TotalAmount = shopify.MoneyFromMinor(unit*int64(line.Quantity), currency)
	default:
		return out
	}
	return recompute(out, currency)
}

// TotalQuantity sums line quantities.
func TotalQuantity(lines []shopify.CartLine) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

func unitPrice(line shopify.CartLine) int64 {
	if line.Quantity <= 0 {
		return 0
	}
	return line.Cost.TotalAmount.MustMinor() / int64(line.Quantity)
}

func lineIndex(lines []shopify.CartLine, merchandiseID string) int {
	return slices.IndexFunc(lines, func(l shopify.CartLine) bool {
		return l.Merchandise.ID == merchandiseID
	})
}

func recompute(c shopify.Cart, fallbackCurrency string) shopify.Cart {
	currency := c.Cost.TotalAmount.CurrencyCode
	if currency == "" {
		currency = fallbackCurrency
	}
	var subtotal int64
	for _, l := range c.Lines {
		subtotal += l.Cost.TotalAmount.MustMinor()
	}
	c.TotalQuantity = TotalQuantity(c.Lines)
	c.Cost.SubtotalAmount = shopify.MoneyFromMinor(subtotal, currency)
	c.Cost.TotalAmount = shopify.MoneyFromMinor(subtotal+c.Cost.TotalTaxAmount.MustMinor(), currency)
	if c.Cost.TotalTaxAmount.CurrencyCode == "" {
		c.Cost.TotalTaxAmount = shopify.MoneyFromMinor(c.Cost.TotalTaxAmount.MustMinor(), currency)
	}
	return c
}

func cloneCart(c shopify.Cart) shopify.Cart {
	c.Lines = slices.Clone(c.Lines)
	return c
}

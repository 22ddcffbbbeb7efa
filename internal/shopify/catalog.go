package shopify

import (
	"context"
	"path"
	"slices"
	"strings"
)

// HiddenTag marks products that must not be listed.
const HiddenTag = "hidden"

const defaultProductPage = 100

type productWire struct {
	Product
	Variants connection[Variant] `json:"variants"`
	Images   connection[Image]   `json:"images"`
}

// reshape flattens connections and fills missing image alt text. Hidden
// products reshape to nil.
func (w *productWire) reshape() *Product {
	if w == nil || slices.Contains(w.Tags, HiddenTag) {
		return nil
	}
	p := w.Product
	p.Variants = w.Variants.nodes()
	p.Images = reshapeImages(w.Images.nodes(), p.Title)
	return &p
}

func reshapeImages(images []Image, productTitle string) []Image {
	for i := range images {
		if images[i].AltText != "" {
			continue
		}
		images[i].AltText = productTitle + " - " + imageStem(images[i].URL)
	}
	return images
}

func imageStem(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	base := path.Base(url)
	return strings.TrimSuffix(base, path.Ext(base))
}

// FetchProducts lists catalog products, dropping hidden ones.
func (c *Client) FetchProducts(ctx context.Context, q ProductQuery) ([]Product, error) {
	first := q.First
	if first <= 0 {
		first = defaultProductPage
	}
	vars := map[string]any{"first": first, "reverse": q.Reverse}
	if query := strings.TrimSpace(q.Query); query != "" {
		vars["query"] = query
	}
	if key := strings.TrimSpace(q.SortKey); key != "" {
		vars["sortKey"] = key
	}
	var payload connection[productWire]
	if err := c.execute(ctx, "getProducts", vars, &payload); err != nil {
		return nil, err
	}
	wires := payload.nodes()
	products := make([]Product, 0, len(wires))
	for i := range wires {
		if p := wires[i].reshape(); p != nil {
			products = append(products, *p)
		}
	}
	return products, nil
}

// FetchProduct returns one product by handle, or nil when it is unknown or hidden.
func (c *Client) FetchProduct(ctx context.Context, handle string) (*Product, error) {
	var payload *productWire
	if err := c.execute(ctx, "getProduct", map[string]any{"handle": handle}, &payload); err != nil {
		return nil, err
	}
	return payload.reshape(), nil
}

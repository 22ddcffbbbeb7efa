// Package shopify is the client for the Shopify Storefront GraphQL API that
// Fleura's state containers call for accounts, carts and the catalog.
//
// # Architecture
//
//   - client.go: transport, rate limiting, envelope handling
//   - documents.go: the GraphQL operation documents
//   - customer.go, cart.go, catalog.go: typed operations
//   - types.go, money.go: reshaped domain types
//
// Every document is parsed once by NewClient. The operation name and the
// response key of the first root field are taken from the parsed document,
// so callers only name the operation and receive the root payload.
//
// # Usage
//
//	client, err := shopify.NewClient(shopify.ClientConfig{
//		Endpoint:        cfg.Endpoint(),
//		StorefrontToken: cfg.StorefrontToken,
//	})
//	if err != nil {
//		return err
//	}
//	token, err := client.CreateAccessToken(ctx, email, password)
//
// # Errors
//
// Transport failures, HTTP status >= 400 and undecodable bodies are plain
// wrapped errors. A non-empty top-level "errors" array becomes a
// *GraphQLError. Validation failures of account mutations are returned as
// []UserError data next to a nil error; cart mutations report theirs as
// CartErrors.
//
// # Reshaping
//
// Connections (edges/node) are flattened into slices. Products tagged
// "hidden" are dropped from listings, and images without alt text get
// "<product title> - <file name>".
//
// # Thread Safety
//
// Client is safe for concurrent use. Calls share one rate limiter.
package shopify

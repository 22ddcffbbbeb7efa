package shopify

const addressFields = `
    id
    address1
    address2
    city
    company
    country
    countryCodeV2
    firstName
    lastName
    phone
    province
    provinceCode
    zip
`

const customerFragment = `
fragment customer on Customer {
  id
  email
  firstName
  lastName
  displayName
  phone
  acceptsMarketing
  createdAt
  updatedAt
  numberOfOrders
  defaultAddress {` + addressFields + `}
  addresses(first: 10) {
    edges {
      node {` + addressFields + `}
    }
  }
}
`

const accessTokenFragment = `
fragment customerAccessToken on CustomerAccessToken {
  accessToken
  expiresAt
}
`

const userErrorFragment = `
fragment customerUserError on CustomerUserError {
  field
  message
  code
}
`

const imageFragment = `
fragment image on Image {
  url
  altText
  width
  height
}
`

const productFragment = `
fragment product on Product {
  id
  handle
  availableForSale
  title
  description
  options {
    id
    name
    values
  }
  priceRange {
    maxVariantPrice { amount currencyCode }
    minVariantPrice { amount currencyCode }
  }
  variants(first: 250) {
    edges {
      node {
        id
        title
        availableForSale
        selectedOptions { name value }
        price { amount currencyCode }
      }
    }
  }
  featuredImage { ...image }
  images(first: 20) {
    edges {
      node { ...image }
    }
  }
  tags
  updatedAt
}
` + imageFragment

const cartFragment = `
fragment cart on Cart {
  id
  checkoutUrl
  cost {
    subtotalAmount { amount currencyCode }
    totalAmount { amount currencyCode }
    totalTaxAmount { amount currencyCode }
  }
  lines(first: 100) {
    edges {
      node {
        id
        quantity
        cost {
          totalAmount { amount currencyCode }
        }
        merchandise {
          ... on ProductVariant {
            id
            title
            selectedOptions { name value }
            product {
              id
              handle
              title
              featuredImage { ...image }
            }
          }
        }
      }
    }
  }
  totalQuantity
}
` + imageFragment

const cartUserErrors = `
    userErrors {
      field
      message
      code
    }
`

const orderLineFields = `
  title
  quantity
  variant {
    id
    title
    price { amount currencyCode }
    image { url altText width height }
    product { id handle title }
  }
  originalTotalPrice { amount currencyCode }
  discountedTotalPrice { amount currencyCode }
`

// Account operations.

const customerCreateMutation = `
mutation customerCreate($input: CustomerCreateInput!) {
  customerCreate(input: $input) {
    customer { ...customer }
    customerUserErrors { ...customerUserError }
  }
}
` + customerFragment + userErrorFragment

const accessTokenCreateMutation = `
mutation customerAccessTokenCreate($input: CustomerAccessTokenCreateInput!) {
  customerAccessTokenCreate(input: $input) {
    customerAccessToken { ...customerAccessToken }
    customerUserErrors { ...customerUserError }
  }
}
` + accessTokenFragment + userErrorFragment

const accessTokenDeleteMutation = `
mutation customerAccessTokenDelete($customerAccessToken: String!) {
  customerAccessTokenDelete(customerAccessToken: $customerAccessToken) {
    deletedAccessToken
    deletedCustomerAccessTokenId
    userErrors { field message }
  }
}
`

const customerQuery = `
query getCustomer($customerAccessToken: String!) {
  customer(customerAccessToken: $customerAccessToken) { ...customer }
}
` + customerFragment

const customerUpdateMutation = `
mutation customerUpdate($customerAccessToken: String!, $customer: CustomerUpdateInput!) {
  customerUpdate(customerAccessToken: $customerAccessToken, customer: $customer) {
    customer { ...customer }
    customerAccessToken { ...customerAccessToken }
    customerUserErrors { ...customerUserError }
  }
}
` + customerFragment + accessTokenFragment + userErrorFragment

const customerOrdersQuery = `
query getCustomerOrders($customerAccessToken: String!, $first: Int!) {
  customer(customerAccessToken: $customerAccessToken) {
    id
    orders(first: $first, sortKey: PROCESSED_AT, reverse: true) {
      edges {
        node {
          id
          orderNumber
          name
          processedAt
          financialStatus
          fulfillmentStatus
          statusUrl
          currentTotalPrice { amount currencyCode }
          lineItems(first: 10) {
            edges {
              node {` + orderLineFields + `}
            }
          }
          shippingAddress {` + addressFields + `}
          billingAddress {` + addressFields + `}
        }
      }
    }
  }
}
`

const customerAddressesQuery = `
query getCustomerAddresses($customerAccessToken: String!) {
  customer(customerAccessToken: $customerAccessToken) {
    id
    addresses(first: 10) {
      edges {
        node {` + addressFields + `}
      }
    }
    defaultAddress {` + addressFields + `}
  }
}
`

const addressCreateMutation = `
mutation customerAddressCreate($customerAccessToken: String!, $address: MailingAddressInput!) {
  customerAddressCreate(customerAccessToken: $customerAccessToken, address: $address) {
    customerAddress {` + addressFields + `}
    customerUserErrors { ...customerUserError }
  }
}
` + userErrorFragment

const addressUpdateMutation = `
mutation customerAddressUpdate($customerAccessToken: String!, $id: ID!, $address: MailingAddressInput!) {
  customerAddressUpdate(customerAccessToken: $customerAccessToken, id: $id, address: $address) {
    customerAddress {` + addressFields + `}
    customerUserErrors { ...customerUserError }
  }
}
` + userErrorFragment

const addressDeleteMutation = `
mutation customerAddressDelete($customerAccessToken: String!, $id: ID!) {
  customerAddressDelete(customerAccessToken: $customerAccessToken, id: $id) {
    deletedCustomerAddressId
    customerUserErrors { ...customerUserError }
  }
}
` + userErrorFragment

const defaultAddressUpdateMutation = `
mutation customerDefaultAddressUpdate($customerAccessToken: String!, $addressId: ID!) {
  customerDefaultAddressUpdate(customerAccessToken: $customerAccessToken, addressId: $addressId) {
    customer {
      id
      defaultAddress { id }
    }
    customerUserErrors { ...customerUserError }
  }
}
` + userErrorFragment

const customerRecoverMutation = `
mutation customerRecover($email: String!) {
  customerRecover(email: $email) {
    customerUserErrors { ...customerUserError }
  }
}
` + userErrorFragment

// Cart operations.

const cartQuery = `
query getCart($cartId: ID!) {
  cart(id: $cartId) { ...cart }
}
` + cartFragment

const cartCreateMutation = `
mutation createCart($lineItems: [CartLineInput!]) {
  cartCreate(input: { lines: $lineItems }) {
    cart { ...cart }` + cartUserErrors + `  }
}
` + cartFragment

const cartLinesAddMutation = `
mutation addToCart($cartId: ID!, $lines: [CartLineInput!]!) {
  cartLinesAdd(cartId: $cartId, lines: $lines) {
    cart { ...cart }` + cartUserErrors + `  }
}
` + cartFragment

const cartLinesUpdateMutation = `
mutation editCartItems($cartId: ID!, $lines: [CartLineUpdateInput!]!) {
  cartLinesUpdate(cartId: $cartId, lines: $lines) {
    cart { ...cart }` + cartUserErrors + `  }
}
` + cartFragment

const cartLinesRemoveMutation = `
mutation removeFromCart($cartId: ID!, $lineIds: [ID!]!) {
  cartLinesRemove(cartId: $cartId, lineIds: $lineIds) {
    cart { ...cart }` + cartUserErrors + `  }
}
` + cartFragment

// Catalog operations.

const productsQuery = `
query getProducts($sortKey: ProductSortKeys, $reverse: Boolean, $query: String, $first: Int!) {
  products(sortKey: $sortKey, reverse: $reverse, query: $query, first: $first) {
    edges {
      node { ...product }
    }
  }
}
` + productFragment

const productQuery = `
query getProduct($handle: String!) {
  product(handle: $handle) { ...product }
}
` + productFragment

var documents = []string{
	customerCreateMutation,
	accessTokenCreateMutation,
	accessTokenDeleteMutation,
	customerQuery,
	customerUpdateMutation,
	customerOrdersQuery,
	customerAddressesQuery,
	addressCreateMutation,
	addressUpdateMutation,
	addressDeleteMutation,
	defaultAddressUpdateMutation,
	customerRecoverMutation,
	cartQuery,
	cartCreateMutation,
	cartLinesAddMutation,
	cartLinesUpdateMutation,
	cartLinesRemoveMutation,
	productsQuery,
	productQuery,
}

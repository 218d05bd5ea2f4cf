// Package moltin is a minimal client for the Elastic Path (Moltin) v2
// commerce API: implicit-grant token exchange, products, per-user carts
// and customer creation. Products and carts are never cached locally;
// every call is a live round trip so the bot always renders fresh data.
package moltin

import "fmt"

// Money is a price in minor units with its currency code.
type Money struct {
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
}

// Format renders the amount as a decimal with currency, e.g. "12.50 USD".
func (m Money) Format() string {
	return fmt.Sprintf("%d.%02d %s", m.Amount/100, m.Amount%100, m.Currency)
}

// Product is a read-only catalog entry owned by the remote service.
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         []Money `json:"price"`
	Relationships struct {
		MainImage struct {
			Data *struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"main_image"`
	} `json:"relationships"`
}

// UnitPrice returns the first declared price, or a zero Money.
func (p Product) UnitPrice() Money {
	if len(p.Price) == 0 {
		return Money{}
	}
	return p.Price[0]
}

// MainImageID returns the associated file id, empty when the product has
// no image relationship.
func (p Product) MainImageID() string {
	if p.Relationships.MainImage.Data == nil {
		return ""
	}
	return p.Relationships.MainImage.Data.ID
}

// Cart is the per-user cart representation. The cart reference equals the
// user identifier; there is no separate cart-id concept.
type Cart struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CartItem is one line of a cart.
type CartItem struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unit_price"`
	Value     Money  `json:"value"`
}

// Customer is a checkout contact created from a submitted email.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type fileRecord struct {
	Link struct {
		Href string `json:"href"`
	} `json:"link"`
}

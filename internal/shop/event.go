// Package shop drives the shopping conversation: it resolves the user's
// persisted dialogue state, dispatches the inbound event to the matching
// state handler and persists the state the handler returns. The chat
// transport and the commerce backend stay behind narrow interfaces.
package shop

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/b10t/fish-shop/internal/moltin"
)

// Forcing payloads override state-based dispatch: reset to the menu, show
// the cart, prompt for an email. Their literal values double as callback
// button data.
const (
	PayloadStart    = "/start"
	PayloadBack     = "BACK"
	PayloadShowCart = "SHOW_CART"
	PayloadCheckout = "WAITING_EMAIL"
)

// Event is one inbound chat update, already stripped of transport detail.
type Event struct {
	UserID    string
	ChatID    int64
	MessageID int
	// Payload is the button data for callbacks or the raw text for messages.
	Payload string
	// IsText marks free-text messages as opposed to button presses.
	IsText bool
}

// Button is one inline keyboard entry.
type Button struct {
	Label string
	Data  string
}

// Reply is what a handler wants rendered. Photo is optional; when set the
// text becomes the caption.
type Reply struct {
	Text    string
	Photo   string
	Buttons [][]Button
}

// Sender delivers replies back to the chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, reply Reply) error
}

// Commerce is the slice of the commerce client the handlers need.
type Commerce interface {
	GetOrCreateCart(ctx context.Context, userID string) (moltin.Cart, error)
	ListProducts(ctx context.Context) ([]moltin.Product, error)
	GetProduct(ctx context.Context, id string) (moltin.Product, error)
	ImageURL(ctx context.Context, p moltin.Product) string
	AddCartItem(ctx context.Context, userID, productID string, quantity int) ([]moltin.CartItem, error)
	RemoveCartItem(ctx context.Context, userID, itemID string) ([]moltin.CartItem, error)
	ListCartItems(ctx context.Context, userID string) ([]moltin.CartItem, error)
	CreateCustomer(ctx context.Context, name, email string) (moltin.Customer, error)
}

// CheckoutRecorder stores a local record of a completed email submission.
// Implementations must be best-effort; the router logs failures and moves on.
type CheckoutRecorder interface {
	Record(ctx context.Context, userID, email, customerID string) error
}

// parseQuantityPayload splits "product_id#quantity" button data.
func parseQuantityPayload(payload string) (string, int, error) {
	idx := strings.LastIndex(payload, "#")
	if idx <= 0 || idx == len(payload)-1 {
		return "", 0, fmt.Errorf("shop: malformed quantity payload %q", payload)
	}
	qty, err := strconv.Atoi(payload[idx+1:])
	if err != nil || qty <= 0 {
		return "", 0, fmt.Errorf("shop: malformed quantity in payload %q", payload)
	}
	return payload[:idx], qty, nil
}

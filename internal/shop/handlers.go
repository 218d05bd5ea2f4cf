package shop

import (
	"context"
	"log/slog"
	"strings"

	"github.com/b10t/fish-shop/core/logger"
	"github.com/b10t/fish-shop/internal/session"
)

var quantityChoices = []int{1, 5, 10}

// showMenu ensures the user's cart exists, lists the catalog and renders
// the selectable product menu. Entry point for fresh users, /start and BACK.
func (r *Router) showMenu(ctx context.Context, ev Event) (session.State, error) {
	if _, err := r.commerce.GetOrCreateCart(ctx, ev.UserID); err != nil {
		return "", err
	}

	products, err := r.commerce.ListProducts(ctx)
	if err != nil {
		return "", err
	}

	buttons := make([][]Button, 0, len(products)+1)
	for _, p := range products {
		buttons = append(buttons, []Button{{Label: p.Name, Data: p.ID}})
	}
	buttons = append(buttons, []Button{{Label: cartButtonLabel, Data: PayloadShowCart}})

	reply := Reply{Text: menuText, Buttons: buttons}
	if err := r.sender.Send(ctx, ev.ChatID, reply); err != nil {
		return "", err
	}
	return session.StateMenu, nil
}

// handleProductSelect runs in MENU: the payload is a product id. Renders
// the product detail with quantity choices.
func (r *Router) handleProductSelect(ctx context.Context, ev Event) (session.State, error) {
	product, err := r.commerce.GetProduct(ctx, ev.Payload)
	if err != nil {
		return "", err
	}

	qtyRow := make([]Button, 0, len(quantityChoices))
	for _, q := range quantityChoices {
		qtyRow = append(qtyRow, Button{
			Label: formatQuantity(q),
			Data:  quantityPayload(product.ID, q),
		})
	}

	reply := Reply{
		Text:  formatProduct(product),
		Photo: r.commerce.ImageURL(ctx, product),
		Buttons: [][]Button{
			qtyRow,
			{{Label: cartButtonLabel, Data: PayloadShowCart}},
			{{Label: backButtonLabel, Data: PayloadBack}},
		},
	}
	if err := r.sender.Send(ctx, ev.ChatID, reply); err != nil {
		return "", err
	}
	return session.StateDescription, nil
}

// handleQuantity runs in DESCRIPTION: the payload is "product_id#quantity".
// Adds the item and stays on the product screen.
func (r *Router) handleQuantity(ctx context.Context, ev Event) (session.State, error) {
	productID, qty, err := parseQuantityPayload(ev.Payload)
	if err != nil {
		return "", err
	}

	if _, err := r.commerce.AddCartItem(ctx, ev.UserID, productID, qty); err != nil {
		return "", err
	}

	reply := Reply{Text: formatAdded(qty)}
	if err := r.sender.Send(ctx, ev.ChatID, reply); err != nil {
		return "", err
	}
	return session.StateDescription, nil
}

// showCart fetches cart contents and renders removable line items with the
// running total. Always re-enterable via the SHOW_CART payload.
func (r *Router) showCart(ctx context.Context, ev Event) (session.State, error) {
	items, err := r.commerce.ListCartItems(ctx, ev.UserID)
	if err != nil {
		return "", err
	}

	buttons := make([][]Button, 0, len(items)+2)
	for _, item := range items {
		buttons = append(buttons, []Button{{Label: removeButtonLabel(item), Data: item.ID}})
	}
	if len(items) > 0 {
		buttons = append(buttons, []Button{{Label: checkoutButtonLabel, Data: PayloadCheckout}})
	}
	buttons = append(buttons, []Button{{Label: backButtonLabel, Data: PayloadBack}})

	reply := Reply{Text: formatCart(items), Buttons: buttons}
	if err := r.sender.Send(ctx, ev.ChatID, reply); err != nil {
		return "", err
	}
	return session.StateCart, nil
}

// handleItemRemoval runs in CART: the payload is a cart item id. Removes
// the line and re-renders the cart.
func (r *Router) handleItemRemoval(ctx context.Context, ev Event) (session.State, error) {
	if _, err := r.commerce.RemoveCartItem(ctx, ev.UserID, ev.Payload); err != nil {
		return "", err
	}
	return r.showCart(ctx, ev)
}

// promptEmail asks the user to type their email address.
func (r *Router) promptEmail(ctx context.Context, ev Event) (session.State, error) {
	if err := r.sender.Send(ctx, ev.ChatID, Reply{Text: emailPromptText}); err != nil {
		return "", err
	}
	return session.StateWaitingEmail, nil
}

// handleEmail runs in WAITING_EMAIL. Free text is taken as the email and a
// customer record is created; anything else re-prompts.
func (r *Router) handleEmail(ctx context.Context, ev Event) (session.State, error) {
	if !ev.IsText {
		return r.promptEmail(ctx, ev)
	}

	email := strings.TrimSpace(ev.Payload)
	customer, err := r.commerce.CreateCustomer(ctx, ev.UserID, email)
	if err != nil {
		return "", err
	}

	if r.checkouts != nil {
		if err := r.checkouts.Record(ctx, ev.UserID, email, customer.ID); err != nil {
			logger.Warn(ctx, "shop", "checkout.record_failed",
				slog.String("user_id", ev.UserID),
				slog.String("err", err.Error()),
			)
		}
	}

	if err := r.sender.Send(ctx, ev.ChatID, Reply{Text: formatEmailSaved(email)}); err != nil {
		return "", err
	}
	return r.showCart(ctx, ev)
}

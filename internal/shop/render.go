package shop

import (
	"fmt"
	"strings"

	"github.com/b10t/fish-shop/internal/moltin"
)

const (
	menuText        = "Please choose a product:"
	emailPromptText = "Please send us your email address and we will contact you."
	emptyCartText   = "Your cart is empty."

	cartButtonLabel     = "🛒 Cart"
	backButtonLabel     = "⬅ Back"
	checkoutButtonLabel = "✅ Checkout"
)

func formatQuantity(q int) string {
	return fmt.Sprintf("%d kg", q)
}

func quantityPayload(productID string, q int) string {
	return fmt.Sprintf("%s#%d", productID, q)
}

func formatProduct(p moltin.Product) string {
	return fmt.Sprintf("%s\n\n%s per kg\n\n%s", p.Name, p.UnitPrice().Format(), p.Description)
}

func formatAdded(q int) string {
	return fmt.Sprintf("Added %d kg to your cart.", q)
}

func removeButtonLabel(item moltin.CartItem) string {
	return "✂ Remove " + item.Name
}

// formatCart renders line items and the running total. The total currency
// follows the first line; carts are single-currency server-side.
func formatCart(items []moltin.CartItem) string {
	if len(items) == 0 {
		return emptyCartText
	}

	var b strings.Builder
	total := moltin.Money{Currency: items[0].Value.Currency}
	for _, item := range items {
		fmt.Fprintf(&b, "%s\n%s per kg\n%d kg for %s\n\n",
			item.Name, item.UnitPrice.Format(), item.Quantity, item.Value.Format())
		total.Amount += item.Value.Amount
	}
	fmt.Fprintf(&b, "Total: %s", total.Format())
	return b.String()
}

func formatEmailSaved(email string) string {
	return fmt.Sprintf("Thank you! We will contact you at %s.", email)
}

// Package bot funnels Telegram updates into the conversation router and
// renders router replies back through Telebot. Commands, free text and
// button presses all land in one dispatch entry point; the persisted
// dialogue state decides what they mean.
package bot

import (
	"strconv"

	tele "gopkg.in/telebot.v4"

	coretelegram "github.com/b10t/fish-shop/core/telegram"
	"github.com/b10t/fish-shop/core/telegram/callbacks"
	tghelpers "github.com/b10t/fish-shop/core/telegram/helpers"
	"github.com/b10t/fish-shop/core/telegram/middleware"
	"github.com/b10t/fish-shop/internal/shop"
)

// Adapter bridges Telebot endpoints to shop.Router.
type Adapter struct {
	router *shop.Router
}

// NewAdapter wraps a router.
func NewAdapter(router *shop.Router) *Adapter {
	return &Adapter{router: router}
}

// Routes returns the endpoint bindings for the run loop. Every inbound
// shape funnels into the same dispatch.
func (a *Adapter) Routes() []coretelegram.Route {
	h := middleware.RecoverMiddleware(middleware.LoggerMiddleware(a.dispatch))
	return []coretelegram.Route{
		{Endpoint: "/start", Handler: h},
		{Endpoint: tele.OnText, Handler: h},
		{Endpoint: tele.OnCallback, Handler: h},
	}
}

func (a *Adapter) dispatch(c tele.Context) error {
	ev, ok := eventFrom(c)
	if !ok {
		return nil
	}
	if c.Callback() != nil {
		_ = c.Respond()
	}

	ctx := tghelpers.BuildContext(c)
	// Router failures are logged at the router boundary and the event is
	// dropped; the user stays in their prior state and can retry.
	_ = a.router.Dispatch(ctx, ev)
	return nil
}

// eventFrom strips transport detail down to the router's event shape. The
// chat id doubles as the opaque user identifier, matching the cart and
// session keying.
func eventFrom(c tele.Context) (shop.Event, bool) {
	chat := c.Chat()
	if chat == nil {
		return shop.Event{}, false
	}
	ev := shop.Event{
		ChatID: chat.ID,
		UserID: strconv.FormatInt(chat.ID, 10),
	}

	switch {
	case c.Callback() != nil:
		cb := c.Callback()
		ev.Payload = callbacks.Data(c)
		if cb.Message != nil {
			ev.MessageID = cb.Message.ID
		}
	case c.Message() != nil:
		msg := c.Message()
		ev.Payload = msg.Text
		ev.MessageID = msg.ID
		ev.IsText = true
	default:
		return shop.Event{}, false
	}
	return ev, true
}

package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/b10t/fish-shop/core/logger"
	"github.com/b10t/fish-shop/internal/session"
)

// HandlerFunc renders output for the current step and returns the next
// state tag. It must not persist state itself; the router does that once,
// and only when the handler succeeds.
type HandlerFunc func(ctx context.Context, ev Event) (session.State, error)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	States    session.Store
	Commerce  Commerce
	Sender    Sender
	Checkouts CheckoutRecorder // optional
}

// Router dispatches inbound events by persisted state, with a small set of
// forcing payloads that override the stored state.
type Router struct {
	states    session.Store
	commerce  Commerce
	sender    Sender
	checkouts CheckoutRecorder

	handlers map[session.State]HandlerFunc

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewRouter wires the handler table and validates it covers every known
// state tag, so a well-formed build cannot hit a missing handler.
func NewRouter(opts RouterOptions) (*Router, error) {
	if opts.States == nil {
		return nil, fmt.Errorf("shop: nil session store")
	}
	if opts.Commerce == nil {
		return nil, fmt.Errorf("shop: nil commerce client")
	}
	if opts.Sender == nil {
		return nil, fmt.Errorf("shop: nil sender")
	}

	r := &Router{
		states:    opts.States,
		commerce:  opts.Commerce,
		sender:    opts.Sender,
		checkouts: opts.Checkouts,
		locks:     make(map[string]*sync.Mutex),
	}
	r.handlers = map[session.State]HandlerFunc{
		session.StateMenu:         r.handleProductSelect,
		session.StateDescription:  r.handleQuantity,
		session.StateCart:         r.handleItemRemoval,
		session.StateWaitingEmail: r.handleEmail,
	}
	for _, st := range session.States() {
		if _, ok := r.handlers[st]; !ok {
			return nil, fmt.Errorf("shop: no handler for state %s", st)
		}
	}
	return r, nil
}

// userLock returns the per-user mutex, creating it on first use. Events for
// one user run to completion before the next one starts, closing the
// lost-update race between near-simultaneous updates.
func (r *Router) userLock(userID string) *sync.Mutex {
	r.lockMu.Lock()
	defer r.lockMu.Unlock()
	mu, ok := r.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		r.locks[userID] = mu
	}
	return mu
}

// Dispatch handles one inbound event: select a handler, run it, persist the
// returned state. Handler failures leave the persisted state untouched so
// the user can retry from where they were.
func (r *Router) Dispatch(ctx context.Context, ev Event) error {
	mu := r.userLock(ev.UserID)
	mu.Lock()
	defer mu.Unlock()

	handler, name, err := r.resolve(ctx, ev)
	if err != nil {
		logger.Error(ctx, "shop", "dispatch.resolve_failed",
			slog.String("user_id", ev.UserID),
			slog.String("payload", logger.SanitizeLimit(ev.Payload, 64)),
			slog.String("err", err.Error()),
		)
		return err
	}

	next, err := handler(ctx, ev)
	if err != nil {
		logger.Error(ctx, "shop", "handler.failed",
			slog.String("user_id", ev.UserID),
			slog.String("handler", name),
			slog.String("err", err.Error()),
		)
		return err
	}

	if err := r.states.SetState(ctx, ev.UserID, next); err != nil {
		logger.Error(ctx, "shop", "state.persist_failed",
			slog.String("user_id", ev.UserID),
			slog.String("next", string(next)),
			slog.String("err", err.Error()),
		)
		return err
	}

	logger.Debug(ctx, "shop", "dispatch.ok",
		slog.String("user_id", ev.UserID),
		slog.String("handler", name),
		slog.String("next", string(next)),
	)
	return nil
}

// resolve picks the handler for the event. Forcing payloads win over the
// persisted state; a missing session means "not yet started" and routes to
// the menu; an unknown persisted tag is fatal for this event only.
func (r *Router) resolve(ctx context.Context, ev Event) (HandlerFunc, string, error) {
	switch ev.Payload {
	case PayloadStart, PayloadBack:
		return r.showMenu, "menu", nil
	case PayloadShowCart:
		return r.showCart, "cart", nil
	case PayloadCheckout:
		return r.promptEmail, "email_prompt", nil
	}

	st, err := r.states.GetState(ctx, ev.UserID)
	if errors.Is(err, session.ErrNotFound) {
		return r.showMenu, "menu", nil
	}
	if err != nil {
		return nil, "", err
	}

	handler, ok := r.handlers[st]
	if !ok {
		// Unreachable for states produced by this build; kept for parity
		// with the corrupt-tag error from the store.
		return nil, "", fmt.Errorf("%w: %q", session.ErrUnknownState, st)
	}
	return handler, string(st), nil
}

// Package session tracks each user's position in the shopping dialogue.
// Stores map an opaque user identifier to a State tag; handlers only
// ever see the closed set of tags declared here.
package session

import (
	"context"
	"errors"
	"fmt"
)

// State identifies a step of the shopping conversation.
type State string

const (
	// StateMenu shows the product list.
	StateMenu State = "MENU"
	// StateDescription shows a single product with quantity choices.
	StateDescription State = "DESCRIPTION"
	// StateCart shows cart contents with removal and checkout actions.
	StateCart State = "CART"
	// StateWaitingEmail waits for the user to type their email address.
	StateWaitingEmail State = "WAITING_EMAIL"
)

// States lists every known tag. Routers validate their handler tables
// against this set at construction.
func States() []State {
	return []State{StateMenu, StateDescription, StateCart, StateWaitingEmail}
}

var (
	// ErrNotFound is returned when the user has no persisted state yet.
	ErrNotFound = errors.New("session: state not found")
	// ErrUnknownState is returned when a persisted tag is not part of the
	// known set. This indicates store corruption or a version mismatch and
	// must not be silently defaulted.
	ErrUnknownState = errors.New("session: unknown state tag")
)

// ParseState validates a persisted tag against the known set.
func ParseState(raw string) (State, error) {
	st := State(raw)
	switch st {
	case StateMenu, StateDescription, StateCart, StateWaitingEmail:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownState, raw)
}

// Store persists conversation state per user.
type Store interface {
	// GetState returns the user's current state or ErrNotFound.
	GetState(ctx context.Context, userID string) (State, error)
	// SetState persists the state tag for the user.
	SetState(ctx context.Context, userID string, st State) error
	// Reset removes the persisted state so the next event starts over.
	Reset(ctx context.Context, userID string) error
}

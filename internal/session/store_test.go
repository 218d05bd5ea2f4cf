package session

import (
	"context"
	"errors"
	"testing"
)

func TestParseStateKnownTags(t *testing.T) {
	for _, st := range States() {
		parsed, err := ParseState(string(st))
		if err != nil {
			t.Fatalf("ParseState(%q): %v", st, err)
		}
		if parsed != st {
			t.Fatalf("ParseState(%q) = %q", st, parsed)
		}
	}
}

func TestParseStateRejectsUnknownTag(t *testing.T) {
	for _, raw := range []string{"", "menu", "CHECKOUT", "START"} {
		if _, err := ParseState(raw); !errors.Is(err, ErrUnknownState) {
			t.Fatalf("ParseState(%q) err = %v, want ErrUnknownState", raw, err)
		}
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.GetState(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("fresh user err = %v, want ErrNotFound", err)
	}

	if err := store.SetState(ctx, "u1", StateCart); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	st, err := store.GetState(ctx, "u1")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if st != StateCart {
		t.Fatalf("state = %q, want %q", st, StateCart)
	}

	// States are isolated per user.
	if _, err := store.GetState(ctx, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other user err = %v, want ErrNotFound", err)
	}

	if err := store.Reset(ctx, "u1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := store.GetState(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after reset err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreCorruptTag(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put("u1", "BROKEN")

	if _, err := store.GetState(ctx, "u1"); !errors.Is(err, ErrUnknownState) {
		t.Fatalf("corrupt tag err = %v, want ErrUnknownState", err)
	}
}

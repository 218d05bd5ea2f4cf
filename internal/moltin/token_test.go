package moltin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenSourceCachesWithinValidity(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var exchanges atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/access_token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "client-1", r.PostFormValue("client_id"))
		require.Equal(t, "implicit", r.PostFormValue("grant_type"))

		n := exchanges.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-" + string(rune('0'+n)),
			"token_type":   "Bearer",
			"expires":      now.Add(time.Hour).Unix(),
		})
	}))
	defer srv.Close()

	ts := NewTokenSource(TokenSourceOptions{
		BaseURL:  srv.URL,
		ClientID: "client-1",
		Now:      func() time.Time { return now },
	})

	ctx := context.Background()
	first, err := ts.Token(ctx)
	require.NoError(t, err)
	second, err := ts.Token(ctx)
	require.NoError(t, err)

	require.Equal(t, first.AccessToken, second.AccessToken)
	require.EqualValues(t, 1, exchanges.Load(), "second call within validity must not re-exchange")
}

func TestTokenSourceRefreshesAfterExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var exchanges atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok",
			"expires":      now.Add(time.Hour).Unix(),
		})
	}))
	defer srv.Close()

	ts := NewTokenSource(TokenSourceOptions{
		BaseURL:  srv.URL,
		ClientID: "client-1",
		Now:      func() time.Time { return now },
	})

	ctx := context.Background()
	_, err := ts.Token(ctx)
	require.NoError(t, err)

	// Jump past the server-declared expiry.
	now = now.Add(2 * time.Hour)

	_, err = ts.Token(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, exchanges.Load(), "expired credential must trigger a second exchange")
}

func TestTokenSourceExpiresInFallback(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	ts := NewTokenSource(TokenSourceOptions{
		BaseURL:  srv.URL,
		ClientID: "client-1",
		Now:      func() time.Time { return now },
	})

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Hour), tok.ExpiresAt)
}

func TestTokenSourceExchangeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"title":"unauthorized"}]}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	ts := NewTokenSource(TokenSourceOptions{BaseURL: srv.URL, ClientID: "bad"})

	_, err := ts.Token(context.Background())
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr), "want *AuthError, got %v", err)
}

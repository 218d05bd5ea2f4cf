package moltin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/b10t/fish-shop/core/logger"
)

// Token is an app-level bearer credential with its server-declared expiry.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Valid reports whether the token can still be attached to requests.
// An empty token is treated the same as an expired one.
func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// TokenSourceOptions configures NewTokenSource.
type TokenSourceOptions struct {
	BaseURL  string
	ClientID string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Now is the expiry clock; defaults to time.Now. Injectable for tests.
	Now func() time.Time
}

// TokenSource lazily exchanges the client id for a bearer token and caches
// it until expiry. There is exactly one slot for the whole process: the
// backend issues app-level credentials, not per-user ones. Refresh is
// synchronous; concurrent callers are serialized by the mutex.
type TokenSource struct {
	mu       sync.Mutex
	baseURL  string
	clientID string
	http     *http.Client
	now      func() time.Time
	cached   Token
}

// NewTokenSource constructs a token source for the implicit grant flow.
func NewTokenSource(opts TokenSourceOptions) *TokenSource {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &TokenSource{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		clientID: opts.ClientID,
		http:     client,
		now:      now,
	}
}

// Token returns the cached credential, refreshing it first when absent or
// expired. Failure to refresh is reported as *AuthError.
func (s *TokenSource) Token(ctx context.Context) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached.Valid(s.now()) {
		return s.cached, nil
	}

	tok, err := s.exchange(ctx)
	if err != nil {
		return Token{}, &AuthError{Err: err}
	}
	s.cached = tok

	logger.Debug(ctx, "moltin", "token.refreshed",
		slog.Time("expires_at", tok.ExpiresAt),
	)
	return s.cached, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Expires     int64  `json:"expires"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (s *TokenSource) exchange(ctx context.Context) (Token, error) {
	form := url.Values{
		"client_id":  {s.clientID},
		"grant_type": {"implicit"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return Token{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Token{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Token{}, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Token{}, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return Token{}, fmt.Errorf("empty access_token in response")
	}

	expiresAt := time.Unix(tr.Expires, 0)
	if tr.Expires == 0 {
		expiresAt = s.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return Token{AccessToken: tr.AccessToken, ExpiresAt: expiresAt}, nil
}

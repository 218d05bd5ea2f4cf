package moltin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// moltinStub is an in-memory stand-in for the commerce API covering the
// endpoints the client touches.
type moltinStub struct {
	products map[string]Product
	files    map[string]string // file id -> href

	carts       map[string]Cart
	items       map[string][]CartItem
	cartCreates int
	nextItemID  int
}

func newMoltinStub() *moltinStub {
	return &moltinStub{
		products: make(map[string]Product),
		files:    make(map[string]string),
		carts:    make(map[string]Cart),
		items:    make(map[string][]CartItem),
	}
}

func (s *moltinStub) addProduct(id, name string, amount int, fileID string) {
	p := Product{ID: id, Name: name, Price: []Money{{Amount: amount, Currency: "USD"}}}
	if fileID != "" {
		p.Relationships.MainImage.Data = &struct {
			ID string `json:"id"`
		}{ID: fileID}
	}
	s.products[id] = p
}

func (s *moltinStub) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		writeJSONRaw(w, map[string]any{
			"access_token": "stub-token",
			"expires":      time.Now().Add(time.Hour).Unix(),
		})
	})

	auth := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer stub-token"
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if !auth(r) {
			http.Error(w, `{"errors":[{"title":"unauthorized"}]}`, http.StatusUnauthorized)
			return
		}
		s.route(w, r)
	})
	return mux
}

func (s *moltinStub) route(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v2/")
	parts := strings.Split(path, "/")

	switch {
	case r.Method == http.MethodGet && path == "products":
		var all []Product
		for _, p := range s.products {
			all = append(all, p)
		}
		writeJSON(w, all)

	case r.Method == http.MethodGet && len(parts) == 2 && parts[0] == "products":
		p, ok := s.products[parts[1]]
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, p)

	case r.Method == http.MethodGet && len(parts) == 2 && parts[0] == "files":
		href, ok := s.files[parts[1]]
		if !ok {
			notFound(w)
			return
		}
		var fr fileRecord
		fr.Link.Href = href
		writeJSON(w, fr)

	case r.Method == http.MethodGet && len(parts) == 2 && parts[0] == "carts":
		cart, ok := s.carts[parts[1]]
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, cart)

	case r.Method == http.MethodPost && path == "carts":
		var env envelope[Cart]
		_ = json.NewDecoder(r.Body).Decode(&env)
		s.cartCreates++
		s.carts[env.Data.ID] = env.Data
		writeJSON(w, env.Data)

	case len(parts) == 3 && parts[0] == "carts" && parts[2] == "items":
		ref := parts[1]
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, s.items[ref])
		case http.MethodPost:
			var env envelope[struct {
				ID       string `json:"id"`
				Quantity int    `json:"quantity"`
			}]
			_ = json.NewDecoder(r.Body).Decode(&env)
			p, ok := s.products[env.Data.ID]
			if !ok {
				notFound(w)
				return
			}
			s.nextItemID++
			unit := p.UnitPrice()
			s.items[ref] = append(s.items[ref], CartItem{
				ID:        fmt.Sprintf("item-%d", s.nextItemID),
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  env.Data.Quantity,
				UnitPrice: unit,
				Value:     Money{Amount: unit.Amount * env.Data.Quantity, Currency: unit.Currency},
			})
			writeJSON(w, s.items[ref])
		}

	case r.Method == http.MethodDelete && len(parts) == 4 && parts[0] == "carts" && parts[2] == "items":
		ref, itemID := parts[1], parts[3]
		var remaining []CartItem
		for _, item := range s.items[ref] {
			if item.ID != itemID {
				remaining = append(remaining, item)
			}
		}
		s.items[ref] = remaining
		writeJSON(w, remaining)

	case r.Method == http.MethodPost && path == "customers":
		var env envelope[Customer]
		_ = json.NewDecoder(r.Body).Decode(&env)
		env.Data.ID = "cust-1"
		writeJSON(w, env.Data)

	default:
		notFound(w)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONRaw(w, map[string]any{"data": data})
}

func writeJSONRaw(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	http.Error(w, `{"errors":[{"status":404,"title":"not found"}]}`, http.StatusNotFound)
}

func newTestClient(t *testing.T, stub *moltinStub) *Client {
	t.Helper()
	srv := httptest.NewServer(stub.handler(t))
	t.Cleanup(srv.Close)

	tokens := NewTokenSource(TokenSourceOptions{BaseURL: srv.URL, ClientID: "client-1"})
	return NewClient(ClientOptions{
		BaseURL:       srv.URL,
		Tokens:        tokens,
		FallbackImage: "assets/fish.png",
	})
}

func TestGetOrCreateCartIdempotent(t *testing.T) {
	stub := newMoltinStub()
	client := newTestClient(t, stub)
	ctx := context.Background()

	first, err := client.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", first.ID)
	require.Equal(t, "Cart for user-1", first.Name)

	second, err := client.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, stub.cartCreates, "second call must not create a duplicate cart")
}

func TestCartItemRoundTrip(t *testing.T) {
	stub := newMoltinStub()
	stub.addProduct("p1", "Salmon", 550, "")
	client := newTestClient(t, stub)
	ctx := context.Background()

	_, err := client.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)

	_, err = client.AddCartItem(ctx, "user-1", "p1", 5)
	require.NoError(t, err)

	items, err := client.ListCartItems(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "p1", items[0].ProductID)
	require.Equal(t, 5, items[0].Quantity)
	require.Equal(t, 550*5, items[0].Value.Amount)

	remaining, err := client.RemoveCartItem(ctx, "user-1", items[0].ID)
	require.NoError(t, err)
	require.Empty(t, remaining)

	items, err = client.ListCartItems(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestAddCartItemRejectsNonPositiveQuantity(t *testing.T) {
	client := newTestClient(t, newMoltinStub())

	for _, qty := range []int{0, -3} {
		_, err := client.AddCartItem(context.Background(), "user-1", "p1", qty)
		require.Error(t, err)
	}
}

func TestImageURLResolvesAndFallsBack(t *testing.T) {
	stub := newMoltinStub()
	stub.addProduct("with-image", "Tuna", 700, "file-1")
	stub.addProduct("broken-image", "Cod", 300, "file-missing")
	stub.addProduct("no-image", "Herring", 200, "")
	stub.files["file-1"] = "https://cdn.example.com/tuna.jpg"

	client := newTestClient(t, stub)
	ctx := context.Background()

	resolved, err := client.GetProduct(ctx, "with-image")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/tuna.jpg", client.ImageURL(ctx, resolved))

	broken, err := client.GetProduct(ctx, "broken-image")
	require.NoError(t, err)
	require.Equal(t, "assets/fish.png", client.ImageURL(ctx, broken))

	bare, err := client.GetProduct(ctx, "no-image")
	require.NoError(t, err)
	require.Equal(t, "assets/fish.png", client.ImageURL(ctx, bare))
}

func TestAPIErrorCarriesStatusAndBody(t *testing.T) {
	stub := newMoltinStub()
	client := newTestClient(t, stub)

	_, err := client.GetProduct(context.Background(), "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Contains(t, apiErr.Body, "not found")
}

func TestCreateCustomer(t *testing.T) {
	client := newTestClient(t, newMoltinStub())

	customer, err := client.CreateCustomer(context.Background(), "user-1", "fish@example.com")
	require.NoError(t, err)
	require.Equal(t, "cust-1", customer.ID)
	require.Equal(t, "fish@example.com", customer.Email)
}

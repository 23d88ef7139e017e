package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/sneakerzone/cart/internal/service"
	"github.com/Alturino/sneakerzone/cart/pkg/response"
	"github.com/Alturino/sneakerzone/internal"
	"github.com/Alturino/sneakerzone/internal/backend"
	"github.com/Alturino/sneakerzone/internal/middleware"
	"github.com/Alturino/sneakerzone/internal/storage"
	orderReq "github.com/Alturino/sneakerzone/order/pkg/request"
	orderRes "github.com/Alturino/sneakerzone/order/pkg/response"
	productRes "github.com/Alturino/sneakerzone/product/pkg/response"
	userRes "github.com/Alturino/sneakerzone/user/pkg/response"
)

const secret = "cart-secret"

var sessions = storage.NewMemoryProvider()

type fakeProducts struct{}

func (fakeProducts) FindProductByID(c context.Context, id int64) (productRes.Product, error) {
	switch id {
	case 1:
		return productRes.Product{ID: 1, Name: "Air Max 90", Price: decimal.NewFromInt(100000), Stock: 5, Active: true}, nil
	case 2:
		return productRes.Product{ID: 2, Name: "Retired", Price: decimal.NewFromInt(1), Stock: 5, Active: false}, nil
	}
	return productRes.Product{}, &backend.RejectedError{StatusCode: http.StatusNotFound, Message: "Producto no encontrado"}
}

type fakeCheckout struct {
	orderErr error
}

func (f fakeCheckout) FindAddressesByUserID(c context.Context, userID int64) ([]userRes.Address, error) {
	return []userRes.Address{{ID: 10, UserID: userID}}, nil
}

func (f fakeCheckout) FindPaymentMethodsByUserID(
	c context.Context,
	userID int64,
) ([]userRes.PaymentMethod, error) {
	return []userRes.PaymentMethod{{ID: 20, UserID: userID, CardType: "visa", CardNumber: "4111111111114242"}}, nil
}

func (f fakeCheckout) CreateOrder(c context.Context, param orderReq.CreateOrder) (orderRes.Order, error) {
	if f.orderErr != nil {
		return orderRes.Order{}, f.orderErr
	}
	return orderRes.Order{ID: 99, UserID: param.UserID, Total: param.Total}, nil
}

func newRouter(checkout fakeCheckout) *mux.Router {
	return newRouterWithOrigins(checkout, nil)
}

func newRouterWithOrigins(checkout fakeCheckout, allowedOrigins []string) *mux.Router {
	registry := service.NewCartRegistry(sessions, nil)
	svc := service.NewCartService(registry, fakeProducts{}, service.NewCheckoutService(checkout, nil))
	router := mux.NewRouter()
	AttachCartController(router, svc, middleware.Session(secret, sessions), allowedOrigins)
	return router
}

func token(t *testing.T, session internal.Session) string {
	t.Helper()
	signed, err := internal.IssueToken(context.Background(), secret, time.Hour, session)
	require.NoError(t, err)
	require.NoError(t, sessions.Session(session.ID).Set(context.Background(), storage.KeySessionToken, signed))
	return signed
}

type envelope struct {
	Status     string                     `json:"status"`
	StatusCode int                        `json:"statusCode"`
	Message    string                     `json:"message"`
	Data       map[string]json.RawMessage `json:"data"`
}

func serve(t *testing.T, router *mux.Router, session internal.Session, method, url, body string) envelope {
	t.Helper()
	r := httptest.NewRequest(method, url, strings.NewReader(body))
	r.Header.Set("Authorization", "Bearer "+token(t, session))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	env := envelope{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	require.Equal(t, w.Code, env.StatusCode)
	return env
}

func cartOf(t *testing.T, env envelope) response.Cart {
	t.Helper()
	cart := response.Cart{}
	require.NoError(t, json.Unmarshal(env.Data["cart"], &cart))
	return cart
}

func TestCartRequiresSession(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(fakeCheckout{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/carts", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartLifecycle(t *testing.T) {
	router := newRouter(fakeCheckout{})
	session := internal.Session{ID: uuid.New()}

	env := serve(t, router, session, http.MethodPost, "/carts/items", `{"productId":1}`)
	require.Equal(t, http.StatusOK, env.StatusCode)
	assert.Equal(t, 1, cartOf(t, env).ItemCount)

	env = serve(t, router, session, http.MethodPost, "/carts/items", `{"productId":1,"quantity":2}`)
	cart := cartOf(t, env)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 3, cart.ItemCount)
	assert.True(t, decimal.NewFromInt(300000).Equal(cart.Total))

	env = serve(t, router, session, http.MethodPut, "/carts/items/1", `{"quantity":4}`)
	assert.Equal(t, 4, cartOf(t, env).ItemCount)

	env = serve(t, router, session, http.MethodPut, "/carts/items/1", `{"quantity":0}`)
	assert.Equal(t, 4, cartOf(t, env).ItemCount)

	env = serve(t, router, session, http.MethodGet, "/carts", "")
	assert.Equal(t, 4, cartOf(t, env).ItemCount)

	env = serve(t, router, session, http.MethodDelete, "/carts/items/1", "")
	assert.Empty(t, cartOf(t, env).Lines)

	serve(t, router, session, http.MethodPost, "/carts/items", `{"productId":1}`)
	env = serve(t, router, session, http.MethodDelete, "/carts", "")
	assert.Equal(t, 0, cartOf(t, env).ItemCount)
}

func TestAddProductRefusals(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		statusCode int
	}{
		{name: "malformed body", body: `{`, statusCode: http.StatusBadRequest},
		{name: "missing product", body: `{"quantity":1}`, statusCode: http.StatusBadRequest},
		{name: "inactive product", body: `{"productId":2}`, statusCode: http.StatusNotFound},
		{name: "unknown product", body: `{"productId":3}`, statusCode: http.StatusNotFound},
		{name: "beyond stock", body: `{"productId":1,"quantity":6}`, statusCode: http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := serve(t, newRouter(fakeCheckout{}), internal.Session{ID: uuid.New()}, http.MethodPost, "/carts/items", tt.body)
			assert.Equal(t, tt.statusCode, env.StatusCode)
			assert.Equal(t, "failed", env.Status)
		})
	}
}

func TestCheckoutHandler(t *testing.T) {
	checkoutBody := `{"shippingAddressId":10,"paymentMethodId":20}`
	tests := []struct {
		name       string
		checkout   fakeCheckout
		signedIn   bool
		fill       bool
		body       string
		statusCode int
		reason     service.RejectionReason
		message    string
	}{
		{name: "anonymous", fill: true, body: checkoutBody, statusCode: http.StatusUnauthorized, reason: service.ReasonAuthRequired},
		{name: "empty cart", signedIn: true, body: checkoutBody, statusCode: http.StatusConflict, reason: service.ReasonEmptyCart},
		{
			name:       "missing address",
			signedIn:   true,
			fill:       true,
			body:       `{"paymentMethodId":20}`,
			statusCode: http.StatusUnprocessableEntity,
			reason:     service.ReasonAddressRequired,
		},
		{
			name:       "unknown payment method",
			signedIn:   true,
			fill:       true,
			body:       `{"shippingAddressId":10,"paymentMethodId":21}`,
			statusCode: http.StatusUnprocessableEntity,
			reason:     service.ReasonPaymentRequired,
		},
		{
			name:       "backend rejects",
			checkout:   fakeCheckout{orderErr: &backend.RejectedError{StatusCode: http.StatusBadRequest, Message: "Stock insuficiente"}},
			signedIn:   true,
			fill:       true,
			body:       checkoutBody,
			statusCode: http.StatusBadRequest,
			reason:     service.ReasonBackendRejected,
			message:    "Stock insuficiente",
		},
		{
			name:       "backend unreachable",
			checkout:   fakeCheckout{orderErr: backend.ErrUnreachable},
			signedIn:   true,
			fill:       true,
			body:       checkoutBody,
			statusCode: http.StatusServiceUnavailable,
			reason:     service.ReasonTransportFailure,
		},
		{name: "placed", signedIn: true, fill: true, body: checkoutBody, statusCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(tt.checkout)
			session := internal.Session{ID: uuid.New()}
			if tt.signedIn {
				session.UserID = 5
			}
			if tt.fill {
				serve(t, router, session, http.MethodPost, "/carts/items", `{"productId":1,"quantity":2}`)
			}

			env := serve(t, router, session, http.MethodPost, "/carts/checkout", tt.body)
			require.Equal(t, tt.statusCode, env.StatusCode)
			result := service.CheckoutResult{}
			require.NoError(t, json.Unmarshal(env.Data["checkout"], &result))
			assert.Equal(t, tt.reason, result.Reason)
			if tt.message != "" {
				assert.Equal(t, tt.message, env.Message)
			}

			cart := cartOf(t, serve(t, router, session, http.MethodGet, "/carts", ""))
			if tt.statusCode == http.StatusOK {
				assert.Equal(t, service.StateSucceeded, result.State)
				assert.Equal(t, int64(99), result.Order.ID)
				assert.Empty(t, cart.Lines)
				return
			}
			assert.Equal(t, service.StateFailed, result.State)
			if tt.fill {
				assert.Equal(t, 2, cart.ItemCount)
			}
		})
	}
}

func TestWatchStreamsCart(t *testing.T) {
	router := newRouter(fakeCheckout{})
	server := httptest.NewServer(router)
	defer server.Close()
	session := internal.Session{ID: uuid.New()}

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/carts/ws?token=" + token(t, session)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	initial := response.Cart{}
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Equal(t, 0, initial.ItemCount)

	r, err := http.NewRequest(http.MethodPost, server.URL+"/carts/items", strings.NewReader(`{"productId":1,"quantity":2}`))
	require.NoError(t, err)
	r.Header.Set("Authorization", "Bearer "+token(t, session))
	resp, err := http.DefaultClient.Do(r)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := response.Cart{}
	require.NoError(t, conn.ReadJSON(&updated))
	assert.Equal(t, 2, updated.ItemCount)
}

func TestWatchChecksOrigin(t *testing.T) {
	tests := []struct {
		name           string
		allowedOrigins []string
		origin         string
		upgraded       bool
	}{
		{name: "allowed origin", allowedOrigins: []string{"http://localhost:4200/"}, origin: "http://localhost:4200", upgraded: true},
		{name: "foreign origin", allowedOrigins: []string{"http://localhost:4200"}, origin: "http://evil.example", upgraded: false},
		{name: "no origin header", allowedOrigins: []string{"http://localhost:4200"}, upgraded: true},
		{name: "foreign origin without configured origins", origin: "http://evil.example", upgraded: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(newRouterWithOrigins(fakeCheckout{}, tt.allowedOrigins))
			defer server.Close()

			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			url := "ws" + strings.TrimPrefix(server.URL, "http") + "/carts/ws?token=" + token(t, internal.Session{ID: uuid.New()})
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if resp != nil {
				defer resp.Body.Close()
			}

			if !tt.upgraded {
				require.ErrorIs(t, err, websocket.ErrBadHandshake)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
				return
			}
			require.NoError(t, err)
			defer conn.Close()
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
			initial := response.Cart{}
			require.NoError(t, conn.ReadJSON(&initial))
			assert.Equal(t, 0, initial.ItemCount)
		})
	}
}

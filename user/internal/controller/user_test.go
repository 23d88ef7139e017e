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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/sneakerzone/internal"
	"github.com/Alturino/sneakerzone/internal/backend"
	"github.com/Alturino/sneakerzone/internal/config"
	"github.com/Alturino/sneakerzone/internal/constants"
	"github.com/Alturino/sneakerzone/internal/middleware"
	"github.com/Alturino/sneakerzone/internal/storage"
	"github.com/Alturino/sneakerzone/user/internal/service"
	"github.com/Alturino/sneakerzone/user/pkg/request"
	"github.com/Alturino/sneakerzone/user/pkg/response"
)

const secret = "user-secret"

var sessions = storage.NewMemoryProvider()

type fakeBackend struct{}

func (fakeBackend) Login(c context.Context, param request.Login) (response.User, error) {
	if param.Password != "secret" {
		return response.User{}, &backend.RejectedError{StatusCode: http.StatusUnauthorized, Message: "Credenciales inválidas"}
	}
	return response.User{ID: 5, Email: param.Email, Role: constants.RoleUser, Active: true}, nil
}

func (fakeBackend) Register(c context.Context, param request.Register) (response.User, error) {
	return response.User{ID: 6, Email: param.Email, Active: true}, nil
}

func (fakeBackend) FindProfile(c context.Context, userID int64) (response.User, error) {
	return response.User{ID: userID}, nil
}

func (fakeBackend) UpdateProfile(c context.Context, param request.UpdateProfile) (response.User, error) {
	return response.User{ID: param.ID, Name: param.Name}, nil
}

func (fakeBackend) FindAddressesByUserID(c context.Context, userID int64) ([]response.Address, error) {
	return []response.Address{{ID: 1, UserID: userID}}, nil
}

func (fakeBackend) CreateAddress(c context.Context, param request.Address) (response.Address, error) {
	return response.Address{ID: 2, UserID: param.UserID}, nil
}

func (fakeBackend) DeleteAddress(c context.Context, id int64) error {
	return nil
}

func (fakeBackend) FindPaymentMethodsByUserID(
	c context.Context,
	userID int64,
) ([]response.PaymentMethod, error) {
	return []response.PaymentMethod{{ID: 1, UserID: userID, CardType: "visa", CardNumber: "4111111111114242"}}, nil
}

func (fakeBackend) CreatePaymentMethod(
	c context.Context,
	param request.PaymentMethod,
) (response.PaymentMethod, error) {
	return response.PaymentMethod{ID: 2, UserID: param.UserID, CardNumber: param.CardNumber}, nil
}

func (fakeBackend) DeletePaymentMethod(c context.Context, id int64) error {
	return nil
}

func (fakeBackend) FindUsers(c context.Context) ([]response.User, error) {
	return []response.User{{ID: 1}, {ID: 5}}, nil
}

func (fakeBackend) DeleteUser(c context.Context, id int64) error {
	return nil
}

type fakeCarts struct{}

func (fakeCarts) ClearSession(c context.Context, sessionID uuid.UUID) {}

func (fakeCarts) Release(sessionID uuid.UUID) {}

func newRouter() *mux.Router {
	router := mux.NewRouter()
	svc := service.NewUserService(fakeBackend{}, sessions, fakeCarts{}, config.Application{
		SecretKey:  secret,
		SessionTTL: time.Hour,
	})
	AttachUserController(router, svc, middleware.Session(secret, sessions))
	return router
}

func bearer(t *testing.T, session internal.Session) string {
	t.Helper()
	token, err := internal.IssueToken(context.Background(), secret, time.Hour, session)
	require.NoError(t, err)
	require.NoError(t, sessions.Session(session.ID).Set(context.Background(), storage.KeySessionToken, token))
	return "Bearer " + token
}

type envelope struct {
	Status     string                     `json:"status"`
	StatusCode int                        `json:"statusCode"`
	Message    string                     `json:"message"`
	Data       map[string]json.RawMessage `json:"data"`
}

func serve(router *mux.Router, method, url, authorization, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, url, strings.NewReader(body))
	if authorization != "" {
		r.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	env := envelope{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env
}

func TestSessionThenLogin(t *testing.T) {
	router := newRouter()

	w := serve(router, http.MethodPost, "/sessions", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	anonymousToken := ""
	require.NoError(t, json.Unmarshal(env.Data["token"], &anonymousToken))
	require.NotEmpty(t, anonymousToken)

	w = serve(router, http.MethodGet, "/users/me", "Bearer "+anonymousToken, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(router, http.MethodPost, "/users/login", "Bearer "+anonymousToken,
		`{"email":"ana@mail.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	env = decode(t, w)
	token := ""
	require.NoError(t, json.Unmarshal(env.Data["token"], &token))

	w = serve(router, http.MethodGet, "/users/me", "Bearer "+token, "")
	require.Equal(t, http.StatusOK, w.Code)
	user := response.User{}
	require.NoError(t, json.Unmarshal(decode(t, w).Data["user"], &user))
	assert.Equal(t, "ana@mail.com", user.Email)
}

func TestLogoutHandlerRevokesToken(t *testing.T) {
	router := newRouter()
	tokenOf := func(w *httptest.ResponseRecorder) string {
		t.Helper()
		token := ""
		require.NoError(t, json.Unmarshal(decode(t, w).Data["token"], &token))
		return token
	}

	w := serve(router, http.MethodPost, "/sessions", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	anonymousToken := tokenOf(w)

	w = serve(router, http.MethodPost, "/users/login", "Bearer "+anonymousToken,
		`{"email":"ana@mail.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	signedInToken := tokenOf(w)

	w = serve(router, http.MethodPost, "/users/logout", "Bearer "+signedInToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	nextToken := tokenOf(w)

	tests := []struct {
		name       string
		method     string
		url        string
		token      string
		body       string
		statusCode int
	}{
		{name: "anonymous token after sign in", method: http.MethodPost, url: "/users/login", token: anonymousToken,
			body: `{"email":"ana@mail.com","password":"secret"}`, statusCode: http.StatusUnauthorized},
		{name: "signed in token after sign out", method: http.MethodGet, url: "/users/me", token: signedInToken,
			statusCode: http.StatusUnauthorized},
		{name: "signed in token on addresses after sign out", method: http.MethodGet, url: "/users/addresses",
			token: signedInToken, statusCode: http.StatusUnauthorized},
		{name: "token issued at sign out", method: http.MethodPost, url: "/users/login", token: nextToken,
			body: `{"email":"ana@mail.com","password":"secret"}`, statusCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, tt.method, tt.url, "Bearer "+tt.token, tt.body)
			assert.Equal(t, tt.statusCode, w.Code)
		})
	}
}

func TestLoginHandler(t *testing.T) {
	anonymous := internal.Session{ID: uuid.New()}
	tests := []struct {
		name       string
		token      bool
		body       string
		statusCode int
		message    string
	}{
		{name: "missing session", body: `{"email":"ana@mail.com","password":"secret"}`, statusCode: http.StatusUnauthorized},
		{name: "malformed body", token: true, body: `{`, statusCode: http.StatusBadRequest},
		{name: "invalid email", token: true, body: `{"email":"ana","password":"secret"}`, statusCode: http.StatusBadRequest},
		{
			name:       "rejected credentials",
			token:      true,
			body:       `{"email":"ana@mail.com","password":"nope"}`,
			statusCode: http.StatusUnauthorized,
			message:    "Credenciales inválidas",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authorization := ""
			if tt.token {
				authorization = bearer(t, anonymous)
			}
			w := serve(newRouter(), http.MethodPost, "/users/login", authorization, tt.body)
			require.Equal(t, tt.statusCode, w.Code)
			env := decode(t, w)
			assert.Equal(t, "failed", env.Status)
			if tt.message != "" {
				assert.Equal(t, tt.message, env.Message)
			}
		})
	}
}

func TestAddressesHandler(t *testing.T) {
	user := internal.Session{ID: uuid.New(), UserID: 5, Role: constants.RoleUser}
	tests := []struct {
		name       string
		method     string
		url        string
		body       string
		statusCode int
	}{
		{name: "list", method: http.MethodGet, url: "/users/addresses", statusCode: http.StatusOK},
		{
			name:       "create",
			method:     http.MethodPost,
			url:        "/users/addresses",
			body:       `{"address":"Calle 1 # 2-3","city":"Bogota","department":"Cundinamarca","country":"Colombia"}`,
			statusCode: http.StatusOK,
		},
		{name: "create missing city", method: http.MethodPost, url: "/users/addresses", body: `{"address":"x"}`, statusCode: http.StatusBadRequest},
		{name: "delete owned", method: http.MethodDelete, url: "/users/addresses/1", statusCode: http.StatusOK},
		{name: "delete foreign", method: http.MethodDelete, url: "/users/addresses/8", statusCode: http.StatusNotFound},
		{name: "delete invalid id", method: http.MethodDelete, url: "/users/addresses/abc", statusCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(newRouter(), tt.method, tt.url, bearer(t, user), tt.body)
			assert.Equal(t, tt.statusCode, w.Code)
		})
	}
}

func TestPaymentMethodsHandlerMasksNumbers(t *testing.T) {
	user := internal.Session{ID: uuid.New(), UserID: 5, Role: constants.RoleUser}

	w := serve(newRouter(), http.MethodGet, "/users/payment-methods", bearer(t, user), "")
	require.Equal(t, http.StatusOK, w.Code)
	methods := []response.PaymentMethod{}
	require.NoError(t, json.Unmarshal(decode(t, w).Data["paymentMethods"], &methods))
	require.Len(t, methods, 1)
	assert.Equal(t, "**** **** **** 4242", methods[0].CardNumber)
}

func TestAdminUsersHandler(t *testing.T) {
	admin := internal.Session{ID: uuid.New(), UserID: 1, Role: constants.RoleAdmin}
	customer := internal.Session{ID: uuid.New(), UserID: 5, Role: constants.RoleUser}
	tests := []struct {
		name       string
		session    internal.Session
		method     string
		url        string
		statusCode int
	}{
		{name: "admin lists", session: admin, method: http.MethodGet, url: "/admin/users", statusCode: http.StatusOK},
		{name: "customer forbidden", session: customer, method: http.MethodGet, url: "/admin/users", statusCode: http.StatusForbidden},
		{name: "admin deletes other", session: admin, method: http.MethodDelete, url: "/admin/users/5", statusCode: http.StatusOK},
		{name: "admin deletes self", session: admin, method: http.MethodDelete, url: "/admin/users/1", statusCode: http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(newRouter(), tt.method, tt.url, bearer(t, tt.session), "")
			assert.Equal(t, tt.statusCode, w.Code)
		})
	}
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/sneakerzone/internal"
	"github.com/Alturino/sneakerzone/internal/backend"
	"github.com/Alturino/sneakerzone/internal/config"
	"github.com/Alturino/sneakerzone/internal/constants"
	inErrors "github.com/Alturino/sneakerzone/internal/errors"
	"github.com/Alturino/sneakerzone/internal/middleware"
	"github.com/Alturino/sneakerzone/internal/storage"
	"github.com/Alturino/sneakerzone/user/pkg/request"
	"github.com/Alturino/sneakerzone/user/pkg/response"
)

const secretKey = "test-secret"

type fakeBackend struct {
	user      response.User
	loginErr  error
	addresses []response.Address
	methods   []response.PaymentMethod
	deleted   []int64
	updated   request.UpdateProfile
}

func (f *fakeBackend) Login(c context.Context, param request.Login) (response.User, error) {
	return f.user, f.loginErr
}

func (f *fakeBackend) Register(c context.Context, param request.Register) (response.User, error) {
	return response.User{ID: 77, Name: param.Name, Email: param.Email, Active: true}, nil
}

func (f *fakeBackend) FindProfile(c context.Context, userID int64) (response.User, error) {
	return f.user, nil
}

func (f *fakeBackend) UpdateProfile(
	c context.Context,
	param request.UpdateProfile,
) (response.User, error) {
	f.updated = param
	user := f.user
	user.Name = param.Name
	user.Phone = param.Phone
	return user, nil
}

func (f *fakeBackend) FindAddressesByUserID(
	c context.Context,
	userID int64,
) ([]response.Address, error) {
	return f.addresses, nil
}

func (f *fakeBackend) CreateAddress(c context.Context, param request.Address) (response.Address, error) {
	return response.Address{ID: 9, UserID: param.UserID, Address: param.Address}, nil
}

func (f *fakeBackend) DeleteAddress(c context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) FindPaymentMethodsByUserID(
	c context.Context,
	userID int64,
) ([]response.PaymentMethod, error) {
	return f.methods, nil
}

func (f *fakeBackend) CreatePaymentMethod(
	c context.Context,
	param request.PaymentMethod,
) (response.PaymentMethod, error) {
	return response.PaymentMethod{
		ID:         3,
		UserID:     param.UserID,
		CardType:   param.CardType,
		CardNumber: param.CardNumber,
	}, nil
}

func (f *fakeBackend) DeletePaymentMethod(c context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) FindUsers(c context.Context) ([]response.User, error) {
	return []response.User{f.user}, nil
}

func (f *fakeBackend) DeleteUser(c context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCarts struct {
	cleared  []uuid.UUID
	released []uuid.UUID
}

func (f *fakeCarts) ClearSession(c context.Context, sessionID uuid.UUID) {
	f.cleared = append(f.cleared, sessionID)
}

func (f *fakeCarts) Release(sessionID uuid.UUID) {
	f.released = append(f.released, sessionID)
}

func testContext() context.Context {
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	return logger.WithContext(context.Background())
}

func newService(b *fakeBackend) (*UserService, *storage.MemoryProvider, *fakeCarts) {
	provider := storage.NewMemoryProvider()
	carts := &fakeCarts{}
	svc := NewUserService(b, provider, carts, config.Application{
		SecretKey:  secretKey,
		SessionTTL: time.Hour,
	})
	return svc, provider, carts
}

func TestNewSession(t *testing.T) {
	c := testContext()
	svc, provider, _ := newService(&fakeBackend{})

	session, err := svc.NewSession(c)
	require.NoError(t, err)
	assert.False(t, session.Authenticated())

	stored, err := provider.Session(session.ID).Get(c, storage.KeySessionToken)
	require.NoError(t, err)
	assert.Equal(t, session.Token, stored)

	verified, err := internal.VerifyToken(c, secretKey, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, verified.ID)
}

func TestLoginKeepsSessionID(t *testing.T) {
	c := testContext()
	b := &fakeBackend{
		user: response.User{ID: 5, Name: "Ana", Role: constants.RoleUser, Active: true},
	}
	svc, provider, _ := newService(b)

	anonymous, err := svc.NewSession(c)
	require.NoError(t, err)

	user, session, err := svc.Login(c, anonymous, request.Login{Email: "ana@mail.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.ID)
	assert.Equal(t, anonymous.ID, session.ID)
	assert.Equal(t, int64(5), session.UserID)
	assert.NotEqual(t, anonymous.Token, session.Token)

	raw, err := provider.Session(session.ID).Get(c, storage.KeyCurrentUser)
	require.NoError(t, err)
	saved := response.User{}
	require.NoError(t, json.Unmarshal([]byte(raw), &saved))
	assert.Equal(t, "Ana", saved.Name)

	current, err := svc.CurrentUser(c, session)
	require.NoError(t, err)
	assert.Equal(t, user, current)
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeBackend
		wantErr error
	}{
		{
			name:    "rejected credentials",
			backend: &fakeBackend{loginErr: &backend.RejectedError{StatusCode: 401, Message: "bad credentials"}},
		},
		{
			name:    "inactive user",
			backend: &fakeBackend{user: response.User{ID: 5, Active: false}},
			wantErr: inErrors.ErrForbidden,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := testContext()
			svc, provider, _ := newService(test.backend)
			session := internal.Session{ID: uuid.New()}

			_, _, err := svc.Login(c, session, request.Login{Email: "ana@mail.com", Password: "secret"})
			require.Error(t, err)
			if test.wantErr != nil {
				assert.ErrorIs(t, err, test.wantErr)
			}
			_, err = provider.Session(session.ID).Get(c, storage.KeyCurrentUser)
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}
}

func TestRegisterDefaultsRole(t *testing.T) {
	c := testContext()
	svc, _, _ := newService(&fakeBackend{})

	user, session, err := svc.Register(
		c,
		internal.Session{ID: uuid.New()},
		request.Register{Name: "Ana", Email: "ana@mail.com", Password: "secret"},
	)
	require.NoError(t, err)
	assert.Equal(t, constants.RoleUser, user.Role)
	assert.Equal(t, constants.RoleUser, session.Role)
	assert.True(t, session.Authenticated())
}

func TestLogout(t *testing.T) {
	c := testContext()
	b := &fakeBackend{user: response.User{ID: 5, Active: true}}
	svc, provider, carts := newService(b)

	_, session, err := svc.Login(c, internal.Session{ID: uuid.New()}, request.Login{})
	require.NoError(t, err)

	next, err := svc.Logout(c, session)
	require.NoError(t, err)
	assert.NotEqual(t, session.ID, next.ID)
	assert.False(t, next.Authenticated())
	assert.Equal(t, []uuid.UUID{session.ID}, carts.cleared)
	assert.Equal(t, []uuid.UUID{session.ID}, carts.released)

	_, err = provider.Session(session.ID).Get(c, storage.KeyCurrentUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = svc.CurrentUser(c, session)
	assert.ErrorIs(t, err, inErrors.ErrAuthRequired)
}

func TestLogoutRevokesSignedInToken(t *testing.T) {
	c := testContext()
	svc, provider, _ := newService(&fakeBackend{user: response.User{ID: 5, Role: constants.RoleUser, Active: true}})

	anonymous, err := svc.NewSession(c)
	require.NoError(t, err)
	_, signedIn, err := svc.Login(c, anonymous, request.Login{})
	require.NoError(t, err)
	next, err := svc.Logout(c, signedIn)
	require.NoError(t, err)

	tests := []struct {
		name       string
		token      string
		statusCode int
	}{
		{name: "given token replaced at sign in should be unauthorized", token: anonymous.Token, statusCode: http.StatusUnauthorized},
		{name: "given signed in token after sign out should be unauthorized", token: signedIn.Token, statusCode: http.StatusUnauthorized},
		{name: "given token issued at sign out should pass", token: next.Token, statusCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/carts/checkout", nil)
			r.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()

			middleware.Session(secretKey, provider)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})).ServeHTTP(w, r)

			assert.Equal(t, tt.statusCode, w.Code)
		})
	}
}

type unremovableProvider struct {
	*storage.MemoryProvider
}

type unremovableStore struct {
	storage.Store
}

func (unremovableStore) Remove(c context.Context, key string) error {
	return errors.New("connection refused")
}

func (p unremovableProvider) Session(id uuid.UUID) storage.Store {
	return unremovableStore{Store: p.MemoryProvider.Session(id)}
}

func TestLogoutFailsWhenTokenCannotBeRevoked(t *testing.T) {
	c := testContext()
	provider := unremovableProvider{MemoryProvider: storage.NewMemoryProvider()}
	svc := NewUserService(&fakeBackend{user: response.User{ID: 5, Active: true}}, provider, &fakeCarts{}, config.Application{
		SecretKey:  secretKey,
		SessionTTL: time.Hour,
	})

	_, signedIn, err := svc.Login(c, internal.Session{ID: uuid.New()}, request.Login{})
	require.NoError(t, err)

	_, err = svc.Logout(c, signedIn)
	require.Error(t, err)
	saved, err := provider.Session(signedIn.ID).Get(c, storage.KeySessionToken)
	require.NoError(t, err)
	assert.Equal(t, signedIn.Token, saved)
}

func TestUpdateProfileRefreshesCurrentUser(t *testing.T) {
	c := testContext()
	b := &fakeBackend{user: response.User{ID: 5, Name: "Ana", Active: true}}
	svc, _, _ := newService(b)

	_, session, err := svc.Login(c, internal.Session{ID: uuid.New()}, request.Login{})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(c, session, request.UpdateProfile{ID: 99, Name: "Ana Maria", Phone: "3001234567"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), b.updated.ID)

	current, err := svc.CurrentUser(c, session)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", current.Name)
	assert.Equal(t, "3001234567", current.Phone)
}

func TestDeleteOwnedRecords(t *testing.T) {
	b := &fakeBackend{
		addresses: []response.Address{{ID: 1, UserID: 5}},
		methods:   []response.PaymentMethod{{ID: 2, UserID: 5}},
	}
	tests := []struct {
		name    string
		delete  func(c context.Context, svc *UserService) error
		wantErr error
	}{
		{
			name:   "owned address",
			delete: func(c context.Context, svc *UserService) error { return svc.DeleteAddress(c, 5, 1) },
		},
		{
			name:    "foreign address",
			delete:  func(c context.Context, svc *UserService) error { return svc.DeleteAddress(c, 5, 8) },
			wantErr: inErrors.ErrNotOwned,
		},
		{
			name:   "owned payment method",
			delete: func(c context.Context, svc *UserService) error { return svc.DeletePaymentMethod(c, 5, 2) },
		},
		{
			name:    "foreign payment method",
			delete:  func(c context.Context, svc *UserService) error { return svc.DeletePaymentMethod(c, 5, 8) },
			wantErr: inErrors.ErrNotOwned,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b.deleted = nil
			svc, _, _ := newService(b)
			err := test.delete(testContext(), svc)
			if test.wantErr != nil {
				assert.ErrorIs(t, err, test.wantErr)
				assert.Empty(t, b.deleted)
				return
			}
			require.NoError(t, err)
			assert.Len(t, b.deleted, 1)
		})
	}
}

func TestPaymentMethodsAreMasked(t *testing.T) {
	c := testContext()
	b := &fakeBackend{
		methods: []response.PaymentMethod{{ID: 2, CardType: "VISA", CardNumber: "4111111111114242"}},
	}
	svc, _, _ := newService(b)

	methods, err := svc.PaymentMethods(c, 5)
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.NotContains(t, methods[0].CardNumber, "41111111")

	created, err := svc.CreatePaymentMethod(c, 5, request.PaymentMethod{CardType: "VISA", CardNumber: "4111111111114242"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), created.UserID)
	assert.NotContains(t, created.CardNumber, "41111111")
}

func TestDeleteUserRefusesSelf(t *testing.T) {
	c := testContext()
	b := &fakeBackend{}
	svc, _, _ := newService(b)
	admin := internal.Session{ID: uuid.New(), UserID: 1, Role: constants.RoleAdmin}

	assert.ErrorIs(t, svc.DeleteUser(c, admin, 1), inErrors.ErrSelfDelete)
	require.NoError(t, svc.DeleteUser(c, admin, 2))
	assert.Equal(t, []int64{2}, b.deleted)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/sneakerzone/internal"
	"github.com/Alturino/sneakerzone/internal/config"
	"github.com/Alturino/sneakerzone/internal/constants"
	inErrors "github.com/Alturino/sneakerzone/internal/errors"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/otel"
	"github.com/Alturino/sneakerzone/internal/storage"
	"github.com/Alturino/sneakerzone/user/pkg/request"
	"github.com/Alturino/sneakerzone/user/pkg/response"
)

type UserBackend interface {
	Login(c context.Context, param request.Login) (response.User, error)
	Register(c context.Context, param request.Register) (response.User, error)
	FindProfile(c context.Context, userID int64) (response.User, error)
	UpdateProfile(c context.Context, param request.UpdateProfile) (response.User, error)
	FindAddressesByUserID(c context.Context, userID int64) ([]response.Address, error)
	CreateAddress(c context.Context, param request.Address) (response.Address, error)
	DeleteAddress(c context.Context, id int64) error
	FindPaymentMethodsByUserID(c context.Context, userID int64) ([]response.PaymentMethod, error)
	CreatePaymentMethod(c context.Context, param request.PaymentMethod) (response.PaymentMethod, error)
	DeletePaymentMethod(c context.Context, id int64) error
	FindUsers(c context.Context) ([]response.User, error)
	DeleteUser(c context.Context, id int64) error
}

// Carts is the part of the cart registry that signing out needs.
type Carts interface {
	ClearSession(c context.Context, sessionID uuid.UUID)
	Release(sessionID uuid.UUID)
}

type UserService struct {
	backend  UserBackend
	provider storage.Provider
	carts    Carts
	config   config.Application
}

func NewUserService(
	backend UserBackend,
	provider storage.Provider,
	carts Carts,
	config config.Application,
) *UserService {
	return &UserService{backend: backend, provider: provider, carts: carts, config: config}
}

// issue signs a token for session and remembers it in the session store.
func (u *UserService) issue(c context.Context, session internal.Session) (internal.Session, error) {
	token, err := internal.IssueToken(c, u.config.SecretKey, u.config.SessionTTL, session)
	if err != nil {
		return internal.Session{}, err
	}
	session.Token = token
	if err = u.provider.Session(session.ID).Set(c, storage.KeySessionToken, token); err != nil {
		return internal.Session{}, fmt.Errorf("failed saving session token with error=%w", err)
	}
	return session, nil
}

func (u *UserService) NewSession(c context.Context) (internal.Session, error) {
	c, span := otel.Tracer.Start(c, "UserService NewSession")
	defer span.End()

	session := internal.Session{ID: uuid.New()}
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService NewSession").
		Str(log.KeySessionID, session.ID.String()).
		Str(log.KeyProcess, "issuing anonymous session").
		Logger()

	logger.Trace().Msg("issuing anonymous session")
	session, err := u.issue(c, session)
	if err != nil {
		err = fmt.Errorf("failed issuing anonymous session with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return internal.Session{}, err
	}
	logger.Debug().Msg("issued anonymous session")

	return session, nil
}

// signIn binds user to the visitor's existing session, so the cart built while anonymous is kept.
func (u *UserService) signIn(
	c context.Context,
	session internal.Session,
	user response.User,
) (internal.Session, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyProcess, "signing in").
		Int64(log.KeyUserID, user.ID).
		Logger()

	payload, err := json.Marshal(user)
	if err != nil {
		return internal.Session{}, fmt.Errorf("failed encoding current user with error=%w", err)
	}
	store := u.provider.Session(session.ID)
	if err = store.Set(c, storage.KeyCurrentUser, string(payload)); err != nil {
		return internal.Session{}, fmt.Errorf("failed saving current user with error=%w", err)
	}

	session.UserID = user.ID
	session.Role = user.Role
	session, err = u.issue(c, session)
	if err != nil {
		return internal.Session{}, err
	}
	logger.Debug().Msg("signed in")
	return session, nil
}

func (u *UserService) Login(
	c context.Context,
	session internal.Session,
	param request.Login,
) (response.User, internal.Session, error) {
	c, span := otel.Tracer.Start(c, "UserService Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Login").
		Str(log.KeyEmail, param.Email).
		Str(log.KeySessionID, session.ID.String()).
		Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "verifying credentials").Logger()
	logger.Info().Msg("verifying credentials")
	user, err := u.backend.Login(c, param)
	if err != nil {
		err = fmt.Errorf("failed verifying credentials with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, internal.Session{}, err
	}
	if !user.Active {
		err = fmt.Errorf("userId=%d is inactive with error=%w", user.ID, inErrors.ErrForbidden)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, internal.Session{}, err
	}
	logger.Info().Int64(log.KeyUserID, user.ID).Msg("verified credentials")

	session, err = u.signIn(c, session, user)
	if err != nil {
		err = fmt.Errorf("failed signing in with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, internal.Session{}, err
	}

	return user, session, nil
}

func (u *UserService) Register(
	c context.Context,
	session internal.Session,
	param request.Register,
) (response.User, internal.Session, error) {
	c, span := otel.Tracer.Start(c, "UserService Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Register").
		Str(log.KeyEmail, param.Email).
		Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "registering user").Logger()
	logger.Info().Msg("registering user")
	user, err := u.backend.Register(c, param)
	if err != nil {
		err = fmt.Errorf("failed registering user with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, internal.Session{}, err
	}
	if user.Role == "" {
		user.Role = constants.RoleUser
	}
	logger.Info().Int64(log.KeyUserID, user.ID).Msg("registered user")

	session, err = u.signIn(c, session, user)
	if err != nil {
		err = fmt.Errorf("failed signing in with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, internal.Session{}, err
	}

	return user, session, nil
}

// Logout empties the session's cart, forgets the user and token, and hands back a new anonymous
// session.
func (u *UserService) Logout(c context.Context, session internal.Session) (internal.Session, error) {
	c, span := otel.Tracer.Start(c, "UserService Logout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Logout").
		Str(log.KeySessionID, session.ID.String()).
		Int64(log.KeyUserID, session.UserID).
		Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "clearing session").Logger()
	logger.Info().Msg("clearing session")
	u.carts.ClearSession(c, session.ID)
	store := u.provider.Session(session.ID)
	if err := store.Remove(c, storage.KeyCurrentUser); err != nil {
		err = fmt.Errorf("failed removing key=%s with error=%w", storage.KeyCurrentUser, err)
		otel.RecordError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
	}
	// the session token stays valid for as long as this record exists
	if err := store.Remove(c, storage.KeySessionToken); err != nil {
		err = fmt.Errorf("failed revoking session token with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return internal.Session{}, err
	}
	u.carts.Release(session.ID)
	logger.Info().Msg("cleared session")

	return u.NewSession(c)
}

// CurrentUser returns the user saved at sign in.
func (u *UserService) CurrentUser(c context.Context, session internal.Session) (response.User, error) {
	c, span := otel.Tracer.Start(c, "UserService CurrentUser")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService CurrentUser").
		Str(log.KeySessionID, session.ID.String()).
		Str(log.KeyStorageKey, storage.KeyCurrentUser).
		Logger()

	raw, err := u.provider.Session(session.ID).Get(c, storage.KeyCurrentUser)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = fmt.Errorf("%w: %w", inErrors.ErrAuthRequired, err)
		}
		err = fmt.Errorf("failed reading current user with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	user := response.User{}
	if err = json.Unmarshal([]byte(raw), &user); err != nil {
		err = fmt.Errorf("failed decoding current user with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	return user, nil
}

func (u *UserService) Profile(c context.Context, userID int64) (response.User, error) {
	c, span := otel.Tracer.Start(c, "UserService Profile")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Profile").
		Int64(log.KeyUserID, userID).
		Logger()

	user, err := u.backend.FindProfile(c, userID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	return user, nil
}

// UpdateProfile also refreshes the saved current user of session.
func (u *UserService) UpdateProfile(
	c context.Context,
	session internal.Session,
	param request.UpdateProfile,
) (response.User, error) {
	c, span := otel.Tracer.Start(c, "UserService UpdateProfile")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService UpdateProfile").
		Int64(log.KeyUserID, session.UserID).
		Logger()
	c = logger.WithContext(c)

	param.ID = session.UserID
	logger = logger.With().Str(log.KeyProcess, "updating profile").Logger()
	logger.Info().Msg("updating profile")
	user, err := u.backend.UpdateProfile(c, param)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Info().Msg("updated profile")

	current, err := u.CurrentUser(c, session)
	if err != nil {
		logger.Warn().Err(err).Msg("skipped refreshing current user")
		return user, nil
	}
	current.Name = user.Name
	current.Phone = user.Phone
	current.BirthDate = user.BirthDate
	if payload, err := json.Marshal(current); err == nil {
		err = u.provider.Session(session.ID).Set(c, storage.KeyCurrentUser, string(payload))
		if err != nil {
			otel.RecordError(err, span)
			logger.Warn().Err(err).Msg("failed refreshing current user")
		}
	}

	return user, nil
}

func (u *UserService) Addresses(c context.Context, userID int64) ([]response.Address, error) {
	c, span := otel.Tracer.Start(c, "UserService Addresses")
	defer span.End()

	addresses, err := u.backend.FindAddressesByUserID(c, userID)
	if err != nil {
		otel.RecordError(err, span)
		zerolog.Ctx(c).Error().Err(err).Int64(log.KeyUserID, userID).Msg(err.Error())
		return nil, err
	}
	return addresses, nil
}

func (u *UserService) CreateAddress(
	c context.Context,
	userID int64,
	param request.Address,
) (response.Address, error) {
	c, span := otel.Tracer.Start(c, "UserService CreateAddress")
	defer span.End()

	param.UserID = userID
	address, err := u.backend.CreateAddress(c, param)
	if err != nil {
		otel.RecordError(err, span)
		zerolog.Ctx(c).Error().Err(err).Int64(log.KeyUserID, userID).Msg(err.Error())
		return response.Address{}, err
	}
	return address, nil
}

// DeleteAddress only deletes addresses saved by userID.
func (u *UserService) DeleteAddress(c context.Context, userID int64, id int64) error {
	c, span := otel.Tracer.Start(c, "UserService DeleteAddress")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService DeleteAddress").
		Int64(log.KeyUserID, userID).
		Int64(log.KeyAddressID, id).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "verifying owner").Logger()
	addresses, err := u.backend.FindAddressesByUserID(c, userID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	owned := false
	for _, address := range addresses {
		owned = owned || address.ID == id
	}
	if !owned {
		err = fmt.Errorf("addressId=%d with error=%w", id, inErrors.ErrNotOwned)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "deleting address").Logger()
	if err = u.backend.DeleteAddress(c, id); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted address")
	return nil
}

// PaymentMethods never exposes full card numbers.
func (u *UserService) PaymentMethods(c context.Context, userID int64) ([]response.PaymentMethod, error) {
	c, span := otel.Tracer.Start(c, "UserService PaymentMethods")
	defer span.End()

	methods, err := u.backend.FindPaymentMethodsByUserID(c, userID)
	if err != nil {
		otel.RecordError(err, span)
		zerolog.Ctx(c).Error().Err(err).Int64(log.KeyUserID, userID).Msg(err.Error())
		return nil, err
	}
	masked := make([]response.PaymentMethod, len(methods))
	for i, method := range methods {
		masked[i] = method.Masked()
	}
	return masked, nil
}

func (u *UserService) CreatePaymentMethod(
	c context.Context,
	userID int64,
	param request.PaymentMethod,
) (response.PaymentMethod, error) {
	c, span := otel.Tracer.Start(c, "UserService CreatePaymentMethod")
	defer span.End()

	param.UserID = userID
	method, err := u.backend.CreatePaymentMethod(c, param)
	if err != nil {
		otel.RecordError(err, span)
		zerolog.Ctx(c).Error().Err(err).Int64(log.KeyUserID, userID).Msg(err.Error())
		return response.PaymentMethod{}, err
	}
	return method.Masked(), nil
}

func (u *UserService) DeletePaymentMethod(c context.Context, userID int64, id int64) error {
	c, span := otel.Tracer.Start(c, "UserService DeletePaymentMethod")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService DeletePaymentMethod").
		Int64(log.KeyUserID, userID).
		Int64(log.KeyPaymentMethodID, id).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "verifying owner").Logger()
	methods, err := u.backend.FindPaymentMethodsByUserID(c, userID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	owned := false
	for _, method := range methods {
		owned = owned || method.ID == id
	}
	if !owned {
		err = fmt.Errorf("paymentMethodId=%d with error=%w", id, inErrors.ErrNotOwned)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "deleting payment method").Logger()
	if err = u.backend.DeletePaymentMethod(c, id); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted payment method")
	return nil
}

func (u *UserService) Users(c context.Context) ([]response.User, error) {
	c, span := otel.Tracer.Start(c, "UserService Users")
	defer span.End()

	users, err := u.backend.FindUsers(c)
	if err != nil {
		otel.RecordError(err, span)
		zerolog.Ctx(c).Error().Err(err).Msg(err.Error())
		return nil, err
	}
	return users, nil
}

func (u *UserService) DeleteUser(c context.Context, session internal.Session, id int64) error {
	c, span := otel.Tracer.Start(c, "UserService DeleteUser")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService DeleteUser").
		Int64(log.KeyUserID, id).
		Logger()

	if id == session.UserID {
		err := fmt.Errorf("userId=%d with error=%w", id, inErrors.ErrSelfDelete)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if err := u.backend.DeleteUser(c, id); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted user")
	return nil
}

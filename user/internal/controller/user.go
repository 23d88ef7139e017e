package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/sneakerzone/internal"
	"github.com/Alturino/sneakerzone/internal/backend"
	"github.com/Alturino/sneakerzone/internal/constants"
	inErrors "github.com/Alturino/sneakerzone/internal/errors"
	inHttp "github.com/Alturino/sneakerzone/internal/http"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/middleware"
	"github.com/Alturino/sneakerzone/internal/otel"
	"github.com/Alturino/sneakerzone/user/internal/service"
	"github.com/Alturino/sneakerzone/user/pkg/request"
)

type UserController struct {
	service *service.UserService
}

func AttachUserController(router *mux.Router, service *service.UserService, session mux.MiddlewareFunc) {
	controller := UserController{service: service}

	router.HandleFunc("/sessions", controller.NewSession).Methods(http.MethodPost)

	users := router.PathPrefix("/users").Subrouter()
	users.Use(session)
	users.HandleFunc("/login", controller.Login).Methods(http.MethodPost)
	users.HandleFunc("/register", controller.Register).Methods(http.MethodPost)
	users.HandleFunc("/logout", controller.Logout).Methods(http.MethodPost)

	signedIn := func(path string, handler http.HandlerFunc, method string) {
		users.Handle(path, middleware.RequireUser(handler)).Methods(method)
	}
	signedIn("/me", controller.CurrentUser, http.MethodGet)
	signedIn("/profile", controller.Profile, http.MethodGet)
	signedIn("/profile", controller.UpdateProfile, http.MethodPut)
	signedIn("/addresses", controller.Addresses, http.MethodGet)
	signedIn("/addresses", controller.CreateAddress, http.MethodPost)
	signedIn("/addresses/{addressId}", controller.DeleteAddress, http.MethodDelete)
	signedIn("/payment-methods", controller.PaymentMethods, http.MethodGet)
	signedIn("/payment-methods", controller.CreatePaymentMethod, http.MethodPost)
	signedIn("/payment-methods/{paymentMethodId}", controller.DeletePaymentMethod, http.MethodDelete)

	admin := router.PathPrefix("/admin/users").Subrouter()
	admin.Use(session, middleware.RequireRole(constants.RoleAdmin))
	admin.HandleFunc("", controller.Users).Methods(http.MethodGet)
	admin.HandleFunc("/{userId}", controller.DeleteUser).Methods(http.MethodDelete)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, inErrors.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, inErrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, inErrors.ErrNotOwned):
		return http.StatusNotFound
	case errors.Is(err, inErrors.ErrSelfDelete):
		return http.StatusConflict
	}
	return backend.StatusCode(err)
}

func writeSession(
	w http.ResponseWriter,
	r *http.Request,
	message string,
	session internal.Session,
	data map[string]interface{},
) {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["session"] = session
	data["token"] = session.Token
	inHttp.WriteSuccess(r.Context(), w, message, data)
}

func (ctrl UserController) NewSession(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController NewSession")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController NewSession").
		Str(log.KeyProcess, "issuing session").
		Logger()

	logger.Trace().Msg("issuing session")
	session, err := ctrl.service.NewSession(logger.WithContext(c))
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusInternalServerError, "failed issuing session")
		return
	}
	logger.Info().Str(log.KeySessionID, session.ID.String()).Msg("issued session")

	writeSession(w, r.WithContext(c), "session issued", session, nil)
}

func (ctrl UserController) Login(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController Login").
		Str(log.KeyProcess, "validating request body").
		Logger()

	logger.Trace().Msg("validating request body")
	reqBody, err := inHttp.DecodeBody[request.Login](r.WithContext(c))
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	logger = logger.With().Str(log.KeyEmail, reqBody.Email).Logger()
	logger.Trace().Msg("validated request body")

	session, _ := internal.SessionFromContext(c)
	logger = logger.With().Str(log.KeyProcess, "signing in").Logger()
	logger.Info().Msg("signing in")
	c = logger.WithContext(c)
	user, session, err := ctrl.service.Login(c, session, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}
	logger.Info().Int64(log.KeyUserID, user.ID).Msg("signed in")

	writeSession(w, r.WithContext(c), "signed in", session, map[string]interface{}{"user": user})
}

func (ctrl UserController) Register(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController Register").
		Str(log.KeyProcess, "validating request body").
		Logger()

	logger.Trace().Msg("validating request body")
	reqBody, err := inHttp.DecodeBody[request.Register](r.WithContext(c))
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	logger = logger.With().Str(log.KeyEmail, reqBody.Email).Logger()
	logger.Trace().Msg("validated request body")

	session, _ := internal.SessionFromContext(c)
	logger = logger.With().Str(log.KeyProcess, "registering user").Logger()
	logger.Info().Msg("registering user")
	c = logger.WithContext(c)
	user, session, err := ctrl.service.Register(c, session, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}
	logger.Info().Int64(log.KeyUserID, user.ID).Msg("registered user")

	writeSession(w, r.WithContext(c), "registered", session, map[string]interface{}{"user": user})
}

func (ctrl UserController) Logout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Logout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController Logout").
		Str(log.KeyProcess, "signing out").
		Logger()

	session, _ := internal.SessionFromContext(c)
	logger.Info().Msg("signing out")
	next, err := ctrl.service.Logout(logger.WithContext(c), session)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusInternalServerError, "failed signing out")
		return
	}
	logger.Info().Msg("signed out")

	writeSession(w, r.WithContext(c), "signed out", next, nil)
}

func (ctrl UserController) CurrentUser(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController CurrentUser")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController CurrentUser").Logger()

	session, _ := internal.SessionFromContext(c)
	user, err := ctrl.service.CurrentUser(logger.WithContext(c), session)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), inErrors.ErrAuthRequired.Error())
		return
	}

	inHttp.WriteSuccess(c, w, "found current user", map[string]interface{}{"user": user})
}

func (ctrl UserController) Profile(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Profile")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController Profile").Logger()

	session, _ := internal.SessionFromContext(c)
	user, err := ctrl.service.Profile(logger.WithContext(c), session.UserID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}

	inHttp.WriteSuccess(c, w, "found profile", map[string]interface{}{"user": user})
}

func (ctrl UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController UpdateProfile")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController UpdateProfile").
		Str(log.KeyProcess, "validating request body").
		Logger()

	reqBody, err := inHttp.DecodeBody[request.UpdateProfile](r.WithContext(c))
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}

	session, _ := internal.SessionFromContext(c)
	logger = logger.With().Str(log.KeyProcess, "updating profile").Logger()
	user, err := ctrl.service.UpdateProfile(logger.WithContext(c), session, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}
	logger.Info().Msg("updated profile")

	inHttp.WriteSuccess(c, w, "updated profile", map[string]interface{}{"user": user})
}

func (ctrl UserController) Addresses(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Addresses")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController Addresses").Logger()

	session, _ := internal.SessionFromContext(c)
	addresses, err := ctrl.service.Addresses(logger.WithContext(c), session.UserID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}

	inHttp.WriteSuccess(c, w, "found addresses", map[string]interface{}{"addresses": addresses})
}

func (ctrl UserController) CreateAddress(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController CreateAddress")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController CreateAddress").
		Str(log.KeyProcess, "validating request body").
		Logger()

	reqBody, err := inHttp.DecodeBody[request.Address](r.WithContext(c))
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}

	session, _ := internal.SessionFromContext(c)
	logger = logger.With().Str(log.KeyProcess, "creating address").Logger()
	address, err := ctrl.service.CreateAddress(logger.WithContext(c), session.UserID, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}
	logger.Info().Int64(log.KeyAddressID, address.ID).Msg("created address")

	inHttp.WriteSuccess(c, w, "created address", map[string]interface{}{"address": address})
}

func (ctrl UserController) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController DeleteAddress")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController DeleteAddress").Logger()

	addressID, err := inHttp.PathID(r, "addressId")
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}

	session, _ := internal.SessionFromContext(c)
	if err = ctrl.service.DeleteAddress(logger.WithContext(c), session.UserID, addressID); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}

	inHttp.WriteSuccess(c, w, fmt.Sprintf("deleted addressId=%d", addressID), nil)
}

func (ctrl UserController) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController PaymentMethods")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController PaymentMethods").Logger()

	session, _ := internal.SessionFromContext(c)
	methods, err := ctrl.service.PaymentMethods(logger.WithContext(c), session.UserID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}

	inHttp.WriteSuccess(c, w, "found payment methods", map[string]interface{}{"paymentMethods": methods})
}

func (ctrl UserController) CreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController CreatePaymentMethod")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController CreatePaymentMethod").
		Str(log.KeyProcess, "validating request body").
		Logger()

	reqBody, err := inHttp.DecodeBody[request.PaymentMethod](r.WithContext(c))
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}

	session, _ := internal.SessionFromContext(c)
	logger = logger.With().Str(log.KeyProcess, "creating payment method").Logger()
	method, err := ctrl.service.CreatePaymentMethod(logger.WithContext(c), session.UserID, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}
	logger.Info().Int64(log.KeyPaymentMethodID, method.ID).Msg("created payment method")

	inHttp.WriteSuccess(c, w, "created payment method", map[string]interface{}{"paymentMethod": method})
}

func (ctrl UserController) DeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController DeletePaymentMethod")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController DeletePaymentMethod").Logger()

	methodID, err := inHttp.PathID(r, "paymentMethodId")
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}

	session, _ := internal.SessionFromContext(c)
	if err = ctrl.service.DeletePaymentMethod(logger.WithContext(c), session.UserID, methodID); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}

	inHttp.WriteSuccess(c, w, fmt.Sprintf("deleted paymentMethodId=%d", methodID), nil)
}

func (ctrl UserController) Users(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Users")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController Users").Logger()

	users, err := ctrl.service.Users(logger.WithContext(c))
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}

	inHttp.WriteSuccess(c, w, "found users", map[string]interface{}{
		"users": users,
		"total": len(users),
	})
}

func (ctrl UserController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController DeleteUser")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController DeleteUser").Logger()

	userID, err := inHttp.PathID(r, "userId")
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}

	session, _ := internal.SessionFromContext(c)
	if err = ctrl.service.DeleteUser(logger.WithContext(c), session, userID); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}

	inHttp.WriteSuccess(c, w, fmt.Sprintf("deleted userId=%d", userID), nil)
}

package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/sneakerzone/internal"
	inErrors "github.com/Alturino/sneakerzone/internal/errors"
	inHttp "github.com/Alturino/sneakerzone/internal/http"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/otel"
	"github.com/Alturino/sneakerzone/internal/storage"
)

func bearerToken(r *http.Request) string {
	authorization := r.Header.Get(inHttp.KeyHeaderAuthorization)
	if len(authorization) > len("bearer ") &&
		strings.EqualFold(authorization[:len("bearer ")], "bearer ") {
		return authorization[len("bearer "):]
	}
	if token := r.Header.Get(inHttp.KeyHeaderSessionToken); token != "" {
		return token
	}
	// browsers cannot set headers on a websocket handshake
	return r.URL.Query().Get("token")
}

// Session verifies the session token and attaches the session to the request context. The token
// must also be the one currently saved for its session, so tokens replaced at sign-in or removed
// at sign-out are refused.
func Session(secretKey string, provider storage.Provider) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, span := otel.Tracer.Start(r.Context(), "middleware Session")
			defer span.End()

			logger := zerolog.Ctx(c).
				With().
				Str(log.KeyTag, "middleware Session").
				Logger()
			c = logger.WithContext(c)

			token := bearerToken(r)
			if token == "" {
				logger.Error().
					Err(inErrors.ErrEmptyAuth).
					Msg(inErrors.ErrEmptyAuth.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrEmptyAuth.Error())
				return
			}

			session, err := internal.VerifyToken(c, secretKey, token)
			if err != nil {
				otel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrTokenInvalid.Error())
				return
			}

			logger = logger.With().
				Str(log.KeySessionID, session.ID.String()).
				Int64(log.KeyUserID, session.UserID).
				Str(log.KeyProcess, "finding saved session token").
				Logger()
			c = logger.WithContext(c)

			logger.Trace().Msg("finding saved session token")
			saved, err := provider.Session(session.ID).Get(c, storage.KeySessionToken)
			if errors.Is(err, storage.ErrNotFound) ||
				(err == nil && subtle.ConstantTimeCompare([]byte(saved), []byte(token)) != 1) {
				otel.RecordError(inErrors.ErrTokenRevoked, span)
				logger.Error().
					Err(inErrors.ErrTokenRevoked).
					Msg(inErrors.ErrTokenRevoked.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrTokenRevoked.Error())
				return
			}
			if err != nil {
				err = fmt.Errorf("failed finding saved session token with error=%w", err)
				otel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteFailed(c, w, http.StatusServiceUnavailable, err.Error())
				return
			}
			logger.Trace().Msg("found saved session token")

			c = internal.AttachSession(c, session)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}

// RequireRole must run after Session.
func RequireRole(roles ...string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := r.Context()
			logger := zerolog.Ctx(c).With().Str(log.KeyTag, "middleware RequireRole").Logger()

			session, ok := internal.SessionFromContext(c)
			if !ok {
				logger.Error().
					Err(inErrors.ErrSessionMissing).
					Msg(inErrors.ErrSessionMissing.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrSessionMissing.Error())
				return
			}
			for _, role := range roles {
				if session.Authenticated() && session.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Error().
				Str(log.KeyRole, session.Role).
				Err(inErrors.ErrForbidden).
				Msg(inErrors.ErrForbidden.Error())
			inHttp.WriteFailed(c, w, http.StatusForbidden, inErrors.ErrForbidden.Error())
		})
	}
}

// RequireUser rejects anonymous sessions. It must run after Session.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := r.Context()
		session, ok := internal.SessionFromContext(c)
		if !ok || !session.Authenticated() {
			logger := zerolog.Ctx(c).With().Str(log.KeyTag, "middleware RequireUser").Logger()
			logger.Error().
				Err(inErrors.ErrAuthRequired).
				Msg(inErrors.ErrAuthRequired.Error())
			inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrAuthRequired.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

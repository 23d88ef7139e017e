package internal

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/sneakerzone/internal/constants"
	"github.com/Alturino/sneakerzone/internal/errors"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/otel"
)

// Session identifies one visitor. UserID is zero until the visitor signs in.
type Session struct {
	ID     uuid.UUID `json:"id"`
	UserID int64     `json:"userId"`
	Role   string    `json:"role,omitempty"`
	Token  string    `json:"-"`
}

func (s Session) Authenticated() bool {
	return s.UserID > 0
}

type SessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

func IssueToken(
	c context.Context,
	secretKey string,
	ttl time.Duration,
	session Session,
) (string, error) {
	c, span := otel.Tracer.Start(c, "IssueToken")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "IssueToken").
		Str(log.KeySessionID, session.ID.String()).
		Int64(log.KeyUserID, session.UserID).
		Logger()

	subject := ""
	if session.Authenticated() {
		subject = strconv.FormatInt(session.UserID, 10)
	}

	logger = logger.With().Str(log.KeyProcess, "signing token").Logger()
	logger.Trace().Msg("signing token")
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID.String(),
			Audience:  jwt.ClaimStrings{constants.AudienceStorefront},
			Issuer:    constants.AppStorefront,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: session.Role,
	})
	signed, err := token.SignedString([]byte(secretKey))
	if err != nil {
		err = fmt.Errorf("failed signing token with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Trace().Msg("signed token")

	return signed, nil
}

func VerifyToken(c context.Context, secretKey string, token string) (Session, error) {
	c, span := otel.Tracer.Start(c, "VerifyToken")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "VerifyToken").
		Str(log.KeyProcess, "parsing claims").
		Logger()

	logger.Trace().Msg("parsing claims")
	claims := &SessionClaims{}
	jwtToken, err := jwt.ParseWithClaims(token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		},
		jwt.WithAudience(constants.AudienceStorefront),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(constants.AppStorefront),
	)
	if err != nil {
		err = fmt.Errorf("failed parsing claims with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Session{}, fmt.Errorf("%w: %w", errors.ErrTokenInvalid, err)
	}
	if !jwtToken.Valid {
		err = fmt.Errorf("failed validating token with error=%w", errors.ErrTokenInvalid)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Session{}, errors.ErrTokenInvalid
	}
	logger.Trace().Msg("parsed claims")

	logger = logger.With().Str(log.KeyProcess, "parsing session id").Logger()
	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		err = fmt.Errorf("failed parsing session id=%s with error=%w", claims.ID, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Session{}, fmt.Errorf("%w: %w", errors.ErrTokenInvalid, err)
	}

	session := Session{ID: sessionID, Role: claims.Role, Token: token}
	if claims.Subject != "" {
		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			err = fmt.Errorf("failed parsing subject=%s with error=%w", claims.Subject, err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return Session{}, fmt.Errorf("%w: %w", errors.ErrTokenInvalid, err)
		}
		session.UserID = userID
	}
	logger.Trace().
		Str(log.KeySessionID, session.ID.String()).
		Int64(log.KeyUserID, session.UserID).
		Msg("verified token")

	return session, nil
}

type sessionKey struct{}

func AttachSession(c context.Context, session Session) context.Context {
	return context.WithValue(c, sessionKey{}, session)
}

func SessionFromContext(c context.Context) (Session, bool) {
	session, ok := c.Value(sessionKey{}).(Session)
	return session, ok
}

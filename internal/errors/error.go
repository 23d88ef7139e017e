package errors

import (
	"errors"
)

var (
	ErrEmptyAuth        = errors.New("missing authorization")
	ErrTokenInvalid     = errors.New("invalid token")
	ErrTokenRevoked     = errors.New("session token is no longer valid")
	ErrSessionMissing   = errors.New("missing session")
	ErrForbidden        = errors.New("insufficient role")
	ErrOutOfStock       = errors.New("product is out of stock")
	ErrProductInactive  = errors.New("product is not active")
	ErrProductNotFound  = errors.New("product not found")
	ErrUnknownStorage   = errors.New("unknown storage driver")
	ErrInvalidPathValue = errors.New("invalid path value")
	ErrAuthRequired     = errors.New("sign in required")
	ErrNotOwned         = errors.New("record does not belong to the current user")
	ErrSelfDelete       = errors.New("cannot delete the signed in account")
	ErrOrderNotFound    = errors.New("order not found")
)

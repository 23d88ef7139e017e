package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/sneakerzone/cart/pkg/request"
	"github.com/Alturino/sneakerzone/cart/pkg/response"
	"github.com/Alturino/sneakerzone/internal/backend"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/metrics"
	"github.com/Alturino/sneakerzone/internal/otel"
	orderReq "github.com/Alturino/sneakerzone/order/pkg/request"
	orderRes "github.com/Alturino/sneakerzone/order/pkg/response"
	userRes "github.com/Alturino/sneakerzone/user/pkg/response"
)

type CheckoutState string

const (
	StateIdle       CheckoutState = "IDLE"
	StateValidating CheckoutState = "VALIDATING"
	StateSubmitting CheckoutState = "SUBMITTING"
	StateSucceeded  CheckoutState = "SUCCEEDED"
	StateFailed     CheckoutState = "FAILED"
)

type RejectionReason string

const (
	ReasonAuthRequired     RejectionReason = "AUTH_REQUIRED"
	ReasonEmptyCart        RejectionReason = "EMPTY_CART"
	ReasonAddressRequired  RejectionReason = "ADDRESS_REQUIRED"
	ReasonPaymentRequired  RejectionReason = "PAYMENT_REQUIRED"
	ReasonBackendRejected  RejectionReason = "BACKEND_REJECTED"
	ReasonTransportFailure RejectionReason = "TRANSPORT_FAILURE"
)

const (
	msgSubmissionFailed = "failed submitting order"
	msgUnreachable      = "could not reach the store backend"
)

var (
	ErrAuthRequired     = errors.New("sign in to place an order")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrAddressRequired  = errors.New("select a shipping address")
	ErrPaymentRequired  = errors.New("select a payment method")
	ErrBackendRejected  = errors.New("order rejected by the store backend")
	ErrTransportFailure = errors.New(msgUnreachable)
)

// CheckoutError is a failed checkout attempt. Message is what the visitor should see.
type CheckoutError struct {
	Reason  RejectionReason
	Message string
	Err     error
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout failed reason=%s message=%s", e.Reason, e.Message)
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}

type CheckoutResult struct {
	State   CheckoutState   `json:"state"`
	Reason  RejectionReason `json:"reason,omitempty"`
	Message string          `json:"message"`
	Order   orderRes.Order  `json:"order"`
}

type CheckoutBackend interface {
	FindAddressesByUserID(c context.Context, userID int64) ([]userRes.Address, error)
	FindPaymentMethodsByUserID(c context.Context, userID int64) ([]userRes.PaymentMethod, error)
	CreateOrder(c context.Context, param orderReq.CreateOrder) (orderRes.Order, error)
}

type CheckoutService struct {
	backend CheckoutBackend
	metrics *metrics.Metrics
}

func NewCheckoutService(backend CheckoutBackend, m *metrics.Metrics) *CheckoutService {
	return &CheckoutService{backend: backend, metrics: m}
}

type attempt struct {
	state  CheckoutState
	logger zerolog.Logger
	span   trace.Span
}

func (a *attempt) transition(to CheckoutState) {
	a.logger.Info().
		Str("from", string(a.state)).
		Str("to", string(to)).
		Msg("checkout transition")
	a.span.AddEvent(string(to))
	a.state = to
}

func (svc *CheckoutService) fail(
	a *attempt,
	reason RejectionReason,
	message string,
	err error,
) (CheckoutResult, error) {
	a.transition(StateFailed)
	checkoutErr := &CheckoutError{Reason: reason, Message: message, Err: err}
	otel.RecordError(checkoutErr, a.span)
	a.logger.Error().
		Err(err).
		Str(log.KeyCheckoutReason, string(reason)).
		Msg(checkoutErr.Error())
	if svc.metrics != nil {
		svc.metrics.CheckoutAttempts.WithLabelValues(string(StateFailed), string(reason)).Inc()
	}
	return CheckoutResult{State: StateFailed, Reason: reason, Message: message}, checkoutErr
}

// backendFailure maps a backend error onto TRANSPORT_FAILURE or BACKEND_REJECTED.
func (svc *CheckoutService) backendFailure(a *attempt, err error) (CheckoutResult, error) {
	if errors.Is(err, backend.ErrUnreachable) {
		return svc.fail(a, ReasonTransportFailure, msgUnreachable, fmt.Errorf("%w: %w", ErrTransportFailure, err))
	}
	message := msgSubmissionFailed
	var rejected *backend.RejectedError
	if errors.As(err, &rejected) && rejected.Message != "" {
		message = rejected.Message
	}
	return svc.fail(a, ReasonBackendRejected, message, fmt.Errorf("%w: %w", ErrBackendRejected, err))
}

// SubmitCheckout turns the cart into an order. Preconditions are checked locally before any
// backend call; the cart is cleared only when the backend accepts the order.
func (svc *CheckoutService) SubmitCheckout(
	c context.Context,
	store *CartStore,
	param request.Checkout,
) (CheckoutResult, error) {
	c, span := otel.Tracer.Start(
		c,
		"CheckoutService SubmitCheckout",
		trace.WithAttributes(
			attribute.Int64(log.KeyUserID, param.UserID),
			attribute.Int64(log.KeyAddressID, param.ShippingAddressID),
			attribute.Int64(log.KeyPaymentMethodID, param.PaymentMethodID),
		),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService SubmitCheckout").
		Int64(log.KeyUserID, param.UserID).
		Int64(log.KeyAddressID, param.ShippingAddressID).
		Int64(log.KeyPaymentMethodID, param.PaymentMethodID).
		Logger()
	c = logger.WithContext(c)

	a := &attempt{state: StateIdle, logger: logger, span: span}

	a.transition(StateValidating)
	if param.UserID <= 0 {
		return svc.fail(a, ReasonAuthRequired, ErrAuthRequired.Error(), ErrAuthRequired)
	}
	cart := response.NewCart(store.Snapshot())
	if len(cart.Lines) == 0 {
		return svc.fail(a, ReasonEmptyCart, ErrEmptyCart.Error(), ErrEmptyCart)
	}
	if param.ShippingAddressID <= 0 {
		return svc.fail(a, ReasonAddressRequired, ErrAddressRequired.Error(), ErrAddressRequired)
	}
	if param.PaymentMethodID <= 0 {
		return svc.fail(a, ReasonPaymentRequired, ErrPaymentRequired.Error(), ErrPaymentRequired)
	}

	a.transition(StateSubmitting)

	logger = logger.With().Str(log.KeyProcess, "resolving shipping address").Logger()
	logger.Debug().Msg("resolving shipping address")
	addresses, err := svc.backend.FindAddressesByUserID(c, param.UserID)
	if err != nil {
		return svc.backendFailure(a, err)
	}
	found := false
	for _, address := range addresses {
		if address.ID == param.ShippingAddressID {
			found = true
			break
		}
	}
	if !found {
		err = fmt.Errorf("%w: addressId=%d is not saved", ErrAddressRequired, param.ShippingAddressID)
		return svc.fail(a, ReasonAddressRequired, ErrAddressRequired.Error(), err)
	}
	logger.Debug().Msg("resolved shipping address")

	logger = logger.With().Str(log.KeyProcess, "resolving payment method").Logger()
	logger.Debug().Msg("resolving payment method")
	methods, err := svc.backend.FindPaymentMethodsByUserID(c, param.UserID)
	if err != nil {
		return svc.backendFailure(a, err)
	}
	descriptor := ""
	for _, method := range methods {
		if method.ID == param.PaymentMethodID {
			descriptor = method.Descriptor()
			break
		}
	}
	if descriptor == "" {
		err = fmt.Errorf("%w: paymentMethodId=%d is not saved", ErrPaymentRequired, param.PaymentMethodID)
		return svc.fail(a, ReasonPaymentRequired, ErrPaymentRequired.Error(), err)
	}
	logger.Debug().Msg("resolved payment method")

	logger = logger.With().Str(log.KeyProcess, "submitting order").Logger()
	order := cart.Order(param.UserID, param.ShippingAddressID, descriptor)
	logger.Info().
		Str(log.KeyCartTotal, order.Total.String()).
		Int(log.KeyCartLines, len(order.Lines)).
		Msg("submitting order")
	created, err := svc.backend.CreateOrder(c, order)
	if err != nil {
		return svc.backendFailure(a, err)
	}
	logger.Info().Int64(log.KeyOrderID, created.ID).Msg("submitted order")

	store.Clear(c)
	a.transition(StateSucceeded)
	if svc.metrics != nil {
		svc.metrics.CheckoutAttempts.WithLabelValues(string(StateSucceeded), "").Inc()
	}

	return CheckoutResult{State: StateSucceeded, Message: "order placed", Order: created}, nil
}

package checkout

import (
	"context"
	"fmt"

	"github.com/artvinci/artvinci-go/internal/api"
	"github.com/artvinci/artvinci-go/internal/cart"
	pkgerrors "github.com/artvinci/artvinci-go/pkg/errors"
	"github.com/artvinci/artvinci-go/pkg/logger"
	"github.com/artvinci/artvinci-go/pkg/stripe"
)

// cartStore is the slice of the cart the checkout flow needs.
type cartStore interface {
	Lines() []cart.Line
	Clear(ctx context.Context)
}

// salesAPI is the slice of the backend client the checkout flow drives.
type salesAPI interface {
	CreatePaymentIntent(ctx context.Context, req api.PaymentIntentRequest) (*api.PaymentIntentResponse, error)
	ConfirmPayment(ctx context.Context, req api.ConfirmPaymentRequest) (*api.ConfirmPaymentResponse, error)
}

// confirmer captures the charge against the payment processor.
type confirmer interface {
	ConfirmCardPayment(ctx context.Context, clientSecret, paymentMethodID string) (*stripe.ConfirmResult, error)
}

// UnrecordedPaymentError means the card was charged but the backend never
// acknowledged the order. The cart is left intact and support needs the
// intent id to reconcile.
type UnrecordedPaymentError struct {
	IntentID string
	Err      error
}

func (e *UnrecordedPaymentError) Error() string {
	return fmt.Sprintf("payment %s captured but order confirmation failed: %v", e.IntentID, e.Err)
}

func (e *UnrecordedPaymentError) Unwrap() error {
	return e.Err
}

// Service turns the cart into a paid order.
type Service struct {
	cart      cartStore
	sales     salesAPI
	confirmer confirmer
	logg      *logger.Logger
}

// ServiceParams bundles the dependencies required to build the service.
type ServiceParams struct {
	Cart      cartStore
	Sales     salesAPI
	Confirmer confirmer
	Logger    *logger.Logger
}

// Request carries the buyer's checkout form.
type Request struct {
	ShippingAddress string
	PhoneNumber     string
	Notes           string
	PaymentMethodID string
}

// Result is the finalized purchase.
type Result struct {
	Order    *api.Order
	IntentID string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart store is required")
	}
	if params.Sales == nil {
		return nil, fmt.Errorf("sales api is required")
	}
	if params.Confirmer == nil {
		return nil, fmt.Errorf("payment confirmer is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{
		cart:      params.Cart,
		sales:     params.Sales,
		confirmer: params.Confirmer,
		logg:      params.Logger,
	}, nil
}

// Checkout opens a payment for the cart, captures the charge, confirms the
// order with the backend, then clears the cart. The cart survives every
// failure; it is only cleared once the backend has recorded the order.
func (s *Service) Checkout(ctx context.Context, req Request) (*Result, error) {
	lines := s.cart.Lines()
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "the cart is empty")
	}

	items := make([]api.OrderItemInput, 0, len(lines))
	for _, line := range lines {
		items = append(items, api.OrderItemInput{
			ArtworkID: line.ID,
			Quantity:  line.Quantity,
		})
	}

	intent, err := s.sales.CreatePaymentIntent(ctx, api.PaymentIntentRequest{
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PhoneNumber:     req.PhoneNumber,
		Notes:           req.Notes,
	})
	if err != nil {
		return nil, err
	}

	charge, err := s.confirmer.ConfirmCardPayment(ctx, intent.ClientSecret, req.PaymentMethodID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "capturing the payment")
	}
	if !charge.Succeeded {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("payment not captured (status %s)", charge.Status))
	}

	confirmed, err := s.sales.ConfirmPayment(ctx, api.ConfirmPaymentRequest{
		PaymentIntentID: charge.IntentID,
	})
	if err != nil {
		s.logg.Error(ctx, "order confirmation failed after capture", err)
		return nil, &UnrecordedPaymentError{IntentID: charge.IntentID, Err: err}
	}

	s.cart.Clear(ctx)

	result := &Result{Order: confirmed.Order, IntentID: charge.IntentID}
	if confirmed.Order != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, confirmed.Order.ID), "order placed")
	}
	return result, nil
}

package api

import (
	"context"
	"fmt"

	"github.com/artvinci/artvinci-go/pkg/validate"
)

// SalesConfig exposes the publishable payment key the checkout UI needs.
type SalesConfig struct {
	PublishableKey string `json:"publishableKey"`
}

// OrderItemInput is one cart line submitted for payment.
type OrderItemInput struct {
	ArtworkID int64 `json:"artwork_id" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

// PaymentIntentRequest opens a payment for the given cart lines.
type PaymentIntentRequest struct {
	Items           []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	ShippingAddress string           `json:"shipping_address,omitempty"`
	PhoneNumber     string           `json:"phone_number,omitempty"`
	Notes           string           `json:"notes,omitempty"`
}

// PaymentIntentResponse carries the client secret to confirm the charge with
// plus the provisional order record.
type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	Order        *Order `json:"order"`
}

// ConfirmPaymentRequest tells the backend a charge went through so it can
// finalize the order.
type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

// ConfirmPaymentResponse is the finalized order acknowledgment.
type ConfirmPaymentResponse struct {
	Message string `json:"message"`
	Order   *Order `json:"order"`
}

// GetSalesConfig fetches the publishable payment key.
func (c *Client) GetSalesConfig(ctx context.Context) (*SalesConfig, error) {
	var out SalesConfig
	if err := c.get(ctx, "/ventes/config/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePaymentIntent opens a payment for the submitted cart lines.
func (c *Client) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntentResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out PaymentIntentResponse
	if err := c.post(ctx, "/ventes/create-payment-intent/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmPayment finalizes the order after the charge succeeded.
func (c *Client) ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest) (*ConfirmPaymentResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out ConfirmPaymentResponse
	if err := c.post(ctx, "/ventes/confirm-payment/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOrders pages through the authenticated user's orders.
func (c *Client) ListOrders(ctx context.Context) (*OrderList, error) {
	var out OrderList
	if err := c.get(ctx, "/ventes/orders/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOrder fetches one order by id.
func (c *Client) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var out Order
	if err := c.get(ctx, fmt.Sprintf("/ventes/orders/%d/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

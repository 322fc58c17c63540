package client

import (
	"context"
	"net/http"

	"github.com/akylbek/payment-system/advisor-checkout/internal/models"
)

type createIntentRequest struct {
	CouponCode string `json:"couponCode,omitempty"`
}

type createIntentResponse struct {
	Amount          *int64 `json:"amount"`
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
}

// CreateIntent asks the backend for a payment intent. An empty coupon means no
// coupon. The intent id is normalized whether it arrived as a client secret or
// as a bare id; the client secret wins when both are present.
func (c *Client) CreateIntent(ctx context.Context, coupon string) (*models.Intent, error) {
	const op = "create_intent"

	resp, err := c.do(ctx, op, http.MethodPost, pathCreateIntent, createIntentRequest{CouponCode: coupon}, authRequired)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.rejection(op)
	}

	var body createIntentResponse
	resp.decode(&body)

	raw := body.ClientSecret
	if raw == "" {
		raw = body.PaymentIntentID
	}
	id, ok := NormalizeIntentID(raw)
	if !ok {
		return nil, &BackendError{Op: op, StatusCode: resp.status, MissingField: "paymentIntentId"}
	}
	if body.Amount == nil {
		return nil, &BackendError{Op: op, StatusCode: resp.status, MissingField: "amount"}
	}

	return &models.Intent{ID: id, Amount: *body.Amount}, nil
}

type createMethodResponse struct {
	PaymentMethodID string `json:"paymentMethodId"`
}

func (c *Client) CreatePaymentMethod(ctx context.Context, card models.CardDetails) (string, error) {
	const op = "create_method"

	resp, err := c.do(ctx, op, http.MethodPost, pathCreateMethod, card, authRequired)
	if err != nil {
		return "", err
	}
	if !resp.ok() {
		return "", resp.rejection(op)
	}

	var body createMethodResponse
	resp.decode(&body)
	if body.PaymentMethodID == "" {
		return "", &BackendError{Op: op, StatusCode: resp.status, MissingField: "paymentMethodId"}
	}
	return body.PaymentMethodID, nil
}

type confirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
	PaymentMethodID string `json:"paymentMethodId"`
}

// ConfirmPayment charges the intent with the payment method. Any 2xx answer
// is a success.
func (c *Client) ConfirmPayment(ctx context.Context, intentID, methodID string) error {
	const op = "confirm"

	resp, err := c.do(ctx, op, http.MethodPost, pathConfirm, confirmRequest{
		PaymentIntentID: intentID,
		PaymentMethodID: methodID,
	}, authRequired)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.rejection(op)
	}
	return nil
}

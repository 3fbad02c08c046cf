package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IntentResult is returned to the client to complete payment on their
// side.
type IntentResult struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type RefundResult struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
}

// Provider abstracts the payment gateway. Amounts are in major currency
// units; implementations convert as their API requires.
type Provider interface {
	CreateIntent(ctx context.Context, amount float64, currency string, metadata map[string]string) (*IntentResult, error)
	Refund(ctx context.Context, paymentIntentID string, amount float64) (*RefundResult, error)
}

// DevProvider fabricates intent and refund ids for environments without
// gateway credentials.
type DevProvider struct {
	Logger *zap.Logger
}

func (p *DevProvider) CreateIntent(_ context.Context, amount float64, currency string, metadata map[string]string) (*IntentResult, error) {
	id := "pi_" + uuid.NewString()
	p.Logger.Info("payment intent created",
		zap.String("intent_id", id),
		zap.Float64("amount", amount),
		zap.String("currency", currency),
		zap.String("order_id", metadata["orderId"]))
	return &IntentResult{
		ClientSecret:    fmt.Sprintf("%s_secret_%s", id, uuid.NewString()[:8]),
		PaymentIntentID: id,
	}, nil
}

func (p *DevProvider) Refund(_ context.Context, paymentIntentID string, amount float64) (*RefundResult, error) {
	id := "re_" + uuid.NewString()
	p.Logger.Info("refund created",
		zap.String("refund_id", id),
		zap.String("intent_id", paymentIntentID),
		zap.Float64("amount", amount))
	return &RefundResult{ID: id, Amount: amount}, nil
}

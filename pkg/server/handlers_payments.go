package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/models"
	"github.com/example/opticstore/pkg/payments"
)

const signatureHeader = "X-Payment-Signature"

// createPaymentIntent asks the provider for an intent covering the
// order's total and pins the intent id on the order so the webhook can
// resolve it later.
func (s *Server) createPaymentIntent(c *gin.Context) {
	var req struct {
		OrderID string `json:"orderId"`
	}
	if err := c.BindJSON(&req); err != nil {
		respondErr(c, s.logger, apperrors.Validation("invalid request body"))
		return
	}
	id, err := objectID(req.OrderID)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}

	order, err := s.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	claims := currentClaims(c)
	if claims.Role != models.RoleAdmin && order.Customer.Hex() != claims.ID {
		respondErr(c, s.logger, apperrors.Forbidden("you do not have access to this order"))
		return
	}
	if order.PaymentStatus != models.PaymentStatusPending {
		respondErr(c, s.logger, apperrors.Conflict("order is not awaiting payment"))
		return
	}

	intent, err := s.provider.CreateIntent(c.Request.Context(), order.Total, order.Currency, map[string]string{
		"orderId":     order.ID.Hex(),
		"orderNumber": order.OrderNumber,
	})
	if err != nil {
		respondErr(c, s.logger, apperrors.ExternalService("payment provider unavailable", err))
		return
	}
	if _, err := s.orders.AttachPaymentIntent(c.Request.Context(), id, intent.PaymentIntentID); err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Payment intent created successfully", intent)
}

func (s *Server) refund(c *gin.Context) {
	var req struct {
		OrderID string  `json:"orderId"`
		Amount  float64 `json:"amount,omitempty"`
	}
	if err := c.BindJSON(&req); err != nil {
		respondErr(c, s.logger, apperrors.Validation("invalid request body"))
		return
	}
	id, err := objectID(req.OrderID)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}

	order, err := s.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	if order.PaymentStatus != models.PaymentStatusPaid && order.PaymentStatus != models.PaymentStatusPartiallyRefunded {
		respondErr(c, s.logger, apperrors.Conflict("order payment cannot be refunded"))
		return
	}
	if order.PaymentIntentID == "" {
		respondErr(c, s.logger, apperrors.Conflict("order has no payment intent"))
		return
	}
	amount := req.Amount
	if amount <= 0 {
		amount = order.Total
	}
	if amount > order.Total {
		respondErr(c, s.logger, apperrors.Validation("refund amount exceeds order total"))
		return
	}

	result, err := s.provider.Refund(c.Request.Context(), order.PaymentIntentID, amount)
	if err != nil {
		respondErr(c, s.logger, apperrors.ExternalService("payment provider unavailable", err))
		return
	}
	updated, err := s.orders.ApplyRefund(c.Request.Context(), id, result.ID, amount < order.Total)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Refund processed successfully", updated)
}

// paymentWebhook consumes provider events. The signature covers the raw
// body, so it must be read before any JSON binding.
func (s *Server) paymentWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondErr(c, s.logger, apperrors.Validation("cannot read request body"))
		return
	}
	event, err := s.verifier.ParseEvent(body, c.GetHeader(signatureHeader))
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}

	switch event.Type {
	case payments.EventPaymentSucceeded:
		order, err := s.orders.MarkPaid(c.Request.Context(), event.Data.Object.ID)
		if err != nil {
			respondErr(c, s.logger, err)
			return
		}
		s.logger.Info("order paid",
			zap.String("order_number", order.OrderNumber),
			zap.String("intent_id", event.Data.Object.ID))
	case payments.EventPaymentFailed:
		s.logger.Warn("payment failed",
			zap.String("intent_id", event.Data.Object.ID),
			zap.String("order_id", event.Data.Object.Metadata["orderId"]))
	default:
		s.logger.Debug("ignoring webhook event", zap.String("type", event.Type))
	}
	respond(c, http.StatusOK, "Webhook processed", gin.H{"received": true})
}

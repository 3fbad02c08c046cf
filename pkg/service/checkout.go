package service

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/models"
	"github.com/example/opticstore/pkg/pricing"
	"github.com/example/opticstore/pkg/query"
)

// OrderFilterFields is the list-endpoint filter allow-list.
var OrderFilterFields = map[string]bool{
	"orderNumber":   true,
	"customer":      true,
	"status":        true,
	"paymentStatus": true,
	"total":         true,
	"subtotal":      true,
	"createdAt":     true,
}

type CheckoutItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CheckoutRequest struct {
	Items           []CheckoutItem          `json:"items"`
	CouponCode      string                  `json:"couponCode,omitempty"`
	PaymentMethod   string                  `json:"paymentMethod,omitempty"`
	ShippingAddress *models.ShippingAddress `json:"shippingAddress,omitempty"`
	Phone           string                  `json:"phone,omitempty"`
	// SaveAddress persists the shipping address and phone back to the
	// customer's profile after a successful order.
	SaveAddress bool `json:"saveAddress,omitempty"`
}

// OrderUpdate is the admin-facing mutation for status, tracking and
// cancellation details.
type OrderUpdate struct {
	Status       string               `json:"status,omitempty"`
	Tracking     *models.Tracking     `json:"tracking,omitempty"`
	Cancellation *models.Cancellation `json:"cancellation,omitempty"`
}

// OrderService runs the checkout pipeline and the order lifecycle around
// it. The pipeline is pricing -> coupon -> persist -> inventory ->
// post-commit -> notify; the first durable write is the order record, and
// an inventory failure after it triggers a compensating delete.
type OrderService struct {
	orders    OrderStore
	users     UserStore
	store     *StoreService
	coupons   *CouponService
	inventory *InventoryService
	notifier  Notifier
	logger    *zap.Logger
}

func NewOrderService(
	orders OrderStore,
	users UserStore,
	store *StoreService,
	coupons *CouponService,
	inventory *InventoryService,
	notifier Notifier,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		users:     users,
		store:     store,
		coupons:   coupons,
		inventory: inventory,
		notifier:  notifier,
		logger:    logger.Named("checkout"),
	}
}

// Checkout turns a line-item list into a persisted order with adjusted
// inventory.
func (s *OrderService) Checkout(ctx context.Context, customerID primitive.ObjectID, req *CheckoutRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, apperrors.Validation("order must contain at least one item")
	}

	customer, err := s.users.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}

	// Pricing. Aborts before any write: missing products and short stock
	// fail the whole attempt here.
	lines, err := s.resolveLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	var coupon *models.Coupon
	if req.CouponCode != "" {
		subtotal := 0.0
		for _, l := range lines {
			subtotal += l.Product.UnitPrice() * float64(l.Quantity)
		}
		coupon, err = s.coupons.Validate(ctx, req.CouponCode, pricing.Round2(subtotal))
		if err != nil {
			return nil, err
		}
	}

	quote, err := pricing.Calculate(lines, cfg.Shipping, cfg.Tax, coupon)
	if err != nil {
		return nil, err
	}

	// Persist. First durable side effect.
	order := &models.Order{
		OrderNumber:   models.NewOrderNumber(time.Now()),
		Customer:      customerID,
		Items:         quote.Items,
		Subtotal:      quote.Subtotal,
		Tax:           quote.Tax,
		ShippingCost:  quote.ShippingCost,
		Discount:      quote.Discount,
		Total:         quote.Total,
		Currency:      cfg.StoreProfile.Currency,
		Status:        models.OrderStatusProcessing,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: req.PaymentMethod,
	}
	if coupon != nil {
		order.CouponCode = coupon.Code
	}
	if req.ShippingAddress != nil {
		order.ShippingAddress = *req.ShippingAddress
	} else {
		order.ShippingAddress = customer.ShippingAddress
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, err
	}

	// Inventory. On failure, compensate by deleting the just-created
	// order so no order references stock that was never reserved.
	if err := s.inventory.AdjustStockBulk(ctx, order.Items, OpDecrease); err != nil {
		if delErr := s.orders.Delete(ctx, order.ID); delErr != nil {
			s.logger.Error("failed to roll back order after inventory failure",
				zap.String("order_number", order.OrderNumber), zap.Error(delErr))
		}
		return nil, err
	}

	// Post-commit. None of these may undo the order.
	s.postCommit(ctx, order, customer, coupon, req)

	// Notify. Best effort, fire and forget.
	s.notifyConfirmation(ctx, order, customer)

	s.logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("customer", customerID.Hex()),
		zap.Float64("total", order.Total))
	return order, nil
}

func (s *OrderService) resolveLines(ctx context.Context, items []CheckoutItem) ([]pricing.Line, error) {
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		id, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return nil, apperrors.Validation("invalid product id %q", item.ProductID)
		}
		product, err := s.inventory.products.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		lines = append(lines, pricing.Line{Product: product, Quantity: item.Quantity})
	}
	return lines, nil
}

func (s *OrderService) postCommit(ctx context.Context, order *models.Order, customer *models.User, coupon *models.Coupon, req *CheckoutRequest) {
	if coupon != nil {
		if _, err := s.coupons.Redeem(ctx, coupon.Code); err != nil {
			s.logger.Warn("coupon redemption failed after order commit",
				zap.String("order_number", order.OrderNumber),
				zap.String("code", coupon.Code), zap.Error(err))
		}
	}

	if err := s.users.IncrementOrderStats(ctx, customer.ID, order.Total); err != nil {
		s.logger.Warn("failed to update customer order stats",
			zap.String("customer", customer.ID.Hex()), zap.Error(err))
	}

	if req.SaveAddress && (req.ShippingAddress != nil || req.Phone != "") {
		set := bson.M{}
		if req.ShippingAddress != nil {
			set["shippingAddress"] = *req.ShippingAddress
		}
		if req.Phone != "" {
			set["phone"] = req.Phone
		}
		if _, err := s.users.Update(ctx, customer.ID, set); err != nil {
			s.logger.Warn("failed to persist customer shipping details",
				zap.String("customer", customer.ID.Hex()), zap.Error(err))
		}
	}
}

func (s *OrderService) notifyConfirmation(ctx context.Context, order *models.Order, customer *models.User) {
	subject := fmt.Sprintf("Order %s confirmed", order.OrderNumber)
	body := fmt.Sprintf("Hi %s, your order %s totaling %.2f has been received and is being processed.",
		customer.Name, order.OrderNumber, order.Total)
	if err := s.notifier.EnqueueEmail(ctx, customer.Email, subject, body); err != nil {
		s.logger.Warn("failed to enqueue confirmation email", zap.Error(err))
	}
	if customer.Phone != "" {
		sms := fmt.Sprintf("Your order %s (%.2f) is confirmed.", order.OrderNumber, order.Total)
		if err := s.notifier.EnqueueSMS(ctx, customer.Phone, sms); err != nil {
			s.logger.Warn("failed to enqueue confirmation SMS", zap.Error(err))
		}
	}
}

func (s *OrderService) List(ctx context.Context, q *query.Query) ([]*models.Order, int64, error) {
	return s.orders.Find(ctx, q)
}

func (s *OrderService) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return s.orders.FindByID(ctx, id)
}

func (s *OrderService) ByCustomer(ctx context.Context, customer primitive.ObjectID) ([]*models.Order, error) {
	return s.orders.FindByCustomer(ctx, customer)
}

// Update applies an admin mutation. Status changes are validated against
// the transition rules; a Shipped transition carrying tracking data also
// enqueues a tracking notification.
func (s *OrderService) Update(ctx context.Context, id primitive.ObjectID, upd *OrderUpdate) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if upd.Status != "" && upd.Status != order.Status {
		if !models.CanTransition(order.Status, upd.Status) {
			return nil, apperrors.Validation("cannot transition order from %s to %s", order.Status, upd.Status)
		}
		set["status"] = upd.Status
	}
	if upd.Tracking != nil {
		set["tracking"] = upd.Tracking
	}
	if upd.Cancellation != nil {
		set["cancellation"] = upd.Cancellation
	}
	if len(set) == 0 {
		return order, nil
	}

	updated, err := s.orders.Update(ctx, id, set)
	if err != nil {
		return nil, err
	}

	s.notifyStatusChange(ctx, updated, upd)
	return updated, nil
}

func (s *OrderService) notifyStatusChange(ctx context.Context, order *models.Order, upd *OrderUpdate) {
	if upd.Status == "" {
		return
	}
	customer, err := s.users.FindByID(ctx, order.Customer)
	if err != nil {
		s.logger.Warn("cannot notify status change, customer lookup failed",
			zap.String("order_number", order.OrderNumber), zap.Error(err))
		return
	}

	subject := fmt.Sprintf("Order %s is now %s", order.OrderNumber, order.Status)
	body := fmt.Sprintf("Hi %s, your order %s is now %s.", customer.Name, order.OrderNumber, order.Status)
	if upd.Status == models.OrderStatusShipped && upd.Tracking != nil && upd.Tracking.Number != "" {
		body = fmt.Sprintf("%s Track it with %s: %s.", body, upd.Tracking.Carrier, upd.Tracking.Number)
	}
	if err := s.notifier.EnqueueEmail(ctx, customer.Email, subject, body); err != nil {
		s.logger.Warn("failed to enqueue status email", zap.Error(err))
	}
}

// Delete removes an order by explicit admin action.
func (s *OrderService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.orders.Delete(ctx, id)
}

// MarkPaid flips payment and order status for a succeeded payment intent.
// Driven by the payment provider webhook.
func (s *OrderService) MarkPaid(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	return s.orders.MarkPaidByIntent(ctx, paymentIntentID)
}

// AttachPaymentIntent records the provider intent against the order before
// the customer confirms payment, so the webhook can find it later.
func (s *OrderService) AttachPaymentIntent(ctx context.Context, id primitive.ObjectID, intentID string) (*models.Order, error) {
	return s.orders.Update(ctx, id, bson.M{
		"paymentIntentId": intentID,
		"updatedAt":       time.Now().UTC(),
	})
}

// ApplyRefund records a provider refund against the order.
func (s *OrderService) ApplyRefund(ctx context.Context, id primitive.ObjectID, refundID string, partial bool) (*models.Order, error) {
	status := models.PaymentStatusRefunded
	if partial {
		status = models.PaymentStatusPartiallyRefunded
	}
	return s.orders.Update(ctx, id, bson.M{
		"refundId":      refundID,
		"paymentStatus": status,
		"updatedAt":     time.Now().UTC(),
	})
}

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/models"
	"github.com/example/opticstore/pkg/query"
	"github.com/example/opticstore/pkg/repository"
)

// In-memory stores mirroring the conditional-update semantics of the
// Mongo repositories, so workflow tests exercise the same failure paths.

type memProducts struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Product

	setStatusCalls []string
}

func newMemProducts(products ...*models.Product) *memProducts {
	m := &memProducts{byID: map[primitive.ObjectID]*models.Product{}}
	for _, p := range products {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		cp := *p
		m.byID[p.ID] = &cp
	}
	return m
}

func (m *memProducts) Insert(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	for _, existing := range m.byID {
		if existing.SKU == p.SKU {
			return apperrors.Conflict("product with SKU %s already exists", p.SKU)
		}
	}
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("Product not found")
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) Find(_ context.Context, _ *query.Query) ([]*models.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Product, 0, len(m.byID))
	for _, p := range m.byID {
		cp := *p
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (m *memProducts) Update(_ context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("Product not found")
	}
	if status, ok := set["status"].(string); ok {
		p.Status = status
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return apperrors.NotFound("Product not found")
	}
	delete(m.byID, id)
	return nil
}

func (m *memProducts) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("Product not found")
	}
	if p.Stock < qty {
		return nil, apperrors.InsufficientStock("Insufficient stock for product: %s", p.Name)
	}
	before := *p
	p.Stock -= qty
	return &before, nil
}

func (m *memProducts) IncrementStock(_ context.Context, id primitive.ObjectID, qty int) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("Product not found")
	}
	before := *p
	p.Stock += qty
	return &before, nil
}

func (m *memProducts) SetStatus(_ context.Context, id primitive.ObjectID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return apperrors.NotFound("Product not found")
	}
	p.Status = status
	m.setStatusCalls = append(m.setStatusCalls, status)
	return nil
}

func (m *memProducts) LowStock(_ context.Context, threshold int) ([]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Product
	for _, p := range m.byID {
		if p.Status != models.ProductStatusDraft && p.Stock > 0 && p.Stock <= threshold {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memProducts) OutOfStock(_ context.Context) ([]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Product
	for _, p := range m.byID {
		if p.Status != models.ProductStatusDraft && p.Stock == 0 {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memProducts) Summary(_ context.Context) (*repository.InventorySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &repository.InventorySummary{}
	for _, p := range m.byID {
		s.TotalProducts++
		if p.Status == models.ProductStatusActive {
			s.ActiveProducts++
		}
		if p.Stock == 0 {
			s.OutOfStockProducts++
		} else if p.Stock <= models.LowStockThreshold {
			s.LowStockProducts++
		}
		s.TotalStockValue += float64(p.Stock) * p.Price
	}
	return s, nil
}

func (m *memProducts) stock(id primitive.ObjectID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id].Stock
}

type memOrders struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Order
}

func newMemOrders() *memOrders {
	return &memOrders{byID: map[primitive.ObjectID]*models.Order{}}
}

func (m *memOrders) Insert(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

func (m *memOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("Order not found")
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) Find(_ context.Context, _ *query.Query) ([]*models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Order, 0, len(m.byID))
	for _, o := range m.byID {
		cp := *o
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (m *memOrders) FindByCustomer(_ context.Context, customer primitive.ObjectID) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, o := range m.byID {
		if o.Customer == customer {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memOrders) Update(_ context.Context, id primitive.ObjectID, set bson.M) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("Order not found")
	}
	if v, ok := set["status"].(string); ok {
		o.Status = v
	}
	if v, ok := set["paymentStatus"].(string); ok {
		o.PaymentStatus = v
	}
	if v, ok := set["paymentIntentId"].(string); ok {
		o.PaymentIntentID = v
	}
	if v, ok := set["refundId"].(string); ok {
		o.RefundID = v
	}
	if v, ok := set["tracking"].(*models.Tracking); ok {
		o.Tracking = v
	}
	if v, ok := set["cancellation"].(*models.Cancellation); ok {
		o.Cancellation = v
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return apperrors.NotFound("Order not found")
	}
	delete(m.byID, id)
	return nil
}

func (m *memOrders) MarkPaidByIntent(_ context.Context, paymentIntentID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.PaymentIntentID == paymentIntentID && o.PaymentStatus == models.PaymentStatusPending {
			o.PaymentStatus = models.PaymentStatusPaid
			cp := *o
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("Order not found")
}

func (m *memOrders) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memCoupons struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Coupon
}

func newMemCoupons(coupons ...*models.Coupon) *memCoupons {
	m := &memCoupons{byID: map[primitive.ObjectID]*models.Coupon{}}
	for _, c := range coupons {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		cp := *c
		m.byID[c.ID] = &cp
	}
	return m
}

func (m *memCoupons) Insert(_ context.Context, c *models.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	for _, existing := range m.byID {
		if existing.Code == c.Code {
			return apperrors.Conflict("coupon code %s already exists", c.Code)
		}
	}
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memCoupons) FindByID(_ context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("Coupon not found")
	}
	cp := *c
	return &cp, nil
}

func (m *memCoupons) FindActiveByCode(_ context.Context, code string) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if c.Code == code && c.Status == models.CouponStatusActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("Invalid or inactive coupon")
}

func (m *memCoupons) Find(_ context.Context, _ *query.Query) ([]*models.Coupon, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Coupon, 0, len(m.byID))
	for _, c := range m.byID {
		cp := *c
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (m *memCoupons) Update(_ context.Context, id primitive.ObjectID, set bson.M) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("Coupon not found")
	}
	if v, ok := set["status"].(string); ok {
		c.Status = v
	}
	if v, ok := set["code"].(string); ok {
		c.Code = v
	}
	cp := *c
	return &cp, nil
}

func (m *memCoupons) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return apperrors.NotFound("Coupon not found")
	}
	delete(m.byID, id)
	return nil
}

func (m *memCoupons) Redeem(_ context.Context, code string, now time.Time) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if c.Code != code {
			continue
		}
		if !c.IsUsable(now) {
			break
		}
		c.UsedCount++
		cp := *c
		return &cp, nil
	}
	return nil, apperrors.Validation("Coupon is expired or fully used")
}

func (m *memCoupons) usedCount(code string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if c.Code == code {
			return c.UsedCount
		}
	}
	return -1
}

type memUsers struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.User
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{byID: map[primitive.ObjectID]*models.User{}}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		cp := *u
		m.byID[u.ID] = &cp
	}
	return m
}

func (m *memUsers) Insert(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	for _, existing := range m.byID {
		if existing.Username == u.Username || existing.Email == u.Email {
			return apperrors.Conflict("username or email already taken")
		}
	}
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("User not found")
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("User not found")
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("User not found")
}

func (m *memUsers) Update(_ context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("User not found")
	}
	if v, ok := set["phone"].(string); ok {
		u.Phone = v
	}
	if v, ok := set["shippingAddress"].(models.ShippingAddress); ok {
		u.ShippingAddress = v
	}
	if v, ok := set["name"].(string); ok {
		u.Name = v
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) IncrementOrderStats(_ context.Context, id primitive.ObjectID, spent float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return apperrors.NotFound("User not found")
	}
	u.OrdersCount++
	u.TotalSpent += spent
	return nil
}

func (m *memUsers) get(id primitive.ObjectID) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.byID[id]
	return &cp
}

type memStoreConfig struct {
	mu      sync.Mutex
	cfg     *models.StoreConfig
	lastSet bson.M
}

func newMemStoreConfig(cfg *models.StoreConfig) *memStoreConfig {
	if cfg == nil {
		cfg = models.DefaultStoreConfig()
	}
	return &memStoreConfig{cfg: cfg}
}

func (m *memStoreConfig) Get(_ context.Context) (*models.StoreConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.cfg
	return &cp, nil
}

func (m *memStoreConfig) Update(_ context.Context, dotPaths bson.M) (*models.StoreConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSet = dotPaths
	cp := *m.cfg
	return &cp, nil
}

var errCacheMiss = errors.New("cache miss")

type memCache struct {
	mu          sync.Mutex
	cfg         *models.StoreConfig
	hits        int
	misses      int
	invalidated int
}

func (m *memCache) GetStoreConfig(_ context.Context) (*models.StoreConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg == nil {
		m.misses++
		return nil, errCacheMiss
	}
	m.hits++
	cp := *m.cfg
	return &cp, nil
}

func (m *memCache) CacheStoreConfig(_ context.Context, cfg *models.StoreConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *cfg
	m.cfg = &cp
	return nil
}

func (m *memCache) InvalidateStoreConfig(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = nil
	m.invalidated++
	return nil
}

type sentMessage struct {
	channel   string
	recipient string
	subject   string
	body      string
}

type memNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (m *memNotifier) EnqueueEmail(_ context.Context, recipient, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{channel: "email", recipient: recipient, subject: subject, body: body})
	return nil
}

func (m *memNotifier) EnqueueSMS(_ context.Context, recipient, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{channel: "sms", recipient: recipient, body: body})
	return nil
}

func (m *memNotifier) byChannel(channel string) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, s := range m.sent {
		if s.channel == channel {
			out = append(out, s)
		}
	}
	return out
}

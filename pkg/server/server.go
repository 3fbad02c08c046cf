// Package server wires the HTTP surface: routing, auth middleware and the
// per-entity handlers behind the uniform response envelope.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/auth"
	"github.com/example/opticstore/pkg/config"
	"github.com/example/opticstore/pkg/payments"
	"github.com/example/opticstore/pkg/service"
)

type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	tokens   *auth.TokenManager
	verifier *payments.Verifier
	provider payments.Provider

	products  *service.ProductService
	orders    *service.OrderService
	coupons   *service.CouponService
	inventory *service.InventoryService
	store     *service.StoreService
	users     *service.UserService

	httpServer *http.Server
}

type Deps struct {
	Tokens   *auth.TokenManager
	Verifier *payments.Verifier
	Provider payments.Provider

	Products  *service.ProductService
	Orders    *service.OrderService
	Coupons   *service.CouponService
	Inventory *service.InventoryService
	Store     *service.StoreService
	Users     *service.UserService
}

func New(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger.Named("http")))

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		router:    router,
		tokens:    deps.Tokens,
		verifier:  deps.Verifier,
		provider:  deps.Provider,
		products:  deps.Products,
		orders:    deps.Orders,
		coupons:   deps.Coupons,
		inventory: deps.Inventory,
		store:     deps.Store,
		users:     deps.Users,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	{
		users := api.Group("/users")
		{
			users.POST("/signup", s.signup)
			users.POST("/login", s.login)
			users.POST("/forgot-password", s.forgotPassword)
			users.GET("/me", s.requireAuth(), s.me)
			users.PATCH("/:username", s.requireAuth(), s.updateProfile)
		}

		products := api.Group("/products")
		{
			products.GET("", s.listProducts)
			products.GET("/:id", s.getProduct)
			products.POST("", s.requireAuth(), s.requireAdmin(), s.createProduct)
			products.PATCH("/:id", s.requireAuth(), s.requireAdmin(), s.updateProduct)
			products.DELETE("/:id", s.requireAuth(), s.requireAdmin(), s.deleteProduct)
		}

		orders := api.Group("/orders")
		orders.Use(s.requireAuth())
		{
			orders.POST("", s.requireVerified(), s.createOrder)
			orders.GET("/my-orders", s.myOrders)
			orders.GET("", s.requireAdmin(), s.listOrders)
			orders.GET("/:id", s.getOrder)
			orders.PATCH("/:id", s.requireAdmin(), s.updateOrder)
			orders.DELETE("/:id", s.requireAdmin(), s.deleteOrder)
		}

		coupons := api.Group("/coupons")
		{
			coupons.POST("/validate", s.validateCoupon)
			admin := coupons.Group("", s.requireAuth(), s.requireAdmin())
			{
				admin.POST("", s.createCoupon)
				admin.GET("", s.listCoupons)
				admin.GET("/:id", s.getCoupon)
				admin.PATCH("/:id", s.updateCoupon)
				admin.DELETE("/:id", s.deleteCoupon)
			}
		}

		inventory := api.Group("/inventory", s.requireAuth(), s.requireAdmin())
		{
			inventory.GET("/summary", s.inventorySummary)
			inventory.GET("/low-stock", s.lowStock)
			inventory.GET("/out-of-stock", s.outOfStock)
			inventory.POST("/restock/:productId", s.restock)
			inventory.PATCH("/update-stock/:productId", s.updateStock)
		}

		store := api.Group("/store")
		{
			store.GET("/public", s.publicStoreConfig)
			store.GET("/config", s.requireAuth(), s.requireAdmin(), s.storeConfig)
			store.PATCH("/config", s.requireAuth(), s.requireAdmin(), s.updateStoreConfig)
		}

		pay := api.Group("/payments")
		{
			pay.POST("/create-intent", s.requireAuth(), s.createPaymentIntent)
			pay.POST("/refund", s.requireAuth(), s.requireAdmin(), s.refund)
			pay.POST("/webhook", s.paymentWebhook)
		}
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Envelope{IsStatus: false, Msg: "Route not found"})
	})
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	s.logger.Info("HTTP server starting", zap.String("address", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router is exposed for handler tests.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(s.cfg.Auth.CookieName, token, int(s.tokens.TTL()/time.Second), "/", "", false, true)
}

func objectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperrors.Validation("invalid id %q", hex)
	}
	return id, nil
}

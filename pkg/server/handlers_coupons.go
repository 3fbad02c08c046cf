package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/models"
	"github.com/example/opticstore/pkg/query"
	"github.com/example/opticstore/pkg/service"
)

// validateCoupon is the public, read-only validation used by the cart
// page. It never mutates usage counts.
func (s *Server) validateCoupon(c *gin.Context) {
	var req struct {
		Code        string  `json:"code"`
		OrderAmount float64 `json:"orderAmount"`
	}
	if err := c.BindJSON(&req); err != nil {
		respondErr(c, s.logger, apperrors.Validation("invalid request body"))
		return
	}
	coupon, err := s.coupons.Validate(c.Request.Context(), req.Code, req.OrderAmount)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Coupon is valid", gin.H{
		"coupon":   coupon,
		"discount": coupon.DiscountFor(req.OrderAmount),
	})
}

func (s *Server) createCoupon(c *gin.Context) {
	var coupon models.Coupon
	if err := c.BindJSON(&coupon); err != nil {
		respondErr(c, s.logger, apperrors.Validation("invalid request body"))
		return
	}
	created, err := s.coupons.Create(c.Request.Context(), &coupon)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Coupon created successfully", created)
}

func (s *Server) listCoupons(c *gin.Context) {
	q, err := query.Parse(c.Request.URL.Query(), service.CouponFilterFields)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	coupons, total, err := s.coupons.List(c.Request.Context(), q)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	pagination := q.Paginate(total)
	respondList(c, "Coupons retrieved successfully", coupons, len(coupons), &pagination)
}

func (s *Server) getCoupon(c *gin.Context) {
	id, err := objectID(c.Param("id"))
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	coupon, err := s.coupons.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Coupon retrieved successfully", coupon)
}

func (s *Server) updateCoupon(c *gin.Context) {
	id, err := objectID(c.Param("id"))
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	var set map[string]interface{}
	if err := c.BindJSON(&set); err != nil {
		respondErr(c, s.logger, apperrors.Validation("invalid request body"))
		return
	}
	// Usage counts only move through redemption.
	delete(set, "usedCount")
	coupon, err := s.coupons.Update(c.Request.Context(), id, bson.M(set))
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Coupon updated successfully", coupon)
}

func (s *Server) deleteCoupon(c *gin.Context) {
	id, err := objectID(c.Param("id"))
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	if err := s.coupons.Delete(c.Request.Context(), id); err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Coupon deleted successfully", nil)
}

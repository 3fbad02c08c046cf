package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/models"
	"github.com/example/opticstore/pkg/query"
	"github.com/example/opticstore/pkg/service"
)

func (s *Server) createOrder(c *gin.Context) {
	claims := currentClaims(c)
	customerID, err := objectID(claims.ID)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}

	var req service.CheckoutRequest
	if err := c.BindJSON(&req); err != nil {
		respondErr(c, s.logger, apperrors.Validation("invalid request body"))
		return
	}

	order, err := s.orders.Checkout(c.Request.Context(), customerID, &req)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Order placed successfully", order)
}

func (s *Server) myOrders(c *gin.Context) {
	claims := currentClaims(c)
	customerID, err := objectID(claims.ID)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}

	orders, err := s.orders.ByCustomer(c.Request.Context(), customerID)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	n := len(orders)
	respondList(c, "Orders retrieved successfully", orders, n, nil)
}

func (s *Server) listOrders(c *gin.Context) {
	q, err := query.Parse(c.Request.URL.Query(), service.OrderFilterFields)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	orders, total, err := s.orders.List(c.Request.Context(), q)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	pagination := q.Paginate(total)
	respondList(c, "Orders retrieved successfully", orders, len(orders), &pagination)
}

func (s *Server) getOrder(c *gin.Context) {
	id, err := objectID(c.Param("id"))
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
	respond(c, http.StatusOK, "Order retrieved successfully", order)
}

func (s *Server) updateOrder(c *gin.Context) {
	id, err := objectID(c.Param("id"))
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	var upd service.OrderUpdate
	if err := c.BindJSON(&upd); err != nil {
		respondErr(c, s.logger, apperrors.Validation("invalid request body"))
		return
	}
	order, err := s.orders.Update(c.Request.Context(), id, &upd)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Order updated successfully", order)
}

func (s *Server) deleteOrder(c *gin.Context) {
	id, err := objectID(c.Param("id"))
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	if err := s.orders.Delete(c.Request.Context(), id); err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Order deleted successfully", nil)
}

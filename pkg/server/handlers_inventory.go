package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/models"
)

func (s *Server) inventorySummary(c *gin.Context) {
	summary, err := s.inventory.Summary(c.Request.Context())
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Inventory summary retrieved successfully", summary)
}

func (s *Server) lowStock(c *gin.Context) {
	threshold := models.LowStockThreshold
	if raw := c.Query("threshold"); raw != "" {
		t, err := strconv.Atoi(raw)
		if err != nil || t < 0 {
			respondErr(c, s.logger, apperrors.Validation("threshold must be a non-negative integer"))
			return
		}
		threshold = t
	}
	products, err := s.inventory.LowStock(c.Request.Context(), threshold)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respondList(c, "Low stock products retrieved successfully", products, len(products), nil)
}

func (s *Server) outOfStock(c *gin.Context) {
	products, err := s.inventory.OutOfStock(c.Request.Context())
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respondList(c, "Out of stock products retrieved successfully", products, len(products), nil)
}

func (s *Server) restock(c *gin.Context) {
	id, err := objectID(c.Param("productId"))
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	var req struct {
		Quantity int    `json:"quantity"`
		Reason   string `json:"reason"`
	}
	if err := c.BindJSON(&req); err != nil {
		respondErr(c, s.logger, apperrors.Validation("invalid request body"))
		return
	}
	product, err := s.inventory.Restock(c.Request.Context(), id, req.Quantity, req.Reason)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Product restocked successfully", product)
}

func (s *Server) updateStock(c *gin.Context) {
	id, err := objectID(c.Param("productId"))
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	var req struct {
		Quantity  int    `json:"quantity"`
		Operation string `json:"operation"`
	}
	if err := c.BindJSON(&req); err != nil {
		respondErr(c, s.logger, apperrors.Validation("invalid request body"))
		return
	}
	product, err := s.inventory.AdjustStock(c.Request.Context(), id, req.Quantity, req.Operation)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Stock updated successfully", product)
}

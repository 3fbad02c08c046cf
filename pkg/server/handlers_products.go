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

func (s *Server) createProduct(c *gin.Context) {
	var p models.Product
	if err := c.BindJSON(&p); err != nil {
		respondErr(c, s.logger, apperrors.Validation("invalid request body"))
		return
	}
	created, err := s.products.Create(c.Request.Context(), &p)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Product created successfully", created)
}

func (s *Server) listProducts(c *gin.Context) {
	q, err := query.Parse(c.Request.URL.Query(), service.ProductFilterFields)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	products, total, err := s.products.List(c.Request.Context(), q)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	pagination := q.Paginate(total)
	respondList(c, "Products retrieved successfully", products, len(products), &pagination)
}

func (s *Server) getProduct(c *gin.Context) {
	id, err := objectID(c.Param("id"))
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	product, err := s.products.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Product retrieved successfully", product)
}

func (s *Server) updateProduct(c *gin.Context) {
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
	// Stock moves through the inventory endpoints, not catalog edits.
	delete(set, "stock")
	product, err := s.products.Update(c.Request.Context(), id, bson.M(set))
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Product updated successfully", product)
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, err := objectID(c.Param("id"))
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	if err := s.products.Delete(c.Request.Context(), id); err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Product deleted successfully", nil)
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/opticstore/pkg/apperrors"
)

// publicStoreConfig exposes the storefront-safe slice of the config:
// profile, shipping, tax, content, SEO and active payment methods only.
func (s *Server) publicStoreConfig(c *gin.Context) {
	view, err := s.store.GetPublic(c.Request.Context())
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Store configuration retrieved successfully", view)
}

func (s *Server) storeConfig(c *gin.Context) {
	cfg, err := s.store.Get(c.Request.Context())
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Store configuration retrieved successfully", cfg)
}

func (s *Server) updateStoreConfig(c *gin.Context) {
	var partial map[string]interface{}
	if err := c.BindJSON(&partial); err != nil {
		respondErr(c, s.logger, apperrors.Validation("invalid request body"))
		return
	}
	if len(partial) == 0 {
		respondErr(c, s.logger, apperrors.Validation("no fields to update"))
		return
	}
	cfg, err := s.store.Update(c.Request.Context(), partial)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Store configuration updated successfully", cfg)
}

package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/auth"
	"github.com/example/opticstore/pkg/models"
)

const claimsKey = "authClaims"

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

// requireAuth accepts a bearer Authorization header or the session cookie.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		} else if cookie, err := c.Cookie(s.cfg.Auth.CookieName); err == nil {
			token = cookie
		}
		if token == "" {
			respondErr(c, s.logger, apperrors.Unauthorized("authentication required"))
			c.Abort()
			return
		}

		claims, err := s.tokens.Parse(token)
		if err != nil {
			respondErr(c, s.logger, err)
			c.Abort()
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := currentClaims(c)
		if claims == nil || claims.Role != models.RoleAdmin {
			respondErr(c, s.logger, apperrors.Forbidden("admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireVerified gates checkout on a verified account. Verification state
// lives on the user document, not in the token.
func (s *Server) requireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := currentClaims(c)
		if claims == nil {
			respondErr(c, s.logger, apperrors.Unauthorized("authentication required"))
			c.Abort()
			return
		}
		id, err := objectID(claims.ID)
		if err != nil {
			respondErr(c, s.logger, apperrors.Unauthorized("invalid session"))
			c.Abort()
			return
		}
		user, err := s.users.Get(c.Request.Context(), id)
		if err != nil {
			respondErr(c, s.logger, apperrors.Unauthorized("invalid session"))
			c.Abort()
			return
		}
		if !user.IsVerified {
			respondErr(c, s.logger, apperrors.Forbidden("account verification required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentClaims(c *gin.Context) *auth.Claims {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := value.(*auth.Claims)
	return claims
}

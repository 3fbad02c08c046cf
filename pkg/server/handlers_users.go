package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/models"
	"github.com/example/opticstore/pkg/service"
)

func (s *Server) signup(c *gin.Context) {
	var req service.SignupRequest
	if err := c.BindJSON(&req); err != nil {
		respondErr(c, s.logger, apperrors.Validation("invalid request body"))
		return
	}
	user, err := s.users.Signup(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusCreated, "User created successfully", user)
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BindJSON(&req); err != nil {
		respondErr(c, s.logger, apperrors.Validation("invalid request body"))
		return
	}
	user, token, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	s.setSessionCookie(c, token)
	respond(c, http.StatusOK, "Login successful", gin.H{"user": user, "token": token})
}

// forgotPassword returns a success-shaped response whether or not the
// account exists, so the endpoint cannot be used to enumerate accounts.
func (s *Server) forgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BindJSON(&req); err != nil {
		respondErr(c, s.logger, apperrors.Validation("invalid request body"))
		return
	}
	s.users.ForgotPassword(c.Request.Context(), req.Email)
	respond(c, http.StatusOK, "If that account exists, a reset email has been sent", nil)
}

func (s *Server) me(c *gin.Context) {
	claims := currentClaims(c)
	id, err := objectID(claims.ID)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	user, err := s.users.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "Profile retrieved successfully", user)
}

func (s *Server) updateProfile(c *gin.Context) {
	claims := currentClaims(c)
	username := c.Param("username")
	if claims.Role != models.RoleAdmin && claims.Username != username {
		respondErr(c, s.logger, apperrors.Forbidden("cannot update another user's profile"))
		return
	}

	var set map[string]interface{}
	if err := c.BindJSON(&set); err != nil {
		respondErr(c, s.logger, apperrors.Validation("invalid request body"))
		return
	}
	user, err := s.users.UpdateProfile(c.Request.Context(), username, bson.M(set))
	if err != nil {
		respondErr(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, "User updated successfully", user)
}

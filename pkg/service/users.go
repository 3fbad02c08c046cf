package service

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/auth"
	"github.com/example/opticstore/pkg/models"
)

type SignupRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserService struct {
	users    UserStore
	tokens   *auth.TokenManager
	notifier Notifier
	logger   *zap.Logger
}

func NewUserService(users UserStore, tokens *auth.TokenManager, notifier Notifier, logger *zap.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, notifier: notifier, logger: logger.Named("users")}
}

func (s *UserService) Signup(ctx context.Context, req *SignupRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if len(req.Name) < 2 {
		return nil, apperrors.Validation("name is required")
	}
	if len(req.Username) < 3 {
		return nil, apperrors.Validation("username must be at least 3 characters")
	}
	if !strings.Contains(req.Email, "@") {
		return nil, apperrors.Validation("a valid email is required")
	}
	if len(req.Password) < 8 {
		return nil, apperrors.Validation("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: string(hash),
		Role:     models.RoleUser,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials and issues a session token. Wrong email and
// wrong password produce the same message.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", apperrors.Unauthorized("invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", apperrors.Unauthorized("invalid email or password")
	}
	token, err := s.tokens.Issue(user.ID.Hex(), user.Role, user.Username, user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ForgotPassword enqueues a reset email when the account exists, and
// reports success either way so the endpoint cannot be used to probe for
// registered addresses.
func (s *UserService) ForgotPassword(ctx context.Context, email string) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		s.logger.Info("password reset requested for unknown email")
		return
	}
	body := "A password reset was requested for your account. If this wasn't you, ignore this message."
	if err := s.notifier.EnqueueEmail(ctx, user.Email, "Password reset", body); err != nil {
		s.logger.Warn("failed to enqueue password reset email", zap.Error(err))
	}
}

func (s *UserService) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, username string, set bson.M) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	// Credentials and aggregates are not updatable through the profile.
	for _, k := range []string{"password", "role", "ordersCount", "totalSpent", "isVerified"} {
		delete(set, k)
	}
	if len(set) == 0 {
		return user, nil
	}
	return s.users.Update(ctx, user.ID, set)
}

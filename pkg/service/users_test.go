package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/auth"
	"github.com/example/opticstore/pkg/models"
)

func newUserFixture(users ...*models.User) (*UserService, *memUsers, *memNotifier) {
	store := newMemUsers(users...)
	notifier := &memNotifier{}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewUserService(store, tokens, notifier, zap.NewNop()), store, notifier
}

func TestSignupHashesPasswordAndDefaultsRole(t *testing.T) {
	svc, _, _ := newUserFixture()

	user, err := svc.Signup(context.Background(), &SignupRequest{
		Name:     "Sana",
		Username: "sana",
		Email:    "Sana@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, "sana@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "correct horse", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("correct horse")))
}

func TestSignupValidation(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		req  SignupRequest
	}{
		{"missing name", SignupRequest{Username: "sana", Email: "a@b.com", Password: "longenough"}},
		{"short username", SignupRequest{Name: "Sana", Username: "sa", Email: "a@b.com", Password: "longenough"}},
		{"bad email", SignupRequest{Name: "Sana", Username: "sana", Email: "not-an-email", Password: "longenough"}},
		{"short password", SignupRequest{Name: "Sana", Username: "sana", Email: "a@b.com", Password: "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, &tc.req)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.KindValidation))
		})
	}
}

func TestSignupRejectsDuplicates(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()

	req := SignupRequest{Name: "Sana", Username: "sana", Email: "sana@example.com", Password: "longenough"}
	_, err := svc.Signup(ctx, &req)
	require.NoError(t, err)

	_, err = svc.Signup(ctx, &SignupRequest{Name: "Other", Username: "sana", Email: "other@example.com", Password: "longenough"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
}

func TestLoginIssuesTokenAndHidesWhichFieldFailed(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()

	_, err := svc.Signup(ctx, &SignupRequest{Name: "Sana", Username: "sana", Email: "sana@example.com", Password: "longenough"})
	require.NoError(t, err)

	user, token, err := svc.Login(ctx, "sana@example.com", "longenough")
	require.NoError(t, err)
	assert.Equal(t, "sana", user.Username)
	assert.NotEmpty(t, token)

	_, _, badUser := svc.Login(ctx, "nobody@example.com", "longenough")
	_, _, badPass := svc.Login(ctx, "sana@example.com", "wrong")
	require.Error(t, badUser)
	require.Error(t, badPass)
	assert.Equal(t, badUser.Error(), badPass.Error())
}

func TestForgotPasswordNeverRevealsAccounts(t *testing.T) {
	known := &models.User{Username: "sana", Email: "sana@example.com"}
	svc, _, notifier := newUserFixture(known)
	ctx := context.Background()

	svc.ForgotPassword(ctx, "sana@example.com")
	svc.ForgotPassword(ctx, "stranger@example.com")

	// Only the real account gets mail; the caller sees no difference.
	emails := notifier.byChannel("email")
	require.Len(t, emails, 1)
	assert.Equal(t, "sana@example.com", emails[0].recipient)
}

func TestUpdateProfileStripsProtectedFields(t *testing.T) {
	user := &models.User{Username: "sana", Email: "sana@example.com", Role: models.RoleUser}
	svc, store, _ := newUserFixture(user)

	updated, err := svc.UpdateProfile(context.Background(), "sana", map[string]interface{}{
		"name":        "Sana K",
		"role":        models.RoleAdmin,
		"password":    "hijacked",
		"totalSpent":  99999.0,
		"ordersCount": 42,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sana K", updated.Name)
	assert.Equal(t, models.RoleUser, updated.Role)

	stored := store.get(user.ID)
	assert.Equal(t, models.RoleUser, stored.Role)
	assert.Equal(t, 0, stored.OrdersCount)
}

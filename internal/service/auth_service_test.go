package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakchai-dev/timetable-api/internal/models"
	appErrors "github.com/sakchai-dev/timetable-api/pkg/errors"
)

type authRepoStub struct {
	user             *models.User
	findByEmailErr   error
	findByIDErr      error
	lastLoginUpdated bool
	updatedHash      string
	updateErr        error
}

func (s *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.findByEmailErr != nil {
		return nil, s.findByEmailErr
	}
	return s.user, nil
}

func (s *authRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if s.findByIDErr != nil {
		return nil, s.findByIDErr
	}
	return s.user, nil
}

func (s *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	s.lastLoginUpdated = true
	return nil
}

func (s *authRepoStub) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updatedHash = passwordHash
	return nil
}

func authTestUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "u1",
		Email:        "admin@school.ac.th",
		PasswordHash: string(hash),
		FullName:     "Admin",
		Role:         models.RoleAdmin,
		Active:       true,
	}
}

func newAuthServiceForTest(repo *authRepoStub) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "timetable-api",
	})
}

func TestLoginIssuesToken(t *testing.T) {
	repo := &authRepoStub{user: authTestUser(t, "secret123")}
	svc := newAuthServiceForTest(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.ac.th",
		Password: "secret123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "u1", resp.User.ID)
	assert.True(t, repo.lastLoginUpdated)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &authRepoStub{user: authTestUser(t, "secret123")}
	svc := newAuthServiceForTest(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.ac.th",
		Password: "wrong",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	repo := &authRepoStub{findByEmailErr: sql.ErrNoRows}
	svc := newAuthServiceForTest(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@school.ac.th",
		Password: "whatever",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := authTestUser(t, "secret123")
	user.Active = false
	svc := newAuthServiceForTest(&authRepoStub{user: user})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.ac.th",
		Password: "secret123",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestChangePasswordRequiresOldPassword(t *testing.T) {
	repo := &authRepoStub{user: authTestUser(t, "secret123")}
	svc := newAuthServiceForTest(repo)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "newsecret",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Empty(t, repo.updatedHash)
}

func TestChangePasswordStoresNewHash(t *testing.T) {
	repo := &authRepoStub{user: authTestUser(t, "secret123")}
	svc := newAuthServiceForTest(repo)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "secret123",
		NewPassword: "newsecret",
	})
	require.NoError(t, err)

	require.NotEmpty(t, repo.updatedHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.updatedHash), []byte("newsecret")))
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := &authRepoStub{user: authTestUser(t, "secret123")}
	issuer := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret: "other-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "timetable-api",
	})
	resp, err := issuer.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.ac.th",
		Password: "secret123",
	})
	require.NoError(t, err)

	svc := newAuthServiceForTest(repo)
	_, err = svc.ValidateToken(resp.AccessToken)
	require.Error(t, err)
}

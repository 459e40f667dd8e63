package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
)

type mockParentRepo struct {
	byEmail map[string]*models.Parent
	byID    map[string]*models.Parent
	created []*models.Parent
}

func newMockParentRepo() *mockParentRepo {
	return &mockParentRepo{byEmail: map[string]*models.Parent{}, byID: map[string]*models.Parent{}}
}

func (m *mockParentRepo) FindByEmail(_ context.Context, email string) (*models.Parent, error) {
	if p, ok := m.byEmail[email]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockParentRepo) FindByID(_ context.Context, id string) (*models.Parent, error) {
	if p, ok := m.byID[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockParentRepo) Create(_ context.Context, parent *models.Parent) error {
	if parent.ID == "" {
		parent.ID = "parent-" + parent.Email
	}
	m.created = append(m.created, parent)
	m.byEmail[parent.Email] = parent
	m.byID[parent.ID] = parent
	return nil
}

func (m *mockParentRepo) add(parent *models.Parent) {
	m.byEmail[parent.Email] = parent
	m.byID[parent.ID] = parent
}

func newAuthService(repo *mockParentRepo) *AuthService {
	return NewAuthService(repo, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "sfp-api-test",
	})
}

func TestAuthServiceSignupIssuesToken(t *testing.T) {
	repo := newMockParentRepo()
	svc := newAuthService(repo)

	res, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:    "john.doe@example.com",
		FullName: "John Doe",
		Password: "password123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, models.RoleParent, res.User.Role)
	require.Len(t, repo.created, 1)
	assert.NotEqual(t, "password123", repo.created[0].PasswordHash)
}

func TestAuthServiceSignupDuplicateEmail(t *testing.T) {
	repo := newMockParentRepo()
	repo.add(&models.Parent{ID: "p1", Email: "john.doe@example.com"})
	svc := newAuthService(repo)

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:    "john.doe@example.com",
		FullName: "John Doe",
		Password: "password123",
	})

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestAuthServiceSignupRejectsShortPassword(t *testing.T) {
	svc := newAuthService(newMockParentRepo())

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:    "john.doe@example.com",
		FullName: "John Doe",
		Password: "short",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginAndValidate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := newMockParentRepo()
	repo.add(&models.Parent{ID: "p1", Email: "john.doe@example.com", FullName: "John Doe", PasswordHash: string(hash), Role: models.RoleParent})
	svc := newAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "john.doe@example.com", Password: "password123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "p1", claims.ParentID)
	assert.Equal(t, models.RoleParent, claims.Role)

	info, err := svc.CurrentParent(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, "john.doe@example.com", info.Email)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := newMockParentRepo()
	repo.add(&models.Parent{ID: "p1", Email: "john.doe@example.com", PasswordHash: string(hash)})
	svc := newAuthService(repo)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "john.doe@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := newAuthService(newMockParentRepo())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(newMockParentRepo())

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsWrongSecret(t *testing.T) {
	repo := newMockParentRepo()
	svc := newAuthService(repo)
	other := NewAuthService(repo, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: time.Hour,
	})

	res, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:    "john.doe@example.com",
		FullName: "John Doe",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = other.ValidateToken(res.AccessToken)
	require.Error(t, err)
}

func TestAuthServiceCurrentParentDeletedAccount(t *testing.T) {
	svc := newAuthService(newMockParentRepo())

	_, err := svc.CurrentParent(context.Background(), &models.JWTClaims{ParentID: "gone"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

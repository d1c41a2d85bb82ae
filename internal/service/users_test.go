// internal/service/users_test.go
package service

import (
	"context"
	"testing"
	"time"

	"mortgage-api/internal/common/auth"
	apperrors "mortgage-api/internal/common/errors"
	"mortgage-api/internal/common/logger"
	"mortgage-api/internal/models"
	"mortgage-api/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(t *testing.T) (*UserService, sqlmock.Sqlmock, *auth.TokenProvider) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	tokens := auth.NewTokenProvider("test-secret", "mortgage-api", time.Hour)
	return NewUserService(store.NewUserStore(db, log), tokens, log), mock, tokens
}

var userColumns = []string{"id", "username", "email", "password_hash", "roles", "created_at"}

func TestRegister(t *testing.T) {
	t.Run("defaults role to applicant and hashes the password", func(t *testing.T) {
		svc, mock, _ := newUserService(t)

		mock.ExpectExec("INSERT INTO users").
			WillReturnResult(sqlmock.NewResult(0, 1))

		user, err := svc.Register(context.Background(), RegisterRequest{
			Username: "jsmith",
			Email:    "jsmith@example.com",
			Password: "hunter22",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{models.RoleApplicant}, user.Roles)
		assert.NotEqual(t, "hunter22", user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))
	})

	t.Run("missing credentials are rejected", func(t *testing.T) {
		svc, _, _ := newUserService(t)

		_, err := svc.Register(context.Background(), RegisterRequest{Username: "jsmith"})
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		svc, _, _ := newUserService(t)

		_, err := svc.Register(context.Background(), RegisterRequest{
			Username: "jsmith",
			Password: "hunter22",
			Roles:    []string{"ADMIN"},
		})
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
	})
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	userID := uuid.New()

	t.Run("valid credentials yield a resolvable token", func(t *testing.T) {
		svc, mock, tokens := newUserService(t)

		mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
			WithArgs("jsmith").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(userID, "jsmith", "jsmith@example.com", string(hash), "{OFFICER}", time.Now().UTC()))

		token, user, err := svc.Login(context.Background(), LoginRequest{Username: "jsmith", Password: "hunter22"})
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)

		identity, err := tokens.ResolveIdentity(token)
		require.NoError(t, err)
		assert.Equal(t, userID, identity.UserID)
		assert.True(t, identity.HasRole(models.RoleOfficer))
	})

	t.Run("wrong password maps to invalid credentials", func(t *testing.T) {
		svc, mock, _ := newUserService(t)

		mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
			WithArgs("jsmith").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(userID, "jsmith", "", string(hash), "{APPLICANT}", time.Now().UTC()))

		_, _, err := svc.Login(context.Background(), LoginRequest{Username: "jsmith", Password: "wrong"})
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidCredentials))
	})

	t.Run("unknown username is indistinguishable from wrong password", func(t *testing.T) {
		svc, mock, _ := newUserService(t)

		mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows(userColumns))

		_, _, err := svc.Login(context.Background(), LoginRequest{Username: "ghost", Password: "hunter22"})
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidCredentials))
	})
}

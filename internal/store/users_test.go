// internal/store/users_test.go
package store

import (
	"context"
	"testing"
	"time"

	apperrors "mortgage-api/internal/common/errors"
	"mortgage-api/internal/common/logger"
	"mortgage-api/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserStore(t *testing.T) (*UserStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db, logger.NewTestLogger(t)), mock
}

func TestUserStoreCreate(t *testing.T) {
	t.Run("persists user with roles", func(t *testing.T) {
		store, mock := newUserStore(t)

		mock.ExpectExec("INSERT INTO users").
			WithArgs(sqlmock.AnyArg(), "jsmith", "jsmith@example.com", "hash", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		user, err := store.Create(context.Background(), &models.User{
			Username:     "jsmith",
			Email:        "jsmith@example.com",
			PasswordHash: "hash",
			Roles:        []string{models.RoleApplicant},
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("taken username maps to conflict", func(t *testing.T) {
		store, mock := newUserStore(t)

		mock.ExpectExec("INSERT INTO users").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

		_, err := store.Create(context.Background(), &models.User{Username: "jsmith"})
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDuplicateUsername))
	})
}

func TestUserStoreGetByUsername(t *testing.T) {
	columns := []string{"id", "username", "email", "password_hash", "roles", "created_at"}

	t.Run("returns user", func(t *testing.T) {
		store, mock := newUserStore(t)
		id := uuid.New()

		mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
			WithArgs("jsmith").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(id, "jsmith", "jsmith@example.com", "hash", "{OFFICER}", time.Now().UTC()))

		user, err := store.GetByUsername(context.Background(), "jsmith")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, []string{"OFFICER"}, user.Roles)
	})

	t.Run("missing user maps to not found", func(t *testing.T) {
		store, mock := newUserStore(t)

		mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := store.GetByUsername(context.Background(), "ghost")
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUserNotFound))
	})
}

// internal/store/users.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mortgage-api/internal/common/database"
	apperrors "mortgage-api/internal/common/errors"
	"mortgage-api/internal/common/logger"
	"mortgage-api/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UserStore persists accounts used for authentication and approver lookup.
type UserStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewUserStore(db *sql.DB, log logger.Logger) *UserStore {
	return &UserStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "user-store"}),
	}
}

// Create persists a new user; a taken username surfaces as a conflict.
func (s *UserStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New()
	user.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, roles, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Username, user.Email, user.PasswordHash, pq.Array(user.Roles), user.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return nil, apperrors.NewDuplicateUsername(user.Username)
		}
		return nil, apperrors.NewInternal("insert user", err)
	}
	return user, nil
}

// GetByUsername looks a user up for authentication.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getOne(ctx, "username = $1", username)
}

// GetByID looks a user up by id.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getOne(ctx, "id = $1", id)
}

func (s *UserStore) getOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, username, email, password_hash, roles, created_at
		FROM users WHERE %s`, where), arg,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, pq.Array(&user.Roles), &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewUserNotFound(fmt.Sprintf("%v", arg))
		}
		return nil, apperrors.NewInternal("query user", err)
	}
	return &user, nil
}

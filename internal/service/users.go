// internal/service/users.go
package service

import (
	"context"
	"fmt"

	"mortgage-api/internal/common/auth"
	apperrors "mortgage-api/internal/common/errors"
	"mortgage-api/internal/common/logger"
	"mortgage-api/internal/models"
	"mortgage-api/internal/store"

	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest is the account creation payload.
type RegisterRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles,omitempty"`
}

// LoginRequest is the authentication payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserService registers accounts and exchanges credentials for tokens.
type UserService struct {
	users  *store.UserStore
	tokens *auth.TokenProvider
	logger logger.Logger
}

func NewUserService(users *store.UserStore, tokens *auth.TokenProvider, log logger.Logger) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		logger: log.WithFields(map[string]interface{}{"component": "user-service"}),
	}
}

// Register creates an account. Roles default to APPLICANT; unknown roles are
// rejected.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if req.Username == "" || req.Password == "" {
		return nil, apperrors.NewValidationFailed("username and password are required")
	}

	roles := req.Roles
	if len(roles) == 0 {
		roles = []string{models.RoleApplicant}
	}
	for _, role := range roles {
		if role != models.RoleApplicant && role != models.RoleOfficer {
			return nil, apperrors.NewValidationFailed(fmt.Sprintf("unknown role: %s", role))
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewInternal("hash password", err)
	}

	user, err := s.users.Create(ctx, &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Roles:        roles,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", map[string]interface{}{
		"userId":   user.ID.String(),
		"username": user.Username,
		"roles":    user.Roles,
	})
	return user, nil
}

// Login verifies credentials and issues a token. Unknown usernames and bad
// passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (string, *models.User, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeUserNotFound) {
			return "", nil, apperrors.NewInvalidCredentials()
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, apperrors.NewInvalidCredentials()
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return "", nil, apperrors.NewInternal("issue token", err)
	}
	return token, user, nil
}

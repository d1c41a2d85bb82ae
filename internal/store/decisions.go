// internal/store/decisions.go
package store

import (
	"context"
	"database/sql"
	"time"

	"mortgage-api/internal/common/database"
	apperrors "mortgage-api/internal/common/errors"
	"mortgage-api/internal/common/logger"
	"mortgage-api/internal/models"

	"github.com/google/uuid"
)

// DecisionStore creates decisions. It is the only writer of
// applications.status after initial creation.
type DecisionStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewDecisionStore(db *sql.DB, log logger.Logger) *DecisionStore {
	return &DecisionStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "decision-store"}),
	}
}

// Create inserts the decision and flips the application status in a single
// transaction. The UNIQUE constraint on decisions.application_id is the
// arbiter under concurrent attempts: the losing insert surfaces as a unique
// violation and is mapped to the already-exists conflict, leaving no window
// between check and insert. The status update is additionally guarded on
// PENDING so a decision can never overwrite a prior transition.
func (s *DecisionStore) Create(ctx context.Context, d *models.Decision) (*models.Decision, error) {
	d.ID = uuid.New()
	d.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewInternal("begin create decision", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO decisions (id, application_id, approver_id, decision, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.ApplicationID, d.ApproverID, d.Decision, d.Comment, d.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return nil, apperrors.NewDecisionAlreadyExists(d.ApplicationID.String())
		}
		return nil, apperrors.NewInternal("insert decision", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE applications SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`,
		string(d.Decision), d.CreatedAt, d.ApplicationID, models.StatusPending,
	)
	if err != nil {
		return nil, apperrors.NewInternal("update application status", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, apperrors.NewInternal("update application status", err)
	}
	if affected == 0 {
		return nil, apperrors.NewDecisionAlreadyExists(d.ApplicationID.String())
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewInternal("commit create decision", err)
	}

	s.logger.Info("decision committed", map[string]interface{}{
		"decisionId":    d.ID.String(),
		"applicationId": d.ApplicationID.String(),
		"decision":      string(d.Decision),
	})
	return d, nil
}

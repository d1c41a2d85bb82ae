// internal/store/applications.go

// Package store owns persistence for applications, decisions and users.
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
)

// ApplicationStore owns the Application lifecycle. Status is mutated only by
// the decision commit in DecisionStore; nothing else writes it after creation.
type ApplicationStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewApplicationStore(db *sql.DB, log logger.Logger) *ApplicationStore {
	return &ApplicationStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "application-store"}),
	}
}

// Create persists a new application and its document metadata in one
// transaction. A reused national id surfaces as a conflict error.
func (s *ApplicationStore) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	if app.Status == "" {
		app.Status = models.StatusPending
	}
	app.ID = uuid.New()
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewInternal("begin create application", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO applications (id, applicant_id, national_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		app.ID, app.ApplicantID, app.NationalID, app.Amount, app.Status, now,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return nil, apperrors.NewDuplicateNationalID(app.NationalID)
		}
		return nil, apperrors.NewInternal("insert application", err)
	}

	for i := range app.Documents {
		doc := &app.Documents[i]
		doc.ID = uuid.New()
		doc.ApplicationID = app.ID
		doc.CreatedAt = now

		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (id, application_id, file_name, file_type, size, storage_key, url, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			doc.ID, doc.ApplicationID, doc.FileName, doc.FileType, doc.Size, doc.StorageKey, doc.URL, doc.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternal("insert document", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewInternal("commit create application", err)
	}

	s.logger.Info("application created", map[string]interface{}{
		"applicationId": app.ID.String(),
		"nationalId":    app.NationalID,
		"documents":     len(app.Documents),
	})
	return app, nil
}

// GetByID returns the full record including its documents.
func (s *ApplicationStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	err := s.db.QueryRowContext(ctx, `
		SELECT id, applicant_id, national_id, amount, status, created_at, updated_at
		FROM applications WHERE id = $1`, id,
	).Scan(&app.ID, &app.ApplicantID, &app.NationalID, &app.Amount, &app.Status, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewApplicationNotFound(id.String())
		}
		return nil, apperrors.NewInternal("query application", err)
	}

	docs, err := s.documentsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	app.Documents = docs
	return &app, nil
}

func (s *ApplicationStore) documentsFor(ctx context.Context, applicationID uuid.UUID) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, file_name, file_type, size, storage_key, url, created_at
		FROM documents WHERE application_id = $1 ORDER BY created_at, id`, applicationID)
	if err != nil {
		return nil, apperrors.NewInternal("query documents", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.ApplicationID, &d.FileName, &d.FileType, &d.Size, &d.StorageKey, &d.URL, &d.CreatedAt); err != nil {
			return nil, apperrors.NewInternal("scan document", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternal("iterate documents", err)
	}
	return docs, nil
}

// List returns one page of applications matching the filter, in creation
// order for stable pagination. An out-of-range page yields an empty page.
func (s *ApplicationStore) List(ctx context.Context, filter models.ApplicationFilter, page models.PageRequest) (*models.ApplicationPage, error) {
	page = page.Normalize()
	where, args := buildFilterClause(filter)

	var total int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM applications"+where, args...).Scan(&total)
	if err != nil {
		return nil, apperrors.NewInternal("count applications", err)
	}

	query := fmt.Sprintf(
		"SELECT id, applicant_id, national_id, amount, status, created_at, updated_at FROM applications%s ORDER BY created_at, id LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2,
	)
	rows, err := s.db.QueryContext(ctx, query, append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, apperrors.NewInternal("query applications", err)
	}
	defer rows.Close()

	items := []models.Application{}
	for rows.Next() {
		var app models.Application
		if err := rows.Scan(&app.ID, &app.ApplicantID, &app.NationalID, &app.Amount, &app.Status, &app.CreatedAt, &app.UpdatedAt); err != nil {
			return nil, apperrors.NewInternal("scan application", err)
		}
		items = append(items, app)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternal("iterate applications", err)
	}

	totalPages := int((total + int64(page.Size) - 1) / int64(page.Size))
	return &models.ApplicationPage{
		Items:         items,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

// internal/service/application.go

// Package service implements the business operations behind the API:
// application intake, filtered listing and decision adjudication.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "mortgage-api/internal/common/errors"
	"mortgage-api/internal/common/logger"
	"mortgage-api/internal/common/metrics"
	"mortgage-api/internal/common/validation"
	"mortgage-api/internal/events"
	"mortgage-api/internal/models"
	"mortgage-api/internal/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// BlobStore uploads documents and mints time-limited download links.
type BlobStore interface {
	Store(ctx context.Context, bucket, key, localPath string) error
	PresignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// CreateApplicationRequest is the submission payload. Status is accepted for
// wire compatibility but a submission always starts PENDING.
type CreateApplicationRequest struct {
	ApplicantID string            `json:"applicantId"`
	NationalID  string            `json:"nationalId"`
	Amount      float64           `json:"amount"`
	Status      string            `json:"status,omitempty"`
	Documents   []DocumentRequest `json:"documents,omitempty"`
}

// DocumentRequest describes one uploaded file accompanying a submission.
type DocumentRequest struct {
	FileName string `json:"fileName"`
	FilePath string `json:"filePath"`
	FileType string `json:"fileType,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// ApplicationOptions carries the configuration slice the service needs.
type ApplicationOptions struct {
	Bucket        string
	KeyPrefix     string
	PresignTTL    time.Duration
	CacheTTL      time.Duration
	PublishOnRead bool
}

// ApplicationService handles submission and reads. Reads of single records go
// through a Redis cache; the cache entry is dropped when a decision lands.
type ApplicationService struct {
	apps      *store.ApplicationStore
	validator *validation.Validator
	blob      BlobStore
	cache     *redis.Client
	publisher events.Publisher
	opts      ApplicationOptions
	logger    logger.Logger
}

func NewApplicationService(
	apps *store.ApplicationStore,
	validator *validation.Validator,
	blob BlobStore,
	cache *redis.Client,
	publisher events.Publisher,
	opts ApplicationOptions,
	log logger.Logger,
) *ApplicationService {
	return &ApplicationService{
		apps:      apps,
		validator: validator,
		blob:      blob,
		cache:     cache,
		publisher: publisher,
		opts:      opts,
		logger:    log.WithFields(map[string]interface{}{"component": "application-service"}),
	}
}

func applicationCacheKey(id uuid.UUID) string {
	return "application:" + id.String()
}

// Create validates the submission, uploads its documents and persists the
// application as PENDING, then emits a CREATE event.
func (s *ApplicationService) Create(ctx context.Context, req CreateApplicationRequest) (*models.Application, error) {
	result, err := s.validator.Validate(req)
	if err != nil {
		return nil, apperrors.NewInternal("validate submission", err)
	}
	if !result.Valid {
		return nil, apperrors.NewValidationFailed(result.Summary())
	}

	applicantID, err := uuid.Parse(req.ApplicantID)
	if err != nil {
		return nil, apperrors.NewValidationFailed(fmt.Sprintf("applicantId: %s is not a valid uuid", req.ApplicantID))
	}

	app := &models.Application{
		ApplicantID: applicantID,
		NationalID:  req.NationalID,
		Amount:      req.Amount,
		Status:      models.StatusPending,
	}

	for _, doc := range req.Documents {
		stored, err := s.uploadDocument(ctx, doc)
		if err != nil {
			return nil, err
		}
		app.Documents = append(app.Documents, *stored)
	}

	created, err := s.apps.Create(ctx, app)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, models.EventCreate, created.ID.String(), created)
	return created, nil
}

func (s *ApplicationService) uploadDocument(ctx context.Context, doc DocumentRequest) (*models.Document, error) {
	key := fmt.Sprintf("%s%s/%s", s.opts.KeyPrefix, uuid.New(), doc.FileName)

	if err := s.blob.Store(ctx, s.opts.Bucket, key, doc.FilePath); err != nil {
		return nil, apperrors.NewInternal("store document", err)
	}
	url, err := s.blob.PresignedURL(ctx, s.opts.Bucket, key, s.opts.PresignTTL)
	if err != nil {
		return nil, apperrors.NewInternal("presign document", err)
	}

	return &models.Document{
		FileName:   doc.FileName,
		FileType:   doc.FileType,
		Size:       doc.Size,
		StorageKey: key,
		URL:        url,
	}, nil
}

// Get returns one application, serving from cache when possible. When the
// publish-on-read toggle is on an UPDATE event is emitted for every uncached
// read, mirroring consumers that resynchronize on fetch.
func (s *ApplicationService) Get(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	if app, ok := s.cached(ctx, id); ok {
		metrics.CacheHits.WithLabelValues("hit").Inc()
		return app, nil
	}
	metrics.CacheHits.WithLabelValues("miss").Inc()

	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, app)

	if s.opts.PublishOnRead {
		s.publisher.Publish(ctx, models.EventUpdate, app.ID.String(), app)
	}
	return app, nil
}

func (s *ApplicationService) cached(ctx context.Context, id uuid.UUID) (*models.Application, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, applicationCacheKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.WithError(err).Warn("cache read failed", map[string]interface{}{
				"applicationId": id.String(),
			})
		}
		return nil, false
	}

	var app models.Application
	if err := json.Unmarshal(data, &app); err != nil {
		s.logger.WithError(err).Warn("cache entry corrupt", map[string]interface{}{
			"applicationId": id.String(),
		})
		return nil, false
	}
	return &app, true
}

func (s *ApplicationService) cacheSet(ctx context.Context, app *models.Application) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(app)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, applicationCacheKey(app.ID), data, s.opts.CacheTTL).Err(); err != nil {
		s.logger.WithError(err).Warn("cache write failed", map[string]interface{}{
			"applicationId": app.ID.String(),
		})
	}
}

// List returns one page of applications matching the filter.
func (s *ApplicationService) List(ctx context.Context, filter models.ApplicationFilter, page models.PageRequest) (*models.ApplicationPage, error) {
	return s.apps.List(ctx, filter, page)
}

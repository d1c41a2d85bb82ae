// internal/service/decision.go
package service

import (
	"context"
	"strings"
	"time"

	apperrors "mortgage-api/internal/common/errors"
	"mortgage-api/internal/common/logger"
	"mortgage-api/internal/common/metrics"
	"mortgage-api/internal/events"
	"mortgage-api/internal/models"
	"mortgage-api/internal/notify"
	"mortgage-api/internal/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DecideRequest is the adjudication payload.
type DecideRequest struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment,omitempty"`
}

// DecisionEngine records exactly one decision per application. The storage
// layer arbitrates concurrent attempts; this layer validates input, emits the
// UPDATE event and notifies the applicant.
type DecisionEngine struct {
	apps      *store.ApplicationStore
	decisions *store.DecisionStore
	users     *store.UserStore
	cache     *redis.Client
	publisher events.Publisher
	notifier  *notify.EmailNotifier
	logger    logger.Logger
}

func NewDecisionEngine(
	apps *store.ApplicationStore,
	decisions *store.DecisionStore,
	users *store.UserStore,
	cache *redis.Client,
	publisher events.Publisher,
	notifier *notify.EmailNotifier,
	log logger.Logger,
) *DecisionEngine {
	return &DecisionEngine{
		apps:      apps,
		decisions: decisions,
		users:     users,
		cache:     cache,
		publisher: publisher,
		notifier:  notifier,
		logger:    log.WithFields(map[string]interface{}{"component": "decision-engine"}),
	}
}

// Decide records the decision for an application and flips its status. A
// second attempt, concurrent or not, gets the already-exists conflict and
// leaves the first outcome untouched.
func (e *DecisionEngine) Decide(ctx context.Context, applicationID, approverID uuid.UUID, req DecideRequest) (*models.Decision, error) {
	app, err := e.apps.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	value := models.DecisionValue(req.Decision)
	if !value.Valid() {
		return nil, apperrors.NewInvalidDecisionValue(req.Decision)
	}

	decision, err := e.decisions.Create(ctx, &models.Decision{
		ApplicationID: applicationID,
		ApproverID:    approverID,
		Decision:      value,
		Comment:       req.Comment,
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeDecisionAlreadyExists) {
			metrics.DecisionsTotal.WithLabelValues("conflict").Inc()
		}
		return nil, err
	}
	metrics.DecisionsTotal.WithLabelValues(strings.ToLower(string(value))).Inc()

	e.invalidate(ctx, applicationID)

	e.publisher.Publish(ctx, models.EventUpdate, decision.ID.String(), decision)

	go e.notifyApplicant(app, decision)
	return decision, nil
}

func (e *DecisionEngine) invalidate(ctx context.Context, applicationID uuid.UUID) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Del(ctx, applicationCacheKey(applicationID)).Err(); err != nil {
		e.logger.WithError(err).Warn("cache invalidation failed", map[string]interface{}{
			"applicationId": applicationID.String(),
		})
	}
}

const notifyTimeout = 5 * time.Second

// notifyApplicant runs detached from the request like the event publisher,
// so the mail round trip never extends decision latency.
func (e *DecisionEngine) notifyApplicant(app *models.Application, decision *models.Decision) {
	if e.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	applicant, err := e.users.GetByID(ctx, app.ApplicantID)
	if err != nil {
		e.logger.WithError(err).Warn("applicant lookup for notification failed", map[string]interface{}{
			"applicationId": app.ID.String(),
		})
		return
	}
	e.notifier.DecisionCreated(ctx, applicant.Email, app, decision)
}

// internal/service/decision_test.go
package service

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "mortgage-api/internal/common/errors"
	"mortgage-api/internal/common/logger"
	"mortgage-api/internal/models"
	"mortgage-api/internal/notify"
	"mortgage-api/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	kinds    []models.EventKind
	keys     []string
	payloads []interface{}
}

func (c *capturePublisher) Publish(_ context.Context, kind models.EventKind, key string, payload interface{}) {
	c.kinds = append(c.kinds, kind)
	c.keys = append(c.keys, key)
	c.payloads = append(c.payloads, payload)
}

type fakeSESAPI struct {
	mu   sync.Mutex
	sent int
}

func (f *fakeSESAPI) SendEmail(_ context.Context, _ *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent++
	return &ses.SendEmailOutput{}, nil
}

func (f *fakeSESAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}

func newTestCache(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func newDecisionEngine(t *testing.T, notifier *notify.EmailNotifier) (*DecisionEngine, sqlmock.Sqlmock, *capturePublisher, *miniredis.Miniredis) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	cache, mr := newTestCache(t)
	publisher := &capturePublisher{}

	engine := NewDecisionEngine(
		store.NewApplicationStore(db, log),
		store.NewDecisionStore(db, log),
		store.NewUserStore(db, log),
		cache,
		publisher,
		notifier,
		log,
	)
	return engine, mock, publisher, mr
}

var appColumns = []string{"id", "applicant_id", "national_id", "amount", "status", "created_at", "updated_at"}
var docColumns = []string{"id", "application_id", "file_name", "file_type", "size", "storage_key", "url", "created_at"}

func expectGetApplication(mock sqlmock.Sqlmock, id uuid.UUID) {
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM applications WHERE id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(appColumns).
			AddRow(id, uuid.New(), "AB123456", 250000.0, "PENDING", now, now))
	mock.ExpectQuery("SELECT (.+) FROM documents WHERE application_id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(docColumns))
}

func TestDecide(t *testing.T) {
	appID := uuid.New()
	approverID := uuid.New()

	t.Run("records decision, invalidates cache and publishes the decision", func(t *testing.T) {
		engine, mock, publisher, mr := newDecisionEngine(t, nil)
		mr.Set(applicationCacheKey(appID), "stale")

		expectGetApplication(mock, appID)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO decisions").
			WithArgs(sqlmock.AnyArg(), appID, approverID, "APPROVED", "looks good", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE applications SET status").
			WithArgs("APPROVED", sqlmock.AnyArg(), appID, "PENDING").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		decision, err := engine.Decide(context.Background(), appID, approverID, DecideRequest{
			Decision: "APPROVED",
			Comment:  "looks good",
		})
		require.NoError(t, err)
		assert.Equal(t, models.DecisionApproved, decision.Decision)
		assert.Equal(t, approverID, decision.ApproverID)

		assert.False(t, mr.Exists(applicationCacheKey(appID)))

		require.Len(t, publisher.kinds, 1)
		assert.Equal(t, models.EventUpdate, publisher.kinds[0])
		assert.Equal(t, decision.ID.String(), publisher.keys[0])
		published, ok := publisher.payloads[0].(*models.Decision)
		require.True(t, ok)
		assert.Equal(t, models.DecisionApproved, published.Decision)
		assert.Equal(t, approverID, published.ApproverID)
		assert.Equal(t, "looks good", published.Comment)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid value is rejected after the existence check, touching nothing", func(t *testing.T) {
		engine, mock, publisher, _ := newDecisionEngine(t, nil)

		expectGetApplication(mock, appID)

		_, err := engine.Decide(context.Background(), appID, approverID, DecideRequest{Decision: "MAYBE"})
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidDecisionValue))
		assert.Empty(t, publisher.kinds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown application maps to not found even with a bad value", func(t *testing.T) {
		engine, mock, publisher, _ := newDecisionEngine(t, nil)

		mock.ExpectQuery("SELECT (.+) FROM applications WHERE id").
			WithArgs(appID).
			WillReturnRows(sqlmock.NewRows(appColumns))

		_, err := engine.Decide(context.Background(), appID, approverID, DecideRequest{Decision: "MAYBE"})
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeApplicationNotFound))
		assert.Empty(t, publisher.kinds)
	})

	t.Run("second decision attempt maps to conflict and publishes nothing", func(t *testing.T) {
		engine, mock, publisher, _ := newDecisionEngine(t, nil)

		expectGetApplication(mock, appID)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO decisions").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "decisions_application_id_key"})
		mock.ExpectRollback()

		_, err := engine.Decide(context.Background(), appID, approverID, DecideRequest{Decision: "REJECTED"})
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDecisionAlreadyExists))
		assert.Empty(t, publisher.kinds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applicant is emailed off the request path", func(t *testing.T) {
		fake := &fakeSESAPI{}
		notifier := notify.NewEmailNotifier(fake, "loans@example.com", true, logger.NewNoOpLogger())
		engine, mock, _, _ := newDecisionEngine(t, notifier)

		expectGetApplication(mock, appID)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO decisions").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE applications SET status").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "roles", "created_at"}).
				AddRow(uuid.New(), "applicant", "applicant@example.com", "hash", "{APPLICANT}", time.Now().UTC()))

		_, err := engine.Decide(context.Background(), appID, approverID, DecideRequest{Decision: "APPROVED"})
		require.NoError(t, err)

		assert.Eventually(t, func() bool { return fake.count() == 1 }, time.Second, 10*time.Millisecond)
	})
}

// internal/api/handlers_test.go
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mortgage-api/internal/common/auth"
	"mortgage-api/internal/common/logger"
	"mortgage-api/internal/common/validation"
	"mortgage-api/internal/events"
	"mortgage-api/internal/models"
	"mortgage-api/internal/service"
	"mortgage-api/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router *mux.Router
	mock   sqlmock.Sqlmock
	tokens *auth.TokenProvider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	validator, err := validation.NewValidator(validation.ApplicationSubmissionSchema)
	require.NoError(t, err)

	appStore := store.NewApplicationStore(db, log)
	decisionStore := store.NewDecisionStore(db, log)
	userStore := store.NewUserStore(db, log)
	tokens := auth.NewTokenProvider("test-secret", "mortgage-api", time.Hour)
	publisher := events.NopPublisher{}

	applications := service.NewApplicationService(appStore, validator, nil, cache, publisher,
		service.ApplicationOptions{CacheTTL: time.Minute}, log)
	decisions := service.NewDecisionEngine(appStore, decisionStore, userStore, cache, publisher, nil, log)
	users := service.NewUserService(userStore, tokens, log)

	handlers := NewHandlers(applications, decisions, users, log)
	return &testServer{
		router: NewRouter(handlers, tokens, log, nil),
		mock:   mock,
		tokens: tokens,
	}
}

func (s *testServer) tokenFor(t *testing.T, id uuid.UUID, roles ...string) string {
	t.Helper()
	token, err := s.tokens.GenerateToken(&models.User{ID: id, Username: "tester", Roles: roles})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestAuthGating(t *testing.T) {
	s := newTestServer(t)

	t.Run("missing token is unauthorized", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/applications", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/applications", "not-a-token", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("applicant cannot use the unfiltered listing", func(t *testing.T) {
		token := s.tokenFor(t, uuid.New(), models.RoleApplicant)
		rec := s.do(http.MethodGet, "/api/v1/applications/all", token, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("officer cannot submit an application", func(t *testing.T) {
		token := s.tokenFor(t, uuid.New(), models.RoleOfficer)
		rec := s.do(http.MethodPost, "/api/v1/applications", token, `{"applicantId":"x"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("applicant cannot decide", func(t *testing.T) {
		token := s.tokenFor(t, uuid.New(), models.RoleApplicant)
		rec := s.do(http.MethodPatch, "/api/v1/applications/"+uuid.NewString()+"/decision", token, `{"decision":"APPROVED"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestListApplicationsEndpoint(t *testing.T) {
	appColumns := []string{"id", "applicant_id", "national_id", "amount", "status", "created_at", "updated_at"}

	t.Run("bad date filter is a 400", func(t *testing.T) {
		s := newTestServer(t)
		token := s.tokenFor(t, uuid.New(), models.RoleOfficer)

		rec := s.do(http.MethodGet, "/api/v1/applications?createdFrom=15/03/2026", token, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "INVALID_DATE_FILTER", body["code"])
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})

	t.Run("bad status filter is a 400", func(t *testing.T) {
		s := newTestServer(t)
		token := s.tokenFor(t, uuid.New(), models.RoleOfficer)

		rec := s.do(http.MethodGet, "/api/v1/applications?status=MAYBE", token, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("officer gets a filtered page", func(t *testing.T) {
		s := newTestServer(t)
		token := s.tokenFor(t, uuid.New(), models.RoleOfficer)
		now := time.Now().UTC()

		s.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM applications WHERE status = \$1`).
			WithArgs("PENDING").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
		s.mock.ExpectQuery("SELECT (.+) FROM applications WHERE status").
			WillReturnRows(sqlmock.NewRows(appColumns).
				AddRow(uuid.New(), uuid.New(), "AB123456", 250000.0, "PENDING", now, now))

		rec := s.do(http.MethodGet, "/api/v1/applications?status=PENDING", token, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var page models.ApplicationPage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		assert.Len(t, page.Items, 1)
		assert.Equal(t, int64(1), page.TotalElements)
	})
}

func TestDecisionEndpoint(t *testing.T) {
	appColumns := []string{"id", "applicant_id", "national_id", "amount", "status", "created_at", "updated_at"}
	docColumns := []string{"id", "application_id", "file_name", "file_type", "size", "storage_key", "url", "created_at"}

	expectApp := func(s *testServer, id uuid.UUID) {
		now := time.Now().UTC()
		s.mock.ExpectQuery("SELECT (.+) FROM applications WHERE id").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(appColumns).
				AddRow(id, uuid.New(), "AB123456", 250000.0, "PENDING", now, now))
		s.mock.ExpectQuery("SELECT (.+) FROM documents WHERE application_id").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(docColumns))
	}

	t.Run("approver identity comes from the token", func(t *testing.T) {
		s := newTestServer(t)
		officerID := uuid.New()
		appID := uuid.New()
		token := s.tokenFor(t, officerID, models.RoleOfficer)

		expectApp(s, appID)
		s.mock.ExpectBegin()
		s.mock.ExpectExec("INSERT INTO decisions").
			WithArgs(sqlmock.AnyArg(), appID, officerID, "APPROVED", "", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		s.mock.ExpectExec("UPDATE applications SET status").
			WillReturnResult(sqlmock.NewResult(0, 1))
		s.mock.ExpectCommit()

		rec := s.do(http.MethodPatch, "/api/v1/applications/"+appID.String()+"/decision", token, `{"decision":"APPROVED"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})

	t.Run("second decision is a 409", func(t *testing.T) {
		s := newTestServer(t)
		appID := uuid.New()
		token := s.tokenFor(t, uuid.New(), models.RoleOfficer)

		expectApp(s, appID)
		s.mock.ExpectBegin()
		s.mock.ExpectExec("INSERT INTO decisions").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "decisions_application_id_key"})
		s.mock.ExpectRollback()

		rec := s.do(http.MethodPatch, "/api/v1/applications/"+appID.String()+"/decision", token, `{"decision":"REJECTED"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "DECISION_ALREADY_EXISTS", body["code"])
	})

	t.Run("invalid decision value is a 400", func(t *testing.T) {
		s := newTestServer(t)
		appID := uuid.New()
		token := s.tokenFor(t, uuid.New(), models.RoleOfficer)

		expectApp(s, appID)

		rec := s.do(http.MethodPatch, "/api/v1/applications/"+appID.String()+"/decision", token, `{"decision":"MAYBE"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetApplicationEndpoint(t *testing.T) {
	appColumns := []string{"id", "applicant_id", "national_id", "amount", "status", "created_at", "updated_at"}

	t.Run("unknown id is a 404", func(t *testing.T) {
		s := newTestServer(t)
		id := uuid.New()
		token := s.tokenFor(t, uuid.New(), models.RoleApplicant)

		s.mock.ExpectQuery("SELECT (.+) FROM applications WHERE id").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(appColumns))

		rec := s.do(http.MethodGet, "/api/v1/applications/"+id.String(), token, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id is a 400", func(t *testing.T) {
		s := newTestServer(t)
		token := s.tokenFor(t, uuid.New(), models.RoleApplicant)

		rec := s.do(http.MethodGet, "/api/v1/applications/not-a-uuid", token, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

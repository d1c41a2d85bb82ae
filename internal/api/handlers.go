// internal/api/handlers.go
package api

import (
	"net/http"
	"strconv"

	apperrors "mortgage-api/internal/common/errors"
	"mortgage-api/internal/common/logger"
	"mortgage-api/internal/models"
	"mortgage-api/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Handlers binds the HTTP surface to the services behind it.
type Handlers struct {
	applications *service.ApplicationService
	decisions    *service.DecisionEngine
	users        *service.UserService
	logger       logger.Logger
}

func NewHandlers(
	applications *service.ApplicationService,
	decisions *service.DecisionEngine,
	users *service.UserService,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		applications: applications,
		decisions:    decisions,
		users:        users,
		logger:       log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

func (h *Handlers) createApplication(w http.ResponseWriter, r *http.Request) {
	var req service.CreateApplicationRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	app, err := h.applications.Create(r.Context(), req)
	if err != nil {
		h.logError(r, err)
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, app)
}

func (h *Handlers) getApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	app, err := h.applications.Get(r.Context(), id)
	if err != nil {
		h.logError(r, err)
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, app)
}

// listApplications serves the paged, filtered listing. All filter dimensions
// are optional and combine with AND.
func (h *Handlers) listApplications(w http.ResponseWriter, r *http.Request) {
	filter, page, err := parseListQuery(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.applications.List(r.Context(), filter, page)
	if err != nil {
		h.logError(r, err)
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// listAllApplications serves the unfiltered listing. Only page and size are
// honored; filter parameters are ignored.
func (h *Handlers) listAllApplications(w http.ResponseWriter, r *http.Request) {
	_, page, err := parseListQuery(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.applications.List(r.Context(), models.ApplicationFilter{}, page)
	if err != nil {
		h.logError(r, err)
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (h *Handlers) createDecision(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		WriteError(w, apperrors.NewUnauthorized("missing identity"))
		return
	}

	var req service.DecideRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	decision, err := h.decisions.Decide(r.Context(), id, identity.UserID, req)
	if err != nil {
		h.logError(r, err)
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, decision)
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), req)
	if err != nil {
		h.logError(r, err)
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, user)
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	token, user, err := h.users.Login(r.Context(), req)
	if err != nil {
		h.logError(r, err)
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func pathID(r *http.Request) (uuid.UUID, error) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.NewValidationFailed("id must be a uuid: " + raw)
	}
	return id, nil
}

func parseListQuery(r *http.Request) (models.ApplicationFilter, models.PageRequest, error) {
	q := r.URL.Query()

	var filter models.ApplicationFilter
	if status := q.Get("status"); status != "" {
		s := models.ApplicationStatus(status)
		if !s.Valid() {
			return filter, models.PageRequest{}, apperrors.NewValidationFailed("status must be PENDING, APPROVED or REJECTED")
		}
		filter.Status = s
	}
	filter.NationalID = q.Get("nationalId")

	if from := q.Get("createdFrom"); from != "" {
		t, err := models.ParseLowerBound(from)
		if err != nil {
			return filter, models.PageRequest{}, apperrors.NewInvalidDateFilter("createdFrom", from)
		}
		filter.CreatedFrom = &t
	}
	if to := q.Get("createdTo"); to != "" {
		t, err := models.ParseUpperBound(to)
		if err != nil {
			return filter, models.PageRequest{}, apperrors.NewInvalidDateFilter("createdTo", to)
		}
		filter.CreatedTo = &t
	}

	page := models.PageRequest{Page: models.DefaultPage, Size: models.DefaultPageSize}
	if p := q.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return filter, page, apperrors.NewValidationFailed("page must be a non-negative integer")
		}
		page.Page = n
	}
	if s := q.Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return filter, page, apperrors.NewValidationFailed("size must be a positive integer")
		}
		page.Size = n
	}
	return filter, page, nil
}

func (h *Handlers) logError(r *http.Request, err error) {
	fields := map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
	}
	if apperrors.CodeOf(err) == apperrors.ErrCodeInternal {
		h.logger.WithError(err).Error("request failed", fields)
	} else {
		h.logger.WithError(err).Debug("request rejected", fields)
	}
}

// internal/api/router.go
package api

import (
	"net/http"

	"mortgage-api/internal/common/auth"
	"mortgage-api/internal/common/logger"
	"mortgage-api/internal/common/observability"
	"mortgage-api/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the full HTTP surface. Auth endpoints and operational
// probes are open; everything under /api/v1/applications requires a token.
func NewRouter(h *Handlers, tokens *auth.TokenProvider, log logger.Logger, obs *observability.Observability) *mux.Router {
	r := mux.NewRouter()
	r.Use(Instrument(log, obs))

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	v1.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)

	apps := v1.PathPrefix("/applications").Subrouter()
	apps.Use(Authenticate(tokens))

	applicantOnly := RequireRoles(models.RoleApplicant)
	officerOnly := RequireRoles(models.RoleOfficer)
	anyRole := RequireRoles(models.RoleApplicant, models.RoleOfficer)

	apps.Handle("", applicantOnly(http.HandlerFunc(h.createApplication))).Methods(http.MethodPost)
	apps.Handle("", anyRole(http.HandlerFunc(h.listApplications))).Methods(http.MethodGet)
	apps.Handle("/all", officerOnly(http.HandlerFunc(h.listAllApplications))).Methods(http.MethodGet)
	apps.Handle("/{id}", anyRole(http.HandlerFunc(h.getApplication))).Methods(http.MethodGet)
	apps.Handle("/{id}/decision", officerOnly(http.HandlerFunc(h.createDecision))).Methods(http.MethodPatch)

	return r
}

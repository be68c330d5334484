package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"consentledger/internal/audit"
	"consentledger/internal/consent"
	"consentledger/internal/patient"
	"consentledger/internal/platform/middleware"
)

// Handler bundles the services exposed over HTTP.
type Handler struct {
	authority *consent.Authority
	ledger    *audit.Ledger
	directory *patient.Directory
	logger    *slog.Logger
}

func NewHandler(authority *consent.Authority, ledger *audit.Ledger, directory *patient.Directory, logger *slog.Logger) *Handler {
	return &Handler{
		authority: authority,
		ledger:    ledger,
		directory: directory,
		logger:    logger,
	}
}

// NewRouter assembles the full route tree with the shared middleware chain.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.CorrelationID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Attribution(h.logger))
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		r.Route("/consents", func(r chi.Router) {
			r.Post("/", h.handleGrantConsent)
			r.Get("/", h.handleListConsents)
			r.Get("/active", h.handleFindActive)
			r.Post("/authorize", h.handleAuthorize)
			r.Delete("/{id}", h.handleRevokeConsent)
		})

		r.Route("/audit/records", func(r chi.Router) {
			r.Post("/", h.handleAppendRecord)
			r.Get("/", h.handleQueryRecords)
		})

		r.Route("/patients", func(r chi.Router) {
			r.Post("/", h.handleCreatePatient)
			r.Route("/{referenceID}", func(r chi.Router) {
				r.Get("/", h.handleGetPatient)
				r.Put("/", h.handleUpdatePatient)
				r.Delete("/", h.handleDeletePatient)
				r.Post("/notifications", h.handleNotifyEmergencyContact)
			})
		})
	})

	return r
}

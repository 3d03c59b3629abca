/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the manager frontend

ROUTE GROUPS:
  /api/companies/{companyID}/*   Company-scoped scheduling
  /api/absences/{id}/*           Decision and coverage workflows
  /api/employees/{id}/quota      Contract quota summary
  /api/employees/{id}/absences   Absence history, ?status= filter
  /api/contracts/presets         CCNL presets
  /api/scenarios/*               Demo scenarios (dev only)

SECURITY NOTE:
  No authentication middleware. Actor and approver ids are taken from the
  request body and trusted.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured. An empty
// allowedOrigins allows any origin.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Company-scoped routes
		r.Route("/companies/{companyID}", func(r chi.Router) {
			r.Get("/availability", h.CheckAvailability)
			r.Get("/day-states", h.GetDayStates)

			r.Get("/shifts", h.ListShifts)
			r.Post("/shifts", h.SaveShift)

			r.Get("/absences", h.ListAbsences)
			r.Post("/absences", h.SubmitAbsence)

			r.Get("/contracts", h.ListContracts)
			r.Post("/contracts", h.SaveContract)

			r.Get("/publication", h.GetPublicationInfo)
			r.Route("/weeks/{weekStart}", func(r chi.Router) {
				r.Get("/status", h.GetWeekStatus)
				r.Post("/status", h.SetWeekStatus)
				r.Get("/roster.xlsx", h.ExportRoster)
			})

			r.Get("/audit", h.ListAudit)
		})

		// Absence workflow routes
		r.Route("/absences/{id}", func(r chi.Router) {
			r.Post("/decision", h.DecideAbsence)
			r.Get("/coverage", h.GetCoveragePlan)
			r.Post("/coverage", h.ConfirmCoverage)
		})

		r.Get("/employees/{id}/quota", h.GetQuota)
		r.Get("/employees/{id}/absences", h.ListEmployeeAbsences)
		r.Get("/contracts/presets", h.ListPresets)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

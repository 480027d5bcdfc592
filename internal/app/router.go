package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fieldworks/fieldworks/internal/customers"
	"github.com/fieldworks/fieldworks/internal/dispatch"
	"github.com/fieldworks/fieldworks/internal/invoices"
	"github.com/fieldworks/fieldworks/internal/locations"
	"github.com/fieldworks/fieldworks/internal/pricebook"
	"github.com/fieldworks/fieldworks/internal/technicians"
	"github.com/fieldworks/fieldworks/internal/workorders"
	"github.com/fieldworks/fieldworks/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	CustomerHandler   *customers.Handler
	LocationHandler   *locations.Handler
	TechnicianHandler *technicians.Handler
	WorkOrderHandler  *workorders.Handler
	DispatchHandler   *dispatch.Handler
	InvoiceHandler    *invoices.Handler
	PricebookHandler  *pricebook.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/customers", params.CustomerHandler.MountRoutes)
	r.Route("/locations", params.LocationHandler.MountRoutes)
	r.Route("/technicians", params.TechnicianHandler.MountRoutes)
	r.Route("/work-orders", params.WorkOrderHandler.MountRoutes)
	r.Route("/dispatch-events", params.DispatchHandler.MountRoutes)
	r.Route("/invoices", params.InvoiceHandler.MountRoutes)
	r.Route("/reports", params.InvoiceHandler.MountReportRoutes)
	r.Route("/portal", params.InvoiceHandler.MountPortalRoutes)
	r.Route("/pricebook", params.PricebookHandler.MountRoutes)

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}

package controllers

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"

	"github.com/iota-uz/tenantguard/modules/core/services"
	"github.com/iota-uz/tenantguard/pkg/application"
	"github.com/iota-uz/tenantguard/pkg/httpapi"
	"github.com/iota-uz/tenantguard/pkg/middleware"
	"github.com/iota-uz/tenantguard/pkg/tenancy"
)

// RecordsController lists rows of tenant-owned tables, scoped to the request's tenant.
type RecordsController struct {
	recordService *services.RecordService
}

func NewRecordsController(app application.Application) application.Controller {
	return &RecordsController{
		recordService: app.Service(services.RecordService{}).(*services.RecordService),
	}
}

func (c *RecordsController) Key() string {
	return "/api/records"
}

func (c *RecordsController) Register(r *mux.Router) {
	router := r.PathPrefix("/api/records").Subrouter()
	router.Use(middleware.RequireAuth(), middleware.RequireTenantScope())
	router.HandleFunc("/{table}", c.List).Methods(http.MethodGet)
}

func (c *RecordsController) List(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]
	records, err := c.recordService.List(r.Context(), table)
	switch {
	case err == nil:
	case errors.Is(err, tenancy.ErrUnregisteredTable):
		_ = httpapi.WriteError(w, http.StatusNotFound, httpapi.CodeUnknownTable, "unknown table", map[string]string{"table": table})
		return
	case errors.Is(err, tenancy.ErrNoTenantScope):
		_ = httpapi.WriteError(w, http.StatusForbidden, httpapi.CodeTenantScopeRequired, "a tenant context is required", nil)
		return
	default:
		internalError(w, r, err, "failed to list records")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"table":   table,
		"records": records,
	})
}

package controllers

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/tenantguard/modules/core/domain/entities/tenant"
	corepersistence "github.com/iota-uz/tenantguard/modules/core/infrastructure/persistence"
	"github.com/iota-uz/tenantguard/modules/core/presentation/controllers/dtos"
	"github.com/iota-uz/tenantguard/modules/superadmin/services"
	"github.com/iota-uz/tenantguard/pkg/application"
	"github.com/iota-uz/tenantguard/pkg/composables"
	"github.com/iota-uz/tenantguard/pkg/httpapi"
	"github.com/iota-uz/tenantguard/pkg/middleware"
)

type TenantsController struct {
	directory *services.TenantDirectoryService
	basePath  string
}

func NewTenantsController(app application.Application) application.Controller {
	return &TenantsController{
		directory: app.Service(services.TenantDirectoryService{}).(*services.TenantDirectoryService),
		basePath:  "/api/superadmin",
	}
}

func (c *TenantsController) Key() string {
	return c.basePath
}

func (c *TenantsController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireSuperAdmin())
	router.HandleFunc("/dashboard", c.Dashboard).Methods(http.MethodGet)
	router.HandleFunc("/tenants", c.List).Methods(http.MethodGet)
	router.HandleFunc("/tenants/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/tenants/{id}/status", c.UpdateStatus).Methods(http.MethodPatch)
}

type TenantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain,omitempty"`
	Status    string    `json:"status"`
	UserCount int       `json:"userCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toTenantResponse(t *tenant.Tenant) TenantResponse {
	return TenantResponse{
		ID:        t.ID().String(),
		Name:      t.Name(),
		Domain:    t.Domain(),
		Status:    string(t.Status()),
		CreatedAt: t.CreatedAt(),
		UpdatedAt: t.UpdatedAt(),
	}
}

func (c *TenantsController) List(w http.ResponseWriter, r *http.Request) {
	infos, err := c.directory.List(r.Context())
	if err != nil {
		internalError(w, r, err, "failed to list tenants")
		return
	}
	out := make([]TenantResponse, 0, len(infos))
	for _, info := range infos {
		out = append(out, TenantResponse{
			ID:        info.ID.String(),
			Name:      info.Name,
			Domain:    info.Domain,
			Status:    info.Status,
			UserCount: info.UserCount,
			CreatedAt: info.CreatedAt,
			UpdatedAt: info.UpdatedAt,
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{"tenants": out})
}

// Get is the existence check clients use to verify an impersonation target: 200 or 404.
func (c *TenantsController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		tenantNotFound(w)
		return
	}
	t, err := c.directory.Get(r.Context(), id)
	if errors.Is(err, corepersistence.ErrTenantNotFound) {
		tenantNotFound(w)
		return
	}
	if err != nil {
		internalError(w, r, err, "failed to load tenant")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toTenantResponse(t))
}

func (c *TenantsController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		tenantNotFound(w)
		return
	}
	var dto dtos.TenantStatusDTO
	if err := decodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, httpapi.CodeInvalidRequest, "malformed request body", nil)
		return
	}
	if fields, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, httpapi.CodeInvalidRequest, "validation failed", fields)
		return
	}
	status, err := tenant.NewStatus(dto.Status)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, httpapi.CodeInvalidRequest, err.Error(), nil)
		return
	}

	t, err := c.directory.UpdateStatus(r.Context(), id, status)
	if errors.Is(err, corepersistence.ErrTenantNotFound) {
		tenantNotFound(w)
		return
	}
	if err != nil {
		internalError(w, r, err, "failed to update tenant status")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toTenantResponse(t))
}

func (c *TenantsController) Dashboard(w http.ResponseWriter, r *http.Request) {
	m, err := c.directory.Metrics(r.Context())
	if err != nil {
		internalError(w, r, err, "failed to read dashboard metrics")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]int{
		"tenantCount":        m.TenantCount,
		"activeTenantCount":  m.ActiveTenantCount,
		"userCount":          m.UserCount,
		"platformUserCount":  m.PlatformUserCount,
		"activeSessionCount": m.ActiveSessionCount,
	})
}

func tenantNotFound(w http.ResponseWriter) {
	_ = httpapi.WriteError(w, http.StatusNotFound, httpapi.CodeTenantNotFound, "tenant not found", nil)
}

func internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	composables.UseLogger(r.Context()).WithError(err).Error(msg)
	_ = httpapi.WriteError(w, http.StatusInternalServerError, httpapi.CodeInternal, "internal server error", nil)
}

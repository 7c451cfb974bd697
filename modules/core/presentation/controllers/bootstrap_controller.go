package controllers

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"

	"github.com/iota-uz/tenantguard/modules/core/presentation/controllers/dtos"
	"github.com/iota-uz/tenantguard/modules/core/services"
	"github.com/iota-uz/tenantguard/pkg/application"
	"github.com/iota-uz/tenantguard/pkg/httpapi"
	"github.com/iota-uz/tenantguard/pkg/metrics"
)

type BootstrapController struct {
	bootstrapService *services.BootstrapService
	limiter          mux.MiddlewareFunc
}

// NewBootstrapController serves first-user registration. limiter may be nil.
func NewBootstrapController(app application.Application, limiter mux.MiddlewareFunc) application.Controller {
	return &BootstrapController{
		bootstrapService: app.Service(services.BootstrapService{}).(*services.BootstrapService),
		limiter:          limiter,
	}
}

func (c *BootstrapController) Key() string {
	return "/api/auth/bootstrap"
}

func (c *BootstrapController) Register(r *mux.Router) {
	router := r.PathPrefix("/api/auth/bootstrap").Subrouter()
	router.HandleFunc("/status", c.Status).Methods(http.MethodGet)

	registerRouter := router.PathPrefix("/register").Subrouter()
	chain(registerRouter, c.limiter)
	registerRouter.HandleFunc("", c.RegisterFirstUser).Methods(http.MethodPost)
}

func (c *BootstrapController) Status(w http.ResponseWriter, r *http.Request) {
	status, err := c.bootstrapService.Status(r.Context())
	if err != nil {
		internalError(w, r, err, "failed to read bootstrap status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type bootstrapUserResponse struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Type       string `json:"type"`
	IsPlatform bool   `json:"isPlatform"`
}

func (c *BootstrapController) RegisterFirstUser(w http.ResponseWriter, r *http.Request) {
	var dto dtos.BootstrapRegisterDTO
	if err := decodeJSON(r, &dto); err != nil {
		invalidRequest(w, "malformed request body", nil)
		return
	}
	if fields, ok := dto.Ok(); !ok {
		invalidRequest(w, "validation failed", fields)
		return
	}

	u, err := c.bootstrapService.Register(r.Context(), services.BootstrapRegistration{
		Email:    dto.Email,
		Password: dto.Password,
		Name:     dto.Name,
	})
	switch {
	case err == nil:
	case errors.Is(err, services.ErrBootstrapClosed):
		metrics.BootstrapAttempts.WithLabelValues("closed").Inc()
		_ = httpapi.WriteError(w, http.StatusConflict, httpapi.CodeBootstrapClosed, "bootstrap is closed: a user already exists", nil)
		return
	case errors.Is(err, services.ErrEmailTaken):
		metrics.BootstrapAttempts.WithLabelValues("email_taken").Inc()
		_ = httpapi.WriteError(w, http.StatusConflict, httpapi.CodeEmailTaken, "email already registered", nil)
		return
	default:
		metrics.BootstrapAttempts.WithLabelValues("error").Inc()
		internalError(w, r, err, "bootstrap registration failed")
		return
	}

	metrics.BootstrapAttempts.WithLabelValues("created").Inc()
	writeJSON(w, http.StatusCreated, bootstrapUserResponse{
		ID:         u.ID(),
		Email:      u.Email(),
		Type:       string(u.Type()),
		IsPlatform: u.IsPlatform(),
	})
}

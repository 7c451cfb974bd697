package controllers

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"

	"github.com/iota-uz/tenantguard/modules/core/domain/aggregates/user"
	"github.com/iota-uz/tenantguard/modules/core/presentation/controllers/dtos"
	"github.com/iota-uz/tenantguard/modules/core/services"
	"github.com/iota-uz/tenantguard/pkg/application"
	"github.com/iota-uz/tenantguard/pkg/composables"
	"github.com/iota-uz/tenantguard/pkg/httpapi"
	"github.com/iota-uz/tenantguard/pkg/middleware"
)

type AuthControllerOptions struct {
	SidCookieKey string
	SecureCookie bool
	// Limiter throttles login attempts; nil disables it.
	Limiter mux.MiddlewareFunc
}

type AuthController struct {
	authService   *services.AuthService
	tenantService *services.TenantService
	opts          AuthControllerOptions
}

func NewAuthController(app application.Application, opts AuthControllerOptions) application.Controller {
	if opts.SidCookieKey == "" {
		opts.SidCookieKey = "sid"
	}
	return &AuthController{
		authService:   app.Service(services.AuthService{}).(*services.AuthService),
		tenantService: app.Service(services.TenantService{}).(*services.TenantService),
		opts:          opts,
	}
}

func (c *AuthController) Key() string {
	return "/api/auth"
}

func (c *AuthController) Register(r *mux.Router) {
	loginRouter := r.PathPrefix("/api/auth/login").Subrouter()
	chain(loginRouter, c.opts.Limiter)
	loginRouter.HandleFunc("", c.Login).Methods(http.MethodPost)

	router := r.PathPrefix("/api/auth").Subrouter()
	router.Use(middleware.RequireAuth())
	router.HandleFunc("/logout", c.Logout).Methods(http.MethodPost)
	router.HandleFunc("/me", c.Me).Methods(http.MethodGet)
}

type MeContextResponse struct {
	Scope         string `json:"scope"`
	TenantID      string `json:"tenantId,omitempty"`
	Impersonating bool   `json:"impersonating"`
}

type MeResponse struct {
	ID             int64             `json:"id"`
	Email          string            `json:"email"`
	Type           string            `json:"type"`
	IsPlatform     bool              `json:"isPlatform"`
	HomeTenantID   string            `json:"homeTenantId,omitempty"`
	HomeTenantName string            `json:"homeTenantName,omitempty"`
	Context        MeContextResponse `json:"context"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      MeResponse `json:"user"`
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var dto dtos.LoginDTO
	if err := decodeJSON(r, &dto); err != nil {
		invalidRequest(w, "malformed request body", nil)
		return
	}
	if fields, ok := dto.Ok(); !ok {
		invalidRequest(w, "validation failed", fields)
		return
	}

	ip, userAgent := "", r.UserAgent()
	if params, ok := composables.UseParams(r.Context()); ok {
		ip, userAgent = params.IP, params.UserAgent
	}
	u, sess, err := c.authService.Login(r.Context(), dto.Email, dto.Password, ip, userAgent)
	if errors.Is(err, services.ErrInvalidCredentials) {
		composables.UseLogger(r.Context()).WithField("email", user.NormalizeEmail(dto.Email)).Info("login refused")
		_ = httpapi.WriteError(w, http.StatusUnauthorized, httpapi.CodeInvalidCredentials, "invalid email or password", nil)
		return
	}
	if err != nil {
		internalError(w, r, err, "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.opts.SidCookieKey,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   c.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	me, err := c.describe(r, u)
	if err != nil {
		internalError(w, r, err, "failed to describe principal")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: me})
}

func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	sess, err := composables.UseSession(r.Context())
	if err == nil {
		if err := c.authService.Logout(r.Context(), sess.Token); err != nil {
			internalError(w, r, err, "logout failed")
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.opts.SidCookieKey,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me reports the principal and the effective tenant context the server resolved for this request.
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	u, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, httpapi.CodeUnauthenticated, "authentication required", nil)
		return
	}
	me, err := c.describe(r, u)
	if err != nil {
		internalError(w, r, err, "failed to describe principal")
		return
	}
	writeJSON(w, http.StatusOK, me)
}

func (c *AuthController) describe(r *http.Request, u *user.User) (MeResponse, error) {
	me := MeResponse{
		ID:         u.ID(),
		Email:      u.Email(),
		Type:       string(u.Type()),
		IsPlatform: u.IsPlatform(),
		Context:    MeContextResponse{Scope: "platform"},
	}
	if home, ok := u.HomeTenant(); ok {
		me.HomeTenantID = home.String()
		t, err := c.tenantService.GetByID(r.Context(), home)
		if err != nil {
			return me, err
		}
		me.HomeTenantName = t.Name()
		me.Context = MeContextResponse{Scope: "tenant", TenantID: home.String()}
	}
	if tc, err := composables.UseTenantContext(r.Context()); err == nil {
		if id, ok := tc.TenantID(); ok {
			me.Context = MeContextResponse{Scope: "tenant", TenantID: id.String(), Impersonating: tc.IsImpersonating()}
		} else {
			me.Context = MeContextResponse{Scope: "platform"}
		}
	}
	return me, nil
}

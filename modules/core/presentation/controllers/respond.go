package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/tenantguard/pkg/composables"
	"github.com/iota-uz/tenantguard/pkg/httpapi"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body. Unknown fields are dropped, so a client cannot smuggle a role in.
func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if err := httpapi.WriteJSON(w, status, payload); err != nil {
		panic(err)
	}
}

func invalidRequest(w http.ResponseWriter, message string, fields map[string]string) {
	_ = httpapi.WriteError(w, http.StatusBadRequest, httpapi.CodeInvalidRequest, message, fields)
}

func internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	composables.UseLogger(r.Context()).WithError(err).Error(msg)
	_ = httpapi.WriteError(w, http.StatusInternalServerError, httpapi.CodeInternal, "internal server error", nil)
}

// chain applies middleware in order, skipping nil entries.
func chain(r *mux.Router, mws ...mux.MiddlewareFunc) {
	for _, mw := range mws {
		if mw != nil {
			r.Use(mw)
		}
	}
}

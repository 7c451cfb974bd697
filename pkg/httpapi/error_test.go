package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/tenantguard/pkg/httpapi"
)

func TestWriteError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, httpapi.WriteError(rec, http.StatusConflict, httpapi.CodeBootstrapClosed, "closed", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, httpapi.CodeBootstrapClosed, env.Code)
	assert.Nil(t, env.Meta)
}

func TestNotFound_JSON(t *testing.T) {
	rec := httptest.NewRecorder()
	httpapi.NotFound().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	var env httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/nowhere", env.Meta["path"])
}

package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_WrapsDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "world", env.Data["hello"])
}

func TestAccepted_Returns202(t *testing.T) {
	rec := httptest.NewRecorder()
	Accepted(rec, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data"`)
}

func TestError_WrapsErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "NOT_FOUND", "Upload not found", map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var env struct {
		Error struct {
			Code    string            `json:"code"`
			Message string            `json:"message"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
	assert.Equal(t, "Upload not found", env.Error.Message)
	assert.Equal(t, "abc", env.Error.Details["id"])
}

func TestError_OmitsNilDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, "INVALID_REQUEST", "bad input", nil)

	assert.NotContains(t, rec.Body.String(), "details")
}

package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_SuccessShape(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.EqualValues(t, EnvelopeVersion, envelope["v"])
	assert.Equal(t, true, envelope["success"])
	assert.Contains(t, envelope, "data")
	assert.NotContains(t, envelope, "error")
	assert.NotContains(t, envelope, "code")
}

func TestEnvelope_DetailedErrorShape(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/books/missing")
	require.Equal(t, http.StatusNotFound, resp.Code)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.EqualValues(t, EnvelopeVersion, envelope["v"])
	assert.Equal(t, false, envelope["success"])
	assert.Equal(t, "NOT_FOUND", envelope["code"])
	assert.NotEmpty(t, envelope["message"])
}

func TestEnvelope_ValidationErrorCode(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	adminToken, _ := ts.registerAdmin(t, "admin@example.com", "Admin")
	resp := ts.api.Post("/api/v1/books", "Authorization: Bearer "+adminToken, map[string]any{
		"title":  "!!!",
		"author": "Nobody",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.Equal(t, false, envelope["success"])
	assert.Equal(t, "VALIDATION", envelope["code"])
}

func TestEnvelope_TransformerDirect(t *testing.T) {
	out, err := EnvelopeTransformer(nil, "200", map[string]string{"ok": "yes"})
	require.NoError(t, err)
	success, ok := out.(APIEnvelope)
	require.True(t, ok)
	assert.Equal(t, EnvelopeVersion, success.Version)
	assert.True(t, success.Success)

	out, err = EnvelopeTransformer(nil, "404", &APIError{
		status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: "gone",
	})
	require.NoError(t, err)
	detailed, ok := out.(APIErrorEnvelope)
	require.True(t, ok)
	assert.False(t, detailed.Success)
	assert.Equal(t, "NOT_FOUND", detailed.Code)
	assert.Equal(t, "gone", detailed.Message)
}

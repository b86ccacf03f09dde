package api

import (
	"context"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawclub/pawclub-server/internal/auth"
	"github.com/pawclub/pawclub-server/internal/domain"
	"github.com/pawclub/pawclub-server/internal/search"
	"github.com/pawclub/pawclub-server/internal/service"
	"github.com/pawclub/pawclub-server/internal/sse"
	"github.com/pawclub/pawclub-server/internal/store"
)

// testKeyHex is a fixed 32-byte key so tokens stay verifiable across helpers.
const testKeyHex = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api     humatest.TestAPI
	cleanup func()
}

// setupTestServer creates a test server with a real store, search index,
// and SSE manager behind it.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "pawclub-api-test-*")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sseManager := sse.NewManager(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go sseManager.Start(ctx)

	st, err := store.New(filepath.Join(tmpDir, "db"), logger, sseManager)
	require.NoError(t, err)

	idx, _, err := search.New(filepath.Join(tmpDir, "index.bleve"), logger)
	require.NoError(t, err)
	st.SetSearchIndexer(idx)

	tokens, err := auth.NewTokenService(testKeyHex, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	sessions := service.NewSessionService(st, tokens, logger)
	services := &Services{
		Auth:    service.NewAuthService(st, tokens, sessions, logger),
		Session: sessions,
		Book:    service.NewBookService(st, idx, logger),
		Rating:  service.NewRatingService(st, logger),
		Comment: service.NewCommentService(st, sseManager, logger),
		User:    service.NewUserService(st, sessions, logger),
		Admin:   service.NewAdminService(st, logger),
	}

	server := NewServer(st, services, sseManager, logger)

	cleanup := func() {
		cancel()
		_ = idx.Close()
		_ = st.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return &testServer{
		Server:  server,
		api:     humatest.Wrap(t, server.api),
		cleanup: cleanup,
	}
}

// registerMember creates a member through the API and returns their token and ID.
func (ts *testServer) registerMember(t *testing.T, email, displayName string) (token, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":       email,
		"password":    "correct-horse-battery",
		"displayName": displayName,
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	return envelope.Data.AccessToken, envelope.Data.User.ID
}

// registerAdmin creates a member and promotes them to admin directly in the
// store. Role changes apply to existing tokens because token verification
// re-reads the user.
func (ts *testServer) registerAdmin(t *testing.T, email, displayName string) (token, userID string) {
	t.Helper()

	token, userID = ts.registerMember(t, email, displayName)
	err := ts.store.AddUserRole(context.Background(), userID, "role_test_admin", domain.RoleAdmin)
	require.NoError(t, err)
	return token, userID
}

// createBook creates a catalog entry with the given admin token and returns its slug.
func (ts *testServer) createBook(t *testing.T, adminToken string, body map[string]any) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/books", "Authorization: Bearer "+adminToken, body)
	require.Equal(t, http.StatusOK, resp.Code, "create book failed: %s", resp.Body.String())

	var envelope testEnvelope[BookResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data.Slug
}

func TestHealthCheck_ReportsComponents(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[HealthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.True(t, envelope.Success)
	// Fresh install: database up, search index empty.
	assert.Equal(t, "degraded", envelope.Data.Status)
	assert.Equal(t, "healthy", envelope.Data.Components["database"].Status)
	assert.Equal(t, "degraded", envelope.Data.Components["search"].Status)

	adminToken, _ := ts.registerAdmin(t, "admin@example.com", "Admin")
	ts.createBook(t, adminToken, map[string]any{"title": "Dune", "author": "Frank Herbert"})

	resp = ts.api.Get("/health")
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "healthy", envelope.Data.Status)
}

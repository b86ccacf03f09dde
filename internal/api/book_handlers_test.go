package api

import (
	"encoding/json/v2"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBook_RequiresAdmin(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	body := map[string]any{"title": "Dune", "author": "Frank Herbert"}

	resp := ts.api.Post("/api/v1/books", body)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	memberToken, _ := ts.registerMember(t, "ana@example.com", "Ana")
	resp = ts.api.Post("/api/v1/books", "Authorization: Bearer "+memberToken, body)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	adminToken, _ := ts.registerAdmin(t, "admin@example.com", "Admin")
	resp = ts.api.Post("/api/v1/books", "Authorization: Bearer "+adminToken, body)
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[BookResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "dune", envelope.Data.Slug, "slug derived from the title")
}

func TestCreateBook_DuplicateTitle(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	adminToken, _ := ts.registerAdmin(t, "admin@example.com", "Admin")
	ts.createBook(t, adminToken, map[string]any{"title": "Dune", "author": "Frank Herbert"})

	// Same title with different punctuation collapses to the same slug.
	resp := ts.api.Post("/api/v1/books", "Authorization: Bearer "+adminToken, map[string]any{
		"title":  "DUNE!",
		"author": "Someone Else",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestListBooks_Pagination(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	adminToken, _ := ts.registerAdmin(t, "admin@example.com", "Admin")
	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		ts.createBook(t, adminToken, map[string]any{"title": title, "author": "Author"})
	}

	resp := ts.api.Get("/api/v1/books?limit=2")
	assert.Equal(t, http.StatusOK, resp.Code)

	var page testEnvelope[ListBooksResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	require.Len(t, page.Data.Books, 2)
	assert.True(t, page.Data.HasMore)
	require.NotEmpty(t, page.Data.NextCursor)

	resp = ts.api.Get("/api/v1/books?limit=2&cursor=" + page.Data.NextCursor)
	assert.Equal(t, http.StatusOK, resp.Code)

	var rest testEnvelope[ListBooksResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &rest))
	assert.Len(t, rest.Data.Books, 1)
	assert.False(t, rest.Data.HasMore)

	// No page overlap.
	seen := map[string]bool{}
	for _, b := range append(page.Data.Books, rest.Data.Books...) {
		assert.False(t, seen[b.Slug], "slug %s appeared twice", b.Slug)
		seen[b.Slug] = true
	}
}

func TestListBooks_SearchMode(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	adminToken, _ := ts.registerAdmin(t, "admin@example.com", "Admin")
	ts.createBook(t, adminToken, map[string]any{"title": "Dune", "author": "Frank Herbert", "category": "sci-fi"})
	ts.createBook(t, adminToken, map[string]any{"title": "The Hobbit", "author": "J.R.R. Tolkien", "category": "fantasy"})

	resp := ts.api.Get("/api/v1/books?q=dune")
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListBooksResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	require.NotNil(t, envelope.Data.Search)
	require.NotEmpty(t, envelope.Data.Hits)
	assert.Equal(t, "dune", envelope.Data.Hits[0].Slug)
	assert.Empty(t, envelope.Data.Books, "search mode returns hits, not pages")
}

func TestListBooks_TopRated(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	adminToken, _ := ts.registerAdmin(t, "admin@example.com", "Admin")
	ts.createBook(t, adminToken, map[string]any{"title": "Alpha", "author": "A"})
	ts.createBook(t, adminToken, map[string]any{"title": "Beta", "author": "B"})

	memberToken, _ := ts.registerMember(t, "ana@example.com", "Ana")
	resp := ts.api.Put("/api/v1/books/alpha/rating", "Authorization: Bearer "+memberToken, map[string]any{"rating": 3})
	require.Equal(t, http.StatusOK, resp.Code)
	resp = ts.api.Put("/api/v1/books/beta/rating", "Authorization: Bearer "+memberToken, map[string]any{"rating": 5})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/books?top=5")
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListBooksResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Books, 2)
	assert.Equal(t, "beta", envelope.Data.Books[0].Slug, "highest average first")
}

func TestGetBook_NotFound(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/books/missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUpdateBook_PartialPatch(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	adminToken, _ := ts.registerAdmin(t, "admin@example.com", "Admin")
	slug := ts.createBook(t, adminToken, map[string]any{
		"title":    "Dune",
		"author":   "Frank Herbert",
		"category": "sci-fi",
	})

	resp := ts.api.Patch("/api/v1/books/"+slug, "Authorization: Bearer "+adminToken, map[string]any{
		"week": "Semana 3",
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[BookResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "Semana 3", envelope.Data.Week)
	assert.Equal(t, "Dune", envelope.Data.Title, "absent fields untouched")
	assert.Equal(t, "sci-fi", envelope.Data.Category)

	// A title change never changes the slug.
	resp = ts.api.Patch("/api/v1/books/"+slug, "Authorization: Bearer "+adminToken, map[string]any{
		"title": "Dune (Deluxe Edition)",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, slug, envelope.Data.Slug)
	assert.Equal(t, "Dune (Deluxe Edition)", envelope.Data.Title)
}

func TestDeleteBook(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	adminToken, _ := ts.registerAdmin(t, "admin@example.com", "Admin")
	slug := ts.createBook(t, adminToken, map[string]any{"title": "Dune", "author": "Frank Herbert"})

	resp := ts.api.Delete("/api/v1/books/"+slug, "Authorization: Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/books/" + slug)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDownloads_Lifecycle(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	adminToken, _ := ts.registerAdmin(t, "admin@example.com", "Admin")
	slug := ts.createBook(t, adminToken, map[string]any{"title": "Dune", "author": "Frank Herbert"})

	resp := ts.api.Post("/api/v1/books/"+slug+"/downloads", "Authorization: Bearer "+adminToken, map[string]any{
		"type": "epub",
		"url":  "https://files.example.com/dune.epub",
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[DownloadResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, strings.HasPrefix(envelope.Data.ID, "dl"), "generated ID carries the dl prefix")

	resp = ts.api.Delete("/api/v1/books/"+slug+"/downloads/"+envelope.Data.ID, "Authorization: Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, resp.Code)

	// Removing it again reports not found.
	resp = ts.api.Delete("/api/v1/books/"+slug+"/downloads/"+envelope.Data.ID, "Authorization: Bearer "+adminToken)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

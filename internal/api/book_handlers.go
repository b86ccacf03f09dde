package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pawclub/pawclub-server/internal/domain"
	"github.com/pawclub/pawclub-server/internal/search"
	"github.com/pawclub/pawclub-server/internal/service"
	"github.com/pawclub/pawclub-server/internal/store"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns the catalog. Use cursor/limit for pages, q for full-text search, top for the highest-rated books.",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{slug}",
		Summary:     "Get book",
		Description: "Returns a single book by slug",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "createBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books",
		Summary:     "Create book",
		Description: "Adds a book to the catalog. Admin only. The slug is derived from the title and never changes.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{slug}",
		Summary:     "Update book",
		Description: "Updates book fields. Admin only. Only fields present in the body are applied.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{slug}",
		Summary:     "Delete book",
		Description: "Removes a book and its discussion. Admin only.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "addBookDownload",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{slug}/downloads",
		Summary:     "Add download",
		Description: "Attaches a download resource to a book. Admin only.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddDownload)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeBookDownload",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{slug}/downloads/{id}",
		Summary:     "Remove download",
		Description: "Removes a download resource from a book. Admin only.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveDownload)
}

// === DTOs ===

// DownloadResponse contains a download resource in API responses.
type DownloadResponse struct {
	ID   string `json:"id" doc:"Resource ID"`
	Type string `json:"type" doc:"Resource type (pdf, epub, audiobook)"`
	URL  string `json:"url" doc:"Resource URL"`
}

// BookResponse contains book data in API responses. Individual member votes
// stay server-side; only the aggregate and the caller's own vote go out.
type BookResponse struct {
	Slug        string             `json:"slug" doc:"URL-safe identifier, derived from the title at creation"`
	Title       string             `json:"title" doc:"Book title"`
	Author      string             `json:"author" doc:"Author name"`
	Category    string             `json:"category,omitempty" doc:"Category label"`
	Description string             `json:"description,omitempty" doc:"Description text"`
	PubYear     int                `json:"pubyear,omitempty" doc:"Publication year"`
	Week        string             `json:"week,omitempty" doc:"Reading week label"`
	CoverURL    string             `json:"cover_url,omitempty" doc:"Cover image URL"`
	CreatedAt   time.Time          `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt   time.Time          `json:"updated_at" doc:"Last update timestamp"`
	Downloads   []DownloadResponse `json:"downloads,omitempty" doc:"Attached download resources"`
	Rating      domain.RatingStats `json:"rating" doc:"Aggregate paw rating"`
	UserRating  int                `json:"user_rating,omitempty" doc:"Caller's own paw rating, if authenticated"`
}

// ListBooksInput contains parameters for listing or searching books.
type ListBooksInput struct {
	Limit    int    `query:"limit" validate:"omitempty,gte=1,lte=1000" doc:"Page size (default 100)"`
	Cursor   string `query:"cursor" validate:"omitempty,max=500" doc:"Opaque cursor from a previous page"`
	Query    string `query:"q" validate:"omitempty,max=200" doc:"Full-text search query"`
	Top      int    `query:"top" validate:"omitempty,gte=1,lte=100" doc:"Return the N highest-rated books instead of a page"`
	Category string `query:"category" validate:"omitempty,max=100" doc:"Search filter: exact category"`
	Week     string `query:"week" validate:"omitempty,max=100" doc:"Search filter: reading week label"`
	MinYear  int    `query:"min_year" validate:"omitempty,gte=0,lte=3000" doc:"Search filter: minimum publication year"`
	MaxYear  int    `query:"max_year" validate:"omitempty,gte=0,lte=3000" doc:"Search filter: maximum publication year"`
	Sort     string `query:"sort" validate:"omitempty,oneof=relevance title author recent year" doc:"Search sort field"`
	Order    string `query:"order" validate:"omitempty,oneof=asc desc" doc:"Search sort order"`
	Facets   bool   `query:"facets" doc:"Include facet counts in search results"`
}

// SearchHitResponse contains a single search hit.
type SearchHitResponse struct {
	Slug       string            `json:"slug" doc:"Book slug"`
	Score      float64           `json:"score" doc:"Relevance score"`
	Title      string            `json:"title" doc:"Book title"`
	Author     string            `json:"author,omitempty" doc:"Author name"`
	Category   string            `json:"category,omitempty" doc:"Category label"`
	Week       string            `json:"week,omitempty" doc:"Reading week label"`
	PubYear    int               `json:"pubyear,omitempty" doc:"Publication year"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// SearchMetaResponse contains search metadata and facet counts.
type SearchMetaResponse struct {
	Total      uint64              `json:"total" doc:"Total matches"`
	TookMs     int64               `json:"took_ms" doc:"Search duration in milliseconds"`
	Categories []search.FacetCount `json:"categories,omitempty" doc:"Category facet counts"`
	Weeks      []search.FacetCount `json:"weeks,omitempty" doc:"Week facet counts"`
}

// ListBooksResponse contains a page of books, or search hits when q was given.
type ListBooksResponse struct {
	Books      []BookResponse      `json:"books,omitempty" doc:"Books in this page"`
	NextCursor string              `json:"next_cursor,omitempty" doc:"Cursor for the next page, empty when exhausted"`
	HasMore    bool                `json:"has_more,omitempty" doc:"Whether more pages exist"`
	Hits       []SearchHitResponse `json:"hits,omitempty" doc:"Search hits (search mode only)"`
	Search     *SearchMetaResponse `json:"search,omitempty" doc:"Search metadata (search mode only)"`
}

// ListBooksOutput wraps the list books response for Huma.
type ListBooksOutput struct {
	Body ListBooksResponse
}

// GetBookInput contains parameters for getting a book.
type GetBookInput struct {
	Slug string `path:"slug" doc:"Book slug"`
}

// BookOutput wraps the book response for Huma.
type BookOutput struct {
	Body BookResponse
}

// CreateBookRequest is the request body for creating a book.
type CreateBookRequest struct {
	Title       string `json:"title" validate:"required,max=300" doc:"Book title"`
	Author      string `json:"author" validate:"required,max=200" doc:"Author name"`
	Category    string `json:"category,omitempty" validate:"omitempty,max=100" doc:"Category label"`
	Description string `json:"description,omitempty" validate:"omitempty,max=5000" doc:"Description text"`
	PubYear     int    `json:"pubyear,omitempty" validate:"omitempty,gte=0,lte=3000" doc:"Publication year"`
	Week        string `json:"week,omitempty" validate:"omitempty,max=100" doc:"Reading week label"`
	CoverURL    string `json:"cover_url,omitempty" validate:"omitempty,url,max=2000" doc:"Cover image URL"`
}

// CreateBookInput wraps the create book request for Huma.
type CreateBookInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateBookRequest
}

// UpdateBookRequest is the request body for updating a book.
// Only non-nil fields are applied; the slug never changes.
type UpdateBookRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=300" doc:"Book title"`
	Author      *string `json:"author,omitempty" validate:"omitempty,max=200" doc:"Author name"`
	Category    *string `json:"category,omitempty" validate:"omitempty,max=100" doc:"Category label"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000" doc:"Description text"`
	PubYear     *int    `json:"pubyear,omitempty" validate:"omitempty,gte=0,lte=3000" doc:"Publication year"`
	Week        *string `json:"week,omitempty" validate:"omitempty,max=100" doc:"Reading week label"`
	CoverURL    *string `json:"cover_url,omitempty" validate:"omitempty,url,max=2000" doc:"Cover image URL"`
}

// UpdateBookInput wraps the update book request for Huma.
type UpdateBookInput struct {
	Authorization string `header:"Authorization"`
	Slug          string `path:"slug" doc:"Book slug"`
	Body          UpdateBookRequest
}

// DeleteBookInput contains parameters for deleting a book.
type DeleteBookInput struct {
	Authorization string `header:"Authorization"`
	Slug          string `path:"slug" doc:"Book slug"`
}

// AddDownloadRequest is the request body for attaching a download resource.
type AddDownloadRequest struct {
	Type string `json:"type" validate:"required,max=50" doc:"Resource type (pdf, epub, audiobook)"`
	URL  string `json:"url" validate:"required,url,max=2000" doc:"Resource URL"`
}

// AddDownloadInput wraps the add download request for Huma.
type AddDownloadInput struct {
	Authorization string `header:"Authorization"`
	Slug          string `path:"slug" doc:"Book slug"`
	Body          AddDownloadRequest
}

// DownloadOutput wraps the download response for Huma.
type DownloadOutput struct {
	Body DownloadResponse
}

// RemoveDownloadInput contains parameters for removing a download resource.
type RemoveDownloadInput struct {
	Authorization string `header:"Authorization"`
	Slug          string `path:"slug" doc:"Book slug"`
	ID            string `path:"id" doc:"Download resource ID"`
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	// Search mode.
	if input.Query != "" || input.Category != "" || input.Week != "" || input.MinYear > 0 || input.MaxYear > 0 {
		return s.searchBooks(ctx, input)
	}

	// Top-rated mode.
	if input.Top > 0 {
		books, err := s.services.Book.TopRatedBooks(ctx, input.Top)
		if err != nil {
			return nil, err
		}
		return &ListBooksOutput{Body: ListBooksResponse{Books: s.mapBooks(ctx, books)}}, nil
	}

	params := store.DefaultPaginationParams()
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Cursor = input.Cursor

	page, err := s.services.Book.ListBooksPage(ctx, params)
	if err != nil {
		return nil, err
	}

	return &ListBooksOutput{
		Body: ListBooksResponse{
			Books:      s.mapBooks(ctx, page.Items),
			NextCursor: page.NextCursor,
			HasMore:    page.HasMore,
		},
	}, nil
}

func (s *Server) searchBooks(ctx context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	params := search.DefaultParams()
	params.Query = input.Query
	params.Category = input.Category
	params.Week = input.Week
	params.MinYear = input.MinYear
	params.MaxYear = input.MaxYear
	params.IncludeFacets = input.Facets
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	if input.Sort != "" {
		params.SortBy = input.Sort
	}
	if input.Order != "" {
		params.SortOrder = input.Order
	}

	result, err := s.services.Book.SearchBooks(ctx, params)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHitResponse, len(result.Hits))
	for i, h := range result.Hits {
		hits[i] = SearchHitResponse{
			Slug:       h.Slug,
			Score:      h.Score,
			Title:      h.Title,
			Author:     h.Author,
			Category:   h.Category,
			Week:       h.Week,
			PubYear:    h.PubYear,
			Highlights: h.Highlights,
		}
	}

	return &ListBooksOutput{
		Body: ListBooksResponse{
			Hits: hits,
			Search: &SearchMetaResponse{
				Total:      result.Total,
				TookMs:     result.TookMs,
				Categories: result.Facets.Categories,
				Weeks:      result.Facets.Weeks,
			},
		},
	}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	book, err := s.services.Book.GetBook(ctx, input.Slug)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: s.mapBook(ctx, book)}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	book, err := s.services.Book.CreateBook(ctx, service.CreateBookRequest{
		Title:       input.Body.Title,
		Author:      input.Body.Author,
		Category:    input.Body.Category,
		Description: input.Body.Description,
		PubYear:     input.Body.PubYear,
		Week:        input.Body.Week,
		CoverURL:    input.Body.CoverURL,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: s.mapBook(ctx, book)}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	book, err := s.services.Book.UpdateBook(ctx, input.Slug, service.UpdateBookRequest{
		Title:       input.Body.Title,
		Author:      input.Body.Author,
		Category:    input.Body.Category,
		Description: input.Body.Description,
		PubYear:     input.Body.PubYear,
		Week:        input.Body.Week,
		CoverURL:    input.Body.CoverURL,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: s.mapBook(ctx, book)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *DeleteBookInput) (*MessageOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Book.DeleteBook(ctx, input.Slug); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Book deleted"}}, nil
}

func (s *Server) handleAddDownload(ctx context.Context, input *AddDownloadInput) (*DownloadOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	dl, err := s.services.Book.AddDownload(ctx, input.Slug, service.AddDownloadRequest{
		Type: input.Body.Type,
		URL:  input.Body.URL,
	})
	if err != nil {
		return nil, err
	}

	return &DownloadOutput{
		Body: DownloadResponse{ID: dl.ID, Type: dl.Type, URL: dl.URL},
	}, nil
}

func (s *Server) handleRemoveDownload(ctx context.Context, input *RemoveDownloadInput) (*MessageOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Book.RemoveDownload(ctx, input.Slug, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Download removed"}}, nil
}

// === Helpers ===

// mapBook converts a domain book to its API shape, filling in the caller's
// own rating when the request carried a valid token.
func (s *Server) mapBook(ctx context.Context, book *domain.Book) BookResponse {
	resp := BookResponse{
		Slug:        book.Slug,
		Title:       book.Title,
		Author:      book.Author,
		Category:    book.Category,
		Description: book.Description,
		PubYear:     book.PubYear,
		Week:        book.Week,
		CoverURL:    book.CoverURL,
		CreatedAt:   book.CreatedAt,
		UpdatedAt:   book.UpdatedAt,
		Rating:      book.Stats(),
	}

	for _, dl := range book.Downloads {
		resp.Downloads = append(resp.Downloads, DownloadResponse{
			ID:   dl.ID,
			Type: dl.Type,
			URL:  dl.URL,
		})
	}

	if userID, err := GetUserID(ctx); err == nil {
		resp.UserRating = book.UserRating(userID)
	}

	return resp
}

func (s *Server) mapBooks(ctx context.Context, books []*domain.Book) []BookResponse {
	resp := make([]BookResponse, len(books))
	for i, b := range books {
		resp[i] = s.mapBook(ctx, b)
	}
	return resp
}

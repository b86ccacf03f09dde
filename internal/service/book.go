// Package service provides the business logic layer for the book club:
// catalog management, ratings, comment threads, and authentication.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pawclub/pawclub-server/internal/domain"
	domainerrors "github.com/pawclub/pawclub-server/internal/errors"
	"github.com/pawclub/pawclub-server/internal/id"
	"github.com/pawclub/pawclub-server/internal/search"
	"github.com/pawclub/pawclub-server/internal/store"
	"github.com/pawclub/pawclub-server/internal/util"
	"github.com/pawclub/pawclub-server/internal/validation"
)

// validate is the shared request validator for the service layer.
var validate = validation.New()

// BookService orchestrates catalog operations.
type BookService struct {
	store  *store.Store
	search *search.Index
	logger *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(store *store.Store, searchIndex *search.Index, logger *slog.Logger) *BookService {
	return &BookService{
		store:  store,
		search: searchIndex,
		logger: logger,
	}
}

// CreateBookRequest contains the fields for a new catalog entry.
type CreateBookRequest struct {
	Title       string `json:"title" validate:"required,max=300"`
	Author      string `json:"author" validate:"required,max=200"`
	Category    string `json:"category" validate:"omitempty,max=100"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	PubYear     int    `json:"pubyear" validate:"omitempty,gte=0,lte=3000"`
	Week        string `json:"week" validate:"omitempty,max=100"`
	CoverURL    string `json:"cover_url" validate:"omitempty,url,max=2000"`
}

// UpdateBookRequest contains partial updates for an existing entry.
// Nil pointers leave the corresponding field unchanged. The slug is
// derived from the title at creation and never changes, even when the
// title does.
type UpdateBookRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=300"`
	Author      *string `json:"author" validate:"omitempty,max=200"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	PubYear     *int    `json:"pubyear" validate:"omitempty,gte=0,lte=3000"`
	Week        *string `json:"week" validate:"omitempty,max=100"`
	CoverURL    *string `json:"cover_url" validate:"omitempty,url,max=2000"`
}

// CreateBook adds a book to the catalog. The slug is derived from the
// title exactly once here; a title that normalizes to an existing slug
// is a conflict surfaced to the caller.
func (s *BookService) CreateBook(ctx context.Context, req CreateBookRequest) (*domain.Book, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	slug := util.Slugify(req.Title)
	if slug == "" {
		return nil, domainerrors.Validation("title produces an empty slug")
	}

	book := &domain.Book{
		Slug:        slug,
		Title:       req.Title,
		Author:      req.Author,
		Category:    req.Category,
		Description: req.Description,
		PubYear:     req.PubYear,
		Week:        req.Week,
		CoverURL:    req.CoverURL,
	}

	if err := s.store.CreateBook(ctx, book); err != nil {
		if errors.Is(err, store.ErrBookExists) {
			return nil, domainerrors.Conflictf("a book with slug %q already exists", slug)
		}
		return nil, fmt.Errorf("create book: %w", err)
	}

	return book, nil
}

// GetBook retrieves a single book by slug.
func (s *BookService) GetBook(ctx context.Context, slug string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, slug)
	if errors.Is(err, store.ErrBookNotFound) {
		return nil, domainerrors.NotFoundf("book %q not found", slug)
	}
	return book, err
}

// UpdateBook applies a partial update to a book. Ratings and downloads
// are managed through their own operations and are never touched here.
func (s *BookService) UpdateBook(ctx context.Context, slug string, req UpdateBookRequest) (*domain.Book, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.store.MutateBook(ctx, slug, func(b *domain.Book) error {
		if req.Title != nil {
			b.Title = *req.Title
		}
		if req.Author != nil {
			b.Author = *req.Author
		}
		if req.Category != nil {
			b.Category = *req.Category
		}
		if req.Description != nil {
			b.Description = *req.Description
		}
		if req.PubYear != nil {
			b.PubYear = *req.PubYear
		}
		if req.Week != nil {
			b.Week = *req.Week
		}
		if req.CoverURL != nil {
			b.CoverURL = *req.CoverURL
		}
		return nil
	})
	if errors.Is(err, store.ErrBookNotFound) {
		return nil, domainerrors.NotFoundf("book %q not found", slug)
	}
	return book, err
}

// DeleteBook removes a book, its ratings, and its comment tree.
func (s *BookService) DeleteBook(ctx context.Context, slug string) error {
	err := s.store.DeleteBook(ctx, slug)
	if errors.Is(err, store.ErrBookNotFound) {
		return domainerrors.NotFoundf("book %q not found", slug)
	}
	return err
}

// ListBooks returns the whole catalog newest first.
func (s *BookService) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	return s.store.ListBooks(ctx)
}

// ListBooksPage returns one page of the catalog, newest first, with an
// opaque cursor for the next page.
func (s *BookService) ListBooksPage(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	params.Validate()
	result, err := s.store.ListBooksPage(ctx, params)
	if err != nil {
		return nil, domainerrors.Validation("invalid cursor").WithCause(err)
	}
	return result, nil
}

// TopRatedBooks returns the n highest-rated books, ordered by average
// paw rating descending with vote count as the tiebreaker. Unrated
// books never make the list.
func (s *BookService) TopRatedBooks(ctx context.Context, n int) ([]*domain.Book, error) {
	if n <= 0 {
		n = 10
	}

	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	rated := make([]*domain.Book, 0, len(books))
	statsBySlug := make(map[string]domain.RatingStats, len(books))
	for _, book := range books {
		stats := book.Stats()
		if stats.Votes == 0 {
			continue
		}
		statsBySlug[book.Slug] = stats
		rated = append(rated, book)
	}

	sort.SliceStable(rated, func(i, j int) bool {
		a, b := statsBySlug[rated[i].Slug], statsBySlug[rated[j].Slug]
		if a.Average != b.Average {
			return a.Average > b.Average
		}
		return a.Votes > b.Votes
	})

	if len(rated) > n {
		rated = rated[:n]
	}
	return rated, nil
}

// SearchBooks runs a full-text query over the catalog.
func (s *BookService) SearchBooks(ctx context.Context, params search.Params) (*search.Result, error) {
	if s.search == nil {
		return nil, domainerrors.Internal("search is not available")
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}
	return s.search.Search(ctx, params)
}

// SearchDocumentCount reports how many books the search index holds.
// Used by health checks; zero with a nil index is not an error.
func (s *BookService) SearchDocumentCount() (uint64, error) {
	if s.search == nil {
		return 0, nil
	}
	return s.search.DocumentCount()
}

// RebuildSearchIndex reindexes the whole catalog. Called at startup when
// the index was created fresh or its mapping changed.
func (s *BookService) RebuildSearchIndex(ctx context.Context) error {
	if s.search == nil {
		return nil
	}

	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("list books for reindex: %w", err)
	}
	return s.search.IndexBooks(ctx, books)
}

// AddDownloadRequest describes a downloadable resource to attach.
type AddDownloadRequest struct {
	Type string `json:"type" validate:"required,max=50"`
	URL  string `json:"url" validate:"required,url,max=2000"`
}

// AddDownload attaches a download resource (pdf, epub, audiobook link)
// to a book and returns the resource with its generated ID.
func (s *BookService) AddDownload(ctx context.Context, slug string, req AddDownloadRequest) (*domain.Download, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	downloadID, err := id.Generate("dl")
	if err != nil {
		return nil, fmt.Errorf("generate download ID: %w", err)
	}

	download := domain.Download{
		ID:   downloadID,
		Type: req.Type,
		URL:  req.URL,
	}

	_, err = s.store.MutateBook(ctx, slug, func(b *domain.Book) error {
		b.Downloads = append(b.Downloads, download)
		return nil
	})
	if errors.Is(err, store.ErrBookNotFound) {
		return nil, domainerrors.NotFoundf("book %q not found", slug)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("download added",
		"slug", slug,
		"download_id", downloadID,
		"type", req.Type,
	)
	return &download, nil
}

// RemoveDownload detaches a download resource from a book.
func (s *BookService) RemoveDownload(ctx context.Context, slug, downloadID string) error {
	_, err := s.store.MutateBook(ctx, slug, func(b *domain.Book) error {
		if !b.RemoveDownload(downloadID) {
			return domainerrors.NotFoundf("download %q not found", downloadID)
		}
		return nil
	})
	if errors.Is(err, store.ErrBookNotFound) {
		return domainerrors.NotFoundf("book %q not found", slug)
	}
	return err
}

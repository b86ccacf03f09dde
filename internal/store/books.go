package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/pawclub/pawclub-server/internal/domain"
	"github.com/pawclub/pawclub-server/internal/sse"
)

// Book Operations

// CreateBook creates a new book under books/{slug}.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	key := bookKey(book.Slug)

	// Check if it already exists
	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check book exists: %w", err)
	}
	if exists {
		return ErrBookExists
	}

	book.InitTimestamps()

	// Use transaction to create book and creation index atomically
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := setInTxn(txn, key, book); err != nil {
			return err
		}
		return txn.Set(bookCreatedIndexKey(book.CreatedAt, book.Slug), []byte(book.Slug))
	})
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book created",
			slog.String("slug", book.Slug),
			slog.String("title", book.Title),
			slog.String("author", book.Author),
		)
	}

	s.eventEmitter.Emit(sse.NewBookCreatedEvent(book))
	s.indexBook(ctx, book)
	return nil
}

// GetBook retrieves a book by slug.
func (s *Store) GetBook(_ context.Context, slug string) (*domain.Book, error) {
	var book domain.Book
	if err := s.get(bookKey(slug), &book); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &book, nil
}

// UpdateBook updates an existing book.
// CreatedAt is preserved from the stored record so the creation index
// never goes stale.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	old, err := s.GetBook(ctx, book.Slug)
	if err != nil {
		return err
	}

	book.CreatedAt = old.CreatedAt
	book.Touch()

	if err := s.set(bookKey(book.Slug), book); err != nil {
		return fmt.Errorf("update book: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("book updated", "slug", book.Slug, "title", book.Title)
	}

	s.eventEmitter.Emit(sse.NewBookUpdatedEvent(book))
	s.indexBook(ctx, book)
	return nil
}

// MutateBook applies fn to the stored book inside a single transaction.
// Concurrent mutations of the same book serialize through Badger's
// conflict detection, so read-modify-write cycles like vote updates
// never lose writes.
func (s *Store) MutateBook(ctx context.Context, slug string, fn func(*domain.Book) error) (*domain.Book, error) {
	var book domain.Book

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getInTxn(txn, bookKey(slug), &book); err != nil {
			return err
		}
		if err := fn(&book); err != nil {
			return err
		}
		book.Touch()
		return setInTxn(txn, bookKey(slug), &book)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	s.indexBook(ctx, &book)
	return &book, nil
}

// DeleteBook deletes a book, its creation index entry, and its entire
// comment subtree. The book record and index entry go atomically; the
// subtree is removed through a write batch afterward, since a large
// thread would not fit in a single transaction.
func (s *Store) DeleteBook(ctx context.Context, slug string) error {
	book, err := s.GetBook(ctx, slug)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(bookKey(slug)); err != nil {
			return err
		}
		return txn.Delete(bookCreatedIndexKey(book.CreatedAt, slug))
	})
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	if err := s.deleteCommentSubtree(slug); err != nil {
		return fmt.Errorf("delete book comments: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("book deleted", "slug", slug, "title", book.Title)
	}

	s.eventEmitter.Emit(sse.NewBookDeletedEvent(slug, time.Now()))
	s.unindexBook(ctx, slug)
	return nil
}

// ListBooks returns all books ordered by creation time, newest first.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	var slugs []string

	prefix := []byte(bookCreatedIndexPrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration seeks to the end of the prefix range.
		seekKey := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			slug, err := slugFromCreatedIndexKey(it.Item().Key())
			if err != nil {
				return err
			}
			slugs = append(slugs, slug)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	books := make([]*domain.Book, 0, len(slugs))
	for _, slug := range slugs {
		book, err := s.GetBook(ctx, slug)
		if err != nil {
			if errors.Is(err, ErrBookNotFound) {
				// Stale index entry; skip rather than fail the listing.
				continue
			}
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}

// ListBooksPage returns a page of books ordered by creation time, newest
// first. The cursor is the creation index key of the last item on the
// previous page; iteration resumes strictly after it.
func (s *Store) ListBooksPage(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.Book], error) {
	params.Validate()

	cursorKey, err := DecodeCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	var (
		slugs   []string
		lastKey string
		hasMore bool
	)

	prefix := []byte(bookCreatedIndexPrefix)
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), 0xFF)
		if cursorKey != "" {
			seekKey = []byte(cursorKey)
		}

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()

			// Reverse Seek lands on the cursor itself; skip it.
			if cursorKey != "" && string(key) == cursorKey {
				continue
			}

			if len(slugs) >= params.Limit {
				hasMore = true
				break
			}

			slug, err := slugFromCreatedIndexKey(key)
			if err != nil {
				return err
			}
			slugs = append(slugs, slug)
			lastKey = string(key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list books page: %w", err)
	}

	books := make([]*domain.Book, 0, len(slugs))
	for _, slug := range slugs {
		book, err := s.GetBook(ctx, slug)
		if err != nil {
			if errors.Is(err, ErrBookNotFound) {
				continue
			}
			return nil, err
		}
		books = append(books, book)
	}

	result := &PaginatedResult[*domain.Book]{
		Items:   books,
		HasMore: hasMore,
	}
	if hasMore {
		result.NextCursor = EncodeCursor(lastKey)
	}
	return result, nil
}

// CountBooks returns the number of books in the catalog.
func (s *Store) CountBooks(_ context.Context) (int, error) {
	count := 0
	prefix := []byte(bookCreatedIndexPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return count, nil
}

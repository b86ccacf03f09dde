package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/pawclub/pawclub-server/internal/domain"
)

// mappingVersion is bumped whenever the index mapping changes in a way
// that requires a rebuild. The version is stored in the index metadata;
// on open, a mismatch triggers a full rebuild from the store.
const mappingVersion = "1"

const mappingVersionKey = "mapping_version"

// Index wraps a Bleve index over the book catalog. All methods are safe
// for concurrent use.
type Index struct {
	index  bleve.Index
	logger *slog.Logger
	path   string
	mu     sync.RWMutex
}

// New opens the search index at the given path, creating it if missing.
// If the on-disk mapping version does not match the current one, the
// existing index is discarded and recreated. Returns the index and a
// flag indicating whether a rebuild (reindex from the store) is needed.
func New(path string, log *slog.Logger) (*Index, bool, error) {
	if log == nil {
		log = slog.Default()
	}

	idx := &Index{
		logger: log,
		path:   path,
	}

	needsRebuild, err := idx.open()
	if err != nil {
		return nil, false, err
	}

	return idx, needsRebuild, nil
}

// open opens or creates the underlying Bleve index, recreating it on a
// mapping version mismatch. Returns true when the caller must reindex.
func (i *Index) open() (bool, error) {
	index, err := bleve.Open(i.path)
	if err == nil {
		version, verr := index.GetInternal([]byte(mappingVersionKey))
		if verr == nil && string(version) == mappingVersion {
			i.index = index
			return false, nil
		}

		// Stale mapping. Close and recreate from scratch.
		i.logger.Info("search index mapping outdated, rebuilding",
			slog.String("found", string(version)),
			slog.String("want", mappingVersion))
		if cerr := index.Close(); cerr != nil {
			return false, fmt.Errorf("closing stale search index: %w", cerr)
		}
		if rerr := os.RemoveAll(i.path); rerr != nil {
			return false, fmt.Errorf("removing stale search index: %w", rerr)
		}
	} else if err != bleve.ErrorIndexPathDoesNotExist {
		return false, fmt.Errorf("opening search index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(i.path), 0o755); err != nil {
		return false, fmt.Errorf("creating search index directory: %w", err)
	}

	index, err = bleve.New(i.path, buildIndexMapping())
	if err != nil {
		return false, fmt.Errorf("creating search index: %w", err)
	}

	if err := index.SetInternal([]byte(mappingVersionKey), []byte(mappingVersion)); err != nil {
		_ = index.Close()
		return false, fmt.Errorf("storing search index mapping version: %w", err)
	}

	i.index = index
	return true, nil
}

// Close releases the underlying index. The Index must not be used after.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.index == nil {
		return nil
	}
	err := i.index.Close()
	i.index = nil
	return err
}

// IndexBook adds or updates a single book in the index.
func (i *Index) IndexBook(ctx context.Context, book *domain.Book) error {
	doc := FromBook(book)

	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.index == nil {
		return fmt.Errorf("search index is closed")
	}
	if err := i.index.Index(doc.Slug, doc.ToMap()); err != nil {
		return fmt.Errorf("indexing book %q: %w", doc.Slug, err)
	}
	return nil
}

// DeleteBook removes a book from the index. Deleting a slug that is not
// indexed is not an error.
func (i *Index) DeleteBook(ctx context.Context, slug string) error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.index == nil {
		return fmt.Errorf("search index is closed")
	}
	if err := i.index.Delete(slug); err != nil {
		return fmt.Errorf("removing book %q from index: %w", slug, err)
	}
	return nil
}

// IndexBooks indexes a batch of books. Used during rebuilds, where batch
// indexing is substantially faster than per-document calls.
func (i *Index) IndexBooks(ctx context.Context, books []*domain.Book) error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.index == nil {
		return fmt.Errorf("search index is closed")
	}

	batch := i.index.NewBatch()
	for _, book := range books {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := FromBook(book)
		if err := batch.Index(doc.Slug, doc.ToMap()); err != nil {
			return fmt.Errorf("batching book %q: %w", doc.Slug, err)
		}
	}

	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("applying search index batch: %w", err)
	}

	i.logger.Info("indexed books", slog.Int("count", len(books)))
	return nil
}

// DocumentCount reports the number of indexed books.
func (i *Index) DocumentCount() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.index == nil {
		return 0, fmt.Errorf("search index is closed")
	}
	return i.index.DocCount()
}

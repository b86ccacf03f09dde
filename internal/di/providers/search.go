package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/pawclub/pawclub-server/internal/config"
	"github.com/pawclub/pawclub-server/internal/logger"
	"github.com/pawclub/pawclub-server/internal/search"
	"github.com/pawclub/pawclub-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// NeedsRebuild is true when the index was created fresh or its mapping
// changed; the bootstrap uses it to trigger a full reindex.
type SearchIndexHandle struct {
	*search.Index
	NeedsRebuild bool
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index and wires it into the
// store so catalog writes keep the index current.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, needsRebuild, err := search.New(cfg.Data.SearchIndexPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	storeHandle.SetSearchIndexer(index)

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized",
		"documents", docCount,
		"needs_rebuild", needsRebuild,
	)

	return &SearchIndexHandle{Index: index, NeedsRebuild: needsRebuild}, nil
}

// TriggerSearchRebuildIfNeeded reindexes the catalog in the background when
// the index is fresh or has fallen out of step with the database. Called
// after all services are wired.
func TriggerSearchRebuildIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	bookService := do.MustInvoke[*service.BookService](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !indexHandle.NeedsRebuild {
		docCount, _ := indexHandle.DocumentCount()
		if docCount > 0 {
			return
		}

		// Empty index is fine when the catalog is empty too.
		books, err := storeHandle.ListBooks(context.Background())
		if err != nil || len(books) == 0 {
			return
		}
		log.Info("Search index is empty but books exist, triggering reindex",
			"book_count", len(books),
		)
	}

	go func() {
		if err := bookService.RebuildSearchIndex(context.Background()); err != nil {
			log.Error("Search reindex failed", "error", err)
			return
		}
		count, _ := indexHandle.DocumentCount()
		log.Info("Search reindex completed", "documents", count)
	}()
}

package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/pawclub/pawclub-server/internal/domain"
	"github.com/pawclub/pawclub-server/internal/sse"
)

// Comment Operations
//
// Each comment is stored as its own record under the book's comment
// subtree. Replies are never embedded in the stored value; the tree is
// reassembled from path keys on read. This keeps vote toggles on deeply
// nested replies a single-record transaction instead of rewriting a
// whole thread.

// AddComment stores a new comment under a book. parentPath holds the
// ancestor comment IDs from root to parent; empty for a root comment.
// Every ancestor must exist.
func (s *Store) AddComment(ctx context.Context, slug string, parentPath []string, comment *domain.Comment) error {
	// The book must exist before any comment can attach to it.
	if _, err := s.GetBook(ctx, slug); err != nil {
		return err
	}

	fullPath := make([]string, 0, len(parentPath)+1)
	fullPath = append(fullPath, parentPath...)
	fullPath = append(fullPath, comment.ID)
	key := commentKey(slug, fullPath)

	err := s.db.Update(func(txn *badger.Txn) error {
		// Verify the ancestor chain.
		for i := range parentPath {
			ancestorKey := commentKey(slug, parentPath[:i+1])
			if _, err := txn.Get(ancestorKey); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: parent %s", ErrCommentNotFound, parentPath[i])
				}
				return err
			}
		}

		// Replies are reassembled from keys, never persisted inline.
		stored := *comment
		stored.Replies = nil
		return setInTxn(txn, key, &stored)
	})
	if err != nil {
		return fmt.Errorf("add comment: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "comment added",
			slog.String("slug", slug),
			slog.String("comment_id", comment.ID),
			slog.Int("depth", len(parentPath)),
		)
	}

	s.eventEmitter.Emit(sse.NewCommentCreatedEvent(slug, parentPath, comment))
	return nil
}

// GetComment retrieves a single comment node by its full path (root
// comment ID through the comment's own ID). Replies are not populated.
func (s *Store) GetComment(_ context.Context, slug string, path []string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := s.get(commentKey(slug, path), &comment); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

// GetCommentTree loads every comment of a book and reassembles the reply
// tree from path keys. The result maps root comment IDs to comments with
// Replies populated recursively.
func (s *Store) GetCommentTree(_ context.Context, slug string) (map[string]*domain.Comment, error) {
	tree := make(map[string]*domain.Comment)
	prefix := commentsRootPrefix(slug)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		// Lexicographic order guarantees parents appear before their
		// replies: a parent's key is a strict prefix of its reply keys.
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			path, err := commentPathFromKey(item.Key(), slug)
			if err != nil {
				return err
			}

			var comment domain.Comment
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &comment)
			})
			if err != nil {
				return fmt.Errorf("unmarshal comment %s: %w", path[len(path)-1], err)
			}

			if err := attachComment(tree, path, &comment); err != nil {
				if s.logger != nil {
					s.logger.Warn("orphaned comment skipped", "slug", slug, "path", path)
				}
				continue
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get comment tree: %w", err)
	}

	return tree, nil
}

// attachComment inserts a comment into the tree at the position named by
// its path. Returns an error if an ancestor is missing.
func attachComment(tree map[string]*domain.Comment, path []string, comment *domain.Comment) error {
	if len(path) == 1 {
		tree[comment.ID] = comment
		return nil
	}

	level := tree
	for _, ancestorID := range path[:len(path)-1] {
		parent, ok := level[ancestorID]
		if !ok {
			return fmt.Errorf("missing ancestor %s", ancestorID)
		}
		if parent.Replies == nil {
			parent.Replies = make(map[string]*domain.Comment)
		}
		level = parent.Replies
	}

	level[comment.ID] = comment
	return nil
}

// ToggleCommentVote toggles a like or dislike on a comment inside a
// single transaction. The read-modify-write happens atomically, so two
// members voting on the same comment at once cannot overwrite each
// other's vote.
func (s *Store) ToggleCommentVote(ctx context.Context, slug string, path []string, userID string, isLike bool) (*domain.Comment, error) {
	key := commentKey(slug, path)
	var comment domain.Comment

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getInTxn(txn, key, &comment); err != nil {
			return err
		}
		comment.ToggleVote(userID, isLike)
		return setInTxn(txn, key, &comment)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("toggle comment vote: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "comment vote toggled",
			slog.String("slug", slug),
			slog.String("comment_id", comment.ID),
			slog.String("user_id", userID),
			slog.Bool("is_like", isLike),
		)
	}

	s.eventEmitter.Emit(sse.NewCommentVotedEvent(slug, comment.ID, userID, len(comment.Likes), len(comment.Dislikes)))
	return &comment, nil
}

// deleteCommentSubtree removes every comment key under a book. Keys are
// collected in a read transaction and deleted through a write batch,
// which splits itself across transactions as needed, so a thread of any
// size can be removed without hitting the transaction size limit.
func (s *Store) deleteCommentSubtree(slug string) error {
	prefix := commentsRootPrefix(slug)

	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// CountComments returns the total number of comments on a book,
// including nested replies.
func (s *Store) CountComments(_ context.Context, slug string) (int, error) {
	count := 0
	prefix := commentsRootPrefix(slug)

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
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return count, nil
}

package store

import (
	"fmt"
	"strings"
	"time"
)

// Path layout. Every record lives under a slash-delimited path so related
// records share a prefix and subtree reads are a single prefix scan.
//
//	books/{slug}                                      book record
//	comments/{slug}/{id}                              root comment
//	comments/{slug}/{id}/comments/{child}             nested reply (repeats per level)
//	users/{id}                                        user record
//	roles/{userID}/{entryID}                          role grant
//	sessions/{id}                                     refresh session
//
// Index keys live under idx: and map secondary lookups back to path keys.
const (
	bookPrefix    = "books/"
	commentPrefix = "comments/"
	userPrefix    = "users/"
	rolePrefix    = "roles/"
	sessionPrefix = "sessions/"

	bookCreatedIndexPrefix = "idx:books:created:"
	userEmailIndexPrefix   = "idx:users:email:"
	sessionByTokenPrefix   = "idx:sessions:token:"
	sessionByUserPrefix    = "idx:sessions:user:"

	// commentSegment separates nesting levels in a comment path.
	commentSegment = "/comments/"
)

// bookKey returns the path key for a book.
func bookKey(slug string) []byte {
	return []byte(bookPrefix + slug)
}

// bookCreatedIndexKey returns the creation-time index key for a book.
// Millis are zero-padded to 16 digits so lexicographic order matches
// chronological order; the slug suffix keeps keys unique when two books
// are created in the same millisecond.
func bookCreatedIndexKey(createdAt time.Time, slug string) []byte {
	return fmt.Appendf(nil, "%s%016d:%s", bookCreatedIndexPrefix, createdAt.UnixMilli(), slug)
}

// slugFromCreatedIndexKey extracts the book slug from a creation index key.
func slugFromCreatedIndexKey(key []byte) (string, error) {
	keyStr := string(key)
	if !strings.HasPrefix(keyStr, bookCreatedIndexPrefix) {
		return "", fmt.Errorf("invalid created index key: %s", keyStr)
	}
	remainder := strings.TrimPrefix(keyStr, bookCreatedIndexPrefix)

	// Millis are fixed width: 16 digits plus the separating colon.
	const tsLen = 16
	if len(remainder) < tsLen+2 || remainder[tsLen] != ':' {
		return "", fmt.Errorf("invalid created index key format: %s", keyStr)
	}
	return remainder[tsLen+1:], nil
}

// commentsRootPrefix returns the prefix covering every comment of a book.
func commentsRootPrefix(slug string) []byte {
	return []byte(commentPrefix + slug + "/")
}

// commentKey builds the path key for a comment from its book slug and
// ancestry. path holds comment IDs from the root comment down to the
// comment itself, so a reply two levels deep yields
// "comments/{slug}/{root}/comments/{mid}/comments/{leaf}".
func commentKey(slug string, path []string) []byte {
	return []byte(commentPrefix + slug + "/" + strings.Join(path, commentSegment))
}

// commentPathFromKey reverses commentKey: it extracts the comment ID chain
// (root first) from a stored key.
func commentPathFromKey(key []byte, slug string) ([]string, error) {
	keyStr := string(key)
	prefix := commentPrefix + slug + "/"
	if !strings.HasPrefix(keyStr, prefix) {
		return nil, fmt.Errorf("comment key %q does not belong to book %q", keyStr, slug)
	}
	remainder := strings.TrimPrefix(keyStr, prefix)
	if remainder == "" {
		return nil, fmt.Errorf("empty comment path in key %q", keyStr)
	}
	return strings.Split(remainder, commentSegment), nil
}

// userKey returns the path key for a user.
func userKey(id string) []byte {
	return []byte(userPrefix + id)
}

// userEmailIndexKey returns the email index key for a user.
// Emails are normalized so lookups are case-insensitive.
func userEmailIndexKey(email string) []byte {
	return []byte(userEmailIndexPrefix + normalizeEmail(email))
}

// normalizeEmail lowercases and trims an email address for indexing.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// roleUserPrefix returns the prefix covering every role grant of a user.
func roleUserPrefix(userID string) []byte {
	return []byte(rolePrefix + userID + "/")
}

// roleKey returns the path key for a single role grant.
func roleKey(userID, entryID string) []byte {
	return []byte(rolePrefix + userID + "/" + entryID)
}

// sessionKey returns the path key for a session.
func sessionKey(id string) []byte {
	return []byte(sessionPrefix + id)
}

// sessionTokenIndexKey returns the refresh-token index key for a session.
func sessionTokenIndexKey(tokenHash string) []byte {
	return []byte(sessionByTokenPrefix + tokenHash)
}

// sessionUserIndexKey returns the per-user index key for a session.
func sessionUserIndexKey(userID, sessionID string) []byte {
	return []byte(sessionByUserPrefix + userID + ":" + sessionID)
}

package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "sess-V1StGXR8_Z5jdHi6B-myT")
//
// NanoIDs are URL-friendly, compact (21 characters vs UUID's 36),
// and use a larger alphabet for better entropy per character.
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	// Use default NanoID (21 characters, URL-safe alphabet)
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Use this only when you're certain the system entropy is available,
// or when failure should crash the program (e.g., during initialization).
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// CommentPrefix is the fixed prefix for comment identifiers.
const CommentPrefix = "comment_"

// Comment creates a comment identifier of the form "comment_<uuid>".
// Comments use UUIDs instead of NanoIDs so that IDs minted on different
// nodes at the same instant can never collide.
func Comment() string {
	return CommentPrefix + uuid.NewString()
}

// IsComment reports whether s looks like a comment identifier.
func IsComment(s string) bool {
	return strings.HasPrefix(s, CommentPrefix) && len(s) > len(CommentPrefix)
}

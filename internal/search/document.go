// Package search provides full-text search over the book catalog using Bleve.
// It supports fuzzy matching for typo tolerance, category faceting, and
// publication-year range filters.
package search

import (
	"github.com/pawclub/pawclub-server/internal/domain"
)

// Document is the indexed representation of a book.
//
// Design note: the document is flat and denormalized from domain.Book so a
// search result can be rendered without a store read. Ratings and comments
// are deliberately not indexed; they churn constantly and nobody searches
// by them.
type Document struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Week        string `json:"week,omitempty"`
	PubYear     int    `json:"pubyear,omitempty"`

	// Timestamps for sorting, unix millis
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *Document) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"slug":       d.Slug,
		"title":      d.Title,
		"author":     d.Author,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	// Optional fields - only add if non-empty
	if d.Category != "" {
		m["category"] = d.Category
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Week != "" {
		m["week"] = d.Week
	}
	if d.PubYear > 0 {
		m["pubyear"] = d.PubYear
	}

	return m
}

// FromBook converts a domain Book to its indexed document.
func FromBook(book *domain.Book) *Document {
	return &Document{
		Slug:        book.Slug,
		Title:       book.Title,
		Author:      book.Author,
		Category:    book.Category,
		Description: book.Description,
		Week:        book.Week,
		PubYear:     book.PubYear,
		CreatedAt:   book.CreatedAt.UnixMilli(),
		UpdatedAt:   book.UpdatedAt.UnixMilli(),
	}
}

package intro

import (
	"context"
	"errors"
)

var (
	ErrFileIO        = errors.New("target file I/O failed")
	ErrMissingTarget = errors.New("target document not found")
	ErrTargetExists  = errors.New("target document already exists")
)

// TargetRepository reads and writes the hand-authored intro documents.
type TargetRepository interface {
	// List returns the names of all candidate target documents.
	List(ctx context.Context) (map[string]bool, error)
	Read(ctx context.Context, name string) (string, error)
	Write(ctx context.Context, name, content string) error
	// Create writes a new document and fails with ErrTargetExists if one is
	// already there.
	Create(ctx context.Context, name, content string) error
}

// IndexWriter stores the regenerated aggregate page.
type IndexWriter interface {
	WriteIndex(ctx context.Context, content string) error
}

// Confirmer asks the operator whether missing targets should be created.
type Confirmer interface {
	Confirm(ctx context.Context, missing []string) (bool, error)
}

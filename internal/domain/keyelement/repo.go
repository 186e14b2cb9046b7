package keyelement

import (
	"context"
	"errors"
)

var (
	ErrFileIO         = errors.New("profile file I/O failed")
	ErrNoDifferential = errors.New("profile has no differential")
)

// ProfileRepository reads and writes the authored profile documents whose
// differentials receive promoted elements.
type ProfileRepository interface {
	// List returns the names of all JSON documents, sorted.
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
}

package keyelement

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/echicoine-icf/structure-definition-intro-generator/internal/platform/fhir"
	"github.com/echicoine-icf/structure-definition-intro-generator/internal/platform/textdiff"
)

// FileProfileRepository keeps profile documents in one directory.
type FileProfileRepository struct {
	dir string
}

func NewFileProfileRepository(dir string) *FileProfileRepository {
	return &FileProfileRepository{dir: dir}
}

func (r *FileProfileRepository) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", fhir.ErrDiscovery, r.dir, err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (r *FileProfileRepository) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(r.path(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileIO, err)
	}
	return data, nil
}

func (r *FileProfileRepository) Write(_ context.Context, name string, data []byte) error {
	if err := os.WriteFile(r.path(name), data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrFileIO, err)
	}
	return nil
}

func (r *FileProfileRepository) path(name string) string {
	return filepath.Join(r.dir, filepath.Base(name))
}

// DryRun prints the rewrite of each profile as a unified diff on Out instead
// of writing it.
type DryRun struct {
	Profiles ProfileRepository
	Out      io.Writer
}

func (d *DryRun) List(ctx context.Context) ([]string, error) {
	return d.Profiles.List(ctx)
}

func (d *DryRun) Read(ctx context.Context, name string) ([]byte, error) {
	return d.Profiles.Read(ctx, name)
}

func (d *DryRun) Write(ctx context.Context, name string, data []byte) error {
	before, err := d.Profiles.Read(ctx, name)
	if err != nil {
		return err
	}
	text, err := textdiff.Unified(name, string(before), string(data))
	if err != nil || text == "" {
		return err
	}
	_, err = io.WriteString(d.Out, text)
	return err
}

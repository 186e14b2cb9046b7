package intro

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/echicoine-icf/structure-definition-intro-generator/internal/platform/fhir"
	"github.com/echicoine-icf/structure-definition-intro-generator/internal/platform/textdiff"
)

// FileTargetRepository keeps target documents in one directory.
type FileTargetRepository struct {
	dir string
	ext string
}

// NewFileTargetRepository returns a repository for dir whose candidate
// documents end in "."+ext.
func NewFileTargetRepository(dir, ext string) *FileTargetRepository {
	return &FileTargetRepository{dir: dir, ext: "." + strings.TrimPrefix(ext, ".")}
}

func (r *FileTargetRepository) List(_ context.Context) (map[string]bool, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", fhir.ErrDiscovery, r.dir, err)
	}
	names := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), r.ext) {
			names[entry.Name()] = true
		}
	}
	return names, nil
}

func (r *FileTargetRepository) Read(_ context.Context, name string) (string, error) {
	data, err := os.ReadFile(r.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrMissingTarget, name)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFileIO, err)
	}
	return string(data), nil
}

func (r *FileTargetRepository) Write(_ context.Context, name, content string) error {
	if err := os.WriteFile(r.path(name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrFileIO, err)
	}
	return nil
}

func (r *FileTargetRepository) Create(_ context.Context, name, content string) error {
	f, err := os.OpenFile(r.path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrTargetExists, name)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileIO, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", ErrFileIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrFileIO, err)
	}
	return nil
}

func (r *FileTargetRepository) path(name string) string {
	return filepath.Join(r.dir, filepath.Base(name))
}

// FileIndexWriter overwrites the aggregate page at Path.
type FileIndexWriter struct {
	Path string
}

func (w FileIndexWriter) WriteIndex(_ context.Context, content string) error {
	if dir := filepath.Dir(w.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrFileIO, err)
		}
	}
	if err := os.WriteFile(w.Path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrFileIO, err)
	}
	return nil
}

// DryRun reports the changes a run would make as unified diffs on Out
// instead of writing them.
type DryRun struct {
	Targets   TargetRepository
	IndexPath string
	Out       io.Writer
}

func (d *DryRun) List(ctx context.Context) (map[string]bool, error) {
	return d.Targets.List(ctx)
}

func (d *DryRun) Read(ctx context.Context, name string) (string, error) {
	return d.Targets.Read(ctx, name)
}

func (d *DryRun) Write(ctx context.Context, name, content string) error {
	before, err := d.Targets.Read(ctx, name)
	if err != nil {
		return err
	}
	return d.diff(name, before, content)
}

func (d *DryRun) Create(_ context.Context, name, content string) error {
	return d.diff(name, "", content)
}

func (d *DryRun) WriteIndex(_ context.Context, content string) error {
	before, err := os.ReadFile(d.IndexPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrFileIO, err)
	}
	return d.diff(d.IndexPath, string(before), content)
}

func (d *DryRun) diff(name, before, after string) error {
	text, err := textdiff.Unified(name, before, after)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	_, err = io.WriteString(d.Out, text)
	return err
}

package fhir

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/echicoine-icf/structure-definition-intro-generator/pkg/fhirmodels"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrDiscovery = errors.New("profile discovery failed")
	ErrParse     = errors.New("invalid StructureDefinition document")
)

// ============================================================================
// StructureDefinition Models
// ============================================================================

// StructureDefinitionResource is the subset of a FHIR R4 StructureDefinition
// that intro generation reads.
type StructureDefinitionResource struct {
	ResourceType string             `json:"resourceType,omitempty"`
	ID           string             `json:"id"`
	URL          string             `json:"url,omitempty"`
	Name         string             `json:"name,omitempty"`
	Title        string             `json:"title,omitempty"`
	Type         string             `json:"type,omitempty"`
	Extension    []Extension        `json:"extension,omitempty"`
	Snapshot     *StructureSnapshot `json:"snapshot,omitempty"`
}

// StructureSnapshot contains the full set of element definitions for the structure.
type StructureSnapshot struct {
	Element []ElementDefinition `json:"element"`
}

// ElementDefinition describes a single element within a StructureDefinition.
type ElementDefinition struct {
	ID          string      `json:"id,omitempty"`
	Path        string      `json:"path"`
	SliceName   string      `json:"sliceName,omitempty"`
	Short       string      `json:"short,omitempty"`
	Min         *int        `json:"min,omitempty"`
	Max         string      `json:"max,omitempty"`
	MustSupport *bool       `json:"mustSupport,omitempty"`
	Extension   []Extension `json:"extension,omitempty"`
}

// Extension is a FHIR extension entry. Only the value types used by
// profile tooling are decoded.
type Extension struct {
	URL          string  `json:"url"`
	ValueString  *string `json:"valueString,omitempty"`
	ValueBoolean *bool   `json:"valueBoolean,omitempty"`
}

// Elements returns the snapshot elements, or nil when the document has no
// snapshot.
func (sd *StructureDefinitionResource) Elements() []ElementDefinition {
	if sd == nil || sd.Snapshot == nil {
		return nil
	}
	return sd.Snapshot.Element
}

// HasSnapshot reports whether the document carries a non-empty snapshot.
func (sd *StructureDefinitionResource) HasSnapshot() bool {
	return len(sd.Elements()) > 0
}

// DisplayTitle returns the title, falling back to the id.
func (sd *StructureDefinitionResource) DisplayTitle() string {
	if sd.Title != "" {
		return sd.Title
	}
	return sd.ID
}

// StringExtension returns the valueString of the first top-level extension
// with the given URL that has one.
func (sd *StructureDefinitionResource) StringExtension(url string) (string, bool) {
	for _, ext := range sd.Extension {
		if ext.URL == url && ext.ValueString != nil {
			return *ext.ValueString, true
		}
	}
	return "", false
}

// MinValue returns min, treating an absent value as -1 so it never matches
// a cardinality rule.
func (e *ElementDefinition) MinValue() int {
	if e.Min == nil {
		return -1
	}
	return *e.Min
}

// IsMustSupport reports the mustSupport flag; absent means false.
func (e *ElementDefinition) IsMustSupport() bool {
	return e.MustSupport != nil && *e.MustSupport
}

// HasExtension reports whether the element carries an extension with the
// given URL. The extension value is not consulted.
func (e *ElementDefinition) HasExtension(url string) bool {
	for _, ext := range e.Extension {
		if ext.URL == url {
			return true
		}
	}
	return false
}

// IsTopLevel reports whether the element is a direct child of the resource
// root: exactly two dot-separated segments and no slice separator.
func (e *ElementDefinition) IsTopLevel() bool {
	return !strings.Contains(e.ID, ":") && strings.Count(e.ID, ".") == 1
}

// TopLevelAncestor returns the id of the nearest top-level ancestor, or ""
// when the element has none that applies (root element or sliced ids).
func (e *ElementDefinition) TopLevelAncestor() string {
	if strings.Contains(e.ID, ":") {
		return ""
	}
	parts := strings.SplitN(e.ID, ".", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[0] + "." + parts[1]
}

// ============================================================================
// Loading
// ============================================================================

// DecodeStructureDefinition decodes a StructureDefinition from r.
func DecodeStructureDefinition(r io.Reader) (*StructureDefinitionResource, error) {
	var sd StructureDefinitionResource
	if err := json.NewDecoder(r).Decode(&sd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if sd.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrParse)
	}
	return &sd, nil
}

// LoadStructureDefinition reads and decodes the document at path.
func LoadStructureDefinition(path string) (*StructureDefinitionResource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sd, err := DecodeStructureDefinition(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return sd, nil
}

// DiscoverStructureDefinitions lists StructureDefinition*.json files in dir,
// sorted by name. An unreadable directory or one without candidates is an
// ErrDiscovery.
func DiscoverStructureDefinitions(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrDiscovery, dir, err)
	}

	prefix := strings.ToLower(fhirmodels.ResourceTypeStructureDefinition)
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".json") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no StructureDefinition JSON files in %s", ErrDiscovery, dir)
	}
	return paths, nil
}

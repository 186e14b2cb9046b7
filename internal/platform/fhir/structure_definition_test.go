package fhir

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/echicoine-icf/structure-definition-intro-generator/pkg/fhirmodels"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

// ===========================================================================
// Decode Tests
// ===========================================================================

func TestDecodeStructureDefinition_Full(t *testing.T) {
	doc := `{
		"resourceType": "StructureDefinition",
		"id": "qicore-observation",
		"type": "Observation",
		"title": "QICore Observation",
		"extension": [
			{"url": "http://hl7.org/fhir/StructureDefinition/cqf-modelInfo-primaryCodePath", "valueString": "code"}
		],
		"snapshot": {"element": [
			{"id": "Observation", "path": "Observation", "min": 0, "max": "*"},
			{"id": "Observation.status", "path": "Observation.status", "short": "Status", "min": 1, "max": "1", "mustSupport": true},
			{"id": "Observation.extension:foo", "path": "Observation.extension", "sliceName": "foo", "min": 0, "max": "1",
			 "extension": [{"url": "http://hl7.org/fhir/us/qicore/StructureDefinition/qicore-keyelement", "valueBoolean": true}]}
		]}
	}`

	sd, err := DecodeStructureDefinition(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sd.ID != "qicore-observation" {
		t.Errorf("expected id qicore-observation, got %s", sd.ID)
	}
	if !sd.HasSnapshot() {
		t.Fatal("expected snapshot")
	}
	if len(sd.Elements()) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(sd.Elements()))
	}
	status := sd.Elements()[1]
	if status.MinValue() != 1 || status.Max != "1" || !status.IsMustSupport() {
		t.Errorf("unexpected status element: %+v", status)
	}
	slice := sd.Elements()[2]
	if slice.SliceName != "foo" {
		t.Errorf("expected sliceName foo, got %q", slice.SliceName)
	}
	if !slice.HasExtension(fhirmodels.KeyElementURL) {
		t.Error("expected key element extension")
	}
	if v, ok := sd.StringExtension(fhirmodels.PrimaryCodePathURL); !ok || v != "code" {
		t.Errorf("expected primary code path 'code', got %q (%v)", v, ok)
	}
}

func TestDecodeStructureDefinition_InvalidJSON(t *testing.T) {
	_, err := DecodeStructureDefinition(strings.NewReader(`{"id": `))
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestDecodeStructureDefinition_MissingID(t *testing.T) {
	_, err := DecodeStructureDefinition(strings.NewReader(`{"type": "Observation"}`))
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestDecodeStructureDefinition_NoSnapshot(t *testing.T) {
	sd, err := DecodeStructureDefinition(strings.NewReader(`{"id": "x", "type": "Patient"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sd.HasSnapshot() {
		t.Error("expected no snapshot")
	}
	if sd.Elements() != nil {
		t.Error("expected nil elements")
	}
}

func TestDisplayTitle_FallsBackToID(t *testing.T) {
	sd := &StructureDefinitionResource{ID: "deqm-measurereport"}
	if got := sd.DisplayTitle(); got != "deqm-measurereport" {
		t.Errorf("expected id fallback, got %q", got)
	}
	sd.Title = "DEQM MeasureReport"
	if got := sd.DisplayTitle(); got != "DEQM MeasureReport" {
		t.Errorf("expected title, got %q", got)
	}
}

// ===========================================================================
// Element Helper Tests
// ===========================================================================

func TestElementDefinition_IsTopLevel(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"Observation", false},
		{"Observation.status", true},
		{"Observation.code.coding", false},
		{"Observation.extension:foo", false},
		{"Observation.value[x]", true},
	}
	for _, tt := range tests {
		e := ElementDefinition{ID: tt.id}
		if got := e.IsTopLevel(); got != tt.want {
			t.Errorf("IsTopLevel(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestElementDefinition_TopLevelAncestor(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"Observation", ""},
		{"Observation.status", "Observation.status"},
		{"Observation.code.coding", "Observation.code"},
		{"Observation.component.code.text", "Observation.component"},
		{"Observation.extension:foo.value[x]", ""},
	}
	for _, tt := range tests {
		e := ElementDefinition{ID: tt.id}
		if got := e.TopLevelAncestor(); got != tt.want {
			t.Errorf("TopLevelAncestor(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestElementDefinition_MinValueAbsent(t *testing.T) {
	e := ElementDefinition{}
	if e.MinValue() != -1 {
		t.Errorf("expected -1 for absent min, got %d", e.MinValue())
	}
	e.Min = intPtr(0)
	if e.MinValue() != 0 {
		t.Errorf("expected 0, got %d", e.MinValue())
	}
}

func TestElementDefinition_HasExtension(t *testing.T) {
	url := fhirmodels.KeyElementURL
	tests := []struct {
		name string
		ext  []Extension
		want bool
	}{
		{"none", nil, false},
		{"true", []Extension{{URL: url, ValueBoolean: boolPtr(true)}}, true},
		{"false", []Extension{{URL: url, ValueBoolean: boolPtr(false)}}, true},
		{"no value", []Extension{{URL: url}}, true},
		{"other url", []Extension{{URL: "http://example.org/other", ValueBoolean: boolPtr(true)}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ElementDefinition{Extension: tt.ext}
			if got := e.HasExtension(url); got != tt.want {
				t.Errorf("HasExtension = %v, want %v", got, tt.want)
			}
		})
	}
}

// ===========================================================================
// Discovery Tests
// ===========================================================================

func TestDiscoverStructureDefinitions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"StructureDefinition-b.json",
		"structuredefinition-a.JSON",
		"ValueSet-x.json",
		"StructureDefinition-c.xml",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "StructureDefinition-dir.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	paths, err := DiscoverStructureDefinitions(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %v", len(paths), paths)
	}
	if filepath.Base(paths[0]) != "StructureDefinition-b.json" {
		t.Errorf("expected sorted order, got %v", paths)
	}
}

func TestDiscoverStructureDefinitions_Empty(t *testing.T) {
	_, err := DiscoverStructureDefinitions(t.TempDir())
	if !errors.Is(err, ErrDiscovery) {
		t.Fatalf("expected ErrDiscovery, got %v", err)
	}
}

func TestDiscoverStructureDefinitions_Missing(t *testing.T) {
	_, err := DiscoverStructureDefinitions(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrDiscovery) {
		t.Fatalf("expected ErrDiscovery, got %v", err)
	}
}

func TestLoadStructureDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "StructureDefinition-x.json")
	if err := os.WriteFile(path, []byte(`{"id": "x", "title": "X"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	sd, err := LoadStructureDefinition(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sd.Title != "X" {
		t.Errorf("expected title X, got %s", sd.Title)
	}

	if err := os.WriteFile(path, []byte(`not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadStructureDefinition(path); !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

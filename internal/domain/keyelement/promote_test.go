package keyelement

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/echicoine-icf/structure-definition-intro-generator/internal/platform/fhir"
)

func TestPromote(t *testing.T) {
	tests := []struct {
		name    string
		element string
		want    string
	}{
		{
			name:    "only uscdi",
			element: `{"id": "Observation.bodySite", "path": "Observation.bodySite", "short": "Body site", "extension": [` + uscdiExt + `], "min": 0}`,
			want:    `{"id": "Observation.bodySite", "path": "Observation.bodySite", "short": "(QI-Core)Body site", "extension": [` + keyExt + `], "min": 0}`,
		},
		{
			name:    "explicit mustSupport false",
			element: `{"id": "Observation.method", "path": "Observation.method", "short": "Method", "mustSupport": false, "extension": [` + uscdiExt + `]}`,
			want:    `{"id": "Observation.method", "path": "Observation.method", "short": "(QI-Core)Method", "mustSupport": false, "extension": [` + keyExt + `]}`,
		},
		{
			name:    "other extensions kept after key element",
			element: `{"id": "Observation.note", "path": "Observation.note", "short": "Comments", "extension": [` + otherExt + `, ` + uscdiExt + `]}`,
			want:    `{"id": "Observation.note", "path": "Observation.note", "short": "(QI-Core)Comments", "extension": [` + keyExt + `, ` + otherExt + `]}`,
		},
		{
			name:    "prefix not repeated",
			element: `{"id": "Observation.issued", "path": "Observation.issued", "short": "(QI-Core)Issued", "extension": [` + uscdiExt + `]}`,
			want:    `{"id": "Observation.issued", "path": "Observation.issued", "short": "(QI-Core)Issued", "extension": [` + keyExt + `]}`,
		},
		{
			name:    "no short",
			element: `{"id": "Observation.focus", "path": "Observation.focus", "extension": [` + uscdiExt + `]}`,
			want:    `{"id": "Observation.focus", "path": "Observation.focus", "extension": [` + keyExt + `]}`,
		},
		{
			name:    "both extensions",
			element: `{"id": "Observation.code", "path": "Observation.code", "short": "Code", "extension": [` + keyExt + `, ` + uscdiExt + `]}`,
		},
		{
			name:    "already must support",
			element: `{"id": "Observation.status", "path": "Observation.status", "short": "Status", "mustSupport": true, "extension": [` + uscdiExt + `]}`,
		},
		{
			name:    "no uscdi extension",
			element: `{"id": "Observation.value[x]", "path": "Observation.value[x]", "short": "Result", "extension": [` + otherExt + `]}`,
		},
		{
			name:    "no extensions",
			element: `{"id": "Observation.subject", "path": "Observation.subject", "short": "Subject"}`,
		},
		{
			name:    "no id",
			element: `{"path": "Observation.encounter", "short": "Encounter", "extension": [` + uscdiExt + `]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Promote([]byte(snapshotDoc("qicore-observation", tt.element)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.ProfileID != "qicore-observation" {
				t.Errorf("expected profile id, got %q", p.ProfileID)
			}
			if tt.want == "" {
				if len(p.Elements) != 0 {
					t.Fatalf("expected no candidates, got %s", p.Elements[0].Element)
				}
				return
			}
			if len(p.Elements) != 1 {
				t.Fatalf("expected 1 candidate, got %d", len(p.Elements))
			}
			if diff := cmp.Diff(compact(t, tt.want), compact(t, string(p.Elements[0].Element))); diff != "" {
				t.Errorf("element mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPromote_VersionedCanonical(t *testing.T) {
	versioned := `{"url": "http://hl7.org/fhir/us/core/6.1.0/StructureDefinition/uscdi-requirement", "valueBoolean": true}`
	el := `{"id": "Observation.bodySite", "path": "Observation.bodySite", "short": "Body site", "extension": [` + versioned + `]}`

	p, err := Promote([]byte(snapshotDoc("qicore-observation", el)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"Observation.bodySite"}, p.IDs()); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestPromote_KeepsMarkupUnescaped(t *testing.T) {
	el := `{"id": "Observation.value[x]", "path": "Observation.value[x]", "short": "Value & <unit>", "extension": [` + uscdiExt + `]}`

	p, err := Promote([]byte(snapshotDoc("qicore-observation", el)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Elements) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(p.Elements))
	}
	if !strings.Contains(string(p.Elements[0].Element), `"short":"(QI-Core)Value & <unit>"`) {
		t.Errorf("short was escaped: %s", p.Elements[0].Element)
	}
	if p.Elements[0].Short != "(QI-Core)Value & <unit>" {
		t.Errorf("unexpected short %q", p.Elements[0].Short)
	}
}

func TestPromote_NoSnapshot(t *testing.T) {
	p, err := Promote([]byte(`{"resourceType": "StructureDefinition", "id": "x"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Elements) != 0 {
		t.Errorf("expected no candidates, got %d", len(p.Elements))
	}
}

func TestPromote_InvalidJSON(t *testing.T) {
	for _, doc := range []string{`{`, `[]`, `{"id": "x"} {}`} {
		if _, err := Promote([]byte(doc)); !errors.Is(err, fhir.ErrParse) {
			t.Errorf("%q: expected ErrParse, got %v", doc, err)
		}
	}
}

// ===========================================================================
// Merge
// ===========================================================================

const authoredProfile = `{
  "resourceType": "StructureDefinition",
  "id": "qicore-observation",
  "differential": {
    "element": [
      {"id": "Observation", "path": "Observation"},
      {"id": "Observation.bodySite", "path": "Observation.bodySite", "short": "old"},
      {"id": "Observation.status", "path": "Observation.status"}
    ]
  },
  "url": "http://example.org/StructureDefinition/qicore-observation"
}
`

func TestMerge_ReplacesByID(t *testing.T) {
	candidates := []Candidate{{
		ID:      "Observation.bodySite",
		Element: []byte(`{"id":"Observation.bodySite","short":"(QI-Core)Body site"}`),
	}}

	got, err := Merge([]byte(authoredProfile), candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{
  "resourceType": "StructureDefinition",
  "id": "qicore-observation",
  "differential": {
    "element": [
      {
        "id": "Observation",
        "path": "Observation"
      },
      {
        "id": "Observation.status",
        "path": "Observation.status"
      },
      {
        "id": "Observation.bodySite",
        "short": "(QI-Core)Body site"
      }
    ]
  },
  "url": "http://example.org/StructureDefinition/qicore-observation"
}
`
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}

	again, err := Merge(got, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(string(got), string(again)); diff != "" {
		t.Errorf("second merge changed the document (-first +second):\n%s", diff)
	}
}

func TestMerge_AppendsNewElements(t *testing.T) {
	doc := `{"id": "qicore-observation", "differential": {"element": [{"id": "Observation"}]}}`
	candidates := []Candidate{
		{ID: "Observation.note", Element: []byte(`{"id":"Observation.note"}`)},
		{ID: "Observation.method", Element: []byte(`{"id":"Observation.method"}`)},
	}

	got, err := Merge([]byte(doc), candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"id":"qicore-observation","differential":{"element":[{"id":"Observation"},{"id":"Observation.note"},{"id":"Observation.method"}]}}`
	if diff := cmp.Diff(want, compact(t, string(got))); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
	if strings.HasSuffix(string(got), "\n") {
		t.Error("trailing newline added to a document that had none")
	}
}

func TestMerge_DifferentialWithoutElements(t *testing.T) {
	doc := `{"id": "qicore-observation", "differential": {}}`
	candidates := []Candidate{{ID: "Observation.note", Element: []byte(`{"id":"Observation.note"}`)}}

	got, err := Merge([]byte(doc), candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"id":"qicore-observation","differential":{"element":[{"id":"Observation.note"}]}}`
	if diff := cmp.Diff(want, compact(t, string(got))); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_NoDifferential(t *testing.T) {
	_, err := Merge([]byte(`{"id": "qicore-observation"}`), []Candidate{{ID: "Observation.note", Element: []byte(`{}`)}})
	if !errors.Is(err, ErrNoDifferential) {
		t.Fatalf("expected ErrNoDifferential, got %v", err)
	}
}

func TestPromoteThenMerge(t *testing.T) {
	generated := snapshotDoc("qicore-observation",
		`{"id": "Observation.bodySite", "path": "Observation.bodySite", "short": "Body site", "extension": [`+uscdiExt+`]}`,
		`{"id": "Observation.status", "path": "Observation.status", "short": "Status", "mustSupport": true}`,
	)
	p, err := Promote([]byte(generated))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := Merge([]byte(authoredProfile), p.Elements)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := string(got)
	if strings.Contains(text, `"short": "old"`) {
		t.Errorf("stale element kept:\n%s", text)
	}
	if !strings.Contains(text, `"short": "(QI-Core)Body site"`) || strings.Contains(text, "uscdi-requirement") {
		t.Errorf("promoted element not merged:\n%s", text)
	}
	if !strings.Contains(text, "qicore-keyelement") {
		t.Errorf("key element extension missing:\n%s", text)
	}
}

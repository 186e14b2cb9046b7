package keyelement

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

const (
	uscdiExt = `{"url": "http://hl7.org/fhir/us/core/StructureDefinition/uscdi-requirement", "valueBoolean": true}`
	keyExt   = `{"url": "http://hl7.org/fhir/us/qicore/StructureDefinition/qicore-keyelement", "valueBoolean": true}`
	otherExt = `{"url": "http://example.org/StructureDefinition/other", "valueString": "x"}`
)

// snapshotDoc wraps elements in a generated profile with a root element.
func snapshotDoc(id string, elements ...string) string {
	all := append([]string{`{"id": "Observation", "path": "Observation"}`}, elements...)
	return `{
  "resourceType": "StructureDefinition",
  "id": "` + id + `",
  "snapshot": {
    "element": [
      ` + strings.Join(all, ",\n      ") + `
    ]
  }
}`
}

func compact(t *testing.T, s string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		t.Fatalf("invalid json %q: %v", s, err)
	}
	return buf.String()
}

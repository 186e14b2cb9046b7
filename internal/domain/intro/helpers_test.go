package intro

import (
	"strings"

	"github.com/echicoine-icf/structure-definition-intro-generator/internal/platform/fhir"
	"github.com/echicoine-icf/structure-definition-intro-generator/pkg/fhirmodels"
)

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

// element builds a snapshot element from a FHIR element id. The path drops
// slice names and the slice name is taken from the last id segment.
func element(id string, min int, max string, mustSupport bool, short string) fhir.ElementDefinition {
	segments := strings.Split(id, ".")
	var sliceName string
	for i, seg := range segments {
		if name, slice, ok := strings.Cut(seg, ":"); ok {
			segments[i] = name
			if i == len(segments)-1 {
				sliceName = slice
			}
		}
	}
	return fhir.ElementDefinition{
		ID:          id,
		Path:        strings.Join(segments, "."),
		SliceName:   sliceName,
		Short:       short,
		Min:         intPtr(min),
		Max:         max,
		MustSupport: boolPtr(mustSupport),
	}
}

func keyElement(e fhir.ElementDefinition) fhir.ElementDefinition {
	e.Extension = append(e.Extension, fhir.Extension{URL: fhirmodels.KeyElementURL, ValueBoolean: boolPtr(true)})
	return e
}

func profile(elements ...fhir.ElementDefinition) *fhir.StructureDefinitionResource {
	return &fhir.StructureDefinitionResource{
		ResourceType: fhirmodels.ResourceTypeStructureDefinition,
		ID:           "test-observation",
		Type:         "Observation",
		Snapshot:     &fhir.StructureSnapshot{Element: elements},
	}
}

func withCodePath(sd *fhir.StructureDefinitionResource, path string) *fhir.StructureDefinitionResource {
	sd.Extension = append(sd.Extension, fhir.Extension{URL: fhirmodels.PrimaryCodePathURL, ValueString: strPtr(path)})
	return sd
}

func root() fhir.ElementDefinition {
	return element("Observation", 0, "*", false, "Measurements and simple assertions")
}

// resultOf builds a classification result directly.
func resultOf(codePath string, entries map[Category][]Entry) *ClassificationResult {
	r := newClassificationResult()
	r.PrimaryCodePath = codePath
	for _, c := range categoryOrder {
		for _, e := range entries[c] {
			r.add(c, e)
		}
	}
	return r
}

package intro

import (
	"strings"

	"github.com/echicoine-icf/structure-definition-intro-generator/internal/platform/fhir"
	"github.com/echicoine-icf/structure-definition-intro-generator/pkg/fhirmodels"
)

// parentSet holds the ids of top-level elements admitted to a category.
type parentSet map[string]struct{}

func (p parentSet) has(id string) bool {
	_, ok := p[id]
	return ok
}

// Classify sorts the snapshot elements of sd into categories.
//
// Top-level elements are classified first. A nested element is only
// considered for a category when its top-level ancestor made it into that
// same category, so children of unlisted parents never show up alone. A
// document without a snapshot yields an empty result.
func Classify(sd *fhir.StructureDefinitionResource, rules RuleConfig) *ClassificationResult {
	result := newClassificationResult()
	if !sd.HasSnapshot() {
		return result
	}
	if path, ok := sd.StringExtension(fhirmodels.PrimaryCodePathURL); ok {
		result.PrimaryCodePath = path
	}

	elements := sd.Elements()
	c := &classifier{
		rules:  rules,
		hidden: sliceMarkers(elements, rules.SliceContainers),
		result: result,
	}
	parents := c.classifyTopLevel(elements)
	c.classifyNested(elements, parents)
	return result
}

type classifier struct {
	rules  RuleConfig
	hidden []string
	result *ClassificationResult
}

// classifyTopLevel records top-level matches and returns, per category, the
// ids admitted. The returned sets are not modified afterwards.
func (c *classifier) classifyTopLevel(elements []fhir.ElementDefinition) map[Category]parentSet {
	parents := make(map[Category]parentSet)
	for i := range elements {
		e := &elements[i]
		if !e.IsTopLevel() {
			continue
		}
		label, ok := c.label(e)
		if !ok {
			continue
		}
		for _, cat := range c.match(e, func(Category) bool { return true }) {
			if parents[cat] == nil {
				parents[cat] = make(parentSet)
			}
			parents[cat][e.ID] = struct{}{}
			c.result.add(cat, Entry{Label: label, Description: c.describe(e)})
		}
	}
	return parents
}

func (c *classifier) classifyNested(elements []fhir.ElementDefinition, parents map[Category]parentSet) {
	for i := range elements {
		e := &elements[i]
		if e.IsTopLevel() || isRoot(e) || c.insideSlice(e) {
			continue
		}
		label, ok := c.label(e)
		if !ok {
			continue
		}
		ancestor := e.TopLevelAncestor()
		admit := func(cat Category) bool {
			return ancestor == "" || parents[cat].has(ancestor)
		}
		for _, cat := range c.match(e, admit) {
			c.result.add(cat, Entry{Label: label, Description: c.describe(e)})
		}
	}
}

// match returns the categories e qualifies for. Key and must-support rules
// only apply when the element is not mandatory.
func (c *classifier) match(e *fhir.ElementDefinition, admit func(Category) bool) []Category {
	if admit(CategoryMandatory) && c.isMandatory(e) {
		return []Category{CategoryMandatory}
	}
	var cats []Category
	if c.rules.KeyRule != KeyRuleNone && admit(CategoryKeyElement) && c.isKey(e) {
		cats = append(cats, CategoryKeyElement)
	}
	if c.rules.MustSupportCategory && admit(CategoryMustSupport) && e.IsMustSupport() {
		cats = append(cats, CategoryMustSupport)
	}
	return cats
}

func (c *classifier) isMandatory(e *fhir.ElementDefinition) bool {
	if e.MinValue() != 1 {
		return false
	}
	if e.Max != fhirmodels.MaxOne && e.Max != fhirmodels.MaxUnbounded {
		return false
	}
	return !c.rules.MandatoryRequiresMustSupport || e.IsMustSupport()
}

func (c *classifier) isKey(e *fhir.ElementDefinition) bool {
	switch c.rules.KeyRule {
	case KeyRuleExtension:
		return e.HasExtension(fhirmodels.KeyElementURL)
	case KeyRuleCardinality:
		return e.MinValue() == 0 && !e.IsMustSupport()
	default:
		return false
	}
}

// label derives the display label; ok is false when the element is excluded
// by the extension policy.
func (c *classifier) label(e *fhir.ElementDefinition) (string, bool) {
	isExtension := strings.HasSuffix(e.Path, "."+fhirmodels.ElementExtension)
	if isExtension && e.SliceName == "" && c.rules.ExtensionPolicy == ExtensionDrop {
		return "", false
	}
	if c.rules.QualifySliceLabels && e.SliceName != "" && e.ID != e.Path && strings.Contains(e.ID, e.Path) {
		return stripResourceType(e.Path) + "(" + e.SliceName + ")", true
	}
	if isExtension && e.SliceName != "" {
		return e.SliceName, true
	}
	return stripResourceType(e.Path), true
}

func (c *classifier) describe(e *fhir.ElementDefinition) string {
	desc := e.Short
	for _, b := range c.rules.Boilerplate {
		desc = strings.ReplaceAll(desc, b, "")
	}
	return strings.Join(strings.Fields(desc), " ")
}

// insideSlice reports whether e is a sub-element of a sliced container such
// as "X.extension:foo". The slice element itself is not inside.
func (c *classifier) insideSlice(e *fhir.ElementDefinition) bool {
	for _, marker := range c.hidden {
		if strings.Contains(e.ID, marker) {
			return true
		}
	}
	return false
}

// sliceMarkers collects ".container:sliceName." for every slice-defining
// element of the given containers.
func sliceMarkers(elements []fhir.ElementDefinition, containers []string) []string {
	var markers []string
	for i := range elements {
		e := &elements[i]
		if e.SliceName == "" {
			continue
		}
		for _, container := range containers {
			slice := "." + container + ":" + e.SliceName
			if strings.HasSuffix(e.ID, slice) {
				markers = append(markers, slice+".")
			}
		}
	}
	return markers
}

func isRoot(e *fhir.ElementDefinition) bool {
	return !strings.Contains(e.Path, ".")
}

func stripResourceType(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

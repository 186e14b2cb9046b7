package intro

import (
	"fmt"
	"strings"

	"github.com/echicoine-icf/structure-definition-intro-generator/pkg/fhirmodels"
)

// KeyRule selects how Key/QI elements are recognized.
type KeyRule int

const (
	KeyRuleNone KeyRule = iota
	// KeyRuleExtension matches elements carrying the key-element extension.
	KeyRuleExtension
	// KeyRuleCardinality matches optional elements without mustSupport.
	KeyRuleCardinality
)

// ParseKeyRule parses "none", "extension" or "cardinality".
func ParseKeyRule(s string) (KeyRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return KeyRuleNone, nil
	case "extension":
		return KeyRuleExtension, nil
	case "cardinality", "ms":
		return KeyRuleCardinality, nil
	default:
		return KeyRuleNone, fmt.Errorf("unknown key element rule %q", s)
	}
}

// ExtensionPolicy decides what happens to non-slice ".extension" elements.
type ExtensionPolicy string

const (
	ExtensionDrop   ExtensionPolicy = "drop"
	ExtensionRetain ExtensionPolicy = "retain"
)

// ParseExtensionPolicy parses "drop" or "retain".
func ParseExtensionPolicy(s string) (ExtensionPolicy, error) {
	switch p := ExtensionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case ExtensionDrop, ExtensionRetain:
		return p, nil
	default:
		return "", fmt.Errorf("unknown extension policy %q", s)
	}
}

// RuleConfig drives classification for one profile family.
type RuleConfig struct {
	MandatoryRequiresMustSupport bool
	KeyRule                      KeyRule
	MustSupportCategory          bool
	ExtensionPolicy              ExtensionPolicy
	// QualifySliceLabels labels sliced elements as "path(sliceName)".
	QualifySliceLabels bool
	// SliceContainers names elements whose slices hide their sub-elements.
	SliceContainers []string
	// Boilerplate substrings are removed from short descriptions.
	Boilerplate []string
}

// Style is an output markup style.
type Style int

const (
	StyleRich Style = iota
	StyleFlattened
)

// Layout describes how a classification result is rendered.
type Layout struct {
	Style    Style
	Headings map[Category]string
	// Preamble is emitted after the begin marker, before the lists.
	Preamble string
	Numbered bool
}

func (l Layout) heading(c Category) string {
	if h, ok := l.Headings[c]; ok {
		return h
	}
	return c.defaultHeading()
}

// InjectStyle selects where a fragment goes in a target document.
type InjectStyle int

const (
	// InjectAfterContainer places the fragment inside the first <div>,
	// synthesizing one when the document has none.
	InjectAfterContainer InjectStyle = iota
	// InjectAtTop places the fragment before the first line.
	InjectAtTop
)

// Family bundles everything that differs between profile families.
type Family struct {
	Name        string
	Rules       RuleConfig
	Target      Layout
	Index       Layout
	InjectStyle InjectStyle
	TargetDir   string
	TargetExt   string
	IndexFile   string
	IndexHeader string
}

// TargetFileName is the intro document a profile's fragment is merged into.
func (f Family) TargetFileName(profileID string) string {
	return fhirmodels.ResourceTypeStructureDefinition + "-" + profileID + "-intro." + f.TargetExt
}

// HasKeyElements reports whether the family's intro layout lists key
// elements.
func (f Family) HasKeyElements() bool {
	_, ok := f.Target.Headings[CategoryKeyElement]
	return ok
}

// PageFileName is the published page of a profile, used for index links.
func PageFileName(profileID string) string {
	return fhirmodels.ResourceTypeStructureDefinition + "-" + profileID + ".html"
}

const (
	qicoreDescriptorHTML = `"Must Have", "QI Elements" and "primary code path" are defined in the <a href="index.html#mustsupport-flag">QI-Core Must Support section</a>.<br></br>`
	qicoreDescriptorMD   = `"Must Have", "QI Elements" and "primary code path" are defined in the [QI-Core Must Support section](index.html#mustsupport-flag).`

	deqmAssignID   = "{% assign id = {{include.id}} %}"
	deqmTitle      = "### Mandatory Data Elements and Terminology\nThe following data-elements are mandatory (i.e data MUST be present).\n"
	deqmTypeHeader = "Each {{site.data.structuredefinitions.[id].type}}"
)

var sliceContainers = []string{fhirmodels.ElementExtension, fhirmodels.ElementEntry}

// QICore renders HTML intro notes with Must Have and QI Elements lists.
func QICore() Family {
	headings := map[Category]string{
		CategoryMandatory:  "Must Have:",
		CategoryKeyElement: "QI Elements:",
	}
	return Family{
		Name: "qicore",
		Rules: RuleConfig{
			MandatoryRequiresMustSupport: true,
			KeyRule:                      KeyRuleExtension,
			ExtensionPolicy:              ExtensionRetain,
			QualifySliceLabels:           true,
			SliceContainers:              sliceContainers,
			Boilerplate:                  []string{fhirmodels.KeyElementShortPrefix, "(USCDI)"},
		},
		Target: Layout{
			Style:    StyleRich,
			Headings: headings,
			Preamble: qicoreDescriptorHTML + "\n\n",
		},
		Index:       Layout{Style: StyleFlattened, Headings: headings},
		InjectStyle: InjectAfterContainer,
		TargetDir:   "input/intro-notes",
		TargetExt:   "xml",
		IndexFile:   "input/pages/qi-elements.md",
		IndexHeader: qicoreDescriptorMD + "\n\n",
	}
}

// DEQM renders markdown page content with numbered Must Have and Must
// Support lists.
func DEQM() Family {
	headings := map[Category]string{
		CategoryMandatory:   deqmTypeHeader + " Must Have:",
		CategoryMustSupport: deqmTypeHeader + " Must Support:",
	}
	return Family{
		Name: "deqm",
		Rules: RuleConfig{
			KeyRule:             KeyRuleNone,
			MustSupportCategory: true,
			ExtensionPolicy:     ExtensionDrop,
			SliceContainers:     sliceContainers,
		},
		Target: Layout{
			Style:    StyleFlattened,
			Headings: headings,
			Preamble: deqmAssignID + "\n" + deqmTitle + "\n",
			Numbered: true,
		},
		Index:       Layout{Style: StyleFlattened, Headings: headings, Numbered: true},
		InjectStyle: InjectAtTop,
		TargetDir:   "input/pagecontent",
		TargetExt:   "md",
		IndexFile:   "musthave-qi-list.md",
	}
}

// LookupFamily returns the built-in family with the given name.
func LookupFamily(name string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "qicore", "qi-core":
		return QICore(), nil
	case "deqm":
		return DEQM(), nil
	default:
		return Family{}, fmt.Errorf("unknown profile family %q", name)
	}
}

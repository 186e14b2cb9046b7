package intro

import "strings"

// Category is a summary list an element can be classified into.
type Category int

const (
	CategoryMandatory Category = iota
	CategoryKeyElement
	CategoryMustSupport
)

// categoryOrder is the fixed render order.
var categoryOrder = []Category{CategoryMandatory, CategoryKeyElement, CategoryMustSupport}

func (c Category) String() string {
	switch c {
	case CategoryMandatory:
		return "mandatory"
	case CategoryKeyElement:
		return "key-element"
	case CategoryMustSupport:
		return "must-support"
	default:
		return "unknown"
	}
}

// defaultHeading is used when a layout does not name a category.
func (c Category) defaultHeading() string {
	switch c {
	case CategoryMandatory:
		return "Must Have:"
	case CategoryKeyElement:
		return "Key Elements:"
	default:
		return "Must Support:"
	}
}

// Entry is one labeled element in a category.
type Entry struct {
	Label       string
	Description string
}

// Text is the rendered entry text.
func (e Entry) Text() string {
	return e.Label + ": " + e.Description
}

// ClassificationResult holds the classified entries of one profile.
type ClassificationResult struct {
	PrimaryCodePath string

	entries map[Category][]Entry
	labels  map[Category]map[string]bool
}

func newClassificationResult() *ClassificationResult {
	return &ClassificationResult{
		entries: make(map[Category][]Entry),
		labels:  make(map[Category]map[string]bool),
	}
}

// add appends e to c unless the label is already present.
func (r *ClassificationResult) add(c Category, e Entry) {
	seen := r.labels[c]
	if seen == nil {
		seen = make(map[string]bool)
		r.labels[c] = seen
	}
	if seen[e.Label] {
		return
	}
	seen[e.Label] = true
	r.entries[c] = append(r.entries[c], e)
}

// Entries returns the entries of c in first-occurrence order.
func (r *ClassificationResult) Entries(c Category) []Entry {
	if r == nil {
		return nil
	}
	return r.entries[c]
}

// IsEmpty reports whether there is nothing to generate.
func (r *ClassificationResult) IsEmpty() bool {
	if r == nil {
		return true
	}
	if r.PrimaryCodePath != "" {
		return false
	}
	for _, c := range categoryOrder {
		if len(r.entries[c]) > 0 {
			return false
		}
	}
	return true
}

// Fragment is a self-delimited block of generated text.
type Fragment struct {
	Begin string
	Body  string
	End   string

	// Summary is Body without the family preamble.
	Summary string
}

// IsEmpty reports whether the fragment signals "no injection needed".
func (f Fragment) IsEmpty() bool {
	return f.Body == ""
}

// Text returns the fragment with its markers, newline terminated.
func (f Fragment) Text() string {
	if f.IsEmpty() {
		return ""
	}
	return f.Begin + "\n" + f.Body + f.End + "\n"
}

// Lines returns Text split into lines without terminators.
func (f Fragment) Lines() []string {
	if f.IsEmpty() {
		return nil
	}
	return strings.Split(strings.TrimSuffix(f.Text(), "\n"), "\n")
}

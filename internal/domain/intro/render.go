package intro

import (
	"strconv"
	"strings"
)

// Fragment delimiters. Both must survive untouched in target documents.
const (
	BeginMarker = "<!--Begin Generated Intro Tag (DO NOT REMOVE)-->"
	EndMarker   = "<!--End Generated Intro (DO NOT REMOVE)-->"
)

const (
	codePathLabel   = "Primary code path:"
	codePathText    = "(PCPath) This element is the primary code path for this resource"
	cqlRetrieveURL  = "https://cql.hl7.org/02-authorsguide.html#retrieve"
	cqlRetrieveName = "CQL Retrieve"
)

// Section is one heading with its entry lines.
type Section struct {
	Heading  string
	Entries  []string
	Numbered bool
}

// buildSections converts a result into the format-neutral section list,
// in fixed category order, skipping empty categories.
func buildSections(result *ClassificationResult, layout Layout) []Section {
	var sections []Section
	for _, c := range categoryOrder {
		entries := result.Entries(c)
		if len(entries) == 0 {
			continue
		}
		s := Section{Heading: layout.heading(c), Numbered: layout.Numbered}
		for _, e := range entries {
			s.Entries = append(s.Entries, e.Text())
		}
		sections = append(sections, s)
	}
	return sections
}

// Render turns a classification result into a fragment. An empty result
// yields an empty fragment.
func Render(result *ClassificationResult, layout Layout) Fragment {
	if result.IsEmpty() {
		return Fragment{}
	}
	sections := buildSections(result, layout)

	var summary string
	switch layout.Style {
	case StyleFlattened:
		summary = renderFlattened(sections, result.PrimaryCodePath)
	default:
		summary = renderRich(sections, result.PrimaryCodePath)
	}
	return Fragment{
		Begin:   BeginMarker,
		Body:    layout.Preamble + summary,
		End:     EndMarker,
		Summary: summary,
	}
}

func renderRich(sections []Section, codePath string) string {
	var b strings.Builder
	for _, s := range sections {
		b.WriteString("<b>" + s.Heading + "</b>\n")
		b.WriteString("<ul>\n")
		for i, entry := range s.Entries {
			b.WriteString("<li>" + numberPrefix(s.Numbered, i) + entry + "</li>\n")
		}
		b.WriteString("</ul>\n\n")
	}
	if codePath != "" {
		b.WriteString("<b>" + codePathLabel + "</b> " + codePath + "\n")
		b.WriteString("<br></br>\n")
		b.WriteString(codePathText + " <a href='" + cqlRetrieveURL + "'>" + cqlRetrieveName + "</a>\n")
		b.WriteString("<br></br>\n<br></br>\n\n")
	}
	return b.String()
}

// renderFlattened emits lightweight markup for aggregate pages. Inline text
// is escaped once here; nothing downstream rewrites it.
func renderFlattened(sections []Section, codePath string) string {
	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("**" + escapeMarkdown(s.Heading) + "**\n")
		for j, entry := range s.Entries {
			bullet := "* "
			if s.Numbered {
				bullet = numberPrefix(true, j)
			}
			b.WriteString(bullet + escapeMarkdown(entry) + "\n")
		}
	}
	if codePath != "" {
		if len(sections) > 0 {
			b.WriteString("\n")
		}
		b.WriteString("**" + codePathLabel + "** " + escapeMarkdown(codePath) + "\n")
		b.WriteString("<br>\n")
		b.WriteString(codePathText + " [" + cqlRetrieveName + "](" + cqlRetrieveURL + ")\n")
		b.WriteString("<br>\n")
	}
	b.WriteString("\n")
	return b.String()
}

func numberPrefix(numbered bool, i int) string {
	if !numbered {
		return ""
	}
	return strconv.Itoa(i+1) + ". "
}

// escapeMarkdown escapes table pipes so entries render inside markdown
// tables and lists alike.
func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

package intro

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrUnterminatedBlock is returned when a document has a begin marker
// without a matching end marker. Such a document is left untouched.
var ErrUnterminatedBlock = errors.New("generated block has no end marker")

// Inject merges frag into doc. Any previously generated block is replaced;
// all other lines are kept as they are. Injecting the same fragment into
// the result again returns it unchanged. An unterminated block leaves doc
// unchanged.
func Inject(doc string, frag Fragment, style InjectStyle) string {
	out, err := InjectChecked(doc, frag, style)
	if err != nil {
		return doc
	}
	return out
}

// InjectChecked is Inject reporting ErrUnterminatedBlock.
func InjectChecked(doc string, frag Fragment, style InjectStyle) (string, error) {
	if frag.IsEmpty() {
		return doc, nil
	}
	lines, terminated := splitLines(doc)
	kept, err := stripGenerated(lines)
	if err != nil {
		return doc, err
	}

	block := frag.Lines()
	out := make([]string, 0, len(kept)+len(block)+2)
	switch style {
	case InjectAfterContainer:
		at := containerIndex(kept)
		if at < 0 {
			out = append(out, "<div>")
			out = append(out, block...)
			out = append(out, "</div>")
			out = append(out, kept...)
		} else {
			out = append(out, kept[:at+1]...)
			out = append(out, block...)
			out = append(out, kept[at+1:]...)
		}
	default:
		out = append(out, block...)
		out = append(out, kept...)
	}

	// A document ending mid-line keeps doing so; a new one gets a newline.
	text := strings.Join(out, "\n")
	if terminated || doc == "" {
		text += "\n"
	}
	return text, nil
}

// splitLines splits doc on "\n" and reports whether the last line was
// terminated. Carriage returns stay part of the line.
func splitLines(doc string) ([]string, bool) {
	if doc == "" {
		return nil, false
	}
	terminated := strings.HasSuffix(doc, "\n")
	lines := strings.Split(strings.TrimSuffix(doc, "\n"), "\n")
	return lines, terminated
}

// stripGenerated drops every begin..end window, markers included.
func stripGenerated(lines []string) ([]string, error) {
	kept := make([]string, 0, len(lines))
	inside := false
	for _, line := range lines {
		switch strings.TrimSpace(line) {
		case BeginMarker:
			inside = true
			continue
		case EndMarker:
			inside = false
			continue
		}
		if !inside {
			kept = append(kept, line)
		}
	}
	if inside {
		return nil, ErrUnterminatedBlock
	}
	return kept, nil
}

// containerIndex returns the index of the first line that opens a <div>
// element, or -1.
func containerIndex(lines []string) int {
	for i, line := range lines {
		if opensContainer(line) {
			return i
		}
	}
	return -1
}

func opensContainer(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "<") {
		return false
	}
	z := html.NewTokenizer(strings.NewReader(trimmed))
	if z.Next() != html.StartTagToken {
		return false
	}
	name, _ := z.TagName()
	return atom.Lookup(name) == atom.Div
}

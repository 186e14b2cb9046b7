package intro

import (
	"sort"
	"strings"
)

// IndexEntry is one profile's contribution to the aggregate page.
type IndexEntry struct {
	Title    string
	PageFile string
	Fragment Fragment
}

// BuildIndex regenerates the aggregate page: header, then one section per
// profile with a non-empty fragment, sorted by title.
func BuildIndex(entries []IndexEntry, header string) string {
	kept := make([]IndexEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Fragment.IsEmpty() {
			kept = append(kept, e)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Title != kept[j].Title {
			return kept[i].Title < kept[j].Title
		}
		return kept[i].PageFile < kept[j].PageFile
	})

	var b strings.Builder
	b.WriteString(header)
	for _, e := range kept {
		b.WriteString("### [" + e.Title + "](" + e.PageFile + ") ###\n")
		b.WriteString(e.Fragment.Summary)
		b.WriteString("<br>\n<br>\n\n")
	}
	return b.String()
}

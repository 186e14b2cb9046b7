// Package textdiff renders unified diffs for dry-run output.
package textdiff

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Unified returns the unified diff turning before into after, labelled with
// name. Identical inputs give an empty string.
func Unified(name, before, after string) (string, error) {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: name,
		ToFile:   name + " (generated)",
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", name, err)
	}
	return text, nil
}

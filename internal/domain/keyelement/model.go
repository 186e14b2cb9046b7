package keyelement

import "encoding/json"

// Candidate is a snapshot element rewritten as a key element, ready to be
// merged into a differential.
type Candidate struct {
	ID      string
	Short   string
	Element json.RawMessage
}

// Promotion holds the candidates found in one profile snapshot.
type Promotion struct {
	ProfileID string
	Elements  []Candidate
}

// IDs returns the element ids in snapshot order.
func (p *Promotion) IDs() []string {
	ids := make([]string, len(p.Elements))
	for i, c := range p.Elements {
		ids[i] = c.ID
	}
	return ids
}

// Report summarizes one migration run.
type Report struct {
	Profiles  int
	// Promoted maps the lower-cased profile key to its promoted element ids.
	Promoted  map[string][]string
	Updated   []string
	Unchanged []string
	// Unmatched lists profile keys with candidates but no differential file.
	Unmatched []string
	Failed    []string
}

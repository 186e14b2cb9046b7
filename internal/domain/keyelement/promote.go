package keyelement

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/echicoine-icf/structure-definition-intro-generator/internal/platform/fhir"
	"github.com/echicoine-icf/structure-definition-intro-generator/pkg/fhirmodels"
)

// sameExtension compares extension URLs by their last path segment, so
// versioned or differently hosted canonicals still match.
func sameExtension(url, canonical string) bool {
	return url == canonical || strings.HasSuffix(url, "/"+path.Base(canonical))
}

func documentID(doc object) string {
	raw, ok := doc.get("id")
	if !ok {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return ""
	}
	return id
}

// Promote finds snapshot elements flagged only as USCDI requirements that are
// not mustSupport, and rewrites each as a key element: the key-element
// extension goes first, the USCDI extension is dropped and the short
// description gains the key-element prefix.
func Promote(data []byte) (*Promotion, error) {
	doc, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fhir.ErrParse, err)
	}
	p := &Promotion{ProfileID: documentID(doc)}

	raw, ok := doc.get("snapshot")
	if !ok {
		return p, nil
	}
	snapshot, err := decodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot: %v", fhir.ErrParse, err)
	}
	raw, ok = snapshot.get("element")
	if !ok {
		return p, nil
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("%w: snapshot.element: %v", fhir.ErrParse, err)
	}

	for _, raw := range elements {
		el, err := decodeObject(raw)
		if err != nil {
			continue
		}
		c, ok, err := promoteElement(el)
		if err != nil {
			return nil, err
		}
		if ok {
			p.Elements = append(p.Elements, c)
		}
	}
	return p, nil
}

func promoteElement(el object) (Candidate, bool, error) {
	var head struct {
		ID          string            `json:"id"`
		Short       *string           `json:"short"`
		MustSupport *bool             `json:"mustSupport"`
		Extension   []json.RawMessage `json:"extension"`
	}
	raw, err := el.encode()
	if err != nil {
		return Candidate{}, false, err
	}
	if err := json.Unmarshal(raw, &head); err != nil || head.ID == "" {
		return Candidate{}, false, nil
	}
	if head.MustSupport != nil && *head.MustSupport {
		return Candidate{}, false, nil
	}

	var kept []json.RawMessage
	var hasKey, hasUSCDI bool
	for _, ext := range head.Extension {
		var e struct {
			URL string `json:"url"`
		}
		_ = json.Unmarshal(ext, &e)
		switch {
		case sameExtension(e.URL, fhirmodels.KeyElementURL):
			hasKey = true
		case sameExtension(e.URL, fhirmodels.USCDIRequirementURL):
			hasUSCDI = true
			continue
		}
		kept = append(kept, ext)
	}
	if hasKey || !hasUSCDI {
		return Candidate{}, false, nil
	}

	flag := true
	keyExt, err := marshal(fhir.Extension{URL: fhirmodels.KeyElementURL, ValueBoolean: &flag})
	if err != nil {
		return Candidate{}, false, err
	}
	el = el.set("extension", encodeArray(append([]json.RawMessage{keyExt}, kept...)))

	var short string
	if head.Short != nil {
		short = *head.Short
		if !strings.HasPrefix(short, fhirmodels.KeyElementShortPrefix) {
			short = fhirmodels.KeyElementShortPrefix + short
		}
		value, err := marshal(short)
		if err != nil {
			return Candidate{}, false, err
		}
		el = el.set("short", value)
	}

	out, err := el.encode()
	if err != nil {
		return Candidate{}, false, err
	}
	return Candidate{ID: head.ID, Short: short, Element: out}, true, nil
}

// Merge replaces the differential elements whose ids match a candidate and
// appends the candidates after the remaining elements. Every other member of
// the document keeps its position. The result is indented with two spaces.
func Merge(data []byte, candidates []Candidate) ([]byte, error) {
	doc, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fhir.ErrParse, err)
	}
	raw, ok := doc.get("differential")
	if !ok {
		return nil, ErrNoDifferential
	}
	differential, err := decodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: differential: %v", fhir.ErrParse, err)
	}

	var elements []json.RawMessage
	if raw, ok := differential.get("element"); ok {
		if err := json.Unmarshal(raw, &elements); err != nil {
			return nil, fmt.Errorf("%w: differential.element: %v", fhir.ErrParse, err)
		}
	}

	replaced := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		replaced[c.ID] = true
	}
	merged := make([]json.RawMessage, 0, len(elements)+len(candidates))
	for _, el := range elements {
		var head struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(el, &head) == nil && replaced[head.ID] {
			continue
		}
		merged = append(merged, el)
	}
	for _, c := range candidates {
		merged = append(merged, c.Element)
	}

	differentialRaw, err := differential.set("element", encodeArray(merged)).encode()
	if err != nil {
		return nil, err
	}
	out, err := doc.set("differential", differentialRaw).encode()
	if err != nil {
		return nil, err
	}
	return pretty(out, bytes.HasSuffix(data, []byte("\n")))
}

package generator

import "encoding/json"

type fallbackSection struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type fallbackDoc struct {
	Version  int               `json:"version"`
	Language string            `json:"language"`
	Palette  []string          `json:"palette"`
	Sections []fallbackSection `json:"sections"`
}

// FallbackDocument synthesizes a minimal site document from the spec alone,
// with no external calls. The output is a pure function of the spec, so a
// retried create lands on the identical bytes.
func FallbackDocument(spec SiteSpec) json.RawMessage {
	doc := fallbackDoc{
		Version:  1,
		Language: spec.Language,
		Palette:  spec.ColorPalette,
	}
	if doc.Language == "" {
		doc.Language = "en"
	}
	if len(doc.Palette) == 0 {
		doc.Palette = []string{"#1a1a2e", "#e94560"}
	}

	doc.Sections = append(doc.Sections, fallbackSection{Type: "hero", Text: spec.Name})
	if spec.Description != "" {
		doc.Sections = append(doc.Sections, fallbackSection{Type: "about", Text: spec.Description})
	}
	if spec.ContactInfo != "" {
		doc.Sections = append(doc.Sections, fallbackSection{Type: "contact", Text: spec.ContactInfo})
	}

	out, err := json.Marshal(doc)
	if err != nil {
		// The doc is plain strings and slices; Marshal cannot fail here.
		panic(err)
	}
	return out
}

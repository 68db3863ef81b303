package collector

import (
	"regexp"
	"strings"
)

// ExtractOptions tunes the paragraph fallback strategy. MinItemLen rejects
// fragments too short to be real prompt text; Keywords, when provided, must
// appear (case-insensitive) in a paragraph for it to count as content rather
// than preamble prose.
type ExtractOptions struct {
	MinItemLen int
	Keywords   []string
}

type strategy struct {
	name string
	fn   func(raw string, opts ExtractOptions) []Item
}

// The cascade is ordered from most to least structured; the first strategy
// yielding at least one item wins and the rest are never consulted.
var strategies = []strategy{
	{name: "labeled", fn: parseLabeledExamples},
	{name: "examples", fn: parseBareExamples},
	{name: "numbered", fn: parseNumberedList},
	{name: "paragraphs", fn: parseParagraphs},
}

// Extract recovers discrete items from one batch's raw text and reports which
// strategy produced them. Parsing is pure: the same raw text always yields
// the same items.
func Extract(raw string, opts ExtractOptions) ([]Item, string) {
	if strings.TrimSpace(raw) == "" {
		return nil, ""
	}
	for _, s := range strategies {
		if items := s.fn(raw, opts); len(items) > 0 {
			return items, s.name
		}
	}
	return nil, ""
}

var (
	categoryRe = regexp.MustCompile(`(?i)CATEGORY\s*:[ \t]*([^\n]+)`)
	exampleRe  = regexp.MustCompile(`(?i)EXAMPLE\s+\d+\s*:`)
	numberedRe = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+`)
	blankRe    = regexp.MustCompile(`\n[ \t]*\n`)
	prefixRe   = regexp.MustCompile(`^[ \t]*(?:\d+[.)][ \t]*|[-*][ \t]*|(?i:CATEGORY\s*:[ \t]*[^\n]*\n)[ \t]*|(?i:EXAMPLE\s+\d+\s*:)[ \t]*)+`)
)

type marker struct {
	start int
	end   int
	label string
}

// parseLabeledExamples handles the CATEGORY/EXAMPLE shape: each EXAMPLE
// marker yields one item whose label is the most recent CATEGORY above it.
func parseLabeledExamples(raw string, _ ExtractOptions) []Item {
	categories := categoryRe.FindAllStringSubmatchIndex(raw, -1)
	if len(categories) == 0 {
		return nil
	}
	examples := exampleRe.FindAllStringIndex(raw, -1)
	if len(examples) == 0 {
		return nil
	}

	markers := make([]marker, 0, len(categories)+len(examples))
	for _, m := range categories {
		markers = append(markers, marker{start: m[0], end: m[1], label: strings.TrimSpace(raw[m[2]:m[3]])})
	}
	for _, m := range examples {
		markers = append(markers, marker{start: m[0], end: m[1]})
	}
	sortMarkers(markers)

	var items []Item
	current := ""
	for i, m := range markers {
		if m.label != "" {
			current = m.label
			continue
		}
		bodyEnd := len(raw)
		if i+1 < len(markers) {
			bodyEnd = markers[i+1].start
		}
		body := strings.TrimSpace(raw[m.end:bodyEnd])
		if body == "" {
			continue
		}
		items = append(items, Item{Label: current, Body: body})
	}
	return items
}

// parseBareExamples handles EXAMPLE markers without category labels.
func parseBareExamples(raw string, _ ExtractOptions) []Item {
	examples := exampleRe.FindAllStringIndex(raw, -1)
	if len(examples) == 0 {
		return nil
	}
	var items []Item
	for i, m := range examples {
		bodyEnd := len(raw)
		if i+1 < len(examples) {
			bodyEnd = examples[i+1][0]
		}
		body := strings.TrimSpace(raw[m[1]:bodyEnd])
		if body == "" {
			continue
		}
		items = append(items, Item{Body: body})
	}
	return items
}

// parseNumberedList splits on leading "1." / "1)" line markers.
func parseNumberedList(raw string, _ ExtractOptions) []Item {
	markers := numberedRe.FindAllStringIndex(raw, -1)
	if len(markers) == 0 {
		return nil
	}
	var items []Item
	for i, m := range markers {
		bodyEnd := len(raw)
		if i+1 < len(markers) {
			bodyEnd = markers[i+1][0]
		}
		body := strings.TrimSpace(raw[m[1]:bodyEnd])
		if body == "" {
			continue
		}
		items = append(items, Item{Body: body})
	}
	return items
}

// parseParagraphs is the last resort: split on blank lines, strip residual
// numbering prefixes, and keep paragraphs long enough to be content and, when
// a keyword list is supplied, containing at least one expected keyword.
func parseParagraphs(raw string, opts ExtractOptions) []Item {
	var items []Item
	for _, block := range blankRe.Split(raw, -1) {
		body := strings.TrimSpace(prefixRe.ReplaceAllString(strings.TrimSpace(block), ""))
		if len(body) < opts.MinItemLen {
			continue
		}
		if !containsKeyword(body, opts.Keywords) {
			continue
		}
		items = append(items, Item{Body: body})
	}
	return items
}

func containsKeyword(body string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(body)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// sortMarkers is a small insertion sort; marker counts are tiny and the input
// is already nearly ordered.
func sortMarkers(markers []marker) {
	for i := 1; i < len(markers); i++ {
		for j := i; j > 0 && markers[j].start < markers[j-1].start; j-- {
			markers[j], markers[j-1] = markers[j-1], markers[j]
		}
	}
}

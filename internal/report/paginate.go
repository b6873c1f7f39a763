package report

import "strings"

// DefaultMaxPageBytes is the per-page byte budget. It stays under typical
// platform attribute-size limits for persisted state.
const DefaultMaxPageBytes = 2048

// Paginate splits a markdown document into an ordered sequence of pages,
// each capped at maxBytes of UTF-8, without splitting in the middle of a
// source line. Lines accumulate into a page until adding the next line
// would exceed the budget; a single line that alone exceeds the budget is
// emitted as its own page, never dropped or split. Each page carries one
// leading newline, a presentation convention preserved for the external
// attribute renderer. An empty document yields zero pages.
//
// Concatenating all pages, each stripped of its leading newline,
// reproduces the document's line sequence exactly.
func Paginate(text string, maxBytes int) []string {
	if text == "" {
		return nil
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPageBytes
	}

	var pages []string
	var current strings.Builder

	for _, line := range strings.Split(text, "\n") {
		lineFull := line + "\n"

		if current.Len()+len(lineFull) > maxBytes {
			if current.Len() > 0 {
				pages = append(pages, "\n"+current.String())
				current.Reset()
				current.WriteString(lineFull)
			} else {
				// Oversized line: emit alone rather than split mid-line.
				pages = append(pages, "\n"+lineFull)
			}
			continue
		}

		current.WriteString(lineFull)
	}

	if current.Len() > 0 {
		pages = append(pages, "\n"+current.String())
	}

	return pages
}

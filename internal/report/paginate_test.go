package report

import (
	"fmt"
	"strings"
	"testing"
)

func TestPaginate_EmptyDocument(t *testing.T) {
	if pages := Paginate("", 2048); len(pages) != 0 {
		t.Errorf("empty document yielded %d pages, want 0", len(pages))
	}
}

func TestPaginate_SinglePage(t *testing.T) {
	doc := "line one\nline two"
	pages := Paginate(doc, 2048)

	if len(pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(pages))
	}
	if pages[0] != "\nline one\nline two\n" {
		t.Errorf("page = %q", pages[0])
	}
}

func TestPaginate_LeadingNewlinePerPage(t *testing.T) {
	pages := Paginate("a\nb\nc", 4)
	for i, p := range pages {
		if !strings.HasPrefix(p, "\n") {
			t.Errorf("page %d missing leading newline: %q", i+1, p)
		}
	}
}

func TestPaginate_SplitsOnLineBoundaries(t *testing.T) {
	// Each line is 10 bytes with its newline; a 25-byte budget fits two.
	doc := strings.TrimSuffix(strings.Repeat("123456789\n", 5), "\n")
	pages := Paginate(doc, 25)

	if len(pages) != 3 {
		t.Fatalf("pages = %d, want 3", len(pages))
	}
	for i, p := range pages {
		body := strings.TrimPrefix(p, "\n")
		if len(body) > 25 {
			t.Errorf("page %d is %d bytes, exceeds budget", i+1, len(body))
		}
		for _, line := range strings.Split(strings.TrimSuffix(body, "\n"), "\n") {
			if line != "123456789" {
				t.Errorf("page %d holds a split line: %q", i+1, line)
			}
		}
	}
}

func TestPaginate_OversizedLineEmittedAlone(t *testing.T) {
	long := strings.Repeat("x", 100)
	doc := "short\n" + long + "\nshort again"
	pages := Paginate(doc, 50)

	if len(pages) != 3 {
		t.Fatalf("pages = %d, want 3", len(pages))
	}
	if pages[1] != "\n"+long+"\n" {
		t.Errorf("oversized line not emitted alone: %q", pages[1])
	}
}

func TestPaginate_UTF8ByteBudget(t *testing.T) {
	// Multi-byte runes count by encoded size, not rune count.
	line := strings.Repeat("✅", 10) // 30 bytes
	pages := Paginate(line+"\n"+line, 32)

	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2 (byte budget, not rune budget)", len(pages))
	}
}

func TestPaginate_RoundTrip(t *testing.T) {
	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, fmt.Sprintf("- [entity %d](/config/entities/entity/sensor.e%d) _(3h 12m)_", i, i))
	}
	doc := strings.Join(lines, "\n")

	pages := Paginate(doc, 256)
	if len(pages) < 2 {
		t.Fatalf("expected multiple pages, got %d", len(pages))
	}

	var rebuilt strings.Builder
	for _, p := range pages {
		rebuilt.WriteString(strings.TrimPrefix(p, "\n"))
	}

	// Concatenation reproduces the exact line sequence (the final line
	// gains a trailing newline from line reassembly).
	if rebuilt.String() != doc+"\n" {
		t.Error("concatenated pages do not reproduce the document")
	}

	for i, p := range pages {
		body := strings.TrimPrefix(p, "\n")
		if len(body) > 256 {
			t.Errorf("page %d is %d bytes, exceeds budget", i+1, len(body))
		}
	}
}

func TestPaginate_ZeroBudgetUsesDefault(t *testing.T) {
	doc := "a\nb"
	pages := Paginate(doc, 0)
	if len(pages) != 1 {
		t.Errorf("pages = %d, want 1 with default budget", len(pages))
	}
}

func BenchmarkPaginate(b *testing.B) {
	var lines []string
	for i := 0; i < 500; i++ {
		lines = append(lines, fmt.Sprintf("- sensor.entity_%04d _(2d 4h)_", i))
	}
	doc := strings.Join(lines, "\n")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Paginate(doc, DefaultMaxPageBytes)
	}
}

// Package glossary finds key terms in note text and explains them.
package glossary

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"blocknote/internal/logger"
	"blocknote/internal/view"
	"blocknote/pkg/notedoc"
)

const NotFound = "Definition not found"

// Service looks up the terms of text and returns term -> definition.
type Service interface {
	Lookup(ctx context.Context, text string) (map[string]string, error)
}

var mockGlossary = map[string]string{
	"React":      "A JavaScript library for building user interfaces",
	"Next.js":    "A React framework for production-grade applications",
	"TypeScript": "A typed superset of JavaScript that compiles to plain JavaScript",
	"Zustand":    "A small, fast and scalable bearbones state-management solution",
}

// MockService answers from a fixed glossary. Latency simulates a remote
// call and is cut short when ctx is done.
type MockService struct {
	Latency time.Duration
	Entries map[string]string
}

func NewMockService() *MockService {
	return &MockService{Entries: mockGlossary}
}

func (m *MockService) Lookup(ctx context.Context, text string) (map[string]string, error) {
	if m.Latency > 0 {
		timer := time.NewTimer(m.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	lower := strings.ToLower(text)
	out := map[string]string{}
	for term, def := range m.entries() {
		if strings.Contains(lower, strings.ToLower(term)) {
			out[term] = def
		}
	}
	logger.Debugf("glossary lookup: %d terms in %d chars", len(out), utf8.RuneCountInString(text))
	return out, nil
}

// Define returns the definition of term, or NotFound.
func (m *MockService) Define(term string) string {
	if def, ok := m.entries()[term]; ok {
		return def
	}
	return NotFound
}

func (m *MockService) entries() map[string]string {
	if m.Entries == nil {
		return mockGlossary
	}
	return m.Entries
}

// Terms returns the keys of mapping in sorted order.
func Terms(mapping map[string]string) []string {
	out := make([]string, 0, len(mapping))
	for term := range mapping {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// Match is one occurrence of a term, in rune offsets of the searched text.
type Match struct {
	Term  string
	Start int
	End   int
}

// FindMatches returns the non-overlapping, case-insensitive occurrences of
// terms in text, scanning left to right. At a given position the longest
// term wins.
func FindMatches(text string, terms []string) []Match {
	type needle struct {
		term  string
		runes []rune
	}
	needles := make([]needle, 0, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		needles = append(needles, needle{term: t, runes: foldRunes(t)})
	}
	if len(needles) == 0 {
		return nil
	}
	sort.SliceStable(needles, func(i, j int) bool { return len(needles[i].runes) > len(needles[j].runes) })

	hay := foldRunes(text)
	var out []Match
	for i := 0; i < len(hay); {
		matched := false
		for _, n := range needles {
			if hasRunesAt(hay, i, n.runes) {
				out = append(out, Match{Term: n.term, Start: i, End: i + len(n.runes)})
				i += len(n.runes)
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	return out
}

// foldRunes lowercases rune by rune so offsets stay aligned with the input.
func foldRunes(s string) []rune {
	out := []rune(s)
	for i, r := range out {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func hasRunesAt(hay []rune, at int, needle []rune) bool {
	if at+len(needle) > len(hay) {
		return false
	}
	for i, r := range needle {
		if hay[at+i] != r {
			return false
		}
	}
	return true
}

// BlockMarks returns view marks for the terms found in b.
func BlockMarks(b notedoc.Block, terms []string) []view.Mark {
	matches := FindMatches(b.Text(), terms)
	if len(matches) == 0 {
		return nil
	}
	marks := make([]view.Mark, len(matches))
	for i, m := range matches {
		marks[i] = view.Mark{Start: m.Start, End: m.End, Term: m.Term}
	}
	return marks
}

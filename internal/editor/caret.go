package editor

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

// Caret movement steps over grapheme clusters, so a combining sequence or an
// emoji with modifiers moves as one character. Plain moves collapse the
// selection; Extend moves keep the anchor and stay inside the current block.

func (s *Session) MoveLeft() {
	if s.HasSelection() {
		s.SetCaret(s.current, s.Selection().Start)
		return
	}
	if s.caret == 0 {
		if s.current > 0 {
			s.SetCaret(s.current-1, s.seq.Blocks[s.current-1].Len())
		}
		return
	}
	s.SetCaret(s.current, prevStop(s.currentText(), s.caret))
}

func (s *Session) MoveRight() {
	if s.HasSelection() {
		s.SetCaret(s.current, s.Selection().End)
		return
	}
	if s.caret >= s.seq.Blocks[s.current].Len() {
		if s.current < len(s.seq.Blocks)-1 {
			s.SetCaret(s.current+1, 0)
		}
		return
	}
	s.SetCaret(s.current, nextStop(s.currentText(), s.caret))
}

// MoveUp and MoveDown go to the neighbouring block, keeping the offset where
// the target block is long enough.
func (s *Session) MoveUp() {
	if s.current == 0 {
		s.SetCaret(0, 0)
		return
	}
	s.SetCaret(s.current-1, s.caret)
}

func (s *Session) MoveDown() {
	last := len(s.seq.Blocks) - 1
	if s.current == last {
		s.SetCaret(last, s.seq.Blocks[last].Len())
		return
	}
	s.SetCaret(s.current+1, s.caret)
}

func (s *Session) Home() { s.SetCaret(s.current, 0) }

func (s *Session) End() { s.SetCaret(s.current, s.seq.Blocks[s.current].Len()) }

func (s *Session) MoveWordLeft() {
	if s.caret == 0 {
		s.MoveLeft()
		return
	}
	s.SetCaret(s.current, prevWordStop(s.currentText(), s.caret))
}

func (s *Session) MoveWordRight() {
	if s.caret >= s.seq.Blocks[s.current].Len() {
		s.MoveRight()
		return
	}
	s.SetCaret(s.current, nextWordStop(s.currentText(), s.caret))
}

func (s *Session) ExtendLeft() {
	s.extendTo(prevStop(s.currentText(), s.caret))
}

func (s *Session) ExtendRight() {
	s.extendTo(nextStop(s.currentText(), s.caret))
}

func (s *Session) ExtendHome() { s.extendTo(0) }

func (s *Session) ExtendEnd() { s.extendTo(s.seq.Blocks[s.current].Len()) }

// SelectBlock selects the whole current block.
func (s *Session) SelectBlock() {
	s.anchor = 0
	s.caret = s.seq.Blocks[s.current].Len()
	s.typingBlock = ""
}

// SelectedText returns the plain text of the selection.
func (s *Session) SelectedText() string {
	sel := s.Selection()
	return sliceText(s.seq.Blocks[s.current], sel.Start, sel.End)
}

func (s *Session) extendTo(offset int) {
	s.caret = clamp(offset, 0, s.seq.Blocks[s.current].Len())
	s.typingBlock = ""
}

func (s *Session) currentText() string { return s.seq.Blocks[s.current].Text() }

// graphemeStops lists the rune offsets of every cluster boundary in text,
// starting with 0 and ending with the rune length.
func graphemeStops(text string) []int {
	stops := []int{0}
	pos := 0
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		pos += len(g.Runes())
		stops = append(stops, pos)
	}
	return stops
}

func prevStop(text string, offset int) int {
	stops := graphemeStops(text)
	for i := len(stops) - 1; i >= 0; i-- {
		if stops[i] < offset {
			return stops[i]
		}
	}
	return 0
}

func nextStop(text string, offset int) int {
	stops := graphemeStops(text)
	for _, st := range stops {
		if st > offset {
			return st
		}
	}
	return stops[len(stops)-1]
}

type clusterClass uint8

const (
	classSpace clusterClass = iota
	classPunct
	classWord
)

func classify(cluster string) clusterClass {
	if strings.TrimFunc(cluster, unicode.IsSpace) == "" {
		return classSpace
	}
	if strings.TrimFunc(cluster, unicode.IsPunct) == "" {
		return classPunct
	}
	return classWord
}

type cluster struct {
	start int
	end   int
	class clusterClass
}

func clusters(text string) []cluster {
	var out []cluster
	pos := 0
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		n := len(g.Runes())
		out = append(out, cluster{start: pos, end: pos + n, class: classify(g.Str())})
		pos += n
	}
	return out
}

// prevWordStop skips spaces to the left of offset, then the run of clusters
// sharing the class of the first non-space one.
func prevWordStop(text string, offset int) int {
	cs := clusters(text)
	i := len(cs) - 1
	for i >= 0 && cs[i].start >= offset {
		i--
	}
	for i >= 0 && cs[i].class == classSpace {
		i--
	}
	if i < 0 {
		return 0
	}
	class := cs[i].class
	for i > 0 && cs[i-1].class == class {
		i--
	}
	return cs[i].start
}

func nextWordStop(text string, offset int) int {
	cs := clusters(text)
	i := 0
	for i < len(cs) && cs[i].end <= offset {
		i++
	}
	if i >= len(cs) {
		return offset
	}
	class := cs[i].class
	for i < len(cs) && cs[i].class == class && class != classSpace {
		i++
	}
	for i < len(cs) && cs[i].class == classSpace {
		i++
	}
	if i >= len(cs) {
		return cs[len(cs)-1].end
	}
	return cs[i].start
}

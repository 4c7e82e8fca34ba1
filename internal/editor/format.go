package editor

import (
	"fmt"

	"blocknote/internal/logger"
	"blocknote/pkg/notedoc"
)

var ErrUnknownFormat = notedoc.ErrUnknownFormat

// ApplyFormat toggles f over the characters [start, end) of b.
//
// The toggle is all-or-nothing: when every run covered by the selection
// already carries f, f is removed from all of them; otherwise it is added to
// all of them. Boundary runs are split at start and end, and equal neighbours
// are merged afterwards, so the result keeps the run partition intact.
//
// A collapsed or out-of-bounds selection returns b unchanged. An unknown
// format is rejected with ErrUnknownFormat and b is returned unchanged.
func ApplyFormat(b notedoc.Block, start, end int, f notedoc.Format) (notedoc.Block, error) {
	if !f.Valid() {
		logger.Warnf("apply format on block %s: unknown format %d", b.ID, f)
		return b, fmt.Errorf("%w: %d", ErrUnknownFormat, f)
	}
	if start > end {
		start, end = end, start
	}
	if start == end || start < 0 || end > b.Len() {
		return b, nil
	}

	pieces, covered := splitForRange(b.Runs, start, end)
	remove := true
	for i, p := range pieces {
		if covered[i] && !p.Formats.Has(f) {
			remove = false
			break
		}
	}
	for i := range pieces {
		if !covered[i] {
			continue
		}
		if remove {
			pieces[i].Formats = pieces[i].Formats.Without(f)
		} else {
			pieces[i].Formats = pieces[i].Formats.With(f)
		}
	}

	out := notedoc.CloneBlock(b)
	out.Runs = notedoc.MergeRuns(pieces)
	return out, nil
}

// HasFormat reports whether every character in [start, end) carries f. A
// collapsed range reports the format of the run at start.
func HasFormat(b notedoc.Block, start, end int, f notedoc.Format) bool {
	if start > end {
		start, end = end, start
	}
	if start == end {
		return FormatsAt(b, start).Has(f)
	}
	pieces, covered := splitForRange(b.Runs, start, end)
	for i, p := range pieces {
		if covered[i] && !p.Formats.Has(f) {
			return false
		}
	}
	return true
}

// FormatsAt returns the format set of the run containing offset.
func FormatsAt(b notedoc.Block, offset int) notedoc.FormatSet {
	i, _ := RunIndexAt(b.Runs, offset)
	if i < 0 {
		return 0
	}
	return b.Runs[i].Formats
}

// RunIndexAt returns the index and start offset of the run containing offset.
// Runs are half-open: an offset on a boundary belongs to the following run,
// except at the end of the block where it belongs to the last run.
func RunIndexAt(runs []notedoc.Run, offset int) (int, int) {
	if len(runs) == 0 {
		return -1, 0
	}
	pos := 0
	for i, r := range runs {
		l := r.Len()
		if offset < pos+l {
			return i, pos
		}
		pos += l
	}
	last := len(runs) - 1
	return last, pos - runs[last].Len()
}

// splitForRange cuts runs at start and end. covered[i] reports whether
// pieces[i] lies inside [start, end). Zero-length pieces are never produced.
func splitForRange(runs []notedoc.Run, start, end int) ([]notedoc.Run, []bool) {
	pieces := make([]notedoc.Run, 0, len(runs)+2)
	covered := make([]bool, 0, len(runs)+2)
	add := func(text []rune, formats notedoc.FormatSet, in bool) {
		if len(text) == 0 {
			return
		}
		pieces = append(pieces, notedoc.Run{Text: string(text), Formats: formats})
		covered = append(covered, in)
	}
	pos := 0
	for _, r := range runs {
		text := []rune(r.Text)
		rs, re := pos, pos+len(text)
		pos = re
		lo := min(max(start, rs), re) - rs
		hi := min(max(end, rs), re) - rs
		add(text[:lo], r.Formats, false)
		add(text[lo:hi], r.Formats, true)
		add(text[hi:], r.Formats, false)
	}
	return pieces, covered
}

// splitRuns divides runs at offset into a left and a right partition, each
// normalized.
func splitRuns(runs []notedoc.Run, offset int) ([]notedoc.Run, []notedoc.Run) {
	var left, right []notedoc.Run
	pos := 0
	for _, r := range runs {
		text := []rune(r.Text)
		rs, re := pos, pos+len(text)
		pos = re
		cut := min(max(offset, rs), re) - rs
		if cut > 0 {
			left = append(left, notedoc.Run{Text: string(text[:cut]), Formats: r.Formats})
		}
		if cut < len(text) {
			right = append(right, notedoc.Run{Text: string(text[cut:]), Formats: r.Formats})
		}
	}
	return notedoc.MergeRuns(left), notedoc.MergeRuns(right)
}

// deleteRuns removes [start, end) from runs.
func deleteRuns(runs []notedoc.Run, start, end int) []notedoc.Run {
	left, rest := splitRuns(runs, start)
	_, right := splitRuns(rest, end-start)
	return notedoc.MergeRuns(append(left, right...))
}

// sliceText returns the plain text in [start, end) of b.
func sliceText(b notedoc.Block, start, end int) string {
	runes := []rune(b.Text())
	start = clamp(start, 0, len(runes))
	end = clamp(end, start, len(runes))
	return string(runes[start:end])
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

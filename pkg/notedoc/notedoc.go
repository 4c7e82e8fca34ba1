package notedoc

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"blocknote/internal/logger"
)

const (
	DefaultFontSize = 16
	IndentText      = "    "
)

type BlockKind string

const BlockKindText BlockKind = "text"

type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

func (a Alignment) Valid() bool {
	return a == AlignLeft || a == AlignCenter || a == AlignRight
}

// Format is one inline style. The set of formats is closed.
type Format uint8

const (
	Bold Format = iota
	Italic
	Underline

	formatCount
)

// Formats lists every format in canonical order.
var Formats = []Format{Bold, Italic, Underline}

func (f Format) Valid() bool { return f < formatCount }

// Key returns the short wire key ("b", "i", "u").
func (f Format) Key() string {
	switch f {
	case Bold:
		return "b"
	case Italic:
		return "i"
	case Underline:
		return "u"
	}
	return ""
}

func (f Format) String() string {
	switch f {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Underline:
		return "underline"
	}
	return fmt.Sprintf("format(%d)", uint8(f))
}

// ParseFormat maps a wire key back to a Format.
func ParseFormat(key string) (Format, error) {
	switch key {
	case "b":
		return Bold, nil
	case "i":
		return Italic, nil
	case "u":
		return Underline, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, key)
}

// FormatSet is a bit set of Formats.
type FormatSet uint8

func NewFormatSet(formats ...Format) FormatSet {
	var s FormatSet
	for _, f := range formats {
		s = s.With(f)
	}
	return s
}

func (s FormatSet) Has(f Format) bool { return f.Valid() && s&(1<<f) != 0 }

func (s FormatSet) With(f Format) FormatSet {
	if !f.Valid() {
		return s
	}
	return s | 1<<f
}

func (s FormatSet) Without(f Format) FormatSet {
	if !f.Valid() {
		return s
	}
	return s &^ (1 << f)
}

func (s FormatSet) Empty() bool { return s == 0 }

func (s FormatSet) Slice() []Format {
	out := make([]Format, 0, len(Formats))
	for _, f := range Formats {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (s FormatSet) String() string {
	parts := make([]string, 0, len(Formats))
	for _, f := range s.Slice() {
		parts = append(parts, f.String())
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Run is a maximal stretch of block text sharing one format set.
type Run struct {
	Text    string
	Formats FormatSet
}

func (r Run) Len() int { return utf8.RuneCountInString(r.Text) }

// Block is one paragraph-like unit of a note.
type Block struct {
	ID       string
	Kind     BlockKind
	Align    Alignment
	FontSize int
	Runs     []Run
}

// Sequence is the ordered body of one note.
type Sequence struct {
	Blocks []Block
}

var (
	ErrUnknownFormat      = errors.New("notedoc: unknown format")
	ErrInvalidEnvelope    = errors.New("notedoc: invalid envelope")
	ErrUnsupportedVersion = errors.New("notedoc: unsupported version")
	ErrPasswordRequired   = errors.New("notedoc: password required")
	ErrInvalidPassword    = errors.New("notedoc: invalid password")
)

func NewEmptyBlock(id string) Block {
	return Block{
		ID:       id,
		Kind:     BlockKindText,
		Align:    AlignLeft,
		FontSize: DefaultFontSize,
		Runs:     []Run{{Text: ""}},
	}
}

func NewBlock(id string, runs []Run, align Alignment, fontSize int) Block {
	return Block{
		ID:       id,
		Kind:     BlockKindText,
		Align:    align,
		FontSize: fontSize,
		Runs:     append([]Run(nil), runs...),
	}
}

// Text returns the concatenated plain text of the block.
func (b Block) Text() string {
	if len(b.Runs) == 1 {
		return b.Runs[0].Text
	}
	var sb strings.Builder
	for _, r := range b.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Len returns the block length in characters (runes).
func (b Block) Len() int {
	n := 0
	for _, r := range b.Runs {
		n += r.Len()
	}
	return n
}

func (b Block) IsEmpty() bool { return b.Len() == 0 }

func CloneBlock(b Block) Block {
	out := b
	out.Runs = append([]Run(nil), b.Runs...)
	return out
}

func CloneSequence(seq Sequence) Sequence {
	out := Sequence{Blocks: make([]Block, len(seq.Blocks))}
	for i, b := range seq.Blocks {
		out.Blocks[i] = CloneBlock(b)
	}
	return out
}

// IndexOf returns the position of the block with id, or -1.
func (s Sequence) IndexOf(id string) int {
	for i := range s.Blocks {
		if s.Blocks[i].ID == id {
			return i
		}
	}
	return -1
}

// PlainText joins block texts with newlines.
func (s Sequence) PlainText() string {
	parts := make([]string, len(s.Blocks))
	for i, b := range s.Blocks {
		parts[i] = b.Text()
	}
	return strings.Join(parts, "\n")
}

// MergeRuns drops empty runs and joins neighbours with equal format sets in
// one left-to-right pass. An all-empty input collapses to a single empty run
// carrying the first run's formats.
func MergeRuns(runs []Run) []Run {
	out := make([]Run, 0, len(runs))
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Formats == r.Formats {
			out[n-1].Text += r.Text
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		var formats FormatSet
		if len(runs) > 0 {
			formats = runs[0].Formats
		}
		return []Run{{Text: "", Formats: formats}}
	}
	return out
}

// NormalizeBlock repairs a block loaded from storage or rebuilt from a view.
func NormalizeBlock(b Block) Block {
	b.Kind = BlockKindText
	if !b.Align.Valid() {
		b.Align = AlignLeft
	}
	if b.FontSize <= 0 {
		b.FontSize = DefaultFontSize
	}
	b.Runs = MergeRuns(b.Runs)
	return b
}

// Normalize repairs every block and guarantees at least one block exists.
// With a non-nil newID, empty and repeated block ids are replaced.
func Normalize(seq Sequence, newID func() string) Sequence {
	out := Sequence{Blocks: make([]Block, 0, len(seq.Blocks))}
	for _, b := range seq.Blocks {
		out.Blocks = append(out.Blocks, NormalizeBlock(b))
	}
	if newID == nil {
		return out
	}
	repairIDs(out.Blocks, newID)
	if len(out.Blocks) == 0 {
		out.Blocks = append(out.Blocks, NewEmptyBlock(newID()))
	}
	return out
}

// repairIDs gives a fresh id to every block whose id is empty or was already
// used by an earlier block. The first holder of an id keeps it.
func repairIDs(blocks []Block, newID func() string) {
	seen := make(map[string]struct{}, len(blocks))
	for i := range blocks {
		id := blocks[i].ID
		if _, dup := seen[id]; id == "" || dup {
			blocks[i].ID = newID()
			logger.Warnf("block[%d]: replaced id %q with %s", i, id, blocks[i].ID)
		}
		seen[blocks[i].ID] = struct{}{}
	}
}

// Validate reports the first partition or identity violation in seq.
func Validate(seq Sequence) error {
	seen := map[string]struct{}{}
	for i, b := range seq.Blocks {
		if b.ID == "" {
			return fmt.Errorf("notedoc: block[%d] has empty id", i)
		}
		if _, ok := seen[b.ID]; ok {
			return fmt.Errorf("notedoc: duplicate block id %q", b.ID)
		}
		seen[b.ID] = struct{}{}
		if b.Kind != BlockKindText {
			return fmt.Errorf("notedoc: block %q has unsupported kind %q", b.ID, b.Kind)
		}
		if err := ValidateRuns(b.Runs); err != nil {
			return fmt.Errorf("notedoc: block %q: %w", b.ID, err)
		}
	}
	return nil
}

func ValidateRuns(runs []Run) error {
	if len(runs) == 0 {
		return errors.New("runs are empty")
	}
	if len(runs) == 1 {
		if !utf8.ValidString(runs[0].Text) {
			return errors.New("run text is not valid UTF-8")
		}
		return nil
	}
	for i, r := range runs {
		if r.Text == "" {
			return fmt.Errorf("run %d is empty", i)
		}
		if !utf8.ValidString(r.Text) {
			return fmt.Errorf("run %d is not valid UTF-8", i)
		}
		if i > 0 && runs[i-1].Formats == r.Formats {
			return fmt.Errorf("runs %d and %d share formats %s", i-1, i, r.Formats)
		}
	}
	return nil
}

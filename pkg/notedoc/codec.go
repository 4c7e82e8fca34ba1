package notedoc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"blocknote/internal/logger"
)

// Wire form: [{"id","kind","alignment","fontSize","runs":[[text,[key...]],...]}]

type wireBlock struct {
	ID        string    `json:"id"`
	Kind      BlockKind `json:"kind"`
	Alignment Alignment `json:"alignment"`
	FontSize  int       `json:"fontSize"`
	Runs      []wireRun `json:"runs"`
}

type wireRun struct {
	Text    string
	Formats FormatSet
}

func (w wireRun) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(Formats))
	for _, f := range w.Formats.Slice() {
		keys = append(keys, f.Key())
	}
	return json.Marshal([]any{w.Text, keys})
}

func (w *wireRun) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) == 0 || len(parts) > 2 {
		return fmt.Errorf("notedoc: run must be [text, formats], got %d elements", len(parts))
	}
	if err := json.Unmarshal(parts[0], &w.Text); err != nil {
		return fmt.Errorf("notedoc: run text: %w", err)
	}
	w.Formats = 0
	if len(parts) == 1 {
		return nil
	}
	// Older notes wrote [undefined] for "no formats", which arrives as null.
	var keys []*string
	if err := json.Unmarshal(parts[1], &keys); err != nil {
		return fmt.Errorf("notedoc: run formats: %w", err)
	}
	for _, k := range keys {
		if k == nil {
			continue
		}
		f, err := ParseFormat(*k)
		if err != nil {
			logger.Warnf("dropping format key on load: %v", err)
			continue
		}
		w.Formats = w.Formats.With(f)
	}
	return nil
}

// Marshal encodes seq in the wire form.
func Marshal(seq Sequence) ([]byte, error) {
	out := make([]wireBlock, 0, len(seq.Blocks))
	for _, b := range seq.Blocks {
		wb := wireBlock{
			ID:        b.ID,
			Kind:      b.Kind,
			Alignment: b.Align,
			FontSize:  b.FontSize,
			Runs:      make([]wireRun, 0, len(b.Runs)),
		}
		for _, r := range b.Runs {
			wb.Runs = append(wb.Runs, wireRun{Text: r.Text, Formats: r.Formats})
		}
		out = append(out, wb)
	}
	return json.Marshal(out)
}

// Unmarshal decodes the wire form and repairs malformed blocks: unknown
// format keys are dropped, unknown kinds become text, and empty or repeated
// ids are replaced. Only undecodable JSON is an error.
func Unmarshal(data []byte) (Sequence, error) {
	var in []wireBlock
	if err := json.Unmarshal(data, &in); err != nil {
		return Sequence{}, fmt.Errorf("notedoc: decode sequence: %w", err)
	}
	seq := Sequence{Blocks: make([]Block, 0, len(in))}
	for _, wb := range in {
		if wb.Kind != "" && wb.Kind != BlockKindText {
			logger.Warnf("block %q: treating kind %q as text", wb.ID, wb.Kind)
		}
		b := Block{ID: wb.ID, Kind: wb.Kind, Align: wb.Alignment, FontSize: wb.FontSize}
		for _, r := range wb.Runs {
			b.Runs = append(b.Runs, Run{Text: r.Text, Formats: r.Formats})
		}
		seq.Blocks = append(seq.Blocks, NormalizeBlock(b))
	}
	repairIDs(seq.Blocks, uuid.NewString)
	if err := Validate(seq); err != nil {
		return Sequence{}, err
	}
	return seq, nil
}

// MarshalJSON lets a Sequence embed into other JSON documents (note records)
// in the wire form.
func (s Sequence) MarshalJSON() ([]byte, error) {
	return Marshal(s)
}

func (s *Sequence) UnmarshalJSON(data []byte) error {
	if s == nil {
		return errors.New("notedoc: unmarshal into nil sequence")
	}
	seq, err := Unmarshal(data)
	if err != nil {
		return err
	}
	*s = seq
	return nil
}

package notedoc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func sampleSequence() Sequence {
	return Sequence{Blocks: []Block{
		NewBlock("1", []Run{
			{Text: "Hello, wo", Formats: NewFormatSet(Bold)},
			{Text: "rld! "},
			{Text: "This is a test", Formats: NewFormatSet(Italic, Underline)},
		}, AlignCenter, 18),
		NewEmptyBlock("2"),
	}}
}

func TestFormatSetOperations(t *testing.T) {
	s := NewFormatSet(Bold)
	if !s.Has(Bold) || s.Has(Italic) {
		t.Fatalf("unexpected set: %s", s)
	}
	s = s.With(Underline).Without(Bold)
	if s.Has(Bold) || !s.Has(Underline) {
		t.Fatalf("unexpected set after with/without: %s", s)
	}
	if got := s.String(); got != "{underline}" {
		t.Fatalf("unexpected string: %q", got)
	}
	if s.With(Format(9)) != s {
		t.Fatalf("invalid format must not change the set")
	}
}

func TestParseFormatRejectsUnknownKey(t *testing.T) {
	if _, err := ParseFormat("x"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	for _, f := range Formats {
		got, err := ParseFormat(f.Key())
		if err != nil || got != f {
			t.Fatalf("round trip of %s failed: %v %v", f, got, err)
		}
	}
}

func TestBlockTextAndLen(t *testing.T) {
	b := NewBlock("x", []Run{{Text: "héllo "}, {Text: "wörld", Formats: NewFormatSet(Bold)}}, AlignLeft, 16)
	if got := b.Text(); got != "héllo wörld" {
		t.Fatalf("unexpected text: %q", got)
	}
	if got := b.Len(); got != 11 {
		t.Fatalf("expected 11 characters, got %d", got)
	}
	if !NewEmptyBlock("e").IsEmpty() {
		t.Fatalf("expected empty block")
	}
}

func TestMergeRuns(t *testing.T) {
	got := MergeRuns([]Run{
		{Text: "a", Formats: NewFormatSet(Bold)},
		{Text: ""},
		{Text: "b", Formats: NewFormatSet(Bold)},
		{Text: "c"},
		{Text: "d"},
	})
	want := []Run{{Text: "ab", Formats: NewFormatSet(Bold)}, {Text: "cd"}}
	if len(got) != len(want) {
		t.Fatalf("unexpected runs: %#v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("run %d: got %#v want %#v", i, got[i], want[i])
		}
	}

	empty := MergeRuns([]Run{{Text: "", Formats: NewFormatSet(Italic)}, {Text: ""}})
	if len(empty) != 1 || empty[0].Text != "" || !empty[0].Formats.Has(Italic) {
		t.Fatalf("unexpected empty collapse: %#v", empty)
	}
	if got := MergeRuns(nil); len(got) != 1 || got[0].Text != "" {
		t.Fatalf("expected synthesized empty run, got %#v", got)
	}
}

func TestNormalizeRepairsBlocks(t *testing.T) {
	seq := Normalize(Sequence{Blocks: []Block{{ID: "a", Align: "justify"}}}, nil)
	b := seq.Blocks[0]
	if b.Kind != BlockKindText || b.Align != AlignLeft || b.FontSize != DefaultFontSize {
		t.Fatalf("unexpected repaired block: %#v", b)
	}
	if len(b.Runs) != 1 || b.Runs[0].Text != "" {
		t.Fatalf("expected single empty run, got %#v", b.Runs)
	}

	n := 0
	fresh := Normalize(Sequence{}, func() string { n++; return "new" })
	if len(fresh.Blocks) != 1 || fresh.Blocks[0].ID != "new" || n != 1 {
		t.Fatalf("expected one synthesized block, got %#v", fresh.Blocks)
	}
}

func TestValidateRejectsBadSequences(t *testing.T) {
	cases := []struct {
		name string
		seq  Sequence
	}{
		{
			name: "duplicate id",
			seq:  Sequence{Blocks: []Block{NewEmptyBlock("a"), NewEmptyBlock("a")}},
		},
		{
			name: "empty runs",
			seq:  Sequence{Blocks: []Block{{ID: "a", Kind: BlockKindText}}},
		},
		{
			name: "equal neighbours",
			seq:  Sequence{Blocks: []Block{NewBlock("a", []Run{{Text: "x"}, {Text: "y"}}, AlignLeft, 16)}},
		},
		{
			name: "empty inner run",
			seq:  Sequence{Blocks: []Block{NewBlock("a", []Run{{Text: "x"}, {Text: "", Formats: NewFormatSet(Bold)}}, AlignLeft, 16)}},
		},
	}
	for _, tc := range cases {
		if err := Validate(tc.seq); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
	if err := Validate(sampleSequence()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	seq := sampleSequence()
	first, err := Marshal(seq)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := Unmarshal(first)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Marshal(loaded)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Fatalf("round trip mismatch:\n%s\n%s", first, second)
	}
	if loaded.Blocks[0].Align != AlignCenter || loaded.Blocks[0].FontSize != 18 {
		t.Fatalf("block attributes lost: %#v", loaded.Blocks[0])
	}
}

func TestMarshalWireShape(t *testing.T) {
	seq := Sequence{Blocks: []Block{NewBlock("id1", []Run{{Text: "ab", Formats: NewFormatSet(Underline, Bold)}}, AlignRight, 12)}}
	got, err := Marshal(seq)
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"id":"id1","kind":"text","alignment":"right","fontSize":12,"runs":[["ab",["b","u"]]]}]`
	if string(got) != want {
		t.Fatalf("unexpected wire form:\n got %s\nwant %s", got, want)
	}
}

func TestUnmarshalRepairsLegacyInput(t *testing.T) {
	in := `[{"id":"1","type":"text","alignment":"left","fontSize":16,"runs":[]},
	        {"id":"2","kind":"text","runs":[["ab",["i","b"]],["cd",["b","i"]],["",[null]]]}]`
	seq, err := Unmarshal([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(seq.Blocks[0].Runs) != 1 || seq.Blocks[0].Runs[0].Text != "" {
		t.Fatalf("expected synthesized empty run, got %#v", seq.Blocks[0].Runs)
	}
	runs := seq.Blocks[1].Runs
	if len(runs) != 1 || runs[0].Text != "abcd" || runs[0].Formats != NewFormatSet(Bold, Italic) {
		t.Fatalf("expected merged run, got %#v", runs)
	}
}

func TestUnmarshalDropsUnknownFormat(t *testing.T) {
	seq, err := Unmarshal([]byte(`[{"id":"1","kind":"text","runs":[["x",["s","b"]],["y",["s"]]]}]`))
	if err != nil {
		t.Fatalf("unknown format key should degrade, got %v", err)
	}
	runs := seq.Blocks[0].Runs
	if len(runs) != 2 || runs[0].Formats != NewFormatSet(Bold) || runs[1].Formats != 0 {
		t.Fatalf("unexpected runs: %#v", runs)
	}
	if _, err := ParseFormat("s"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("ParseFormat must stay strict, got %v", err)
	}
}

func TestUnmarshalRepairsBlockIDs(t *testing.T) {
	in := `[{"id":"x","kind":"text","runs":[["a",[]]]},
	        {"id":"x","kind":"text","runs":[["b",[]]]},
	        {"id":"","kind":"list","runs":[["c",[]]]}]`
	seq, err := Unmarshal([]byte(in))
	if err != nil {
		t.Fatalf("repairable ids should not fail: %v", err)
	}
	if err := Validate(seq); err != nil {
		t.Fatalf("repaired sequence invalid: %v", err)
	}
	if seq.Blocks[0].ID != "x" || seq.Blocks[1].ID == "x" || seq.Blocks[2].ID == "" {
		t.Fatalf("unexpected ids: %q %q %q", seq.Blocks[0].ID, seq.Blocks[1].ID, seq.Blocks[2].ID)
	}
	if seq.PlainText() == "" || seq.Blocks[2].Kind != BlockKindText {
		t.Fatalf("unexpected repaired blocks: %#v", seq.Blocks)
	}
}

func TestNormalizeReplacesRepeatedIDs(t *testing.T) {
	n := 0
	newID := func() string { n++; return fmt.Sprintf("gen%d", n) }
	seq := Normalize(Sequence{Blocks: []Block{NewEmptyBlock("a"), NewEmptyBlock("a"), NewEmptyBlock("")}}, newID)
	if seq.Blocks[0].ID != "a" || seq.Blocks[1].ID != "gen1" || seq.Blocks[2].ID != "gen2" {
		t.Fatalf("unexpected ids: %q %q %q", seq.Blocks[0].ID, seq.Blocks[1].ID, seq.Blocks[2].ID)
	}
	kept := Normalize(Sequence{Blocks: []Block{NewEmptyBlock("a"), NewEmptyBlock("a")}}, nil)
	if kept.Blocks[1].ID != "a" {
		t.Fatalf("nil generator must leave ids alone, got %q", kept.Blocks[1].ID)
	}
}

func TestSaveLoadPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.json")
	if err := Save(path, sampleSequence(), SaveOptions{}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	info, err := InspectEnvelope(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Wrapped {
		t.Fatalf("plain save must not be wrapped")
	}
	loaded, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.PlainText() != sampleSequence().PlainText() {
		t.Fatalf("unexpected text: %q", loaded.PlainText())
	}
}

func TestSaveLoadEncryptedCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.bnote")
	opts := SaveOptions{Compression: true, Encryption: EncryptionOptions{Enabled: true, Password: "hunter2"}}
	if err := Save(path, sampleSequence(), opts); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	info, err := InspectEnvelope(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info.Wrapped || !info.Compressed || !info.Encrypted {
		t.Fatalf("unexpected envelope info: %#v", info)
	}

	if _, err := Load(path, LoadOptions{}); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
	if _, err := Load(path, LoadOptions{Password: "wrong"}); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	loaded, err := Load(path, LoadOptions{Password: "hunter2"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded.Blocks) != 2 || loaded.Blocks[0].Runs[2].Text != "This is a test" {
		t.Fatalf("unexpected blocks: %#v", loaded.Blocks)
	}
}

func TestSaveRequiresPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.bnote")
	err := Save(path, sampleSequence(), SaveOptions{Encryption: EncryptionOptions{Enabled: true, Password: "  "}})
	if !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
}

func TestLoadRejectsTruncatedEnvelope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bnote")
	if err := os.WriteFile(path, []byte(envelopeMagic+"\x01\x00"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, LoadOptions{}); !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}
}

func TestEnvelopeHeaderLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packed.bnote")
	if err := Save(path, sampleSequence(), SaveOptions{Compression: true}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	m := len(envelopeMagic)
	headerLen := m + 2 + 2 + saltSize + nonceSize + 8
	if len(raw) <= headerLen || string(raw[:m]) != envelopeMagic {
		t.Fatalf("unexpected envelope prefix: %q", raw[:min(len(raw), m)])
	}
	if v := binary.LittleEndian.Uint16(raw[m:]); v != envelopeVersionV1 {
		t.Fatalf("unexpected version %d", v)
	}
	if f := binary.LittleEndian.Uint16(raw[m+2:]); f != envelopeFlagComp {
		t.Fatalf("unexpected flags %b", f)
	}
	if n := binary.LittleEndian.Uint64(raw[headerLen-8:]); n != uint64(len(raw)-headerLen) {
		t.Fatalf("size field %d, payload %d", n, len(raw)-headerLen)
	}

	if err := os.WriteFile(path, append(raw, 0), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, LoadOptions{}); !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope for trailing bytes, got %v", err)
	}
	raw[m] = 9
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := InspectEnvelope(path); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

package glossary

import (
	"context"
	"errors"
	"testing"
	"time"

	"blocknote/pkg/notedoc"
)

func TestMockLookupIsCaseInsensitive(t *testing.T) {
	svc := NewMockService()
	got, err := svc.Lookup(context.Background(), "notes on REACT and next.js routing")
	if err != nil {
		t.Fatal(err)
	}
	terms := Terms(got)
	if len(terms) != 2 || terms[0] != "Next.js" || terms[1] != "React" {
		t.Fatalf("unexpected terms: %v", terms)
	}
	if got["React"] != mockGlossary["React"] {
		t.Fatalf("unexpected definition: %q", got["React"])
	}
}

func TestMockLookupHonoursContext(t *testing.T) {
	svc := &MockService{Latency: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Lookup(ctx, "React"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDefine(t *testing.T) {
	svc := NewMockService()
	if got := svc.Define("Zustand"); got != mockGlossary["Zustand"] {
		t.Fatalf("unexpected definition: %q", got)
	}
	if got := svc.Define("Vue"); got != NotFound {
		t.Fatalf("expected %q, got %q", NotFound, got)
	}
}

func TestFindMatches(t *testing.T) {
	text := "Ünïcode: react, React Native and TypeScript."
	got := FindMatches(text, []string{"React", "React Native", "TypeScript", ""})
	want := []Match{
		{Term: "React", Start: 9, End: 14},
		{Term: "React Native", Start: 16, End: 28},
		{Term: "TypeScript", Start: 33, End: 43},
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected matches: %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("match %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestFindMatchesDoesNotOverlap(t *testing.T) {
	got := FindMatches("aaaa", []string{"aa", "a"})
	if len(got) != 2 || got[0].Start != 0 || got[1].Start != 2 {
		t.Fatalf("unexpected matches: %+v", got)
	}
	if FindMatches("anything", nil) != nil {
		t.Fatal("expected no matches without terms")
	}
}

func TestBlockMarks(t *testing.T) {
	b := notedoc.NewBlock("x", []notedoc.Run{
		{Text: "Using rea", Formats: notedoc.NewFormatSet(notedoc.Bold)},
		{Text: "ct today"},
	}, notedoc.AlignLeft, 16)
	marks := BlockMarks(b, []string{"React"})
	if len(marks) != 1 || marks[0].Start != 6 || marks[0].End != 11 || marks[0].Term != "React" {
		t.Fatalf("unexpected marks: %+v", marks)
	}
	if BlockMarks(b, []string{"Zustand"}) != nil {
		t.Fatal("expected no marks")
	}
}

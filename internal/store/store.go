// Package store persists notes. Two backends share one interface: SQLite for
// the default single-file database and bbolt as an embedded key/value
// alternative. A Store is opened once per process and passed to whoever
// needs it; there is no package-level instance.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"blocknote/pkg/notedoc"
)

var (
	ErrNoteNotFound = errors.New("store: note not found")
	// ErrCorruptNote marks a stored note whose record cannot be decoded.
	// Listing skips such notes; Get reports them.
	ErrCorruptNote = errors.New("store: corrupt note")
)

const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"

	DefaultTitle = "Untitled"
)

type Note struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Body      notedoc.Sequence `json:"body"`
	Pinned    bool             `json:"pinned"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Patch lists the fields to change; nil fields are kept.
type Patch struct {
	Title *string
	Body  *notedoc.Sequence
}

type Store interface {
	Create(ctx context.Context, title string, body notedoc.Sequence) (*Note, error)
	Get(ctx context.Context, id string) (*Note, error)
	Update(ctx context.Context, id string, patch Patch) (*Note, error)
	Delete(ctx context.Context, id string) error
	// List returns pinned notes first, then the most recently updated.
	List(ctx context.Context) ([]*Note, error)
	TogglePin(ctx context.Context, id string) (*Note, error)
	// Search matches query case-insensitively against titles and note text.
	Search(ctx context.Context, query string) ([]*Note, error)
	Close() error
}

// Open opens the store for driver at path.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(path)
	case DriverBolt:
		return OpenBolt(path)
	}
	return nil, fmt.Errorf("store: unknown driver %q", driver)
}

// Summary returns the first limit characters of the note text on one line.
func Summary(n *Note, limit int) string {
	if n == nil {
		return ""
	}
	text := strings.Join(strings.Fields(n.Body.PlainText()), " ")
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit]) + "…"
}

var now = func() time.Time { return time.Now().UTC() }

func newNoteID() string { return uuid.NewString() }

func newNote(title string, body notedoc.Sequence) *Note {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	ts := now()
	return &Note{
		ID:        newNoteID(),
		Title:     title,
		Body:      notedoc.Normalize(notedoc.CloneSequence(body), newBlockID),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func newBlockID() string { return uuid.NewString() }

func applyPatch(n *Note, patch Patch) {
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Body != nil {
		n.Body = notedoc.Normalize(notedoc.CloneSequence(*patch.Body), newBlockID)
	}
	n.UpdatedAt = now()
}

func cloneNote(n *Note) *Note {
	if n == nil {
		return nil
	}
	copy := *n
	copy.Body = notedoc.CloneSequence(n.Body)
	return &copy
}

func sortNotes(notes []*Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].Pinned != notes[j].Pinned {
			return notes[i].Pinned
		}
		if notes[i].UpdatedAt.Equal(notes[j].UpdatedAt) {
			return notes[i].CreatedAt.After(notes[j].CreatedAt)
		}
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
}

func matchesQuery(n *Note, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(n.Title), q) ||
		strings.Contains(strings.ToLower(n.Body.PlainText()), q)
}

func filterNotes(notes []*Note, query string) []*Note {
	out := notes[:0]
	for _, n := range notes {
		if matchesQuery(n, query) {
			out = append(out, n)
		}
	}
	return out
}

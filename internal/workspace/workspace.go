// Package workspace ties one open note to its editing session, the note
// store and the glossary. It is the headless half of the GUI: the adapter
// feeds it user intents and a clock, and reads back what to draw.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"blocknote/internal/editor"
	"blocknote/internal/glossary"
	"blocknote/internal/logger"
	"blocknote/internal/store"
	"blocknote/internal/view"
	"blocknote/pkg/notedoc"
)

const DefaultSaveDelay = 800 * time.Millisecond

var ErrNoNote = errors.New("workspace: no open note")

type Options struct {
	Store    store.Store
	Glossary glossary.Service
	Editor   editor.Options
	// SaveDelay is how long edits settle before they are written back.
	SaveDelay time.Duration
	Clock     func() time.Time
}

type lookupResult struct {
	seq     uint64
	noteID  string
	entries map[string]string
	err     error
}

type Workspace struct {
	opts Options

	notes []*store.Note
	query string

	note    *store.Note
	session *editor.Session
	dirty   bool
	editAt  time.Time

	entries     map[string]string
	terms       []string
	lookupSeq   uint64
	lookupStop  context.CancelFunc
	lookupDone  chan lookupResult
	lookupDirty bool
}

func New(opts Options) (*Workspace, error) {
	if opts.Store == nil {
		return nil, errors.New("workspace: store is required")
	}
	if opts.SaveDelay < 0 {
		opts.SaveDelay = 0
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Workspace{
		opts:       opts,
		entries:    map[string]string{},
		lookupDone: make(chan lookupResult, 4),
	}, nil
}

// Start loads the note list and opens id, or the most recent note when id is
// empty. A new note is created when the store is empty.
func (w *Workspace) Start(ctx context.Context, id string) error {
	if err := w.Refresh(ctx); err != nil {
		return err
	}
	if id != "" {
		return w.Open(ctx, id)
	}
	if len(w.notes) > 0 {
		return w.Open(ctx, w.notes[0].ID)
	}
	return w.NewNote(ctx)
}

func (w *Workspace) Notes() []*store.Note { return w.notes }
func (w *Workspace) Query() string { return w.query }
func (w *Workspace) Note() *store.Note { return w.note }
func (w *Workspace) Session() *editor.Session { return w.session }
func (w *Workspace) Dirty() bool { return w.dirty }
func (w *Workspace) Terms() []string { return w.terms }
func (w *Workspace) Definitions() map[string]string { return w.entries }

// Refresh reloads the note list, filtered by the current search query.
func (w *Workspace) Refresh(ctx context.Context) error {
	var (
		notes []*store.Note
		err   error
	)
	if strings.TrimSpace(w.query) == "" {
		notes, err = w.opts.Store.List(ctx)
	} else {
		notes, err = w.opts.Store.Search(ctx, w.query)
	}
	if err != nil {
		return fmt.Errorf("refresh notes: %w", err)
	}
	w.notes = notes
	return nil
}

func (w *Workspace) SetQuery(ctx context.Context, query string) error {
	w.query = query
	return w.Refresh(ctx)
}

// Open flushes pending edits and switches to note id.
func (w *Workspace) Open(ctx context.Context, id string) error {
	if err := w.Flush(ctx); err != nil {
		return err
	}
	n, err := w.opts.Store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("open note %s: %w", id, err)
	}
	w.attach(n)
	logger.Infof("opened note %s (%d blocks)", n.ID, len(n.Body.Blocks))
	return nil
}

// NewNote creates and opens an empty note whose first block uses the
// configured font size and alignment.
func (w *Workspace) NewNote(ctx context.Context) error {
	first := notedoc.NewEmptyBlock(editor.NewBlockID())
	if w.opts.Editor.FontSize > 0 {
		first.FontSize = w.opts.Editor.FontSize
	}
	if w.opts.Editor.Align.Valid() {
		first.Align = w.opts.Editor.Align
	}
	return w.create(ctx, store.DefaultTitle, notedoc.Sequence{Blocks: []notedoc.Block{first}})
}

func (w *Workspace) create(ctx context.Context, title string, body notedoc.Sequence) error {
	if err := w.Flush(ctx); err != nil {
		return err
	}
	n, err := w.opts.Store.Create(ctx, title, body)
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	w.attach(n)
	return w.Refresh(ctx)
}

// DeleteCurrent removes the open note and opens the next one in the list.
func (w *Workspace) DeleteCurrent(ctx context.Context) error {
	if w.note == nil {
		return ErrNoNote
	}
	id := w.note.ID
	if err := w.opts.Store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	w.dirty = false
	w.detach()
	w.query = ""
	return w.Start(ctx, "")
}

func (w *Workspace) TogglePin(ctx context.Context) error {
	if w.note == nil {
		return ErrNoNote
	}
	n, err := w.opts.Store.TogglePin(ctx, w.note.ID)
	if err != nil {
		return fmt.Errorf("pin note: %w", err)
	}
	w.note.Pinned = n.Pinned
	return w.Refresh(ctx)
}

func (w *Workspace) Rename(ctx context.Context, title string) error {
	if w.note == nil {
		return ErrNoNote
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = store.DefaultTitle
	}
	n, err := w.opts.Store.Update(ctx, w.note.ID, store.Patch{Title: &title})
	if err != nil {
		return fmt.Errorf("rename note: %w", err)
	}
	w.note.Title = n.Title
	w.note.UpdatedAt = n.UpdatedAt
	return w.Refresh(ctx)
}

// Flush writes pending edits to the store.
func (w *Workspace) Flush(ctx context.Context) error {
	if !w.dirty || w.note == nil || w.session == nil {
		return nil
	}
	body := w.session.Sequence()
	n, err := w.opts.Store.Update(ctx, w.note.ID, store.Patch{Body: &body})
	if err != nil {
		return fmt.Errorf("save note %s: %w", w.note.ID, err)
	}
	w.dirty = false
	w.note.Body = n.Body
	w.note.UpdatedAt = n.UpdatedAt
	logger.Debugf("saved note %s", n.ID)
	return w.Refresh(ctx)
}

// Tick runs the time-driven work: it applies finished glossary lookups,
// starts a new lookup after edits and saves once edits have settled.
// The adapter calls it once per frame.
func (w *Workspace) Tick(ctx context.Context) error {
	w.drainLookups()
	if w.lookupDirty {
		w.lookupDirty = false
		w.startLookup()
	}
	if w.dirty && w.opts.Clock().Sub(w.editAt) >= w.opts.SaveDelay {
		return w.Flush(ctx)
	}
	return nil
}

// Marks returns the glossary highlights for b from the latest lookup.
func (w *Workspace) Marks(b notedoc.Block) []view.Mark {
	return glossary.BlockMarks(b, w.terms)
}

// Definition explains term, or returns glossary.NotFound.
func (w *Workspace) Definition(term string) string {
	if def, ok := w.entries[term]; ok {
		return def
	}
	return glossary.NotFound
}

// Export writes the open note to path in the portable file format.
func (w *Workspace) Export(path string, opts notedoc.SaveOptions) error {
	if w.session == nil {
		return ErrNoNote
	}
	if err := notedoc.Save(path, w.session.Sequence(), opts); err != nil {
		return fmt.Errorf("export %s: %w", filepath.Base(path), err)
	}
	logger.Infof("exported note %s to %s", w.note.ID, path)
	return nil
}

// Import reads a note file and opens it as a new note named after the file.
func (w *Workspace) Import(ctx context.Context, path string, opts notedoc.LoadOptions) error {
	seq, err := notedoc.Load(path, opts)
	if err != nil {
		return fmt.Errorf("import %s: %w", filepath.Base(path), err)
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return w.create(ctx, title, seq)
}

// Close cancels pending lookups and saves outstanding edits.
func (w *Workspace) Close(ctx context.Context) error {
	if w.lookupStop != nil {
		w.lookupStop()
		w.lookupStop = nil
	}
	return w.Flush(ctx)
}

func (w *Workspace) attach(n *store.Note) {
	w.detach()
	w.note = n
	w.session = editor.NewSession(n.Body, w.opts.Editor)
	w.session.OnChange = w.changed
	w.dirty = false
	w.lookupDirty = true
}

func (w *Workspace) detach() {
	if w.lookupStop != nil {
		w.lookupStop()
		w.lookupStop = nil
	}
	w.note = nil
	w.session = nil
	w.entries = map[string]string{}
	w.terms = nil
}

func (w *Workspace) changed(notedoc.Sequence) {
	w.dirty = true
	w.editAt = w.opts.Clock()
	w.lookupDirty = true
}

func (w *Workspace) startLookup() {
	if w.opts.Glossary == nil || w.session == nil {
		return
	}
	if w.lookupStop != nil {
		w.lookupStop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.lookupStop = cancel
	w.lookupSeq++
	seq, noteID := w.lookupSeq, w.note.ID
	text := w.session.Sequence().PlainText()
	svc := w.opts.Glossary
	out := w.lookupDone
	go func() {
		entries, err := svc.Lookup(ctx, text)
		select {
		case out <- lookupResult{seq: seq, noteID: noteID, entries: entries, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (w *Workspace) drainLookups() {
	for {
		select {
		case res := <-w.lookupDone:
			w.applyLookup(res)
		default:
			return
		}
	}
}

func (w *Workspace) applyLookup(res lookupResult) {
	if w.note == nil || res.noteID != w.note.ID || res.seq != w.lookupSeq {
		return
	}
	if res.err != nil {
		if !errors.Is(res.err, context.Canceled) {
			logger.Warnf("glossary lookup: %v", res.err)
		}
		return
	}
	w.entries = res.entries
	w.terms = glossary.Terms(res.entries)
}

// WaitLookup blocks until the newest lookup result arrives or ctx is done.
// Tests and the command line use it; the GUI only polls through Tick.
func (w *Workspace) WaitLookup(ctx context.Context) error {
	for {
		select {
		case res := <-w.lookupDone:
			w.applyLookup(res)
			if res.seq == w.lookupSeq {
				return res.err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

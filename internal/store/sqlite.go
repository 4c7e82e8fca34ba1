package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"blocknote/internal/logger"
	"blocknote/pkg/notedoc"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("store: db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	pinned INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`
	_, err := s.db.Exec(ddl)
	return err
}

func (s *SQLiteStore) Create(ctx context.Context, title string, body notedoc.Sequence) (*Note, error) {
	n := newNote(title, body)
	raw, err := notedoc.Marshal(n.Body)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO notes (id, title, body, pinned, created_at, updated_at) VALUES (?, ?, ?, 0, ?, ?);`,
		n.ID, n.Title, string(raw), formatTime(n.CreatedAt), formatTime(n.UpdatedAt))
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Note, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, body, pinned, created_at, updated_at FROM notes WHERE id = ?;`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	return n, err
}

func (s *SQLiteStore) Update(ctx context.Context, id string, patch Patch) (*Note, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyPatch(n, patch)
	raw, err := notedoc.Marshal(n.Body)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, body = ?, updated_at = ? WHERE id = ?;`,
		n.Title, string(raw), formatTime(n.UpdatedAt), id)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) TogglePin(ctx context.Context, id string) (*Note, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE notes SET pinned = 1 - pinned WHERE id = ?;`, id)
	if err != nil {
		return nil, err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	return s.Get(ctx, id)
}

func (s *SQLiteStore) List(ctx context.Context) ([]*Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, body, pinned, created_at, updated_at FROM notes ORDER BY pinned DESC, updated_at DESC, created_at DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		n, err := scanNote(rows)
		if errors.Is(err, ErrCorruptNote) {
			logger.Warnf("skipping note: %v", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

// Search filters in Go: note text lives inside the JSON body, and a LIKE over
// the encoded form would also match format keys and field names.
func (s *SQLiteStore) Search(ctx context.Context, query string) ([]*Note, error) {
	notes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterNotes(notes, query), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*Note, error) {
	var n Note
	var body, created, updated string
	var pinned int
	if err := row.Scan(&n.ID, &n.Title, &body, &pinned, &created, &updated); err != nil {
		return nil, err
	}
	seq, err := notedoc.Unmarshal([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrCorruptNote, n.ID, err)
	}
	n.Body = seq
	n.Pinned = pinned == 1
	if t, err := time.Parse(timeLayout, created); err == nil {
		n.CreatedAt = t
	}
	if t, err := time.Parse(timeLayout, updated); err == nil {
		n.UpdatedAt = t
	}
	return &n, nil
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}

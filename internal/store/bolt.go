package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"blocknote/internal/logger"
	"blocknote/pkg/notedoc"
)

var bucketNotes = []byte("notes")

// BoltStore keeps one JSON document per note, keyed by note id.
type BoltStore struct {
	db *bolt.DB
	mu sync.Mutex
}

func OpenBolt(path string) (*BoltStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketNotes)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) Create(ctx context.Context, title string, body notedoc.Sequence) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := newNote(title, body)
	if err := s.put(n); err != nil {
		return nil, err
	}
	return cloneNote(n), nil
}

func (s *BoltStore) Get(ctx context.Context, id string) (*Note, error) {
	var note *Note
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b == nil {
			return errors.New("notes bucket missing")
		}
		raw := b.Get([]byte(id))
		if len(raw) == 0 {
			return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
		}
		var item Note
		if err := json.Unmarshal(raw, &item); err != nil {
			return fmt.Errorf("%w %s: %w", ErrCorruptNote, id, err)
		}
		note = &item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

func (s *BoltStore) Update(ctx context.Context, id string, patch Patch) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyPatch(n, patch)
	if err := s.put(n); err != nil {
		return nil, err
	}
	return cloneNote(n), nil
}

func (s *BoltStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b == nil {
			return errors.New("notes bucket missing")
		}
		key := []byte(id)
		if b.Get(key) == nil {
			return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
		}
		return b.Delete(key)
	})
}

func (s *BoltStore) TogglePin(ctx context.Context, id string) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	n.Pinned = !n.Pinned
	if err := s.put(n); err != nil {
		return nil, err
	}
	return cloneNote(n), nil
}

func (s *BoltStore) List(ctx context.Context) ([]*Note, error) {
	out := make([]*Note, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var note Note
			if err := json.Unmarshal(v, &note); err != nil {
				logger.Warnf("skipping note: %v", fmt.Errorf("%w %s: %w", ErrCorruptNote, k, err))
				return nil
			}
			out = append(out, &note)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortNotes(out)
	return out, nil
}

func (s *BoltStore) Search(ctx context.Context, query string) ([]*Note, error) {
	notes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterNotes(notes, query), nil
}

func (s *BoltStore) put(n *Note) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b == nil {
			return errors.New("notes bucket missing")
		}
		return b.Put([]byte(n.ID), raw)
	})
}

// Package store keeps a local journal of applied merges.
//
// File contents are stored once per digest, zstd-compressed, so every merge
// can be inspected or undone later.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"go.etcd.io/bbolt"

	"github.com/hongsw/CodeBridge/cas"
)

var (
	objectsBucket = []byte("objects")
	entriesBucket = []byte("entries")
	idsBucket     = []byte("ids")
)

// ErrNotFound is returned when an object or entry does not exist.
var ErrNotFound = errors.New("not found")

// ObjectStore provides content-addressable object storage.
type ObjectStore interface {
	// WriteObject writes raw file bytes and returns the digest.
	WriteObject(content []byte) (string, error)

	// ReadObject reads raw file bytes by digest.
	ReadObject(digest string) ([]byte, error)
}

// Entry records one applied merge.
type Entry struct {
	ID        string   `json:"id"`
	Path      string   `json:"path"`
	Notation  string   `json:"notation"`
	Before    string   `json:"before"` // object digest of the original
	After     string   `json:"after"`  // object digest of the merged text
	Intent    string   `json:"intent"`
	Summary   string   `json:"summary,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	CreatedAt int64    `json:"createdAt"`

	seq uint64
}

// Journal is a bbolt-backed merge journal.
type Journal struct {
	db  *bbolt.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var _ ObjectStore = (*Journal)(nil)

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{objectsBucket, entriesBucket, idsBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("creating bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	return &Journal{db: db, enc: enc, dec: dec}, nil
}

// Close closes the journal.
func (j *Journal) Close() error {
	j.dec.Close()
	j.enc.Close()
	return j.db.Close()
}

// WriteObject stores content under its BLAKE3 digest.
func (j *Journal) WriteObject(content []byte) (string, error) {
	digest := cas.Blake3HashHex(content)
	err := j.db.Update(func(tx *bbolt.Tx) error {
		return j.putObject(tx, digest, content)
	})
	if err != nil {
		return "", err
	}
	return digest, nil
}

func (j *Journal) putObject(tx *bbolt.Tx, digest string, content []byte) error {
	b := tx.Bucket(objectsBucket)
	if b.Get([]byte(digest)) != nil {
		return nil
	}
	if err := b.Put([]byte(digest), j.enc.EncodeAll(content, nil)); err != nil {
		return fmt.Errorf("writing object %s: %w", digest, err)
	}
	return nil
}

// ReadObject reads and decompresses the object stored under digest.
func (j *Journal) ReadObject(digest string) ([]byte, error) {
	var content []byte
	err := j.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(objectsBucket).Get([]byte(digest))
		if data == nil {
			return fmt.Errorf("object %s: %w", digest, ErrNotFound)
		}
		out, err := j.dec.DecodeAll(data, nil)
		if err != nil {
			return fmt.Errorf("decompressing object %s: %w", digest, err)
		}
		content = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return content, nil
}

// Record stores both versions of a merged file and appends an entry for it.
// The entry's digests, ID and timestamp are filled in.
func (j *Journal) Record(e *Entry, before, after []byte) error {
	e.Before = cas.Blake3HashHex(before)
	e.After = cas.Blake3HashHex(after)
	if e.CreatedAt == 0 {
		e.CreatedAt = cas.NowMs()
	}

	id, err := cas.ObjectID("JournalEntry", map[string]interface{}{
		"path":      e.Path,
		"notation":  e.Notation,
		"before":    e.Before,
		"after":     e.After,
		"createdAt": e.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("computing entry id: %w", err)
	}
	e.ID = id

	return j.db.Update(func(tx *bbolt.Tx) error {
		if err := j.putObject(tx, e.Before, before); err != nil {
			return err
		}
		if err := j.putObject(tx, e.After, after); err != nil {
			return err
		}

		entries := tx.Bucket(entriesBucket)
		seq, err := entries.NextSequence()
		if err != nil {
			return err
		}
		e.seq = seq

		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshaling entry: %w", err)
		}
		if err := entries.Put(seqKey(seq), data); err != nil {
			return fmt.Errorf("writing entry: %w", err)
		}
		return tx.Bucket(idsBucket).Put([]byte(e.ID), seqKey(seq))
	})
}

// Get returns the entry with the given ID.
func (j *Journal) Get(id string) (*Entry, error) {
	var entry *Entry
	err := j.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket(idsBucket).Get([]byte(id))
		if key == nil {
			return fmt.Errorf("entry %s: %w", id, ErrNotFound)
		}
		e, err := decodeEntry(key, tx.Bucket(entriesBucket).Get(key))
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	return entry, err
}

// History returns entries newest first. An empty path selects every file;
// a limit of zero or less returns all matching entries.
func (j *Journal) History(path string, limit int) ([]*Entry, error) {
	var entries []*Entry
	err := j.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(entriesBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			e, err := decodeEntry(k, v)
			if err != nil {
				return err
			}
			if path != "" && e.Path != path {
				continue
			}
			entries = append(entries, e)
			if limit > 0 && len(entries) == limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Latest returns the most recent entry for path.
func (j *Journal) Latest(path string) (*Entry, error) {
	entries, err := j.History(path, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no merges recorded for %s: %w", displayPath(path), ErrNotFound)
	}
	return entries[0], nil
}

// Pop removes the most recent entry for path and returns it along with the
// content the file had before that merge.
func (j *Journal) Pop(path string) (*Entry, []byte, error) {
	e, err := j.Latest(path)
	if err != nil {
		return nil, nil, err
	}
	before, err := j.ReadObject(e.Before)
	if err != nil {
		return nil, nil, err
	}

	err = j.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(entriesBucket).Delete(seqKey(e.seq)); err != nil {
			return err
		}
		return tx.Bucket(idsBucket).Delete([]byte(e.ID))
	})
	if err != nil {
		return nil, nil, fmt.Errorf("removing entry %s: %w", e.ID, err)
	}
	return e, before, nil
}

func decodeEntry(key, data []byte) (*Entry, error) {
	if data == nil {
		return nil, ErrNotFound
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decoding entry: %w", err)
	}
	e.seq = binary.BigEndian.Uint64(key)
	return &e, nil
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func displayPath(path string) string {
	if path == "" {
		return "any file"
	}
	return path
}

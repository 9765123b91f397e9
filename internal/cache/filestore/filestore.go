// Package filestore persists the cache as a single document that is replaced atomically.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/vmihailenco/msgpack/v5"
)

// Format selects the document encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat accepts "json" or "msgpack", case-insensitively. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatMsgpack:
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("unknown cache format %q", s)
	}
}

// Store is a cache.Backend writing one file at path.
type Store struct {
	path   string
	format Format
}

var _ cache.Backend = (*Store)(nil)

// New creates a file backend. The parent directory is created on first save.
func New(path string, format Format) *Store {
	return &Store{path: path, format: format}
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the document. A missing file yields a nil snapshot.
func (s *Store) Load(ctx context.Context) (*cache.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	snap, err := s.decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %s", cache.ErrCorruptStore, s.path, err)
	}
	log.Debug("Read cache document", "path", s.path, "format", s.format, "bytes", len(data))
	return snap, nil
}

// Save writes the snapshot to a temporary file next to the target, syncs it,
// renames it over the target and syncs the directory. Readers observe either
// the previous document or the new one.
func (s *Store) Save(ctx context.Context, snap *cache.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := s.encode(snap)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	committed = true

	if err := syncDir(dir); err != nil {
		log.Warn("Failed to sync cache directory", "dir", dir, "error", err)
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

func (s *Store) encode(snap *cache.Snapshot) ([]byte, error) {
	switch s.format {
	case FormatMsgpack:
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(snap); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return json.MarshalIndent(snap, "", "  ")
	}
}

func (s *Store) decode(data []byte) (*cache.Snapshot, error) {
	var snap cache.Snapshot
	switch s.format {
	case FormatMsgpack:
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.SetCustomStructTag("json")
		if err := dec.Decode(&snap); err != nil {
			return nil, err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&snap); err != nil {
			return nil, err
		}
	}
	return &snap, nil
}

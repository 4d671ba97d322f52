package handles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when the payload format changes.
const indexSchemaVersion uint16 = 1

// ErrSchemaMismatch is returned when a persisted index was written with a
// different schema version. Callers treat it like a from-scratch build.
var ErrSchemaMismatch = errors.New("handle index schema mismatch")

// Index is the persisted handle registry of a prior compilation, queryable
// by canonical mangled name. It is read-only during binding; Put is only
// used when the build layer writes the next generation of the artifact.
type Index struct {
	byKey map[string]HandleID
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{byKey: make(map[string]HandleID)}
}

// Lookup returns the previously issued handle for the canonical key, if any.
func (x *Index) Lookup(key string) (HandleID, bool) {
	if x == nil {
		return NoHandleID, false
	}
	id, ok := x.byKey[key]
	return id, ok
}

// Put records a handle under its canonical key.
func (x *Index) Put(key string, id HandleID) {
	if !id.IsValid() {
		return
	}
	x.byKey[key] = id
}

// Len counts recorded handles.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.byKey)
}

// Keys returns all canonical keys in sorted order.
func (x *Index) Keys() []string {
	if x == nil {
		return nil
	}
	keys := make([]string, 0, len(x.byKey))
	for k := range x.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// indexPayload is the on-disk msgpack shape. Keys and Handles are parallel
// slices sorted by key for deterministic output.
type indexPayload struct {
	Schema  uint16
	Keys    []string
	Handles []uint32
}

// LoadIndex reads a persisted index. A missing file yields (nil, nil): the
// caller proceeds as a from-scratch build.
func LoadIndex(path string) (*Index, error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	var payload indexPayload
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%s: decode handle index: %w", path, err)
	}
	if payload.Schema != indexSchemaVersion {
		return nil, fmt.Errorf("%s: %w: got %d, want %d", path, ErrSchemaMismatch, payload.Schema, indexSchemaVersion)
	}
	if len(payload.Keys) != len(payload.Handles) {
		return nil, fmt.Errorf("%s: corrupt handle index: %d keys vs %d handles", path, len(payload.Keys), len(payload.Handles))
	}

	idx := NewIndex()
	for i, key := range payload.Keys {
		idx.Put(key, HandleID(payload.Handles[i]))
	}
	return idx, nil
}

// Save writes the index atomically (temp file + rename).
func (x *Index) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()

	keys := x.Keys()
	payload := indexPayload{
		Schema:  indexSchemaVersion,
		Keys:    keys,
		Handles: make([]uint32, len(keys)),
	}
	for i, key := range keys {
		payload.Handles[i] = uint32(x.byKey[key])
	}

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(&payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

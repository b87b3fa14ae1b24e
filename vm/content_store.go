package vm

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"

	_ "modernc.org/sqlite"
)

// ContentStore is a content-addressed store of wire-encoded method bodies
// and class digests: key is the hex sha-256 of the canonical encoding. An
// in-memory index fronts an optional sqlite file, so loaded metadata
// survives restarts.
type ContentStore struct {
	log commonlog.Logger

	mu    sync.RWMutex
	index map[string][]byte

	db *sql.DB
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS blobs (
	key  TEXT PRIMARY KEY,
	data BLOB NOT NULL
);`

// NewContentStore opens a store. An empty path keeps it memory-only.
func NewContentStore(path string) (*ContentStore, error) {
	s := &ContentStore{
		log:   commonlog.GetLogger("kava.store"),
		index: map[string][]byte{},
	}
	if path == "" {
		return s, nil
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening content store %s: %w", path, err)
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing content store %s: %w", path, err)
	}
	s.db = db
	if err := s.loadIndex(); err != nil {
		db.Close()
		return nil, err
	}
	s.log.Debugf("content store %s open, %d blobs", path, len(s.index))
	return s, nil
}

func (s *ContentStore) loadIndex() error {
	rows, err := s.db.Query(`SELECT key, data FROM blobs`)
	if err != nil {
		return fmt.Errorf("reading content store index: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return fmt.Errorf("scanning content store row: %w", err)
		}
		s.index[key] = data
	}
	return rows.Err()
}

// Close releases the backing database.
func (s *ContentStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ContentKey returns the store key of an encoded blob.
func ContentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put stores a blob and returns its key. Storing the same content twice is
// a no-op with the same key.
func (s *ContentStore) Put(data []byte) (string, error) {
	key := ContentKey(data)
	s.mu.Lock()
	_, exists := s.index[key]
	if !exists {
		s.index[key] = data
	}
	s.mu.Unlock()
	if exists || s.db == nil {
		return key, nil
	}
	if _, err := s.db.Exec(
		`INSERT INTO blobs (key, data) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`,
		key, data,
	); err != nil {
		return "", fmt.Errorf("persisting blob %s: %w", key, err)
	}
	return key, nil
}

// Get returns the blob for key, or false.
func (s *ContentStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.index[key]
	return data, ok
}

// Len returns the number of stored blobs.
func (s *ContentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}

// PutMethod encodes and stores a method body, returning its key.
func (s *ContentStore) PutMethod(m *Method) (string, error) {
	data, err := EncodeMethod(m)
	if err != nil {
		return "", err
	}
	return s.Put(data)
}

// GetMethod decodes the method body stored under key.
func (s *ContentStore) GetMethod(key string) (*WireMethod, error) {
	data, ok := s.Get(key)
	if !ok {
		return nil, fmt.Errorf("no method blob %s", key)
	}
	return DecodeMethod(data)
}

// PutClass encodes and stores a digest of c, storing each declared method
// body along the way.
func (s *ContentStore) PutClass(c *Class) (string, error) {
	digest := &ClassDigest{Name: c.Name, Methods: map[string]string{}}
	if c.Super != nil {
		digest.Super = c.Super.Name
	}
	for name, m := range c.methods {
		if m.IsAbstract() {
			continue
		}
		key, err := s.PutMethod(m)
		if err != nil {
			return "", err
		}
		digest.Methods[name] = key
	}
	data, err := EncodeClassDigest(digest)
	if err != nil {
		return "", err
	}
	return s.Put(data)
}

// GetClass decodes the class digest stored under key.
func (s *ContentStore) GetClass(key string) (*ClassDigest, error) {
	data, ok := s.Get(key)
	if !ok {
		return nil, fmt.Errorf("no class blob %s", key)
	}
	return DecodeClassDigest(data)
}

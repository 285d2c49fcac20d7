package state

import (
	"errors"
	"fmt"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"bridgechain/storage"
)

var (
	// ErrEmptyKey is returned when a state key is empty.
	ErrEmptyKey = errors.New("state: key must not be empty")
	// ErrNegativeAmount is returned when storing a negative balance.
	ErrNegativeAmount = errors.New("state: amount must not be negative")
)

type dirtyEntry struct {
	value   []byte
	deleted bool
}

// Manager reads and writes module state on top of a key-value database.
// Writes are buffered in an overlay until Commit flushes them in one batch;
// Revert drops them. Manager is not safe for concurrent use.
type Manager struct {
	db    storage.Database
	dirty map[string]dirtyEntry
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, dirty: make(map[string]dirtyEntry)}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func (m *Manager) read(hashed []byte) ([]byte, bool, error) {
	if entry, ok := m.dirty[string(hashed)]; ok {
		if entry.deleted {
			return nil, false, nil
		}
		return entry.value, true, nil
	}
	data, err := m.db.Get(hashed)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// KVPut RLP-encodes value and stores it under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	m.dirty[string(kvKey(key))] = dirtyEntry{value: encoded}
	return nil
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// out. The boolean reports whether the key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, ErrEmptyKey
	}
	data, ok, err := m.read(kvKey(key))
	if err != nil || !ok {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

// KVDelete removes key.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	m.dirty[string(kvKey(key))] = dirtyEntry{deleted: true}
	return nil
}

// Pending reports the number of buffered writes.
func (m *Manager) Pending() int { return len(m.dirty) }

// Commit writes the overlay to the database atomically and clears it.
func (m *Manager) Commit() error {
	if len(m.dirty) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m.dirty))
	for k := range m.dirty {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	batch := m.db.NewBatch()
	for _, k := range keys {
		entry := m.dirty[k]
		if entry.deleted {
			batch.Delete([]byte(k))
		} else {
			batch.Put([]byte(k), entry.value)
		}
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	m.dirty = make(map[string]dirtyEntry)
	return nil
}

// Revert discards every write since the last Commit.
func (m *Manager) Revert() {
	m.dirty = make(map[string]dirtyEntry)
}

package storage

import (
	"fmt"
	"sort"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultCacheSize = 4096
	statePrefix      = "st/"
)

type dirtyValue struct {
	value   []byte
	deleted bool
}

type Revision struct {
	ID int
}

// StateDB is the journaled key-value overlay a transaction runs against.
// Writes stay in the dirty set until Commit; snapshots revert them.
type StateDB struct {
	store   *PersistenceStore
	cache   *lru.Cache[common.Hash, []byte]
	dirty   map[common.Hash]dirtyValue
	journal *journal

	// raw keys outside the state namespace, written with the next Commit
	raw map[string][]byte
}

func NewStateDB(store *PersistenceStore, cacheSize int) (*StateDB, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[common.Hash, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &StateDB{
		store:   store,
		cache:   cache,
		dirty:   make(map[common.Hash]dirtyValue),
		journal: newJournal(),
		raw:     make(map[string][]byte),
	}, nil
}

func stateKey(key common.Hash) []byte {
	return append([]byte(statePrefix), key.Bytes()...)
}

// Get returns the pending value if any, else the committed one.
func (s *StateDB) Get(key common.Hash) ([]byte, bool, error) {
	if d, ok := s.dirty[key]; ok {
		if d.deleted {
			return nil, false, nil
		}
		return d.value, true, nil
	}
	return s.Committed(key)
}

// Committed reads the last committed value, bypassing pending writes.
func (s *StateDB) Committed(key common.Hash) ([]byte, bool, error) {
	if v, ok := s.cache.Get(key); ok {
		return v, v != nil, nil
	}
	v, ok, err := s.store.Get(stateKey(key))
	if err != nil {
		return nil, false, err
	}
	if ok && v == nil {
		// empty values must stay distinguishable from absent keys in the cache
		v = []byte{}
	}
	s.cache.Add(key, v)
	return v, ok, nil
}

func (s *StateDB) Set(key common.Hash, value []byte) {
	s.write(key, dirtyValue{value: append([]byte{}, value...)})
}

func (s *StateDB) Delete(key common.Hash) {
	s.write(key, dirtyValue{deleted: true})
}

func (s *StateDB) write(key common.Hash, v dirtyValue) {
	prev, wasDirty := s.dirty[key]
	s.journal.append(journalEntry{key: key, prev: prev, wasDirty: wasDirty})
	s.dirty[key] = v
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() Revision {
	return Revision{ID: s.journal.length()}
}

// RevertToSnapshot undoes every write made after rev was taken.
func (s *StateDB) RevertToSnapshot(rev Revision) {
	if rev.ID > s.journal.length() {
		log.Warn(log.StorageMonitoring, "RevertToSnapshot: unknown revision", "id", rev.ID, "journal", s.journal.length())
		return
	}
	log.Trace(log.StorageMonitoring, "RevertToSnapshot", "id", rev.ID, "undo", s.journal.length()-rev.ID)
	s.journal.revert(s, rev.ID)
}

// Dirty returns the pending writes; deleted keys map to nil.
func (s *StateDB) Dirty() map[common.Hash][]byte {
	out := make(map[common.Hash][]byte, len(s.dirty))
	for k, v := range s.dirty {
		if v.deleted {
			out[k] = nil
		} else {
			out[k] = v.value
		}
	}
	return out
}

// DirtyKeys returns the pending keys in byte order.
func (s *StateDB) DirtyKeys() []common.Hash {
	keys := make([]common.Hash, 0, len(s.dirty))
	for k := range s.dirty {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return string(keys[i].Bytes()) < string(keys[j].Bytes())
	})
	return keys
}

// Commit writes the pending set to leveldb in one batch.
// StageRaw queues a key outside the state namespace for the next Commit,
// so it lands in the same batch as the state it describes. Discard drops it.
func (s *StateDB) StageRaw(key, value []byte) {
	s.raw[string(key)] = append([]byte{}, value...)
}

func (s *StateDB) Commit() (int, error) {
	if len(s.dirty) == 0 && len(s.raw) == 0 {
		return 0, nil
	}
	batch := make(map[string][]byte, len(s.dirty)+len(s.raw))
	for k, v := range s.raw {
		batch[k] = v
	}
	for k, v := range s.dirty {
		if v.deleted {
			batch[string(stateKey(k))] = nil
		} else {
			batch[string(stateKey(k))] = v.value
		}
	}
	if err := s.store.WriteBatch(batch); err != nil {
		return 0, err
	}
	for k, v := range s.dirty {
		if v.deleted {
			s.cache.Add(k, nil)
		} else {
			s.cache.Add(k, v.value)
		}
	}
	n := len(s.dirty)
	log.Debug(log.StorageMonitoring, "Commit", "keys", n)
	s.Discard()
	return n, nil
}

// Discard drops every pending write.
func (s *StateDB) Discard() {
	s.dirty = make(map[common.Hash]dirtyValue)
	s.raw = make(map[string][]byte)
	s.journal.reset()
}

func (s *StateDB) Store() *PersistenceStore {
	return s.store
}

package storage

import "github.com/colorfulnotion/pvmhost/common"

// journalEntry undoes one write to the dirty set.
type journalEntry struct {
	key      common.Hash
	prev     dirtyValue
	wasDirty bool
}

// journal contains the list of state modifications applied since the last
// commit, so that nested calls can be reverted on failure.
type journal struct {
	entries []journalEntry
}

func newJournal() *journal {
	return &journal{}
}

func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

func (j *journal) length() int {
	return len(j.entries)
}

// revert undoes a batch of journalled modifications.
func (j *journal) revert(s *StateDB, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		e := j.entries[i]
		if e.wasDirty {
			s.dirty[e.key] = e.prev
		} else {
			delete(s.dirty, e.key)
		}
	}
	j.entries = j.entries[:snapshot]
}

func (j *journal) reset() {
	j.entries = j.entries[:0]
}

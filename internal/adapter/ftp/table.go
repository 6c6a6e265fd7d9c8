package ftp

import (
	"sync"
	"sync/atomic"
)

// Record is an entry the connection table tracks: a control session or a
// data connection. Both live in one handle space, so a session can point
// at its data record by handle alone and cross-goroutine teardown stays a
// table operation instead of a pointer graph. Handles are allocated by
// the table on insert and never reused for the lifetime of the process.
type Record interface {
	// Handle returns the table handle, zero before insertion.
	Handle() uint64

	setHandle(h uint64)
}

// ConnTable maps handles to live records under one coarse mutex. The
// mutex is never held across record mutation or handler calls: callers
// look a record up, release the table, then work on the record.
type ConnTable struct {
	mu         sync.Mutex
	records    map[uint64]Record
	nextHandle atomic.Uint64
}

// NewConnTable returns an empty table. Handle allocation starts at one;
// zero stays free as the "no record" sentinel.
func NewConnTable() *ConnTable {
	return &ConnTable{
		records: make(map[uint64]Record),
	}
}

// Insert allocates a handle, stamps it on the record and registers it.
func (t *ConnTable) Insert(r Record) uint64 {
	h := t.nextHandle.Add(1)
	r.setHandle(h)

	t.mu.Lock()
	t.records[h] = r
	t.mu.Unlock()

	return h
}

// Remove unregisters and returns the record, nil when the handle is not
// present. Removal is idempotent: concurrent teardown paths race here and
// exactly one of them gets the record back.
func (t *ConnTable) Remove(h uint64) Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.records[h]
	delete(t.records, h)
	return r
}

// Get returns the record for the handle, nil when absent.
func (t *ConnTable) Get(h uint64) Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.records[h]
}

// Len returns the number of live records of any kind.
func (t *ConnTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// SessionCount returns the number of live control sessions. The capacity
// gate compares against this, not Len: in-flight data connections do not
// consume session slots.
func (t *ConnTable) SessionCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, r := range t.records {
		if _, ok := r.(*Session); ok {
			n++
		}
	}
	return n
}

// Sessions returns the live control sessions in no particular order.
func (t *ConnTable) Sessions() []*Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	sessions := make([]*Session, 0, len(t.records))
	for _, r := range t.records {
		if s, ok := r.(*Session); ok {
			sessions = append(sessions, s)
		}
	}
	return sessions
}

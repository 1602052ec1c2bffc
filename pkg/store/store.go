// Package store implements the persisted item lists the signing core
// relies on between command invocations.
//
// Shielded signing is split across multiple external invocations: a
// construction phase mints per-item randomness, and a later phase
// validates and signs using that same randomness looked up by index. The
// lists carry that state; the core itself holds no suspended computation.
//
// Two implementations are provided: MemoryList for tests and ephemeral
// sessions, and BoltList for the flash-backed durable variant.
package store

import (
	"errors"
	"fmt"
	"sync"
)

// ErrIndexOutOfRange is returned by Get for an index never appended.
var ErrIndexOutOfRange = errors.New("store: index out of range")

// ItemList is an append-only, sequentially indexed list of byte items.
//
// Append order matches item index: the i-th successful Append is
// retrievable as Get(i). Lists are cleared between unrelated signing
// sessions to avoid stale-index reuse.
type ItemList interface {
	// Append stores item and returns its index.
	Append(item []byte) (uint32, error)

	// Get returns a copy of the item at index.
	Get(index uint32) ([]byte, error)

	// Len returns the number of items appended since the last Clear.
	Len() (uint32, error)

	// Clear removes all items.
	Clear() error
}

// MemoryList is an in-memory ItemList.
type MemoryList struct {
	mu    sync.Mutex
	items [][]byte
}

// NewMemoryList returns an empty in-memory list.
func NewMemoryList() *MemoryList {
	return &MemoryList{}
}

func (l *MemoryList) Append(item []byte) (uint32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make([]byte, len(item))
	copy(cp, item)
	l.items = append(l.items, cp)
	return uint32(len(l.items) - 1), nil
}

func (l *MemoryList) Get(index uint32) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if int(index) >= len(l.items) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(l.items))
	}
	cp := make([]byte, len(l.items[index]))
	copy(cp, l.items[index])
	return cp, nil
}

func (l *MemoryList) Len() (uint32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint32(len(l.items)), nil
}

func (l *MemoryList) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
	return nil
}

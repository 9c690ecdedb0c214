// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/taibuivan/storehub/pkg/pagination"
)

// MemoryStore is an in-process [Store] and [Lister] used by tests and local tooling.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
	ready   atomic.Bool

	// FailWith, when set, is returned by every Create.
	FailWith error

	// PanicWith, when set, makes every Create panic with this value.
	PanicWith any
}

// NewMemoryStore returns an empty, ready store.
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{}
	store.ready.Store(true)
	return store
}

func (store *MemoryStore) Ready() bool { return store.ready.Load() }

// SetReady toggles write acceptance.
func (store *MemoryStore) SetReady(ready bool) { store.ready.Store(ready) }

func (store *MemoryStore) Create(context context.Context, entry *Entry) error {
	if store.PanicWith != nil {
		panic(store.PanicWith)
	}
	if store.FailWith != nil {
		return store.FailWith
	}
	if err := context.Err(); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	store.entries = append(store.entries, *entry)
	return nil
}

// Entries returns a copy of everything written so far, oldest first.
func (store *MemoryStore) Entries() []Entry {
	store.mu.Lock()
	defer store.mu.Unlock()
	return slices.Clone(store.entries)
}

func (store *MemoryStore) List(_ context.Context, filter Filter, page pagination.Params) ([]Entry, int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	var matched []Entry
	for index := len(store.entries) - 1; index >= 0; index-- {
		entry := store.entries[index]
		if matches(entry, filter) {
			matched = append(matched, entry)
		}
	}

	start := min(page.Offset(), len(matched))
	end := min(start+page.Limit, len(matched))
	return matched[start:end], len(matched), nil
}

func matches(entry Entry, filter Filter) bool {
	switch {
	case filter.TenantID != "" && entry.TenantID != filter.TenantID:
		return false
	case filter.UserID != "" && entry.UserID != filter.UserID:
		return false
	case filter.Action != "" && entry.Action != filter.Action:
		return false
	case filter.Resource != "" && entry.Resource != filter.Resource:
		return false
	case filter.Status != "" && entry.Status != filter.Status:
		return false
	}
	return true
}

package gekko

import (
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type AssetId string

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

// Handle is a typed reference into an Assets[T] store. The zero handle is
// invalid.
type Handle[T any] struct {
	id AssetId
}

func HandleFromId[T any](id AssetId) Handle[T] {
	return Handle[T]{id: id}
}

func (h Handle[T]) Id() AssetId {
	return h.id
}

func (h Handle[T]) IsValid() bool {
	return h.id != ""
}

type assetEntry[T any] struct {
	value   *T
	version uint
}

// Assets stores values of one asset kind. Every Add/Set bumps the entry's
// version so GPU-side copies know when to refresh.
type Assets[T any] struct {
	mu      sync.RWMutex
	entries map[AssetId]*assetEntry[T]
}

func NewAssets[T any]() *Assets[T] {
	return &Assets[T]{entries: make(map[AssetId]*assetEntry[T])}
}

func (a *Assets[T]) Add(value T) Handle[T] {
	h := Handle[T]{id: makeAssetId()}
	a.Set(h, value)
	return h
}

// Set inserts or replaces the value behind h.
func (a *Assets[T]) Set(h Handle[T], value T) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if e, ok := a.entries[h.id]; ok {
		e.value = &value
		e.version++
		return
	}
	a.entries[h.id] = &assetEntry[T]{value: &value, version: 1}
}

// Get returns the stored value, or nil when absent. The pointer aliases
// the store; call Touch after mutating it.
func (a *Assets[T]) Get(h Handle[T]) *T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if e, ok := a.entries[h.id]; ok {
		return e.value
	}
	return nil
}

func (a *Assets[T]) Contains(h Handle[T]) bool {
	return a.Get(h) != nil
}

// Touch marks an in-place mutation.
func (a *Assets[T]) Touch(h Handle[T]) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if e, ok := a.entries[h.id]; ok {
		e.version++
	}
}

// Version is zero for missing entries.
func (a *Assets[T]) Version(h Handle[T]) uint {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if e, ok := a.entries[h.id]; ok {
		return e.version
	}
	return 0
}

func (a *Assets[T]) Remove(h Handle[T]) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.entries, h.id)
}

func (a *Assets[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}

// Iter visits entries in id order until fn returns false.
func (a *Assets[T]) Iter(fn func(Handle[T], *T) bool) {
	a.mu.RLock()
	ids := slices.Sorted(maps.Keys(a.entries))
	a.mu.RUnlock()

	for _, id := range ids {
		h := Handle[T]{id: id}
		v := a.Get(h)
		if v == nil {
			continue
		}
		if !fn(h, v) {
			return
		}
	}
}

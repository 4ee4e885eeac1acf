// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package containers

import "sync"

// SyncMap is a typed wrapper over sync.Map.
type SyncMap[K comparable, V any] struct {
	internal sync.Map
}

func (m *SyncMap[K, V]) Load(key K) (V, bool) {
	val, found := m.internal.Load(key)
	if !found {
		var empty V
		return empty, false
	}
	return val.(V), true
}

func (m *SyncMap[K, V]) Store(key K, val V) {
	m.internal.Store(key, val)
}

// LoadOrStore returns the existing value for key if present and reports
// loaded=true. Otherwise it stores val and returns it with loaded=false.
func (m *SyncMap[K, V]) LoadOrStore(key K, val V) (V, bool) {
	actual, loaded := m.internal.LoadOrStore(key, val)
	return actual.(V), loaded
}

func (m *SyncMap[K, V]) Delete(key K) {
	m.internal.Delete(key)
}

// Range calls fn for every entry until fn returns false. Iteration order is
// unspecified.
func (m *SyncMap[K, V]) Range(fn func(key K, val V) bool) {
	m.internal.Range(func(k, v any) bool {
		return fn(k.(K), v.(V))
	})
}

func (m *SyncMap[K, V]) Len() int {
	count := 0
	m.internal.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

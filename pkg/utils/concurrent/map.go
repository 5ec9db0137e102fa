package concurrent

import (
	"hash/fnv"
	"sync"
)

// 默认分片数量
const DEFAULT_SHARD_COUNT = 32

// Map 是按 Key 哈希分片加锁的并发 Map
type Map[K comparable, V any] struct {
	shards   []*shard[K, V]
	hashFunc func(K) uint32
}

type shard[K comparable, V any] struct {
	items map[K]V
	sync.RWMutex
}

// NewMap 创建一个新的并发 Map,hashFunc 决定 Key 落在哪个分片
func NewMap[K comparable, V any](hashFunc func(K) uint32) *Map[K, V] {
	m := &Map[K, V]{
		shards:   make([]*shard[K, V], DEFAULT_SHARD_COUNT),
		hashFunc: hashFunc,
	}
	for i := range m.shards {
		m.shards[i] = &shard[K, V]{items: make(map[K]V)}
	}
	return m
}

func (m *Map[K, V]) getShard(key K) *shard[K, V] {
	return m.shards[m.hashFunc(key)%uint32(len(m.shards))]
}

func (m *Map[K, V]) Set(key K, value V) {
	s := m.getShard(key)
	s.Lock()
	defer s.Unlock()
	s.items[key] = value
}

func (m *Map[K, V]) Get(key K) (V, bool) {
	s := m.getShard(key)
	s.RLock()
	defer s.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// Pop 删除 Key 并返回删除前的值
func (m *Map[K, V]) Pop(key K) (V, bool) {
	s := m.getShard(key)
	s.Lock()
	defer s.Unlock()
	v, ok := s.items[key]
	delete(s.items, key)
	return v, ok
}

// RemoveIf 仅当 cond 对当前值返回 true 时删除,判断和删除在同一把锁内完成
func (m *Map[K, V]) RemoveIf(key K, cond func(v V) bool) bool {
	s := m.getShard(key)
	s.Lock()
	defer s.Unlock()
	v, ok := s.items[key]
	if !ok || !cond(v) {
		return false
	}
	delete(s.items, key)
	return true
}

func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0)
	for _, s := range m.shards {
		s.RLock()
		for k := range s.items {
			keys = append(keys, k)
		}
		s.RUnlock()
	}
	return keys
}

func (m *Map[K, V]) Count() int {
	n := 0
	for _, s := range m.shards {
		s.RLock()
		n += len(s.items)
		s.RUnlock()
	}
	return n
}

// HashString FNV-1a 字符串哈希
func HashString(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

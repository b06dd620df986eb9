package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	ctx       context.Context
	cancel    context.CancelFunc
	entries   map[string]*list.Element
	order     *list.List // front = most recently used (lru) or most recently written (ttl-only)
	mutex     sync.Mutex
	waitGroup sync.WaitGroup
	once      sync.Once
	cfg       config
}

var _ Store = (*memoryStore)(nil)

type memoryEntry struct {
	key string
	entry
}

func (m *memoryStore) Get(_ context.Context, key string) (bool, any, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	el, ok := m.entries[key]
	if !ok {
		return false, nil, nil
	}
	ent := el.Value.(*memoryEntry)
	if ent.expires.Before(time.Now()) {
		m.removeLocked(el)
		return false, nil, nil
	}
	ent.hits++
	if m.cfg.policy == EvictLRU {
		m.order.MoveToFront(el)
	}
	return true, ent.object, nil
}

func (m *memoryStore) Set(_ context.Context, key string, val any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.cfg.defaultTTL
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if el, ok := m.entries[key]; ok {
		ent := el.Value.(*memoryEntry)
		ent.object = val
		ent.expires = time.Now().Add(ttl)
		ent.hits = 0
		m.order.MoveToFront(el)
		return nil
	}
	if m.cfg.maxEntries > 0 && len(m.entries) >= m.cfg.maxEntries {
		m.evictLocked()
	}
	el := m.order.PushFront(&memoryEntry{key: key, entry: entry{object: val, expires: time.Now().Add(ttl)}})
	m.entries[key] = el
	return nil
}

// evictLocked frees one slot: expired entries go first, then the back of the
// list (least recently used under lru, oldest write under ttl-only).
func (m *memoryStore) evictLocked() {
	now := time.Now()
	for el := m.order.Back(); el != nil; el = el.Prev() {
		if el.Value.(*memoryEntry).expires.Before(now) {
			m.removeLocked(el)
			return
		}
	}
	if el := m.order.Back(); el != nil {
		m.removeLocked(el)
	}
}

func (m *memoryStore) removeLocked(el *list.Element) {
	ent := el.Value.(*memoryEntry)
	m.order.Remove(el)
	delete(m.entries, ent.key)
}

func (m *memoryStore) Delete(_ context.Context, key string) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	el, ok := m.entries[key]
	if ok {
		m.removeLocked(el)
	}
	return ok, nil
}

func (m *memoryStore) Hits(_ context.Context, key string) (bool, int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if el, ok := m.entries[key]; ok {
		return true, el.Value.(*memoryEntry).hits
	}
	return false, 0
}

func (m *memoryStore) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	el, ok := m.entries[key]
	if !ok {
		return 0, false, nil
	}
	remaining := time.Until(el.Value.(*memoryEntry).expires)
	if remaining <= 0 {
		m.removeLocked(el)
		return 0, false, nil
	}
	return remaining, true, nil
}

func (m *memoryStore) Close(_ context.Context) error {
	m.once.Do(func() {
		m.cancel()
		m.waitGroup.Wait()
	})
	return nil
}

func (m *memoryStore) run() {
	defer m.waitGroup.Done()
	ticker := time.NewTicker(m.cfg.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			m.mutex.Lock()
			var next *list.Element
			for el := m.order.Front(); el != nil; el = next {
				next = el.Next()
				if el.Value.(*memoryEntry).expires.Before(now) {
					m.removeLocked(el)
				}
			}
			m.mutex.Unlock()
		}
	}
}

// NewMemory returns an in-process Store. Values are held as-is with no
// serialization, so mutations to stored pointers are visible through the
// store. A background goroutine sweeps expired entries at the configured
// interval; Close stops it.
func NewMemory(parent context.Context, opts ...Option) Store {
	cfg := applyOptions(opts)
	ctx, cancel := context.WithCancel(parent)
	m := &memoryStore{
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		cfg:     cfg,
	}
	m.waitGroup.Add(1)
	go m.run()
	return m
}

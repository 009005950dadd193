package notice

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   map[int64]*Notice
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[int64]*Notice), nextID: 1}
}

func (m *MemoryStore) Create(_ context.Context, n *Notice) (*Notice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *n
	cp.ID = m.nextID
	m.nextID++
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.rows[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (m *MemoryStore) FindByID(_ context.Context, id int64) (*Notice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (m *MemoryStore) Update(_ context.Context, n *Notice) (*Notice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[n.ID]; !ok {
		return nil, nil
	}
	cp := *n
	cp.UpdatedAt = time.Now()
	m.rows[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.rows, id)
	return nil
}

func (m *MemoryStore) List(_ context.Context, f Filter, current, size int) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*Notice
	for _, n := range m.rows {
		if f.Title != "" && !strings.Contains(n.Title, f.Title) {
			continue
		}
		if f.Status != 0 && n.Status != f.Status {
			continue
		}
		cp := *n
		matched = append(matched, &cp)
	}
	// Pinned notices first, then newest first.
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Top != matched[j].Top {
			return matched[i].Top
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	start := (current - 1) * size
	if start >= len(matched) {
		matched = nil
	} else {
		end := start + size
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return &Page{Records: matched, Total: total, Current: current, Size: size}, nil
}

func (m *MemoryStore) IncrementViews(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n, ok := m.rows[id]; ok {
		n.ViewCount++
	}
	return nil
}

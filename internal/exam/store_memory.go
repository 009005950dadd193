package exam

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	exams      map[int64]*Exam
	sites      map[int64]*Site
	nextExamID int64
	nextSiteID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		exams:      make(map[int64]*Exam),
		sites:      make(map[int64]*Site),
		nextExamID: 1,
		nextSiteID: 1,
	}
}

func (m *MemoryStore) Create(_ context.Context, e *Exam) (*Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *e
	cp.ID = m.nextExamID
	m.nextExamID++
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.exams[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (m *MemoryStore) FindByID(_ context.Context, id int64) (*Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.exams[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *MemoryStore) FindByName(_ context.Context, name string) (*Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.exams {
		if e.Name == name {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Update(_ context.Context, e *Exam) (*Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.exams[e.ID]; !ok {
		return nil, nil
	}
	cp := *e
	cp.UpdatedAt = time.Now()
	m.exams[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.exams, id)
	for sid, s := range m.sites {
		if s.ExamID == id {
			delete(m.sites, sid)
		}
	}
	return nil
}

func (m *MemoryStore) List(_ context.Context, f Filter, current, size int) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*Exam
	for _, e := range m.exams {
		if f.Name != "" && !strings.Contains(e.Name, f.Name) {
			continue
		}
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if f.Status != 0 && e.Status != f.Status {
			continue
		}
		cp := *e
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

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

func (m *MemoryStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := &Stats{}
	for _, e := range m.exams {
		st.TotalCount++
		switch e.Status {
		case StatusDraft:
			st.DraftCount++
		case StatusPublished:
			st.PublishedCount++
		case StatusRegistrationOpen:
			st.OpenCount++
		case StatusRegistrationDone:
			st.ClosedCount++
		case StatusEnded:
			st.EndedCount++
		}
	}
	return st, nil
}

func (m *MemoryStore) CreateSite(_ context.Context, s *Site) (*Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	cp.ID = m.nextSiteID
	m.nextSiteID++
	cp.CreatedAt = time.Now()
	m.sites[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (m *MemoryStore) FindSite(_ context.Context, id int64) (*Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sites[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) SitesByExam(_ context.Context, examID int64) ([]*Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Site
	for _, s := range m.sites {
		if s.ExamID == examID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) UpdateSite(_ context.Context, s *Site) (*Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sites[s.ID]; !ok {
		return nil, nil
	}
	cp := *s
	m.sites[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (m *MemoryStore) DeleteSite(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sites, id)
	return nil
}

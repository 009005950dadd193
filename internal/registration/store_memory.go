package registration

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   map[int64]*Registration
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[int64]*Registration), nextID: 1}
}

func (m *MemoryStore) Create(_ context.Context, r *Registration) (*Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *r
	cp.ID = m.nextID
	m.nextID++
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	cp.UpdatedAt = cp.CreatedAt
	m.rows[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (m *MemoryStore) FindByID(_ context.Context, id int64) (*Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) FindByUserAndExam(_ context.Context, userID, examID int64) (*Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.rows {
		if r.UserID == userID && r.ExamID == examID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Update(_ context.Context, r *Registration) (*Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[r.ID]; !ok {
		return nil, nil
	}
	cp := *r
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

func (m *MemoryStore) List(_ context.Context, f Filter, current, size int) ([]*Registration, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*Registration
	for _, r := range m.rows {
		if f.UserID != 0 && r.UserID != f.UserID {
			continue
		}
		if f.ExamID != 0 && r.ExamID != f.ExamID {
			continue
		}
		if f.AuditStatus != 0 && r.AuditStatus != f.AuditStatus {
			continue
		}
		cp := *r
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	start := (current - 1) * size
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *MemoryStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := &Stats{}
	for _, r := range m.rows {
		st.TotalCount++
		switch r.AuditStatus {
		case AuditPending:
			st.PendingCount++
		case AuditApproved:
			st.ApprovedCount++
		case AuditRejected:
			st.RejectedCount++
		}
		switch r.PaymentStatus {
		case PaymentPaid:
			st.PaidCount++
		case PaymentUnpaid:
			st.UnpaidCount++
		}
	}
	return st, nil
}

func (m *MemoryStore) Trend(_ context.Context, from time.Time, days int) ([]*TrendPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int64)
	for _, r := range m.rows {
		if r.CreatedAt.Before(from) {
			continue
		}
		counts[r.CreatedAt.Format("2006-01-02")]++
	}

	points := make([]*TrendPoint, 0, days)
	for i := range days {
		day := from.AddDate(0, 0, i).Format("2006-01-02")
		points = append(points, &TrendPoint{Date: day, Count: counts[day]})
	}
	return points, nil
}

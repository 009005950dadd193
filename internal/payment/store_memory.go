package payment

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   map[int64]*Order
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[int64]*Order), nextID: 1}
}

func (m *MemoryStore) Create(_ context.Context, o *Order) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *o
	cp.ID = m.nextID
	m.nextID++
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.rows[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (m *MemoryStore) FindByOrderNo(_ context.Context, orderNo string) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, o := range m.rows {
		if o.OrderNo == orderNo {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) FindByRegistration(_ context.Context, registrationID int64) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *Order
	for _, o := range m.rows {
		if o.RegistrationID == registrationID && (latest == nil || o.ID > latest.ID) {
			latest = o
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (m *MemoryStore) Update(_ context.Context, o *Order) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[o.ID]; !ok {
		return nil, nil
	}
	cp := *o
	cp.UpdatedAt = time.Now()
	m.rows[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (m *MemoryStore) List(_ context.Context, f Filter, current, size int) ([]*Order, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*Order
	for _, o := range m.rows {
		if f.UserID != 0 && o.UserID != f.UserID {
			continue
		}
		if f.Status != 0 && o.Status != f.Status {
			continue
		}
		cp := *o
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

func (m *MemoryStore) ListExpired(_ context.Context, now time.Time) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Order
	for _, o := range m.rows {
		if o.Status == OrderPending && o.Expired(now) {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) PaidTrend(_ context.Context, from time.Time, days int) ([]*TrendPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byDay := make(map[string]*TrendPoint)
	for _, o := range m.rows {
		if o.Status != OrderPaid || o.PayTime == nil || o.PayTime.Before(from) {
			continue
		}
		day := o.PayTime.Format("2006-01-02")
		p, ok := byDay[day]
		if !ok {
			p = &TrendPoint{Date: day}
			byDay[day] = p
		}
		p.Count++
		p.Amount += o.Amount
	}

	points := make([]*TrendPoint, 0, days)
	for i := range days {
		day := from.AddDate(0, 0, i).Format("2006-01-02")
		if p, ok := byDay[day]; ok {
			points = append(points, p)
		} else {
			points = append(points, &TrendPoint{Date: day})
		}
	}
	return points, nil
}

func (m *MemoryStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := &Stats{}
	for _, o := range m.rows {
		st.TotalCount++
		switch o.Status {
		case OrderPending:
			st.PendingCount++
		case OrderPaid:
			st.PaidCount++
			st.TotalAmount += o.Amount
		case OrderClosed:
			st.ClosedCount++
		case OrderRefunded:
			st.RefundedCount++
		}
	}
	return st, nil
}

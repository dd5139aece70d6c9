package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"tableside/internal/domain"
	"tableside/internal/store"
)

type Tables struct {
	mu   sync.Mutex
	seq  int
	recs map[int]*domain.Table
}

func NewTables() *Tables {
	return &Tables{recs: map[int]*domain.Table{}}
}

func (f *Tables) List(_ context.Context) ([]domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Table, 0, len(f.recs))
	for _, t := range f.recs {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Tables) GetByID(_ context.Context, id int) (*domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.recs[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, nil
}

func (f *Tables) Create(_ context.Context, t *domain.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ex := range f.recs {
		if ex.Label == t.Label {
			return domain.Conflictf("table label %q already exists", t.Label)
		}
	}
	f.seq++
	t.ID = f.seq
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	c := *t
	f.recs[t.ID] = &c
	return nil
}

func (f *Tables) Update(_ context.Context, t *domain.Table) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ex, ok := f.recs[t.ID]
	if !ok {
		return false, nil
	}
	for id, other := range f.recs {
		if id != t.ID && other.Label == t.Label {
			return false, domain.Conflictf("table label %q already exists", t.Label)
		}
	}
	ex.Label = t.Label
	ex.Capacity = t.Capacity
	ex.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (f *Tables) Delete(_ context.Context, id int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.recs[id]; !ok {
		return false, nil
	}
	delete(f.recs, id)
	return true, nil
}

func (f *Tables) SetAvailability(_ context.Context, id int, available bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.recs[id]
	if !ok {
		return false, nil
	}
	t.Available = available
	t.UpdatedAt = time.Now().UTC()
	return true, nil
}

var _ store.Tables = (*Tables)(nil)

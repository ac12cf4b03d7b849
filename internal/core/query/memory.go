package query

import (
	"context"
	"sort"
	"sync"

	"insightsdb/internal/core/entity"
	"insightsdb/internal/core/page"
	"insightsdb/internal/core/predicate"
	"insightsdb/internal/core/record"
)

// Memory is an in-process Source over records it holds
// it evaluates predicates directly and is used by tests and fixtures
type Memory struct {
	mu   sync.RWMutex
	rows []*record.Record
}

// NewMemory returns a Memory holding rows
func NewMemory(rows ...*record.Record) *Memory {
	return &Memory{rows: rows}
}

// Add appends rows
func (m *Memory) Add(rows ...*record.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, rows...)
}

func (m *Memory) match(tenant string, s *entity.Schema, pred predicate.Node) []*record.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*record.Record
	for _, r := range m.rows {
		if r.Tenant == tenant && r.Kind == s.Kind && pred.Eval(r) {
			out = append(out, r)
		}
	}
	return out
}

// Scan implements Source
func (m *Memory) Scan(ctx context.Context, tenant string, s *entity.Schema, pred predicate.Node) ([]*record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.match(tenant, s, pred), nil
}

// Page implements Source
func (m *Memory) Page(ctx context.Context, tenant string, s *entity.Schema, pred predicate.Node, req page.Request) ([]*record.Record, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	rows := m.match(tenant, s, pred)
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range req.Sort {
			f, _ := s.Field(o.Field)
			if c := compareField(rows[i], rows[j], f, o.Order()); c != 0 {
				return c < 0
			}
		}
		return rows[i].ID < rows[j].ID
	})
	res := page.Slice(rows, req)
	return res.Records, res.TotalCount, nil
}

func compareField(a, b *record.Record, f entity.Field, o page.Order) int {
	switch f.Kind {
	case entity.Number, entity.Time:
		return page.CompareNumber(number(a, f.Name), number(b, f.Name), o)
	default:
		return page.CompareText(text(a, f.Name), text(b, f.Name), o)
	}
}

func number(r *record.Record, field string) *float64 {
	if v, ok := r.Number(field); ok {
		return &v
	}
	return nil
}

func text(r *record.Record, field string) *string {
	if v, ok := r.Value(field); ok {
		return &v
	}
	return nil
}

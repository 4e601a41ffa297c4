package choices

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryRepository is an in-memory implementation of Repository.
// Useful for testing and development.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows []Choice
}

// NewMemoryRepository creates a new in-memory choice repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Add registers a static choice row.
func (r *MemoryRepository) Add(c Choice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, c)
}

func (r *MemoryRepository) ListChoices(ctx context.Context, model, field string) ([]Choice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Choice
	for _, c := range r.rows {
		if c.Model == model && c.Field == field {
			out = append(out, c)
		}
	}
	sortChoices(out)
	return out, nil
}

// Row is one record of an in-memory entity dataset queried by dynamic
// choices. Fields holds the addressable columns; "id" resolves to ID.
type Row struct {
	ID     string
	Active bool
	Fields map[string]interface{}
}

func (r Row) attr(col string) interface{} {
	if col == "id" {
		return r.ID
	}
	return r.Fields[col]
}

// MemoryDynamicRepository is an in-memory implementation of
// DynamicRepository backed by per-model row sets.
type MemoryDynamicRepository struct {
	mu       sync.RWMutex
	defs     map[string]DynamicChoice
	datasets map[string][]Row
}

// NewMemoryDynamicRepository creates a new in-memory dynamic-choice
// repository.
func NewMemoryDynamicRepository() *MemoryDynamicRepository {
	return &MemoryDynamicRepository{
		defs:     make(map[string]DynamicChoice),
		datasets: make(map[string][]Row),
	}
}

// AddDefinition registers a dynamic-choice definition.
func (r *MemoryDynamicRepository) AddDefinition(dc DynamicChoice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[dc.ID] = dc
}

// AddRows registers rows for a backing model.
func (r *MemoryDynamicRepository) AddRows(model string, rows ...Row) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets[model] = append(r.datasets[model], rows...)
}

func (r *MemoryDynamicRepository) GetDynamicChoice(ctx context.Context, id string) (*DynamicChoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dc, ok := r.defs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &dc, nil
}

func (r *MemoryDynamicRepository) QueryOptions(ctx context.Context, dc *DynamicChoice, opts QueryOptions) ([]Option, error) {
	conds, err := dc.ParseCriteria()
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Row
	for _, row := range r.datasets[dc.ModelName] {
		if opts.IncludeID != "" && row.ID == opts.IncludeID {
			matched = append(matched, row)
			continue
		}
		if opts.ActiveOnly && !row.Active {
			continue
		}
		if rowMatches(row, conds) {
			matched = append(matched, row)
		}
	}

	out := make([]Option, 0, len(matched))
	seen := make(map[string]bool)
	for _, row := range matched {
		value := fmt.Sprint(row.attr(dc.ValueCol))
		if seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, Option{
			Value:   value,
			Display: fmt.Sprint(row.attr(dc.DisplayCol)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Display) < strings.ToLower(out[j].Display)
	})
	return out, nil
}

func rowMatches(row Row, conds []Condition) bool {
	for _, c := range conds {
		got := fmt.Sprint(row.attr(c.Column))
		switch c.Op {
		case "eq":
			if got != fmt.Sprint(c.Value) {
				return false
			}
		case "ne":
			if got == fmt.Sprint(c.Value) {
				return false
			}
		case "contains":
			if !strings.Contains(strings.ToLower(got), strings.ToLower(fmt.Sprint(c.Value))) {
				return false
			}
		case "in":
			list, ok := c.Value.([]interface{})
			if !ok {
				return false
			}
			found := false
			for _, v := range list {
				if got == fmt.Sprint(v) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// MemoryLookupRepository is an in-memory implementation of LookupRepository.
type MemoryLookupRepository struct {
	mu     sync.RWMutex
	tables map[string][]LookupEntry
}

// NewMemoryLookupRepository creates a new in-memory lookup repository.
func NewMemoryLookupRepository() *MemoryLookupRepository {
	return &MemoryLookupRepository{tables: make(map[string][]LookupEntry)}
}

// AddEntries registers entries under a lookup list name.
func (r *MemoryLookupRepository) AddEntries(name string, entries ...LookupEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[name] = append(r.tables[name], entries...)
}

func (r *MemoryLookupRepository) ListTable(ctx context.Context, name string) ([]LookupEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]LookupEntry, len(r.tables[name]))
	copy(out, r.tables[name])
	sortLookupEntries(out)
	return out, nil
}

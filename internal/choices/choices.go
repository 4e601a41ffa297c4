package choices

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// EventModel is the owning model for event field choices. Static choices for
// event schema fields are always registered under this model.
const EventModel = "event"

// SubjectModel names the trackable-subject entity. Dynamic choices backed by
// this model are restricted to active subjects at query time.
const SubjectModel = "subject"

// Choice is one allowed option for a (model, field) pair.
// Uniqueness of (Model, Field, Value) is enforced by storage.
type Choice struct {
	ID       uuid.UUID `json:"id"`
	Model    string    `json:"model"`
	Field    string    `json:"field"`
	Value    string    `json:"value"`
	Display  string    `json:"display"`
	Icon     string    `json:"icon,omitempty"`
	OrderNum *int      `json:"ordernum,omitempty"`
}

// DynamicChoice defines a choice list computed at render time by running a
// stored filter against another entity type.
type DynamicChoice struct {
	// ID is the identifier referenced by query___<id>___ schema tokens.
	ID string `json:"id"`

	// ModelName is the backing entity type (also its table name in postgres).
	ModelName string `json:"model_name"`

	// Criteria is a JSON array of filter conditions applied to ModelName.
	Criteria string `json:"criteria"`

	// ValueCol and DisplayCol select which row attributes become the
	// option value and display text.
	ValueCol   string `json:"value_col"`
	DisplayCol string `json:"display_col"`
}

// Condition is a single stored filter clause inside DynamicChoice.Criteria.
type Condition struct {
	Column string      `json:"column"`
	Op     string      `json:"op"` // eq, ne, contains, in
	Value  interface{} `json:"value"`
}

// ParseCriteria decodes the stored criteria JSON into conditions.
func (d *DynamicChoice) ParseCriteria() ([]Condition, error) {
	if strings.TrimSpace(d.Criteria) == "" {
		return nil, nil
	}
	var conds []Condition
	if err := json.Unmarshal([]byte(d.Criteria), &conds); err != nil {
		return nil, fmt.Errorf("decoding criteria for dynamic choice %s: %w", d.ID, err)
	}
	return conds, nil
}

// LookupEntry is one row of a legacy lookup list. All lists share one table,
// keyed by list name.
type LookupEntry struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	OrderNum *int      `json:"ordernum,omitempty"`
}

// Option is a resolved (value, display) pair handed to the schema renderer.
type Option struct {
	Value   string `json:"value"`
	Display string `json:"name"`
}

// sortChoices orders static choices by (ordernum, lower(display)) with
// missing ordernum sorting last, matching the postgres collation.
func sortChoices(rows []Choice) {
	sort.SliceStable(rows, func(i, j int) bool {
		oi, oj := orderRank(rows[i].OrderNum), orderRank(rows[j].OrderNum)
		if oi != oj {
			return oi < oj
		}
		return strings.ToLower(rows[i].Display) < strings.ToLower(rows[j].Display)
	})
}

// sortLookupEntries orders legacy lookup rows by (ordernum, lower(name)).
func sortLookupEntries(rows []LookupEntry) {
	sort.SliceStable(rows, func(i, j int) bool {
		oi, oj := orderRank(rows[i].OrderNum), orderRank(rows[j].OrderNum)
		if oi != oj {
			return oi < oj
		}
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})
}

func orderRank(n *int) int {
	if n == nil {
		return int(^uint(0) >> 1)
	}
	return *n
}

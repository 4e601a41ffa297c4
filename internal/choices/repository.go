package choices

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a choice definition does not exist.
var ErrNotFound = errors.New("choice not found")

// QueryOptions adjusts dynamic-choice query execution.
type QueryOptions struct {
	// ActiveOnly restricts results to active rows. Set for subject-backed
	// dynamic choices.
	ActiveOnly bool

	// IncludeID unions one specific row back into the result set even when
	// it no longer matches the stored criteria. Used so a value already
	// saved on an event remains displayable.
	IncludeID string
}

// Repository provides static choice rows.
type Repository interface {
	// ListChoices returns choices for a (model, field) pair, ordered by
	// (ordernum, lower(display)).
	ListChoices(ctx context.Context, model, field string) ([]Choice, error)
}

// DynamicRepository provides dynamic-choice definitions and executes their
// stored criteria against the backing entity type.
type DynamicRepository interface {
	// GetDynamicChoice returns the definition with the given id, or
	// ErrNotFound.
	GetDynamicChoice(ctx context.Context, id string) (*DynamicChoice, error)

	// QueryOptions runs the definition's criteria and returns the resulting
	// options ordered by display text.
	QueryOptions(ctx context.Context, dc *DynamicChoice, opts QueryOptions) ([]Option, error)
}

// LookupRepository provides legacy lookup lists by name.
type LookupRepository interface {
	// ListTable returns the entries of the named lookup list, ordered by
	// (ordernum, lower(name)).
	ListTable(ctx context.Context, name string) ([]LookupEntry, error)
}

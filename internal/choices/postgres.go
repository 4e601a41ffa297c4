package choices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"
)

const connectPingTimeout = 5 * time.Second

// identPattern restricts table and column names taken from dynamic-choice
// definitions. Anything else is rejected before it reaches SQL.
var identPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Postgres implements Repository, DynamicRepository and LookupRepository
// against PostgreSQL.
type Postgres struct {
	db              *sql.DB
	stmtListChoices *sql.Stmt
	stmtGetDynamic  *sql.Stmt
	stmtListLookup  *sql.Stmt
}

// Open connects to PostgreSQL, applies pool settings and prepares the fixed
// statements. Schema must be initialized separately via migrations.
func Open(dsn string, maxOpenConns, maxIdleConns int) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), connectPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	p, err := NewPostgres(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("[Postgres] Choice backends initialized",
		"max_open_conns", maxOpenConns,
		"max_idle_conns", maxIdleConns)
	return p, nil
}

// NewPostgres wraps an existing database handle and prepares statements.
func NewPostgres(db *sql.DB) (*Postgres, error) {
	stmtChoices, err := db.Prepare(queryListChoices)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare listChoices statement: %w", err)
	}
	stmtDynamic, err := db.Prepare(queryGetDynamicChoice)
	if err != nil {
		stmtChoices.Close()
		return nil, fmt.Errorf("failed to prepare getDynamicChoice statement: %w", err)
	}
	stmtLookup, err := db.Prepare(queryListLookupValues)
	if err != nil {
		stmtChoices.Close()
		stmtDynamic.Close()
		return nil, fmt.Errorf("failed to prepare listLookupValues statement: %w", err)
	}

	return &Postgres{
		db:              db,
		stmtListChoices: stmtChoices,
		stmtGetDynamic:  stmtDynamic,
		stmtListLookup:  stmtLookup,
	}, nil
}

// DB exposes the underlying handle for health checks and migrations.
func (p *Postgres) DB() *sql.DB { return p.db }

// Close releases prepared statements and the connection pool.
func (p *Postgres) Close() error {
	p.stmtListChoices.Close()
	p.stmtGetDynamic.Close()
	p.stmtListLookup.Close()
	return p.db.Close()
}

func (p *Postgres) ListChoices(ctx context.Context, model, field string) ([]Choice, error) {
	rows, err := p.stmtListChoices.QueryContext(ctx, model, field)
	if err != nil {
		return nil, fmt.Errorf("listing choices for %s.%s: %w", model, field, err)
	}
	defer rows.Close()

	var out []Choice
	for rows.Next() {
		var c Choice
		var ordernum sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Model, &c.Field, &c.Value, &c.Display, &c.Icon, &ordernum); err != nil {
			return nil, fmt.Errorf("scanning choice row: %w", err)
		}
		if ordernum.Valid {
			n := int(ordernum.Int64)
			c.OrderNum = &n
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) GetDynamicChoice(ctx context.Context, id string) (*DynamicChoice, error) {
	var dc DynamicChoice
	err := p.stmtGetDynamic.QueryRowContext(ctx, id).
		Scan(&dc.ID, &dc.ModelName, &dc.Criteria, &dc.ValueCol, &dc.DisplayCol)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching dynamic choice %s: %w", id, err)
	}
	return &dc, nil
}

func (p *Postgres) ListTable(ctx context.Context, name string) ([]LookupEntry, error) {
	rows, err := p.stmtListLookup.QueryContext(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("listing lookup values for %s: %w", name, err)
	}
	defer rows.Close()

	var out []LookupEntry
	for rows.Next() {
		var e LookupEntry
		var ordernum sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Name, &ordernum); err != nil {
			return nil, fmt.Errorf("scanning lookup row: %w", err)
		}
		if ordernum.Valid {
			n := int(ordernum.Int64)
			e.OrderNum = &n
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// QueryOptions executes a dynamic choice's stored criteria against its
// backing table. The SQL is assembled per call; table and column names are
// validated against identPattern and values are bound as parameters.
func (p *Postgres) QueryOptions(ctx context.Context, dc *DynamicChoice, opts QueryOptions) ([]Option, error) {
	conds, err := dc.ParseCriteria()
	if err != nil {
		return nil, err
	}

	query, args, err := buildDynamicQuery(dc, conds, opts)
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("running dynamic choice %s query: %w", dc.ID, err)
	}
	defer rows.Close()

	var out []Option
	seen := make(map[string]bool)
	for rows.Next() {
		var value, display sql.NullString
		if err := rows.Scan(&value, &display); err != nil {
			return nil, fmt.Errorf("scanning dynamic choice row: %w", err)
		}
		if seen[value.String] {
			continue
		}
		seen[value.String] = true
		out = append(out, Option{Value: value.String, Display: display.String})
	}
	return out, rows.Err()
}

func buildDynamicQuery(dc *DynamicChoice, conds []Condition, opts QueryOptions) (string, []interface{}, error) {
	for _, ident := range []string{dc.ModelName, dc.ValueCol, dc.DisplayCol} {
		if !identPattern.MatchString(ident) {
			return "", nil, fmt.Errorf("dynamic choice %s: invalid identifier %q", dc.ID, ident)
		}
	}

	var (
		clauses []string
		args    []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, c := range conds {
		if !identPattern.MatchString(c.Column) {
			return "", nil, fmt.Errorf("dynamic choice %s: invalid criteria column %q", dc.ID, c.Column)
		}
		switch c.Op {
		case "eq":
			clauses = append(clauses, fmt.Sprintf("%s = %s", c.Column, arg(c.Value)))
		case "ne":
			clauses = append(clauses, fmt.Sprintf("%s <> %s", c.Column, arg(c.Value)))
		case "contains":
			clauses = append(clauses, fmt.Sprintf("%s ILIKE '%%' || %s || '%%'", c.Column, arg(c.Value)))
		case "in":
			list, ok := c.Value.([]interface{})
			if !ok {
				return "", nil, fmt.Errorf("dynamic choice %s: 'in' criteria value must be a list", dc.ID)
			}
			vals := make([]string, len(list))
			for i, v := range list {
				vals[i] = fmt.Sprint(v)
			}
			clauses = append(clauses, fmt.Sprintf("%s = ANY(%s)", c.Column, arg(pq.Array(vals))))
		default:
			return "", nil, fmt.Errorf("dynamic choice %s: unsupported criteria op %q", dc.ID, c.Op)
		}
	}
	if opts.ActiveOnly {
		clauses = append(clauses, "is_active = TRUE")
	}

	where := "TRUE"
	if len(clauses) > 0 {
		where = strings.Join(clauses, " AND ")
	}
	if opts.IncludeID != "" {
		where = fmt.Sprintf("(%s) OR id = %s", where, arg(opts.IncludeID))
	}

	query := fmt.Sprintf(
		"SELECT %s, %s FROM %s WHERE %s ORDER BY lower(%s)",
		dc.ValueCol, dc.DisplayCol, dc.ModelName, where, dc.DisplayCol)
	return query, args, nil
}

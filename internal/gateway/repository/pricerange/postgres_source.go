package pricerange

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"stylefit/internal/catalog"
)

const defaultTable = "products"

// PostgresSource derives the legal price range of every category from the
// product table the catalog service writes to. The table needs a text
// `category` column and an integer `price` column.
type PostgresSource struct {
	db    *sql.DB
	table string
}

func NewPostgresSource(dsn, table string) (*PostgresSource, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewPostgresSourceFromDB(db, table), nil
}

func NewPostgresSourceFromDB(db *sql.DB, table string) *PostgresSource {
	table = strings.TrimSpace(table)
	if table == "" {
		table = defaultTable
	}
	return &PostgresSource{db: db, table: table}
}

func (s *PostgresSource) query() (string, []any) {
	b := entsql.Dialect(dialect.Postgres)
	t := b.Table(s.table)
	return b.Select(t.C("category"), entsql.Min(t.C("price")), entsql.Max(t.C("price"))).
		From(t).
		Where(entsql.NotNull(t.C("price"))).
		GroupBy(t.C("category")).
		OrderBy(t.C("category")).
		Query()
}

// PriceRanges merges rows whose labels map to the same category. Rows with
// an unknown category are skipped.
func (s *PostgresSource) PriceRanges(ctx context.Context) (catalog.Ranges, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("price range source is nil")
	}
	query, args := s.query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query price ranges: %w", err)
	}
	defer rows.Close()

	out := catalog.Ranges{}
	for rows.Next() {
		var (
			label  string
			lo, hi int64
		)
		if err := rows.Scan(&label, &lo, &hi); err != nil {
			return nil, fmt.Errorf("scan price range: %w", err)
		}
		cat, ok := catalog.ParseCategory(label)
		if !ok {
			continue
		}
		r, seen := out[cat]
		if !seen {
			out[cat] = catalog.Range{Min: lo, Max: hi}
			continue
		}
		r.Min = min(r.Min, lo)
		r.Max = max(r.Max, hi)
		out[cat] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read price ranges: %w", err)
	}
	return out, nil
}

func (s *PostgresSource) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

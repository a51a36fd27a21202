package pricerange

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"stylefit/internal/catalog"
)

const rangesQuery = `SELECT .*"category".*MIN\(.*"price"\).*MAX\(.*"price"\).*FROM "products".*GROUP BY .*"category"`

func TestPostgresSourceMergesAliases(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(rangesQuery).WillReturnRows(
		sqlmock.NewRows([]string{"category", "min", "max"}).
			AddRow("top", 12000, 89000).
			AddRow("바지", 30000, 99000).
			AddRow("하의", 15000, 70000).
			AddRow("hats", 1, 2),
	)

	src := NewPostgresSourceFromDB(db, "")
	got, err := src.PriceRanges(context.Background())
	if err != nil {
		t.Fatalf("PriceRanges() error = %v", err)
	}
	want := catalog.Ranges{
		catalog.Top:    {Min: 12000, Max: 89000},
		catalog.Bottom: {Min: 15000, Max: 99000},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d: %+v", len(got), len(want), got)
	}
	for cat, r := range want {
		if got[cat] != r {
			t.Fatalf("range[%s] = %+v, want %+v", cat, got[cat], r)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresSourceQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(".*").WillReturnError(errors.New("relation does not exist"))

	if _, err := NewPostgresSourceFromDB(db, "").PriceRanges(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestNilPostgresSource(t *testing.T) {
	var src *PostgresSource
	if _, err := src.PriceRanges(context.Background()); err == nil {
		t.Fatalf("expected error for nil source")
	}
}

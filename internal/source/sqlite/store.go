// Package sqlite is a data source backed by a local SQLite file laid out like
// the REST backend's tables, for offline use and fixtures.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"aruskas/internal/core"
	"aruskas/internal/log"
	"aruskas/internal/source"

	_ "modernc.org/sqlite"
)

type Store struct {
	db     *sql.DB
	logger *log.Logger
}

var _ source.Source = (*Store)(nil)

// Open creates the database file if needed, runs migrations and returns a
// ready store.
func Open(ctx context.Context, dbPath string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, err
	}

	logger = logger.WithComponent(log.ComponentSQLite)
	logger.Debug("database ready", "path", dbPath, log.FieldOperation, log.OpMigrate)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// FetchTransactions mirrors the backend listing: optional category and
// inclusive date filters, newest first, LIMIT/OFFSET paging.
func (s *Store) FetchTransactions(ctx context.Context, filter core.Filter) (source.RawPage, error) {
	f := filter.Normalize()

	where := []string{"t.deleted_at IS NULL"}
	var args []any
	if f.CategoryID != "" {
		where = append(where, "t.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.StartDate != "" {
		where = append(where, "substr(t.date, 1, 10) >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		where = append(where, "substr(t.date, 1, 10) <= ?")
		args = append(args, f.EndDate)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions t WHERE "+cond, args...).Scan(&total); err != nil {
		return source.RawPage{}, s.fail("transactions", err)
	}

	query := `SELECT t.id, t.category_id, t.amount_cents, t.date, t.description, c.id, c.name, c.type
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id AND c.deleted_at IS NULL
		WHERE ` + cond + `
		ORDER BY t.date DESC, t.id DESC
		LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, f.Limit, (f.Page-1)*f.Limit)...)
	if err != nil {
		return source.RawPage{}, s.fail("transactions", err)
	}
	defer rows.Close()

	data := []source.RawTransaction{}
	for rows.Next() {
		var (
			id, cents        int64
			categoryID       sql.NullInt64
			date, desc       string
			catID            sql.NullInt64
			catName, catType sql.NullString
		)
		if err := rows.Scan(&id, &categoryID, &cents, &date, &desc, &catID, &catName, &catType); err != nil {
			return source.RawPage{}, s.fail("transactions", err)
		}
		tx := source.RawTransaction{
			ID:          source.Scalar(strconv.FormatInt(id, 10)),
			Amount:      source.Scalar(decimal.New(cents, -2).String()),
			Date:        source.Scalar(date),
			Description: desc,
		}
		if categoryID.Valid {
			tx.CategoryID = source.Scalar(strconv.FormatInt(categoryID.Int64, 10))
		}
		if catID.Valid {
			tx.Category = &source.RawCategory{
				ID:   source.Scalar(strconv.FormatInt(catID.Int64, 10)),
				Name: catName.String,
				Type: catType.String,
			}
		}
		data = append(data, tx)
	}
	if err := rows.Err(); err != nil {
		return source.RawPage{}, s.fail("transactions", err)
	}

	lastPage := int64(math.Ceil(float64(total) / float64(f.Limit)))
	return source.RawPage{
		Data: data,
		Meta: source.RawMeta{
			Page:     source.Scalar(strconv.Itoa(f.Page)),
			LastPage: source.Scalar(strconv.FormatInt(lastPage, 10)),
			Total:    source.Scalar(strconv.FormatInt(total, 10)),
			Limit:    source.Scalar(strconv.Itoa(f.Limit)),
		},
	}, nil
}

func (s *Store) FetchCategories(ctx context.Context) ([]source.RawCategory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, type FROM categories WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, s.fail("categories", err)
	}
	defer rows.Close()

	out := []source.RawCategory{}
	for rows.Next() {
		var (
			id         int64
			name, kind string
		)
		if err := rows.Scan(&id, &name, &kind); err != nil {
			return nil, s.fail("categories", err)
		}
		out = append(out, source.RawCategory{ID: source.Scalar(strconv.FormatInt(id, 10)), Name: name, Type: kind})
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("categories", err)
	}
	return out, nil
}

// FetchBalance sums every live transaction joined to its category type.
// Transactions without a matching category count toward neither side.
func (s *Store) FetchBalance(ctx context.Context) (source.RawBalance, error) {
	var income, expense int64
	err := s.db.QueryRowContext(ctx, `SELECT
			COALESCE(SUM(CASE WHEN c.type = 'income' THEN t.amount_cents END), 0),
			COALESCE(SUM(CASE WHEN c.type = 'expense' THEN t.amount_cents END), 0)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.deleted_at IS NULL`).Scan(&income, &expense)
	if err != nil {
		return source.RawBalance{}, s.fail("balance", err)
	}
	return source.RawBalance{
		TotalIncome:  source.Scalar(decimal.New(income, -2).String()),
		TotalExpense: source.Scalar(decimal.New(expense, -2).String()),
		Balance:      source.Scalar(decimal.New(income-expense, -2).String()),
	}, nil
}

func (s *Store) fail(op string, err error) error {
	s.logger.Error("query failed", log.FieldOperation, log.OpFetch, log.FieldSource, op, log.FieldError, err.Error())
	return &source.FetchError{Op: op, Err: err}
}

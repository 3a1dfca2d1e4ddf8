package sqlite

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"aruskas/internal/log"
	"aruskas/internal/source"
)

// NewTransaction is the input for AddTransaction. Amount is decimal text and
// is stored as given, so fixtures may hold values the reader later rejects.
type NewTransaction struct {
	CategoryID  int64 // 0 leaves the link empty
	Amount      string
	Date        string
	Description string
}

func (s *Store) AddCategory(ctx context.Context, name, kind string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO categories (name, type) VALUES (?, ?)`, name, kind)
	if err != nil {
		return 0, fmt.Errorf("insert category %q: %w", name, err)
	}
	return res.LastInsertId()
}

func (s *Store) AddTransaction(ctx context.Context, tx NewTransaction) (int64, error) {
	amount, err := decimal.NewFromString(tx.Amount)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", tx.Amount, err)
	}
	var categoryID any
	if tx.CategoryID != 0 {
		categoryID = tx.CategoryID
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (category_id, amount_cents, date, description) VALUES (?, ?, ?, ?)`,
		categoryID, amount.Shift(2).Round(0).IntPart(), tx.Date, tx.Description)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return res.LastInsertId()
}

// DeleteCategory soft-deletes a category; its transactions keep the link.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE categories SET deleted_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now') WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}

// Import loads categories and transactions in the backend's wire shape,
// keeping the given category IDs so transaction links stay intact.
func (s *Store) Import(ctx context.Context, categories []source.RawCategory, txs []source.RawTransaction) error {
	conn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer conn.Rollback()

	for _, c := range categories {
		id, err := strconv.ParseInt(c.ID.String(), 10, 64)
		if err != nil {
			return fmt.Errorf("category %q: invalid id %q", c.Name, c.ID)
		}
		if _, err := conn.ExecContext(ctx,
			`INSERT OR REPLACE INTO categories (id, name, type) VALUES (?, ?, ?)`, id, c.Name, c.Type); err != nil {
			return fmt.Errorf("import category %q: %w", c.Name, err)
		}
	}
	for i, t := range txs {
		amount, err := decimal.NewFromString(t.Amount.String())
		if err != nil {
			return fmt.Errorf("transaction %d: invalid amount %q", i, t.Amount)
		}
		var categoryID any
		if id := t.EffectiveCategoryID(); id != "" {
			categoryID = id
		}
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO transactions (category_id, amount_cents, date, description) VALUES (?, ?, ?, ?)`,
			categoryID, amount.Shift(2).Round(0).IntPart(), t.Date.String(), t.Description); err != nil {
			return fmt.Errorf("import transaction %d: %w", i, err)
		}
	}
	if err := conn.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	s.logger.Info("fixtures imported", log.FieldOperation, log.OpSeed,
		"categories", len(categories), "transactions", len(txs))
	return nil
}

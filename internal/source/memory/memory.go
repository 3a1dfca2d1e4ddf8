// Package memory is an in-process data source fed from fixtures or JSON seed
// files. It answers queries with the same filter and paging rules as the
// REST backend.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"aruskas/internal/core"
	"aruskas/internal/source"
)

const (
	CategoriesFile   = "seed_categories.json"
	TransactionsFile = "seed_transactions.json"
)

type Store struct {
	mu    sync.RWMutex
	cats  []source.RawCategory
	items []source.RawTransaction
	next  int
	// err, when set, makes every fetch fail. Used to exercise failure paths.
	err error
}

var _ source.Source = (*Store)(nil)

func New(cats []source.RawCategory, items []source.RawTransaction) *Store {
	s := &Store{
		cats:  append([]source.RawCategory(nil), cats...),
		items: append([]source.RawTransaction(nil), items...),
	}
	s.next = len(s.items)
	return s
}

// NewFromFiles builds a store from the seed files in dir. See LoadSeeds.
func NewFromFiles(dir string) (*Store, error) {
	cats, items, err := LoadSeeds(dir)
	if err != nil {
		return nil, err
	}
	return New(cats, items), nil
}

// LoadSeeds reads seed_categories.json and seed_transactions.json from dir.
// When neither exists a small built-in set is returned; malformed files fail.
func LoadSeeds(dir string) ([]source.RawCategory, []source.RawTransaction, error) {
	cats, err := readJSON[[]source.RawCategory](filepath.Join(dir, CategoriesFile))
	if err != nil {
		return nil, nil, err
	}
	items, err := readJSON[[]source.RawTransaction](filepath.Join(dir, TransactionsFile))
	if err != nil {
		return nil, nil, err
	}
	if cats == nil && items == nil {
		cats, items = defaultSeed()
	}
	return cats, items, nil
}

// Add appends a transaction and returns the id it was given.
func (s *Store) Add(tx source.RawTransaction) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	if tx.ID == "" {
		tx.ID = source.Scalar(strconv.Itoa(s.next))
	}
	s.items = append(s.items, tx)
	return tx.ID.String()
}

// SetError makes subsequent fetches fail with err; nil restores normal behaviour.
func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Store) FetchTransactions(_ context.Context, filter core.Filter) (source.RawPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return source.RawPage{}, &source.FetchError{Op: "transactions", Err: s.err}
	}
	return source.Paginate(s.items, filter), nil
}

func (s *Store) FetchCategories(_ context.Context) ([]source.RawCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, &source.FetchError{Op: "categories", Err: s.err}
	}
	return append([]source.RawCategory{}, s.cats...), nil
}

func (s *Store) FetchBalance(_ context.Context) (source.RawBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return source.RawBalance{}, &source.FetchError{Op: "balance", Err: s.err}
	}
	return source.SumBalance(s.items, s.cats), nil
}

func readJSON[T any](path string) (T, error) {
	var v T
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", path, err)
	}
	return v, nil
}

func defaultSeed() ([]source.RawCategory, []source.RawTransaction) {
	cats := []source.RawCategory{
		{ID: "1", Name: "Gaji", Type: "income"},
		{ID: "2", Name: "Makan", Type: "expense"},
		{ID: "3", Name: "Transport", Type: "expense"},
	}
	items := []source.RawTransaction{
		{ID: "1", CategoryID: "1", Amount: "50000", Date: "2024-01-01", Description: "Gaji"},
		{ID: "2", CategoryID: "2", Amount: "20000", Date: "2024-01-01", Description: "Makan siang"},
	}
	return cats, items
}

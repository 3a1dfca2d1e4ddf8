package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"aruskas/internal/core"
	"aruskas/internal/source"
)

func TestNewFromFilesDefaults(t *testing.T) {
	s, err := NewFromFiles(t.TempDir())
	if err != nil {
		t.Fatalf("NewFromFiles: %v", err)
	}
	cats, _ := s.FetchCategories(context.Background())
	if len(cats) != 3 {
		t.Fatalf("expected default categories, got %+v", cats)
	}
	bal, _ := s.FetchBalance(context.Background())
	if bal.Balance != "30000" {
		t.Fatalf("unexpected default balance: %+v", bal)
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, CategoriesFile), `[{"id":7,"name":"Bonus","type":"income"}]`)
	writeFile(t, filepath.Join(dir, TransactionsFile), `[
		{"id":1,"category_id":7,"amount":125000.5,"date":"2024-03-01T00:00:00Z"},
		{"id":2,"category_id":7,"amount":"oops","date":"2024-03-02"}
	]`)

	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("NewFromFiles: %v", err)
	}
	page, err := s.FetchTransactions(context.Background(), core.Filter{})
	if err != nil {
		t.Fatalf("FetchTransactions: %v", err)
	}
	if len(page.Data) != 2 || page.Data[0].ID != "2" {
		t.Fatalf("expected both rows newest first, got %+v", page.Data)
	}
	bal, _ := s.FetchBalance(context.Background())
	if bal.TotalIncome != "125000.5" {
		t.Fatalf("unparseable amounts should not count, got %+v", bal)
	}
}

func TestNewFromFilesMalformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, CategoriesFile), `{not json`)
	if _, err := NewFromFiles(dir); err == nil {
		t.Fatalf("expected a decode error")
	}
}

func TestAddAndFailure(t *testing.T) {
	s := New([]source.RawCategory{{ID: "1", Name: "Makan", Type: "expense"}}, nil)
	id := s.Add(source.RawTransaction{CategoryID: "1", Amount: "10", Date: "2024-01-01"})
	if id != "1" {
		t.Fatalf("Add() id = %q, want 1", id)
	}

	boom := errors.New("offline")
	s.SetError(boom)
	_, err := s.FetchTransactions(context.Background(), core.Filter{})
	var fe *source.FetchError
	if !errors.As(err, &fe) || !errors.Is(err, boom) {
		t.Fatalf("expected FetchError wrapping the injected error, got %v", err)
	}

	s.SetError(nil)
	page, err := s.FetchTransactions(context.Background(), core.Filter{})
	if err != nil || len(page.Data) != 1 {
		t.Fatalf("store should recover, got %+v, %v", page, err)
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

package source

import (
	"context"

	"aruskas/internal/core"
)

// Ports for inbound data adapters.
type (
	// TransactionFetcher returns one page of transactions for a filter.
	TransactionFetcher interface {
		FetchTransactions(ctx context.Context, filter core.Filter) (RawPage, error)
	}

	// CategoryFetcher returns every category known to the backend.
	CategoryFetcher interface {
		FetchCategories(ctx context.Context) ([]RawCategory, error)
	}

	// BalanceFetcher returns the backend's own balance over all transactions.
	BalanceFetcher interface {
		FetchBalance(ctx context.Context) (RawBalance, error)
	}

	// Source is the full collaborator the dashboard reads from.
	Source interface {
		TransactionFetcher
		CategoryFetcher
		BalanceFetcher
	}

	// Invalidator is implemented by sources that cache backend data and can
	// drop it when the data is known to have changed.
	Invalidator interface {
		Invalidate()
	}
)

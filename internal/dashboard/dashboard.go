// Package dashboard owns the mutable reporting state. A refresh fetches a
// page, the categories and the server balance concurrently, reconciles the
// page and rebuilds every derived view. Results are applied last-writer-wins:
// a refresh that finishes after a newer one has been applied is discarded.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"aruskas/internal/classify"
	"aruskas/internal/core"
	"aruskas/internal/log"
	"aruskas/internal/reconcile"
	"aruskas/internal/report"
	"aruskas/internal/source"
	"aruskas/internal/trace"
)

// BalanceSource decides which summary backs the balance card.
type BalanceSource string

const (
	BalanceServer BalanceSource = "server"
	BalanceLocal  BalanceSource = "local"
)

// ErrStale is returned by a refresh whose result was discarded because a
// newer refresh had already been applied.
var ErrStale = errors.New("stale refresh discarded")

type Options struct {
	Day      report.DayOptions
	Location *time.Location
	Balance  BalanceSource
	Logger   *log.Logger
	Now      func() time.Time
}

// View is one consistent snapshot of the dashboard.
type View struct {
	Filter       core.Filter
	Transactions []core.Transaction
	Page         core.PageMetadata
	Skipped      []reconcile.Skip
	Categories   []core.Category
	Classifier   *classify.Classifier

	// Summary is the authoritative balance card. LocalSummary is reduced from
	// the fetched page; ServerSummary is nil when the backend's figures could
	// not be read.
	Summary         core.Summary
	LocalSummary    core.Summary
	ServerSummary   *core.Summary
	BalanceDiverges bool

	ByCategory       []core.CategoryAmount
	IncomeByCategory []core.CategoryAmount
	ByDay            []core.DayBucket
	Month            core.MonthComparison

	RefreshedAt time.Time
	Seq         uint64
}

// Ready reports whether any refresh has been applied yet.
func (v View) Ready() bool {
	return v.Seq > 0
}

type Dashboard struct {
	src    source.Source
	opts   Options
	logger *log.Logger

	seq atomic.Uint64

	mu      sync.RWMutex
	view    View
	applied uint64
	filter  core.Filter
}

func New(src source.Source, opts Options) *Dashboard {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Balance == "" {
		opts.Balance = BalanceServer
	}
	if opts.Day.Order == "" {
		opts.Day.Order = report.OrderChronological
	}
	return &Dashboard{
		src:    src,
		opts:   opts,
		logger: opts.Logger.WithComponent(log.ComponentDashboard),
		filter: core.Filter{}.Normalize(),
	}
}

// Current returns the last applied view.
func (d *Dashboard) Current() View {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.view
}

// Filter returns the filter of the most recent refresh request.
func (d *Dashboard) Filter() core.Filter {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.filter
}

// Invalidate drops any data the source caches.
func (d *Dashboard) Invalidate() {
	if inv, ok := d.src.(source.Invalidator); ok {
		inv.Invalidate()
	}
}

// Reload refreshes with the most recently requested filter.
func (d *Dashboard) Reload(ctx context.Context) (View, error) {
	return d.Refresh(ctx, d.Filter())
}

// Refresh fetches and rebuilds the view for filter. On a fetch failure the
// previous view is returned unchanged together with the error.
func (d *Dashboard) Refresh(ctx context.Context, filter core.Filter) (View, error) {
	filter = filter.Normalize()
	seq := d.seq.Add(1)
	start := time.Now()
	ctx, requestID := trace.Ensure(ctx)

	d.mu.Lock()
	d.filter = filter
	d.mu.Unlock()

	fields := log.NewFields().WithOperation(log.OpRefresh).WithFilter(filter)
	logger := d.logger.With(append(fields.ToSlice(), log.FieldSeq, seq, log.FieldRequestID, requestID)...)

	var (
		page       source.RawPage
		rawCats    []source.RawCategory
		rawBalance source.RawBalance
		balanceErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = d.src.FetchTransactions(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		rawCats, err = d.src.FetchCategories(gctx)
		return err
	})
	g.Go(func() error {
		// The balance card falls back to the local summary, so a failed
		// balance fetch does not fail the refresh.
		rawBalance, balanceErr = d.src.FetchBalance(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "Refresh failed, keeping previous view",
			log.NewFields().WithError(err, errorType(err)).ToSlice()...)
		return d.Current(), fmt.Errorf("refresh dashboard: %w", err)
	}

	view := d.build(ctx, filter, page, rawCats)
	view.Seq = seq
	view.RefreshedAt = d.opts.Now()

	if balanceErr != nil {
		logger.WarnContext(ctx, "Server balance unavailable, using page summary",
			log.FieldError, balanceErr.Error())
	} else if server, err := reconcile.ParseBalance(rawBalance); err != nil {
		logger.WarnContext(ctx, "Server balance unreadable, using page summary",
			log.FieldError, err.Error())
	} else {
		view.ServerSummary = &server
		view.BalanceDiverges = server != view.LocalSummary
		if d.opts.Balance == BalanceServer {
			view.Summary = server
		}
	}

	d.mu.Lock()
	if seq <= d.applied {
		current := d.view
		d.mu.Unlock()
		logger.InfoContext(ctx, "Discarding stale refresh", log.FieldErrorType, log.ErrorTypeStale)
		return current, ErrStale
	}
	d.applied = seq
	d.view = view
	d.mu.Unlock()

	logger.InfoContext(ctx, "Dashboard refreshed",
		append(log.NewFields().WithPage(view.Page).WithDuration(time.Since(start)).ToSlice(),
			log.FieldKept, len(view.Transactions), log.FieldSkipped, len(view.Skipped))...)
	return view, nil
}

func (d *Dashboard) build(ctx context.Context, filter core.Filter, page source.RawPage, rawCats []source.RawCategory) View {
	cats := Categories(rawCats)
	cls := classify.New(cats)
	rep := report.New(cls)

	res := reconcile.Reconcile(ctx, page, reconcile.Options{
		Location: d.opts.Location,
		Logger:   d.logger.WithComponent(log.ComponentReconcile),
	})
	txs := reconcile.Sanitize(res.Clean)
	local := rep.Summarize(txs)

	now := d.opts.Now().In(d.opts.Location)
	return View{
		Filter:           filter,
		Transactions:     txs,
		Page:             res.Page,
		Skipped:          res.Skipped,
		Categories:       cats,
		Classifier:       cls,
		Summary:          local,
		LocalSummary:     local,
		ByCategory:       rep.ByCategory(txs),
		IncomeByCategory: rep.ByCategoryFor(txs, core.Income),
		ByDay:            rep.ByDay(txs, d.opts.Day),
		Month:            rep.CompareMonths(txs, now.Year(), int(now.Month())),
	}
}

// Categories converts raw categories, dropping those without an ID.
func Categories(raw []source.RawCategory) []core.Category {
	out := make([]core.Category, 0, len(raw))
	for _, c := range raw {
		if c.ID.IsZero() {
			continue
		}
		out = append(out, core.Category{ID: c.ID.String(), Name: c.Name, Type: c.Type})
	}
	return out
}

func errorType(err error) string {
	var fe *source.FetchError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return log.ErrorTypeTimeout
	case errors.As(err, &fe) && (fe.Status == 401 || fe.Status == 403):
		return log.ErrorTypeAuth
	default:
		return log.ErrorTypeNetwork
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"aruskas/internal/amqp"
	"aruskas/internal/backend"
	"aruskas/internal/cache"
	"aruskas/internal/config"
	"aruskas/internal/dashboard"
	"aruskas/internal/format"
	"aruskas/internal/insight"
	"aruskas/internal/log"
	"aruskas/internal/report"
	"aruskas/internal/source"
	"aruskas/internal/source/memory"
	"aruskas/internal/source/sqlite"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentCLI,
		Format:    cfg.LogFormat,
		Output:    os.Stderr,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	opts, err := parseFlags(os.Args[1:], cfg.PageLimit, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logger, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("aruskas failed", log.FieldError, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts cliOptions, logger *log.Logger, out io.Writer) error {
	if opts.importDir != "" {
		return runImport(ctx, cfg, opts.importDir, logger)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Failed to close data source", log.FieldError, err)
		}
	}()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	order, err := report.ParseDayOrder(cfg.DayOrder)
	if err != nil {
		return err
	}

	dash := dashboard.New(res.Source, dashboard.Options{
		Day:      report.DayOptions{WindowSize: cfg.DayWindow, Order: order},
		Location: loc,
		Balance:  dashboard.BalanceSource(cfg.BalanceSource),
		Logger:   logger,
	})
	p := &printer{out: out, cur: format.NewCurrency(cfg.Locale, cfg.CurrencySymbol)}

	view, err := dash.Refresh(ctx, opts.filter)
	if err != nil {
		return err
	}
	p.print(view)

	if opts.insight {
		if err := printInsight(ctx, cfg, view, logger, out); err != nil {
			logger.Warn("Insight unavailable", log.FieldError, err)
		}
	}

	if !opts.watch {
		return nil
	}
	return watch(ctx, cfg, opts, dash, res.Source, p, logger)
}

type printer struct {
	mu  sync.Mutex
	out io.Writer
	cur *format.Currency
}

func (p *printer) print(v dashboard.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	render(p.out, v, p.cur, time.Now())
}

func printInsight(ctx context.Context, cfg *config.Config, view dashboard.View, logger *log.Logger, out io.Writer) error {
	if !cfg.InsightEnabled() {
		return errors.New("GEMINI_API_KEY is not set")
	}
	advisor, err := insight.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.InsightLimit, logger)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	advice, err := advisor.Advise(ctx, view.Transactions, view.Classifier)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nInsight: %s\n", advice)
	return nil
}

// watch re-renders the dashboard whenever a change notification arrives, or
// on every poll interval when no broker is configured.
func watch(ctx context.Context, cfg *config.Config, opts cliOptions, dash *dashboard.Dashboard, src source.Source, p *printer, logger *log.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	if cleaner, ok := src.(cache.Cleaner); ok {
		janitor := cache.NewJanitor(logger, cleaner)
		g.Go(func() error {
			janitor.Run(gctx, time.Minute)
			return nil
		})
	}

	reload := func(ctx context.Context) error {
		view, err := dash.Reload(ctx)
		if errors.Is(err, dashboard.ErrStale) {
			return nil
		}
		if err != nil {
			return err
		}
		p.print(view)
		return nil
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewConsumer(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return err
		}
		defer client.Close()

		logger.Info("Watching for change events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		g.Go(func() error {
			return client.Consume(gctx, func(ctx context.Context, ev *amqp.ChangeEvent) error {
				if ev.AffectsCategories() {
					dash.Invalidate()
				}
				return reload(ctx)
			})
		})
	} else {
		logger.Info("Polling for changes", "interval", opts.interval.String())
		g.Go(func() error {
			ticker := time.NewTicker(opts.interval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-ticker.C:
					dash.Invalidate()
					if err := reload(gctx); err != nil {
						logger.Error("Refresh failed", log.FieldError, err)
					}
				}
			}
		})
	}

	err := g.Wait()
	logger.Info("Stopped watching", log.FieldOperation, log.OpShutdown)
	return err
}

// runImport copies seed files into the SQLite database and announces the
// change so watching dashboards refresh.
func runImport(ctx context.Context, cfg *config.Config, dir string, logger *log.Logger) error {
	cats, txs, err := memory.LoadSeeds(dir)
	if err != nil {
		return err
	}
	store, err := sqlite.Open(ctx, cfg.SQLiteDBPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Import(ctx, cats, txs); err != nil {
		return err
	}
	if cfg.AMQPURL == "" {
		return nil
	}

	client, err := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Publish(ctx, amqp.NewChangeEvent(amqp.EntityCategory, amqp.ActionImported, "")); err != nil {
		return err
	}
	return nil
}

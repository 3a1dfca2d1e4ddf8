package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"aruskas/internal/core"
)

type cliOptions struct {
	filter    core.Filter
	insight   bool
	watch     bool
	interval  time.Duration
	importDir string
}

func parseFlags(args []string, defaultLimit int, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("aruskas", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.filter.CategoryID, "category", "", "only show transactions of this category ID")
	fs.StringVar(&opts.filter.StartDate, "from", "", "start date, YYYY-MM-DD (inclusive)")
	fs.StringVar(&opts.filter.EndDate, "to", "", "end date, YYYY-MM-DD (inclusive)")
	fs.IntVar(&opts.filter.Page, "page", 1, "page to fetch")
	fs.IntVar(&opts.filter.Limit, "limit", defaultLimit, "transactions per page")
	fs.BoolVar(&opts.insight, "insight", false, "ask Gemini for advice on the fetched page")
	fs.BoolVar(&opts.watch, "watch", false, "keep running and refresh when data changes")
	fs.DurationVar(&opts.interval, "interval", 30*time.Second, "poll interval in watch mode without AMQP")
	fs.StringVar(&opts.importDir, "import", "", "import seed JSON files from this directory into the SQLite database and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	if fs.NArg() > 0 {
		return cliOptions{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	for name, v := range map[string]string{"from": opts.filter.StartDate, "to": opts.filter.EndDate} {
		if v == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return cliOptions{}, fmt.Errorf("invalid -%s date %q: want YYYY-MM-DD", name, v)
		}
	}
	if opts.filter.StartDate != "" && opts.filter.EndDate != "" && opts.filter.StartDate > opts.filter.EndDate {
		return cliOptions{}, fmt.Errorf("-from %s is after -to %s", opts.filter.StartDate, opts.filter.EndDate)
	}
	if opts.filter.Page < 1 {
		return cliOptions{}, fmt.Errorf("invalid -page %d", opts.filter.Page)
	}
	if opts.filter.Limit < 1 || opts.filter.Limit > 1000 {
		return cliOptions{}, fmt.Errorf("invalid -limit %d: must be between 1 and 1000", opts.filter.Limit)
	}
	if opts.watch && opts.interval <= 0 {
		return cliOptions{}, fmt.Errorf("invalid -interval %v", opts.interval)
	}
	return opts, nil
}

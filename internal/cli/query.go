package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/Hoshiningen/MonoidTalk/internal/config"
	"github.com/Hoshiningen/MonoidTalk/internal/dataset"
	"github.com/Hoshiningen/MonoidTalk/pkg/bakery"
	"github.com/Hoshiningen/MonoidTalk/pkg/query"
	"github.com/Hoshiningen/MonoidTalk/pkg/workpool"
)

var (
	errNoDataset         = errors.New("no dataset (run 'monoid generate' first)")
	errPartitionsInvalid = errors.New("partitions cannot be negative")
)

// QueryCmd returns the query command.
func QueryCmd(a *app) *Command {
	flags := flag.NewFlagSet("query", flag.ContinueOnError)
	strategy := flags.StringP("strategy", "s", a.cfg.Strategy, "sequential, incremental, parallel or all")
	limit := flags.IntP("limit", "k", -1, "Query the first `K` transactions (default all)")
	partitions := flags.IntP("partitions", "p", 0, "Parallel partition count (default worker count)")

	return &Command{
		Flags: flags,
		Usage: "query [flags]",
		Short: "Answer the three sales queries",
		Long: "Load the dataset and report the least and most popular food types, the number of\n" +
			"tickets over 15.00 and the largest ticket. With --strategy all, every strategy\n" +
			"answers and any disagreement is an error.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execQuery(ctx, o, a, *strategy, *limit, *partitions)
		},
	}
}

func execQuery(ctx context.Context, o *IO, a *app, strategy string, limit, partitions int) error {
	kinds, err := parseStrategies(strategy)
	if err != nil {
		return err
	}

	if partitions < 0 {
		return fmt.Errorf("%w: %d", errPartitionsInvalid, partitions)
	}

	ds, err := a.loadDataset()
	if err != nil {
		return err
	}

	view := ds.Transactions.All()
	if limit >= 0 {
		view, err = ds.Transactions.View(limit)
		if err != nil {
			return err
		}
	}

	pool := a.newPool()
	defer pool.Close()

	strategies := make([]query.Strategy, 0, len(kinds))

	for _, k := range kinds {
		s, err := newStrategy(k, a.catalog, pool, partitions)
		if err != nil {
			return err
		}

		strategies = append(strategies, s)
	}

	if err := errCanceled(ctx); err != nil {
		return err
	}

	start := time.Now()

	results, err := query.Compare(view, strategies...)
	if err != nil {
		return err
	}

	a.log.Debug("answered queries", "strategies", len(strategies), "transactions", view.Len(), "elapsed", time.Since(start))

	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}

	o.Println("strategy=" + strings.Join(names, ","))
	printResults(o, view.Len(), results)

	return nil
}

func printResults(o *IO, n int, r query.Results) {
	o.Printf("transactions=%d\n", n)
	o.Printf("least_popular=%s\n", r.Extremes.Least)
	o.Printf("most_popular=%s\n", r.Extremes.Most)
	o.Printf("over_threshold=%d\n", r.OverThreshold)
	o.Printf("max_purchases=%d\n", r.MaxPurchases)
}

// parseStrategies expands a strategy name, or "all", into kinds.
func parseStrategies(name string) ([]query.Kind, error) {
	if name == config.StrategyAll {
		return query.Kinds(), nil
	}

	k, err := query.ParseKind(name)
	if err != nil {
		return nil, err
	}

	return []query.Kind{k}, nil
}

func newStrategy(k query.Kind, c *bakery.Catalog, pool *workpool.Pool, partitions int) (query.Strategy, error) {
	if k == query.KindParallel && partitions > 0 {
		return query.NewParallel(c, pool, partitions), nil
	}

	return query.New(k, c, pool)
}

func (a *app) loadDataset() (*dataset.Dataset, error) {
	start := time.Now()

	ds, err := dataset.Load(a.cfg.DataDirAbs, a.catalog)
	if errors.Is(err, dataset.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", errNoDataset, a.cfg.DataDirAbs)
	}

	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	a.log.Debug("loaded dataset",
		"id", ds.Manifest.ID.String(),
		"transactions", ds.Transactions.Len(),
		"elapsed", time.Since(start),
	)

	return ds, nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/Hoshiningen/MonoidTalk/pkg/bakery"
	"github.com/Hoshiningen/MonoidTalk/pkg/query"
)

var (
	errBenchSize   = errors.New("benchmark size out of range")
	errBenchRepeat = errors.New("repeat must be at least 1")
)

// BenchCmd returns the bench command.
func BenchCmd(a *app) *Command {
	flags := flag.NewFlagSet("bench", flag.ContinueOnError)
	sizes := flags.IntSlice("sizes", nil, "Comma-separated view sizes (default quarters of the dataset)")
	repeat := flags.IntP("repeat", "r", 1, "Rounds per size; the fastest round is reported")
	partitions := flags.IntP("partitions", "p", 0, "Parallel partition count (default worker count)")

	return &Command{
		Flags: flags,
		Usage: "bench [flags]",
		Short: "Time each strategy over growing views",
		Long: "Feed one long-lived instance of each strategy a series of growing views of the\n" +
			"dataset and report the time each view took. Every answer must match a sequential run.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execBench(ctx, o, a, *sizes, *repeat, *partitions)
		},
	}
}

func execBench(ctx context.Context, o *IO, a *app, sizes []int, repeat, partitions int) error {
	if repeat < 1 {
		return fmt.Errorf("%w: %d", errBenchRepeat, repeat)
	}

	if partitions < 0 {
		return fmt.Errorf("%w: %d", errPartitionsInvalid, partitions)
	}

	ds, err := a.loadDataset()
	if err != nil {
		return err
	}

	seq := ds.Transactions

	sizes, err = benchSizes(sizes, seq.Len())
	if err != nil {
		return err
	}

	pool := a.newPool()
	defer pool.Close()

	kinds := query.Kinds()

	want, err := referenceResults(a.catalog, seq, sizes)
	if err != nil {
		return err
	}

	// best[i][j] is the fastest time for kinds[i] at sizes[j].
	best := make([][]time.Duration, len(kinds))

	for round := range repeat {
		// Fresh instances each round: the incremental strategy only accepts
		// growing views.
		for i, k := range kinds {
			s, err := newStrategy(k, a.catalog, pool, partitions)
			if err != nil {
				return err
			}

			times, err := benchStrategy(ctx, s, seq, sizes, want)
			if err != nil {
				return err
			}

			if round == 0 {
				best[i] = times

				continue
			}

			for j, d := range times {
				best[i][j] = min(best[i][j], d)
			}
		}
	}

	o.Printf("%-12s", "size")

	for _, k := range kinds {
		o.Printf(" %14s", k)
	}

	o.Println()

	for j, n := range sizes {
		o.Printf("%-12d", n)

		for i := range kinds {
			o.Printf(" %14s", best[i][j].Round(time.Microsecond))
		}

		o.Println()
	}

	a.log.Debug("benchmark done", "sizes", len(sizes), "repeat", repeat, "workers", pool.Workers())

	return nil
}

// referenceResults answers every size with a fresh sequential strategy.
func referenceResults(c *bakery.Catalog, seq *bakery.Sequence, sizes []int) ([]query.Results, error) {
	want := make([]query.Results, len(sizes))

	for j, n := range sizes {
		view, err := seq.View(n)
		if err != nil {
			return nil, err
		}

		want[j], err = query.Run(query.NewSequential(c), view)
		if err != nil {
			return nil, fmt.Errorf("sequential at %d: %w", n, err)
		}
	}

	return want, nil
}

// benchStrategy feeds s the views sizes[0] < sizes[1] < ... in order and
// returns the time each took. Every answer must equal want at the same index.
func benchStrategy(ctx context.Context, s query.Strategy, seq *bakery.Sequence, sizes []int, want []query.Results) ([]time.Duration, error) {
	times := make([]time.Duration, len(sizes))

	for j, n := range sizes {
		if err := errCanceled(ctx); err != nil {
			return nil, err
		}

		view, err := seq.View(n)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		got, err := query.Run(s, view)
		times[j] = time.Since(start)

		if err != nil {
			return nil, fmt.Errorf("%s at %d: %w", s.Kind(), n, err)
		}

		if got != want[j] {
			return nil, fmt.Errorf("%w: at %d sequential returned {%s}, %s returned {%s}",
				query.ErrStrategyMismatch, n, want[j], s.Kind(), got)
		}
	}

	return times, nil
}

// benchSizes validates requested sizes against the dataset length and
// returns them sorted and deduplicated. With no request it returns the four
// quarter points of the dataset.
func benchSizes(requested []int, total int) ([]int, error) {
	if len(requested) == 0 {
		if total == 0 {
			return nil, fmt.Errorf("%w: dataset is empty", errBenchSize)
		}

		requested = slices.DeleteFunc([]int{total / 4, total / 2, total * 3 / 4, total}, func(n int) bool {
			return n == 0
		})
	}

	sizes := make([]int, 0, len(requested))

	for _, n := range requested {
		if n < 1 || n > total {
			return nil, fmt.Errorf("%w: %d (dataset has %d transactions)", errBenchSize, n, total)
		}

		sizes = append(sizes, n)
	}

	slices.Sort(sizes)

	return slices.Compact(sizes), nil
}

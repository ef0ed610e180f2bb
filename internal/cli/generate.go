package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/Hoshiningen/MonoidTalk/internal/dataset"
	"github.com/Hoshiningen/MonoidTalk/pkg/bakery"
)

var errCountNegative = errors.New("count cannot be negative")

// GenerateCmd returns the generate command.
func GenerateCmd(a *app) *Command {
	flags := flag.NewFlagSet("generate", flag.ContinueOnError)
	count := flags.IntP("count", "n", a.cfg.CountValue(), "Number of transactions")
	seed := flags.Uint64("seed", a.cfg.SeedValue(), "Generator seed")
	parallel := flags.Bool("parallel", false, "Generate on all workers (same output as sequential)")

	return &Command{
		Flags: flags,
		Usage: "generate [flags]",
		Short: "Generate and save a transaction dataset",
		Long: "Generate a deterministic set of bakery transactions and save it to the data directory,\n" +
			"replacing any dataset already there. The same count and seed always produce the same data.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execGenerate(ctx, o, a, *count, *seed, *parallel)
		},
	}
}

func execGenerate(ctx context.Context, o *IO, a *app, count int, seed uint64, parallel bool) error {
	if count < 0 {
		return fmt.Errorf("%w: %d", errCountNegative, count)
	}

	start := time.Now()

	var (
		txns []bakery.Transaction
		err  error
	)

	if parallel {
		txns, err = bakery.GenerateParallel(ctx, a.catalog, count, seed, a.cfg.WorkerCount())
	} else {
		txns, err = bakery.Generate(a.catalog, count, seed)
	}

	if err != nil {
		return fmt.Errorf("generating transactions: %w", err)
	}

	a.log.Debug("generated transactions", "count", len(txns), "seed", seed, "parallel", parallel, "elapsed", time.Since(start))

	if err := errCanceled(ctx); err != nil {
		return err
	}

	replacing := dataset.Exists(a.cfg.DataDirAbs)

	ds, err := dataset.New(txns, seed, time.Now())
	if err != nil {
		return err
	}

	err = dataset.Save(a.cfg.DataDirAbs, ds)
	if err != nil {
		return fmt.Errorf("saving dataset: %w", err)
	}

	a.log.Debug("saved dataset", "dir", a.cfg.DataDirAbs, "replaced", replacing, "elapsed", time.Since(start))

	o.Printf("generated %d transactions (seed=%d)\n", len(txns), seed)
	o.Println("id=" + ds.Manifest.ID.String())
	o.Println("dir=" + a.cfg.DataDirAbs)

	return nil
}

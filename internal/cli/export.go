package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/Hoshiningen/MonoidTalk/internal/dataset"
)

var errPathRequired = errors.New("sqlite file path is required")

// ExportCmd returns the export command.
func ExportCmd(a *app) *Command {
	return &Command{
		Flags:   flag.NewFlagSet("export", flag.ContinueOnError),
		Usage:   "export <file.sqlite>",
		Short:   "Write the dataset and menu to a SQLite file",
		MaxArgs: 1,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			path, err := a.sqlitePath(args)
			if err != nil {
				return err
			}

			ds, err := a.loadDataset()
			if err != nil {
				return err
			}

			err = dataset.ExportSQLite(ctx, path, ds, a.catalog)
			if err != nil {
				return fmt.Errorf("exporting: %w", err)
			}

			o.Printf("exported %d transactions to %s\n", ds.Transactions.Len(), path)

			return nil
		},
	}
}

// ImportCmd returns the import command.
func ImportCmd(a *app) *Command {
	return &Command{
		Flags:   flag.NewFlagSet("import", flag.ContinueOnError),
		Usage:   "import <file.sqlite>",
		Short:   "Replace the dataset with one read from a SQLite export",
		MaxArgs: 1,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			path, err := a.sqlitePath(args)
			if err != nil {
				return err
			}

			ds, err := dataset.ImportSQLite(ctx, path, a.catalog)
			if err != nil {
				return fmt.Errorf("importing: %w", err)
			}

			err = dataset.Save(a.cfg.DataDirAbs, ds)
			if err != nil {
				return fmt.Errorf("saving dataset: %w", err)
			}

			o.Printf("imported %d transactions from %s\n", ds.Transactions.Len(), path)

			return nil
		},
	}
}

func (a *app) sqlitePath(args []string) (string, error) {
	if len(args) == 0 {
		return "", errPathRequired
	}

	if filepath.IsAbs(args[0]) {
		return args[0], nil
	}

	return filepath.Join(a.cfg.EffectiveCwd, args[0]), nil
}

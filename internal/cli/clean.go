package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/Hoshiningen/MonoidTalk/internal/dataset"
)

// CleanCmd returns the clean command.
func CleanCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("clean", flag.ContinueOnError),
		Usage: "clean",
		Short: "Delete the saved dataset",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			if !dataset.Exists(a.cfg.DataDirAbs) {
				o.Warn("no dataset in "+a.cfg.DataDirAbs, "nothing to remove")

				return nil
			}

			err := dataset.Remove(a.cfg.DataDirAbs)
			if err != nil {
				return err
			}

			o.Println("removed dataset in " + a.cfg.DataDirAbs)

			return nil
		},
	}
}

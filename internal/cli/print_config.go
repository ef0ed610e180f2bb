package cli

import (
	"context"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/Hoshiningen/MonoidTalk/internal/config"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(cfg *config.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files and variables it came from.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execPrintConfig(o, cfg)
		},
	}
}

func execPrintConfig(o *IO, cfg *config.Config) error {
	formatted, err := config.Format(*cfg)
	if err != nil {
		return err
	}

	o.Println(formatted)
	o.Println()
	o.Println("effective_cwd=" + cfg.EffectiveCwd)
	o.Println("data_dir=" + cfg.DataDirAbs)
	o.Println()
	o.Println("# sources")

	src := cfg.Sources
	if src.Global == "" && src.Project == "" && src.EnvFile == "" && len(src.EnvVars) == 0 {
		o.Println("(defaults only)")

		return nil
	}

	if src.Global != "" {
		o.Println("global_config=" + src.Global)
	}

	if src.Project != "" {
		o.Println("project_config=" + src.Project)
	}

	if src.EnvFile != "" {
		o.Println("env_file=" + src.EnvFile)
	}

	if len(src.EnvVars) > 0 {
		o.Println("env=" + strings.Join(src.EnvVars, ","))
	}

	return nil
}

// Package cli implements the monoid command line: dataset generation, the
// three query strategies, benchmarks and an interactive shell.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/Hoshiningen/MonoidTalk/internal/config"
	"github.com/Hoshiningen/MonoidTalk/pkg/bakery"
	"github.com/Hoshiningen/MonoidTalk/pkg/workpool"
)

// app is the state shared by every command of one invocation.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	catalog *bakery.Catalog
	in      io.Reader
	env     map[string]string
}

func (a *app) newPool() *workpool.Pool {
	return workpool.New(a.cfg.WorkerCount())
}

func commands(a *app) []*Command {
	return []*Command{
		GenerateCmd(a),
		QueryCmd(a),
		BenchCmd(a),
		ReplCmd(a),
		ExportCmd(a),
		ImportCmd(a),
		CleanCmd(a),
		PrintConfigCmd(a.cfg),
	}
}

// Run is the main entry point. Returns exit code. A signal on sigCh cancels
// the running command; sigCh may be nil.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	global := flag.NewFlagSet("monoid", flag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(&strings.Builder{})

	workDir := global.StringP("cwd", "C", "", "Run as if started in `dir`")
	configPath := global.StringP("config", "c", "", "Use specified config `file`")
	dataDir := global.String("data-dir", "", "Dataset `dir` (overrides config)")
	workers := global.Int("workers", 0, "Worker pool size, 0 means GOMAXPROCS (overrides config)")
	verbose := global.BoolP("verbose", "v", false, "Log debug output to stderr")
	help := global.BoolP("help", "h", false, "Show help")

	if len(args) > 0 {
		args = args[1:]
	}

	err := global.Parse(args)
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut, global, nil)

		return 1
	}

	rest := global.Args()

	if *help || len(rest) == 0 {
		printUsage(out, global, nil)

		return 0
	}

	input := config.LoadInput{
		WorkDirOverride: *workDir,
		ConfigPath:      *configPath,
		DataDirOverride: *dataDir,
		Env:             env,
	}

	if global.Changed("workers") {
		input.WorkersOverride = workers
	}

	cfg, err := config.Load(input)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	a := &app{
		cfg:     &cfg,
		log:     newLogger(errOut, *verbose),
		catalog: bakery.DefaultCatalog(),
		in:      in,
		env:     env,
	}

	cmds := commands(a)

	var cmd *Command

	for _, c := range cmds {
		if c.Name() == rest[0] {
			cmd = c

			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error: unknown command:", rest[0])
		printUsage(errOut, global, cmds)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case sig := <-sigCh:
				a.log.Info("interrupted", "signal", sig.String())
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	o := NewIO(out, errOut)

	a.log.Debug("running command",
		"command", cmd.Name(),
		"data_dir", cfg.DataDirAbs,
		"workers", cfg.WorkerCount(),
	)

	code := cmd.Run(ctx, o, rest[1:])
	if code != 0 {
		return code
	}

	return o.Finish()
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, global *flag.FlagSet, cmds []*Command) {
	if cmds == nil {
		cmds = commands(&app{cfg: &config.Config{}})
	}

	fprintln(w, `monoid - bakery sales queries over commutative monoids

Usage: monoid [options] <command> [args]

Options:`)

	var buf strings.Builder

	global.SetOutput(&buf)
	global.PrintDefaults()
	global.SetOutput(&strings.Builder{})
	_, _ = io.WriteString(w, buf.String())

	fprintln(w)
	fprintln(w, "Commands:")

	for _, c := range cmds {
		fprintln(w, c.HelpLine())
	}

	fprintln(w)
	fprintln(w, `Run "monoid <command> --help" for command flags.`)
}

// errCanceled reports ctx's error with a stable message.
func errCanceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", errInterrupted, err)
	}

	return nil
}

var errInterrupted = errors.New("interrupted")

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/Hoshiningen/MonoidTalk/internal/dataset"
	"github.com/Hoshiningen/MonoidTalk/pkg/bakery"
	"github.com/Hoshiningen/MonoidTalk/pkg/query"
	"github.com/Hoshiningen/MonoidTalk/pkg/workpool"
)

var (
	errReplUsage   = errors.New("usage")
	errReplUnknown = errors.New("unknown command (type 'help' for commands)")
)

const historyFileName = ".monoid_history"

// ReplCmd returns the repl command.
func ReplCmd(a *app) *Command {
	flags := flag.NewFlagSet("repl", flag.ContinueOnError)
	strategy := flags.StringP("strategy", "s", string(query.KindIncremental), "Starting strategy")
	partitions := flags.IntP("partitions", "p", 0, "Parallel partition count (default worker count)")

	return &Command{
		Flags: flags,
		Usage: "repl [flags]",
		Short: "Interactive shell over one long-lived strategy",
		Long: "Query growing views of the dataset with one strategy instance kept across commands,\n" +
			"so the incremental strategy's cache carries over between queries.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execRepl(ctx, o, a, *strategy, *partitions)
		},
	}
}

func execRepl(ctx context.Context, o *IO, a *app, strategy string, partitions int) error {
	kind, err := query.ParseKind(strategy)
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

	pool := a.newPool()
	defer pool.Close()

	sess, err := newSession(o.Out(), ds, a.catalog, pool, partitions, kind)
	if err != nil {
		return err
	}

	if f, ok := a.in.(*os.File); ok && f == os.Stdin {
		return runLiner(ctx, sess, historyPath(a.env))
	}

	return runScanner(ctx, sess, a.in)
}

func historyPath(env map[string]string) string {
	home := env["HOME"]
	if home == "" {
		return ""
	}

	return filepath.Join(home, historyFileName)
}

func runLiner(ctx context.Context, sess *session, history string) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(sess.complete)

	if history != "" {
		if f, err := os.Open(history); err == nil {
			_, _ = line.ReadHistory(f)
			_ = f.Close()
		}
	}

	defer func() {
		if history == "" {
			return
		}

		if f, err := os.Create(history); err == nil {
			_, _ = line.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sess.banner()

	for ctx.Err() == nil {
		input, err := line.Prompt(sess.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}

			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		if sess.evalAndReport(input) {
			return nil
		}
	}

	return nil
}

// runScanner drives the session from a non-terminal reader, one command per
// line, without prompts.
func runScanner(ctx context.Context, sess *session, in io.Reader) error {
	if in == nil {
		return nil
	}

	scanner := bufio.NewScanner(in)

	for ctx.Err() == nil && scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}

		if sess.evalAndReport(input) {
			return nil
		}
	}

	return scanner.Err()
}

// session is the state of one interactive shell: the dataset, the current
// strategy instance and the length of the current view.
type session struct {
	out        io.Writer
	ds         *dataset.Dataset
	catalog    *bakery.Catalog
	pool       *workpool.Pool
	partitions int

	kind     query.Kind
	strategy query.Strategy
	n        int
}

func newSession(out io.Writer, ds *dataset.Dataset, c *bakery.Catalog, pool *workpool.Pool, partitions int, kind query.Kind) (*session, error) {
	s := &session{out: out, ds: ds, catalog: c, pool: pool, partitions: partitions}

	err := s.use(kind)
	if err != nil {
		return nil, err
	}

	return s, nil
}

var replCommands = []string{
	"view", "grow", "strategy", "reset",
	"extremes", "over15", "max", "all",
	"info", "help", "quit", "exit",
}

func (s *session) complete(line string) []string {
	var out []string

	lower := strings.ToLower(line)
	for _, c := range replCommands {
		if strings.HasPrefix(c, lower) {
			out = append(out, c)
		}
	}

	return out
}

func (s *session) prompt() string {
	return fmt.Sprintf("monoid[%s %d/%d]> ", s.kind, s.n, s.ds.Transactions.Len())
}

func (s *session) banner() {
	s.printf("monoid shell: %d transactions, strategy=%s\n", s.ds.Transactions.Len(), s.kind)
	s.printf("Type 'help' for available commands.\n\n")
}

func (s *session) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

// evalAndReport runs one line and prints any error. It reports whether the
// shell should exit.
func (s *session) evalAndReport(line string) bool {
	quit, err := s.eval(line)
	if err != nil {
		s.printf("error: %v\n", err)
	}

	return quit
}

func (s *session) eval(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		s.help()

		return false, nil
	case "view":
		n, err := intArg(args, "view <n>")
		if err != nil {
			return false, err
		}

		return false, s.setView(n)
	case "grow":
		n, err := intArg(args, "grow <n>")
		if err != nil {
			return false, err
		}

		return false, s.setView(s.n + n)
	case "strategy":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: strategy <sequential|incremental|parallel>", errReplUsage)
		}

		kind, err := query.ParseKind(args[0])
		if err != nil {
			return false, err
		}

		return false, s.use(kind)
	case "reset":
		return false, s.use(s.kind)
	case "extremes":
		return false, s.extremes()
	case "over15":
		return false, s.overThreshold()
	case "max":
		return false, s.maxPurchases()
	case "all":
		return false, s.all()
	case "info":
		s.info()

		return false, nil
	default:
		return false, fmt.Errorf("%w: %s", errReplUnknown, cmd)
	}
}

func intArg(args []string, usage string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: %s", errReplUsage, usage)
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %s", errReplUsage, usage)
	}

	return n, nil
}

// use switches to a fresh instance of kind.
func (s *session) use(kind query.Kind) error {
	strategy, err := newStrategy(kind, s.catalog, s.pool, s.partitions)
	if err != nil {
		return err
	}

	s.kind = kind
	s.strategy = strategy
	s.printf("strategy=%s\n", kind)

	return nil
}

func (s *session) setView(n int) error {
	_, err := s.ds.Transactions.View(n)
	if err != nil {
		return err
	}

	s.n = n
	s.printf("view=%d\n", n)

	return nil
}

func (s *session) view() bakery.View {
	// n is validated by setView and the sequence never shrinks.
	v, _ := s.ds.Transactions.View(s.n)

	return v
}

func (s *session) extremes() error {
	e, err := s.strategy.FoodTypeExtremes(s.view())
	if err != nil {
		return err
	}

	s.printf("least_popular=%s most_popular=%s\n", e.Least, e.Most)

	return nil
}

func (s *session) overThreshold() error {
	n, err := s.strategy.CountOverThreshold(s.view())
	if err != nil {
		return err
	}

	s.printf("over_threshold=%d\n", n)

	return nil
}

func (s *session) maxPurchases() error {
	n, err := s.strategy.MaxPurchases(s.view())
	if err != nil {
		return err
	}

	s.printf("max_purchases=%d\n", n)

	return nil
}

func (s *session) all() error {
	start := time.Now()

	r, err := query.Run(s.strategy, s.view())
	if err != nil {
		return err
	}

	s.printf("%s (%s)\n", r, time.Since(start).Round(time.Microsecond))

	return nil
}

func (s *session) info() {
	m := s.ds.Manifest
	s.printf("dataset=%s seed=%d transactions=%d\n", m.ID, m.Seed, s.ds.Transactions.Len())
	s.printf("strategy=%s view=%d workers=%d\n", s.kind, s.n, s.pool.Workers())
}

func (s *session) help() {
	s.printf(`Commands:
  view <n>          Set the view to the first n transactions
  grow <n>          Extend the view by n transactions
  strategy <name>   Switch to a fresh sequential, incremental or parallel strategy
  reset             Start the current strategy over
  extremes          Least and most popular food types
  over15            Tickets costing more than 15.00
  max               Most items on one ticket
  all               All three queries
  info              Dataset and session info
  help              Show this help
  quit / exit       Leave the shell
`)
}

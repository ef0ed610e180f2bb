package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// exitInterrupted is returned when a signal cancels a running command.
const exitInterrupted = 130

var errUnexpectedArgs = errors.New("unexpected arguments")

// Command is one monoid subcommand.
type Command struct {
	// Flags are the subcommand's own flags. Nil means none.
	Flags *flag.FlagSet

	// Usage starts with the command name, then its synopsis:
	// "query [flags]", "export <file.sqlite>".
	Usage string

	// Short is the line shown in the command listing.
	Short string

	// Long replaces Short in "monoid <command> --help" when set.
	Long string

	// MaxArgs is how many positional arguments Exec takes. More are
	// rejected before Exec runs; fewer are for Exec to report.
	MaxArgs int

	Exec func(ctx context.Context, o *IO, args []string) error
}

func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

func (c *Command) flags() *flag.FlagSet {
	if c.Flags == nil {
		c.Flags = flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	}

	return c.Flags
}

// HelpLine is the command's row in the top-level usage.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-26s %s", c.Usage, c.Short)
}

func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: monoid", c.Usage)
	o.Println()

	if c.Long != "" {
		o.Println(c.Long)
	} else {
		o.Println(c.Short)
	}

	fs := c.flags()
	if !fs.HasFlags() {
		return
	}

	var defaults strings.Builder

	fs.SetOutput(&defaults)
	fs.PrintDefaults()

	o.Println()
	o.Println("Flags:")
	o.Printf("%s", defaults.String())
}

// Run parses args into the command's flags, runs Exec and maps the outcome
// to an exit code: 0 on success, 130 when interrupted, 1 otherwise.
// Usage errors print the command help after the error.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	fs := c.flags()
	fs.SetOutput(&strings.Builder{})

	err := fs.Parse(args)

	switch {
	case errors.Is(err, flag.ErrHelp):
		c.PrintHelp(o)

		return 0
	case err == nil && fs.NArg() > c.MaxArgs:
		err = fmt.Errorf("%w: %s", errUnexpectedArgs, strings.Join(fs.Args()[c.MaxArgs:], " "))
	}

	if err != nil {
		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)

		return 1
	}

	err = c.Exec(ctx, o, fs.Args())

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errInterrupted):
		o.ErrPrintln("interrupted")

		return exitInterrupted
	default:
		o.ErrPrintln("error:", err)

		return 1
	}
}

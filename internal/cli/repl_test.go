package cli_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hoshiningen/MonoidTalk/internal/cli"
)

func runRepl(t *testing.T, c *cli.CLI, script string, args ...string) string {
	t.Helper()

	stdout, stderr, code := c.RunWithInput(script, append([]string{"repl"}, args...)...)
	require.Equal(t, 0, code, stderr)

	return stdout
}

func Test_Repl_Answers_Growing_Views_When_Incremental(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeKnownDataset(c)

	stdout := runRepl(t, c, strings.Join([]string{
		"# comments and blank lines are skipped",
		"",
		"grow 2",
		"max",
		"grow 2",
		"extremes",
		"over15",
		"max",
		"quit",
		"max", // never reached
	}, "\n"))

	assert.Equal(t, strings.Join([]string{
		"strategy=incremental",
		"view=2",
		"max_purchases=2",
		"view=4",
		"least_popular=Bread most_popular=Beverage",
		"over_threshold=0",
		"max_purchases=3",
		"",
	}, "\n"), stdout)
}

func Test_Repl_Reports_Error_When_Incremental_View_Shrinks(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeKnownDataset(c)

	stdout := runRepl(t, c, "view 3\nmax\nview 1\nmax\nreset\nmax\n")

	cli.AssertContains(t, stdout, "error: max-purchases: view does not extend the previously seen view")
	assert.True(t, strings.HasSuffix(stdout, "strategy=incremental\nmax_purchases=2\n"), stdout)
}

func Test_Repl_Switches_Strategy_When_Asked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeKnownDataset(c)

	stdout := runRepl(t, c, "view 3\nmax\nstrategy parallel\nview 1\nmax\nstrategy sequential\nall\ninfo\n", "--strategy", "sequential")

	cli.AssertContains(t, stdout, "strategy=parallel\nview=1\nmax_purchases=2\n")
	cli.AssertContains(t, stdout, "least=Bagel most=Bread over_threshold=0 max_purchases=2")
	cli.AssertContains(t, stdout, "strategy=sequential view=1 workers=")
	cli.AssertContains(t, stdout, "dataset=0190b2a4-7c3e-7d3a-9f1e-1a2b3c4d5e6f seed=0 transactions=4")
}

func Test_Repl_Reports_Errors_And_Continues_When_Command_Bad(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeKnownDataset(c)

	stdout := runRepl(t, c, "dance\nview\nview x\nview 9\nstrategy quantum\nhelp\nmax\n")

	cli.AssertContains(t, stdout, "error: unknown command (type 'help' for commands): dance")
	cli.AssertContains(t, stdout, "error: usage: view <n>")
	cli.AssertContains(t, stdout, "error: view length out of range: 9 (sequence has 4)")
	cli.AssertContains(t, stdout, "error: unknown strategy")
	cli.AssertContains(t, stdout, "grow <n>")
	assert.True(t, strings.HasSuffix(stdout, "max_purchases=0\n"), stdout)
}

func Test_Repl_Fails_When_Start_Strategy_Unknown(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeKnownDataset(c)

	stderr := c.MustFail("repl", "--strategy", "all")
	cli.AssertContains(t, stderr, "unknown strategy")
}

package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hoshiningen/MonoidTalk/internal/cli"
)

func Test_Run_Prints_Usage_When_No_Command_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stdout := c.MustRun()
	cli.AssertContains(t, stdout, "Usage: monoid [options] <command> [args]")
	cli.AssertContains(t, stdout, "generate [flags]")
	cli.AssertContains(t, stdout, "query [flags]")
	cli.AssertContains(t, stdout, "--data-dir")
}

func Test_Run_Prints_Usage_When_Help_Flag_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stdout := c.MustRun("--help")
	cli.AssertContains(t, stdout, "Commands:")
	cli.AssertContains(t, stdout, "repl [flags]")
}

func Test_Run_Fails_When_Command_Unknown(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	_, stderr, code := c.Run("frobnicate")
	assert.Equal(t, 1, code)
	cli.AssertContains(t, stderr, "unknown command: frobnicate")
}

func Test_Run_Fails_When_Global_Flag_Unknown(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	_, stderr, code := c.Run("--bogus", "query")
	assert.Equal(t, 1, code)
	cli.AssertContains(t, stderr, "unknown flag: --bogus")
}

func Test_Run_Prints_Command_Help_When_Command_Help_Flag_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stdout := c.MustRun("query", "--help")
	cli.AssertContains(t, stdout, "Usage: monoid query [flags]")
	cli.AssertContains(t, stdout, "--strategy")
	cli.AssertContains(t, stdout, "--partitions")
}

func Test_Run_Fails_When_Command_Flag_Invalid(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	_, stderr, code := c.Run("generate", "--count", "many")
	assert.Equal(t, 1, code)
	cli.AssertContains(t, stderr, "error:")
}

func Test_Run_Fails_When_Config_File_Invalid(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".monoid.json", `{"workers": -3}`)

	stderr := c.MustFail("print-config")
	cli.AssertContains(t, stderr, "workers cannot be negative")
}

func Test_Run_Logs_Debug_When_Verbose(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	_, stderr, code := c.Run("-v", "generate", "--count", "10")
	require.Equal(t, 0, code, stderr)
	cli.AssertContains(t, stderr, "level=DEBUG")
	cli.AssertContains(t, stderr, "msg=\"saved dataset\"")

	_, stderr, code = c.Run("generate", "--count", "10")
	require.Equal(t, 0, code)
	cli.AssertNotContains(t, stderr, "level=DEBUG")
}

func Test_Run_Uses_Data_Dir_Flag_When_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stdout := c.MustRun("--data-dir", "elsewhere", "generate", "--count", "5")
	cli.AssertContains(t, stdout, "dir="+filepath.Join(c.Dir, "elsewhere"))

	_, err := os.Stat(filepath.Join(c.Dir, "elsewhere", "manifest.json"))
	require.NoError(t, err)
}

func Test_PrintConfig_Shows_Sources_When_Env_And_Files_Used(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".monoid.json", "{\n  // comment\n  \"count\": 42,\n}")
	c.Env["MONOID_SEED"] = "11"

	stdout := c.MustRun("print-config")
	cli.AssertContains(t, stdout, `"count": 42`)
	cli.AssertContains(t, stdout, `"seed": 11`)
	cli.AssertContains(t, stdout, "project_config="+filepath.Join(c.Dir, ".monoid.json"))
	cli.AssertContains(t, stdout, "env=MONOID_SEED")
}

func Test_PrintConfig_Reports_Defaults_When_Nothing_Configured(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stdout := c.MustRun("print-config")
	cli.AssertContains(t, stdout, "(defaults only)")
	cli.AssertContains(t, stdout, "data_dir="+c.DataDir())
}

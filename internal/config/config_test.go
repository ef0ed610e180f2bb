package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hoshiningen/MonoidTalk/internal/config"
)

func write(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func load(t *testing.T, in config.LoadInput) (config.Config, error) {
	t.Helper()

	if in.Env == nil {
		in.Env = map[string]string{}
	}

	return config.Load(in)
}

func Test_Load_Returns_Defaults_When_No_Files_Or_Env(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := load(t, config.LoadInput{WorkDirOverride: dir})
	require.NoError(t, err)

	assert.Equal(t, ".monoid", cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, ".monoid"), cfg.DataDirAbs)
	assert.Equal(t, dir, cfg.EffectiveCwd)
	assert.Equal(t, 0, cfg.WorkerCount())
	assert.Equal(t, uint64(777), cfg.SeedValue())
	assert.Equal(t, 100_000, cfg.CountValue())
	assert.Equal(t, config.StrategyAll, cfg.Strategy)
	assert.Equal(t, config.Sources{}, cfg.Sources)
}

func Test_Load_Applies_Layers_In_Precedence_Order(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()

	write(t, filepath.Join(xdg, "monoid", "config.json"), `{
		// global
		"data_dir": "global-data",
		"workers": 2,
		"count": 10,
	}`)
	write(t, filepath.Join(dir, config.ConfigFileName), `{"workers": 3, "strategy": "incremental"}`)
	write(t, filepath.Join(dir, config.EnvFileName), "MONOID_SEED=5\nMONOID_WORKERS=4\n")

	workers := 6

	cfg, err := load(t, config.LoadInput{
		WorkDirOverride: dir,
		WorkersOverride: &workers,
		Env: map[string]string{
			"XDG_CONFIG_HOME": xdg,
			config.EnvSeed:    "9",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "global-data", cfg.DataDir)
	assert.Equal(t, 10, cfg.CountValue())
	assert.Equal(t, "incremental", cfg.Strategy)
	assert.Equal(t, uint64(9), cfg.SeedValue(), "process env beats .env")
	assert.Equal(t, 6, cfg.WorkerCount(), "flag beats env")

	assert.Equal(t, filepath.Join(xdg, "monoid", "config.json"), cfg.Sources.Global)
	assert.Equal(t, filepath.Join(dir, config.ConfigFileName), cfg.Sources.Project)
	assert.Equal(t, filepath.Join(dir, config.EnvFileName), cfg.Sources.EnvFile)
	assert.ElementsMatch(t, []string{config.EnvWorkers, config.EnvSeed}, cfg.Sources.EnvVars)
}

func Test_Load_Uses_Home_Config_When_Xdg_Unset(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	write(t, filepath.Join(home, ".config", "monoid", "config.json"), `{"seed": 1}`)

	cfg, err := load(t, config.LoadInput{
		WorkDirOverride: t.TempDir(),
		Env:             map[string]string{"HOME": home},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cfg.SeedValue())
}

func Test_Load_Uses_Explicit_Config_Instead_Of_Project_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, filepath.Join(dir, config.ConfigFileName), `{"data_dir": "project"}`)
	write(t, filepath.Join(dir, "alt.json"), `{"data_dir": "/abs/alt"}`)

	cfg, err := load(t, config.LoadInput{WorkDirOverride: dir, ConfigPath: "alt.json"})
	require.NoError(t, err)

	assert.Equal(t, "/abs/alt", cfg.DataDirAbs)
	assert.Equal(t, filepath.Join(dir, "alt.json"), cfg.Sources.Project)
}

func Test_Load_Overrides_Data_Dir_When_Flag_Given(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := load(t, config.LoadInput{
		WorkDirOverride: dir,
		DataDirOverride: "flag-data",
		Env:             map[string]string{config.EnvDataDir: "env-data"},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "flag-data"), cfg.DataDirAbs)
}

func Test_Load_Fails_When_Input_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		project string
		dotenv  string
		env     map[string]string
		cfgPath string
		wantErr error
	}{
		{name: "missing explicit file", cfgPath: "nope.json", wantErr: config.ErrConfigFileNotFound},
		{name: "bad jsonc", project: `{"data_dir": `, wantErr: config.ErrConfigInvalid},
		{name: "wrong type", project: `{"workers": "many"}`, wantErr: config.ErrConfigInvalid},
		{name: "empty data dir", project: `{"data_dir": ""}`, wantErr: config.ErrDataDirEmpty},
		{name: "negative workers", project: `{"workers": -1}`, wantErr: config.ErrWorkersNegative},
		{name: "unknown strategy", project: `{"strategy": "quantum"}`, wantErr: config.ErrUnknownStrategy},
		{name: "negative count", project: `{"count": -5}`, wantErr: config.ErrConfigInvalid},
		{name: "bad env workers", env: map[string]string{config.EnvWorkers: "x"}, wantErr: config.ErrEnvInvalid},
		{name: "bad env seed", env: map[string]string{config.EnvSeed: "-1"}, wantErr: config.ErrEnvInvalid},
		{name: "empty env data dir", env: map[string]string{config.EnvDataDir: ""}, wantErr: config.ErrDataDirEmpty},
		{name: "bad dotenv workers", dotenv: "MONOID_WORKERS=lots\n", wantErr: config.ErrEnvInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()

			if tt.project != "" {
				write(t, filepath.Join(dir, config.ConfigFileName), tt.project)
			}

			if tt.dotenv != "" {
				write(t, filepath.Join(dir, config.EnvFileName), tt.dotenv)
			}

			_, err := load(t, config.LoadInput{WorkDirOverride: dir, ConfigPath: tt.cfgPath, Env: tt.env})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func Test_Load_Keeps_Default_Data_Dir_When_File_Sets_Null(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, filepath.Join(dir, config.ConfigFileName), `{"data_dir": null, "count": 3}`)

	cfg, err := load(t, config.LoadInput{WorkDirOverride: dir})
	require.NoError(t, err)
	assert.Equal(t, ".monoid", cfg.DataDir)
	assert.Equal(t, 3, cfg.CountValue())
}

func Test_Format_Renders_Json_When_Config_Loaded(t *testing.T) {
	t.Parallel()

	cfg, err := load(t, config.LoadInput{WorkDirOverride: t.TempDir()})
	require.NoError(t, err)

	out, err := config.Format(cfg)
	require.NoError(t, err)

	assert.Contains(t, out, `"data_dir": ".monoid"`)
	assert.Contains(t, out, `"seed": 777`)
	assert.Contains(t, out, `"strategy": "all"`)
	assert.NotContains(t, out, "EffectiveCwd")
}

// Package config resolves monoid's settings from defaults, JSONC config
// files, the environment and command-line overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/tailscale/hujson"

	"github.com/Hoshiningen/MonoidTalk/pkg/query"
)

// Error variables for config loading.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrDataDirEmpty       = errors.New("data-dir cannot be empty")
	ErrWorkersNegative    = errors.New("workers cannot be negative")
	ErrUnknownStrategy    = errors.New("unknown strategy")
	ErrEnvInvalid         = errors.New("invalid environment variable")
)

// StrategyAll selects every strategy and cross-checks their answers.
const StrategyAll = "all"

// File and variable names.
const (
	ConfigFileName = ".monoid.json"
	EnvFileName    = ".env"

	EnvDataDir = "MONOID_DATA_DIR"
	EnvWorkers = "MONOID_WORKERS"
	EnvSeed    = "MONOID_SEED"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	DataDir  string  `json:"data_dir"`
	Workers  *int    `json:"workers,omitempty"`
	Seed     *uint64 `json:"seed,omitempty"`
	Count    *int    `json:"count,omitempty"`
	Strategy string  `json:"strategy,omitempty"`

	// Resolved (computed, not serialized)
	EffectiveCwd string `json:"-"`
	DataDirAbs   string `json:"-"`

	Sources Sources `json:"-"`
}

// Sources tracks where the effective settings came from.
type Sources struct {
	Global  string   // global config path if loaded
	Project string   // project or explicit config path if loaded
	EnvFile string   // .env path if loaded
	EnvVars []string // MONOID_* variables that were applied
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:  ".monoid",
		Workers:  ptr(0),
		Seed:     ptr(uint64(777)),
		Count:    ptr(100_000),
		Strategy: StrategyAll,
	}
}

// WorkerCount returns the configured pool size; 0 means GOMAXPROCS.
func (c Config) WorkerCount() int { return deref(c.Workers) }

// SeedValue returns the configured generator seed.
func (c Config) SeedValue() uint64 { return deref(c.Seed) }

// CountValue returns the configured number of transactions to generate.
func (c Config) CountValue() int { return deref(c.Count) }

// LoadInput holds the inputs for [Load].
type LoadInput struct {
	WorkDirOverride string            // -C/--cwd; os.Getwd() when empty
	ConfigPath      string            // -c/--config
	DataDirOverride string            // --data-dir
	WorkersOverride *int              // --workers, nil when not given
	Env             map[string]string // process environment
}

// Load resolves configuration with the following precedence (highest wins):
//  1. Defaults
//  2. Global user config ($XDG_CONFIG_HOME/monoid/config.json or ~/.config/monoid/config.json)
//  3. Project config (.monoid.json) or the explicit -c file
//  4. .env in the working directory, then the process environment
//  5. CLI overrides
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	} else if !filepath.IsAbs(workDir) {
		abs, err := filepath.Abs(workDir)
		if err != nil {
			return Config{}, fmt.Errorf("resolving working directory: %w", err)
		}

		workDir = abs
	}

	cfg := Default()

	if path := globalConfigPath(input.Env); path != "" {
		fileCfg, loaded, err := loadFile(path, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg = merge(cfg, fileCfg)
			cfg.Sources.Global = path
		}
	}

	projectCfg, projectPath, err := loadProject(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg = merge(cfg, projectCfg)
	cfg.Sources.Project = projectPath

	cfg, err = applyEnv(cfg, workDir, input.Env)
	if err != nil {
		return Config{}, err
	}

	if input.DataDirOverride != "" {
		cfg.DataDir = input.DataDirOverride
	}

	if input.WorkersOverride != nil {
		cfg.Workers = ptr(*input.WorkersOverride)
	}

	err = validate(cfg)
	if err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir

	cfg.DataDirAbs = cfg.DataDir
	if !filepath.IsAbs(cfg.DataDirAbs) {
		cfg.DataDirAbs = filepath.Join(workDir, cfg.DataDir)
	}

	return cfg, nil
}

// Format renders cfg as indented JSON.
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatting config: %w", err)
	}

	return string(data), nil
}

func globalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "monoid", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "monoid", "config.json")
	}

	return ""
}

func loadProject(workDir, configPath string) (Config, string, error) {
	if configPath == "" {
		path := filepath.Join(workDir, ConfigFileName)

		cfg, loaded, err := loadFile(path, false)
		if err != nil || !loaded {
			return Config{}, "", err
		}

		return cfg, path, nil
	}

	path := configPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}

	_, statErr := os.Stat(path)
	if statErr != nil {
		return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
	}

	cfg, _, err := loadFile(path, true)
	if err != nil {
		return Config{}, "", err
	}

	return cfg, path, nil
}

// loadFile reads one JSONC config file. Missing optional files report
// loaded=false with no error.
func loadFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !mustExist {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
	}

	cfg, err := parse(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return cfg, true, nil
}

func parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	err = json.Unmarshal(standardized, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	// An explicit "" must not silently fall back to the default.
	var set struct {
		DataDir *string `json:"data_dir"`
	}

	err = json.Unmarshal(standardized, &set)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	if set.DataDir != nil && *set.DataDir == "" {
		return Config{}, ErrDataDirEmpty
	}

	return cfg, nil
}

// applyEnv overlays .env from workDir, then the process environment.
func applyEnv(cfg Config, workDir string, env map[string]string) (Config, error) {
	vars := make(map[string]string)

	envPath := filepath.Join(workDir, EnvFileName)

	fileVars, err := godotenv.Read(envPath)
	if err == nil {
		for k, v := range fileVars {
			vars[k] = v
		}

		cfg.Sources.EnvFile = envPath
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, envPath, err)
	}

	for _, k := range []string{EnvDataDir, EnvWorkers, EnvSeed} {
		if v, ok := env[k]; ok {
			vars[k] = v
		}
	}

	if v, ok := vars[EnvDataDir]; ok {
		if v == "" {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrEnvInvalid, EnvDataDir, ErrDataDirEmpty)
		}

		cfg.DataDir = v
		cfg.Sources.EnvVars = append(cfg.Sources.EnvVars, EnvDataDir)
	}

	if v, ok := vars[EnvWorkers]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q", ErrEnvInvalid, EnvWorkers, v)
		}

		cfg.Workers = ptr(n)
		cfg.Sources.EnvVars = append(cfg.Sources.EnvVars, EnvWorkers)
	}

	if v, ok := vars[EnvSeed]; ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q", ErrEnvInvalid, EnvSeed, v)
		}

		cfg.Seed = ptr(n)
		cfg.Sources.EnvVars = append(cfg.Sources.EnvVars, EnvSeed)
	}

	return cfg, nil
}

func merge(base, overlay Config) Config {
	if overlay.DataDir != "" {
		base.DataDir = overlay.DataDir
	}

	if overlay.Workers != nil {
		base.Workers = overlay.Workers
	}

	if overlay.Seed != nil {
		base.Seed = overlay.Seed
	}

	if overlay.Count != nil {
		base.Count = overlay.Count
	}

	if overlay.Strategy != "" {
		base.Strategy = overlay.Strategy
	}

	return base
}

func validate(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrDataDirEmpty
	}

	if cfg.WorkerCount() < 0 {
		return fmt.Errorf("%w: %d", ErrWorkersNegative, cfg.WorkerCount())
	}

	if cfg.CountValue() < 0 {
		return fmt.Errorf("%w: count %d is negative", ErrConfigInvalid, cfg.CountValue())
	}

	if cfg.Strategy != StrategyAll {
		_, err := query.ParseKind(cfg.Strategy)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Strategy)
		}
	}

	return nil
}

func ptr[T any](v T) *T { return &v }

func deref[T any](p *T) T {
	if p == nil {
		var zero T

		return zero
	}

	return *p
}

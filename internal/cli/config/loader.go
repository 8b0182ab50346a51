package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/leapflow/internal/persist"
)

// loggerKey is used to store logger in context.
// This key is shared with root.go via both using the same type.
type loggerKey struct{}

// configKey is used to store the loaded config in context.
type configKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels: LEAPFLOW_REPORT__SINCE sets report.since.
const EnvPrefix = "LEAPFLOW_"

// FlagKeyAnnotation maps a command flag to the config key it overrides.
const FlagKeyAnnotation = "leapflow_config_key"

// FlagPathAnnotation marks a flag whose value is a filesystem path. Such
// values resolve against the working directory, not the project root.
const FlagPathAnnotation = "leapflow_config_path"

// ConfigFileNames are the file names searched for, in order.
var ConfigFileNames = []string{"leapflow.yaml", "leapflow.yml"}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// configExistsIn returns the config file in dir, if any.
func configExistsIn(dir string) string {
	for _, name := range ConfigFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a leapflow config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configExistsIn(dir); found != "" {
			return found
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, already absolute or in-memory.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Options control a single configuration load.
type Options struct {
	// ConfigFile is an explicit config file. When empty the working
	// directory and its parents are searched.
	ConfigFile string
	// Flags holds parsed command flags. Only changed flags are applied.
	Flags *pflag.FlagSet
	// Overrides are applied last, keyed by dotted config path.
	Overrides map[string]any
}

// Load loads configuration from defaults, file, environment variables and flags.
// Precedence (highest to lowest): overrides > flags > env vars > config file > defaults
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	defaults := Default()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	// Typed maps are not deep-merged by koanf; reload them as plain maps so
	// a file naming one policy keeps the others.
	if err := k.Load(confmap.Provider(map[string]any{"aid.policies": plainPolicies(defaults.Aid.Policies)}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	projectRoot := cwd
	cfgFile := opts.ConfigFile
	if cfgFile == "" {
		cfgFile = findConfigUpward(cwd)
	} else if _, err := os.Stat(cfgFile); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
	}
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			cfgFile = abs
		}
		projectRoot = filepath.Dir(cfgFile)
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Load environment variables (LEAPFLOW_ prefix)
	// Transform: LEAPFLOW_AID__DATA_DIR -> aid.data_dir
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (overrides env vars and config file)
	flagPaths := map[string]bool{}
	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			// Only load flags that were explicitly set. --config selects
			// the file and is not a setting itself.
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key := flagKey(f)
			if _, ok := f.Annotations[FlagPathAnnotation]; ok {
				flagPaths[key] = true
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Programmatic overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	// 6. Unmarshal into Config struct
	cfg, err := unmarshal(k)
	if err != nil {
		return nil, err
	}
	cfg.ProjectRoot = projectRoot
	cfg.ConfigFile = cfgFile

	expandTargetEnvVars(&cfg.Aid.Target)
	expandTargetEnvVars(&cfg.Report.Target)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 7. Resolve relative paths. Flag values were typed relative to the
	// working directory; everything else is relative to the project root.
	for key, p := range cfg.paths() {
		base := projectRoot
		if flagPaths[key] {
			base = cwd
		}
		*p = resolvePathRelativeTo(*p, base)
	}

	return cfg, nil
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				plainStringHook,
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// plainStringHook turns named string values, such as the typed policies
// in Default, into plain strings so text unmarshalers see them.
func plainStringHook(f, _ reflect.Type, data any) (any, error) {
	if f.Kind() == reflect.String && f != reflect.TypeFor[string]() {
		return reflect.ValueOf(data).String(), nil
	}
	return data, nil
}

// paths returns every path-valued setting, keyed by config key.
func (c *Config) paths() map[string]*string {
	p := map[string]*string{
		"state_path":             &c.StatePath,
		"activity.activity_file": &c.Activity.ActivityFile,
		"activity.sleep_file":    &c.Activity.SleepFile,
		"activity.output":        &c.Activity.Output,
		"activity.charts_dir":    &c.Activity.ChartsDir,
		"aid.data_dir":           &c.Aid.DataDir,
		"aid.schema":             &c.Aid.Schema,
		"report.output":          &c.Report.Output,
	}
	if c.Aid.Target.Type != "postgres" {
		p["aid.target.database"] = &c.Aid.Target.Database
	}
	if c.Report.Target.Type != "postgres" {
		p["report.target.database"] = &c.Report.Target.Database
	}
	return p
}

// envKey maps LEAPFLOW_REPORT__SINCE to report.since.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// flagKey returns the config key a flag overrides.
func flagKey(f *pflag.Flag) string {
	if v := f.Annotations[FlagKeyAnnotation]; len(v) > 0 {
		return v[0]
	}
	// The CLI uses --state for brevity, but the config key is state_path.
	if f.Name == "state" {
		return "state_path"
	}
	return strings.ReplaceAll(f.Name, "-", "_")
}

// BindFlag ties a flag to a config key.
func BindFlag(flags *pflag.FlagSet, name, key string) {
	_ = flags.SetAnnotation(name, FlagKeyAnnotation, []string{key})
}

func plainPolicies(policies map[string]persist.Policy) map[string]any {
	out := make(map[string]any, len(policies))
	for name, p := range policies {
		out[name] = string(p)
	}
	return out
}

// BindPathFlag ties a path-valued flag to a config key.
func BindPathFlag(flags *pflag.FlagSet, name, key string) {
	BindFlag(flags, name, key)
	_ = flags.SetAnnotation(name, FlagPathAnnotation, []string{"true"})
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() any {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// ConfigKey returns the context key used for storing the loaded config.
func ConfigKey() any {
	return configKey{}
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	// Return default config if none in context
	return Default()
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandTargetEnvVars expands environment variables in sensitive target fields.
func expandTargetEnvVars(t *TargetConfig) {
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
}

// Redacted returns a copy of the config that is safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	out.Aid.Target = out.Aid.Target.redacted()
	out.Report.Target = out.Report.Target.redacted()
	return &out
}

func (t TargetConfig) redacted() TargetConfig {
	if t.Password != "" {
		t.Password = "****"
	}
	return t
}

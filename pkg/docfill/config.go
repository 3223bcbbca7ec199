package docfill

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/benjaminschreck/docfill/pkg/docfill/engine"
	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
)

// PlaceholderConfig sets the delimiters of placeholders.
type PlaceholderConfig struct {
	Prefix string `mapstructure:"prefix"`
	Suffix string `mapstructure:"suffix"`
}

// Config tunes an Engine. The mapstructure keys double as the names of
// the settings in config files and in InvalidConfigError.
type Config struct {
	// CacheMaxSize caps the parsed template files an engine keeps; 0 keeps none.
	CacheMaxSize int `mapstructure:"cache_max_size"`
	// CacheTTL makes cached templates expire; 0 keeps them until evicted.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// LogLevel is debug, info, warn, error or off.
	LogLevel string `mapstructure:"log_level"`
	// LogFormat is text or json.
	LogFormat string `mapstructure:"log_format"`
	// MaxSteps bounds the placeholders one fill may process.
	MaxSteps       int `mapstructure:"max_steps"`
	MaxImportDepth int `mapstructure:"max_import_depth"`
	// StrictMode fails fills on placeholders no command claims.
	StrictMode  bool              `mapstructure:"strict_mode"`
	Placeholder PlaceholderConfig `mapstructure:"placeholder"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		CacheMaxSize:   100,
		LogLevel:       "info",
		LogFormat:      "text",
		MaxSteps:       engine.DefaultMaxSteps,
		MaxImportDepth: 10,
		Placeholder: PlaceholderConfig{
			Prefix: placeholder.DefaultCodec.Prefix,
			Suffix: placeholder.DefaultCodec.Suffix,
		},
	}
}

// envSettings binds each DOCFILL_<NAME> variable to the field it sets.
// Values that do not parse leave the field alone.
var envSettings = []struct {
	name  string
	apply func(c *Config, val string) bool
}{
	{"CACHE_MAX_SIZE", intSetting(func(c *Config) *int { return &c.CacheMaxSize })},
	{"CACHE_TTL", func(c *Config, val string) bool {
		d, err := time.ParseDuration(val)
		if err == nil {
			c.CacheTTL = d
		}
		return err == nil
	}},
	{"LOG_LEVEL", stringSetting(func(c *Config) *string { return &c.LogLevel })},
	{"LOG_FORMAT", stringSetting(func(c *Config) *string { return &c.LogFormat })},
	{"MAX_STEPS", intSetting(func(c *Config) *int { return &c.MaxSteps })},
	{"MAX_IMPORT_DEPTH", intSetting(func(c *Config) *int { return &c.MaxImportDepth })},
	{"STRICT_MODE", func(c *Config, val string) bool {
		on, ok := switchValue(val)
		if ok {
			c.StrictMode = on
		}
		return ok
	}},
	{"PLACEHOLDER_PREFIX", stringSetting(func(c *Config) *string { return &c.Placeholder.Prefix })},
	{"PLACEHOLDER_SUFFIX", stringSetting(func(c *Config) *string { return &c.Placeholder.Suffix })},
}

func intSetting(field func(*Config) *int) func(*Config, string) bool {
	return func(c *Config, val string) bool {
		n, err := strconv.Atoi(val)
		if err == nil {
			*field(c) = n
		}
		return err == nil
	}
}

func stringSetting(field func(*Config) *string) func(*Config, string) bool {
	return func(c *Config, val string) bool {
		*field(c) = val
		return true
	}
}

// switchValue reads the on/off spellings people put in environments.
func switchValue(val string) (on, ok bool) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// ConfigFromEnv returns the defaults overridden by DOCFILL_* variables.
func ConfigFromEnv() *Config {
	return DefaultConfig().applyEnv(os.LookupEnv)
}

// applyEnv overrides c with the variables lookup finds and returns c.
func (c *Config) applyEnv(lookup func(string) (string, bool)) *Config {
	for _, s := range envSettings {
		if val, ok := lookup("DOCFILL_" + s.name); ok && val != "" {
			s.apply(c, val)
		}
	}
	return c
}

// completed copies c and fills its zero fields from the defaults. A nil c
// yields the defaults.
func completed(c *Config) *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.LogLevel == "" {
		out.LogLevel = d.LogLevel
	}
	if out.LogFormat == "" {
		out.LogFormat = d.LogFormat
	}
	if out.MaxSteps == 0 {
		out.MaxSteps = d.MaxSteps
	}
	if out.MaxImportDepth == 0 {
		out.MaxImportDepth = d.MaxImportDepth
	}
	if out.Placeholder.Prefix == "" {
		out.Placeholder.Prefix = d.Placeholder.Prefix
	}
	if out.Placeholder.Suffix == "" {
		out.Placeholder.Suffix = d.Placeholder.Suffix
	}
	return &out
}

// Validate returns an *InvalidConfigError naming every bad setting.
func (c *Config) Validate() error {
	bad := &InvalidConfigError{}
	reject := func(setting, reason string) {
		bad.Problems = append(bad.Problems, ConfigProblem{Setting: setting, Reason: reason})
	}

	if c.CacheMaxSize < 0 {
		reject("cache_max_size", "is negative")
	}
	if c.CacheTTL < 0 {
		reject("cache_ttl", "is negative")
	}
	if _, ok := logLevels[strings.ToLower(c.LogLevel)]; !ok {
		reject("log_level", strconv.Quote(c.LogLevel)+" is not a level")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		reject("log_format", strconv.Quote(c.LogFormat)+" is neither text nor json")
	}
	if c.MaxSteps <= 0 {
		reject("max_steps", "must be at least 1")
	}
	if c.MaxImportDepth <= 0 {
		reject("max_import_depth", "must be at least 1")
	}
	if c.Placeholder.Prefix == "" {
		reject("placeholder.prefix", "is empty")
	}
	if c.Placeholder.Suffix == "" {
		reject("placeholder.suffix", "is empty")
	}

	if len(bad.Problems) == 0 {
		return nil
	}
	return bad
}

// Codec returns the placeholder codec for the configured delimiters.
func (c *Config) Codec() placeholder.Codec {
	return placeholder.Codec{Prefix: c.Placeholder.Prefix, Suffix: c.Placeholder.Suffix}
}

var (
	processMu     sync.RWMutex
	processConfig = ConfigFromEnv()
)

// ProcessConfig returns a copy of the settings New uses. They start out as
// ConfigFromEnv.
func ProcessConfig() *Config {
	processMu.RLock()
	defer processMu.RUnlock()
	c := *processConfig
	return &c
}

// SetProcessConfig replaces the settings New uses and moves the process
// logger to the new level.
func SetProcessConfig(c *Config) {
	c = completed(c)
	processMu.Lock()
	processConfig = c
	processMu.Unlock()
	ProcessLogger().SetLevel(ParseLogLevel(c.LogLevel))
}

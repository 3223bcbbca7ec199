package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/benjaminschreck/docfill/pkg/docfill"
)

const (
	EnvPrefix         = "DOCFILL"
	DefaultConfigName = "docfill"
)

// flagKeys maps persistent flags to configuration keys.
var flagKeys = map[string]string{
	"log-level":        "log_level",
	"log-format":       "log_format",
	"strict":           "strict_mode",
	"max-steps":        "max_steps",
	"max-import-depth": "max_import_depth",
	"prefix":           "placeholder.prefix",
	"suffix":           "placeholder.suffix",
}

// loadConfig merges defaults, the config file, DOCFILL_* environment
// variables and explicitly set flags, in increasing priority.
func loadConfig(cfgFile string, flags *pflag.FlagSet) (*docfill.Config, error) {
	v := viper.New()
	setDefaults(v, docfill.DefaultConfig())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("error binding flag '--%s': %w", name, err)
		}
	}

	var config docfill.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper, d *docfill.Config) {
	v.SetDefault("cache_max_size", d.CacheMaxSize)
	v.SetDefault("cache_ttl", d.CacheTTL)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("max_steps", d.MaxSteps)
	v.SetDefault("max_import_depth", d.MaxImportDepth)
	v.SetDefault("strict_mode", d.StrictMode)
	v.SetDefault("placeholder.prefix", d.Placeholder.Prefix)
	v.SetDefault("placeholder.suffix", d.Placeholder.Suffix)
}

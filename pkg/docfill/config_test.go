package docfill

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.Equal(t, 100, c.CacheMaxSize)
	assert.Zero(t, c.CacheTTL)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 10, c.MaxImportDepth)
	assert.False(t, c.StrictMode)
	codec := c.Codec()
	assert.Equal(t, "${", codec.Prefix)
	assert.Equal(t, "}", codec.Suffix)
	assert.NoError(t, c.Validate())
}

func TestConfigFromEnv(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, c *Config)
	}{
		{
			name: "numbers and durations",
			env:  map[string]string{"DOCFILL_CACHE_MAX_SIZE": "50", "DOCFILL_CACHE_TTL": "5m", "DOCFILL_MAX_IMPORT_DEPTH": "3"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 50, c.CacheMaxSize)
				assert.Equal(t, 5*time.Minute, c.CacheTTL)
				assert.Equal(t, 3, c.MaxImportDepth)
			},
		},
		{
			name: "strict mode spelled yes",
			env:  map[string]string{"DOCFILL_STRICT_MODE": "yes"},
			check: func(t *testing.T, c *Config) {
				assert.True(t, c.StrictMode)
			},
		},
		{
			name: "placeholder delimiters",
			env:  map[string]string{"DOCFILL_PLACEHOLDER_PREFIX": "{{", "DOCFILL_PLACEHOLDER_SUFFIX": "}}"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, PlaceholderConfig{Prefix: "{{", Suffix: "}}"}, c.Placeholder)
			},
		},
		{
			name: "unparsable values keep defaults",
			env:  map[string]string{"DOCFILL_MAX_STEPS": "lots", "DOCFILL_CACHE_TTL": "soon", "DOCFILL_STRICT_MODE": "maybe"},
			check: func(t *testing.T, c *Config) {
				d := DefaultConfig()
				assert.Equal(t, d.MaxSteps, c.MaxSteps)
				assert.Zero(t, c.CacheTTL)
				assert.False(t, c.StrictMode)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			tt.check(t, ConfigFromEnv())
		})
	}
}

func TestCompletedConfig(t *testing.T) {
	c := completed(&Config{CacheMaxSize: 5, StrictMode: true})

	assert.Equal(t, 5, c.CacheMaxSize)
	assert.True(t, c.StrictMode)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
	assert.Equal(t, "${", c.Placeholder.Prefix)
	assert.NoError(t, c.Validate())

	assert.Equal(t, DefaultConfig(), completed(nil))
}

func TestConfigValidate(t *testing.T) {
	c := &Config{
		CacheMaxSize: -1,
		LogLevel:     "loud",
		LogFormat:    "xml",
		Placeholder:  PlaceholderConfig{Prefix: "${"},
	}
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, IsInvalidConfigError(err))

	var invalid *InvalidConfigError
	require.ErrorAs(t, err, &invalid)
	var settings []string
	for _, p := range invalid.Problems {
		settings = append(settings, p.Setting)
	}
	assert.Equal(t, []string{"cache_max_size", "log_level", "log_format", "max_steps", "max_import_depth", "placeholder.suffix"}, settings)
	assert.Contains(t, err.Error(), `log_level "loud" is not a level`)
}

func TestProcessConfig(t *testing.T) {
	originalConfig, originalLogger := ProcessConfig(), ProcessLogger()
	defer func() {
		SetProcessConfig(originalConfig)
		SetProcessLogger(originalLogger)
	}()
	SetProcessLogger(NewLogger(nil, LogDebug))

	SetProcessConfig(&Config{CacheMaxSize: 7, LogLevel: "error"})

	got := ProcessConfig()
	assert.Equal(t, 7, got.CacheMaxSize)
	assert.Equal(t, "text", got.LogFormat)
	got.CacheMaxSize = 99
	assert.Equal(t, 7, ProcessConfig().CacheMaxSize)
	assert.False(t, ProcessLogger().Enabled(LogWarn))
	assert.Equal(t, 7, New().Config().CacheMaxSize)
}

package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/mkrupp/todo-auth/internal/infra/config"
)

type testConfig struct {
	EnvConfig

	StringValue   string        `env:"STRING_VALUE" default:"default"`
	IntValue      int           `env:"INT_VALUE" default:"42"`
	BoolValue     bool          `env:"BOOL_VALUE" default:"true"`
	DurationValue time.Duration `env:"DURATION_VALUE" default:"24h"`
	Uint32Value   uint32        `env:"UINT32_VALUE" default:"65536"`
	Uint8Value    uint8         `env:"UINT8_VALUE" default:"4"`
	NoEnvTag      string
	Nested        testNestedConfig `envPrefix:"NESTED_"`
}

type testNestedConfig struct {
	NestedString string `env:"STRING" default:"nested-default"`
}

type requiredConfig struct {
	EnvConfig

	Secret string `env:"SECRET"`
}

func defaults() testConfig {
	return testConfig{
		StringValue:   "default",
		IntValue:      42,
		BoolValue:     true,
		DurationValue: 24 * time.Hour,
		Uint32Value:   65536,
		Uint8Value:    4,
		Nested:        testNestedConfig{NestedString: "nested-default"},
	}
}

//nolint:paralleltest
func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		envVars map[string]string
		want    func(c *testConfig)
		wantErr bool
	}{
		{
			name:    "uses default values when env vars not set",
			envVars: map[string]string{},
			want:    func(*testConfig) {},
		},
		{
			name: "reads environment variables",
			envVars: map[string]string{
				"STRING_VALUE":   "env-value",
				"INT_VALUE":      "123",
				"BOOL_VALUE":     "false",
				"DURATION_VALUE": "90s",
				"UINT32_VALUE":   "1024",
				"UINT8_VALUE":    "1",
				"NESTED_STRING":  "env-nested",
			},
			want: func(c *testConfig) {
				c.StringValue = "env-value"
				c.IntValue = 123
				c.BoolValue = false
				c.DurationValue = 90 * time.Second
				c.Uint32Value = 1024
				c.Uint8Value = 1
				c.Nested.NestedString = "env-nested"
			},
		},
		{
			name:   "handles prefix correctly",
			prefix: "APP",
			envVars: map[string]string{
				"APP_STRING_VALUE": "prefixed-value",
			},
			want: func(c *testConfig) {
				c.StringValue = "prefixed-value"
			},
		},
		{
			name:   "falls back to shorter namespace",
			prefix: "APP_SVC",
			envVars: map[string]string{
				"APP_INT_VALUE":     "7",
				"APP_SVC_INT_VALUE": "8",
				"APP_STRING_VALUE":  "from-app",
			},
			want: func(c *testConfig) {
				c.IntValue = 8
				c.StringValue = "from-app"
			},
		},
		{
			name:    "fails on invalid int value",
			envVars: map[string]string{"INT_VALUE": "not-a-number"},
			wantErr: true,
		},
		{
			name:    "fails on invalid bool value",
			envVars: map[string]string{"BOOL_VALUE": "not-a-bool"},
			wantErr: true,
		},
		{
			name:    "fails on invalid duration value",
			envVars: map[string]string{"DURATION_VALUE": "tomorrow"},
			wantErr: true,
		},
		{
			name:    "fails on uint8 overflow",
			envVars: map[string]string{"UINT8_VALUE": "256"},
			wantErr: true,
		},
		{
			name:    "fails on negative unsigned value",
			envVars: map[string]string{"UINT32_VALUE": "-1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			var cfg testConfig

			err := Parse(context.Background(), &cfg, tt.prefix)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)

			want := defaults()
			tt.want(&want)

			assert.Equal(t, want.StringValue, cfg.StringValue)
			assert.Equal(t, want.IntValue, cfg.IntValue)
			assert.Equal(t, want.BoolValue, cfg.BoolValue)
			assert.Equal(t, want.DurationValue, cfg.DurationValue)
			assert.Equal(t, want.Uint32Value, cfg.Uint32Value)
			assert.Equal(t, want.Uint8Value, cfg.Uint8Value)
			assert.Empty(t, cfg.NoEnvTag)
			assert.Equal(t, want.Nested, cfg.Nested)
			assert.Equal(t, tt.prefix, cfg.Namespace())
		})
	}
}

//nolint:paralleltest
func TestParseRequiredVar(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		var cfg requiredConfig

		err := Parse(context.Background(), &cfg, "REQ")
		require.ErrorIs(t, err, ErrVarNotSet)
	})

	t.Run("set", func(t *testing.T) {
		t.Setenv("REQ_SECRET", "s3cr3t")

		var cfg requiredConfig

		require.NoError(t, Parse(context.Background(), &cfg, "REQ"))
		assert.Equal(t, "s3cr3t", cfg.Secret)
	})
}

func TestParseInvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  any
	}{
		{name: "non-pointer config", cfg: testConfig{}},
		{name: "non-struct pointer", cfg: new(string)},
		{
			name: "missing EnvConfig embedding",
			cfg: &struct {
				Value string `env:"VALUE"`
			}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Parse(context.Background(), tt.cfg, "")
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

//nolint:paralleltest
func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOTENV_TEST_VALUE=from-file\n"), 0o600))

	t.Setenv("DOTENV_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("DOTENV_TEST_VALUE"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("DOTENV_TEST_VALUE"))

	t.Setenv("DOTENV_TEST_VALUE", "from-env")
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-env", os.Getenv("DOTENV_TEST_VALUE"), "existing variables are not overridden")
}

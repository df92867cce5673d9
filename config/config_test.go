package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xPolygon/evm-circuit/evmcircuit/challenge"
)

func TestReadConfigFile(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
	}{
		{
			"config.json",
			`{"degree": 14, "max_evm_rows": 1000, "num_chunks": 2, "log_level": "DEBUG",
			"check_rw_lookups": true, "invalid_tx": true, "telemetry": {"metrics": true}}`,
		},
		{
			"config.yaml",
			"degree: 14\nmax_evm_rows: 1000\nnum_chunks: 2\nlog_level: DEBUG\n" +
				"check_rw_lookups: true\ninvalid_tx: true\ntelemetry:\n  metrics: true\n",
		},
		{
			"config.hcl",
			"degree = 14\nmax_evm_rows = 1000\nnum_chunks = 2\nlog_level = \"DEBUG\"\n" +
				"check_rw_lookups = true\ninvalid_tx = true\ntelemetry {\n  metrics = true\n}\n",
		},
	}

	for _, c := range cases {
		c := c

		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), c.name)
			require.NoError(t, os.WriteFile(path, []byte(c.content), 0600))

			config, err := ReadConfigFile(path)
			require.NoError(t, err)

			assert.Equal(t, 14, config.Degree)
			assert.Equal(t, 1000, config.MaxEvmRows)
			assert.Equal(t, 2, config.NumChunks)
			assert.Equal(t, "DEBUG", config.LogLevel)
			assert.True(t, config.CheckRwLookups)
			assert.True(t, config.InvalidTx)
			assert.True(t, config.Telemetry.Metrics)
			assert.NoError(t, config.Validate())

			params := config.CircuitParams()
			assert.True(t, params.Features.InvalidTx)
			assert.Equal(t, 1000, config.FixedParams().MaxEvmRows)
		})
	}
}

func TestReadConfigFile_Defaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"num_chunks": 3}`), 0600))

	config, err := ReadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultDegree, config.Degree)
	assert.Equal(t, 3, config.NumChunks)
	assert.NotNil(t, config.Telemetry)
}

func TestReadConfigFile_UnknownSuffix(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("degree = 12"), 0600))

	_, err := ReadConfigFile(path)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		modify func(c *Config)
		err    error
	}{
		{"default", func(c *Config) {}, nil},
		{"no chunks", func(c *Config) { c.NumChunks = 0 }, errInvalidChunks},
		{"evm rows above grid", func(c *Config) { c.MaxEvmRows = 1 << DefaultDegree }, errInvalidEvmRows},
		{"two challenges", func(c *Config) { c.Challenges = []string{"1", "2"} }, errInvalidChallenges},
		{"hex challenge", func(c *Config) { c.Challenges = []string{"1", "2", "0x3"} }, errInvalidChallenges},
		{"three challenges", func(c *Config) { c.Challenges = []string{"1", "2", "3"} }, nil},
	}

	for _, c := range cases {
		c := c

		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			config := DefaultConfig()
			c.modify(config)

			err := config.Validate()
			if c.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, c.err)
			}
		})
	}
}

func TestConfig_ChallengeValues(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()

	values, err := config.ChallengeValues()
	require.NoError(t, err)
	assert.Equal(t, challenge.DefaultValues(), values)

	config.Challenges = []string{"5", "6", "7"}

	values, err = config.ChallengeValues()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), values.LookupInput.Uint64())
}

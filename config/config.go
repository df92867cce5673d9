package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/0xPolygon/evm-circuit/evmcircuit"
	"github.com/0xPolygon/evm-circuit/evmcircuit/challenge"
	"github.com/0xPolygon/evm-circuit/evmcircuit/execution"
	"github.com/0xPolygon/evm-circuit/evmcircuit/witness"
)

var (
	errInvalidChallenges = errors.New("challenges must be three decimal field elements")
	errInvalidChunks     = errors.New("num_chunks must be at least 1")
	errInvalidEvmRows    = errors.New("max_evm_rows must not exceed the grid")
)

// Config defines the circuit configuration params
type Config struct {
	Degree         int        `json:"degree" yaml:"degree" hcl:"degree"`
	MaxEvmRows     int        `json:"max_evm_rows" yaml:"max_evm_rows" hcl:"max_evm_rows"`
	NumChunks      int        `json:"num_chunks" yaml:"num_chunks" hcl:"num_chunks"`
	LogLevel       string     `json:"log_level" yaml:"log_level" hcl:"log_level"`
	CheckRwLookups bool       `json:"check_rw_lookups" yaml:"check_rw_lookups" hcl:"check_rw_lookups"`
	InvalidTx      bool       `json:"invalid_tx" yaml:"invalid_tx" hcl:"invalid_tx"`
	Challenges     []string   `json:"challenges" yaml:"challenges" hcl:"challenges"`
	Telemetry      *Telemetry `json:"telemetry" yaml:"telemetry" hcl:"telemetry"`
}

// Telemetry holds the config details for metrics
type Telemetry struct {
	// Metrics dumps the in-memory metrics sink when the command exits
	Metrics bool `json:"metrics" yaml:"metrics" hcl:"metrics"`
}

const (
	// DefaultDegree gives a grid of 4096 rows
	DefaultDegree = 12

	DefaultNumChunks = 1
)

// DefaultConfig returns the default circuit configuration
func DefaultConfig() *Config {
	return &Config{
		Degree:     DefaultDegree,
		MaxEvmRows: 0,
		NumChunks:  DefaultNumChunks,
		LogLevel:   "INFO",
		Telemetry:  &Telemetry{},
	}
}

// ReadConfigFile reads the config file from the specified path, builds a Config object
// and returns it.
//
// Supported file types: .json, .hcl, .yaml, .yml
func ReadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var unmarshalFunc func([]byte, interface{}) error

	switch {
	case strings.HasSuffix(path, ".hcl"):
		unmarshalFunc = hcl.Unmarshal
	case strings.HasSuffix(path, ".json"):
		unmarshalFunc = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		unmarshalFunc = yaml.Unmarshal
	default:
		return nil, fmt.Errorf("suffix of %s is neither hcl, json, yaml nor yml", path)
	}

	config := DefaultConfig()

	if err := unmarshalFunc(data, config); err != nil {
		return nil, err
	}

	if config.Telemetry == nil {
		config.Telemetry = &Telemetry{}
	}

	return config, nil
}

// Validate checks the values that can not be checked by the circuit itself
func (c *Config) Validate() error {
	if c.NumChunks < 1 {
		return errInvalidChunks
	}

	if c.MaxEvmRows >= 1<<c.Degree {
		return fmt.Errorf("%w: %d rows, grid has %d", errInvalidEvmRows, c.MaxEvmRows, 1<<c.Degree)
	}

	if _, err := c.ChallengeValues(); err != nil {
		return err
	}

	return nil
}

// ChallengeValues parses the configured challenges, falling back to the
// default values when none are set
func (c *Config) ChallengeValues() (challenge.Values, error) {
	if len(c.Challenges) == 0 {
		return challenge.DefaultValues(), nil
	}

	if len(c.Challenges) != 3 {
		return challenge.Values{}, fmt.Errorf("%w: got %d", errInvalidChallenges, len(c.Challenges))
	}

	values, ok := challenge.ParseValues(c.Challenges[0], c.Challenges[1], c.Challenges[2])
	if !ok {
		return challenge.Values{}, fmt.Errorf("%w: %v", errInvalidChallenges, c.Challenges)
	}

	return values, nil
}

// CircuitParams returns the parameters the circuit is configured with
func (c *Config) CircuitParams() evmcircuit.Params {
	return evmcircuit.Params{
		Degree:         c.Degree,
		Features:       execution.Features{InvalidTx: c.InvalidTx},
		CheckRwLookups: c.CheckRwLookups,
	}
}

// FixedParams returns the parameters shared by every chunk
func (c *Config) FixedParams() witness.FixedParams {
	return witness.FixedParams{MaxEvmRows: c.MaxEvmRows}
}

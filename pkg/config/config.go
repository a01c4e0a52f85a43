// Package config loads and validates simulation parameters.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/adapnet/pkg/strategy"
	"github.com/dd0wney/adapnet/pkg/validation"
)

// Config is the full parameter set of a run plus its output wiring.
type Config struct {
	Model   Model   `yaml:"model"`
	Runtime Runtime `yaml:"runtime"`
	Output  Output  `yaml:"output"`
	Log     Log     `yaml:"log"`
}

// Model holds the parameters of the epidemic and evolutionary dynamics.
type Model struct {
	Nodes            int     `yaml:"nodes" validate:"gte=2,lte=20000"`
	Steps            int     `yaml:"steps" validate:"gte=1"`
	GenerationLength int     `yaml:"generation_length" validate:"gte=1"`
	TransmissionRate float64 `yaml:"transmission_rate" validate:"probability"`
	RewireRate       float64 `yaml:"rewire_rate" validate:"probability"`
	MutationRate     float64 `yaml:"mutation_rate" validate:"probability"`
	Strategies       int     `yaml:"strategies" validate:"gte=2,lte=5"`
	EdgeProbability  float64 `yaml:"edge_probability" validate:"probability"`
	RandomRewireProb float64 `yaml:"random_rewire_probability" validate:"probability"`
	RecoveryDuration int     `yaml:"recovery_duration" validate:"gte=1"`
	SeedCount        int     `yaml:"seed_count" validate:"gte=1"`
	EliteCount       int     `yaml:"elite_count" validate:"gte=0"`
}

// Runtime holds execution settings that do not change the dynamics.
type Runtime struct {
	// Seed drives the PCG source; 0 derives one from the clock.
	Seed uint64 `yaml:"seed"`
	// Workers bounds the distance computation fan-out; 0 or 1 runs serially.
	Workers         int  `yaml:"workers" validate:"gte=0,lte=256"`
	CheckInvariants bool `yaml:"check_invariants"`
}

// Output selects where the finished series goes.
type Output struct {
	Path        string `yaml:"path"`
	Format      string `yaml:"format" validate:"oneof=octave json csv"`
	Compress    bool   `yaml:"compress"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresURL string `yaml:"postgres_url" validate:"omitempty,url"`
	S3          S3     `yaml:"s3"`
	NNGAddress  string `yaml:"nng_address"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// S3 names the object an upload sink writes.
type S3 struct {
	Bucket string `yaml:"bucket"`
	Key    string `yaml:"key" validate:"required_with=Bucket"`
	Region string `yaml:"region"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// ErrInvalid wraps every validation failure returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Default returns the reference parameter set: 200 nodes, 2000 steps,
// generations of 100 steps and an elite of 50.
func Default() Config {
	return Config{
		Model: Model{
			Nodes:            200,
			Steps:            2000,
			GenerationLength: 100,
			TransmissionRate: 0.03,
			RewireRate:       0.05,
			MutationRate:     0.02,
			Strategies:       strategy.Count,
			EdgeProbability:  0.025,
			RandomRewireProb: 0.01,
			RecoveryDuration: 5,
			SeedCount:        5,
			EliteCount:       50,
		},
		Runtime: Runtime{Workers: 1},
		Output: Output{
			Path:   "NetValues.txt",
			Format: "octave",
		},
		Log: Log{Level: "info", Format: "json"},
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, rejecting unknown keys.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks struct tags and the cross-field rules.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	m := c.Model
	cv := validation.NewConfigValidator("model").
		MaxInt("elite_count", m.EliteCount, m.Nodes/2).
		MaxInt("generation_length", m.GenerationLength, m.Steps).
		MaxInt("seed_count", m.SeedCount, m.Nodes)

	o := c.Output
	out := validation.NewConfigValidator("output").
		When(o.Compress, func(cv *validation.ConfigValidator) {
			cv.Custom("compress", func() error {
				if o.Path == "" && o.S3.Bucket == "" {
					return errors.New("compression needs a file or S3 destination")
				}
				return nil
			})
		})

	if err := errors.Join(cv.Validate(), out.Validate()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Generations returns the number of strategy-series samples a run records:
// one initial sample plus one per generation boundary reachable in Steps.
func (m Model) Generations() int {
	return m.Steps/m.GenerationLength + 1
}

package tracecore

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tracecore/tracecore/internal/constants"
)

// Config configures a Tracer's resource bounds (spec §6
// "Environment / configuration"). The in-process Config deliberately
// holds plain ints rather than a CLI-oriented byte-size type; only
// cmd/tracectl's flag parsing needs human-readable sizes like "256KiB".
// It carries yaml tags so a host process can load one from a file the
// same way the teacher's sibling pack components load theirs.
type Config struct {
	// BufferSize is the ring buffer's fixed byte capacity. Must exceed
	// the largest record size (spec §4.2 edge policy; see S6).
	BufferSize int `yaml:"buffer_size"`

	// MaxTasks bounds the task identity registry (spec §3 "at least 16
	// distinct tasks").
	MaxTasks int `yaml:"max_tasks"`

	// MaxCPUs is reported in Init's log line. It does not change the
	// cpu_id header field, which is fixed at record.MaxCPUs values.
	MaxCPUs int `yaml:"max_cpus"`

	// DefaultColor is loaded and stored but not applied by the writer
	// surface: a writer call's color argument of 0 is recorded as 0.
	DefaultColor uint8 `yaml:"default_color"`

	// AttributeISRToInterruptedTask sets the initial value of the
	// runtime ISR-attribution toggle (spec §6).
	AttributeISRToInterruptedTask bool `yaml:"attribute_isr_to_interrupted_task"`
}

// LoadConfig reads a YAML file at path and unmarshals it over
// DefaultConfig, so a config file only needs to set the fields it wants
// to override. Grounded on the teacher pack's coordinator.LoadConfig
// (read-whole-file-then-yaml.Unmarshal-over-defaults shape).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml configuration: %w", err)
	}
	return &cfg, nil
}

// DefaultConfig returns the configuration used when New is called
// with a zero Config.
func DefaultConfig() Config {
	return Config{
		BufferSize:   constants.DefaultBufferSize,
		MaxTasks:     constants.DefaultMaxTasks,
		MaxCPUs:      constants.DefaultMaxCPUs,
		DefaultColor: 0,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BufferSize <= 0 {
		c.BufferSize = d.BufferSize
	}
	if c.MaxTasks <= 0 {
		c.MaxTasks = d.MaxTasks
	}
	if c.MaxCPUs <= 0 {
		c.MaxCPUs = d.MaxCPUs
	}
	return c
}

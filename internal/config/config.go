// Package config loads the engine's YAML-defined application options: a
// small declarative structure describing what to build (adapter options,
// scheduler policy, phase table), backed by gopkg.in/yaml.v3 and mapped
// directly onto struct tags.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/voodooEntity/reactor/internal/adapter"
	"github.com/voodooEntity/reactor/internal/graph"
	"github.com/voodooEntity/reactor/internal/phase"
	"github.com/voodooEntity/reactor/internal/reactor"
	"github.com/voodooEntity/reactor/internal/scheduler"
)

// PhaseConfig is one pipeline stage as it appears in YAML. Filters are not
// expressible in YAML and default to nil (match everything); attach one
// programmatically after Load by editing the returned reactor.Options.
type PhaseConfig struct {
	Name      string   `yaml:"name"`
	Kind      string   `yaml:"kind"`      // "each" | "all"
	Traversal string   `yaml:"traversal"` // "dirty_only" | "dirty_and_down" | "dirty_and_up" | "all"
	Routes    []string `yaml:"routes"`
}

// AdapterConfig configures the hierarchical data document.
type AdapterConfig struct {
	AutoCreate    bool   `yaml:"auto_create"`
	ArrayDelete   string `yaml:"array_delete"`   // "splice" | "unset"
	IndexEnabled  bool   `yaml:"index_enabled"`
	IndexStrategy string `yaml:"index_strategy"` // "lazy_key" | "eager_all_keys"
}

// SchedulerConfig configures the dirty-bucket scheduler's timing policy.
type SchedulerConfig struct {
	Policy          string `yaml:"policy"` // "sync" | "microtask" | "frame"
	MaxUPS          int    `yaml:"max_ups"`
	FrameIntervalMS int    `yaml:"frame_interval_ms"`
}

// Config is the top-level application configuration document.
type Config struct {
	LogLevel     string          `yaml:"log_level"`
	DebugLevel   int             `yaml:"debug_level"`
	Adapter      AdapterConfig   `yaml:"adapter"`
	Scheduler    SchedulerConfig `yaml:"scheduler"`
	Phases       []PhaseConfig   `yaml:"phases"`
	PrimaryTypes []string        `yaml:"primary_types"`
}

// defaultConfig seeds every field that has a documented default, so that a
// document omitting a block entirely (or a field within one) inherits that
// default rather than Go's zero value: yaml.Unmarshal only overwrites keys
// actually present in the document, leaving the rest of a pre-populated
// struct untouched.
func defaultConfig() Config {
	return Config{
		LogLevel: "warning",
		Adapter: AdapterConfig{
			AutoCreate:    true,
			ArrayDelete:   "unset",
			IndexEnabled:  true,
			IndexStrategy: "eager_all_keys",
		},
		Scheduler: SchedulerConfig{
			Policy: "sync",
			MaxUPS: 120,
		},
	}
}

// Load reads and parses a YAML config file from path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	c := defaultConfig()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &c, nil
}

// AdapterOptions translates the YAML adapter block into adapter.Options.
func (c *Config) AdapterOptions() adapter.Options {
	opts := adapter.DefaultOptions()
	opts.AutoCreate = c.Adapter.AutoCreate
	opts.IndexEnabled = c.Adapter.IndexEnabled
	if c.Adapter.ArrayDelete == "splice" {
		opts.ArrayDelete = adapter.ArraySplice
	} else {
		opts.ArrayDelete = adapter.ArrayUnset
	}
	if c.Adapter.IndexStrategy == "lazy_key" {
		opts.IndexStrategy = adapter.IndexLazyKey
	} else {
		opts.IndexStrategy = adapter.IndexEagerAllKeys
	}
	return opts
}

func traversalFromString(s string) graph.TraversalPolicy {
	switch s {
	case "dirty_and_down":
		return graph.TraversalDirtyAndDown
	case "dirty_and_up":
		return graph.TraversalDirtyAndUp
	case "all":
		return graph.TraversalAll
	default:
		return graph.TraversalDirtyOnly
	}
}

func policyFromString(s string) scheduler.Policy {
	switch s {
	case "microtask":
		return scheduler.PolicyMicrotask
	case "frame":
		return scheduler.PolicyFrame
	default:
		return scheduler.PolicySync
	}
}

// ReactorOptions translates the whole config document into reactor.Options.
func (c *Config) ReactorOptions() reactor.Options {
	defs := make([]phase.Definition, len(c.Phases))
	for i, p := range c.Phases {
		kind := phase.Each
		if p.Kind == "all" {
			kind = phase.All
		}
		defs[i] = phase.Definition{
			Name:      p.Name,
			Kind:      kind,
			Traversal: traversalFromString(p.Traversal),
			Routes:    p.Routes,
		}
	}
	if len(defs) == 0 {
		opts := reactor.DefaultOptions()
		opts.AdapterOptions = c.AdapterOptions()
		opts.Policy = policyFromString(c.Scheduler.Policy)
		opts.MaxUPS = c.Scheduler.MaxUPS
		opts.PrimaryTypes = c.PrimaryTypes
		return opts
	}
	return reactor.Options{
		AdapterOptions: c.AdapterOptions(),
		Policy:         policyFromString(c.Scheduler.Policy),
		MaxUPS:         c.Scheduler.MaxUPS,
		Phases:         defs,
		PrimaryTypes:   c.PrimaryTypes,
	}
}

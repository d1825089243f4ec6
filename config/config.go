// Package config loads and validates logpipe pipeline configuration
// from TOML or YAML files and builds the ready logger factory.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/msto63/logpipe/core/log"
	"github.com/msto63/logpipe/sink"
	"github.com/msto63/logpipe/sink/sqlite"
)

// Destination kinds accepted in configuration files.
const (
	KindConsole  = "console"
	KindFile     = "file"
	KindJSON     = "json"
	KindDatabase = "database"
)

// Pipeline is the file model of a logging pipeline.
type Pipeline struct {
	MinLevel      string        `toml:"min_level" yaml:"min_level"`
	Async         bool          `toml:"async" yaml:"async"`
	QueueCapacity int           `toml:"queue_capacity" yaml:"queue_capacity"`
	Destinations  []Destination `toml:"destination" yaml:"destinations"`
}

// Destination is the file model of one configured destination.
type Destination struct {
	Kind       string `toml:"kind" yaml:"kind"`
	Mode       string `toml:"mode" yaml:"mode"`
	Unguarded  bool   `toml:"unguarded" yaml:"unguarded"` // opt out of internal locking
	BufferSize int    `toml:"buffer_size" yaml:"buffer_size"`
	Path       string `toml:"path" yaml:"path"`
	Append     bool   `toml:"append" yaml:"append"`
	NoColor    bool   `toml:"no_color" yaml:"no_color"`
	PoolSize   int    `toml:"pool_size" yaml:"pool_size"`
}

// Load reads a pipeline configuration file, detecting the format from
// the file extension (.toml, .yaml, .yml).
func Load(path string) (*Pipeline, error) {
	var p Pipeline
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &p); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config: unsupported file extension %q", filepath.Ext(path))
	}
	return &p, nil
}

// Validate checks the configuration. Violations are fatal build-time
// errors, never silently defaulted.
func (p *Pipeline) Validate() error {
	if p.MinLevel != "" {
		if _, err := log.ParseLevel(p.MinLevel); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if p.QueueCapacity < 0 {
		return fmt.Errorf("config: queue_capacity must be positive")
	}
	if len(p.Destinations) == 0 {
		return fmt.Errorf("config: at least one destination is required")
	}
	for i, d := range p.Destinations {
		if err := d.validate(); err != nil {
			return fmt.Errorf("config: destination %d: %w", i, err)
		}
	}
	return nil
}

func (d *Destination) validate() error {
	switch d.Kind {
	case KindConsole:
	case KindFile, KindJSON, KindDatabase:
		if d.Path == "" {
			return fmt.Errorf("%s destination requires a path", d.Kind)
		}
	default:
		return fmt.Errorf("unknown kind %q", d.Kind)
	}
	if _, err := sink.ParseWriteMode(d.Mode); err != nil {
		return err
	}
	if d.BufferSize < 0 {
		return fmt.Errorf("buffer_size must be positive")
	}
	if d.PoolSize < 0 {
		return fmt.Errorf("pool_size must be positive")
	}
	return nil
}

// Build validates the configuration, constructs every destination and
// assembles the logger factory. Destinations opened before a later
// failure are closed again so no handles leak.
func (p *Pipeline) Build() (*log.Factory, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	minLevel := log.DefaultLevel()
	if p.MinLevel != "" {
		minLevel, _ = log.ParseLevel(p.MinLevel)
	}

	var destinations []log.Destination
	closeAll := func() {
		for _, d := range destinations {
			d.Close(context.Background())
		}
	}
	for i, dc := range p.Destinations {
		dest, err := dc.build()
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("config: destination %d: %w", i, err)
		}
		destinations = append(destinations, dest)
	}

	factory, err := log.NewFactory(log.FactoryConfig{
		MinLevel:      minLevel,
		Destinations:  destinations,
		Async:         p.Async,
		QueueCapacity: p.QueueCapacity,
	})
	if err != nil {
		closeAll()
		return nil, err
	}
	return factory, nil
}

func (d *Destination) build() (log.Destination, error) {
	mode, _ := sink.ParseWriteMode(d.Mode)
	opts := sink.Options{
		Mode:       mode,
		BufferSize: d.BufferSize,
	}
	if d.Unguarded {
		opts.Lock = sink.NotThreadSafe
	}

	switch d.Kind {
	case KindConsole:
		return sink.NewConsole(sink.ConsoleOptions{
			Options:       opts,
			DisableColors: d.NoColor,
		}), nil
	case KindFile:
		return sink.NewFile(d.Path, sink.FileOptions{Options: opts, Append: d.Append})
	case KindJSON:
		return sink.NewJSONLines(d.Path, sink.FileOptions{Options: opts, Append: d.Append})
	case KindDatabase:
		return sqlite.New(d.Path, sqlite.Options{Options: opts, PoolSize: d.PoolSize})
	default:
		return nil, fmt.Errorf("unknown kind %q", d.Kind)
	}
}

package log

import (
	"context"
	"errors"
	"sync"
)

// Configuration errors raised at build time. These are the one class of
// pipeline errors that surface loudly instead of being swallowed.
var (
	ErrNoDestinations   = errors.New("log: at least one destination is required")
	ErrBadQueueCapacity = errors.New("log: queue capacity must be positive")
)

// FactoryConfig assembles a logger factory. QueueCapacity applies to
// async delivery only; zero selects DefaultQueueCapacity while a
// negative value is rejected.
type FactoryConfig struct {
	MinLevel      Level
	Destinations  []Destination
	Async         bool
	QueueCapacity int
}

// Factory creates and caches one logger per category. It owns the
// destination list and the shared minimum level, and its Close is the
// lifecycle boundary for the whole pipeline: flush, close loggers, then
// close destinations.
type Factory struct {
	minLevel      Level
	destinations  []Destination
	async         bool
	queueCapacity int

	mu      sync.Mutex
	loggers map[string]CategoryLogger
}

// NewFactory validates the configuration and builds a factory.
func NewFactory(cfg FactoryConfig) (*Factory, error) {
	if len(cfg.Destinations) == 0 {
		return nil, ErrNoDestinations
	}
	if cfg.QueueCapacity < 0 {
		return nil, ErrBadQueueCapacity
	}
	capacity := cfg.QueueCapacity
	if capacity == 0 {
		capacity = DefaultQueueCapacity
	}
	return &Factory{
		minLevel:      cfg.MinLevel,
		destinations:  cfg.Destinations,
		async:         cfg.Async,
		queueCapacity: capacity,
		loggers:       make(map[string]CategoryLogger),
	}, nil
}

// CreateLogger returns the logger for the category, creating and caching
// it on first request.
func (f *Factory) CreateLogger(category string) CategoryLogger {
	f.mu.Lock()
	defer f.mu.Unlock()

	if logger, ok := f.loggers[category]; ok {
		return logger
	}

	var logger CategoryLogger
	if f.async {
		logger = NewAsyncLogger(category, f.minLevel, f.queueCapacity, f.destinations...)
	} else {
		logger = NewLogger(category, f.minLevel, f.destinations...)
	}
	f.loggers[category] = logger
	return logger
}

// Flush fans out to every cached logger.
func (f *Factory) Flush(ctx context.Context) {
	for _, logger := range f.snapshot() {
		logger.Flush(ctx)
	}
}

// Close flushes, closes every cached logger and then every destination.
// Individual failures are swallowed and reported so one misbehaving
// destination cannot block cleanup of the rest.
func (f *Factory) Close(ctx context.Context) error {
	loggers := f.snapshot()
	for _, logger := range loggers {
		logger.Flush(ctx)
	}
	for _, logger := range loggers {
		if err := logger.Close(ctx); err != nil {
			Reportf("closing logger %q: %v", logger.Category(), err)
		}
	}
	for _, d := range f.destinations {
		if err := d.Close(ctx); err != nil {
			Reportf("closing destination: %v", err)
		}
	}
	return nil
}

func (f *Factory) snapshot() []CategoryLogger {
	f.mu.Lock()
	defer f.mu.Unlock()
	loggers := make([]CategoryLogger, 0, len(f.loggers))
	for _, logger := range f.loggers {
		loggers = append(loggers, logger)
	}
	return loggers
}

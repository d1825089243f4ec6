// Package log implements the core of the logpipe structured logging
// pipeline: severity levels, immutable log entries, message-template
// parsing, ambient scopes, and the per-category loggers that fan entries
// out to one or more destinations.
//
// Two delivery disciplines are provided. Logger performs every
// destination write on the caller's stack and blocks until done.
// AsyncLogger only enqueues onto a bounded queue drained by a single
// background consumer; on a full queue, ordinary entries wait briefly
// and are then dropped while Error and Critical entries fall back to a
// direct write.
//
// Destinations live in the sink packages. Delivery failures never reach
// the logging call site: they are swallowed at the destination boundary
// and reported on a fallback diagnostic channel (process stdout by
// default).
//
// Usage:
//
//	factory, err := log.NewFactory(log.FactoryConfig{
//		MinLevel:     log.LevelInformation,
//		Destinations: []log.Destination{consoleSink, fileSink},
//	})
//	if err != nil {
//		// configuration errors surface at build time
//	}
//	defer factory.Close(context.Background())
//
//	logger := factory.CreateLogger("billing")
//	ctx = log.BeginScope(ctx, log.Fields{"OrderId": 42})
//	logger.Information(ctx, "charged {Amount:%.2f} to {User}", total, user)
package log

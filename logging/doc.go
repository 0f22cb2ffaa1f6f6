// Package logging provides a minimal logging interface and adapters for Unipath.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the server, counsellor engine and stores use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - StructuredLogger with contextual helpers and domain specific records
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "json"})
//	engine := counsellor.NewEngine(llm, assembler, dispatcher, func(o *counsellor.Options) {
//		o.Logger = logger.WithComponent("counsellor")
//	})
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging

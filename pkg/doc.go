// Package pkg provides shared utilities for the softuvc control plane.
//
// This package contains common functionality used across the capability,
// negotiation, and streaming packages, including:
//
//   - Structured logging via [github.com/rs/zerolog]
//   - Sentinel error types for negotiation and arbitration failures
//   - Component identifiers for log filtering
//   - Prometheus collectors for control-plane instrumentation
//
// # Logging
//
// The logging subsystem wraps zerolog with capture-specific context.
// Loggers are injected into streams at construction time; the package
// default writes nothing until explicitly configured:
//
//	pkg.Configure(pkg.LogConfig{Level: "debug", Output: os.Stderr})
//	log := pkg.ComponentLogger(pkg.ComponentStream)
//
// # Errors
//
// Common control-plane errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrDeviceBusy) {
//	    // Another handle holds streaming privileges.
//	}
package pkg

// Package pkg provides utilities shared by the pad firmware and the host
// tools.
//
// This package contains:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel errors for control-transfer and pad failures
//   - Component identifiers for log filtering
//
// Configuration lives in [github.com/ardnew/fsrpad/pkg/config] and the
// report wire format in [github.com/ardnew/fsrpad/pkg/report].
//
// # Logging
//
// The logging subsystem wraps [log/slog] with a component attribute:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentStore, "thresholds saved", "slot", 3)
//
// # Errors
//
// Failures are reported as sentinel values, wrapped with context:
//
//	if errors.Is(err, pkg.ErrNoDevice) {
//	    // Pad was unplugged
//	}
package pkg

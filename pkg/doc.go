// Package pkg provides shared utilities for the softp2io board emulation.
//
// This package contains common functionality used across the USB function
// layer, the P2IO command dispatcher, the ACIO sub-bus and the input
// backends, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error values for transport and board errors
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with a component tag:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentBoard, "board opened", "game", "ddr")
//
// Byte payloads are wrapped in [Hex] so they are only formatted when the
// record is emitted:
//
//	pkg.LogDebug(pkg.ComponentBoard, "request", "frame", pkg.Hex(frame))
//
// # Errors
//
// Errors are defined as sentinel values and wrapped with context:
//
//	if errors.Is(err, pkg.ErrSnapshotSize) {
//	    // reject the blob
//	}
package pkg

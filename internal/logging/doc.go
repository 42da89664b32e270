// Package logging provides structured logging utilities for todoist-daily.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Handler construction from the --log-format / --log-level settings
//   - Consistent attribute naming across the codebase
//   - Token sanitization
//   - Logger adapter interface for flexibility
//
// # Usage Patterns
//
// Build the process logger once at startup:
//
//	logger, err := logging.New("json", "info", os.Stderr)
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "daily.build")
//	logger.Info("report built",
//	    logging.Status(logging.StatusSuccess))
//
// # Security Considerations
//
// Todoist access tokens are never logged directly. Use SanitizeToken when a
// log line needs to show that a token was present.
package logging

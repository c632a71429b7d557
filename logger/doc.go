// Package logger provides structured logging capabilities.
//
// The logger package sets up and configures the application's logging
// system using zap. All log output goes to stderr because stdout is the
// wire for the pipe transport.
//
// Usage:
//
//	logger, err := logger.New("production", "info")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger.Info("server started", zap.Int("port", 8080))
package logger

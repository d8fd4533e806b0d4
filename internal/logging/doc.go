// Package logging provides structured logging for mindnode.
//
// It wraps log/slog with a JSON handler writing to {data_dir}/mindnode.log,
// rotated by size through [RotatingWriter]. Child loggers created with
// [Logger.With], [Logger.WithBoard] or [Logger.WithComponent] share the
// parent's file.
//
//	logger, err := logging.NewLogger(dataDir, "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.WithComponent("import").Info("plan imported", "nodes", 12)
//
// Use [NopLogger] in tests or when logging is disabled.
package logging

// Package logging provides structured logging for fmrimap.
//
// # Overview
//
// Logging package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Console or JSON encoding on stderr, so interactive prompts on stdout
//     are never interleaved with log lines
//   - Automatic context field injection (session, dataset, run)
//
// # Usage
//
// Create logger from config:
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx = logging.WithSessionID(ctx, uuid.NewString())
//	ctx = logging.WithDataset(ctx, ds.Path)
//	logger.Warn(ctx, "run directory missing", zap.String("run", "3"))
//
// # Testing
//
// Use TestLogger for test assertions:
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertField(t, "test message", "key", "value")
package logging

package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global logger instance
	Logger *zap.SugaredLogger
	// Flag to track if JSON output is enabled
	JSONOutput bool
	// Output is where log lines are written. Stdout is reserved for command
	// output (documents, JSON results), so logs default to stderr.
	Output io.Writer = os.Stderr
)

func init() {
	// Initialize with a safe no-op logger at package load time
	// This prevents nil pointer panics if logger is used before Initialize() is called
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger.
// jsonOutput selects structured JSON lines; verbosity is the -v count.
func Initialize(jsonOutput bool, verbosity int) error {
	JSONOutput = jsonOutput
	level := zap.NewAtomicLevelAt(VerbosityToLevel(verbosity))

	var encoder zapcore.Encoder
	if jsonOutput {
		// JSON structured output for machine consumption
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		// Human-readable console output, no timestamps or callers
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	zapLogger := zap.New(zapcore.NewCore(encoder, zapcore.AddSync(Output), level))
	Logger = zapLogger.Sugar()
	return nil
}

// Cleanup flushes any buffered log entries
func Cleanup() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Infow logs an info message with structured fields
func Infow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, keysAndValues...)
	}
}

// Errorw logs an error message with structured fields
func Errorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Errorw(msg, keysAndValues...)
	}
}

// Warnw logs a warning message with structured fields
func Warnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, keysAndValues...)
	}
}

// Debugw logs a debug message with structured fields
func Debugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, keysAndValues...)
	}
}

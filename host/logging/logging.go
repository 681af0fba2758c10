// Package logging builds the zap loggers used by the host tools and routes
// the core debug writers into them.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"wincbus/core"
)

// NewLoggerConfig is zap's development config without stack traces, with
// production keys and colored levels.
func NewLoggerConfig() zap.Config {
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// NewLogger returns a named logger at Info, or Debug when debug is set.
func NewLogger(name string, debug bool) *zap.SugaredLogger {
	cfg := NewLoggerConfig()
	if debug {
		cfg.Level.SetLevel(zap.DebugLevel)
	}
	return zap.Must(cfg.Build()).Sugar().Named(name)
}

// AttachCore points the core debug and error writers at logger and turns
// core debug output on when logger has Debug enabled.
func AttachCore(logger *zap.SugaredLogger) {
	l := logger.Named("core")
	core.SetDebugWriter(func(s string) { l.Debug(s) })
	core.SetErrorWriter(func(s string) { l.Error(s) })
	core.SetDebugEnabled(l.Desugar().Core().Enabled(zap.DebugLevel))
}

// DetachCore silences the core writers again.
func DetachCore() {
	core.SetDebugWriter(nil)
	core.SetErrorWriter(nil)
	core.SetDebugEnabled(false)
}

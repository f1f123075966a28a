package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options select the log format and verbosity.
type Options struct {
	JSON  bool
	Debug bool
	// Output defaults to stderr, keeping stdout for answers and reports.
	Output string
}

// Build creates the process logger.
func Build(opts Options) (*zap.Logger, error) {
	logger, err := Config(opts).Build()
	if err != nil {
		return nil, err
	}

	return logger, nil
}

// Config returns the zap configuration for opts. The console format colors
// levels, the json format keeps them plain.
func Config(opts Options) zap.Config {
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	encoding, encodeLevel := "console", zapcore.CapitalColorLevelEncoder
	if opts.JSON {
		encoding, encodeLevel = "json", zapcore.LowercaseLevelEncoder
	}

	output := opts.Output
	if output == "" {
		output = "stderr"
	}

	return zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:  "step",
			LevelKey:    "level",
			EncodeLevel: encodeLevel,
			TimeKey:     "time",
			EncodeTime:  zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,

			StacktraceKey:  "stacktrace",
			EncodeDuration: zapcore.StringDurationEncoder,
		},
	}
}

package logger

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	Log      *zap.Logger
	onceInit sync.Once
)

type Options struct {
	Level zapcore.Level
	// Format is FormatConsole (default) or FormatJSON.
	Format string
}

// Init builds the package level logger once. Later calls are no-ops.
func Init(opts Options, meta ...zap.Field) error {
	var buildErr error
	onceInit.Do(func() {
		instance, err := configure(opts).Build()
		if err != nil {
			buildErr = errors.Wrap(err, "build logger")
			return
		}
		Log = instance.With(meta...)
	})

	if buildErr != nil {
		return buildErr
	}
	if Log == nil {
		return errors.New("logger not initialized")
	}

	return nil
}

// L returns the package logger, or a no-op logger before Init.
func L() *zap.Logger {
	if Log == nil {
		return zap.NewNop()
	}
	return Log
}

func configure(opts Options) zap.Config {
	encoding := FormatConsole
	levelEncoder := zapcore.CapitalColorLevelEncoder
	if opts.Format == FormatJSON {
		encoding = FormatJSON
		levelEncoder = zapcore.LowercaseLevelEncoder
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = "timestamp"
	encoder.CallerKey = "caller"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder.EncodeLevel = levelEncoder
	encoder.EncodeCaller = zapcore.ShortCallerEncoder
	encoder.EncodeDuration = zapcore.MillisDurationEncoder

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(opts.Level),
		Encoding:         encoding,
		EncoderConfig:    encoder,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

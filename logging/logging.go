package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// GetSugaredLogger initializes and returns a SugaredLogger instance.
// It uses a development logger configuration, which is handy in tests and examples.
func GetSugaredLogger() *zap.SugaredLogger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("cannot initialize zap")
	}

	return logger.Sugar()
}

// NewLogger builds a JSON logger at the given level writing to stdout.
// When file is not empty the output is also written to a size-rotated file.
func NewLogger(level, file string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	syncer := zapcore.AddSync(os.Stdout)
	if file != "" {
		syncer = zapcore.NewMultiWriteSyncer(syncer, zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    100, // megabytes
			MaxBackups: 7,
			MaxAge:     3, // days
		}))
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), syncer, lvl)

	return zap.New(core, zap.AddCaller()).Sugar(), nil
}

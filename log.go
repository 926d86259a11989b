package kbinxml

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func normaliseWriters(writers ...zapcore.WriteSyncer) zapcore.WriteSyncer {
	if len(writers) == 1 {
		return writers[0]
	}
	return zapcore.NewMultiWriteSyncer(writers...)
}

// NewConsoleLogger creates a `zap.SugaredLogger` configured for
// human-readable output to writers.
func NewConsoleLogger(writers ...zapcore.WriteSyncer) *zap.SugaredLogger {
	writer := normaliseWriters(writers...)
	encoderCfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	level := parseLevel(GetConfig().LogLevel)
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), writer, level)
	return zap.New(core).Sugar()
}

func parseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Log is the package-level logger consulted by Decode/Encode: Encode logs
// a debug summary of each container it writes, and Decode warns when the
// element stack is not drained at FileEnd. Replace it with SetLogger
// before calling into the package from a program with its own logging
// setup.
var Log = NewConsoleLogger(zapcore.AddSync(os.Stderr))

// SetLogger replaces the package-level logger.
func SetLogger(l *zap.SugaredLogger) {
	Log = l
}

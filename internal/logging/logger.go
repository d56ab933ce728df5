package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/config"
)

// VerboseLogger is the diagnostic log sink: full message content and
// per-step tracing, written to a rotating file and kept out of the
// operational log.
type VerboseLogger struct {
	*zap.Logger
}

// InitLogger initializes the operational logger based on configuration
func InitLogger(cfg *config.Config) (*zap.Logger, error) {
	logCfg := cfg.GetLogging()

	var level zapcore.Level
	switch logCfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var logConfig zap.Config
	if logCfg.Format == "json" {
		logConfig = zap.NewProductionConfig()
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := logConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger, nil
}

// InitVerboseLogger initializes the verbose diagnostic logger. When no
// verbose file is configured the returned logger discards everything.
func InitVerboseLogger(cfg *config.Config) *VerboseLogger {
	logCfg := cfg.GetLogging()
	if logCfg.VerboseFile == "" {
		return &VerboseLogger{zap.NewNop()}
	}

	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logCfg.VerboseFile,
		MaxSize:    logCfg.VerboseMaxSizeMB,
		MaxBackups: logCfg.VerboseBackups,
		Compress:   true,
	})

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		writer,
		zapcore.DebugLevel,
	)

	return &VerboseLogger{zap.New(core)}
}

// InitConsoleLogger initializes a console-friendly logger for CLI use
func InitConsoleLogger(verbose bool, jsonFormat bool) (*zap.Logger, error) {
	var level zapcore.Level
	if verbose {
		level = zapcore.DebugLevel
	} else {
		level = zapcore.InfoLevel
	}

	var logConfig zap.Config
	if jsonFormat {
		logConfig = zap.NewProductionConfig()
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := logConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger, nil
}

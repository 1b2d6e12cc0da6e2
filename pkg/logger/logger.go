package logger

import (
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
)

var Logger *zap.SugaredLogger

// Options selects the encoder preset, the minimum level and the sinks.
type Options struct {
	Dev bool
	// Level is a zap level name such as "debug"; empty keeps the preset's level.
	Level string
	// OutputPaths are zap sink URLs or file paths; empty keeps stderr.
	OutputPaths []string
}

func Init(dev bool) {
	if err := Configure(Options{Dev: dev}); err != nil {
		log.Print(err)
	}
}

// Configure builds the package logger from opts.
func Configure(opts Options) error {
	cfg := zap.NewProductionConfig()
	if opts.Dev {
		cfg = zap.NewDevelopmentConfig()
	}

	if opts.Level != "" {
		level, err := zap.ParseAtomicLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		cfg.Level = level
	}
	if len(opts.OutputPaths) > 0 {
		cfg.OutputPaths = opts.OutputPaths
	}

	return build(&cfg)
}

// UpdateLogger rebuilds the package logger from config.
// A nil config writes production JSON to metaspec.log.
func UpdateLogger(config *zap.Config) {
	defaultConfig := zap.NewProductionConfig()
	defaultConfig.OutputPaths = []string{"metaspec.log"}
	if config == nil {
		config = &defaultConfig
	}

	if err := build(config); err != nil {
		log.Print(err)
	}
}

func build(config *zap.Config) error {
	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	Logger = logger.Sugar()
	Info("MetaSpec Logger initialized")
	return nil
}

// Sync flushes buffered entries. Safe to call before Init.
func Sync() {
	if Logger == nil {
		return
	}
	_ = Logger.Sync()
}

func Info(template string, args ...interface{}) {
	if Logger == nil {
		log.Printf(template, args...)
		return
	}
	Logger.Infow(fmt.Sprintf(template, args...), "process_id", os.Getpid())
}

func Warn(template string, args ...interface{}) {
	if Logger == nil {
		log.Printf(template, args...)
		return
	}
	Logger.Warnw(fmt.Sprintf(template, args...), "process_id", os.Getpid())
}

func Error(template string, args ...interface{}) {
	if Logger == nil {
		log.Printf(template, args...)
		return
	}
	Logger.Errorw(fmt.Sprintf(template, args...), "process_id", os.Getpid())
}

func Debug(template string, args ...interface{}) {
	if Logger == nil {
		return
	}
	Logger.Debugw(fmt.Sprintf(template, args...), "process_id", os.Getpid())
}

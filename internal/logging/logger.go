// Package logging provides config-driven categorized logging for icabridge.
// Category loggers are named children of one zap logger. They are no-ops
// unless debug_mode is set, so the core packages stay silent by default.
package logging

import (
	"fmt"
	"strings"
	"sync"

	"icabridge/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup, config loading
	CategorySidecar  Category = "sidecar"  // Subprocess execution
	CategoryClient   Category = "client"   // Normalize/execute/decode pipeline
	CategoryContacts Category = "contacts" // Selected contacts state machine
	CategoryStore    Category = "store"    // Settings backends, file watcher
)

// Logger is a category logger with printf-style methods.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	cfg     config.LoggingConfig
	loggers = make(map[Category]*Logger)
)

// Build constructs the root zap logger described by lc.
// verbose forces debug level and enables every category.
func Build(lc config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Format != "json" {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	level := zapcore.InfoLevel
	if lc.Level != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(lc.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
		}
		level = parsed
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	if lc.File != "" {
		zc.OutputPaths = []string{lc.File}
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Initialize installs the root logger and category toggles.
// Should be called once at startup.
func Initialize(logger *zap.Logger, lc config.LoggingConfig) {
	if logger == nil {
		logger = zap.NewNop()
	}

	mu.Lock()
	root = logger
	cfg = lc
	loggers = make(map[Category]*Logger)
	mu.Unlock()

	Boot("logging initialized (debug_mode=%v, level=%s)", lc.DebugMode, lc.Level)
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return cfg.IsCategoryEnabled(string(category))
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode is disabled or category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category, sugar: zap.NewNop().Sugar()}
	}

	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}
	l := &Logger{
		category: category,
		sugar:    root.Named(string(category)).Sugar(),
	}
	loggers[category] = l
	return l
}

// With returns a child logger carrying key/value context.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(format string, args ...any) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...any) { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...any) { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...any) { l.sugar.Errorf(format, args...) }

// Sync flushes the root logger (call at shutdown).
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// These are no-ops if the category is disabled
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...any) {
	Get(CategoryBoot).Info(format, args...)
}

// BootDebug logs debug to the boot category
func BootDebug(format string, args ...any) {
	Get(CategoryBoot).Debug(format, args...)
}

// Sidecar logs to the sidecar category
func Sidecar(format string, args ...any) {
	Get(CategorySidecar).Info(format, args...)
}

// SidecarDebug logs debug to the sidecar category
func SidecarDebug(format string, args ...any) {
	Get(CategorySidecar).Debug(format, args...)
}

// Client logs to the client category
func Client(format string, args ...any) {
	Get(CategoryClient).Info(format, args...)
}

// ClientDebug logs debug to the client category
func ClientDebug(format string, args ...any) {
	Get(CategoryClient).Debug(format, args...)
}

// Contacts logs to the contacts category
func Contacts(format string, args ...any) {
	Get(CategoryContacts).Info(format, args...)
}

// ContactsDebug logs debug to the contacts category
func ContactsDebug(format string, args ...any) {
	Get(CategoryContacts).Debug(format, args...)
}

// Store logs to the store category
func Store(format string, args ...any) {
	Get(CategoryStore).Info(format, args...)
}

// StoreDebug logs debug to the store category
func StoreDebug(format string, args ...any) {
	Get(CategoryStore).Debug(format, args...)
}

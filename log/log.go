// Package log wraps a zap logger with the tagged Debugf/Infof/Warnf/Errorf helpers used
// throughout uhppoted-app-tasks.
package log

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var guard sync.RWMutex
var logger = zap.NewNop().Sugar()
var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// Init replaces the default no-op logger with a console logger. 'json' selects the zap
// production (JSON) encoder instead.
func Init(debug bool, json bool) error {
	config := zap.NewDevelopmentConfig()
	if json {
		config = zap.NewProductionConfig()
	}

	config.DisableStacktrace = true
	config.Level = level

	if debug {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.InfoLevel)
	}

	l, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("failed to initialise logger (%w)", err)
	}

	SetLogger(l)

	return nil
}

// SetLogger is mostly for tests, e.g. with zaptest/observer.
func SetLogger(l *zap.Logger) {
	guard.Lock()
	defer guard.Unlock()

	logger = l.Sugar()
}

func Sync() {
	guard.RLock()
	defer guard.RUnlock()

	logger.Sync()
}

func Debugf(tag string, format string, args ...any) {
	get().Debugw(fmt.Sprintf(format, args...), "tag", tag)
}

func Infof(tag string, format string, args ...any) {
	get().Infow(fmt.Sprintf(format, args...), "tag", tag)
}

func Warnf(tag string, format string, args ...any) {
	get().Warnw(fmt.Sprintf(format, args...), "tag", tag)
}

func Errorf(tag string, format string, args ...any) {
	get().Errorw(fmt.Sprintf(format, args...), "tag", tag)
}

func get() *zap.SugaredLogger {
	guard.RLock()
	defer guard.RUnlock()

	return logger
}

package logging

import (
	"sync"
)

var (
	instance *Logger
	mu       sync.Mutex
)

// InitLogger initializes the global logger with the given configuration.
// Calling it again replaces the instance, which tests rely on.
func InitLogger(config *LogConfig) error {
	mu.Lock()
	defer mu.Unlock()

	logger, err := NewLogger(config)
	if err != nil {
		return err
	}
	instance = logger
	return nil
}

// GetGlobalLogger returns the singleton logger instance. It panics when
// InitLogger has not been called; every entry point initializes logging
// before anything else runs.
func GetGlobalLogger() *Logger {
	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		panic("logger not initialized - call logging.InitLogger() first")
	}
	return instance
}

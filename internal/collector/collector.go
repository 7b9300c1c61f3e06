// Package collector gathers heterogeneous host readings (memory, storage,
// battery, CPU, network, management-service identity) and assembles them
// into a single DeviceSnapshot. Every probe is independently fallible and
// degrades to a fixed fallback value, so a snapshot is always fully
// populated.
package collector

import (
	"go.uber.org/zap"
)

// BaseCollector provides common logging functionality for collectors.
type BaseCollector struct {
	logger *zap.Logger
}

// NewBaseCollector creates a new BaseCollector with the given logger
func NewBaseCollector(logger *zap.Logger) BaseCollector {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return BaseCollector{logger: logger}
}

// Logger returns the collector's logger
func (b *BaseCollector) Logger() *zap.Logger {
	return b.logger
}

// LogWarning logs a warning message for partial failures during collection
func (b *BaseCollector) LogWarning(msg string, fields ...zap.Field) {
	b.logger.Warn(msg, fields...)
}

// LogError logs an error message
func (b *BaseCollector) LogError(msg string, fields ...zap.Field) {
	b.logger.Error(msg, fields...)
}

// LogDebug logs a debug message
func (b *BaseCollector) LogDebug(msg string, fields ...zap.Field) {
	b.logger.Debug(msg, fields...)
}

// Package bridge exposes the device-telemetry surface consumed by host
// integrations: a synchronous snapshot call, a single-delivery async
// variant, a capability probe, and the static feature list.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/devicefabric/agent/internal/collector"
	"github.com/devicefabric/agent/internal/config"
	"github.com/devicefabric/agent/internal/workerpool"
	"github.com/devicefabric/agent/pkg/models"
	"go.uber.org/zap"
)

// supportedFeatures is the fixed, ordered capability list. No runtime
// detection: a feature's presence here means the corresponding probe
// exists, not that it currently returns live data.
var supportedFeatures = []string{
	"memory-info",
	"storage-info",
	"battery-info",
	"cpu-info",
	"network-info",
	"wmi-queries",
	"performance-counters",
}

// SnapshotSource produces device snapshots. Satisfied by
// *collector.SnapshotCollector.
type SnapshotSource interface {
	Collect() (models.DeviceSnapshot, error)
}

// SystemInfoSource produces extended system info. Satisfied by
// *collector.SnapshotCollector.
type SystemInfoSource interface {
	SystemInfo() models.SystemInfo
}

// Bridge is the public entry point for callers. Construction fails only
// when the underlying collector cannot initialize its management-query
// subsystem.
type Bridge struct {
	source SnapshotSource
	pool   *workerpool.Pool
	logger *zap.Logger
}

// New builds a Bridge wired to a live SnapshotCollector.
func New(cfg *config.Config, logger *zap.Logger) (*Bridge, error) {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	col, err := collector.New(logger.Named("collector"), collector.Options{
		StorageVolume: cfg.StorageVolume,
		QueryTimeout:  cfg.WMIQueryTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to construct collector: %w", err)
	}

	return &Bridge{
		source: col,
		pool:   workerpool.New(cfg.WorkerCount, cfg.QueueSize, logger),
		logger: logger.Named("bridge"),
	}, nil
}

// CollectSnapshot produces one fully populated snapshot synchronously.
// This may block for the duration of probe sampling and management-service
// round trips.
func (b *Bridge) CollectSnapshot() (models.DeviceSnapshot, error) {
	return b.source.Collect()
}

// CollectSnapshotAsync runs the collection on a worker and delivers the
// result through exactly one of resolve or reject — never both, never
// neither. The worker owns the in-flight snapshot exclusively.
func (b *Bridge) CollectSnapshotAsync(resolve func(models.DeviceSnapshot), reject func(error)) {
	var once sync.Once

	deliverOK := func(snap models.DeviceSnapshot) {
		once.Do(func() { resolve(snap) })
	}
	deliverErr := func(err error) {
		once.Do(func() { reject(err) })
	}

	submitted := b.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("snapshot assembly panicked", zap.Any("panic", r))
				deliverErr(fmt.Errorf("snapshot assembly panicked: %v", r))
			}
		}()

		snap, err := b.source.Collect()
		if err != nil {
			deliverErr(err)
			return
		}
		deliverOK(snap)
	})

	if !submitted {
		deliverErr(errors.New("snapshot worker queue is full"))
	}
}

// SystemInfo returns management-service identity data with live
// performance counters when the underlying source supports it.
func (b *Bridge) SystemInfo() (models.SystemInfo, error) {
	src, ok := b.source.(SystemInfoSource)
	if !ok {
		return models.SystemInfo{}, errors.New("system info not supported by this source")
	}
	return src.SystemInfo(), nil
}

// Prime takes an initial CPU sample so the first snapshot reports a real
// usage delta. Optional; without it the first snapshot carries the CPU
// fallback value.
func (b *Bridge) Prime() {
	if p, ok := b.source.(interface{ Prime() }); ok {
		p.Prime()
	}
}

// IsAvailable reports whether the bridge is usable. A constructed bridge
// always is; the capability probe exists for callers that feature-gate.
func (b *Bridge) IsAvailable() bool {
	return true
}

// SupportedFeatures returns the fixed capability tag list, in order.
func (b *Bridge) SupportedFeatures() []string {
	features := make([]string, len(supportedFeatures))
	copy(features, supportedFeatures)
	return features
}

// Shutdown drains the async worker pool, letting in-flight deliveries
// complete within the context deadline.
func (b *Bridge) Shutdown(ctx context.Context) {
	b.pool.Shutdown(ctx)
}

package collector

import (
	"fmt"
	"runtime"
	"time"

	"github.com/devicefabric/agent/pkg/models"
	"go.uber.org/zap"
)

// Options configures a SnapshotCollector.
type Options struct {
	// StorageVolume is the volume reported in the snapshot's storage field.
	// Empty means the platform default (C:\ on Windows, / elsewhere).
	StorageVolume string
	// QueryTimeout bounds each management-service property query.
	QueryTimeout time.Duration
}

// probe is one entry in the collection table: it either writes a real
// reading into the snapshot or the fallback applier writes the documented
// default. Adding a metric means adding one entry here.
type probe struct {
	name     string
	run      func(snap *models.DeviceSnapshot) error
	fallback func(snap *models.DeviceSnapshot)
}

// SnapshotCollector produces one fully populated DeviceSnapshot per call.
// It is safe for concurrent use; the only cross-call state is the CPU
// delta sampler, which guards itself.
type SnapshotCollector struct {
	BaseCollector
	querier Querier
	sampler *cpuSampler
	volume  string

	// Probe readers, swappable in tests.
	readMemory    func() (models.MemoryStatus, error)
	readStorage   func(volume string) (models.StorageStatus, error)
	readBattery   func() (models.BatteryStatus, error)
	readNetwork   func() (models.NetworkStatus, error)
	readOSVersion func() (string, error)
	readBuild     func() (string, error)
	readProcessor func() (string, error)
	readArch      func() (string, error)
	readCores     func() (int, error)
}

// New creates a SnapshotCollector. It fails only when the management-query
// subsystem cannot be initialized; probe failures at collection time never
// surface as errors.
func New(logger *zap.Logger, opts Options) (*SnapshotCollector, error) {
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 3 * time.Second
	}
	querier, err := newManagementQuerier(opts.QueryTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("management query subsystem: %w", err)
	}

	s := &SnapshotCollector{
		BaseCollector: NewBaseCollector(logger),
		querier:       querier,
		sampler:       newCPUSampler(),
		volume:        opts.StorageVolume,
	}
	if s.volume == "" {
		s.volume = defaultVolume()
	}

	s.readMemory = probeMemory
	s.readStorage = probeStorage
	s.readBattery = probeBattery
	s.readNetwork = probeNetwork
	s.readOSVersion = probeOSVersion
	s.readBuild = func() (string, error) { return probeBuildNumber(s.querier) }
	s.readProcessor = func() (string, error) { return probeProcessorName(s.querier) }
	s.readArch = probeArchitecture
	s.readCores = probeCoreCount
	return s, nil
}

// Collect gathers every probe exactly once and returns the assembled
// snapshot. A failed probe is logged and replaced by its fallback; the
// returned error is always nil and exists for interface compatibility.
func (s *SnapshotCollector) Collect() (models.DeviceSnapshot, error) {
	s.LogDebug("starting snapshot collection")

	snap := models.DeviceSnapshot{Platform: runtime.GOOS}
	for _, p := range s.probeTable() {
		s.runProbe(p, &snap)
	}

	s.LogDebug("snapshot collection completed",
		zap.Float64("cpuUsage", snap.CPU.UsagePercent),
		zap.Uint64("memAvailable", snap.Memory.AvailableBytes))
	return snap, nil
}

// Prime takes an initial CPU tick sample so the next Collect reports a real
// usage delta instead of the first-call fallback. Optional.
func (s *SnapshotCollector) Prime() {
	s.sampler.Prime()
}

// SystemInfo returns management-service identity strings together with
// utilization percentages derived from a fresh snapshot.
func (s *SnapshotCollector) SystemInfo() models.SystemInfo {
	snap, _ := s.Collect()
	return models.SystemInfo{
		WMIData: models.WMIData{
			ComputerSystem:  s.queryOr("Win32_ComputerSystem", "Model", "Windows PC"),
			OperatingSystem: s.queryOr("Win32_OperatingSystem", "Caption", "Microsoft Windows"),
			Processor:       snap.ProcessorName,
		},
		PerformanceCounters: models.PerformanceCounters{
			CPUUsagePercent:    snap.CPU.UsagePercent,
			MemoryUsagePercent: usedPercent(snap.Memory.TotalBytes, snap.Memory.AvailableBytes),
			DiskUsagePercent:   usedPercent(snap.Storage.TotalBytes, snap.Storage.AvailableBytes),
		},
	}
}

// probeTable is the ordered list of facts collected into a snapshot.
func (s *SnapshotCollector) probeTable() []probe {
	return []probe{
		{
			name: "osVersion",
			run: func(snap *models.DeviceSnapshot) error {
				v, err := s.readOSVersion()
				if err != nil {
					return err
				}
				snap.OSVersion = v
				return nil
			},
			fallback: func(snap *models.DeviceSnapshot) { snap.OSVersion = fallbackOSVersion },
		},
		{
			name: "buildNumber",
			run: func(snap *models.DeviceSnapshot) error {
				v, err := s.readBuild()
				if err != nil {
					return err
				}
				snap.BuildNumber = v
				return nil
			},
			fallback: func(snap *models.DeviceSnapshot) { snap.BuildNumber = fallbackBuildNumber },
		},
		{
			name: "processorName",
			run: func(snap *models.DeviceSnapshot) error {
				v, err := s.readProcessor()
				if err != nil {
					return err
				}
				snap.ProcessorName = v
				return nil
			},
			fallback: func(snap *models.DeviceSnapshot) { snap.ProcessorName = fallbackProcessorName },
		},
		{
			name: "architecture",
			run: func(snap *models.DeviceSnapshot) error {
				v, err := s.readArch()
				if err != nil {
					return err
				}
				snap.Architecture = v
				return nil
			},
			fallback: func(snap *models.DeviceSnapshot) { snap.Architecture = fallbackArchitecture },
		},
		{
			name: "memory",
			run: func(snap *models.DeviceSnapshot) error {
				m, err := s.readMemory()
				if err != nil {
					return err
				}
				if m.AvailableBytes > m.TotalBytes {
					return fmt.Errorf("memory reading inconsistent: available %d > total %d",
						m.AvailableBytes, m.TotalBytes)
				}
				snap.Memory = m
				return nil
			},
			fallback: func(snap *models.DeviceSnapshot) {
				snap.Memory = models.MemoryStatus{
					TotalBytes:     fallbackMemoryTotal,
					AvailableBytes: fallbackMemoryAvailable,
				}
			},
		},
		{
			name: "storage",
			run: func(snap *models.DeviceSnapshot) error {
				st, err := s.readStorage(s.volume)
				if err != nil {
					return err
				}
				if st.AvailableBytes > st.TotalBytes {
					return fmt.Errorf("storage reading inconsistent: available %d > total %d",
						st.AvailableBytes, st.TotalBytes)
				}
				snap.Storage = st
				return nil
			},
			fallback: func(snap *models.DeviceSnapshot) {
				snap.Storage = models.StorageStatus{
					TotalBytes:     fallbackStorageTotal,
					AvailableBytes: fallbackStorageFree,
				}
			},
		},
		{
			name: "battery",
			run: func(snap *models.DeviceSnapshot) error {
				b, err := s.readBattery()
				if err != nil {
					return err
				}
				snap.Battery = b
				return nil
			},
			fallback: func(snap *models.DeviceSnapshot) {
				snap.Battery = models.BatteryStatus{LevelPercent: fallbackBatteryLevel, IsCharging: false}
			},
		},
		{
			name: "cpuUsage",
			run: func(snap *models.DeviceSnapshot) error {
				usage, err := s.sampler.Usage()
				if err != nil {
					return err
				}
				snap.CPU.UsagePercent = usage
				return nil
			},
			fallback: func(snap *models.DeviceSnapshot) { snap.CPU.UsagePercent = fallbackCPUUsage },
		},
		{
			name: "coreCount",
			run: func(snap *models.DeviceSnapshot) error {
				n, err := s.readCores()
				if err != nil {
					return err
				}
				if n < 1 {
					return fmt.Errorf("core count %d out of range", n)
				}
				snap.CPU.CoreCount = n
				return nil
			},
			fallback: func(snap *models.DeviceSnapshot) { snap.CPU.CoreCount = fallbackCoreCount },
		},
		{
			name: "network",
			run: func(snap *models.DeviceSnapshot) error {
				n, err := s.readNetwork()
				if err != nil {
					return err
				}
				snap.Network = n
				return nil
			},
			fallback: func(snap *models.DeviceSnapshot) { snap.Network = fallbackNetwork },
		},
	}
}

// runProbe executes one probe, converting any error or panic into the
// probe's fallback. No failure crosses this boundary.
func (s *SnapshotCollector) runProbe(p probe, snap *models.DeviceSnapshot) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("probe panicked: %v", r)
			}
		}()
		return p.run(snap)
	}()
	if err != nil {
		s.LogWarning("probe failed, using fallback",
			zap.String("probe", p.name),
			zap.Error(err))
		p.fallback(snap)
	}
}

// queryOr performs a one-property management query and maps a miss to the
// given fallback string.
func (s *SnapshotCollector) queryOr(class, property, fallback string) string {
	if v, ok := s.querier.QueryProperty(class, property); ok && v != "" {
		return v
	}
	return fallback
}

func usedPercent(total, available uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(total-available) / float64(total) * 100
}

func defaultVolume() string {
	if runtime.GOOS == "windows" {
		return `C:\`
	}
	return "/"
}

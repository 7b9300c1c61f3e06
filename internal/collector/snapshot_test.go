package collector

import (
	"errors"
	"testing"

	"github.com/devicefabric/agent/pkg/models"
	"go.uber.org/zap"
)

var errProbeDown = errors.New("probe unavailable")

// failingCollector returns a SnapshotCollector whose every probe fails,
// simulating a host where no OS query works.
func failingCollector() *SnapshotCollector {
	s := &SnapshotCollector{
		BaseCollector: NewBaseCollector(zap.NewNop()),
		querier:       &staticQuerier{},
		sampler:       newCPUSampler(),
		volume:        "/",
	}
	s.sampler.readTicks = func() (cpuTicks, error) { return cpuTicks{}, errProbeDown }
	s.readMemory = func() (models.MemoryStatus, error) { return models.MemoryStatus{}, errProbeDown }
	s.readStorage = func(string) (models.StorageStatus, error) { return models.StorageStatus{}, errProbeDown }
	s.readBattery = func() (models.BatteryStatus, error) { return models.BatteryStatus{}, errProbeDown }
	s.readNetwork = func() (models.NetworkStatus, error) { return models.NetworkStatus{}, errProbeDown }
	s.readOSVersion = func() (string, error) { return "", errProbeDown }
	s.readBuild = func() (string, error) { return "", errProbeDown }
	s.readProcessor = func() (string, error) { return "", errProbeDown }
	s.readArch = func() (string, error) { return "", errProbeDown }
	s.readCores = func() (int, error) { return 0, errProbeDown }
	return s
}

func TestCollectAllProbesFailingYieldsExactFallbacks(t *testing.T) {
	s := failingCollector()

	snap, err := s.Collect()
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}

	if snap.Memory.TotalBytes != 8589934592 || snap.Memory.AvailableBytes != 4294967296 {
		t.Errorf("memory fallback = %d/%d, want 8589934592/4294967296",
			snap.Memory.TotalBytes, snap.Memory.AvailableBytes)
	}
	if snap.Storage.TotalBytes != 549755813888 || snap.Storage.AvailableBytes != 274877906944 {
		t.Errorf("storage fallback = %d/%d, want 549755813888/274877906944",
			snap.Storage.TotalBytes, snap.Storage.AvailableBytes)
	}
	if snap.Battery.LevelPercent != 85 || snap.Battery.IsCharging {
		t.Errorf("battery fallback = %v/%v, want 85/false",
			snap.Battery.LevelPercent, snap.Battery.IsCharging)
	}
	if snap.CPU.UsagePercent != 25 || snap.CPU.CoreCount != 8 {
		t.Errorf("cpu fallback = %v/%d, want 25/8", snap.CPU.UsagePercent, snap.CPU.CoreCount)
	}
	if snap.Network.Type != models.NetworkWifi || !snap.Network.IsConnected {
		t.Errorf("network fallback = %s/%v, want wifi/true",
			snap.Network.Type, snap.Network.IsConnected)
	}
	if snap.OSVersion != "10.0.22000" {
		t.Errorf("osVersion fallback = %q, want 10.0.22000", snap.OSVersion)
	}
	if snap.BuildNumber != "22000" {
		t.Errorf("buildNumber fallback = %q, want 22000", snap.BuildNumber)
	}
	if snap.ProcessorName != "Unknown Processor" {
		t.Errorf("processorName fallback = %q, want Unknown Processor", snap.ProcessorName)
	}
	if snap.Architecture != "x64" {
		t.Errorf("architecture fallback = %q, want x64", snap.Architecture)
	}
	if snap.Platform == "" {
		t.Error("platform should always be set")
	}
}

func TestCollectSingleProbeSuccessKeepsOthersOnFallback(t *testing.T) {
	s := failingCollector()
	s.readMemory = func() (models.MemoryStatus, error) {
		return models.MemoryStatus{TotalBytes: 16 << 30, AvailableBytes: 8 << 30}, nil
	}

	snap, _ := s.Collect()

	if snap.Memory.TotalBytes != 16<<30 || snap.Memory.AvailableBytes != 8<<30 {
		t.Errorf("memory = %d/%d, want mocked 16/8 GiB",
			snap.Memory.TotalBytes, snap.Memory.AvailableBytes)
	}
	if snap.Storage.TotalBytes != fallbackStorageTotal {
		t.Errorf("storage should stay on fallback, got total=%d", snap.Storage.TotalBytes)
	}
	if snap.CPU.UsagePercent != fallbackCPUUsage {
		t.Errorf("cpu usage should stay on fallback, got %v", snap.CPU.UsagePercent)
	}
}

func TestCollectInvariantAvailableNotAboveTotal(t *testing.T) {
	cases := []struct {
		name string
		prep func(*SnapshotCollector)
	}{
		{name: "all fallbacks", prep: func(*SnapshotCollector) {}},
		{
			name: "real readings",
			prep: func(s *SnapshotCollector) {
				s.readMemory = func() (models.MemoryStatus, error) {
					return models.MemoryStatus{TotalBytes: 32 << 30, AvailableBytes: 10 << 30}, nil
				}
				s.readStorage = func(string) (models.StorageStatus, error) {
					return models.StorageStatus{TotalBytes: 1 << 40, AvailableBytes: 1 << 39}, nil
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := failingCollector()
			tc.prep(s)
			snap, _ := s.Collect()
			if snap.Memory.AvailableBytes > snap.Memory.TotalBytes {
				t.Errorf("memory available %d > total %d",
					snap.Memory.AvailableBytes, snap.Memory.TotalBytes)
			}
			if snap.Storage.AvailableBytes > snap.Storage.TotalBytes {
				t.Errorf("storage available %d > total %d",
					snap.Storage.AvailableBytes, snap.Storage.TotalBytes)
			}
		})
	}
}

func TestCollectRejectsInconsistentReading(t *testing.T) {
	s := failingCollector()
	// An OS query returning available > total is an unexpected shape and
	// must degrade to the fallback pair, which satisfies the invariant.
	s.readMemory = func() (models.MemoryStatus, error) {
		return models.MemoryStatus{TotalBytes: 4 << 30, AvailableBytes: 8 << 30}, nil
	}

	snap, _ := s.Collect()
	if snap.Memory.TotalBytes != fallbackMemoryTotal || snap.Memory.AvailableBytes != fallbackMemoryAvailable {
		t.Errorf("inconsistent memory reading should fall back, got %d/%d",
			snap.Memory.TotalBytes, snap.Memory.AvailableBytes)
	}
}

func TestCollectProbePanicFallsBack(t *testing.T) {
	s := failingCollector()
	s.readBattery = func() (models.BatteryStatus, error) { panic("power API blew up") }

	snap, err := s.Collect()
	if err != nil {
		t.Fatalf("Collect returned error after probe panic: %v", err)
	}
	if snap.Battery.LevelPercent != fallbackBatteryLevel {
		t.Errorf("panicking probe should fall back, got level=%v", snap.Battery.LevelPercent)
	}
}

func TestCollectRejectsNonPositiveCoreCount(t *testing.T) {
	s := failingCollector()
	s.readCores = func() (int, error) { return 0, nil }

	snap, _ := s.Collect()
	if snap.CPU.CoreCount != fallbackCoreCount {
		t.Errorf("core count = %d, want fallback %d", snap.CPU.CoreCount, fallbackCoreCount)
	}
}

func TestSystemInfoMapsQuerierMissesToDefaults(t *testing.T) {
	s := failingCollector()

	info := s.SystemInfo()
	if info.WMIData.ComputerSystem != "Windows PC" {
		t.Errorf("computerSystem = %q, want Windows PC", info.WMIData.ComputerSystem)
	}
	if info.WMIData.OperatingSystem != "Microsoft Windows" {
		t.Errorf("operatingSystem = %q, want Microsoft Windows", info.WMIData.OperatingSystem)
	}
	if info.WMIData.Processor != "Unknown Processor" {
		t.Errorf("processor = %q, want Unknown Processor", info.WMIData.Processor)
	}
	// Fallback pairs: 8/4 GiB memory and 512/256 GiB storage are both 50% used.
	if info.PerformanceCounters.MemoryUsagePercent != 50 {
		t.Errorf("memoryUsage = %v, want 50", info.PerformanceCounters.MemoryUsagePercent)
	}
	if info.PerformanceCounters.DiskUsagePercent != 50 {
		t.Errorf("diskUsage = %v, want 50", info.PerformanceCounters.DiskUsagePercent)
	}
}

func TestSystemInfoUsesQuerierValues(t *testing.T) {
	s := failingCollector()
	s.querier = &staticQuerier{values: map[[2]string]string{
		{"Win32_ComputerSystem", "Model"}:    "OptiPlex 7090",
		{"Win32_OperatingSystem", "Caption"}: "Microsoft Windows 11 Pro",
	}}

	info := s.SystemInfo()
	if info.WMIData.ComputerSystem != "OptiPlex 7090" {
		t.Errorf("computerSystem = %q, want OptiPlex 7090", info.WMIData.ComputerSystem)
	}
	if info.WMIData.OperatingSystem != "Microsoft Windows 11 Pro" {
		t.Errorf("operatingSystem = %q, want Microsoft Windows 11 Pro", info.WMIData.OperatingSystem)
	}
}

func TestUsedPercent(t *testing.T) {
	if got := usedPercent(0, 0); got != 0 {
		t.Errorf("usedPercent(0,0) = %v, want 0", got)
	}
	if got := usedPercent(100, 25); got != 75 {
		t.Errorf("usedPercent(100,25) = %v, want 75", got)
	}
}

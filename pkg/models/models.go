// Package models defines the data types exchanged between the collector
// and its callers. Snapshots are plain values: once a DeviceSnapshot is
// returned it is never mutated by the agent.
package models

// NetworkType classifies the active network connection.
type NetworkType string

const (
	NetworkEthernet NetworkType = "ethernet"
	NetworkWifi     NetworkType = "wifi"
	NetworkCellular NetworkType = "cellular"
	NetworkNone     NetworkType = "none"
	NetworkUnknown  NetworkType = "unknown"
)

// DeviceSnapshot is a complete point-in-time view of the host. Every field
// is always populated: probes that fail are replaced by their documented
// fallback values, so consumers never have to distinguish "unknown" from
// "measured".
type DeviceSnapshot struct {
	Platform      string        `json:"platform"`
	OSVersion     string        `json:"osVersion"`
	BuildNumber   string        `json:"buildNumber"`
	ProcessorName string        `json:"processorName"`
	Architecture  string        `json:"architecture"`
	Memory        MemoryStatus  `json:"memory"`
	Storage       StorageStatus `json:"storage"`
	Battery       BatteryStatus `json:"battery"`
	CPU           CPUStatus     `json:"cpu"`
	Network       NetworkStatus `json:"network"`
}

// MemoryStatus reports physical memory in bytes.
// Invariant: AvailableBytes <= TotalBytes.
type MemoryStatus struct {
	TotalBytes     uint64 `json:"totalBytes"`
	AvailableBytes uint64 `json:"availableBytes"`
}

// StorageStatus reports the designated system volume in bytes.
// Invariant: AvailableBytes <= TotalBytes.
type StorageStatus struct {
	TotalBytes     uint64 `json:"totalBytes"`
	AvailableBytes uint64 `json:"availableBytes"`
}

// BatteryStatus reports charge state. Hosts without a battery device report
// a full, non-charging battery rather than an error.
type BatteryStatus struct {
	LevelPercent float64 `json:"levelPercent"` // 0-100
	IsCharging   bool    `json:"isCharging"`
}

// CPUStatus reports utilization and topology.
type CPUStatus struct {
	UsagePercent float64 `json:"usagePercent"` // 0-100
	CoreCount    int     `json:"coreCount"`
}

// NetworkStatus reports the active connection.
type NetworkStatus struct {
	Type        NetworkType `json:"type"`
	IsConnected bool        `json:"isConnected"`
}

// SystemInfo bundles management-service identity data with live performance
// counters, mirroring the extended Windows system-info surface.
type SystemInfo struct {
	WMIData             WMIData             `json:"wmiData"`
	PerformanceCounters PerformanceCounters `json:"performanceCounters"`
}

// WMIData holds identity strings resolved through the management service.
type WMIData struct {
	ComputerSystem  string `json:"computerSystem"`
	OperatingSystem string `json:"operatingSystem"`
	Processor       string `json:"processor"`
}

// PerformanceCounters holds utilization percentages derived from a snapshot.
type PerformanceCounters struct {
	CPUUsagePercent    float64 `json:"cpuUsage"`
	MemoryUsagePercent float64 `json:"memoryUsage"`
	DiskUsagePercent   float64 `json:"diskUsage"`
}

// DeviceInsights is a rule-based health assessment of a snapshot.
type DeviceInsights struct {
	Insights         string   `json:"insights"`
	Recommendations  []string `json:"recommendations"`
	Bottlenecks      []string `json:"bottlenecks,omitempty"`
	PerformanceScore float64  `json:"performanceScore"` // 0-100
}

// BatteryAdvice suggests power optimizations for the current battery state.
type BatteryAdvice struct {
	Advice          string   `json:"advice"`
	Tips            []string `json:"tips"`
	EstimatedImpact string   `json:"estimatedImpact"`
}

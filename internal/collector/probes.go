package collector

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/devicefabric/agent/pkg/models"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// Default probe implementations. Each reads one fact from the host and
// returns an error on any failure; the fallback decision is made by the
// caller, not here.

func probeMemory() (models.MemoryStatus, error) {
	vmem, err := mem.VirtualMemory()
	if err != nil {
		return models.MemoryStatus{}, fmt.Errorf("failed to get memory stats: %w", err)
	}
	return models.MemoryStatus{
		TotalBytes:     vmem.Total,
		AvailableBytes: vmem.Available,
	}, nil
}

func probeStorage(volume string) (models.StorageStatus, error) {
	usage, err := disk.Usage(volume)
	if err != nil {
		return models.StorageStatus{}, fmt.Errorf("failed to get disk usage for %s: %w", volume, err)
	}
	return models.StorageStatus{
		TotalBytes:     usage.Total,
		AvailableBytes: usage.Free,
	}, nil
}

func probeOSVersion() (string, error) {
	info, err := host.Info()
	if err != nil {
		return "", fmt.Errorf("failed to get host info: %w", err)
	}
	if info.PlatformVersion == "" {
		return "", fmt.Errorf("host info returned empty platform version")
	}
	return info.PlatformVersion, nil
}

// probeBuildNumber prefers the management service, then the kernel version
// reported by the host layer.
func probeBuildNumber(q Querier) (string, error) {
	if v, ok := q.QueryProperty("Win32_OperatingSystem", "BuildNumber"); ok && v != "" {
		return v, nil
	}
	info, err := host.Info()
	if err != nil {
		return "", fmt.Errorf("failed to get host info: %w", err)
	}
	if info.KernelVersion == "" {
		return "", fmt.Errorf("host info returned empty kernel version")
	}
	return info.KernelVersion, nil
}

// probeProcessorName prefers the management service, then gopsutil's CPU
// model name.
func probeProcessorName(q Querier) (string, error) {
	if v, ok := q.QueryProperty("Win32_Processor", "Name"); ok && v != "" {
		return strings.TrimSpace(v), nil
	}
	infos, err := cpu.Info()
	if err != nil {
		return "", fmt.Errorf("failed to get CPU info: %w", err)
	}
	if len(infos) == 0 || infos[0].ModelName == "" {
		return "", fmt.Errorf("no CPU model reported")
	}
	return strings.TrimSpace(infos[0].ModelName), nil
}

func probeArchitecture() (string, error) {
	info, err := host.Info()
	if err == nil && info.KernelArch != "" {
		return normalizeArch(info.KernelArch), nil
	}
	return normalizeArch(runtime.GOARCH), nil
}

// normalizeArch maps Go/kernel architecture names onto the identifiers the
// Windows management service reports.
func normalizeArch(arch string) string {
	switch strings.ToLower(arch) {
	case "amd64", "x86_64":
		return "x64"
	case "386", "i386", "i686":
		return "x86"
	case "arm64", "aarch64":
		return "arm64"
	default:
		return arch
	}
}

func probeCoreCount() (int, error) {
	n, err := cpu.Counts(true)
	if err != nil {
		return 0, fmt.Errorf("failed to get CPU count: %w", err)
	}
	return n, nil
}

// probeNetwork classifies the first up, non-loopback interface that carries
// an address. Finding no such interface is a real "disconnected" reading,
// not a probe failure.
func probeNetwork() (models.NetworkStatus, error) {
	ifaces, err := psnet.Interfaces()
	if err != nil {
		return models.NetworkStatus{}, fmt.Errorf("failed to get network interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if !interfaceUp(iface) || len(iface.Addrs) == 0 {
			continue
		}
		return models.NetworkStatus{
			Type:        classifyInterface(iface.Name),
			IsConnected: true,
		}, nil
	}
	return models.NetworkStatus{Type: models.NetworkNone, IsConnected: false}, nil
}

func interfaceUp(iface psnet.InterfaceStat) bool {
	up := false
	for _, flag := range iface.Flags {
		switch flag {
		case "up":
			up = true
		case "loopback":
			return false
		}
	}
	return up
}

// classifyInterface maps an adapter name onto a connection type.
func classifyInterface(name string) models.NetworkType {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "wi-fi"),
		strings.Contains(lower, "wifi"),
		strings.Contains(lower, "wlan"),
		strings.Contains(lower, "wireless"),
		strings.HasPrefix(lower, "wl"):
		return models.NetworkWifi
	case strings.Contains(lower, "cellular"),
		strings.Contains(lower, "wwan"),
		strings.Contains(lower, "mobile"):
		return models.NetworkCellular
	case strings.Contains(lower, "ethernet"),
		strings.HasPrefix(lower, "eth"),
		strings.HasPrefix(lower, "en"),
		strings.HasPrefix(lower, "em"):
		return models.NetworkEthernet
	default:
		return models.NetworkUnknown
	}
}

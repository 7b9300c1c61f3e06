// Package insights derives a rule-based health assessment from a device
// snapshot. Evaluation is pure: the same snapshot always yields the same
// insights.
package insights

import (
	"fmt"

	"github.com/devicefabric/agent/pkg/models"
)

// Thresholds above which a resource is flagged as a bottleneck.
const (
	memoryPressurePct  = 85.0
	storagePressurePct = 90.0
	cpuPressurePct     = 80.0
	lowBatteryPct      = 20.0
)

// Analyze scores a snapshot and lists recommendations and bottlenecks.
func Analyze(snap models.DeviceSnapshot) models.DeviceInsights {
	score := 100.0
	var bottlenecks []string
	recommendations := []string{
		"Monitor memory usage regularly",
		"Keep Windows Update current",
	}

	memUsed := usedPercent(snap.Memory.TotalBytes, snap.Memory.AvailableBytes)
	if memUsed >= memoryPressurePct {
		score -= 20
		bottlenecks = append(bottlenecks, "High memory usage detected")
		recommendations = append(recommendations, "Close unused applications")
	}

	storageUsed := usedPercent(snap.Storage.TotalBytes, snap.Storage.AvailableBytes)
	if storageUsed >= storagePressurePct {
		score -= 15
		bottlenecks = append(bottlenecks,
			fmt.Sprintf("System volume is %.0f%% full", storageUsed))
		recommendations = append(recommendations, "Run disk cleanup periodically")
	}

	if snap.CPU.UsagePercent >= cpuPressurePct {
		score -= 15
		bottlenecks = append(bottlenecks,
			fmt.Sprintf("CPU utilization at %.0f%%", snap.CPU.UsagePercent))
		recommendations = append(recommendations, "Clear temporary files")
	}

	if !snap.Battery.IsCharging && snap.Battery.LevelPercent <= lowBatteryPct {
		score -= 5
		bottlenecks = append(bottlenecks, "Battery level is low")
	}

	if score < 0 {
		score = 0
	}

	summary := "Your device is performing well based on current metrics."
	if len(bottlenecks) > 0 {
		summary = "Your device shows resource pressure; see bottlenecks for details."
	}

	return models.DeviceInsights{
		Insights:         summary,
		Recommendations:  recommendations,
		Bottlenecks:      bottlenecks,
		PerformanceScore: score,
	}
}

// BatteryAdvice suggests power optimizations for the snapshot's battery
// state.
func BatteryAdvice(snap models.DeviceSnapshot) models.BatteryAdvice {
	advice := models.BatteryAdvice{
		Advice: "Optimize power settings for better battery life",
		Tips: []string{
			"Reduce screen brightness",
			"Enable power saving mode",
		},
		EstimatedImpact: "15-20% improvement",
	}

	if snap.Battery.IsCharging {
		advice.Advice = "Device is charging; no immediate action needed"
		advice.EstimatedImpact = "n/a"
	} else if snap.Battery.LevelPercent <= lowBatteryPct {
		advice.Tips = append(advice.Tips, "Connect to a power source soon")
	}

	return advice
}

func usedPercent(total, available uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(total-available) / float64(total) * 100
}

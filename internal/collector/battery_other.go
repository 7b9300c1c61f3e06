//go:build !windows

package collector

import "github.com/devicefabric/agent/pkg/models"

// Non-Windows hosts have no power-status API wired up; report them as
// battery-less rather than failing the probe.
func probeBattery() (models.BatteryStatus, error) {
	return models.BatteryStatus{LevelPercent: noBatteryLevel, IsCharging: false}, nil
}

//go:build windows

package collector

import (
	"fmt"
	"unsafe"

	"github.com/devicefabric/agent/pkg/models"
	"golang.org/x/sys/windows"
)

var (
	modkernel32              = windows.NewLazySystemDLL("kernel32.dll")
	procGetSystemPowerStatus = modkernel32.NewProc("GetSystemPowerStatus")
)

// systemPowerStatus mirrors SYSTEM_POWER_STATUS from winbase.h.
type systemPowerStatus struct {
	ACLineStatus        byte
	BatteryFlag         byte
	BatteryLifePercent  byte
	SystemStatusFlag    byte
	BatteryLifeTime     uint32
	BatteryFullLifeTime uint32
}

const (
	batteryFlagNoBattery  = 128
	batteryFlagUnknown    = 255
	batteryPercentUnknown = 255
	acLineOnline          = 1
)

func probeBattery() (models.BatteryStatus, error) {
	var status systemPowerStatus
	ret, _, err := procGetSystemPowerStatus.Call(uintptr(unsafe.Pointer(&status)))
	if ret == 0 {
		return models.BatteryStatus{}, fmt.Errorf("GetSystemPowerStatus failed: %w", err)
	}

	if status.BatteryFlag == batteryFlagNoBattery {
		return models.BatteryStatus{LevelPercent: noBatteryLevel, IsCharging: false}, nil
	}
	if status.BatteryFlag == batteryFlagUnknown || status.BatteryLifePercent == batteryPercentUnknown {
		return models.BatteryStatus{}, fmt.Errorf("battery state unknown (flag=%d)", status.BatteryFlag)
	}

	return models.BatteryStatus{
		LevelPercent: float64(status.BatteryLifePercent),
		IsCharging:   status.ACLineStatus == acLineOnline,
	}, nil
}

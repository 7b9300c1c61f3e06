//go:build !windows

package collector

import (
	"time"

	"go.uber.org/zap"
)

// Non-Windows hosts have no management service; every identity query is a
// miss and the probe layer falls back to gopsutil readings or the fixed
// defaults.
func newManagementQuerier(timeout time.Duration, logger *zap.Logger) (Querier, error) {
	return &staticQuerier{}, nil
}

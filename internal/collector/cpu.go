package collector

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
)

var (
	errNoPriorSample  = errors.New("no prior CPU sample")
	errNoElapsedTicks = errors.New("no CPU ticks elapsed since last sample")
)

// cpuTicks is one cumulative tick reading. gopsutil reports tick counters
// as float64 seconds, which carry the full 64-bit counter range without
// overflow across any realistic sampling interval.
type cpuTicks struct {
	busy  float64
	total float64
}

// cpuSampler computes CPU utilization from the delta between consecutive
// tick readings. The previous sample persists for the sampler's lifetime
// and is lock-guarded, so concurrent snapshot requests cannot corrupt each
// other's deltas.
type cpuSampler struct {
	mu     sync.Mutex
	last   cpuTicks
	primed bool

	// readTicks is swappable in tests.
	readTicks func() (cpuTicks, error)
}

func newCPUSampler() *cpuSampler {
	return &cpuSampler{readTicks: readSystemTicks}
}

// Usage returns utilization in [0,100] since the previous call. The first
// call has no delta to measure and returns errNoPriorSample; the caller
// maps that to the fallback value.
func (s *cpuSampler) Usage() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.readTicks()
	if err != nil {
		return 0, fmt.Errorf("failed to read CPU ticks: %w", err)
	}

	if !s.primed {
		s.last = cur
		s.primed = true
		return 0, errNoPriorSample
	}

	busyDelta := cur.busy - s.last.busy
	totalDelta := cur.total - s.last.total
	s.last = cur

	if totalDelta <= 0 {
		return 0, errNoElapsedTicks
	}

	usage := 100 * busyDelta / totalDelta
	if usage < 0 {
		usage = 0
	}
	if usage > 100 {
		usage = 100
	}
	return usage, nil
}

// Prime records an initial sample without reporting usage, so the next
// Usage call measures a real delta.
func (s *cpuSampler) Prime() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.readTicks()
	if err != nil {
		return
	}
	s.last = cur
	s.primed = true
}

func readSystemTicks() (cpuTicks, error) {
	times, err := cpu.Times(false)
	if err != nil {
		return cpuTicks{}, err
	}
	if len(times) == 0 {
		return cpuTicks{}, errors.New("no aggregate CPU times reported")
	}
	t := times[0]
	total := t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq + t.Softirq + t.Steal
	busy := total - t.Idle - t.Iowait
	return cpuTicks{busy: busy, total: total}, nil
}

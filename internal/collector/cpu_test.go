package collector

import (
	"errors"
	"math"
	"sync"
	"testing"
)

// tickSequence feeds a sampler a scripted series of readings.
func tickSequence(readings ...cpuTicks) func() (cpuTicks, error) {
	i := 0
	return func() (cpuTicks, error) {
		if i >= len(readings) {
			return cpuTicks{}, errors.New("tick sequence exhausted")
		}
		r := readings[i]
		i++
		return r, nil
	}
}

func TestUsageFirstCallHasNoPriorSample(t *testing.T) {
	s := newCPUSampler()
	s.readTicks = tickSequence(cpuTicks{busy: 100, total: 400})

	_, err := s.Usage()
	if !errors.Is(err, errNoPriorSample) {
		t.Fatalf("first Usage error = %v, want errNoPriorSample", err)
	}
}

func TestUsageComputesDeltaRatio(t *testing.T) {
	s := newCPUSampler()
	s.readTicks = tickSequence(
		cpuTicks{busy: 100, total: 400},
		cpuTicks{busy: 150, total: 500}, // busy delta 50, total delta 100
	)

	if _, err := s.Usage(); !errors.Is(err, errNoPriorSample) {
		t.Fatalf("priming call error = %v, want errNoPriorSample", err)
	}

	usage, err := s.Usage()
	if err != nil {
		t.Fatalf("second Usage error = %v", err)
	}
	if math.Abs(usage-50) > 1e-9 {
		t.Errorf("usage = %v, want 50", usage)
	}
	if math.IsNaN(usage) {
		t.Error("usage is NaN")
	}
}

func TestUsageZeroElapsedTicksShortCircuits(t *testing.T) {
	s := newCPUSampler()
	s.readTicks = tickSequence(
		cpuTicks{busy: 100, total: 400},
		cpuTicks{busy: 100, total: 400},
	)

	s.Prime()
	_, err := s.Usage()
	if !errors.Is(err, errNoElapsedTicks) {
		t.Fatalf("Usage error = %v, want errNoElapsedTicks", err)
	}
}

func TestUsageClampedToRange(t *testing.T) {
	s := newCPUSampler()
	// Counter reset: busy goes backwards while total advances.
	s.readTicks = tickSequence(
		cpuTicks{busy: 500, total: 1000},
		cpuTicks{busy: 100, total: 1100},
		cpuTicks{busy: 400, total: 1200},
	)

	s.Prime()
	usage, err := s.Usage()
	if err != nil {
		t.Fatalf("Usage error = %v", err)
	}
	if usage != 0 {
		t.Errorf("usage after counter reset = %v, want clamp to 0", usage)
	}

	// Busy delta exceeds total delta: clamp to 100.
	usage, err = s.Usage()
	if err != nil {
		t.Fatalf("Usage error = %v", err)
	}
	if usage != 100 {
		t.Errorf("usage = %v, want clamp to 100", usage)
	}
}

func TestPrimeMakesNextCallMeasure(t *testing.T) {
	s := newCPUSampler()
	s.readTicks = tickSequence(
		cpuTicks{busy: 0, total: 0},
		cpuTicks{busy: 25, total: 100},
	)

	s.Prime()
	usage, err := s.Usage()
	if err != nil {
		t.Fatalf("Usage after Prime error = %v", err)
	}
	if math.Abs(usage-25) > 1e-9 {
		t.Errorf("usage = %v, want 25", usage)
	}
}

func TestUsageConcurrentCallsDoNotRace(t *testing.T) {
	s := newCPUSampler()
	var mu sync.Mutex
	tick := 0.0
	s.readTicks = func() (cpuTicks, error) {
		mu.Lock()
		defer mu.Unlock()
		tick += 10
		return cpuTicks{busy: tick / 2, total: tick}, nil
	}

	s.Prime()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			usage, err := s.Usage()
			if err != nil {
				t.Errorf("Usage error = %v", err)
				return
			}
			if usage < 0 || usage > 100 {
				t.Errorf("usage %v out of range", usage)
			}
		}()
	}
	wg.Wait()
}

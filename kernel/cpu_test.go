package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestCPUUsageZeroBeforeCalibration resolves the distilled spec's Open
// Question: before idleMaxCount has been calibrated (the first full
// second of ticks), CPUUsage must report 0 rather than dividing by a
// zero idleMaxCount.
func TestCPUUsageZeroBeforeCalibration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SystickPeriod = time.Millisecond // TicksPerSecond == 1000
	k, err := New(cfg)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		k.enter()
		k.tickCount++
		k.updateCPUUsageLocked()
		k.exit()
	}
	require.Equal(t, 0.0, k.CPUUsage())
}

func TestCPUUsageCalibratesThenComputesRatio(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SystickPeriod = time.Millisecond
	k, err := New(cfg)
	require.NoError(t, err)
	tps := cfg.TicksPerSecond()
	require.EqualValues(t, 1000, tps)

	// First second: idle runs every tick (idleCount == tps), this
	// becomes the calibration ceiling.
	for i := uint64(0); i < tps; i++ {
		k.enter()
		k.idleCount++
		k.tickCount++
		k.updateCPUUsageLocked()
		k.exit()
	}
	require.EqualValues(t, tps, k.idleMaxCount)

	// Second second: idle only runs half the time, so usage should
	// land around 50%.
	for i := uint64(0); i < tps; i++ {
		k.enter()
		if i%2 == 0 {
			k.idleCount++
		}
		k.tickCount++
		k.updateCPUUsageLocked()
		k.exit()
	}
	require.InDelta(t, 50.0, k.CPUUsage(), 1.0)
}

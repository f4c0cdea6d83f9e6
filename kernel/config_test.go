package kernel

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigRejectsNonPowerOfTwoPrioCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PrioCount = 20
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestConfigRejectsTimerPrioAtOrBelowIdle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimerTaskPrio = cfg.PrioCount - 1
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	v := viper.New()
	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigHonorsExplicitValues(t *testing.T) {
	v := viper.New()
	v.Set("prio_count", 16)
	v.Set("systick_period", 5*time.Millisecond)
	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	require.Equal(t, 16, cfg.PrioCount)
	require.Equal(t, 5*time.Millisecond, cfg.SystickPeriod)
}

func TestTicksPerSecond(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SystickPeriod = 10 * time.Millisecond
	require.EqualValues(t, 100, cfg.TicksPerSecond())
}

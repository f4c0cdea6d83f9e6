package kernel

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// KernelConfig is the kernel's compile-time configuration from the
// distilled spec, turned into runtime configuration: a hosted target
// has no linker script to bake constants into, so these are sourced
// through Viper from defaults, an optional config file, environment
// variables (TINYOS_ prefix) and flags bound by cmd/tinyos-sim.
type KernelConfig struct {
	// PrioCount is the number of priority levels, a power of two in
	// [8, 32]. Lower numeric priority is more urgent.
	PrioCount int `mapstructure:"prio_count"`
	// SliceMax is the default time-slice length in ticks.
	SliceMax int `mapstructure:"slice_max"`
	// SystickPeriod is the simulated tick period.
	SystickPeriod time.Duration `mapstructure:"systick_period"`
	// IdleStackSize and TimerStackSize are carried for parity with the
	// original compile-time stack-size knobs; the host does not size
	// goroutine stacks explicitly, but Task.Stats() reports against
	// these as the configured budget.
	IdleStackSize  int `mapstructure:"idle_stack_size"`
	TimerStackSize int `mapstructure:"timer_stack_size"`
	// TimerTaskPrio must be numerically less than PrioCount-1 (the idle
	// task occupies the last slot and must be the least urgent task).
	TimerTaskPrio int `mapstructure:"timer_task_prio"`
}

// DefaultConfig mirrors the original firmware's compile-time defaults.
func DefaultConfig() KernelConfig {
	return KernelConfig{
		PrioCount:      32,
		SliceMax:       10,
		SystickPeriod:  10 * time.Millisecond,
		IdleStackSize:  1024,
		TimerStackSize: 2048,
		TimerTaskPrio:  1,
	}
}

// LoadConfig reads a KernelConfig from v, falling back to DefaultConfig
// for any key v does not have set. v is expected to already have its
// env prefix, config file, and flag bindings configured by the caller
// (typically cmd/tinyos-sim); LoadConfig only seeds defaults and
// unmarshals.
func LoadConfig(v *viper.Viper) (KernelConfig, error) {
	def := DefaultConfig()
	v.SetDefault("prio_count", def.PrioCount)
	v.SetDefault("slice_max", def.SliceMax)
	v.SetDefault("systick_period", def.SystickPeriod)
	v.SetDefault("idle_stack_size", def.IdleStackSize)
	v.SetDefault("timer_stack_size", def.TimerStackSize)
	v.SetDefault("timer_task_prio", def.TimerTaskPrio)

	var cfg KernelConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return KernelConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return KernelConfig{}, err
	}
	return cfg, nil
}

// Validate checks the invariants the distilled spec places on
// TINYOS_PRIO_COUNT and TINYOS_TIMERTASK_PRIO.
func (c KernelConfig) Validate() error {
	if c.PrioCount < 8 || c.PrioCount > 32 || c.PrioCount&(c.PrioCount-1) != 0 {
		return fmt.Errorf("%w: prio_count %d must be a power of two in [8,32]", ErrInvalidConfig, c.PrioCount)
	}
	if c.SliceMax <= 0 {
		return fmt.Errorf("%w: slice_max must be positive", ErrInvalidConfig)
	}
	if c.SystickPeriod <= 0 {
		return fmt.Errorf("%w: systick_period must be positive", ErrInvalidConfig)
	}
	if c.TimerTaskPrio < 0 || c.TimerTaskPrio >= c.PrioCount-1 {
		return fmt.Errorf("%w: timer_task_prio %d must be < prio_count-1 (%d)", ErrInvalidConfig, c.TimerTaskPrio, c.PrioCount-1)
	}
	return nil
}

// TicksPerSecond is the CPU-usage averaging window from §4.13, derived
// from the configured tick period the way the original derives
// TICKS_PER_SEC from TINYOS_SYSTICK_MS.
func (c KernelConfig) TicksPerSecond() uint64 {
	if c.SystickPeriod <= 0 {
		return 0
	}
	return uint64(time.Second / c.SystickPeriod)
}

// IdlePrio is the lowest-urgency priority slot, reserved for the
// built-in idle task.
func (c KernelConfig) IdlePrio() int {
	return c.PrioCount - 1
}

// Package runner paces the interpreter in real time: it executes
// instructions at the clock rate, ticks the timers at 60Hz and presents
// the display once per frame.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/retroenv/retrogolib/log"
)

const (
	// TimerRate is the fixed delay and sound timer frequency in Hz.
	TimerRate = 60

	// MaxRate is the highest clock or refresh rate with a non zero period.
	MaxRate = int(time.Second)

	// maxFrameTime caps the catch up work after a stall.
	maxFrameTime = 250 * time.Millisecond
)

var errInvalidRate = errors.New("rate must be between 1 and 1e9 Hz")

// Machine is the interpreter driven by the runner.
type Machine interface {
	EmulateCycle() error
	TickTimers()
	Paused() bool
	ConsumeDraw() bool
}

// Frontend is the display and keypad the machine is connected to.
type Frontend interface {
	cpu.PixelSurface
	cpu.InputSource

	// Update processes pending input events. Key handlers registered with
	// OnNextKey are called from here.
	Update()
	Closed() bool
}

// Config sets the execution rates.
type Config struct {
	Clock   int // instructions per second
	Refresh int // frames per second
}

// Runner drives a machine and its frontend.
type Runner struct {
	logger   *log.Logger
	machine  Machine
	frontend Frontend

	refresh     time.Duration
	stepPeriod  time.Duration
	timerPeriod time.Duration

	stepDebt  time.Duration
	timerDebt time.Duration
	cycles    uint64
}

// New returns a runner for the given machine and frontend.
func New(logger *log.Logger, machine Machine, frontend Frontend, cfg Config) (*Runner, error) {
	stepPeriod, err := period(cfg.Clock)
	if err != nil {
		return nil, fmt.Errorf("clock %d: %w", cfg.Clock, err)
	}
	refresh, err := period(cfg.Refresh)
	if err != nil {
		return nil, fmt.Errorf("refresh %d: %w", cfg.Refresh, err)
	}

	return &Runner{
		logger:      logger,
		machine:     machine,
		frontend:    frontend,
		refresh:     refresh,
		stepPeriod:  stepPeriod,
		timerPeriod: time.Second / TimerRate,
	}, nil
}

// period converts a rate in Hz to the time between two events. The period
// must not round down to zero.
func period(rate int) (time.Duration, error) {
	if rate <= 0 || rate > MaxRate {
		return 0, errInvalidRate
	}
	return time.Second / time.Duration(rate), nil
}

// Run executes frames at the refresh rate until the context is cancelled,
// the frontend is closed or the machine faults.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.refresh)
	defer ticker.Stop()

	r.logger.Debug("Starting emulation",
		log.String("frame_time", r.refresh.String()),
		log.String("cycle_time", r.stepPeriod.String()))

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case now := <-ticker.C:
			running, err := r.Frame(now.Sub(last))
			last = now
			if err != nil {
				return err
			}
			if !running {
				r.logger.Debug("Frontend closed", log.Int("cycles", int(r.cycles)))
				return nil
			}
		}
	}
}

// Frame advances the emulation by elapsed wall time. It reports false once
// the frontend has been closed.
func (r *Runner) Frame(elapsed time.Duration) (bool, error) {
	r.frontend.Update()
	if r.frontend.Closed() {
		return false, nil
	}

	if elapsed > maxFrameTime {
		elapsed = maxFrameTime
	}
	r.stepDebt += elapsed
	r.timerDebt += elapsed

	// owed cycles are dropped while waiting for a key, execution resumes
	// at the normal rate instead of bursting
	for ; r.stepDebt >= r.stepPeriod; r.stepDebt -= r.stepPeriod {
		if r.machine.Paused() {
			continue
		}
		if err := r.machine.EmulateCycle(); err != nil {
			return false, err
		}
		r.cycles++
	}

	for ; r.timerDebt >= r.timerPeriod; r.timerDebt -= r.timerPeriod {
		if !r.machine.Paused() {
			r.machine.TickTimers()
		}
	}

	if r.machine.ConsumeDraw() {
		if err := r.frontend.Present(); err != nil {
			return false, fmt.Errorf("presenting frame: %w", err)
		}
	}
	return true, nil
}

// Cycles returns the number of instructions executed.
func (r *Runner) Cycles() uint64 {
	return r.cycles
}

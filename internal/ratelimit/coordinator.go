package ratelimit

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Config tunes the coordinator pacing behavior.
type Config struct {
	// PaceInitial is the delay inserted between upstream calls at startup.
	PaceInitial time.Duration
	// PaceFloor is the lower bound the pace decays toward under sustained
	// success.
	PaceFloor time.Duration
	// PaceCeiling caps pace growth under repeated limit hits.
	PaceCeiling time.Duration
	// RecoveryPace is the minimum pace right after a limit hit, so the first
	// calls after a cooldown stay slow.
	RecoveryPace time.Duration
	// DecayFactor multiplies the pace on success and divides it on a limit
	// hit. Must sit strictly between 0 and 1.
	DecayFactor float64
	// SafetyMargin is added on top of every upstream reset hint.
	SafetyMargin time.Duration
}

// DefaultConfig returns the tuning the harvester ships with.
func DefaultConfig() Config {
	return Config{
		PaceInitial:  4 * time.Second,
		PaceFloor:    2 * time.Second,
		PaceCeiling:  60 * time.Second,
		RecoveryPace: 10 * time.Second,
		DecayFactor:  0.9,
		SafetyMargin: 2 * time.Second,
	}
}

// Snapshot is the externally visible coordinator state.
type Snapshot struct {
	Pace          time.Duration
	CooldownUntil time.Time
	LimitHits     int
}

// LimitError is returned by upstream adapters when the provider answers with
// an explicit rate-limit signal. RetryAfter carries the advertised reset hint.
type LimitError struct {
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("upstream rate limited, retry after %s", e.RetryAfter)
}

// Coordinator is the process-wide view of upstream rate-limit pressure. Every
// fetch consults it before calling out and reports the outcome back, so a
// limit signal seen while fetching one player slows down all of them.
type Coordinator struct {
	mu            sync.Mutex
	cfg           Config
	pace          time.Duration
	cooldownUntil time.Time
	limitHits     int
	logger        *slog.Logger
}

// New validates cfg and builds a coordinator starting at the initial pace.
func New(cfg Config, logger *slog.Logger) (*Coordinator, error) {
	if cfg.PaceInitial <= 0 {
		return nil, errors.New("initial pace must be positive")
	}
	if cfg.PaceFloor <= 0 {
		return nil, errors.New("pace floor must be positive")
	}
	if cfg.PaceFloor > cfg.PaceInitial || cfg.PaceInitial > cfg.PaceCeiling {
		return nil, errors.New("pace bounds must satisfy floor <= initial <= ceiling")
	}
	if cfg.RecoveryPace <= 0 {
		return nil, errors.New("recovery pace must be positive")
	}
	if cfg.DecayFactor <= 0 || cfg.DecayFactor >= 1 {
		return nil, errors.New("decay factor must sit strictly between 0 and 1")
	}
	if cfg.SafetyMargin < 0 {
		return nil, errors.New("safety margin cannot be negative")
	}

	logger.Info("rate-limit coordinator initialized",
		"pace_initial", cfg.PaceInitial,
		"pace_floor", cfg.PaceFloor,
		"pace_ceiling", cfg.PaceCeiling,
		"recovery_pace", cfg.RecoveryPace,
		"decay_factor", cfg.DecayFactor,
		"safety_margin", cfg.SafetyMargin)

	return &Coordinator{cfg: cfg, pace: cfg.PaceInitial, logger: logger}, nil
}

// IsLimited reports whether a cooldown barrier is active at now.
func (c *Coordinator) IsLimited(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Before(c.cooldownUntil)
}

// CooldownRemaining returns how long the active barrier still holds, or zero.
func (c *Coordinator) CooldownRemaining(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !now.Before(c.cooldownUntil) {
		return 0
	}
	return c.cooldownUntil.Sub(now)
}

// NextDelay returns the pause to insert after the next upstream call.
func (c *Coordinator) NextDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pace
}

// RecordLimited raises the barrier to now + hint + safety margin and widens
// the pace. The barrier never shrinks; overlapping hits keep the later
// deadline.
func (c *Coordinator) RecordLimited(now time.Time, resetHint time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.limitHits++

	until := now.Add(resetHint + c.cfg.SafetyMargin)
	if until.After(c.cooldownUntil) {
		c.cooldownUntil = until
	}

	grown := time.Duration(float64(c.pace) / c.cfg.DecayFactor)
	if grown < c.cfg.RecoveryPace {
		grown = c.cfg.RecoveryPace
	}
	if grown > c.cfg.PaceCeiling {
		grown = c.cfg.PaceCeiling
	}
	c.pace = grown

	c.logger.Warn("rate limit recorded",
		"reset_hint", resetHint,
		"cooldown_until", c.cooldownUntil.Format(time.RFC3339),
		"pace", c.pace,
		"consecutive_hits", c.limitHits)
}

// RecordSuccess decays the pace toward the floor and ends the hit streak.
// An active barrier is left to expire on its own.
func (c *Coordinator) RecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.limitHits = 0

	decayed := time.Duration(float64(c.pace) * c.cfg.DecayFactor)
	if decayed < c.cfg.PaceFloor {
		decayed = c.cfg.PaceFloor
	}
	c.pace = decayed
}

// Snapshot returns the current state for logs and the status endpoint.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Pace:          c.pace,
		CooldownUntil: c.cooldownUntil,
		LimitHits:     c.limitHits,
	}
}

package pet

import (
	"time"

	"github.com/moorebrett0/regenmon/internal/clock"
	"github.com/moorebrett0/regenmon/internal/species"
)

// afterLocked schedules f on the clock, dropping it if the generation has
// moved on by the time it fires.
func (m *Machine) afterLocked(d time.Duration, f func()) clock.Timer {
	gen := m.gen
	return m.opts.Clock.AfterFunc(d, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.gen != gen || m.closed {
			return
		}
		f()
	})
}

func (m *Machine) startCooldownLocked(typ *species.Type) {
	d := CooldownDuration
	if typ != nil && typ.CooldownFactor > 0 {
		d = time.Duration(float64(d) * typ.CooldownFactor)
	}
	m.cooling = true
	m.cooldownTimer = m.afterLocked(d, func() {
		m.cooling = false
		m.cooldownTimer = nil
	})
}

func (m *Machine) celebrateLocked() {
	stop(m.celebrateTimer)
	m.celebrateTimer = m.afterLocked(CelebrationDelay, func() {
		m.celebrating = true
		m.celebrateTimer = m.afterLocked(CelebrationDuration, func() {
			m.celebrating = false
			m.celebrateTimer = nil
		})
	})
}

// startDecayLocked arms the happiness and (if modeled) hunger decay loops.
func (m *Machine) startDecayLocked() {
	interval := HappinessDecayInterval
	if p := m.personality(); p != nil && p.DecayFactor > 0 {
		interval = time.Duration(float64(interval) * p.DecayFactor)
	}
	m.scheduleHappinessLocked(interval)
	if m.opts.HungerModel {
		m.scheduleHungerLocked()
	}
}

func (m *Machine) scheduleHappinessLocked(interval time.Duration) {
	m.happinessTimer = m.afterLocked(interval, func() {
		if m.state == nil {
			return
		}
		m.state.Happiness = clamp(m.state.Happiness - HappinessDecayAmount)
		m.persistLocked()
		m.scheduleHappinessLocked(interval)
	})
}

func (m *Machine) scheduleHungerLocked() {
	m.hungerTimer = m.afterLocked(HungerDecayInterval, func() {
		if m.state == nil {
			return
		}
		m.state.Hunger = clamp(m.state.Hunger + HungerDecayAmount)
		m.persistLocked()
		m.scheduleHungerLocked()
	})
}

func (m *Machine) stopTimersLocked() {
	for _, t := range []clock.Timer{m.cooldownTimer, m.celebrateTimer, m.happinessTimer, m.hungerTimer} {
		stop(t)
	}
	m.cooldownTimer = nil
	m.celebrateTimer = nil
	m.happinessTimer = nil
	m.hungerTimer = nil
}

func (m *Machine) personality() *species.Personality {
	if m.state == nil {
		return nil
	}
	return species.Personalities[m.state.Personality]
}

func stop(t clock.Timer) {
	if t != nil {
		t.Stop()
	}
}

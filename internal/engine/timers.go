package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/habitbattle/internal/clock"
	"github.com/verte-zerg/habitbattle/internal/model"
	"github.com/verte-zerg/habitbattle/internal/schedule"
)

// slot holds at most one armed timer. The token changes on every arm and
// disarm so a callback that lost the race with Stop is ignored.
type slot struct {
	timer clock.Timer
	token uint64
}

type timerSet struct {
	poll       slot
	bonusCheck slot
	bonusEnd   slot
	countdown  slot
	accept     slot
	reveal     slot
	momentum   slot
}

func (s *slot) stop() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.token = 0
}

func (s *slot) armed() bool {
	return s.timer != nil
}

func (t *timerSet) stopAll() {
	for _, s := range []*slot{&t.poll, &t.bonusCheck, &t.bonusEnd, &t.countdown, &t.accept, &t.reveal, &t.momentum} {
		s.stop()
	}
}

// arm replaces whatever s holds with a timer that runs fn on the loop after
// d. Callbacks wait until fn has been applied, which keeps fake clocks
// deterministic.
func (e *Engine) arm(s *slot, d time.Duration, fn func()) {
	s.stop()
	e.timerSeq++
	token := e.timerSeq
	s.token = token
	s.timer = e.clock.AfterFunc(d, func() {
		_ = e.do(func() {
			if s.token != token {
				return
			}
			s.timer = nil
			s.token = 0
			fn()
		})
	})
}

func (e *Engine) armPoll() {
	e.arm(&e.timers.poll, e.rules.PollInterval, func() {
		e.resolveWindow()
		e.armPoll()
	})
}

func (e *Engine) armBonusCheck() {
	e.arm(&e.timers.bonusCheck, e.rules.BonusCheckInterval, func() {
		if e.state == model.StateIdle && e.gen.Float64() < e.rules.BonusChance {
			e.triggerBonus()
		}
		e.armBonusCheck()
	})
}

// triggerBonus starts the bonus window or restarts its expiry when one is
// already running. Durations never stack.
func (e *Engine) triggerBonus() {
	now := e.clock.Now()
	retrigger := e.bonus.Active
	e.bonus = model.Bonus{Active: true, ExpiresAt: now.Add(e.rules.BonusDuration)}
	e.arm(&e.timers.bonusEnd, e.rules.BonusDuration, e.endBonus)
	e.logger.Info("bonus started",
		zap.Bool("retrigger", retrigger),
		zap.Time("expires_at", e.bonus.ExpiresAt),
	)
	e.alerter.Notify("Bonus window", bonusBody(e.rules), model.AlertEmergency)
	e.alerter.Haptic(model.HapticWarning)
}

func (e *Engine) endBonus() {
	e.bonus = model.Bonus{}
	e.logger.Info("bonus ended")
}

func (e *Engine) startCountdown(task model.Task) {
	e.timers.countdown.stop()
	e.counting = false
	e.countdown = 0
	if task.TimeLimitSec == nil || *task.TimeLimitSec <= 0 {
		return
	}
	e.counting = true
	e.countdown = *task.TimeLimitSec
	e.armCountdownStep()
}

// armCountdownStep ticks once per step. At zero the countdown stops; the
// task keeps its status.
func (e *Engine) armCountdownStep() {
	e.arm(&e.timers.countdown, e.rules.CountdownStep, func() {
		if e.state != model.StateExecuting || !e.counting {
			return
		}
		e.countdown--
		if e.countdown <= 0 {
			e.countdown = 0
			e.logger.Info("countdown reached zero", zap.String("task", e.activeID))
			e.alerter.Haptic(model.HapticTick)
			return
		}
		e.armCountdownStep()
	})
}

func (e *Engine) stopCountdown() {
	e.timers.countdown.stop()
	e.counting = false
}

// resolveWindow re-evaluates the active window for the current hour.
func (e *Engine) resolveWindow() {
	now := e.clock.Now()
	prev := ""
	if e.window != nil {
		prev = e.window.ID
	}
	w, ok := schedule.Resolve(e.snap.TimeWindows, now.Hour())
	if !ok {
		e.window = nil
	} else {
		w = w.Clone()
		e.window = &w
	}
	next := ""
	if e.window != nil {
		next = e.window.ID
	}
	if prev == next {
		return
	}
	e.logger.Info("active window changed", zap.String("from", prev), zap.String("to", next), zap.Int("hour", now.Hour()))
	if e.started && e.window != nil && e.window.Notify == model.NotifyHigh {
		e.alerter.Notify(e.window.Name, "A new time window is active", model.AlertSystem)
	}
}

func bonusBody(rules model.Rules) string {
	return fmt.Sprintf("Rewards x%.1f for %s", rules.BonusMultiplier, rules.BonusDuration)
}

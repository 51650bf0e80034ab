package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/habitbattle/internal/model"
	"github.com/verte-zerg/habitbattle/internal/progression"
	"github.com/verte-zerg/habitbattle/internal/reward"
	"github.com/verte-zerg/habitbattle/internal/schedule"
)

// Execute accepts the pending task. It is a no-op outside Idle or when no
// task is pending.
func (e *Engine) Execute() error {
	return e.do(func() {
		if !e.started || e.state != model.StateIdle {
			return
		}
		idx := e.pendingIndex()
		if idx < 0 {
			return
		}
		task := &e.snap.Tasks[idx]
		task.Status = model.StatusAccepted
		e.activeID = task.ID
		e.dirty = true
		e.transition(model.StateAccepted)
		e.arm(&e.timers.accept, e.rules.AcceptDelay, e.beginExecution)
	})
}

func (e *Engine) beginExecution() {
	if e.state != model.StateAccepted {
		return
	}
	e.transition(model.StateExecuting)
	if task, ok := e.activeTask(); ok {
		e.startCountdown(task)
	}
}

// Complete finishes the executing task. The reward is revealed after the
// reveal delay.
func (e *Engine) Complete() error {
	return e.do(func() {
		if e.state != model.StateExecuting || e.revealing {
			return
		}
		e.revealing = true
		e.stopCountdown()
		e.arm(&e.timers.reveal, e.rules.RevealDelay, e.reveal)
	})
}

// reveal grants the reward and replaces the task in a single event.
func (e *Engine) reveal() {
	e.revealing = false
	if e.state != model.StateExecuting {
		return
	}
	idx := e.taskIndex(e.activeID)
	if idx < 0 {
		e.logger.Warn("active task vanished before reveal", zap.String("task", e.activeID))
		e.activeID = ""
		e.transition(model.StateIdle)
		return
	}
	task := e.snap.Tasks[idx]
	now := e.clock.Now()

	granted := reward.Compute(task.BaseReward, schedule.Multiplier(e.window), e.bonus.Active, e.rules.BonusMultiplier)
	prevLevel := e.snap.User.Level
	agg := progression.ApplyCompletion(progression.FromSnapshot(e.snap), granted, e.rules, now)
	e.snap.User = agg.User
	e.snap.Chests = agg.Chests
	e.snap.BattlePass = agg.BattlePass
	e.bumpCategory(task.CategoryID, true)

	task.Status = model.StatusCompleted
	e.record(e.outcome(task, model.OutcomeCompleted, granted, now))
	e.removeTask(idx)
	e.activeID = ""
	e.generateTask()

	e.lastReward = &granted
	e.dirty = true
	e.transition(model.StateFeedback)

	e.logger.Info("task completed",
		zap.String("task", task.ID),
		zap.String("category", task.CategoryID),
		zap.Int("currency_delta", granted.CurrencyDelta),
		zap.Int("exp_delta", granted.ExperienceDelta),
		zap.Float64("multiplier", granted.Multiplier),
		zap.Bool("bonus", e.bonus.Active),
	)
	e.alerter.Notify("Reward", fmt.Sprintf("+%d WP, +%d EXP", granted.CurrencyDelta, granted.ExperienceDelta), model.AlertReward)
	e.alerter.Haptic(model.HapticSuccess)
	if e.snap.User.Level > prevLevel {
		e.alerter.Notify("Level up", fmt.Sprintf("Reached level %d", e.snap.User.Level), model.AlertReward)
	}
}

// Postpone declines the in-flight task. No reward is granted and fatigue
// rises. The replacement is generated once the engine is back in Idle.
func (e *Engine) Postpone() error {
	return e.do(e.postpone)
}

func (e *Engine) postpone() {
	if e.state != model.StateAccepted && e.state != model.StateExecuting {
		return
	}
	if e.revealing {
		return
	}
	e.timers.accept.stop()
	e.stopCountdown()

	now := e.clock.Now()
	agg := progression.ApplyPostpone(progression.FromSnapshot(e.snap), e.rules)
	e.snap.User = agg.User

	if idx := e.taskIndex(e.activeID); idx >= 0 {
		task := e.snap.Tasks[idx]
		task.Status = model.StatusFailed
		e.bumpCategory(task.CategoryID, false)
		e.record(e.outcome(task, model.OutcomeFailed, model.Reward{}, now))
		e.removeTask(idx)
		e.logger.Info("task postponed", zap.String("task", task.ID), zap.Int("fatigue", e.snap.User.Fatigue))
	}
	e.activeID = ""
	e.dirty = true
	e.transition(model.StateIdle)
	e.alerter.Notify("Task postponed", "Difficulty adjusted", model.AlertSystem)
	e.alerter.Haptic(model.HapticError)
}

// KeepGoing moves from the reward screen to the momentum screen.
func (e *Engine) KeepGoing() error {
	return e.do(func() {
		if e.state != model.StateFeedback {
			return
		}
		e.transition(model.StateMomentum)
		e.arm(&e.timers.momentum, e.rules.MomentumWindow, e.returnToIdle)
	})
}

// Rest moves from the reward screen to the exit hook.
func (e *Engine) Rest() error {
	return e.do(e.rest)
}

func (e *Engine) rest() {
	if e.state != model.StateFeedback {
		return
	}
	e.transition(model.StateExitHook)
	e.alerter.Notify("Take a break", "Your next task will be waiting", model.AlertDaily)
	e.arm(&e.timers.momentum, e.rules.MomentumWindow, e.returnToIdle)
}

// Dismiss leaves the momentum screen or exit hook.
func (e *Engine) Dismiss() error {
	return e.do(func() {
		if e.state != model.StateMomentum && e.state != model.StateExitHook {
			return
		}
		e.returnToIdle()
	})
}

func (e *Engine) returnToIdle() {
	if e.state != model.StateMomentum && e.state != model.StateExitHook {
		return
	}
	e.timers.momentum.stop()
	e.transition(model.StateIdle)
}

// OpenOverlay shows an overlay. Overlays open only from Idle.
func (e *Engine) OpenOverlay(s model.State) error {
	return e.do(func() {
		if !e.started || e.state != model.StateIdle || !s.IsOverlay() {
			return
		}
		e.transition(s)
	})
}

// Cancel is the global back action. Overlays return to Idle, the reward
// screen takes the rest path, and an in-flight task is postponed.
func (e *Engine) Cancel() error {
	return e.do(func() {
		switch {
		case e.state.IsOverlay():
			e.transition(model.StateIdle)
		case e.state == model.StateFeedback:
			e.rest()
		case e.state == model.StateMomentum, e.state == model.StateExitHook:
			e.returnToIdle()
		case e.state == model.StateAccepted, e.state == model.StateExecuting:
			e.postpone()
		}
	})
}

func (e *Engine) transition(next model.State) {
	if e.state == next {
		return
	}
	e.logger.Debug("transition", zap.String("from", string(e.state)), zap.String("to", string(next)))
	e.state = next
}

// ensureTask generates a task whenever the engine is Idle without one.
func (e *Engine) ensureTask() {
	if e.state != model.StateIdle || e.pendingIndex() >= 0 {
		return
	}
	e.generateTask()
	e.dirty = true
}

func (e *Engine) generateTask() {
	task := e.gen.Generate(e.snap.Categories, e.window, e.snap.User.Fatigue, e.clock.Now())
	e.snap.Tasks = append(e.snap.Tasks, task)
	e.logger.Debug("task generated",
		zap.String("task", task.ID),
		zap.String("category", task.CategoryID),
		zap.Int("difficulty", task.Difficulty),
	)
}

func (e *Engine) applyDailyBoundary() {
	agg, tasks, changed := progression.ApplyDailyBoundary(progression.FromSnapshot(e.snap), e.snap.Tasks, e.snap.Categories, e.rules, e.clock.Now())
	e.snap.User = agg.User
	e.snap.Tasks = tasks
	if !changed {
		return
	}
	e.logger.Info("daily boundary crossed", zap.Int("currency", e.snap.User.Currency))
	e.alerter.Notify("New day", fmt.Sprintf("Daily upkeep: -%d WP", e.rules.DailyDecay), model.AlertDaily)
}

func (e *Engine) bumpCategory(id string, success bool) {
	for i := range e.snap.Categories {
		if e.snap.Categories[i].ID != id {
			continue
		}
		e.snap.Categories[i].UsageCount++
		if success {
			e.snap.Categories[i].SuccessCount++
		}
		return
	}
}

func (e *Engine) outcome(task model.Task, kind model.OutcomeKind, r model.Reward, now time.Time) model.Outcome {
	o := model.Outcome{
		TaskID:      task.ID,
		Title:       task.Title,
		CategoryID:  task.CategoryID,
		Difficulty:  task.Difficulty,
		Kind:        kind,
		Reward:      r,
		BonusActive: e.bonus.Active,
		OccurredAt:  now,
	}
	if e.window != nil {
		o.WindowID = e.window.ID
	}
	return o
}

func (e *Engine) pendingIndex() int {
	for i, t := range e.snap.Tasks {
		if t.Status == model.StatusPending {
			return i
		}
	}
	return -1
}

func (e *Engine) taskIndex(id string) int {
	if id == "" {
		return -1
	}
	for i, t := range e.snap.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) activeTask() (model.Task, bool) {
	idx := e.taskIndex(e.activeID)
	if idx < 0 {
		return model.Task{}, false
	}
	return e.snap.Tasks[idx], true
}

func (e *Engine) removeTask(idx int) {
	e.snap.Tasks = append(e.snap.Tasks[:idx], e.snap.Tasks[idx+1:]...)
}

package engine

import (
	"time"

	"github.com/verte-zerg/habitbattle/internal/model"
)

// View is a read-only copy of the engine state.
type View struct {
	State      model.State
	User       model.UserState
	Tasks      []model.Task
	Current    *model.Task
	Chests     []model.Chest
	BattlePass model.BattlePass
	Categories []model.TaskCategory
	Windows    []model.TimeWindow
	Window     *model.TimeWindow
	Bonus      model.Bonus
	Countdown  int
	Counting   bool
	Revealing  bool
	LastReward *model.Reward
	Now        time.Time
}

// Snapshot returns the persistable part of the view.
func (v View) Snapshot() model.Snapshot {
	return model.Snapshot{
		User:        v.User,
		Tasks:       model.CloneTasks(v.Tasks),
		Chests:      append([]model.Chest(nil), v.Chests...),
		Categories:  model.CloneCategories(v.Categories),
		TimeWindows: model.CloneWindows(v.Windows),
		BattlePass:  v.BattlePass.Clone(),
		SavedAt:     v.Now,
	}
}

// View returns the current state.
func (e *Engine) View() (View, error) {
	var v View
	err := e.do(func() {
		v = e.view()
	})
	return v, err
}

// Subscribe streams a View after every applied event. Slow readers only see
// the latest view. The returned func unsubscribes; the channel is closed
// when the engine closes.
func (e *Engine) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)
	id := -1
	registered := false
	err := e.do(func() {
		registered = true
		id = e.nextSubID
		e.nextSubID++
		e.subs[id] = ch
		if e.started {
			ch <- e.view()
		}
	})
	if err != nil {
		if !registered {
			close(ch)
		}
		return ch, func() {}
	}
	return ch, func() {
		_ = e.do(func() {
			if sub, ok := e.subs[id]; ok {
				close(sub)
				delete(e.subs, id)
			}
		})
	}
}

func (e *Engine) publish() {
	if len(e.subs) == 0 {
		return
	}
	v := e.view()
	for _, ch := range e.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

func (e *Engine) view() View {
	v := View{
		State:      e.state,
		User:       e.snap.User,
		Tasks:      model.CloneTasks(e.snap.Tasks),
		Chests:     append([]model.Chest(nil), e.snap.Chests...),
		BattlePass: e.snap.BattlePass.Clone(),
		Categories: model.CloneCategories(e.snap.Categories),
		Windows:    model.CloneWindows(e.snap.TimeWindows),
		Bonus:      e.bonus,
		Countdown:  e.countdown,
		Counting:   e.counting,
		Revealing:  e.revealing,
		Now:        e.clock.Now(),
	}
	if e.window != nil {
		w := e.window.Clone()
		v.Window = &w
	}
	if e.lastReward != nil {
		r := *e.lastReward
		v.LastReward = &r
	}
	idx := e.taskIndex(e.activeID)
	if idx < 0 {
		idx = e.pendingIndex()
	}
	if idx >= 0 {
		t := e.snap.Tasks[idx].Clone()
		v.Current = &t
	}
	return v
}

package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/verte-zerg/habitbattle/internal/model"
)

type keyMap struct {
	Start     key.Binding
	Done      key.Binding
	Postpone  key.Binding
	KeepGoing key.Binding
	Rest      key.Binding
	Dismiss   key.Binding
	Back      key.Binding

	Settings   key.Binding
	BattlePass key.Binding
	Stats      key.Binding

	Up       key.Binding
	Down     key.Binding
	Less     key.Binding
	More     key.Binding
	StartDec key.Binding
	StartInc key.Binding
	EndDec   key.Binding
	EndInc   key.Binding
	Toggle   key.Binding
	Add      key.Binding
	Claim    key.Binding

	Help key.Binding
	Quit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Start:     key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "start task")),
		Done:      key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "done")),
		Postpone:  key.NewBinding(key.WithKeys("p", "x"), key.WithHelp("p", "postpone")),
		KeepGoing: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "keep going")),
		Rest:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rest")),
		Dismiss:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "continue")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),

		Settings:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
		BattlePass: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "battle pass")),
		Stats:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "stats")),

		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Less:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "multiplier -0.1")),
		More:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "multiplier +0.1")),
		StartDec: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "start -1h")),
		StartInc: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "start +1h")),
		EndDec:   key.NewBinding(key.WithKeys("{"), key.WithHelp("{", "end -1h")),
		EndInc:   key.NewBinding(key.WithKeys("}"), key.WithHelp("}", "end +1h")),
		Toggle:   key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "toggle category")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add category")),
		Claim:    key.NewBinding(key.WithKeys("c", "enter"), key.WithHelp("c", "claim")),

		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// stateHelp narrows the key map to the bindings usable in one state.
type stateHelp struct {
	keys  keyMap
	state model.State
	busy  bool
}

func (h stateHelp) ShortHelp() []key.Binding {
	k := h.keys
	switch h.state {
	case model.StateIdle:
		return []key.Binding{k.Start, k.Settings, k.BattlePass, k.Stats, k.Help, k.Quit}
	case model.StateAccepted:
		return []key.Binding{k.Postpone}
	case model.StateExecuting:
		if h.busy {
			return nil
		}
		return []key.Binding{k.Done, k.Postpone}
	case model.StateFeedback:
		return []key.Binding{k.KeepGoing, k.Rest}
	case model.StateMomentum, model.StateExitHook:
		return []key.Binding{k.Dismiss}
	case model.StateSettings:
		return []key.Binding{k.Up, k.Down, k.Less, k.More, k.Help, k.Back}
	case model.StateBattlePassView:
		return []key.Binding{k.Up, k.Down, k.Claim, k.Back}
	}
	return []key.Binding{k.Back}
}

func (h stateHelp) FullHelp() [][]key.Binding {
	k := h.keys
	if h.state == model.StateSettings {
		return [][]key.Binding{
			{k.Up, k.Down, k.Less, k.More},
			{k.StartDec, k.StartInc, k.EndDec, k.EndInc},
			{k.Toggle, k.Add, k.Back, k.Help},
		}
	}
	return [][]key.Binding{h.ShortHelp()}
}

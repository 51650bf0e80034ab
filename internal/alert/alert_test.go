package alert

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/verte-zerg/habitbattle/internal/model"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTerminalDeliversNotifications(t *testing.T) {
	bell := &syncBuffer{}
	a := NewTerminal(zaptest.NewLogger(t), WithBell(bell))

	a.Notify("Reward", "+46 WP", model.AlertReward)
	a.Haptic(model.HapticSuccess)
	a.Notify("Bonus window", "x2", model.AlertEmergency)

	select {
	case got := <-a.Alerts():
		if got.Title != "Reward" || got.Kind != model.AlertReward {
			t.Fatalf("unexpected alert: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("alert not delivered")
	}
	select {
	case got := <-a.Alerts():
		if got.Title != "Bonus window" {
			t.Fatalf("haptic leaked to the toast channel or order changed: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("second alert not delivered")
	}
	a.Close()

	if got := strings.Count(bell.String(), "\a"); got != 1 {
		t.Fatalf("bell rang %d times, want 1", got)
	}
	if _, ok := <-a.Alerts(); ok {
		t.Fatalf("alerts channel should be closed")
	}
}

func TestTerminalNeverBlocks(t *testing.T) {
	a := NewTerminal(zaptest.NewLogger(t), WithBell(nil), WithQueueSize(1))
	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			a.Notify("spam", "", model.AlertSystem)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Notify blocked")
	}
	a.Close()
	a.Close()
	a.Notify("after close", "", model.AlertSystem)
}

func TestNop(t *testing.T) {
	var n Nop
	n.Notify("x", "y", model.AlertDaily)
	n.Haptic(model.HapticTick)
}

func TestBellRingsOnlyForEmergencyAndWarning(t *testing.T) {
	bell := &syncBuffer{}
	a := NewTerminal(zaptest.NewLogger(t), WithBell(bell))
	a.Haptic(model.HapticError)
	a.Haptic(model.HapticTick)
	a.Notify("Task postponed", "", model.AlertSystem)
	a.Haptic(model.HapticWarning)
	a.Close()

	if got := strings.Count(bell.String(), "\a"); got != 1 {
		t.Fatalf("bell rang %d times, want 1", got)
	}
}

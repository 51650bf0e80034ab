// Package alert delivers notifications without blocking the engine.
package alert

import (
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/habitbattle/internal/model"
)

const defaultQueueSize = 32

// Alert is a notification or haptic signal ready for display.
type Alert struct {
	Title   string
	Body    string
	Kind    model.AlertKind
	Haptic  model.HapticPattern
	Emitted time.Time
}

// Terminal queues alerts for the UI and rings the terminal bell for urgent
// ones. Notify and Haptic never block; a full queue drops the alert.
type Terminal struct {
	logger *zap.Logger
	queue  chan Alert
	out    chan Alert
	bell   io.Writer
	now    func() time.Time

	mu      sync.Mutex
	closed  bool
	dropped int
	done    chan struct{}
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithBell sets the writer that receives the bell character. A nil writer
// disables the bell.
func WithBell(w io.Writer) Option {
	return func(t *Terminal) { t.bell = w }
}

// WithQueueSize bounds the number of undelivered alerts.
func WithQueueSize(n int) Option {
	return func(t *Terminal) {
		if n > 0 {
			t.queue = make(chan Alert, n)
		}
	}
}

// NewTerminal starts the delivery goroutine. The bell rings on stdout only
// when stdout is a terminal.
func NewTerminal(logger *zap.Logger, opts ...Option) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Terminal{
		logger: logger,
		queue:  make(chan Alert, defaultQueueSize),
		out:    make(chan Alert, defaultQueueSize),
		now:    time.Now,
		done:   make(chan struct{}),
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		t.bell = os.Stdout
	}
	for _, opt := range opts {
		opt(t)
	}
	go t.run()
	return t
}

// Alerts returns the channel the UI reads delivered alerts from.
func (t *Terminal) Alerts() <-chan Alert {
	return t.out
}

// Notify queues a notification.
func (t *Terminal) Notify(title, body string, kind model.AlertKind) {
	t.enqueue(Alert{Title: title, Body: body, Kind: kind, Emitted: t.now()})
}

// Haptic queues a haptic signal. Terminals have no vibration, so warnings
// and errors fall back to the bell.
func (t *Terminal) Haptic(pattern model.HapticPattern) {
	t.enqueue(Alert{Haptic: pattern, Emitted: t.now()})
}

// Dropped returns the number of alerts lost to a full queue.
func (t *Terminal) Dropped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// Close stops delivery and closes the Alerts channel.
func (t *Terminal) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.queue)
	t.mu.Unlock()
	<-t.done
}

func (t *Terminal) enqueue(a Alert) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.queue <- a:
	default:
		t.dropped++
	}
}

func (t *Terminal) run() {
	defer close(t.done)
	defer close(t.out)
	for a := range t.queue {
		t.deliver(a)
	}
}

func (t *Terminal) deliver(a Alert) {
	if a.Haptic != "" {
		t.logger.Debug("haptic", zap.String("pattern", string(a.Haptic)))
	} else {
		t.logger.Info("alert",
			zap.String("kind", string(a.Kind)),
			zap.String("title", a.Title),
			zap.String("body", a.Body),
		)
	}
	if t.bell != nil && rings(a) {
		if _, err := io.WriteString(t.bell, "\a"); err != nil {
			t.logger.Debug("bell failed", zap.Error(err))
		}
	}
	if a.Haptic != "" {
		return
	}
	select {
	case t.out <- a:
	default:
		// The UI is behind; drop the oldest toast in favour of the newest.
		select {
		case <-t.out:
		default:
		}
		select {
		case t.out <- a:
		default:
		}
	}
}

func rings(a Alert) bool {
	return a.Kind == model.AlertEmergency || a.Haptic == model.HapticWarning
}

// Nop discards every alert.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(string, string, model.AlertKind) {}

// Haptic does nothing.
func (Nop) Haptic(model.HapticPattern) {}

package render

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/OrFisher/real-time-speech-processor/internal/shared"
	"github.com/charmbracelet/lipgloss"
)

// Alert is one transient keyword hit. Instances are independent; there is no
// persisted alert history.
type Alert struct {
	Keyword      string
	TalkingPoint string
	FullText     string
	Speaker      shared.SpeakerType
}

const DefaultAlertLifetime = 8 * time.Second

var (
	alertKeywordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	alertBodyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
)

type visibleAlert struct {
	seq   uint64
	alert Alert
}

// AlertRenderer presents alerts most-recent-first. Each alert expires on its
// own lifetime; bursts simply coexist until their individual timers fire.
type AlertRenderer struct {
	mu       sync.Mutex
	out      io.Writer
	lifetime time.Duration
	nextSeq  uint64
	visible  []visibleAlert

	// afterFunc is swappable so tests can drive expiry deterministically.
	afterFunc func(time.Duration, func()) *time.Timer
}

func NewAlertRenderer(out io.Writer, lifetime time.Duration) *AlertRenderer {
	if lifetime <= 0 {
		lifetime = DefaultAlertLifetime
	}
	return &AlertRenderer{
		out:       out,
		lifetime:  lifetime,
		afterFunc: time.AfterFunc,
	}
}

func (r *AlertRenderer) Present(alert Alert) {
	r.mu.Lock()
	r.nextSeq++
	seq := r.nextSeq
	r.visible = append([]visibleAlert{{seq: seq, alert: alert}}, r.visible...)
	r.mu.Unlock()

	line := fmt.Sprintf("%s %s", alertKeywordStyle.Render("⚑ "+alert.Keyword), alertBodyStyle.Render(alert.TalkingPoint))
	fmt.Fprintln(r.out, line)

	r.afterFunc(r.lifetime, func() { r.expire(seq) })
}

func (r *AlertRenderer) expire(seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, v := range r.visible {
		if v.seq == seq {
			r.visible = append(r.visible[:i], r.visible[i+1:]...)
			return
		}
	}
}

// Visible returns the live alerts, most recent first.
func (r *AlertRenderer) Visible() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Alert, len(r.visible))
	for i, v := range r.visible {
		out[i] = v.alert
	}
	return out
}

package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/OrFisher/real-time-speech-processor/internal/keywords"
	"github.com/OrFisher/real-time-speech-processor/internal/shared"
	"github.com/charmbracelet/lipgloss"
)

// Transcription is one speaker-tagged line arriving from the backend.
type Transcription struct {
	Text    string
	Speaker shared.SpeakerType
}

const placeholderText = "Waiting for transcription..."

var (
	prospectStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	defaultLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	placeholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	highlightStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true).Underline(true)
)

// markersFor splits a style's rendering into the open/close sequences the
// highlighter inserts around each keyword match.
func markersFor(style lipgloss.Style) (string, string) {
	const probe = "\x00"
	rendered := style.Render(probe)
	i := strings.Index(rendered, probe)
	if i < 0 {
		return "", ""
	}
	return rendered[:i], rendered[i+len(probe):]
}

// TranscriptRenderer keeps the append-only speaker-tagged log. Prospect lines
// get the one distinguished treatment; every other speaker shares the
// default. The placeholder is shown until the first real line arrives.
type TranscriptRenderer struct {
	mu          sync.Mutex
	out         io.Writer
	cache       *keywords.Cache
	highlighter keywords.Highlighter
	lines       []string
	placeholder bool
}

func NewTranscriptRenderer(out io.Writer, cache *keywords.Cache) *TranscriptRenderer {
	openSeq, closeSeq := markersFor(highlightStyle)
	r := &TranscriptRenderer{
		out:         out,
		cache:       cache,
		highlighter: keywords.Highlighter{Open: openSeq, Close: closeSeq},
		placeholder: true,
	}
	fmt.Fprintln(out, placeholderStyle.Render(placeholderText))
	return r
}

func (r *TranscriptRenderer) Append(evt Transcription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.placeholder {
		r.placeholder = false
	}

	text := r.highlighter.Highlight(evt.Text, r.cache.Snapshot())
	style := defaultLineStyle
	if evt.Speaker == shared.SpeakerProspect {
		style = prospectStyle
	}
	line := fmt.Sprintf("%s %s", style.Render(evt.Speaker.String()+":"), text)
	r.lines = append(r.lines, line)

	// Writing each line as it lands keeps the latest one visible.
	fmt.Fprintln(r.out, line)
}

// Lines returns the full rendered log in append order.
func (r *TranscriptRenderer) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Tail returns up to n most recent lines, or the placeholder before the
// first append.
func (r *TranscriptRenderer) Tail(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.placeholder {
		return []string{placeholderStyle.Render(placeholderText)}
	}
	if n <= 0 || n >= len(r.lines) {
		out := make([]string, len(r.lines))
		copy(out, r.lines)
		return out
	}
	out := make([]string, n)
	copy(out, r.lines[len(r.lines)-n:])
	return out
}

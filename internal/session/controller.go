package session

import (
	"log/slog"
	"sync"

	"github.com/OrFisher/real-time-speech-processor/internal/shared"
)

// Controller serializes the recording intents coming from the API surface.
// It owns at most one live StreamingSession; the speaker designation
// outlives individual sessions.
type Controller struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	speaker shared.SpeakerType
	current *StreamingSession
}

// Status is a point-in-time snapshot of the controller.
type Status struct {
	SessionID     string             `json:"session_id,omitempty"`
	State         string             `json:"state"`
	SpeakerType   shared.SpeakerType `json:"speaker_type"`
	DroppedChunks int                `json:"dropped_chunks"`
}

func NewController(cfg Config, logger *slog.Logger) *Controller {
	return &Controller{
		cfg:     cfg,
		logger:  logger.With("component", "session_controller"),
		speaker: shared.SpeakerProspect,
	}
}

// StartRecording creates a fresh session with a new identity. Starting while
// a session is actively streaming is refused; starting over a session that
// is still connecting or winding down supersedes it.
func (c *Controller) StartRecording() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		switch c.current.State() {
		case StateStreaming:
			return "", shared.ErrSessionActive
		case StateConnecting, StateClosing:
			c.logger.Info("superseding previous session", "session_id", c.current.ID())
			c.current.Stop()
		}
	}

	sess := newStreamingSession(c.cfg, c.speaker, c.logger)
	if err := sess.Start(); err != nil {
		return "", err
	}
	c.current = sess
	c.logger.Info("recording started", "session_id", sess.ID())
	return sess.ID(), nil
}

// StopRecording ends the live session if one is connecting or streaming.
// Stopping with nothing to stop is not an error.
func (c *Controller) StopRecording() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil
	}
	switch c.current.State() {
	case StateConnecting, StateStreaming, StateClosing:
		c.current.Stop()
	}
	return nil
}

// SetSpeakerType validates and stores the designation, forwarding it to the
// live session so the backend re-tags subsequent audio.
func (c *Controller) SetSpeakerType(value string) error {
	speaker, err := shared.ParseSpeakerType(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.speaker = speaker
	sess := c.current
	c.mu.Unlock()

	if sess != nil {
		sess.SetSpeakerType(speaker)
	}
	c.logger.Info("speaker type set", "speaker_type", speaker)
	return nil
}

func (c *Controller) SpeakerType() shared.SpeakerType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speaker
}

// Current returns the most recent session, live or not.
func (c *Controller) Current() *StreamingSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	sess := c.current
	speaker := c.speaker
	c.mu.Unlock()

	st := Status{State: StateIdle.String(), SpeakerType: speaker}
	if sess != nil {
		st.SessionID = sess.ID()
		st.State = sess.State().String()
		st.DroppedChunks = sess.DroppedChunks()
	}
	return st
}

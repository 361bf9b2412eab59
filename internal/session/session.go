package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/OrFisher/real-time-speech-processor/internal/capture"
	"github.com/OrFisher/real-time-speech-processor/internal/render"
	"github.com/OrFisher/real-time-speech-processor/internal/shared"
	"github.com/OrFisher/real-time-speech-processor/internal/transport"
	"github.com/google/uuid"
)

const DefaultReconnectDelay = 3 * time.Second

// Transport is the slice of transport.Conn the session drives. It exists so
// tests can substitute a scripted connection.
type Transport interface {
	IsOpen() bool
	Events() <-chan transport.Event
	SendControl(transport.ControlMessage) error
	SendAudio([]byte) error
	Close() error
}

// Dialer opens the per-session transport connection.
type Dialer func(sessionID string) (Transport, error)

type TranscriptSink interface {
	Append(render.Transcription)
}

type AlertSink interface {
	Present(render.Alert)
}

// HistorySink archives routed transcription lines; history.Store satisfies it.
type HistorySink interface {
	Append(ctx context.Context, sessionID string, speaker shared.SpeakerType, text string) error
}

type Config struct {
	Dial           Dialer
	Source         capture.Source
	Transcripts    TranscriptSink
	Alerts         AlertSink
	History        HistorySink // optional
	ReconnectDelay time.Duration
}

// StreamingSession owns one logical recording attempt: the capture handle,
// the transport connection, and the routing between them. Nothing else may
// write to either. All inbound routing happens on a single dispatch
// goroutine, so events reach the renderers in arrival order.
type StreamingSession struct {
	id     string
	cfg    Config
	logger *slog.Logger

	mu             sync.Mutex
	state          State
	speaker        shared.SpeakerType
	conn           Transport
	cancelCapture  context.CancelFunc
	stopRequested  bool
	reconnectTimer *time.Timer
	droppedChunks  int
	selfTests      int

	redialed chan Transport
	done     chan struct{}
}

func newStreamingSession(cfg Config, speaker shared.SpeakerType, logger *slog.Logger) *StreamingSession {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	id := uuid.New().String()
	return &StreamingSession{
		id:       id,
		cfg:      cfg,
		speaker:  speaker,
		logger:   logger.With("session_id", id),
		state:    StateIdle,
		redialed: make(chan Transport, 1),
		done:     make(chan struct{}),
	}
}

func (s *StreamingSession) ID() string {
	return s.id
}

func (s *StreamingSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *StreamingSession) Speaker() shared.SpeakerType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaker
}

// DroppedChunks counts capture chunks discarded because the transport was
// not open when they arrived.
func (s *StreamingSession) DroppedChunks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.droppedChunks
}

func (s *StreamingSession) SelfTestResponses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selfTests
}

// Done is closed once both capture and transport have reached terminal state.
func (s *StreamingSession) Done() <-chan struct{} {
	return s.done
}

// Start acquires the capture device and begins connecting. Device refusal is
// the one synchronous failure: it leaves the session Idle with no transport
// traffic and is not retried. Everything after that is asynchronous.
func (s *StreamingSession) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	chunks, err := s.cfg.Source.Open(ctx)
	if err != nil {
		cancel()
		s.logger.Error("capture open failed", "error", err)
		return err
	}

	s.mu.Lock()
	s.state = StateConnecting
	s.cancelCapture = cancel
	s.mu.Unlock()

	go s.connect(chunks)
	return nil
}

func (s *StreamingSession) connect(chunks <-chan capture.Chunk) {
	conn, err := s.cfg.Dial(s.id)

	s.mu.Lock()
	if s.stopRequested {
		s.mu.Unlock()
		if err == nil {
			_ = conn.Close()
		}
		s.finalize()
		return
	}
	if err != nil {
		s.logger.Error("transport dial failed", "error", err)
		s.state = StateClosing
		cancel := s.cancelCapture
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		s.finalize()
		return
	}
	s.conn = conn
	s.state = StateStreaming
	speaker := s.speaker
	s.mu.Unlock()

	s.logger.Info("transport open", "speaker_type", speaker)
	s.announce(conn, speaker)

	go s.run(chunks, conn.Events())
}

// run is the session's single dispatch loop. It exits once both the capture
// channel and the transport event channel have terminated.
func (s *StreamingSession) run(chunks <-chan capture.Chunk, events <-chan transport.Event) {
	defer s.finalize()

	for chunks != nil || events != nil {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				chunks = nil
				s.onCaptureDone()
				continue
			}
			s.forward(chunk)

		case evt, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if evt.Closed != nil {
				s.onTransportClosed(evt.Closed)
				continue
			}
			s.route(evt.Message)

		case conn := <-s.redialed:
			events = conn.Events()
		}
	}
}

func (s *StreamingSession) finalize() {
	s.mu.Lock()
	if s.state != StateIdle {
		s.state = StateClosed
	}
	s.mu.Unlock()
	close(s.done)
	s.logger.Info("session finished")
}

func (s *StreamingSession) forward(chunk capture.Chunk) {
	s.mu.Lock()
	conn := s.conn
	streaming := s.state == StateStreaming
	s.mu.Unlock()

	if !streaming || conn == nil || !conn.IsOpen() {
		s.recordDrop(len(chunk))
		return
	}
	if err := conn.SendAudio(chunk); err != nil {
		s.recordDrop(len(chunk))
	}
}

func (s *StreamingSession) recordDrop(bytes int) {
	s.mu.Lock()
	s.droppedChunks++
	total := s.droppedChunks
	s.mu.Unlock()
	s.logger.Debug("capture chunk dropped, transport not open", "bytes", bytes, "total_dropped", total)
}

func (s *StreamingSession) route(msg *transport.ServerMessage) {
	switch msg.Type {
	case transport.MessageTypeTranscription:
		var data transport.TranscriptionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.logger.Error("bad transcription payload", "error", err)
			return
		}
		speaker := shared.SpeakerTypeOrUnknown(data.SpeakerType)
		s.cfg.Transcripts.Append(render.Transcription{Text: data.Text, Speaker: speaker})
		if s.cfg.History != nil {
			if err := s.cfg.History.Append(context.Background(), s.id, speaker, data.Text); err != nil {
				s.logger.Error("failed to archive transcript line", "error", err)
			}
		}

	case transport.MessageTypeAlert:
		var data transport.AlertData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.logger.Error("bad alert payload", "error", err)
			return
		}
		s.cfg.Alerts.Present(render.Alert{
			Keyword:      data.Keyword,
			TalkingPoint: data.TalkingPoint,
			FullText:     data.FullText,
			Speaker:      shared.SpeakerTypeOrUnknown(data.SpeakerType),
		})

	case transport.MessageTypeSelfTestResponse:
		s.mu.Lock()
		s.selfTests++
		s.mu.Unlock()
		s.logger.Info("self test response", "message", transport.DecodeSelfTest(msg.Data))

	default:
		// Forward compatibility: new server message types must not fail
		// the session.
		s.logger.Debug("ignoring unrecognized message type", "type", msg.Type)
	}
}

func (s *StreamingSession) onCaptureDone() {
	s.mu.Lock()
	if s.stopRequested {
		s.mu.Unlock()
		return
	}
	// The source drained on its own; wind the session down cleanly.
	s.stopRequested = true
	s.state = StateClosing
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
	}
	conn := s.conn
	s.mu.Unlock()

	s.logger.Info("capture source ended, closing session")
	if conn != nil {
		_ = conn.Close()
	}
}

func (s *StreamingSession) onTransportClosed(evt *transport.CloseEvent) {
	s.mu.Lock()
	s.conn = nil

	if s.stopRequested {
		s.mu.Unlock()
		return
	}

	if evt.Err == nil {
		// Clean close without a stop intent: the server ended the
		// session. No reconnect, per the clean-close invariant.
		s.state = StateClosing
		cancel := s.cancelCapture
		s.mu.Unlock()
		s.logger.Info("transport closed cleanly by peer")
		if cancel != nil {
			cancel()
		}
		return
	}

	if s.state != StateStreaming {
		s.mu.Unlock()
		return
	}

	// Abnormal close while streaming: exactly one reconnection attempt,
	// fixed delay, same session identity.
	s.state = StateConnecting
	delay := s.cfg.ReconnectDelay
	s.reconnectTimer = time.AfterFunc(delay, s.redial)
	s.mu.Unlock()

	s.logger.Warn("transport closed abnormally, scheduling reconnect",
		"delay", delay, "error", evt.Err)
}

func (s *StreamingSession) redial() {
	s.mu.Lock()
	if s.stopRequested || s.state != StateConnecting {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	conn, err := s.cfg.Dial(s.id)

	s.mu.Lock()
	if s.stopRequested {
		s.mu.Unlock()
		if err == nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		// Single attempt only; a failed reconnect ends the session.
		s.state = StateClosing
		cancel := s.cancelCapture
		s.mu.Unlock()
		s.logger.Error("reconnect failed, closing session", "error", err)
		if cancel != nil {
			cancel()
		}
		return
	}
	s.conn = conn
	s.state = StateStreaming
	speaker := s.speaker
	s.mu.Unlock()

	s.logger.Info("transport reconnected")
	s.announce(conn, speaker)
	s.redialed <- conn
}

func (s *StreamingSession) announce(conn Transport, speaker shared.SpeakerType) {
	err := conn.SendControl(transport.ControlMessage{
		Type:        transport.MessageTypeSetSpeakerType,
		SpeakerType: speaker.String(),
	})
	if err != nil {
		s.logger.Error("failed to announce speaker type", "error", err)
	}
}

// SetSpeakerType re-announces immediately while streaming; otherwise the new
// value rides along on the next connect.
func (s *StreamingSession) SetSpeakerType(speaker shared.SpeakerType) {
	s.mu.Lock()
	s.speaker = speaker
	conn := s.conn
	streaming := s.state == StateStreaming
	s.mu.Unlock()

	if streaming && conn != nil {
		s.announce(conn, speaker)
	}
}

// Stop drives Streaming→Closing: capture is cancelled with no flush (pending
// chunks are discarded), the transport closes cleanly, and any scheduled
// reconnect is superseded. Safe to call more than once.
func (s *StreamingSession) Stop() {
	s.mu.Lock()
	if s.stopRequested || s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.stopRequested = true
	s.state = StateClosing
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
	}
	cancel := s.cancelCapture
	conn := s.conn
	s.mu.Unlock()

	s.logger.Info("stop requested")
	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

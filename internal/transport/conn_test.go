package transport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStreamURL(t *testing.T) {
	cases := []struct {
		base      string
		sessionID string
		want      string
		wantErr   bool
	}{
		{"http://localhost:8000", "abc123", "ws://localhost:8000/stream/audio/abc123/", false},
		{"https://backend.example.com", "abc123", "wss://backend.example.com/stream/audio/abc123/", false},
		{"ws://localhost:8000", "s1", "ws://localhost:8000/stream/audio/s1/", false},
		{"wss://backend.example.com", "s1", "wss://backend.example.com/stream/audio/s1/", false},
		{"ftp://backend.example.com", "s1", "", true},
	}
	for _, tc := range cases {
		got, err := StreamURL(tc.base, tc.sessionID)
		if tc.wantErr {
			if err == nil {
				t.Errorf("StreamURL(%q) expected error", tc.base)
			}
			continue
		}
		if err != nil {
			t.Errorf("StreamURL(%q) error: %v", tc.base, err)
			continue
		}
		if got != tc.want {
			t.Errorf("StreamURL(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}

// echoServer upgrades, records received frames, and optionally pushes
// messages to the client.
type echoServer struct {
	t        *testing.T
	binary   chan []byte
	control  chan ControlMessage
	outbound chan []byte
	close    chan int
}

func newEchoServer(t *testing.T) (*echoServer, *httptest.Server) {
	srv := &echoServer{
		t:        t,
		binary:   make(chan []byte, 16),
		control:  make(chan ControlMessage, 16),
		outbound: make(chan []byte, 16),
		close:    make(chan int, 1),
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/stream/audio/") {
			http.NotFound(w, r)
			return
		}
		upgrader := websocket.Upgrader{}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		go func() {
			for {
				select {
				case data, ok := <-srv.outbound:
					if !ok {
						return
					}
					if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
						return
					}
				case code := <-srv.close:
					if code == 0 {
						_ = ws.Close()
						return
					}
					_ = ws.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(code, ""))
					return
				}
			}
		}()

		for {
			msgType, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			switch msgType {
			case websocket.BinaryMessage:
				srv.binary <- data
			case websocket.TextMessage:
				var msg ControlMessage
				if err := json.Unmarshal(data, &msg); err == nil {
					srv.control <- msg
				}
			}
		}
	}))
	return srv, ts
}

func TestConn_SendControlAndAudio(t *testing.T) {
	srv, ts := newEchoServer(t)
	defer ts.Close()

	conn, err := Dial(ts.URL, "sess-1", testLogger())
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	if !conn.IsOpen() {
		t.Error("connection should be open after dial")
	}

	if err := conn.SendControl(ControlMessage{Type: MessageTypeSetSpeakerType, SpeakerType: "rep"}); err != nil {
		t.Fatalf("SendControl error: %v", err)
	}
	select {
	case msg := <-srv.control:
		if msg.Type != MessageTypeSetSpeakerType || msg.SpeakerType != "rep" {
			t.Errorf("unexpected control message: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive control message")
	}

	if err := conn.SendAudio([]byte{0x01, 0x02, 0x03}); err != nil {
		t.Fatalf("SendAudio error: %v", err)
	}
	select {
	case data := <-srv.binary:
		if len(data) != 3 || data[0] != 0x01 {
			t.Errorf("unexpected binary frame: %v", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive binary frame")
	}
}

func TestConn_AudioFramesKeepOrder(t *testing.T) {
	srv, ts := newEchoServer(t)
	defer ts.Close()

	conn, err := Dial(ts.URL, "sess-order", testLogger())
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 10; i++ {
		if err := conn.SendAudio([]byte{byte(i)}); err != nil {
			t.Fatalf("SendAudio(%d) error: %v", i, err)
		}
	}
	for i := 0; i < 10; i++ {
		select {
		case data := <-srv.binary:
			if data[0] != byte(i) {
				t.Fatalf("frame %d arrived out of order: got %d", i, data[0])
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("frame %d never arrived", i)
		}
	}
}

func TestConn_InboundMessages(t *testing.T) {
	srv, ts := newEchoServer(t)
	defer ts.Close()

	conn, err := Dial(ts.URL, "sess-in", testLogger())
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	srv.outbound <- []byte(`{"type":"transcription","data":{"text":"hello world","speaker_type":"prospect"}}`)
	srv.outbound <- []byte(`{"type":"future_feature","data":{}}`)

	var got []*ServerMessage
	for len(got) < 2 {
		select {
		case evt := <-conn.Events():
			if evt.Closed != nil {
				t.Fatalf("unexpected close event: %v", evt.Closed.Err)
			}
			got = append(got, evt.Message)
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d messages arrived", len(got))
		}
	}

	if got[0].Type != MessageTypeTranscription {
		t.Errorf("first message type = %s", got[0].Type)
	}
	var data TranscriptionData
	if err := json.Unmarshal(got[0].Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data.Text != "hello world" || data.SpeakerType != "prospect" {
		t.Errorf("unexpected transcription data: %+v", data)
	}
	if got[1].Type != "future_feature" {
		t.Errorf("unknown tags must still be delivered, got %s", got[1].Type)
	}
}

func drainToClose(t *testing.T, conn *Conn) *CloseEvent {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case evt, ok := <-conn.Events():
			if !ok {
				t.Fatal("events channel closed without a close event")
			}
			if evt.Closed != nil {
				return evt.Closed
			}
		case <-deadline:
			t.Fatal("no close event observed")
		}
	}
}

func TestConn_CleanCloseReportsNilError(t *testing.T) {
	_, ts := newEchoServer(t)
	defer ts.Close()

	conn, err := Dial(ts.URL, "sess-clean", testLogger())
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("close error: %v", err)
	}
	closed := drainToClose(t, conn)
	if closed.Err != nil {
		t.Errorf("clean close should report nil error, got %v", closed.Err)
	}
	if conn.IsOpen() {
		t.Error("connection should not report open after close")
	}
}

func TestConn_PeerDropReportsError(t *testing.T) {
	srv, ts := newEchoServer(t)
	defer ts.Close()

	conn, err := Dial(ts.URL, "sess-drop", testLogger())
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	srv.close <- 0 // server drops the socket without a closing handshake

	closed := drainToClose(t, conn)
	if closed.Err == nil {
		t.Error("abnormal drop should report a non-nil error")
	}
}

func TestConn_SendAfterCloseFails(t *testing.T) {
	_, ts := newEchoServer(t)
	defer ts.Close()

	conn, err := Dial(ts.URL, "sess-after", testLogger())
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	_ = conn.Close()

	if err := conn.SendAudio([]byte{0x01}); err == nil {
		t.Error("SendAudio after close should fail")
	}
	if err := conn.SendControl(ControlMessage{Type: MessageTypeSetSpeakerType}); err == nil {
		t.Error("SendControl after close should fail")
	}
}

func TestDecodeSelfTest(t *testing.T) {
	if got := DecodeSelfTest(json.RawMessage(`"self test ok"`)); got != "self test ok" {
		t.Errorf("string payload: got %q", got)
	}
	if got := DecodeSelfTest(json.RawMessage(`{"message":"hi"}`)); got != "hi" {
		t.Errorf("object payload: got %q", got)
	}
}

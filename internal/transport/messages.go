package transport

import "encoding/json"

const (
	MessageTypeSetSpeakerType   = "set_speaker_type"
	MessageTypeTranscription    = "transcription"
	MessageTypeAlert            = "alert"
	MessageTypeSelfTestResponse = "self_test_response"
)

// ControlMessage is the outbound non-audio envelope. The backend reads the
// speaker announcement off the same socket the audio frames travel on.
type ControlMessage struct {
	Type        string `json:"type"`
	SpeakerType string `json:"speaker_type,omitempty"`
}

// ServerMessage is the inbound tagged envelope. Data stays raw until the
// session routes it; unknown types are passed through and ignored there.
type ServerMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type TranscriptionData struct {
	Text        string `json:"text"`
	SpeakerType string `json:"speaker_type"`
	Timestamp   string `json:"timestamp,omitempty"`
}

type AlertData struct {
	Keyword      string `json:"keyword"`
	TalkingPoint string `json:"talking_point,omitempty"`
	FullText     string `json:"full_text"`
	SpeakerType  string `json:"speaker_type"`
}

// DecodeSelfTest tolerates both a bare string payload and an object; the
// backend's self test sends a plain string.
func DecodeSelfTest(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		if m, ok := obj["message"].(string); ok {
			return m
		}
	}
	return string(raw)
}

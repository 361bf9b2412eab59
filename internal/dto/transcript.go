package dto

type TranscriptLineResponse struct {
	SpeakerType string `json:"speaker_type" example:"prospect"`
	Text        string `json:"text" example:"so what about pricing"`
	CreatedAt   string `json:"created_at" example:"2025-06-12T10:30:00Z"`
}

type TranscriptResponse struct {
	SessionID string                   `json:"session_id"`
	Lines     []TranscriptLineResponse `json:"lines"`
}

type TranscriptSessionsResponse struct {
	Sessions []string `json:"sessions"`
}

type UploadResponse struct {
	SessionID string `json:"session_id" example:"0c7be1d4-33b1-4f48-8f2e-6a1f0cf1f9d2"`
	Message   string `json:"message,omitempty" example:"audio received"`
}

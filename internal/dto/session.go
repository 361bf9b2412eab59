package dto

type StartSessionResponse struct {
	SessionID string `json:"session_id" example:"7f0d9a2e-1c44-4c07-9f4e-2f6f4adf5a31"`
	State     string `json:"state" example:"connecting"`
}

type StopSessionResponse struct {
	State string `json:"state" example:"closing"`
}

type SetSpeakerRequest struct {
	SpeakerType string `json:"speaker_type" example:"rep" enums:"rep,prospect,unknown"`
}

type SessionStatusResponse struct {
	SessionID     string `json:"session_id,omitempty" example:"7f0d9a2e-1c44-4c07-9f4e-2f6f4adf5a31"`
	State         string `json:"state" example:"streaming"`
	SpeakerType   string `json:"speaker_type" example:"prospect"`
	DroppedChunks int    `json:"dropped_chunks" example:"0"`
}

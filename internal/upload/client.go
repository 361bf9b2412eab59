package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/OrFisher/real-time-speech-processor/internal/shared"
	"github.com/google/uuid"
)

// Client submits complete audio files for out-of-band transcription. Each
// upload gets its own freshly generated session identity; the backend echoes
// it back so later transcription and alert events can be correlated.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

type Result struct {
	SessionID string
	Message   string
}

type uploadResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Error     string `json:"error"`
}

func (c *Client) UploadFile(ctx context.Context, path string, speaker shared.SpeakerType) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()
	return c.Upload(ctx, filepath.Base(path), f, speaker)
}

func (c *Client) Upload(ctx context.Context, filename string, audio io.Reader, speaker shared.SpeakerType) (*Result, error) {
	sessionID := uuid.New().String()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("audio", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("copy audio: %w", err)
	}
	if err := w.WriteField("session_id", sessionID); err != nil {
		return nil, fmt.Errorf("write session_id: %w", err)
	}
	if err := w.WriteField("speaker_type", speaker.String()); err != nil {
		return nil, fmt.Errorf("write speaker_type: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload-audio/", &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload audio: %w", err)
	}
	defer resp.Body.Close()

	var decoded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil && resp.StatusCode == http.StatusAccepted {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		if decoded.Error != "" {
			return nil, fmt.Errorf("upload rejected: %s (status %d)", decoded.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("upload rejected: status %d", resp.StatusCode)
	}

	result := &Result{SessionID: decoded.SessionID, Message: decoded.Message}
	if result.SessionID == "" {
		result.SessionID = sessionID
	}
	return result, nil
}

package keywords

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/OrFisher/real-time-speech-processor/internal/shared"
)

// Client talks to the backend keyword CRUD endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

type createRequest struct {
	Word         string `json:"word"`
	TalkingPoint string `json:"talking_point"`
	IsActive     bool   `json:"is_active"`
}

func (c *Client) List(ctx context.Context) ([]Keyword, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/keywords/", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list keywords: backend returned status %d", resp.StatusCode)
	}

	var kws []Keyword
	if err := json.NewDecoder(resp.Body).Decode(&kws); err != nil {
		return nil, fmt.Errorf("decode keywords: %w", err)
	}
	return kws, nil
}

func (c *Client) Create(ctx context.Context, word, talkingPoint string, active bool) (*Keyword, error) {
	body, err := json.Marshal(createRequest{Word: word, TalkingPoint: talkingPoint, IsActive: active})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/keywords/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create keyword: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("create keyword: backend returned status %d", resp.StatusCode)
	}

	var kw Keyword
	if err := json.NewDecoder(resp.Body).Decode(&kw); err != nil {
		return nil, fmt.Errorf("decode keyword: %w", err)
	}
	return &kw, nil
}

func (c *Client) Delete(ctx context.Context, id int) error {
	url := fmt.Sprintf("%s/api/keywords/%d/", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete keyword: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound:
		return shared.ErrNotFound
	default:
		return fmt.Errorf("delete keyword: backend returned status %d", resp.StatusCode)
	}
}

package video

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kurshub/miniapp-backend/internal/apperrors"
)

const DefaultAPIURL = "https://api.kinescope.io/v1"

// Статусы видео в Kinescope
const (
	StatusDone       = "done"
	StatusProcessing = "processing"
	StatusUploading  = "uploading"
	StatusError      = "error"
)

// KinescopeVideo — нужная нам часть ответа Kinescope API
type KinescopeVideo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Status   string  `json:"status"`
	Poster   struct {
		Original string `json:"original"`
		MD       string `json:"md"`
	} `json:"poster"`
}

type kinescopeResponse struct {
	Data KinescopeVideo `json:"data"`
}

// KinescopeClient ходит в Kinescope API за метаданными видео
type KinescopeClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewKinescopeClient(baseURL, token string) *KinescopeClient {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &KinescopeClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// GetVideo запрашивает метаданные видео по его id
func (c *KinescopeClient) GetVideo(ctx context.Context, videoID string) (*KinescopeVideo, error) {
	url := fmt.Sprintf("%s/videos/%s", c.baseURL, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create kinescope request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: kinescope call failed: %v", apperrors.ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: video %s", apperrors.ErrNotFound, videoID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: kinescope returned status %d", apperrors.ErrUpstream, resp.StatusCode)
	}

	var payload kinescopeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode kinescope response: %v", apperrors.ErrUpstream, err)
	}
	return &payload.Data, nil
}

package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/salesai/api-server-go/internal/errors"
)

const signedURLPath = "/v1/convai/conversation/get_signed_url"

// Client fetches short-lived connection credentials from the ElevenLabs
// conversational AI API. The browser-side SDK consumes the signed URL and
// manages the audio stream itself.
type Client struct {
	apiKey     string
	agentID    string
	baseURL    string
	httpClient *http.Client
}

type SignedURL struct {
	SignedURL string `json:"signedUrl"`
	AgentID   string `json:"agentId"`
}

func NewClient(apiKey, agentID, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		agentID: agentID,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GetSignedURL requests a signed websocket URL for the configured agent.
// Vendor errors keep their status code so the handler can pass it through.
func (c *Client) GetSignedURL(ctx context.Context) (*SignedURL, error) {
	endpoint := fmt.Sprintf("%s%s?agent_id=%s", c.baseURL, signedURLPath, url.QueryEscape(c.agentID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.External("elevenlabs", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &VendorError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var payload struct {
		SignedURL string `json:"signed_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &SignedURL{
		SignedURL: payload.SignedURL,
		AgentID:   c.agentID,
	}, nil
}

// VendorError carries the vendor's HTTP status for passthrough responses.
type VendorError struct {
	StatusCode int
	Body       string
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("elevenlabs returned %d: %s", e.StatusCode, e.Body)
}

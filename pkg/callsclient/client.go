package callsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://rtc.live.cloudflare.com/v1"

type Config struct {
	BaseURL   string
	AppID     string
	AppSecret string
	Timeout   time.Duration
}

// Client talks to a Cloudflare Calls compatible SFU control plane.
type Client struct {
	baseURL    string
	appID      string
	appSecret  string
	httpClient *http.Client
}

func New(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		appID:      cfg.AppID,
		appSecret:  cfg.AppSecret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("calls api: unexpected status code: %d", e.StatusCode)
	}

	return fmt.Sprintf("calls api: %s: %s (status %d)", e.Code, e.Description, e.StatusCode)
}

type apiErrorBody struct {
	ErrorCode        string `json:"errorCode,omitempty"`
	ErrorDescription string `json:"errorDescription,omitempty"`
}

func (c *Client) sessionURL(sessionID, suffix string) string {
	return fmt.Sprintf("%s/apps/%s/sessions/%s/%s", c.baseURL, c.appID, sessionID, suffix)
}

func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.appSecret)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var apiErr apiErrorBody
	_ = json.Unmarshal(data, &apiErr)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || apiErr.ErrorCode != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        apiErr.ErrorCode,
			Description: apiErr.ErrorDescription,
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

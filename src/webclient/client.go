package webclient

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

// NewDefault returns an HTTP client with sane timeouts.
func NewDefault(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// APIError is a non-2xx reply from the ledger API.
type APIError struct {
	Status int
	Code   string `json:"code"`
	Msg    string `json:"err"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Msg)
}

// Client calls the ledger HTTP API.
type Client struct {
	BaseURL  string
	Token    string
	HTTP     *http.Client
	Attempts int
	Delay    time.Duration
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		HTTP:     NewDefault(0),
		Attempts: 3,
	}
}

// Do sends in as JSON (nil for no body) and decodes a 2xx reply into out.
// Rate-limited and 5xx replies are retried.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return err
		}
	}
	status, body, err := DoWithRetry(ctx, c.Attempts, c.Delay, func() (int, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(payload))
		if err != nil {
			return 0, nil, err
		}
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.Token)
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		return resp.StatusCode, b, err
	})
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		apiErr := &APIError{Status: status}
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

// Signer produces a hex signature over a login challenge.
type Signer interface {
	Sign(msg []byte) (string, error)
}

// Login runs the challenge and verify exchange for address, keeps the
// returned token and returns it.
func (c *Client) Login(ctx context.Context, address string, s Signer) (string, error) {
	var ch struct {
		Nonce   string `json:"nonce"`
		Message string `json:"message"`
	}
	if err := c.Do(ctx, http.MethodPost, "/auth/challenge", map[string]string{"address": address}, &ch); err != nil {
		return "", err
	}
	sig, err := s.Sign([]byte(ch.Message))
	if err != nil {
		return "", err
	}
	var res struct {
		Token string `json:"token"`
	}
	if err := c.Do(ctx, http.MethodPost, "/auth/verify", map[string]string{"address": address, "signature": sig}, &res); err != nil {
		return "", err
	}
	c.Token = res.Token
	return res.Token, nil
}

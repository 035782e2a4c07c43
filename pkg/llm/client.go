// Package llm is the gateway abstraction over the remote LLM backend.
// One synchronous operation: prompt in, text out. The gateway holds no
// state between calls and performs no retries; retry or degrade policy
// belongs to the caller.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// DefaultTimeout bounds a single generate round trip.
const DefaultTimeout = 60 * time.Second

// Client is the outbound contract agents call.
type Client interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// GatewayError signals a failed backend call: non-success HTTP status,
// connection failure, or timeout.
type GatewayError struct {
	StatusCode int // 0 when the request never got a response
	Message    string
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm gateway: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm gateway: %s", e.Message)
}

// IsGatewayError reports whether err is (or wraps) a GatewayError.
func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}

// OllamaClient talks to an Ollama-compatible /api/generate endpoint.
type OllamaClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

func NewOllamaClient(baseURL string, timeout time.Duration) *OllamaClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OllamaClient{
		baseURL: baseURL,
		timeout: timeout,
		client:  &http.Client{},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends one blocking generate call and returns the raw response
// text. The configured timeout is the only bound on the call's latency.
func (c *OllamaClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	if prompt == "" {
		return "", errors.New("empty prompt")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{Model: model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", errors.Wrap(err, "marshal generate request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build generate request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &GatewayError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GatewayError{StatusCode: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &GatewayError{StatusCode: resp.StatusCode, Message: string(raw)}
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &GatewayError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("malformed response: %v", err)}
	}
	return out.Response, nil
}

package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lucaslui/hems/event-pipeline/internal/model"
)

// HTTPForwarder posts a copy of an admitted payload straight to the
// storage service, bypassing the topic. Strictly best-effort: the
// committed consumer remains the durable path.
type HTTPForwarder struct {
	base   string
	client *http.Client
}

func NewHTTPForwarder(base string) *HTTPForwarder {
	return &HTTPForwarder{
		base:   base,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *HTTPForwarder) Forward(ctx context.Context, eventType string, payload []byte) error {
	path := "/sensor-data"
	if eventType == model.EventUserCommand {
		path = "/user-command"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build forward request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("forward %s: %w", eventType, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("forward %s: status %d", eventType, resp.StatusCode)
	}
	return nil
}

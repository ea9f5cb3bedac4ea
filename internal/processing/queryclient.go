package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lucaslui/hems/event-pipeline/internal/model"
)

// HTTPQueryClient reads the storage service's range endpoints. Any
// status other than 200 is a failure for that call.
type HTTPQueryClient struct {
	base   string
	client *http.Client
}

func NewHTTPQueryClient(base string) *HTTPQueryClient {
	return &HTTPQueryClient{
		base:   base,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPQueryClient) SensorDataRange(ctx context.Context, start, end string) ([]model.SensorReadingRecord, error) {
	var out []model.SensorReadingRecord
	if err := c.get(ctx, "/sensor-data", start, end, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPQueryClient) UserCommandRange(ctx context.Context, start, end string) ([]model.UserCommandRecord, error) {
	var out []model.UserCommandRecord
	if err := c.get(ctx, "/user-command", start, end, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPQueryClient) get(ctx context.Context, path, start, end string, out any) error {
	q := url.Values{}
	q.Set("start_timestamp", start)
	q.Set("end_timestamp", end)
	u := c.base + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build query request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("query %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("query %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

package remote

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/parkminsu/janbu/internal/errs"
	"github.com/parkminsu/janbu/internal/record"
)

// HTTPClient speaks the backend's REST + SSE protocol.
//
//	GET    {base}/collections/{name}          list (ordered by updated_at)
//	POST   {base}/collections/{name}          upsert by id
//	DELETE {base}/collections/{name}/{id}     delete by id
//	GET    {base}/health                      probe
//	GET    {base}/collections/{name}/events   SSE change subscription
type HTTPClient struct {
	base   *url.URL
	apiKey string
	http   *http.Client
	logger *slog.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the backend at baseURL.
//
// The underlying http.Client carries no global timeout; every call is
// bounded by its context so the subscription stream can stay open
// indefinitely.
func NewHTTPClient(baseURL, apiKey string, logger *slog.Logger) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote base URL: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		base:   u,
		apiKey: apiKey,
		http:   &http.Client{},
		logger: logger,
	}, nil
}

func (c *HTTPClient) endpoint(parts ...string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Join(parts, "/")
	return u.String()
}

func (c *HTTPClient) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do executes a request and classifies transport and server failures as
// NETWORK_ERROR. The caller owns the response body.
func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Network("remote store unreachable", err)
	}
	if resp.StatusCode >= 500 {
		resp.Body.Close()
		return nil, errs.Network(fmt.Sprintf("remote store returned %d", resp.StatusCode), nil)
	}
	return resp, nil
}

// List returns every record in a collection, ordered by updated_at.
func (c *HTTPClient) List(ctx context.Context, collection string) ([]record.Fields, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("collections", collection), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list %s: unexpected status %d", collection, resp.StatusCode)
	}

	var records []record.Fields
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("list %s: decode response: %w", collection, err)
	}
	if records == nil {
		records = []record.Fields{}
	}
	return records, nil
}

// Upsert creates or replaces a record by id.
func (c *HTTPClient) Upsert(ctx context.Context, collection string, fields record.Fields) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("upsert %s: encode record: %w", collection, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("collections", collection), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("upsert %s/%s: unexpected status %d", collection, fields.ID(), resp.StatusCode)
	}
	return nil
}

// Delete removes a record by id. A 404 is treated as success so deletes
// stay idempotent across retries.
func (c *HTTPClient) Delete(ctx context.Context, collection string, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, c.endpoint("collections", collection, id), nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete %s/%s: unexpected status %d", collection, id, resp.StatusCode)
	}
	return nil
}

// Probe performs a lightweight health check against /health.
func (c *HTTPClient) Probe(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("health"), nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errs.Network(fmt.Sprintf("health probe returned %d", resp.StatusCode), nil)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// Subscribe opens the SSE change stream for a collection.
//
// Each SSE event carries the event type (INSERT/UPDATE/DELETE) in the
// "event:" field and a JSON {"new":..., "old":...} body in "data:".
// The channel closes when the stream drops or ctx is cancelled.
func (c *HTTPClient) Subscribe(ctx context.Context, collection string) (<-chan Delta, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("collections", collection, "events"), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errs.Network(fmt.Sprintf("subscribe %s: status %d", collection, resp.StatusCode), nil)
	}

	out := make(chan Delta)
	go c.readEvents(ctx, collection, resp.Body, out)
	return out, nil
}

// readEvents parses the SSE line protocol until the stream ends.
func (c *HTTPClient) readEvents(ctx context.Context, collection string, body io.ReadCloser, out chan<- Delta) {
	defer close(out)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventType string
	var data strings.Builder

	flush := func() {
		defer func() {
			eventType = ""
			data.Reset()
		}()
		et := EventType(eventType)
		if et != EventInsert && et != EventUpdate && et != EventDelete {
			return
		}
		var payload struct {
			New record.Fields `json:"new"`
			Old record.Fields `json:"old"`
		}
		if err := json.Unmarshal([]byte(data.String()), &payload); err != nil {
			c.logger.Warn("dropping malformed delta", "collection", collection, "error", err)
			return
		}
		d := Delta{Collection: collection, Type: et, New: payload.New, Old: payload.Old}
		select {
		case out <- d:
		case <-ctx.Done():
		}
	}

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		switch {
		case line == "":
			if eventType != "" || data.Len() > 0 {
				flush()
			}
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
		// Comment lines (":") and unknown fields are ignored.
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		c.logger.Warn("change subscription dropped", "collection", collection, "error", err)
	}
}

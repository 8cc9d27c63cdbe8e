package advice

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"TokenWatch/internal/domain/models"
	whttp "TokenWatch/pkg/http"
)

// ErrNotConfigured is returned when no upstream advice provider is set.
var ErrNotConfigured = errors.New("advice provider not configured")

// Client proxies advice requests to an upstream LLM-backed provider. The
// upstream response body is passed through untouched.
type Client struct {
	http   *whttp.Client
	url    string
	apiKey string
}

func New(url, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:   whttp.NewClient(whttp.WithTimeout(timeout)),
		url:    url,
		apiKey: apiKey,
	}
}

// Enabled reports whether an upstream is configured.
func (c *Client) Enabled() bool { return c.url != "" }

// Ask forwards the request upstream and returns the raw JSON response.
func (c *Client) Ask(ctx context.Context, req models.AdviceRequest) (json.RawMessage, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	var raw []byte
	err := c.http.SendAndParse(ctx, &whttp.RequestOptions{
		Method:  whttp.MethodPost,
		URL:     c.url,
		Headers: headers,
		Body:    req,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

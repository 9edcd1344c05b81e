package http

import (
	"fmt"
	"net/http"
	"time"

	"Muse_MCP/pkg/circuitbreaker"
)

// DefaultTimeout bounds every outbound call to the media backend. The
// video poll loop supplies its own budget on top of this per-call limit.
const DefaultTimeout = 30 * time.Second

// Client is a custom HTTP client that wraps the standard http.Client
// and provides built-in support for circuit breaking.
type Client struct {
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
}

// NewClient creates a new Client. A nil breaker disables circuit breaking
// and the client degrades to a plain timeout-bounded http.Client.
func NewClient(breaker *circuitbreaker.Breaker) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		breaker:    breaker,
	}
}

// Do executes an HTTP request with circuit breaker protection.
// It considers status codes >= 500 as failures.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}

	var resp *http.Response

	breakerErr := c.breaker.Do(func() error {
		var err error
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return err
		}

		// Treat server-side errors as failures for the circuit breaker
		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			return fmt.Errorf("server error: received status code %d", resp.StatusCode)
		}

		return nil
	})

	if breakerErr != nil {
		// If the breaker is open, return that specific error.
		// Otherwise, the error is the actual error from the http call or the status code check.
		return nil, breakerErr
	}

	return resp, nil
}

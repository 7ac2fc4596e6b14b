package sink

import (
	"io"
	"net/http"
	"time"
)

// HTTPClient is the part of *http.Client the publisher needs.
type HTTPClient interface {
	Post(url, contentType string, body io.Reader) (*http.Response, error)
}

// StandardClient wraps *http.Client to implement HTTPClient.
type StandardClient struct {
	*http.Client
}

// NewStandardClient wraps c, or a client with a five second timeout when c
// is nil.
func NewStandardClient(c *http.Client) *StandardClient {
	if c == nil {
		c = &http.Client{Timeout: 5 * time.Second}
	}
	return &StandardClient{Client: c}
}

// Post issues a POST request.
func (c *StandardClient) Post(url, contentType string, body io.Reader) (*http.Response, error) {
	return c.Client.Post(url, contentType, body)
}

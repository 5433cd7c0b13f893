package imageman

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/wb-go/wbf/retry"
)

// Retry covers transient transport failures only. Classified HTTP errors
// never re-enter this loop - a 400 is not transient.
var retryStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    500 * time.Millisecond,
	Backoff:  2,
}

const retryJitter = 250 * time.Millisecond

// Connection is the decorated transport: the interceptor chain threaded
// around an http.Client, exposing verb methods against the configured
// base URL. Safe for concurrent use.
type Connection struct {
	baseURL *url.URL
	send    Sender
}

// NewConnection composes the interceptor chain (identification,
// authentication, request id, error classification) around the given
// transport. A nil transport gets a default http.Client.
func NewConnection(cfg Config, transport *http.Client) (*Connection, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if transport == nil {
		transport = &http.Client{Timeout: 30 * time.Second}
	}

	baseURL, err := url.Parse(cfg.DomainURL)
	if err != nil {
		return nil, fmt.Errorf("parsing domain url: %w", err)
	}
	host := baseURL.Host

	send := chain(
		retryingSender(transport),
		identification(),
		authentication(cfg, host),
		requestID(),
		classification(host),
	)

	return &Connection{baseURL: baseURL, send: send}, nil
}

// retryingSender replays the exchange on network failures. HTTP
// responses of any status end the loop - classification decides their
// fate further up the chain.
func retryingSender(client *http.Client) Sender {
	return func(req *http.Request) (*http.Response, error) {
		var resp *http.Response
		err := retry.Do(func() error {
			attempt := req
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return err
				}
				attempt = req.Clone(req.Context())
				attempt.Body = body
			}

			var err error
			resp, err = client.Do(attempt)
			if err != nil {
				// spread concurrent retries a little
				time.Sleep(time.Duration(rand.Int63n(int64(retryJitter))))
				return err
			}
			return nil
		}, retryStrategy)
		if err != nil {
			return nil, fmt.Errorf("request to %s failed: %w", req.URL, err)
		}
		return resp, nil
	}
}

// Response is one completed, fully-buffered exchange.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// DecodeJSON unmarshals the response body into v.
func (r *Response) DecodeJSON(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// Get issues a GET against the service path.
func (c *Connection) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, c.baseURL.JoinPath(path).String(), nil, "")
}

// Post issues a POST with a JSON body against the service path.
func (c *Connection) Post(ctx context.Context, path string, body any) (*Response, error) {
	raw, err := encodeJSON(body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, c.baseURL.JoinPath(path).String(), raw, "application/json")
}

// Put issues a PUT with a JSON body against the service path.
func (c *Connection) Put(ctx context.Context, path string, body any) (*Response, error) {
	raw, err := encodeJSON(body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPut, c.baseURL.JoinPath(path).String(), raw, "application/json")
}

// Delete issues a DELETE against the service path.
func (c *Connection) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, c.baseURL.JoinPath(path).String(), nil, "")
}

// PostRaw issues a POST with a prebuilt body to an absolute URL - the
// presigned-upload path, which bypasses the base URL but still runs the
// full interceptor chain (so the auth header gets stripped off-domain).
func (c *Connection) PostRaw(ctx context.Context, rawURL string, body []byte, contentType string) (*Response, error) {
	return c.do(ctx, http.MethodPost, rawURL, body, contentType)
}

func (c *Connection) do(ctx context.Context, method, rawURL string, body []byte, contentType string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, rawURL, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

func encodeJSON(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	return raw, nil
}

package imageman

import (
	"net/http"
)

// Client is the entry point to the imageman API. Construct it once and
// share it: the client is safe for concurrent use, though a single Image
// obtained from it is not safe for concurrent mutation.
type Client struct {
	cfg  Config
	conn *Connection
}

// New builds a client with a default HTTP transport.
func New(cfg Config) (*Client, error) {
	return NewWithTransport(cfg, nil)
}

// NewWithTransport builds a client around the given http.Client. The
// transport keeps ownership of timeouts and connection pooling; the
// client adds the interceptor chain and retry policy on top.
func NewWithTransport(cfg Config, transport *http.Client) (*Client, error) {
	conn, err := NewConnection(cfg, transport)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, conn: conn}, nil
}

// NewReference builds a content reference under this client's
// configuration.
func (c *Client) NewReference(name, source string, opts map[string]string) *Reference {
	return NewReference(c.cfg, name, source, opts)
}

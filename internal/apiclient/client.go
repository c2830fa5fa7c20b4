// Package apiclient is the web client's only gateway to the Apex Kudos REST
// backend.
//
// Every request goes through one http.Client whose transport reads the
// session store and, when a token is present, adds
//
//	Authorization: Bearer <token>
//
// When the store is empty the header is omitted entirely. The client never
// checks balances or roles itself; the backend decides and the client reports
// what it said.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/apexkudos/kudos/internal/session"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// Client calls the backend on behalf of one session.
type Client struct {
	baseURL *url.URL
	base    http.RoundTripper
	timeout time.Duration
	session session.Store
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithTransport replaces the underlying RoundTripper (default
// http.DefaultTransport). The session transport still wraps it.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a Client for the backend at baseURL using store for the token.
func New(baseURL string, store session.Store, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid base URL %q", baseURL)
	}
	if store == nil {
		store = session.NewMemory()
	}

	c := &Client{
		baseURL: u,
		base:    http.DefaultTransport,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c.WithSession(store), nil
}

// WithSession returns a copy of c bound to store. The web client calls it
// once per browser request with that request's cookie store.
func (c *Client) WithSession(store session.Store) *Client {
	cp := *c
	cp.session = store
	cp.http = &http.Client{
		Timeout:   c.timeout,
		Transport: &sessionTransport{base: c.base, store: store},
	}
	return &cp
}

// Session returns the store this client reads its token from.
func (c *Client) Session() session.Store {
	return c.session
}

// sessionTransport attaches the session token to outgoing requests.
type sessionTransport struct {
	base  http.RoundTripper
	store session.Store
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, ok := t.store.Get()
	if !ok {
		return t.base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	r2 := req.Clone(req.Context())
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(r2)
	return t.base.RoundTrip(r2)
}

// endpoint resolves a backend path plus optional query.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// doJSON sends body (if non-nil) as JSON and decodes a 2xx response into out
// (if non-nil). Non-2xx responses become *Error.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: encoding %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), rdr)
	if err != nil {
		return fmt.Errorf("apiclient: building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("apiclient: decoding %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, strconv.FormatInt(id, 10))
}

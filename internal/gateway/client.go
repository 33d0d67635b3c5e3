// Package gateway is the single egress point for all backend calls. It
// owns the session cookies, the 401 refresh-and-retry policy, and uniform
// error surfacing, so the stores above it never touch transport concerns.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ragline/ragline/internal/logging"
)

// Notifier surfaces a user-visible message for a failed call, the terminal
// analog of an error toast. It fires exactly once per failed request.
type Notifier interface {
	Notify(message string)
}

// Navigator abstracts the full-page navigations the web client performs,
// so tests can substitute a recorder for real side effects.
type Navigator interface {
	// OpenURL hands control to an external destination (the OAuth
	// authorization page in a browser).
	OpenURL(url string) error
	// ToLogin surfaces the login view after an unrecoverable auth failure.
	ToLogin()
	// ToHome surfaces the home view, used after logout.
	ToHome()
}

// CookieStore persists session cookies across process restarts.
type CookieStore interface {
	LoadCookies() ([]*http.Cookie, error)
	SaveCookies([]*http.Cookie) error
	ClearCookies() error
}

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

const genericErrorMessage = "An error occurred"

// sessionJar is a cookie jar whose contents can be dropped atomically
// while requests are in flight. http.Client reads its Jar field without
// synchronization, so the jar itself stays in place and only the inner
// jar is swapped, under the lock both accessors take.
type sessionJar struct {
	mu    sync.Mutex
	inner http.CookieJar
}

func newSessionJar() (*sessionJar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &sessionJar{inner: inner}, nil
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner.SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// reset drops all cookies. cookiejar has no delete, so swap in a fresh
// inner jar.
func (j *sessionJar) reset() {
	fresh, err := cookiejar.New(nil)
	if err != nil {
		return
	}
	j.mu.Lock()
	j.inner = fresh
	j.mu.Unlock()
}

// Client calls the backend over HTTP. Credentials ride on the cookie jar,
// never attached per call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	jar        *sessionJar
	apiURL     *url.URL
	cookies    CookieStore
	notifier   Notifier
	navigator  Navigator
}

// Option configures a Client.
type Option func(*Client)

// WithNotifier sets the error-surface sink.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithNavigator sets the navigation capability.
func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.navigator = n }
}

// WithCookieStore persists the jar through the given store and preloads
// any previously saved cookies.
func WithCookieStore(s CookieStore) Option {
	return func(c *Client) { c.cookies = s }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient constructs a backend client rooted at baseURL (prefix
// included, e.g. http://localhost:8000/api/v1).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(baseURL, "/")
	apiURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("gateway: parse base url: %w", err)
	}
	jar, err := newSessionJar()
	if err != nil {
		return nil, fmt.Errorf("gateway: cookie jar: %w", err)
	}
	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Jar: jar, Timeout: 90 * time.Second},
		jar:        jar,
		apiURL:     apiURL,
		notifier:   nopNotifier{},
		navigator:  nopNavigator{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cookies != nil {
		saved, err := c.cookies.LoadCookies()
		if err != nil {
			logging.Logger().Warn("gateway: load saved cookies", "error", err)
		} else if len(saved) > 0 {
			c.jar.SetCookies(c.apiURL, saved)
		}
	}
	return c, nil
}

// Navigator returns the client's navigation capability, shared with the
// session store so both perform redirects the same way.
func (c *Client) Navigator() Navigator {
	return c.navigator
}

// ClearSession drops session cookies from the jar and from durable
// storage. Logout calls this unconditionally; safe against concurrent
// requests.
func (c *Client) ClearSession() {
	c.jar.reset()
	if c.cookies != nil {
		if err := c.cookies.ClearCookies(); err != nil {
			logging.Logger().Warn("gateway: clear saved cookies", "error", err)
		}
	}
}

// request is one logical backend call. The retried flag lives here so a
// replayed request is never retried a second time.
type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	retried bool
}

// do executes a request, transparently refreshing the session once on a
// 401 and replaying the original request. The http.Request is rebuilt per
// attempt so bodies replay safely. Any other >=400 status surfaces a
// notification built from the server detail message, then returns an
// *APIError; callers still receive the error and may layer their own
// handling on top.
func (c *Client) do(ctx context.Context, req *request, out any) error {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("gateway: %s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if req.retried {
			// Second consecutive 401: the session is gone for good.
			c.navigator.ToLogin()
			return &APIError{Status: resp.StatusCode, Message: "session expired"}
		}
		req.retried = true
		if err := c.Refresh(ctx); err != nil {
			c.navigator.ToLogin()
			return fmt.Errorf("gateway: session refresh: %w", err)
		}
		return c.do(ctx, req, out)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: decodeDetail(resp)}
		c.notifier.Notify(apiErr.Message)
		return apiErr
	}

	c.persistCookies()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gateway: decode %s %s: %w", req.method, req.path, err)
	}
	return nil
}

func (c *Client) build(ctx context.Context, req *request) (*http.Request, error) {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	var body *bytes.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("gateway: encode %s %s: %w", req.method, req.path, err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("gateway: %s %s: %w", req.method, req.path, err)
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	return httpReq, nil
}

// decodeDetail extracts the backend's detail message, falling back to a
// generic one.
func decodeDetail(resp *http.Response) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return genericErrorMessage
}

func (c *Client) persistCookies() {
	if c.cookies == nil {
		return
	}
	if err := c.cookies.SaveCookies(c.jar.Cookies(c.apiURL)); err != nil {
		logging.Logger().Warn("gateway: save cookies", "error", err)
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}

type nopNavigator struct{}

func (nopNavigator) OpenURL(string) error { return nil }
func (nopNavigator) ToLogin()             {}
func (nopNavigator) ToHome()              {}

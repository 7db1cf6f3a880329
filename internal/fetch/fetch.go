// Package fetch issues single JSON requests against the trading backend and
// maps failures into a typed taxonomy. It is the only place that talks HTTP
// to the backend: bearer tokens and rate limiting live here, and an
// authentication rejection triggers the process-wide session-expired
// transition.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Failure taxonomy. Every error returned by Client.Do wraps exactly one of
// these, so callers can branch with errors.Is / errors.As.
var (
	// ErrNetwork means no HTTP response was received at all.
	ErrNetwork = errors.New("network unreachable")

	// ErrMalformed means a response arrived but its payload did not decode
	// into the expected shape.
	ErrMalformed = errors.New("malformed payload")

	// ErrAuthExpired means the backend rejected the credentials (401/403).
	// It is handled globally via the session's Expire transition and never
	// reaches individual widgets as a displayable state.
	ErrAuthExpired = errors.New("auth expired")
)

// HTTPError is returned for any non-auth 4xx/5xx response.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http status %d", e.Status)
}

// Descriptor identifies one backend request.
type Descriptor struct {
	Method string
	Path   string
	Query  url.Values
	Body   any // JSON-encoded when non-nil
}

// Session is the slice of the session store the client needs: the token read
// at call time and the expiry transition.
type Session interface {
	Token() string
	Expire()
}

// Client issues requests against a single backend base URL with a shared
// client-side rate limit.
type Client struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
	session Session
	log     *slog.Logger
}

// NewClient creates a Client for the given base URL. perSec bounds the total
// request rate across all widgets (0 disables the limiter), timeout bounds a
// single request.
func NewClient(baseURL string, timeout time.Duration, perSec float64, burst int, sess Session, log *slog.Logger) *Client {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if perSec > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		session: sess,
		log:     log,
	}
}

// Do performs the described request and returns the raw response body. The
// returned error, when non-nil, wraps one of the taxonomy sentinels or is an
// *HTTPError.
func (c *Client) Do(ctx context.Context, d Descriptor) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := c.base + d.Path
	if len(d.Query) > 0 {
		u += "?" + d.Query.Encode()
	}

	var body io.Reader
	if d.Body != nil {
		b, err := json.Marshal(d.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	method := d.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if d.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// Token is read at call time, never cached across requests.
	if tok := c.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", method, d.Path, ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.log.Warn("backend rejected credentials", "path", d.Path, "status", resp.StatusCode)
		c.session.Expire()
		return nil, fmt.Errorf("%s %s: %w", method, d.Path, ErrAuthExpired)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s %s: %w", method, d.Path, &HTTPError{Status: resp.StatusCode})
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading body: %w", method, d.Path, ErrNetwork)
	}
	return raw, nil
}

// GetJSON performs the request and decodes the response into out. Decode
// failures are reported as ErrMalformed.
func (c *Client) GetJSON(ctx context.Context, d Descriptor, out any) error {
	raw, err := c.Do(ctx, d)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: %w: %w", d.Method, d.Path, ErrMalformed, err)
	}
	return nil
}

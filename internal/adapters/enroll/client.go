// Package enroll posts captured frames to the remote enrollment endpoint
package enroll

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	perr "enrollcam/internal/platform/errors"
	"enrollcam/internal/platform/logger"
	dom "enrollcam/internal/services/capture/domain"
)

const (
	defaultTimeout = 30 * time.Second
	defaultUA      = "enrollcam"
	enrollPath     = "/employees/enroll-face"
	maxBody        = 1 << 20
)

// ErrSessionExpired is returned when the server forces a logout
var ErrSessionExpired = perr.New(perr.ErrorCodeUnauthorized, "Session expired. Please login again.")

// Options configures the Client
type Options struct {
	BaseURL   string
	Token     string
	UserAgent string
	Timeout   time.Duration
}

// Client submits enrollments; it never retries
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
	now  func() time.Time
}

var _ dom.Submitter = (*Client)(nil)

// NewClient creates a Client with defaults applied
func NewClient(o Options) *Client {
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("enroll"),
		now:  time.Now,
	}
}

// reply is the union of success and error bodies the endpoint returns
type reply struct {
	dom.Result
	Error       string `json:"error"`
	Detail      string `json:"detail"`
	ForceLogout bool   `json:"forceLogout"`
}

// Submit posts p and decodes the answer
// Transport failures, timeouts, non 2xx answers and success=false all come back as submission errors
func (c *Client) Submit(ctx context.Context, p dom.EnrollmentPayload) (dom.Result, error) {
	if c.opts.BaseURL == "" {
		return dom.Result{}, perr.Unavailablef("enrollment endpoint not configured")
	}
	body, err := json.Marshal(p)
	if err != nil {
		return dom.Result{}, perr.Wrap(err, perr.ErrorCodeJSON, "encode enrollment payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+enrollPath, bytes.NewReader(body))
	if err != nil {
		return dom.Result{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "enroll new request failed")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return dom.Result{}, perr.Wrapf(err, perr.ErrorCodeSubmission, "enrollment request timed out: %s", transportCause(err))
		}
		return dom.Result{}, perr.Wrapf(err, perr.ErrorCodeSubmission, "enrollment request failed: %s", transportCause(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return dom.Result{}, perr.Wrap(err, perr.ErrorCodeSubmission, "enrollment response could not be read")
	}
	var out reply
	decodeErr := json.Unmarshal(raw, &out)

	c.log.Debug().
		Str("subject", p.SubjectID).
		Int("images", len(p.Images)).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Bool("success", out.Success).
		Msg("enroll http response")

	if resp.StatusCode == http.StatusUnauthorized && out.ForceLogout {
		return dom.Result{}, ErrSessionExpired
	}
	if decodeErr != nil {
		return dom.Result{}, perr.Newf(perr.ErrorCodeSubmission, "enrollment failed with status %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !out.Success {
		return dom.Result{}, perr.New(perr.ErrorCodeSubmission, out.message())
	}
	return out.Result, nil
}

func (r reply) message() string {
	for _, m := range []string{r.Message, r.Error, r.Detail} {
		if m != "" {
			return m
		}
	}
	return "Enrollment failed"
}

// transportCause drops the "Post <url>" prefix net/http puts on transport errors
func transportCause(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err.Error()
	}
	return err.Error()
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mangiee/restaurant-cli/internal/debug"
)

const (
	// DefaultTimeout bounds every JSON request. Other components rely on
	// this exact value.
	DefaultTimeout = 10 * time.Second
	// DefaultUploadTimeout bounds multipart uploads, which carry images and
	// documents and need more headroom than JSON calls.
	DefaultUploadTimeout = 60 * time.Second
)

// maxResponseSize caps how much of a response body is read (10MB).
const maxResponseSize = 10 * 1024 * 1024

var errRequestTimeout = errors.New("request deadline exceeded")

// Observer receives one notification per completed request.
type Observer interface {
	ObserveRequest(method string, status int, elapsed time.Duration, err error)
}

// Client executes requests against the restaurant API. It holds no session
// state: every call receives the bearer token explicitly.
type Client struct {
	Endpoints     Endpoints
	HTTP          *http.Client
	UserAgent     string
	Timeout       time.Duration
	UploadTimeout time.Duration
	Observer      Observer
	RequestIDFunc func() string
}

// Compile-time interface implementation checks
var (
	_ Requester        = (*Client)(nil)
	_ EndpointResolver = (*Client)(nil)
	_ HTTPExecutor     = (*Client)(nil)
)

// New creates a client for the given API origin.
func New(baseURL string) *Client {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12

	return &Client{
		Endpoints:     NewEndpoints(baseURL),
		HTTP:          &http.Client{Transport: transport},
		Timeout:       DefaultTimeout,
		UploadTimeout: DefaultUploadTimeout,
		RequestIDFunc: uuid.NewString,
	}
}

func (c *Client) endpoints() Endpoints {
	return c.Endpoints
}

// Get performs a GET request and decodes the envelope into result.
func (c *Client) Get(ctx context.Context, url, token string, result any) error {
	return c.do(ctx, http.MethodGet, url, token, nil, result)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, url, token string, body any, result any) error {
	return c.do(ctx, http.MethodPost, url, token, body, result)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, url, token string, body any, result any) error {
	return c.do(ctx, http.MethodPut, url, token, body, result)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, url, token string, result any) error {
	return c.do(ctx, http.MethodDelete, url, token, nil, result)
}

// DeleteWithBody performs a DELETE request carrying a JSON body.
func (c *Client) DeleteWithBody(ctx context.Context, url, token string, body any, result any) error {
	return c.do(ctx, http.MethodDelete, url, token, body, result)
}

// PostFormData performs a multipart POST. File parts are streamed from disk
// while the request is written.
func (c *Client) PostFormData(ctx context.Context, url, token string, form *Form, result any) error {
	return c.doForm(ctx, http.MethodPost, url, token, form, result)
}

func (c *Client) do(ctx context.Context, method, url, token string, body any, result any) error {
	var reader io.Reader
	contentType := "application/json"
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindUnknown, Message: fmt.Sprintf("failed to encode request: %v", err), Err: err}
		}
		reader = bytes.NewReader(payload)
	}
	return c.send(ctx, method, url, token, reader, contentType, c.timeout(), result)
}

func (c *Client) doForm(ctx context.Context, method, url, token string, form *Form, result any) error {
	if form == nil {
		form = NewForm()
	}
	body, contentType := form.Encode()
	defer func() { _ = body.Close() }()
	return c.send(ctx, method, url, token, body, contentType, c.uploadTimeout(), result)
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c *Client) uploadTimeout() time.Duration {
	if c.UploadTimeout > 0 {
		return c.UploadTimeout
	}
	return DefaultUploadTimeout
}

func (c *Client) newRequestID() string {
	if c.RequestIDFunc != nil {
		return c.RequestIDFunc()
	}
	return ""
}

// send performs exactly one attempt. Every failure leaves as *Error.
func (c *Client) send(ctx context.Context, method, rawURL, token string, body io.Reader, contentType string, timeout time.Duration, result any) error {
	parent := ctx
	ctx, cancel := context.WithTimeoutCause(parent, timeout, errRequestTimeout)
	defer cancel()

	requestID := c.newRequestID()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return c.finish(ctx, method, rawURL, start, 0, &Error{
			Kind:      KindTransport,
			Message:   transportMessage(err),
			RequestID: requestID,
			Err:       err,
		})
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return c.finish(ctx, method, rawURL, start, 0, classifyTransport(parent, ctx, err, requestID))
	}
	defer func() { _ = resp.Body.Close() }()

	if id := requestIDFromHeader(resp.Header); id != "" {
		requestID = id
	}

	respBody, err := readBody(resp)
	if err != nil {
		return c.finish(ctx, method, rawURL, start, resp.StatusCode, classifyTransport(parent, ctx, err, requestID))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &env)
		return c.finish(ctx, method, rawURL, start, resp.StatusCode, newHTTPError(resp.StatusCode, statusReason(resp), env.Message, requestID))
	}

	if result != nil && (resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0) {
		// No body means nothing was refused: report it as an empty success.
		respBody = []byte(`{"success":true}`)
	}
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return c.finish(ctx, method, rawURL, start, resp.StatusCode, &Error{
				Kind:       KindDecode,
				StatusCode: resp.StatusCode,
				Message:    MsgBadResponse,
				RequestID:  requestID,
				Err:        err,
			})
		}
	}
	return c.finish(ctx, method, rawURL, start, resp.StatusCode, nil)
}

// statusReason is the reason phrase the server sent, e.g. "Bad Gateway".
func statusReason(resp *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}

func (c *Client) finish(ctx context.Context, method, rawURL string, start time.Time, status int, err *Error) error {
	elapsed := time.Since(start)
	var result error
	if err != nil {
		result = err
	}
	if c.Observer != nil {
		c.Observer.ObserveRequest(method, status, elapsed, result)
	}
	if debug.IsEnabled(ctx) {
		if err != nil {
			slog.Debug("request failed", "method", method, "url", rawURL, "status", status, "kind", err.Kind.String(), "request_id", err.RequestID, "duration", elapsed, "error", err.Message)
		} else {
			slog.Debug("request complete", "method", method, "url", rawURL, "status", status, "duration", elapsed)
		}
	}
	return result
}

func readBody(resp *http.Response) ([]byte, error) {
	if resp.ContentLength > maxResponseSize {
		return nil, fmt.Errorf("response too large: %d bytes exceeds %d", resp.ContentLength, maxResponseSize)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxResponseSize {
		return nil, fmt.Errorf("response exceeds maximum allowed size of %d bytes", maxResponseSize)
	}
	return data, nil
}

// classifyTransport separates our own deadline, the caller's cancellation and
// genuine network failures.
func classifyTransport(parent, ctx context.Context, err error, requestID string) *Error {
	if errors.Is(context.Cause(ctx), errRequestTimeout) {
		return &Error{Kind: KindTimeout, Message: MsgTimeout, RequestID: requestID, Err: err}
	}
	if perr := parent.Err(); perr != nil {
		if errors.Is(perr, context.DeadlineExceeded) {
			return &Error{Kind: KindTimeout, Message: MsgTimeout, RequestID: requestID, Err: err}
		}
		return &Error{Kind: KindCanceled, Message: MsgCanceled, RequestID: requestID, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: MsgTimeout, RequestID: requestID, Err: err}
	}
	return &Error{Kind: KindTransport, Message: transportMessage(err), RequestID: requestID, Err: err}
}

// transportMessage drops the "Get \"url\":" prefix net/http adds.
func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

func requestIDFromHeader(header http.Header) string {
	if header == nil {
		return ""
	}
	return header.Get("X-Request-Id")
}

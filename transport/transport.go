// Package transport executes single HTTP requests against the gateway.
//
// The transport owns body encoding (form for grant calls, JSON with
// optional key-case rewriting for everything else), default headers, the
// per-call timeout and the raw non-2xx failure. It never classifies errors
// and never retries; both belong to the caller.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paygate-sdk/errors"
	"paygate-sdk/internal/utils"
	"paygate-sdk/keycase"
	"paygate-sdk/logging"
)

// Version identifies the SDK build in the User-Agent header
const Version = "1.0.0"

const defaultUserAgent = "paygate-sdk-go/" + Version

// Options configures a transport Client. The zero value gets sane defaults.
type Options struct {
	// Timeout is the default per-request timeout
	Timeout time.Duration
	// TransformRequest enables camelCase->snake_case rewriting of JSON bodies
	TransformRequest bool
	// TransformResponse enables snake_case->camelCase rewriting of JSON responses
	TransformResponse bool
	// UserAgent overrides the default SDK User-Agent
	UserAgent string
	// HTTPClient overrides the underlying client, mainly for tests
	HTTPClient *http.Client
	// Logger receives per-request debug logs
	Logger logging.Logger
}

// Client is an immutable request executor. Configuration updates build a
// new Client rather than mutating an existing one.
type Client struct {
	httpClient        *http.Client
	timeout           time.Duration
	transformRequest  bool
	transformResponse bool
	userAgent         string
	logger            logging.Logger
}

// Request describes one HTTP call.
type Request struct {
	Method  string
	BaseURL string
	Path    string
	// Query entries with empty values are not serialized
	Query map[string]string
	// Headers are merged over the defaults; caller entries win
	Headers map[string]string
	// Body is JSON-encoded; mutually exclusive with Form
	Body interface{}
	// Form is form-urlencoded; used by the OAuth grant calls
	Form url.Values
	// Timeout overrides the client default for this call when non-zero
	Timeout time.Duration
}

// Response is a decoded HTTP response.
type Response struct {
	Status     int
	StatusText string
	Headers    http.Header
	// Body is the parsed (and possibly key-transformed) JSON value, or the
	// raw text for non-JSON content
	Body      interface{}
	RawBody   []byte
	RequestID string
	Duration  time.Duration
}

// Decode re-marshals the parsed response body into a typed value. With
// response transformation enabled the body keys are camelCase, matching the
// SDK's DTO tags.
func (r *Response) Decode(out interface{}) error {
	if r.Body == nil {
		return nil
	}
	data, err := json.Marshal(r.Body)
	if err != nil {
		return fmt.Errorf("re-encode response body: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// New creates a transport client.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &Client{
		httpClient:        httpClient,
		timeout:           timeout,
		transformRequest:  opts.TransformRequest,
		transformResponse: opts.TransformResponse,
		userAgent:         userAgent,
		logger:            logger,
	}
}

// Do executes one HTTP request. Non-2xx statuses return an
// *errors.HTTPFailure carrying the status and the raw decoded body; a
// deadline expiry surfaces as a timeout-wrapped error distinct from other
// network failures.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fullURL, err := c.buildURL(req)
	if err != nil {
		return nil, err
	}

	body, contentType, err := c.encodeBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestID := utils.RequestID()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-Id", requestID)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("request timed out after %s: %w", timeout, err)
		}
		return nil, err
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if id := httpResp.Header.Get("X-Request-Id"); id != "" {
		requestID = id
	}

	c.logger.Debug("request completed",
		logging.Field{Key: "method", Value: req.Method},
		logging.Field{Key: "path", Value: req.Path},
		logging.Field{Key: "status", Value: httpResp.StatusCode},
		logging.Field{Key: "duration", Value: duration},
		logging.Field{Key: "request_id", Value: requestID})

	parsed := c.parseBody(httpResp.Header.Get("Content-Type"), rawBody)

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &errors.HTTPFailure{
			Status:     httpResp.StatusCode,
			StatusText: http.StatusText(httpResp.StatusCode),
			Body:       parsed,
			RawBody:    rawBody,
			RequestID:  requestID,
		}
	}

	if c.transformResponse {
		if _, isText := parsed.(string); !isText {
			parsed = keycase.KeysToCamel(parsed)
		}
	}

	return &Response{
		Status:     httpResp.StatusCode,
		StatusText: http.StatusText(httpResp.StatusCode),
		Headers:    httpResp.Header,
		Body:       parsed,
		RawBody:    rawBody,
		RequestID:  requestID,
		Duration:   duration,
	}, nil
}

func (c *Client) buildURL(req Request) (string, error) {
	base := strings.TrimSuffix(req.BaseURL, "/")
	path := req.Path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u, err := url.Parse(base + path)
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}

	if len(req.Query) > 0 {
		q := u.Query()
		for key, value := range req.Query {
			if value == "" {
				continue
			}
			q.Set(key, value)
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// encodeBody returns the request body reader and its content type. Form
// bodies are urlencoded (grant calls); everything else is JSON, run through
// the key transformer when enabled.
func (c *Client) encodeBody(req Request) (io.Reader, string, error) {
	if req.Form != nil {
		return strings.NewReader(req.Form.Encode()), "application/x-www-form-urlencoded", nil
	}

	if req.Body == nil {
		return nil, "", nil
	}

	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encode request body: %w", err)
	}

	if c.transformRequest {
		var decoded interface{}
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil, "", fmt.Errorf("re-decode request body: %w", err)
		}
		data, err = json.Marshal(keycase.KeysToSnake(decoded))
		if err != nil {
			return nil, "", fmt.Errorf("re-encode request body: %w", err)
		}
	}

	return bytes.NewReader(data), "application/json", nil
}

// parseBody decodes JSON content; anything else comes back as raw text.
func (c *Client) parseBody(contentType string, raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}

	if strings.Contains(contentType, "application/json") {
		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err == nil {
			return decoded
		}
	}

	return string(raw)
}

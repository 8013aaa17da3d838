package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the production request/response endpoint.
	DefaultBaseURL = "https://api.dianya.ai/v1"
	// DefaultWSBaseURL is the production realtime streaming endpoint.
	DefaultWSBaseURL = "wss://api.dianya.ai/v1"

	defaultHTTPTimeout = 30 * time.Second
)

// Config configures a Client. Zero values fall back to production defaults.
type Config struct {
	BaseURL    string
	WSBaseURL  string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *Metrics
}

// Client talks to the transcription service. It is safe for concurrent use;
// it holds no per-session state and tokens are passed per call.
type Client struct {
	baseURL   string
	wsBaseURL string
	hc        *http.Client
	log       *slog.Logger
	metrics   *Metrics
	clock     clock
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.WSBaseURL == "" {
		cfg.WSBaseURL = DefaultWSBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{
			Timeout: defaultHTTPTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		wsBaseURL: strings.TrimSuffix(cfg.WSBaseURL, "/"),
		hc:        cfg.HTTPClient,
		log:       cfg.Logger,
		metrics:   cfg.Metrics,
		clock:     realClock{},
	}
}

// envelope is the common response wrapper. A nonzero error_code is a
// server-reported business error; data carries the operation payload.
type envelope struct {
	ErrorCode int             `json:"error_code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

type callResult struct {
	status      int
	contentType string
	body        []byte
}

// call performs one HTTP request. It fails with a network error only when the
// request does not complete; any completed response is returned raw for the
// caller to interpret, non-2xx included.
func (c *Client) call(ctx context.Context, method, path, token string, body io.Reader, contentType string) (*callResult, *Error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, unexpectedError("build request %s %s: %v", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", bearer(token))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, contextError(ctx.Err())
		}
		return nil, networkError("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError("read response for %s %s: %v", method, path, err)
	}

	return &callResult{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        data,
	}, nil
}

// callEnveloped performs a request and decodes the envelope, converting a
// nonzero error_code into an API error.
func (c *Client) callEnveloped(ctx context.Context, method, path, token string, body any) (*envelope, *Error) {
	var reader io.Reader
	contentType := ""
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, unexpectedError("encode request body: %v", err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}

	metricPath := path
	if i := strings.Index(metricPath, "?"); i >= 0 {
		metricPath = metricPath[:i]
	}

	start := c.clock.Now()
	res, callErr := c.call(ctx, method, path, token, reader, contentType)
	if callErr != nil {
		c.metrics.observeRequest(metricPath, "network_error", c.clock.Now().Sub(start))
		return nil, callErr
	}

	var env envelope
	if err := json.Unmarshal(res.body, &env); err != nil {
		c.metrics.observeRequest(metricPath, "json_error", c.clock.Now().Sub(start))
		return nil, jsonError(err)
	}
	if env.ErrorCode != 0 {
		c.metrics.observeRequest(metricPath, "api_error", c.clock.Now().Sub(start))
		return &env, apiError(env.ErrorCode, env.Message)
	}
	c.metrics.observeRequest(metricPath, "ok", c.clock.Now().Sub(start))
	return &env, nil
}

// Do performs one enveloped API request and decodes the payload into out.
// It is the request/response primitive the typed operations are built on and
// is exported so outer layers can reach endpoints this package does not wrap.
func (c *Client) Do(ctx context.Context, method, path, token string, body, out any) error {
	env, err := c.callEnveloped(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 {
		return jsonError(io.ErrUnexpectedEOF)
	}
	if uerr := json.Unmarshal(env.Data, out); uerr != nil {
		return jsonError(uerr)
	}
	return nil
}

// bearer normalizes a caller-supplied token into an Authorization value.
// Tokens that already carry the scheme pass through untouched.
func bearer(token string) string {
	if strings.HasPrefix(token, "Bearer ") {
		return token
	}
	return "Bearer " + token
}

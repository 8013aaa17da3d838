package transcribe

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const (
	// busyErrorCode is the server's signal that a close request arrived while
	// the session was mid-operation. Expected-transient, always retried.
	busyErrorCode = 4

	// closeRetryInterval is the fixed wait between close attempts.
	closeRetryInterval = 2 * time.Second

	// DefaultCloseTimeout bounds the busy-retry loop in wall-clock time.
	DefaultCloseTimeout = 30 * time.Second
)

// closeAttempt tracks one in-progress close-retry sequence. It lives only for
// the duration of a single CloseSession call.
type closeAttempt struct {
	taskID   string
	deadline time.Time
	attempts int
}

// CreateSession starts a realtime transcription session using the given model.
// The returned SessionID binds exactly one Stream at a time.
func (c *Client) CreateSession(ctx context.Context, model Model, token string) (*SessionCreateResult, error) {
	if model == "" {
		model = ModelSpeed
	}

	var out SessionCreateResult
	req := struct {
		Model Model `json:"model"`
	}{Model: model}
	if err := c.Do(ctx, http.MethodPost, "/transcribe/session/create", token, req, &out); err != nil {
		return nil, err
	}

	c.log.Debug("session created",
		"task_id", out.TaskID,
		"session_id", out.SessionID,
		"max_time", out.MaxTime)
	return &out, nil
}

// CloseSession tears down the session behind taskID. The server may report
// busy while the session is mid-operation; busy responses are retried every
// closeRetryInterval until the wall-clock timeout elapses, at which point the
// result carries CloseStatusTimeout. Any other server error and any transport
// failure is terminal on first occurrence. After a CloseStatusClosed result
// the session id must not be reused.
func (c *Client) CloseSession(ctx context.Context, taskID, token string, timeout time.Duration) (*SessionCloseResult, error) {
	if timeout <= 0 {
		timeout = DefaultCloseTimeout
	}

	attempt := closeAttempt{
		taskID:   taskID,
		deadline: c.clock.Now().Add(timeout),
	}

	for {
		attempt.attempts++
		result, busy, err := c.closeSessionOnce(ctx, taskID, token)
		if err != nil {
			return nil, err
		}
		if !busy {
			c.log.Debug("session closed", "task_id", taskID, "attempts", attempt.attempts)
			return result, nil
		}

		c.metrics.incCloseRetry()
		if c.clock.Now().Add(closeRetryInterval).After(attempt.deadline) {
			c.log.Warn("session close timed out while busy",
				"task_id", taskID,
				"attempts", attempt.attempts)
			return &SessionCloseResult{
				Status:    CloseStatusTimeout,
				ErrorCode: busyErrorCode,
				Message:   "session still busy when the close timeout elapsed",
			}, nil
		}

		c.log.Debug("session busy, retrying close",
			"task_id", taskID,
			"attempt", attempt.attempts)
		if serr := c.clock.Sleep(ctx, closeRetryInterval); serr != nil {
			return nil, contextError(serr)
		}
	}
}

// closeSessionOnce issues a single close call. busy is reported separately so
// the retry loop never has to inspect error contents.
func (c *Client) closeSessionOnce(ctx context.Context, taskID, token string) (*SessionCloseResult, bool, *Error) {
	req := struct {
		TaskID string `json:"task_id"`
	}{TaskID: taskID}

	env, err := c.callEnveloped(ctx, http.MethodPost, "/transcribe/session/close", token, req)
	if err != nil {
		if err.Code == KindAPIError && err.ServerCode == busyErrorCode {
			return nil, true, nil
		}
		return nil, false, err
	}

	var out SessionCloseResult
	if len(env.Data) > 0 {
		if uerr := json.Unmarshal(env.Data, &out); uerr != nil {
			return nil, false, jsonError(uerr)
		}
	}
	if out.Status == "" {
		out.Status = CloseStatusClosed
	}
	return &out, false, nil
}

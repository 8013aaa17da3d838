package transcribe

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	f.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func newTestClient(baseURL string) (*Client, *fakeClock) {
	c := New(Config{
		BaseURL: baseURL,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	c.clock = clk
	return c, clk
}

func closeResponse(w http.ResponseWriter, errorCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error_code": errorCode,
		"message":    "ok",
		"data":       data,
	})
}

func TestCreateSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transcribe/session/create" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("unexpected authorization header %q", r.Header.Get("Authorization"))
		}
		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Model != "speed" {
			t.Errorf("unexpected model %q (err %v)", req.Model, err)
		}
		closeResponse(w, 0, map[string]any{
			"task_id":    "task_1",
			"session_id": "sess_1",
			"usage_id":   "usage_1",
			"max_time":   3600,
		})
	}))
	defer server.Close()

	c, _ := newTestClient(server.URL)
	result, err := c.CreateSession(context.Background(), ModelSpeed, "tok")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if result.TaskID != "task_1" || result.SessionID != "sess_1" || result.UsageID != "usage_1" {
		t.Errorf("unexpected identifiers: %+v", result)
	}
	if result.MaxTime != 3600 {
		t.Errorf("expected max_time 3600, got %d", result.MaxTime)
	}
}

func TestCreateSessionServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		closeResponse(w, 2, nil)
	}))
	defer server.Close()

	c, _ := newTestClient(server.URL)
	_, err := c.CreateSession(context.Background(), ModelQuality, "tok")
	if !IsKind(err, KindAPIError) {
		t.Fatalf("expected api_error, got %v", err)
	}
}

func TestCloseSessionBusyThenSuccess(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			closeResponse(w, 4, nil)
			return
		}
		closeResponse(w, 0, map[string]any{"status": "closed", "duration": 42})
	}))
	defer server.Close()

	c, clk := newTestClient(server.URL)
	result, err := c.CloseSession(context.Background(), "task_1", "tok", 5*time.Second)
	if err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if result.Status != CloseStatusClosed {
		t.Errorf("expected status closed, got %q", result.Status)
	}
	if result.Duration != 42 {
		t.Errorf("expected duration 42, got %d", result.Duration)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if len(clk.sleeps) != 2 {
		t.Fatalf("expected 2 backoff waits, got %d", len(clk.sleeps))
	}
	for i, d := range clk.sleeps {
		if d != 2*time.Second {
			t.Errorf("wait %d: expected 2s, got %s", i, d)
		}
	}
}

func TestCloseSessionNonBusyErrorIsTerminal(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		closeResponse(w, 2, nil)
	}))
	defer server.Close()

	c, clk := newTestClient(server.URL)
	_, err := c.CloseSession(context.Background(), "task_1", "tok", 5*time.Second)
	if !IsKind(err, KindAPIError) {
		t.Fatalf("expected api_error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt, got %d", attempts)
	}
	if len(clk.sleeps) != 0 {
		t.Errorf("expected no backoff waits, got %v", clk.sleeps)
	}
}

func TestCloseSessionBusyUntilTimeout(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		closeResponse(w, 4, nil)
	}))
	defer server.Close()

	c, clk := newTestClient(server.URL)
	start := clk.Now()
	result, err := c.CloseSession(context.Background(), "task_1", "tok", 5*time.Second)
	if err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if result.Status != CloseStatusTimeout {
		t.Errorf("expected status timeout, got %q", result.Status)
	}
	if result.ErrorCode != 4 {
		t.Errorf("expected busy error code on timeout result, got %d", result.ErrorCode)
	}
	// attempts at t=0, 2, 4; the next would land past the 5s deadline
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if elapsed := clk.Now().Sub(start); elapsed > 5*time.Second {
		t.Errorf("retry loop overran the deadline: %s", elapsed)
	}
}

func TestCloseSessionTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c, _ := newTestClient(server.URL)
	_, err := c.CloseSession(context.Background(), "task_1", "tok", time.Second)
	if !IsKind(err, KindNetworkError) {
		t.Fatalf("expected network_error, got %v", err)
	}
}

func TestCloseSessionDefaultTimeout(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		closeResponse(w, 4, nil)
	}))
	defer server.Close()

	c, clk := newTestClient(server.URL)
	result, err := c.CloseSession(context.Background(), "task_1", "tok", 0)
	if err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if result.Status != CloseStatusTimeout {
		t.Errorf("expected status timeout, got %q", result.Status)
	}
	// 30s budget at a 2s interval: attempts at t=0, 2, ..., 30
	if attempts != 16 {
		t.Errorf("expected 16 attempts, got %d", attempts)
	}
	if len(clk.sleeps) != 15 {
		t.Errorf("expected 15 waits, got %d", len(clk.sleeps))
	}
}

// Package transcribetest runs an in-process fake of the transcription
// service, covering the request/response endpoints and the realtime
// WebSocket channel. It exists for this module's own tests and for consumers
// who want to exercise their integration without the real service.
package transcribetest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Frame is one recorded inbound frame from the realtime channel.
type Frame struct {
	Binary bool
	Data   []byte
}

type session struct {
	taskID    string
	sessionID string
	usageID   string
	closed    bool
}

// Server is the fake service. Closing behavior is scriptable through
// SetBusyCloses so the close-retry protocol can be driven deterministically.
type Server struct {
	srv *httptest.Server

	mu            sync.Mutex
	busyCloses    int
	closeAttempts int
	sessions      map[string]*session
	tasks         map[string]*session
	frames        []Frame
}

func New() *Server {
	s := &Server{
		sessions: make(map[string]*session),
		tasks:    make(map[string]*session),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(s.requireToken)

	e.POST("/transcribe/session/create", s.handleSessionCreate)
	e.POST("/transcribe/session/close", s.handleSessionClose)
	e.POST("/transcribe/upload", s.handleUpload)
	e.GET("/transcribe/status", s.handleStatus)
	e.POST("/transcribe/callback", s.handleCallback)
	e.POST("/transcribe/share-link", s.handleShareLink)
	e.POST("/transcribe/summary", s.handleSummary)
	e.GET("/transcribe/export", s.handleExport)
	e.GET("/transcribe/realtime", s.handleRealtime)
	e.POST("/translate/text", s.handleTranslateText)
	e.POST("/translate/utterances", s.handleTranslateUtterances)
	e.POST("/translate/transcribe", s.handleTranslateTranscribe)

	s.srv = httptest.NewServer(e)
	return s
}

// URL is the HTTP base URL of the fake service.
func (s *Server) URL() string { return s.srv.URL }

// WSURL is the WebSocket base URL of the fake service.
func (s *Server) WSURL() string { return "ws" + strings.TrimPrefix(s.srv.URL, "http") }

func (s *Server) Close() { s.srv.Close() }

// SetBusyCloses makes the next n close calls answer with the busy signal
// before one succeeds, and resets the attempt counter.
func (s *Server) SetBusyCloses(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busyCloses = n
	s.closeAttempts = 0
}

// CloseAttempts reports how many close calls the server has seen since the
// last SetBusyCloses.
func (s *Server) CloseAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeAttempts
}

// Frames returns a copy of the realtime frames received so far.
func (s *Server) Frames() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

func (s *Server) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get("Authorization") == "" {
			return c.JSON(http.StatusUnauthorized, map[string]any{
				"error_code": 401,
				"message":    "missing bearer token",
			})
		}
		return next(c)
	}
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, map[string]any{
		"error_code": 0,
		"message":    "ok",
		"data":       data,
	})
}

func fail(c echo.Context, code int, message string) error {
	return c.JSON(http.StatusOK, map[string]any{
		"error_code": code,
		"message":    message,
	})
}

func newID(prefix string) string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return prefix + hex.EncodeToString(b)
}

func (s *Server) handleSessionCreate(c echo.Context) error {
	var req struct {
		Model string `json:"model"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, 1, "invalid request body")
	}
	switch req.Model {
	case "speed", "quality", "quality_v2":
	default:
		return fail(c, 2, "unknown model "+req.Model)
	}

	sess := &session{
		taskID:    newID("task_"),
		sessionID: newID("sess_"),
		usageID:   newID("usage_"),
	}
	s.mu.Lock()
	s.sessions[sess.sessionID] = sess
	s.tasks[sess.taskID] = sess
	s.mu.Unlock()

	return ok(c, map[string]any{
		"task_id":    sess.taskID,
		"session_id": sess.sessionID,
		"usage_id":   sess.usageID,
		"max_time":   3600,
	})
}

func (s *Server) handleSessionClose(c echo.Context) error {
	var req struct {
		TaskID string `json:"task_id"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, 1, "invalid request body")
	}

	s.mu.Lock()
	sess, known := s.tasks[req.TaskID]
	s.closeAttempts++
	busy := s.closeAttempts <= s.busyCloses
	if known && !busy {
		sess.closed = true
	}
	s.mu.Unlock()

	if !known {
		return fail(c, 2, "unknown task "+req.TaskID)
	}
	if busy {
		return fail(c, 4, "session busy")
	}
	return ok(c, map[string]any{
		"status":   "closed",
		"duration": 42,
	})
}

func (s *Server) handleUpload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return fail(c, 1, "missing file")
	}
	if file.Size == 0 {
		return fail(c, 1, "empty file")
	}

	if c.FormValue("short_asr") == "true" {
		return ok(c, map[string]any{
			"status":  "success",
			"message": "recognized",
			"data":    "one sentence result",
		})
	}
	return ok(c, map[string]any{
		"task_id": newID("task_"),
	})
}

func (s *Server) handleStatus(c echo.Context) error {
	taskID := c.QueryParam("task_id")
	if taskID == "" && c.QueryParam("share_id") == "" {
		return fail(c, 1, "task_id or share_id required")
	}
	if taskID == "" {
		taskID = newID("task_")
	}

	return ok(c, map[string]any{
		"status":      "completed",
		"task_id":     taskID,
		"usage_id":    newID("usage_"),
		"overview_md": "# Overview",
		"summary_md":  "# Summary",
		"details": []map[string]any{
			{"start_time": 0.0, "end_time": 1.5, "text": "hello world", "speaker": 1},
		},
		"keywords": []string{"hello"},
		"callback_history": []map[string]any{
			{"timestamp": "2026-01-01T00:00:00Z", "status": "delivered", "code": 200},
		},
		"task_type": "normal_speed",
	})
}

func (s *Server) handleCallback(c echo.Context) error {
	var req struct {
		TaskID string `json:"task_id"`
	}
	if err := c.Bind(&req); err != nil || req.TaskID == "" {
		return fail(c, 1, "task_id required")
	}
	return ok(c, map[string]any{"status": "accepted"})
}

func (s *Server) handleShareLink(c echo.Context) error {
	var req struct {
		TaskID         string `json:"task_id"`
		ExpirationDays int    `json:"expiration_days"`
	}
	if err := c.Bind(&req); err != nil || req.TaskID == "" {
		return fail(c, 1, "task_id required")
	}
	days := req.ExpirationDays
	if days == 0 {
		days = 7
	}
	return ok(c, map[string]any{
		"share_url":      s.srv.URL + "/share/" + newID("share_"),
		"expiration_day": days,
		"expired_at":     "2026-09-04T00:00:00Z",
	})
}

func (s *Server) handleSummary(c echo.Context) error {
	var req struct {
		Utterances []json.RawMessage `json:"utterances"`
	}
	if err := c.Bind(&req); err != nil || len(req.Utterances) == 0 {
		return fail(c, 1, "utterances required")
	}
	return ok(c, map[string]any{"task_id": newID("task_")})
}

func (s *Server) handleExport(c echo.Context) error {
	if c.QueryParam("task_id") == "" {
		return fail(c, 1, "task_id required")
	}

	var body []byte
	contentType := ""
	switch c.QueryParam("format") {
	case "pdf":
		body = []byte("%PDF-1.7 fake export")
		contentType = "application/pdf"
	case "txt":
		body = []byte("fake transcript export")
		contentType = "text/plain"
	case "docx":
		body = []byte("PK fake docx export")
		contentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return fail(c, 2, "unknown format "+c.QueryParam("format"))
	}
	return c.Blob(http.StatusOK, contentType, body)
}

func (s *Server) handleTranslateText(c echo.Context) error {
	var req struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := c.Bind(&req); err != nil || req.Text == "" {
		return fail(c, 1, "text required")
	}
	return ok(c, map[string]any{
		"status": "success",
		"data":   "[" + req.Language + "] " + req.Text,
	})
}

func (s *Server) handleTranslateUtterances(c echo.Context) error {
	var req struct {
		Utterances []map[string]any `json:"utterances"`
		Language   string           `json:"language"`
	}
	if err := c.Bind(&req); err != nil || len(req.Utterances) == 0 {
		return fail(c, 1, "utterances required")
	}
	for _, u := range req.Utterances {
		if text, ok := u["text"].(string); ok {
			u["text"] = "[" + req.Language + "] " + text
		}
	}
	return ok(c, map[string]any{
		"status":  "success",
		"lang":    req.Language,
		"details": req.Utterances,
	})
}

func (s *Server) handleTranslateTranscribe(c echo.Context) error {
	var req struct {
		TaskID   string `json:"task_id"`
		Language string `json:"language"`
	}
	if err := c.Bind(&req); err != nil || req.TaskID == "" {
		return fail(c, 1, "task_id required")
	}
	return ok(c, map[string]any{
		"task_id":   req.TaskID,
		"task_type": "normal_speed",
		"status":    "completed",
		"lang":      req.Language,
		"details": []map[string]any{
			{
				"utterance":    map[string]any{"start_time": 0.0, "end_time": 1.5, "text": "hello world", "speaker": 1},
				"translations": map[string]string{req.Language: "bonjour le monde"},
			},
		},
	})
}

// handleRealtime records inbound frames and answers every binary audio frame
// with a transcribing status message; the end_of_stream control frame is
// acknowledged with a completed message.
func (s *Server) handleRealtime(c echo.Context) error {
	sessionID := c.QueryParam("session_id")

	s.mu.Lock()
	sess := s.sessions[sessionID]
	s.mu.Unlock()
	if sess == nil {
		return c.JSON(http.StatusNotFound, map[string]any{
			"error_code": 2,
			"message":    "unknown session " + sessionID,
		})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			return nil
		}

		s.mu.Lock()
		s.frames = append(s.frames, Frame{
			Binary: messageType == websocket.BinaryMessage,
			Data:   append([]byte(nil), data...),
		})
		s.mu.Unlock()

		var reply map[string]any
		switch messageType {
		case websocket.BinaryMessage:
			reply = map[string]any{
				"task_id":    sess.taskID,
				"session_id": sess.sessionID,
				"status":     "transcribing",
				"text":       "partial transcript",
			}
		case websocket.TextMessage:
			var control struct {
				Type string `json:"type"`
			}
			if jerr := json.Unmarshal(data, &control); jerr != nil || control.Type != "end_of_stream" {
				continue
			}
			reply = map[string]any{
				"task_id":    sess.taskID,
				"session_id": sess.sessionID,
				"status":     "completed",
			}
		default:
			continue
		}

		payload, merr := json.Marshal(reply)
		if merr != nil {
			return nil
		}
		if werr := ws.WriteMessage(websocket.TextMessage, payload); werr != nil {
			return nil
		}
	}
}

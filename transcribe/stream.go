package transcribe

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
	frameBuffer    = 128

	// endOfStreamSignal is the control frame sent best-effort before the
	// socket is released, telling the server no more audio will arrive.
	endOfStreamSignal = `{"type":"end_of_stream"}`
)

type streamState int

const (
	streamUnstarted streamState = iota
	streamRunning
	streamStopped
)

type outFrame struct {
	messageType int
	payload     []byte
}

// Stream is one duplex realtime connection bound to an established session.
// Lifecycle is Unstarted -> Running -> Stopped; Stopped is terminal and a new
// Stream must be constructed to stream again. All methods are safe for
// concurrent use, with one restriction: a single outstanding ReadNext at a
// time (a second concurrent call is rejected, it does not queue).
type Stream struct {
	client    *Client
	sessionID string
	token     string
	log       *slog.Logger

	mu    sync.RWMutex
	state streamState
	ws    *websocket.Conn

	send       chan outFrame
	messages   chan string
	stopping   chan struct{}
	done       chan struct{}
	writerDone chan struct{}
	readSlot   chan struct{}
	stopOnce   sync.Once
}

// NewStream builds an unstarted stream for sessionID. The socket is not
// opened until Start.
func (c *Client) NewStream(sessionID, token string) *Stream {
	return &Stream{
		client:     c,
		sessionID:  sessionID,
		token:      token,
		log:        c.log.With("session_id", sessionID),
		send:       make(chan outFrame, frameBuffer),
		messages:   make(chan string, frameBuffer),
		stopping:   make(chan struct{}),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
		readSlot:   make(chan struct{}, 1),
	}
}

// Start opens the WebSocket and transitions Unstarted -> Running. Calling it
// on a stream that is not Unstarted is an invariant violation.
func (s *Stream) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case streamRunning:
		return unexpectedError("stream already started")
	case streamStopped:
		return unexpectedError("stream already stopped")
	}

	endpoint := s.client.wsBaseURL + "/transcribe/realtime?session_id=" + url.QueryEscape(s.sessionID)
	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", bearer(s.token))
	}

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return networkError("websocket handshake failed with status %d: %v", resp.StatusCode, err)
		}
		return networkError("websocket handshake failed: %v", err)
	}

	s.ws = ws
	s.state = streamRunning
	go s.readPump()
	go s.writePump()

	s.log.Debug("stream started")
	return nil
}

// SendText enqueues one textual control frame. Frames sent through SendText
// and SendBytes reach the wire in program order.
func (s *Stream) SendText(ctx context.Context, message string) error {
	return s.enqueue(ctx, "send_text", outFrame{websocket.TextMessage, []byte(message)})
}

// SendBytes enqueues one binary audio frame.
func (s *Stream) SendBytes(ctx context.Context, data []byte) error {
	return s.enqueue(ctx, "send_bytes", outFrame{websocket.BinaryMessage, data})
}

func (s *Stream) enqueue(ctx context.Context, op string, frame outFrame) error {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	if state != streamRunning {
		return notInitialized(op)
	}

	select {
	case s.send <- frame:
		s.client.metrics.incFrameSent(frame.messageType)
		return nil
	case <-s.stopping:
		return notInitialized(op)
	case <-ctx.Done():
		return contextError(ctx.Err())
	}
}

// ReadNext blocks until the next inbound text message, the timeout, or
// connection closure. A timeout of zero waits indefinitely. Timeout and
// closure surface as distinct kinds (KindTimeout, KindConnectionClosed) so
// callers can tell "no message yet" from "stop polling". Cancelling ctx
// abandons the wait without tearing down the socket.
func (s *Stream) ReadNext(ctx context.Context, timeout time.Duration) (string, error) {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	if state == streamUnstarted {
		return "", notInitialized("read_next")
	}
	if state == streamStopped {
		return "", connectionClosed()
	}

	select {
	case s.readSlot <- struct{}{}:
		defer func() { <-s.readSlot }()
	default:
		return "", unexpectedError("concurrent read_next calls are not supported")
	}

	var timeoutC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case msg, ok := <-s.messages:
		if !ok {
			return "", connectionClosed()
		}
		s.client.metrics.incMessageReceived()
		return msg, nil
	case <-timeoutC:
		return "", timeoutError("no message within %s", timeout)
	case <-ctx.Done():
		return "", contextError(ctx.Err())
	}
}

// Stop transitions Running -> Stopped: it sends the end-of-stream signal
// best-effort, flushes queued frames, and releases the socket. Stop is
// idempotent; calling it on an already stopped or never started stream is a
// no-op. Stream implements io.Closer via Close so callers can defer cleanup
// on every exit path.
func (s *Stream) Stop() error {
	s.mu.Lock()
	if s.state != streamRunning {
		s.state = streamStopped
		s.mu.Unlock()
		return nil
	}
	s.state = streamStopped
	s.mu.Unlock()

	s.stopOnce.Do(func() {
		select {
		case s.send <- outFrame{websocket.TextMessage, []byte(endOfStreamSignal)}:
		default:
		}
		close(s.stopping)

		select {
		case <-s.writerDone:
		case <-time.After(writeWait):
			s.log.Warn("writer did not drain before close")
		}

		close(s.done)
		if err := s.ws.Close(); err != nil {
			s.log.Debug("socket close", "error", err)
		}
		s.log.Debug("stream stopped")
	})
	return nil
}

// Close releases the stream, making defer-based cleanup equivalent to Stop.
func (s *Stream) Close() error {
	return s.Stop()
}

// readPump delivers inbound text messages in arrival order. It exits when the
// connection closes, closing the messages channel so pending and future
// ReadNext calls observe closure.
func (s *Stream) readPump() {
	defer close(s.messages)

	s.ws.SetReadLimit(maxMessageSize)
	_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && !s.isStopped() {
				s.log.Error("websocket read error", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		select {
		case s.messages <- string(data):
		case <-s.done:
			return
		}
	}
}

// writePump is the sole writer on the socket, so concurrent sends never
// interleave bytes of a frame. On stop it drains queued frames before sending
// the close message.
func (s *Stream) writePump() {
	defer close(s.writerDone)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame := <-s.send:
			if !s.writeFrame(frame) {
				return
			}

		case <-ticker.C:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.stopping:
			for {
				select {
				case frame := <-s.send:
					if !s.writeFrame(frame) {
						return
					}
				default:
					_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
					_ = s.ws.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}

		case <-s.done:
			return
		}
	}
}

func (s *Stream) writeFrame(frame outFrame) bool {
	_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.ws.WriteMessage(frame.messageType, frame.payload); err != nil {
		if !s.isStopped() {
			s.log.Error("websocket write error", "error", err)
		}
		return false
	}
	return true
}

func (s *Stream) isStopped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == streamStopped
}

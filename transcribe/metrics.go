package transcribe

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments a Client. Pass one via Config to enable it; a nil
// Metrics disables all instrumentation.
type Metrics struct {
	Requests         *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	CloseRetries     prometheus.Counter
	FramesSent       *prometheus.CounterVec
	MessagesReceived prometheus.Counter
}

// NewMetrics registers the client metrics against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dianya_requests_total",
			Help: "API requests by path and outcome",
		}, []string{"path", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dianya_request_duration_seconds",
			Help:    "API request latency by path",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"path"}),
		CloseRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "dianya_session_close_retries_total",
			Help: "Close attempts retried because the session was busy",
		}),
		FramesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dianya_stream_frames_sent_total",
			Help: "Outbound stream frames by kind",
		}, []string{"kind"}),
		MessagesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "dianya_stream_messages_received_total",
			Help: "Inbound stream messages delivered to readers",
		}),
	}
}

func (m *Metrics) observeRequest(path, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(path, outcome).Inc()
	m.RequestDuration.WithLabelValues(path).Observe(elapsed.Seconds())
}

func (m *Metrics) incCloseRetry() {
	if m == nil {
		return
	}
	m.CloseRetries.Inc()
}

func (m *Metrics) incFrameSent(messageType int) {
	if m == nil {
		return
	}
	kind := "text"
	if messageType == websocket.BinaryMessage {
		kind = "binary"
	}
	m.FramesSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) incMessageReceived() {
	if m == nil {
		return
	}
	m.MessagesReceived.Inc()
}

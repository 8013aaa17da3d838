package transcribe

// SessionCreateResult identifies a newly created realtime session. The
// identifiers are opaque and server-issued; MaxTime is the server-imposed
// duration ceiling in seconds and is informational only.
type SessionCreateResult struct {
	TaskID    string `json:"task_id"`
	SessionID string `json:"session_id"`
	UsageID   string `json:"usage_id"`
	MaxTime   int    `json:"max_time"`
}

// SessionCloseResult is the terminal outcome of CloseSession. Status is
// CloseStatusClosed on success and CloseStatusTimeout when the busy retry
// budget ran out.
type SessionCloseResult struct {
	Status    string `json:"status"`
	Duration  int    `json:"duration,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

const (
	CloseStatusClosed  = "closed"
	CloseStatusTimeout = "timeout"
)

// UploadResult is either a normal task handle or, for short one-sentence
// recognition, an inline result. Kind tells the two apart.
type UploadResult struct {
	Kind    string `json:"kind"`
	TaskID  string `json:"task_id,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Data    string `json:"data,omitempty"`
}

const (
	UploadKindNormal      = "normal"
	UploadKindOneSentence = "one_sentence"
)

// Utterance is one speaker-attributed span of transcribed audio.
type Utterance struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
	Speaker   int     `json:"speaker"`
}

// CallbackHistory records one delivery attempt of a task callback.
type CallbackHistory struct {
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
	Code      int    `json:"code"`
}

// StatusResponse is the state of an offline transcription task.
type StatusResponse struct {
	Status          string            `json:"status"`
	OverviewMD      string            `json:"overview_md,omitempty"`
	SummaryMD       string            `json:"summary_md,omitempty"`
	Details         []Utterance       `json:"details"`
	Message         string            `json:"message,omitempty"`
	UsageID         string            `json:"usage_id,omitempty"`
	TaskID          string            `json:"task_id,omitempty"`
	Keywords        []string          `json:"keywords"`
	CallbackHistory []CallbackHistory `json:"callback_history"`
	TaskType        TaskType          `json:"task_type,omitempty"`
}

// CallbackRequest replays a task completion callback to the service.
type CallbackRequest struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Code   int    `json:"code"`
}

// CallbackResult acknowledges a callback replay.
type CallbackResult struct {
	Status string `json:"status"`
}

// ShareLink is a public link to a finished transcript.
type ShareLink struct {
	ShareURL      string `json:"share_url"`
	ExpirationDay int    `json:"expiration_day"`
	ExpiredAt     string `json:"expired_at"`
}

// SummaryCreateResult is the handle of a summary generation task.
type SummaryCreateResult struct {
	TaskID string `json:"task_id"`
}

// SummaryContent is a generated summary in its published variants.
type SummaryContent struct {
	Short    string   `json:"short"`
	Long     string   `json:"long"`
	All      string   `json:"all"`
	Keywords []string `json:"keywords"`
}

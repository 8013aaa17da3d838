package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// UploadOptions tunes an offline transcription upload.
type UploadOptions struct {
	// TranscribeOnly skips overview and summary generation.
	TranscribeOnly bool
	// ShortASR requests the one-sentence recognition path, which returns the
	// result inline instead of a task handle.
	ShortASR bool
	Model    Model
}

// Upload submits an audio file for offline transcription.
func (c *Client) Upload(ctx context.Context, path string, opts UploadOptions, token string) (*UploadResult, error) {
	if opts.Model == "" {
		opts.Model = ModelSpeed
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, invalidInput("open %s: %v", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, unexpectedError("create form file: %v", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, invalidInput("read %s: %v", path, err)
	}
	_ = writer.WriteField("transcribe_only", strconv.FormatBool(opts.TranscribeOnly))
	_ = writer.WriteField("short_asr", strconv.FormatBool(opts.ShortASR))
	_ = writer.WriteField("model", string(opts.Model))
	if err := writer.Close(); err != nil {
		return nil, unexpectedError("close multipart writer: %v", err)
	}

	res, callErr := c.call(ctx, http.MethodPost, "/transcribe/upload", token, &buf, writer.FormDataContentType())
	if callErr != nil {
		return nil, callErr
	}

	var env envelope
	if err := json.Unmarshal(res.body, &env); err != nil {
		return nil, jsonError(err)
	}
	if env.ErrorCode != 0 {
		return nil, apiError(env.ErrorCode, env.Message)
	}

	var out UploadResult
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, jsonError(err)
	}
	if out.TaskID != "" {
		out.Kind = UploadKindNormal
	} else {
		out.Kind = UploadKindOneSentence
	}
	return &out, nil
}

// Status fetches the state of an offline task by task id or by share id.
// Exactly one of the two may be empty.
func (c *Client) Status(ctx context.Context, taskID, shareID, token string) (*StatusResponse, error) {
	if taskID == "" && shareID == "" {
		return nil, invalidInput("either task_id or share_id is required")
	}

	query := url.Values{}
	if taskID != "" {
		query.Set("task_id", taskID)
	}
	if shareID != "" {
		query.Set("share_id", shareID)
	}

	var out StatusResponse
	if err := c.Do(ctx, http.MethodGet, "/transcribe/status?"+query.Encode(), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Callback replays a task completion callback.
func (c *Client) Callback(ctx context.Context, req CallbackRequest, token string) (*CallbackResult, error) {
	var out CallbackResult
	if err := c.Do(ctx, http.MethodPost, "/transcribe/callback", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ShareLink creates a public link for a finished transcript. expirationDays
// of zero leaves the expiry to the server default.
func (c *Client) ShareLink(ctx context.Context, taskID string, expirationDays int, token string) (*ShareLink, error) {
	req := struct {
		TaskID         string `json:"task_id"`
		ExpirationDays int    `json:"expiration_days,omitempty"`
	}{TaskID: taskID, ExpirationDays: expirationDays}

	var out ShareLink
	if err := c.Do(ctx, http.MethodPost, "/transcribe/share-link", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSummary starts summary generation over the given utterances.
func (c *Client) CreateSummary(ctx context.Context, utterances []Utterance, token string) (*SummaryCreateResult, error) {
	if len(utterances) == 0 {
		return nil, invalidInput("utterances must not be empty")
	}

	req := struct {
		Utterances []Utterance `json:"utterances"`
	}{Utterances: utterances}

	var out SummaryCreateResult
	if err := c.Do(ctx, http.MethodPost, "/transcribe/summary", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export renders a finished task into a document and returns the raw file
// bytes. Error responses still arrive as JSON envelopes and are classified
// accordingly.
func (c *Client) Export(ctx context.Context, taskID string, exportType ExportType, format ExportFormat, token string) ([]byte, error) {
	query := url.Values{}
	query.Set("task_id", taskID)
	query.Set("type", string(exportType))
	query.Set("format", string(format))

	res, callErr := c.call(ctx, http.MethodGet, "/transcribe/export?"+query.Encode(), token, nil, "")
	if callErr != nil {
		return nil, callErr
	}

	if res.status != http.StatusOK || strings.HasPrefix(res.contentType, "application/json") {
		var env envelope
		if err := json.Unmarshal(res.body, &env); err != nil {
			return nil, jsonError(err)
		}
		if env.ErrorCode != 0 {
			return nil, apiError(env.ErrorCode, env.Message)
		}
		return nil, unexpectedError("export returned JSON with no error code")
	}
	return res.body, nil
}

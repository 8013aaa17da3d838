// Package translate wraps the translation endpoints of the transcription
// service: free text, utterance lists, and whole finished transcripts.
package translate

import (
	"context"
	"net/http"

	"github.com/MuCapital-BJ/dianyaapi-go/transcribe"
)

// Client exposes the translation operations on top of a transcribe.Client.
type Client struct {
	api *transcribe.Client
}

func New(api *transcribe.Client) *Client {
	return &Client{api: api}
}

// TextTranslation is the result of translating free text.
type TextTranslation struct {
	Status string `json:"status"`
	Data   string `json:"data"`
}

// Text translates free text into the target language.
func (c *Client) Text(ctx context.Context, text string, lang Language, token string) (*TextTranslation, error) {
	req := struct {
		Text     string   `json:"text"`
		Language Language `json:"language"`
	}{Text: text, Language: lang}

	var out TextTranslation
	if err := c.api.Do(ctx, http.MethodPost, "/translate/text", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UtteranceTranslation carries translated utterances in source order.
type UtteranceTranslation struct {
	Status  string                 `json:"status"`
	Lang    Language               `json:"lang"`
	Details []transcribe.Utterance `json:"details"`
}

// Utterances translates a list of utterances into the target language.
func (c *Client) Utterances(ctx context.Context, utterances []transcribe.Utterance, lang Language, token string) (*UtteranceTranslation, error) {
	req := struct {
		Utterances []transcribe.Utterance `json:"utterances"`
		Language   Language               `json:"language"`
	}{Utterances: utterances, Language: lang}

	var out UtteranceTranslation
	if err := c.api.Do(ctx, http.MethodPost, "/translate/utterances", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TranslationDetail pairs one source utterance with its translations keyed by
// language code.
type TranslationDetail struct {
	Utterance    transcribe.Utterance `json:"utterance"`
	Translations map[string]string    `json:"translations"`
}

// TranscribeTranslation is the state of a transcript translation task.
type TranscribeTranslation struct {
	TaskID     string              `json:"task_id"`
	TaskType   transcribe.TaskType `json:"task_type"`
	Status     string              `json:"status"`
	Lang       Language            `json:"lang"`
	Message    string              `json:"message,omitempty"`
	Details    []TranslationDetail `json:"details,omitempty"`
	OverviewMD string              `json:"overview_md,omitempty"`
	SummaryMD  string              `json:"summary_md,omitempty"`
	Keywords   []string            `json:"keywords,omitempty"`
}

// Transcribe translates a whole finished transcript identified by taskID.
func (c *Client) Transcribe(ctx context.Context, taskID string, lang Language, token string) (*TranscribeTranslation, error) {
	req := struct {
		TaskID   string   `json:"task_id"`
		Language Language `json:"language"`
	}{TaskID: taskID, Language: lang}

	var out TranscribeTranslation
	if err := c.api.Do(ctx, http.MethodPost, "/translate/transcribe", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

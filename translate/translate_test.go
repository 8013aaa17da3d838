package translate

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/MuCapital-BJ/dianyaapi-go/transcribe"
	"github.com/MuCapital-BJ/dianyaapi-go/transcribetest"
)

func newFakeService(t *testing.T) *Client {
	t.Helper()
	server := transcribetest.New()
	t.Cleanup(server.Close)

	api := transcribe.New(transcribe.Config{
		BaseURL: server.URL(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return New(api)
}

func TestParse(t *testing.T) {
	cases := map[string]Language{
		"zh":    ChineseSimplified,
		"zh-cn": ChineseSimplified,
		"en":    EnglishUS,
		"EN-US": EnglishUS,
		"ja":    Japanese,
		"ko":    Korean,
		"kr":    Korean,
		"jp":    Korean,
		"fr":    French,
		"de":    German,
	}
	for input, want := range cases {
		got, err := Parse(input)
		if err != nil || got != want {
			t.Errorf("Parse(%q) = %q, %v; want %q", input, got, err, want)
		}
	}

	if _, err := Parse("es"); !transcribe.IsKind(err, transcribe.KindInvalidInput) {
		t.Errorf("expected invalid_input, got %v", err)
	}
}

func TestText(t *testing.T) {
	c := newFakeService(t)

	result, err := c.Text(context.Background(), "你好", EnglishUS, "tok")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if result.Status != "success" || !strings.Contains(result.Data, "你好") {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestUtterances(t *testing.T) {
	c := newFakeService(t)

	utterances := []transcribe.Utterance{
		{StartTime: 0, EndTime: 1, Text: "hello", Speaker: 1},
		{StartTime: 1, EndTime: 2, Text: "world", Speaker: 2},
	}
	result, err := c.Utterances(context.Background(), utterances, French, "tok")
	if err != nil {
		t.Fatalf("Utterances: %v", err)
	}
	if len(result.Details) != 2 {
		t.Fatalf("expected 2 details, got %d", len(result.Details))
	}
	if result.Lang != French {
		t.Errorf("expected lang fr, got %q", result.Lang)
	}
	for i, d := range result.Details {
		if d.Speaker != utterances[i].Speaker {
			t.Errorf("detail %d lost its speaker: %+v", i, d)
		}
	}
}

func TestTranscribe(t *testing.T) {
	c := newFakeService(t)

	result, err := c.Transcribe(context.Background(), "task_abc", German, "tok")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.TaskID != "task_abc" || result.Status != "completed" {
		t.Errorf("unexpected result %+v", result)
	}
	if len(result.Details) == 0 || len(result.Details[0].Translations) == 0 {
		t.Errorf("expected translations, got %+v", result.Details)
	}
}

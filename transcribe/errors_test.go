package transcribe

import (
	"context"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := apiError(4, "session busy")
	if got := err.Error(); got != "api_error: session busy" {
		t.Errorf("unexpected error string %q", got)
	}
}

func TestIsKind(t *testing.T) {
	if !IsKind(notInitialized("send_text"), KindNotInitialized) {
		t.Error("expected not_initialized match")
	}
	if IsKind(notInitialized("send_text"), KindTimeout) {
		t.Error("kinds should not cross-match")
	}
	if IsKind(fmt.Errorf("plain"), KindTimeout) {
		t.Error("plain errors carry no kind")
	}
	if IsKind(nil, KindTimeout) {
		t.Error("nil carries no kind")
	}

	wrapped := fmt.Errorf("outer: %w", apiError(2, "boom"))
	if !IsKind(wrapped, KindAPIError) {
		t.Error("expected wrapped errors to match")
	}
}

func TestContextError(t *testing.T) {
	if err := contextError(context.DeadlineExceeded); err.Code != KindTimeout {
		t.Errorf("deadline exceeded should classify as timeout, got %s", err.Code)
	}
	if err := contextError(context.Canceled); err.Code != KindUnexpectedError {
		t.Errorf("cancellation should classify as unexpected_error, got %s", err.Code)
	}
}

func TestAPIErrorDefaultMessage(t *testing.T) {
	err := apiError(9, "")
	if err.Message == "" {
		t.Error("expected a synthesized message")
	}
	if err.ServerCode != 9 {
		t.Errorf("expected server code 9, got %d", err.ServerCode)
	}
}

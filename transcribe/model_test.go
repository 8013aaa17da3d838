package transcribe

import "testing"

func TestParseModel(t *testing.T) {
	cases := map[string]Model{
		"speed":      ModelSpeed,
		"Quality":    ModelQuality,
		"QUALITY_V2": ModelQualityV2,
	}
	for input, want := range cases {
		got, err := ParseModel(input)
		if err != nil || got != want {
			t.Errorf("ParseModel(%q) = %q, %v; want %q", input, got, err, want)
		}
	}

	if _, err := ParseModel("turbo"); !IsKind(err, KindInvalidInput) {
		t.Errorf("expected invalid_input, got %v", err)
	}
}

func TestParseExportType(t *testing.T) {
	for _, input := range []string{"transcript", "overview", "summary"} {
		if _, err := ParseExportType(input); err != nil {
			t.Errorf("ParseExportType(%q): %v", input, err)
		}
	}
	if _, err := ParseExportType("subtitles"); !IsKind(err, KindInvalidInput) {
		t.Errorf("expected invalid_input, got %v", err)
	}
}

func TestParseExportFormat(t *testing.T) {
	for _, input := range []string{"pdf", "TXT", "docx"} {
		if _, err := ParseExportFormat(input); err != nil {
			t.Errorf("ParseExportFormat(%q): %v", input, err)
		}
	}
	if _, err := ParseExportFormat("odt"); !IsKind(err, KindInvalidInput) {
		t.Errorf("expected invalid_input, got %v", err)
	}
}

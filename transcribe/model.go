package transcribe

import "strings"

// Model selects the recognition model for a session or upload.
type Model string

const (
	ModelSpeed     Model = "speed"
	ModelQuality   Model = "quality"
	ModelQualityV2 Model = "quality_v2"
)

// ParseModel accepts the published model names, case-insensitively.
func ParseModel(value string) (Model, error) {
	switch strings.ToLower(value) {
	case "speed":
		return ModelSpeed, nil
	case "quality":
		return ModelQuality, nil
	case "quality_v2":
		return ModelQualityV2, nil
	default:
		return "", invalidInput("unsupported model %q (expected 'speed', 'quality' or 'quality_v2')", value)
	}
}

// ExportType selects which document Export produces.
type ExportType string

const (
	ExportTranscript ExportType = "transcript"
	ExportOverview   ExportType = "overview"
	ExportSummary    ExportType = "summary"
)

func ParseExportType(value string) (ExportType, error) {
	switch strings.ToLower(value) {
	case "transcript":
		return ExportTranscript, nil
	case "overview":
		return ExportOverview, nil
	case "summary":
		return ExportSummary, nil
	default:
		return "", invalidInput("unsupported export type %q", value)
	}
}

// ExportFormat selects the file format Export produces.
type ExportFormat string

const (
	FormatPDF  ExportFormat = "pdf"
	FormatTXT  ExportFormat = "txt"
	FormatDOCX ExportFormat = "docx"
)

func ParseExportFormat(value string) (ExportFormat, error) {
	switch strings.ToLower(value) {
	case "pdf":
		return FormatPDF, nil
	case "txt":
		return FormatTXT, nil
	case "docx":
		return FormatDOCX, nil
	default:
		return "", invalidInput("unsupported export format %q", value)
	}
}

// TaskType classifies an offline task in status responses.
type TaskType string

const (
	TaskNormalQuality   TaskType = "normal_quality"
	TaskNormalSpeed     TaskType = "normal_speed"
	TaskShortASRQuality TaskType = "short_asr_quality"
	TaskShortASRSpeed   TaskType = "short_asr_speed"
)

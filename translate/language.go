package translate

import (
	"fmt"
	"strings"

	"github.com/MuCapital-BJ/dianyaapi-go/transcribe"
)

// Language is a translation target.
type Language string

const (
	ChineseSimplified Language = "zh-cn"
	EnglishUS         Language = "en-us"
	Japanese          Language = "ja"
	Korean            Language = "ko"
	French            Language = "fr"
	German            Language = "de"
)

// Parse maps the accepted language codes, case-insensitively. The alias set
// matches the service's published API, including "jp" for Korean.
func Parse(value string) (Language, error) {
	switch strings.ToLower(value) {
	case "zh", "zh-cn":
		return ChineseSimplified, nil
	case "en", "en-us":
		return EnglishUS, nil
	case "ja":
		return Japanese, nil
	case "ko", "kr", "jp":
		return Korean, nil
	case "fr":
		return French, nil
	case "de":
		return German, nil
	default:
		return "", &transcribe.Error{
			Code:    transcribe.KindInvalidInput,
			Message: fmt.Sprintf("unsupported language code %q", value),
		}
	}
}

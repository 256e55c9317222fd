package masking

import "strings"

const maskToken = "****"

// sensitiveKeys name metadata fields that carry identity numbers or contact
// details. Keys are compared case-insensitively.
var sensitiveKeys = map[string]struct{}{
	"nationalid":        {},
	"aadhaar":           {},
	"taxid":             {},
	"pan":               {},
	"mobile":            {},
	"email":             {},
	"dateofbirth":       {},
	"gstnumber":         {},
	"officialreference": {},
}

// MaskValue redacts a value, keeping its last four characters (runes, not bytes).
func MaskValue(value string) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) == 0 {
		return ""
	}
	if len(runes) <= 4 {
		return maskToken
	}
	return maskToken + string(runes[len(runes)-4:])
}

// IsSensitive reports whether key names an identity field.
func IsSensitive(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// MaskMetadata returns a copy of input with sensitive string values masked.
// Nested maps and slices are walked.
func MaskMetadata(input map[string]any) map[string]any {
	masked := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		masked[trimmedKey] = maskField(trimmedKey, value)
	}
	return masked
}

func maskField(key string, value any) any {
	switch cast := value.(type) {
	case string:
		if IsSensitive(key) {
			return MaskValue(cast)
		}
		return cast
	case *string:
		if cast == nil {
			return nil
		}
		return maskField(key, *cast)
	case map[string]any:
		return MaskMetadata(cast)
	case []any:
		out := make([]any, 0, len(cast))
		for _, item := range cast {
			out = append(out, maskField(key, item))
		}
		return out
	default:
		return value
	}
}

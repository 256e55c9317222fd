package server

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const dateOnlyLayout = "2006-01-02"

// parseSnowflakeID parses a required id, reporting failures against field.
func parseSnowflakeID(field, value string) (snowflake.ID, error) {
	id, err := parseOptionalSnowflakeID(field, value)
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, newValidationError(field, "required", field+" is required")
	}
	return *id, nil
}

func parseOptionalSnowflakeID(field, value string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed <= 0 {
		return nil, newValidationError(field, "invalid_id", "invalid id")
	}
	return &parsed, nil
}

// parseOptionalDate accepts RFC3339 timestamps or plain dates, which are
// taken as midnight UTC.
func parseOptionalDate(field, value string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		parsed = parsed.UTC()
		return &parsed, nil
	}
	if parsed, err := time.Parse(dateOnlyLayout, trimmed); err == nil {
		return &parsed, nil
	}
	return nil, newValidationError(field, "invalid_date", "expected YYYY-MM-DD or RFC3339")
}

func parseDate(field, value string) (time.Time, error) {
	parsed, err := parseOptionalDate(field, value)
	if err != nil {
		return time.Time{}, err
	}
	if parsed == nil {
		return time.Time{}, newValidationError(field, "required", field+" is required")
	}
	return *parsed, nil
}

// firstNonEmpty returns the first value that is not blank.
func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

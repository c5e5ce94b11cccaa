package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingAnchor      = errors.New("missing anchor tag")
	ErrMissingReleaseDate = errors.New("missing release date")
	ErrInvalidReleaseDate = fmt.Errorf("%w: malformed value", ErrMissingReleaseDate)
	ErrBackupConflict     = errors.New("backup conflict")
	ErrParseFailure       = errors.New("parse failure")
	ErrIOFailure          = errors.New("io failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above; nil falls back to ErrIOFailure.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrIOFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a stable snake_case label for err, used in log fields and the
// run journal. Errors that carry no known marker report "unknown".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingAnchor):
		return "missing_anchor"
	case errors.Is(err, ErrInvalidReleaseDate):
		return "invalid_release_date"
	case errors.Is(err, ErrMissingReleaseDate):
		return "missing_release_date"
	case errors.Is(err, ErrBackupConflict):
		return "backup_conflict"
	case errors.Is(err, ErrParseFailure):
		return "parse_failure"
	case errors.Is(err, ErrIOFailure):
		return "io_failure"
	default:
		return "unknown"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "operation failed"
	}
	return strings.Join(parts, ": ")
}

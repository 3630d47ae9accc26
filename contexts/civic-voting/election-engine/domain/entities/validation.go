package entities

import (
	"strings"
	"time"

	domainerrors "ballotbox/contexts/civic-voting/election-engine/domain/errors"
)

const MinOptions = 2

// Accepted timestamp layouts. Layouts without a zone are read as UTC, which
// covers the browser datetime-local format.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func ParseInstant(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range instantLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

// ElectionFields is the editable surface of an election.
type ElectionFields struct {
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Options     []string
}

// ParseInstantField parses raw into the given field, recording a violation on
// verr when the value is missing or malformed.
func ParseInstantField(raw string, field string, label string, verr *domainerrors.ValidationError) time.Time {
	if strings.TrimSpace(raw) == "" {
		verr.Add(field, label+" is required")
		return time.Time{}
	}
	parsed, ok := ParseInstant(raw)
	if !ok {
		verr.Add(field, label+" must be a valid date and time")
		return time.Time{}
	}
	return parsed
}

// ValidateElectionFields appends every violation to verr and returns the
// trimmed fields.
func ValidateElectionFields(fields ElectionFields, verr *domainerrors.ValidationError) ElectionFields {
	out := ElectionFields{
		Title:       strings.TrimSpace(fields.Title),
		Description: strings.TrimSpace(fields.Description),
		StartTime:   fields.StartTime.UTC(),
		EndTime:     fields.EndTime.UTC(),
		Options:     make([]string, 0, len(fields.Options)),
	}

	if out.Title == "" {
		verr.Add(domainerrors.FieldTitle, "Title is required")
	}
	if out.Description == "" {
		verr.Add(domainerrors.FieldDescription, "Description is required")
	}
	if fields.StartTime.IsZero() {
		verr.Add(domainerrors.FieldStartDate, "Start date is required")
	}
	if fields.EndTime.IsZero() {
		verr.Add(domainerrors.FieldEndDate, "End date is required")
	} else if !fields.StartTime.IsZero() && !fields.EndTime.After(fields.StartTime) {
		verr.Add(domainerrors.FieldEndDate, "End date must be after start date")
	}

	emptyOption := false
	for _, text := range fields.Options {
		text = strings.TrimSpace(text)
		if text == "" {
			emptyOption = true
		}
		out.Options = append(out.Options, text)
	}
	if len(fields.Options) < MinOptions {
		verr.Add(domainerrors.FieldOptions, "At least two options are required")
	} else if emptyOption {
		verr.Add(domainerrors.FieldOptions, "All options must have text")
	}
	return out
}

package entities

import (
	"testing"
	"time"

	domainerrors "ballotbox/contexts/civic-voting/election-engine/domain/errors"
)

func TestParseInstantAcceptsFormLayouts(t *testing.T) {
	cases := map[string]time.Time{
		"2026-03-10T12:30:00Z":      time.Date(2026, time.March, 10, 12, 30, 0, 0, time.UTC),
		"2026-03-10T14:30:00+02:00": time.Date(2026, time.March, 10, 12, 30, 0, 0, time.UTC),
		"2026-03-10T12:30":          time.Date(2026, time.March, 10, 12, 30, 0, 0, time.UTC),
		"2026-03-10T12:30:05":       time.Date(2026, time.March, 10, 12, 30, 5, 0, time.UTC),
		"2026-03-10":                time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		got, ok := ParseInstant(raw)
		if !ok {
			t.Fatalf("expected %q to parse", raw)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: expected %s, got %s", raw, want, got)
		}
	}
	if _, ok := ParseInstant("next tuesday"); ok {
		t.Fatalf("expected free text to be rejected")
	}
}

func TestValidateElectionFieldsReportsEndBeforeStart(t *testing.T) {
	start := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	verr := domainerrors.NewValidationError()
	ValidateElectionFields(ElectionFields{
		Title:       "Budget",
		Description: "Approve the budget",
		StartTime:   start,
		EndTime:     start,
		Options:     []string{"Yes", "No"},
	}, verr)

	if len(verr.Fields) != 1 {
		t.Fatalf("expected exactly one violation, got %v", verr.Fields)
	}
	if verr.Fields[domainerrors.FieldEndDate] != "End date must be after start date" {
		t.Fatalf("expected end date violation, got %v", verr.Fields)
	}
}

func TestValidateElectionFieldsCollectsEveryViolation(t *testing.T) {
	verr := domainerrors.NewValidationError()
	out := ValidateElectionFields(ElectionFields{
		Title:       "   ",
		Description: "",
		Options:     []string{"only one"},
	}, verr)

	for _, field := range []string{
		domainerrors.FieldTitle,
		domainerrors.FieldDescription,
		domainerrors.FieldStartDate,
		domainerrors.FieldEndDate,
		domainerrors.FieldOptions,
	} {
		if _, ok := verr.Fields[field]; !ok {
			t.Fatalf("expected violation for %s, got %v", field, verr.Fields)
		}
	}
	if out.Title != "" {
		t.Fatalf("expected trimmed title, got %q", out.Title)
	}
}

func TestValidateElectionFieldsRejectsBlankOption(t *testing.T) {
	start := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	verr := domainerrors.NewValidationError()
	out := ValidateElectionFields(ElectionFields{
		Title:       " Budget ",
		Description: "Approve",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		Options:     []string{" Yes ", "  "},
	}, verr)

	if verr.Fields[domainerrors.FieldOptions] != "All options must have text" {
		t.Fatalf("expected blank option violation, got %v", verr.Fields)
	}
	if out.Title != "Budget" || out.Options[0] != "Yes" {
		t.Fatalf("expected trimmed output, got %+v", out)
	}
}

func TestParseInstantFieldKeepsFirstMessage(t *testing.T) {
	verr := domainerrors.NewValidationError()
	got := ParseInstantField("not-a-date", domainerrors.FieldStartDate, "Start date", verr)
	if !got.IsZero() {
		t.Fatalf("expected zero time, got %s", got)
	}
	ValidateElectionFields(ElectionFields{StartTime: got}, verr)
	if verr.Fields[domainerrors.FieldStartDate] != "Start date must be a valid date and time" {
		t.Fatalf("expected parse message to win, got %q", verr.Fields[domainerrors.FieldStartDate])
	}
}

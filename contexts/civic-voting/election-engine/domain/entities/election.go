package entities

import (
	"strings"
	"time"

	domainerrors "ballotbox/contexts/civic-voting/election-engine/domain/errors"
)

type ElectionStatus string

const (
	ElectionStatusUpcoming  ElectionStatus = "upcoming"
	ElectionStatusActive    ElectionStatus = "active"
	ElectionStatusCompleted ElectionStatus = "completed"
)

func (s ElectionStatus) Valid() bool {
	switch s {
	case ElectionStatusUpcoming, ElectionStatusActive, ElectionStatusCompleted:
		return true
	default:
		return false
	}
}

// DeriveStatus is the only source of an election's status. Both window bounds
// are inclusive for the active state.
func DeriveStatus(startTime time.Time, endTime time.Time, now time.Time) ElectionStatus {
	switch {
	case now.Before(startTime):
		return ElectionStatusUpcoming
	case now.After(endTime):
		return ElectionStatusCompleted
	default:
		return ElectionStatusActive
	}
}

type Option struct {
	OptionID string
	Text     string
	Votes    int
}

// Election owns its options. Status is a read projection filled by WithStatus
// and is never persisted by adapters.
type Election struct {
	ElectionID  string
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Options     []Option
	TotalVotes  int
	Status      ElectionStatus
}

func (e Election) StatusAt(now time.Time) ElectionStatus {
	return DeriveStatus(e.StartTime, e.EndTime, now)
}

// WithStatus returns a copy whose Status reflects now.
func (e Election) WithStatus(now time.Time) Election {
	out := e.Clone()
	out.Status = e.StatusAt(now)
	return out
}

// Clone detaches the options slice so callers cannot mutate store state.
func (e Election) Clone() Election {
	out := e
	out.Options = append([]Option(nil), e.Options...)
	return out
}

func (e Election) Option(optionID string) (Option, bool) {
	optionID = strings.TrimSpace(optionID)
	for _, option := range e.Options {
		if option.OptionID == optionID {
			return option, true
		}
	}
	return Option{}, false
}

// ApplyVote increments the option and election counters. It reports false when
// the option does not belong to the election.
func (e *Election) ApplyVote(optionID string) bool {
	optionID = strings.TrimSpace(optionID)
	for i := range e.Options {
		if e.Options[i].OptionID == optionID {
			e.Options[i].Votes++
			e.TotalVotes++
			return true
		}
	}
	return false
}

// CheckVoteWindow applies the status and option checks of cast_vote, in that
// order. Election existence and duplicate detection belong to the store.
func CheckVoteWindow(e Election, optionID string, now time.Time) error {
	if status := e.StatusAt(now); status != ElectionStatusActive {
		return &domainerrors.InvalidStateError{Status: string(status)}
	}
	if _, ok := e.Option(optionID); !ok {
		return domainerrors.NewNotFound(domainerrors.EntityOption, optionID)
	}
	return nil
}

// ResetTallies zeroes counters; stores recompute them from the vote set.
func (e *Election) ResetTallies() {
	e.TotalVotes = 0
	for i := range e.Options {
		e.Options[i].Votes = 0
	}
}

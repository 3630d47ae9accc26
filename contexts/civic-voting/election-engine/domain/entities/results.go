package entities

import (
	"math"
	"sort"
)

type OptionResult struct {
	OptionID   string
	Text       string
	Votes      int
	Percentage int
	Leading    bool
}

type ElectionResults struct {
	ElectionID string
	Title      string
	Status     ElectionStatus
	TotalVotes int
	Options    []OptionResult
}

// Percentage rounds each option independently, so a result set may not sum to
// exactly 100.
func Percentage(count int, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

// TallyResults keeps option insertion order.
func TallyResults(e Election) ElectionResults {
	maxVotes := 0
	for _, option := range e.Options {
		if option.Votes > maxVotes {
			maxVotes = option.Votes
		}
	}
	items := make([]OptionResult, 0, len(e.Options))
	for _, option := range e.Options {
		items = append(items, OptionResult{
			OptionID:   option.OptionID,
			Text:       option.Text,
			Votes:      option.Votes,
			Percentage: Percentage(option.Votes, e.TotalVotes),
			Leading:    e.TotalVotes > 0 && option.Votes == maxVotes,
		})
	}
	return ElectionResults{
		ElectionID: e.ElectionID,
		Title:      e.Title,
		Status:     e.Status,
		TotalVotes: e.TotalVotes,
		Options:    items,
	}
}

// SortedByVotes orders by votes descending, keeping insertion order on ties.
func (r ElectionResults) SortedByVotes() ElectionResults {
	out := r
	out.Options = append([]OptionResult(nil), r.Options...)
	sort.SliceStable(out.Options, func(i, j int) bool {
		return out.Options[i].Votes > out.Options[j].Votes
	})
	return out
}

// TalliesMatch reports whether the stored counters equal the count of votes
// recorded for the election.
func TalliesMatch(e Election, votes []Vote) bool {
	counts := make(map[string]int, len(e.Options))
	total := 0
	for _, vote := range votes {
		if vote.ElectionID != e.ElectionID {
			continue
		}
		counts[vote.OptionID]++
		total++
	}
	if total != e.TotalVotes {
		return false
	}
	matched := 0
	for _, option := range e.Options {
		if option.Votes != counts[option.OptionID] {
			return false
		}
		matched += option.Votes
	}
	return matched == total
}

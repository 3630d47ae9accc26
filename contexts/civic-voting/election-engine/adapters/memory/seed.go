package memory

import (
	"time"

	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
)

const day = 24 * time.Hour

// Demo user ids shared with the account-service seed.
const (
	DemoAdminID  = "1"
	DemoVoter1ID = "2"
	DemoVoter2ID = "3"
)

// DemoSeed returns the demo board relative to now: one active, one upcoming
// and one completed election, plus the two ballots already cast.
func DemoSeed(now time.Time) Seed {
	now = now.UTC().Truncate(time.Second)
	return Seed{
		Elections: []entities.Election{
			{
				ElectionID:  "1",
				Title:       "Board of Directors Election 2025",
				Description: "Vote for the new board members who will serve for the next two years.",
				StartTime:   now.Add(-2 * day),
				EndTime:     now.Add(5 * day),
				CreatedBy:   DemoAdminID,
				CreatedAt:   now.Add(-10 * day),
				UpdatedAt:   now.Add(-10 * day),
				Options: []entities.Option{
					{OptionID: "101", Text: "Jane Smith"},
					{OptionID: "102", Text: "John Doe"},
					{OptionID: "103", Text: "Alice Johnson"},
				},
			},
			{
				ElectionID:  "2",
				Title:       "Annual Budget Approval",
				Description: "Cast your vote on the proposed budget for the upcoming fiscal year.",
				StartTime:   now.Add(2 * day),
				EndTime:     now.Add(10 * day),
				CreatedBy:   DemoAdminID,
				CreatedAt:   now.Add(-5 * day),
				UpdatedAt:   now.Add(-5 * day),
				Options: []entities.Option{
					{OptionID: "201", Text: "Approve"},
					{OptionID: "202", Text: "Reject"},
					{OptionID: "203", Text: "Abstain"},
				},
			},
			{
				ElectionID:  "3",
				Title:       "Company Name Change Proposal",
				Description: "Vote on whether to adopt the proposed new company name.",
				StartTime:   now.Add(-15 * day),
				EndTime:     now.Add(-1 * day),
				CreatedBy:   DemoAdminID,
				CreatedAt:   now.Add(-20 * day),
				UpdatedAt:   now.Add(-20 * day),
				Options: []entities.Option{
					{OptionID: "301", Text: "Yes - Change the name"},
					{OptionID: "302", Text: "No - Keep current name"},
				},
			},
		},
		Votes: []entities.Vote{
			{VoteID: "1001", UserID: DemoVoter1ID, ElectionID: "1", OptionID: "103", Timestamp: now.Add(-1 * day)},
			{VoteID: "1002", UserID: DemoVoter2ID, ElectionID: "3", OptionID: "302", Timestamp: now.Add(-5 * day)},
		},
	}
}

package http

// JSON field names follow the browser client, so validation keys in
// ErrorResponse.Fields line up with request fields.

type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Status  string            `json:"status,omitempty"`
}

type CreateElectionRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Options     []string `json:"options"`
}

// UpdateElectionRequest is a partial update; omitted fields are unchanged.
type UpdateElectionRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	StartDate   *string   `json:"startDate,omitempty"`
	EndDate     *string   `json:"endDate,omitempty"`
	Options     *[]string `json:"options,omitempty"`
}

type OptionResponse struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

type ElectionResponse struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	StartDate   string           `json:"startDate"`
	EndDate     string           `json:"endDate"`
	Status      string           `json:"status"`
	CreatedBy   string           `json:"createdBy"`
	CreatedAt   string           `json:"createdAt"`
	UpdatedAt   string           `json:"updatedAt"`
	Options     []OptionResponse `json:"options"`
	TotalVotes  int              `json:"totalVotes"`
	HasVoted    *bool            `json:"hasVoted,omitempty"`
	CanVote     *bool            `json:"canVote,omitempty"`
}

type ElectionListResponse struct {
	Items []ElectionResponse `json:"items"`
}

type CastVoteRequest struct {
	OptionID string `json:"optionId"`
}

type VoteResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	ElectionID string `json:"electionId"`
	OptionID   string `json:"optionId"`
	Timestamp  string `json:"timestamp"`
}

type CastVoteResponse struct {
	Vote     VoteResponse     `json:"vote"`
	Election ElectionResponse `json:"election"`
}

type VoteListResponse struct {
	Items []VoteResponse `json:"items"`
}

type OptionResultResponse struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Votes      int    `json:"votes"`
	Percentage int    `json:"percentage"`
	Leading    bool   `json:"leading"`
}

type ElectionResultsResponse struct {
	ElectionID string                 `json:"electionId"`
	Title      string                 `json:"title"`
	Status     string                 `json:"status"`
	TotalVotes int                    `json:"totalVotes"`
	Options    []OptionResultResponse `json:"options"`
}

type DashboardResponse struct {
	Active      int                `json:"active"`
	Upcoming    int                `json:"upcoming"`
	Completed   int                `json:"completed"`
	VotesCast   int                `json:"votesCast"`
	OpenBallots []ElectionResponse `json:"openBallots"`
}

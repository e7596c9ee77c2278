package httpdto

// PollRequest is used for POST /polls and PUT /polls/:id
type PollRequest struct {
	Question string   `json:"question" binding:"required"`
	Options  []string `json:"options" binding:"required"`
}

// PollDTO represents a poll in API responses
type PollDTO struct {
	ID        string   `json:"id"`
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	CreatedAt string   `json:"created_at"`
}

// PollsResponse is returned when listing the actor's polls
type PollsResponse struct {
	Polls []PollDTO `json:"polls"`
}

// VoteRequest is used for POST /polls/:id/votes. OptionIndex is a pointer
// so index 0 survives required binding.
type VoteRequest struct {
	OptionIndex *int `json:"option_index" binding:"required"`
}

// VoteResponse acknowledges a recorded vote
type VoteResponse struct {
	PollID      string `json:"poll_id"`
	OptionIndex int    `json:"option_index"`
}

// OptionResultDTO is one aggregated option row
type OptionResultDTO struct {
	Text       string `json:"text"`
	Position   int    `json:"position"`
	Votes      int    `json:"votes"`
	Percentage int    `json:"percentage"`
}

// ResultsResponse is returned by GET /polls/:id/results
type ResultsResponse struct {
	Question   string            `json:"question"`
	Options    []OptionResultDTO `json:"options"`
	TotalVotes int               `json:"total_votes"`
}

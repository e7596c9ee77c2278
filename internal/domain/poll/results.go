package poll

import "math"

// OptionResult is one aggregated row of a poll's results.
type OptionResult struct {
	Text       string `json:"text"`
	Position   int    `json:"position"`
	Votes      int    `json:"votes"`
	Percentage int    `json:"percentage"`
}

// Results holds the per-option tallies for display.
type Results struct {
	Options    []OptionResult `json:"options"`
	TotalVotes int            `json:"total_votes"`
}

// Percentage returns round(votes/total*100), and 0 when total is 0.
// Rounded percentages may not sum to exactly 100; that is expected.
func Percentage(votes, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(votes) / float64(total) * 100))
}

// BuildResults aggregates raw vote tallies (keyed by option position)
// against a poll's option set. Recomputed on every read.
func BuildResults(options []Option, tallies map[int]int) Results {
	total := 0
	for _, opt := range options {
		total += tallies[opt.Position]
	}

	rows := make([]OptionResult, 0, len(options))
	for _, opt := range options {
		votes := tallies[opt.Position]
		rows = append(rows, OptionResult{
			Text:       opt.Text,
			Position:   opt.Position,
			Votes:      votes,
			Percentage: Percentage(votes, total),
		})
	}

	return Results{Options: rows, TotalVotes: total}
}

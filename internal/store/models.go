package store

import (
	"strings"
	"time"
)

// Result is the outcome of one match from the subject's point of view
type Result string

const (
	ResultWin     Result = "W"
	ResultLoss    Result = "L"
	ResultDraw    Result = "D"
	ResultUnknown Result = ""
)

// ParseResult maps a stored result value onto a Result.
// Both the single-letter codes and the full words are accepted.
func ParseResult(value string) Result {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "w", "win":
		return ResultWin
	case "l", "loss", "lose":
		return ResultLoss
	case "d", "draw":
		return ResultDraw
	default:
		return ResultUnknown
	}
}

// MatchRecord is one played match, normalized across deployment schemas
type MatchRecord struct {
	League       string    `json:"league"`
	Season       string    `json:"season"`
	Player       string    `json:"player"`
	Opponent     string    `json:"opponent"`
	Date         time.Time `json:"date"`
	ScoreFor     int       `json:"score_for"`
	ScoreAgainst int       `json:"score_against"`
	Result       Result    `json:"result"`

	// Only the soccer schema tracks points (3/1/0).
	Points *int `json:"points,omitempty"`
}

package service

import (
	"time"

	"github.com/fortuna/matchboard/internal/store"
)

// Summary is the win/loss tally for one player or team in one season
type Summary struct {
	Plays  int  `json:"plays"`
	Wins   int  `json:"wins"`
	Losses int  `json:"losses"`
	Draws  *int `json:"draws,omitempty"`
	Points *int `json:"points,omitempty"`
}

// SeriesPoint is one (date, value) sample of a chart series
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value int       `json:"value"`
}

// Chart describes the season chart for the selected player or team
type Chart struct {
	Title  string        `json:"title"`
	Mode   string        `json:"mode"`
	Series []SeriesPoint `json:"series"`
}

// Chart titles
const (
	ChartPointsTitle = "Points Accumulation"
	ChartWinsTitle   = "Wins"
	chartMode        = "lines+markers"
)

// SummarizeRecord counts matches by result. Categories absent from the input
// count as zero. Matches with an unrecognized result are not counted, so
// Plays always equals Wins + Losses + Draws.
//
// Draws are reported when a draw occurred or the matches carry points (the
// 3/1/0 scheme admits draws); Points is the sum of points when any match has them.
func SummarizeRecord(matches []store.MatchRecord) Summary {
	var (
		summary   Summary
		draws     int
		points    int
		hasDraws  bool
		hasPoints bool
	)

	for _, m := range matches {
		switch m.Result {
		case store.ResultWin:
			summary.Wins++
		case store.ResultLoss:
			summary.Losses++
		case store.ResultDraw:
			draws++
			hasDraws = true
		}
		if m.Points != nil {
			points += *m.Points
			hasPoints = true
		}
	}

	summary.Plays = summary.Wins + summary.Losses + draws
	if hasDraws || hasPoints {
		summary.Draws = &draws
	}
	if hasPoints {
		summary.Points = &points
	}

	return summary
}

// CumulativePoints returns the running total of points after each match.
// Matches must already be ordered by date; matches without points add zero.
func CumulativePoints(matches []store.MatchRecord) []SeriesPoint {
	series := make([]SeriesPoint, 0, len(matches))
	total := 0
	for _, m := range matches {
		if m.Points != nil {
			total += *m.Points
		}
		series = append(series, SeriesPoint{Date: m.Date, Value: total})
	}
	return series
}

// WinsOverTime returns the running count of wins after each match.
// Matches must already be ordered by date.
func WinsOverTime(matches []store.MatchRecord) []SeriesPoint {
	series := make([]SeriesPoint, 0, len(matches))
	wins := 0
	for _, m := range matches {
		if m.Result == store.ResultWin {
			wins++
		}
		series = append(series, SeriesPoint{Date: m.Date, Value: wins})
	}
	return series
}

// ChartFor picks the season chart for a schema: points accumulation where the
// deployment tracks points, otherwise wins over time.
func ChartFor(schema store.Schema, matches []store.MatchRecord) Chart {
	if schema.HasPoints() {
		return Chart{Title: ChartPointsTitle, Mode: chartMode, Series: CumulativePoints(matches)}
	}
	return Chart{Title: ChartWinsTitle, Mode: chartMode, Series: WinsOverTime(matches)}
}

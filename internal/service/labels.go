package service

import (
	"strings"

	"golang.org/x/text/language"
)

// Table column keys
const (
	ColumnDate         = "date"
	ColumnOpponent     = "opponent"
	ColumnScoreFor     = "score_for"
	ColumnScoreAgainst = "score_against"
	ColumnResult       = "result"
	ColumnPoints       = "points"
)

var supportedLanguages = []language.Tag{
	language.English,
	language.Russian,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

var columnLabels = map[language.Tag]map[string]string{
	language.English: {
		ColumnDate:         "Date",
		ColumnOpponent:     "Opponent",
		ColumnScoreFor:     "For",
		ColumnScoreAgainst: "Against",
		ColumnResult:       "Result",
		ColumnPoints:       "Points",
	},
	language.Russian: {
		ColumnDate:         "Дата",
		ColumnOpponent:     "Соперник",
		ColumnScoreFor:     "Игры_игрока",
		ColumnScoreAgainst: "Игры_соперника",
		ColumnResult:       "Результат_игрока",
		ColumnPoints:       "Очки",
	},
}

// SupportedLanguages lists the languages table labels are available in.
func SupportedLanguages() []language.Tag {
	return append([]language.Tag(nil), supportedLanguages...)
}

// MatchLanguage resolves a language parameter or Accept-Language header value
// to a supported language, returning fallback when nothing matches.
func MatchLanguage(value string, fallback language.Tag) language.Tag {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}

	tags, _, err := language.ParseAcceptLanguage(value)
	if err != nil || len(tags) == 0 {
		return fallback
	}

	_, idx, confidence := languageMatcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	return supportedLanguages[idx]
}

// ColumnLabel returns the display label of a column key in lang.
func ColumnLabel(lang language.Tag, column string) string {
	labels, ok := columnLabels[lang]
	if !ok {
		labels = columnLabels[language.English]
	}
	if label, ok := labels[column]; ok {
		return label
	}
	return column
}

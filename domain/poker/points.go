package poker

import "github.com/samber/lo"

// AvailablePoints is the only supported scale. No value may contain "-",
// the callback separator.
var AvailablePoints = []string{
	"1", "2", "3", "4", "5", "6",
	"8", "12", "14", "16", "18",
	"20", "28", "40", JokerUnsure, JokerBreak,
}

const (
	JokerUnsure = "❔"
	JokerBreak  = "☕"
)

var jokers = []string{JokerUnsure, JokerBreak}

// halfPoints splits the scale into the two keyboard rows.
var halfPoints = len(AvailablePoints) / 2

func IsJoker(point string) bool {
	return lo.Contains(jokers, point)
}

func IsAvailablePoint(point string) bool {
	return lo.Contains(AvailablePoints, point)
}

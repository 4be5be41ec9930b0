package statistics

import "math"

// HeatmapColours runs from a dark red at 0 to a deep green at 10.
var HeatmapColours = [...]string{
	"#4d0000", // 0
	"#660000", // 1
	"#800000", // 2
	"#a50026", // 3
	"#d73027", // 4
	"#f46d43", // 5
	"#fdae61", // 6
	"#fee08b", // 7
	"#a6d96a", // 8
	"#1a9850", // 9
	"#006837", // 10
}

// HeatmapColour maps a score on the 0..10 scale to its colour. Scores
// outside the scale are clamped.
func HeatmapColour(score int) string {
	return HeatmapColours[max(0, min(len(HeatmapColours)-1, score))]
}

// ColourForPercentage scales a percentage to the 10-point heatmap, so a
// 10-question quiz colours score n with HeatmapColours[n].
func ColourForPercentage(percentage int) string {
	return HeatmapColour(int(math.Round(float64(percentage) / 10)))
}

// Tier is a semantic bucket for a day's percentage.
type Tier string

const (
	TierPerfect Tier = "perfect"
	TierGood    Tier = "good"
	TierFair    Tier = "fair"
	TierPoor    Tier = "poor"
	TierBad     Tier = "bad"
)

// TierForPercentage buckets a percentage: 100 perfect, >=70 good,
// >=60 fair, >=50 poor, below that bad. Input is clamped to 0..100.
func TierForPercentage(percentage int) Tier {
	p := max(0, min(100, percentage))
	switch {
	case p == 100:
		return TierPerfect
	case p >= 70:
		return TierGood
	case p >= 60:
		return TierFair
	case p >= 50:
		return TierPoor
	default:
		return TierBad
	}
}

// AccentColour is the UI accent for a tier. Poor and bad days share red.
func (t Tier) AccentColour() string {
	switch t {
	case TierPerfect:
		return "green"
	case TierGood:
		return "blue"
	case TierFair:
		return "amber"
	default:
		return "red"
	}
}

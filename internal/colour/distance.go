package colour

import "math"

// DefaultMergeThreshold is the Redmean distance below which two colours are
// treated as the same palette entry. It absorbs anti-aliasing and rounding
// drift of one or two units per channel and nothing larger.
const DefaultMergeThreshold = 2.3

// Distance returns the Redmean weighted distance between two colours:
//
//	sqrt((2 + r̄/256)·ΔR² + 4·ΔG² + (2 + (255−r̄)/256)·ΔB²)
//
// where r̄ is the mean of the two red channels. Alpha is ignored.
func Distance(c1, c2 RGBA) float64 {
	rMean := (float64(c1.R) + float64(c2.R)) / 2
	dr := float64(c1.R) - float64(c2.R)
	dg := float64(c1.G) - float64(c2.G)
	db := float64(c1.B) - float64(c2.B)

	return math.Sqrt((2+rMean/256)*dr*dr + 4*dg*dg + (2+(255-rMean)/256)*db*db)
}

// IsVisuallySimilar reports whether Distance(c1, c2) is strictly below threshold.
func IsVisuallySimilar(c1, c2 RGBA, threshold float64) bool {
	return Distance(c1, c2) < threshold
}

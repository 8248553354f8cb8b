package road

import "github.com/Alias1177/Baccarat/models"

// Derived road lags
const (
	BigEyeLag    = 1
	SmallLag     = 2
	CockroachLag = 3
)

// DeriveSubroads compares each column's length with the column lag places
// before it: equal lengths are red, different lengths are blue. This is a
// simplified reading of the traditional derived roads and ignores tie marks
// and column height parity.
func DeriveSubroads(cols []models.Column) models.Subroads {
	lens := Lengths(cols)
	return models.Subroads{
		BigEye:    compareAtLag(lens, BigEyeLag),
		Small:     compareAtLag(lens, SmallLag),
		Cockroach: compareAtLag(lens, CockroachLag),
	}
}

func compareAtLag(lens []int, lag int) []models.Color {
	var colors []models.Color
	for i := lag; i < len(lens); i++ {
		if lens[i] == lens[i-lag] {
			colors = append(colors, models.Red)
		} else {
			colors = append(colors, models.Blue)
		}
	}
	return colors
}

// Package road builds the big road and its derived roads from a result log.
package road

import "github.com/Alias1177/Baccarat/models"

// BuildColumns groups the non-tie rounds into runs of the same outcome.
// Ties neither open, extend nor close a column.
func BuildColumns(results []models.Outcome) []models.Column {
	var cols []models.Column
	var last models.Outcome

	for _, r := range results {
		if r == models.Tie {
			continue
		}
		if len(cols) > 0 && r == last {
			cols[len(cols)-1] = append(cols[len(cols)-1], r)
			continue
		}
		cols = append(cols, models.Column{r})
		last = r
	}

	return cols
}

// Lengths returns the height of every column
func Lengths(cols []models.Column) []int {
	lens := make([]int, len(cols))
	for i, c := range cols {
		lens[i] = len(c)
	}
	return lens
}

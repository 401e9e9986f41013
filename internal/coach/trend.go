package coach

import (
	"time"

	"github.com/abhisek/equilibrium/internal/sessionlog"
)

// TrendWindow is the number of records a trend covers.
const TrendWindow = 7

// TrendPoint is one score on the trend chart.
type TrendPoint struct {
	LogID string    `json:"logId"`
	Date  time.Time `json:"date"`
	Score int       `json:"score"`
}

// Trend takes records ordered most recent first and returns the latest
// TrendWindow of them oldest first.
func Trend(recs []sessionlog.Record) []TrendPoint {
	if len(recs) > TrendWindow {
		recs = recs[:TrendWindow]
	}
	points := make([]TrendPoint, len(recs))
	for i, r := range recs {
		points[len(recs)-1-i] = TrendPoint{LogID: r.ID, Date: r.LoggedAt, Score: r.Score}
	}
	return points
}

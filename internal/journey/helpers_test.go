package journey

import (
	"fmt"
	"time"

	"github.com/walkplan/walkplan/pkg/polyline"
)

var testNow = time.Date(2025, 6, 3, 10, 30, 0, 0, time.UTC)

func fixedCalendar(now time.Time) Calendar {
	return NewCalendar(time.UTC, func() time.Time { return now })
}

// newTestJourney builds an active journey of n days, day 1 dated start,
// each day 10 km heading east.
func newTestJourney(id string, n int, start time.Time, cal Calendar) *Journey {
	j := &Journey{
		ID:        id,
		Title:     DefaultTitle("Ghent", "Bruges"),
		Start:     Location{Name: "Ghent", Point: polyline.Coordinate{Lat: 51.05, Lon: 3.72}},
		End:       Location{Name: "Bruges", Point: polyline.Coordinate{Lat: 51.05, Lon: 3.72 + 0.1*float64(n)}},
		StartDate: cal.Day(start),
		EndDate:   cal.AddDays(start, n-1),
		Status:    StatusActive,
		CreatedAt: start,
	}

	for i := 0; i < n; i++ {
		date := cal.AddDays(start, i)
		j.DayRoutes = append(j.DayRoutes, &DayRoute{
			ID:        fmt.Sprintf("%s-day-%d", id, i+1),
			JourneyID: id,
			DayNumber: i + 1,
			Date:      date,
			Start:     Location{Name: fmt.Sprintf("Stop %d", i), Point: polyline.Coordinate{Lat: 51.05, Lon: 3.72 + 0.1*float64(i)}},
			End:       Location{Name: fmt.Sprintf("Stop %d", i+1), Point: polyline.Coordinate{Lat: 51.05, Lon: 3.72 + 0.1*float64(i+1)}},
			Distance:  10000,
			Status:    cal.InitialDayStatus(date),
		})
		j.TotalDistance += 10000
	}
	return j
}

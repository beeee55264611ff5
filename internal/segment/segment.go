// Package segment splits a walking route polyline into per-day segments of
// roughly equal length.
package segment

import "github.com/walkplan/walkplan/pkg/polyline"

// DaySegment is one day's portion of a route.
type DaySegment struct {
	DayNumber int                 `json:"dayNumber"`
	Start     polyline.Coordinate `json:"start"`
	End       polyline.Coordinate `json:"end"`
	Distance  float64             `json:"distance"`
}

// Split divides the route described by points into numberOfDays segments.
//
// Interior days carry exactly totalDistance/numberOfDays meters, split points
// are interpolated along the polyline edge where the target is reached, and
// the last day absorbs whatever remains so the distances always sum to
// totalDistance. totalDistance is the provider's figure and is trusted even
// when it differs from the polyline's geometric length.
//
// Split returns nil when numberOfDays < 1 or there are fewer than two points.
func Split(points []polyline.Coordinate, totalDistance float64, numberOfDays int) []DaySegment {
	if numberOfDays < 1 || len(points) < 2 {
		return nil
	}

	last := points[len(points)-1]

	if numberOfDays == 1 {
		return []DaySegment{{
			DayNumber: 1,
			Start:     points[0],
			End:       last,
			Distance:  totalDistance,
		}}
	}

	dailyTarget := totalDistance / float64(numberOfDays)
	segments := make([]DaySegment, 0, numberOfDays)

	cursor := 1
	prev := points[0]
	start := points[0]
	var accumulated float64

	for day := 1; day <= numberOfDays; day++ {
		if day == numberOfDays {
			segments = append(segments, DaySegment{
				DayNumber: day,
				Start:     start,
				End:       last,
				Distance:  totalDistance - accumulated,
			})
			break
		}

		var walked float64
		closed := false

		for cursor < len(points) {
			next := points[cursor]
			edge := polyline.Distance(prev, next)

			if walked+edge >= dailyTarget {
				var fraction float64
				if edge > 0 {
					fraction = (dailyTarget - walked) / edge
				}
				split := polyline.Interpolate(prev, next, fraction)

				segments = append(segments, DaySegment{
					DayNumber: day,
					Start:     start,
					End:       split,
					Distance:  dailyTarget,
				})
				accumulated += dailyTarget
				start = split
				prev = split
				closed = true
				break
			}

			walked += edge
			prev = next
			cursor++
		}

		if !closed {
			// Polyline exhausted before reaching the daily target.
			end := points[min(cursor, len(points)-1)]
			segments = append(segments, DaySegment{
				DayNumber: day,
				Start:     start,
				End:       end,
				Distance:  walked,
			})
			accumulated += walked
			start = end
		}
	}

	return segments
}

// Total returns the summed distance of segs.
func Total(segs []DaySegment) float64 {
	var total float64
	for _, s := range segs {
		total += s.Distance
	}
	return total
}

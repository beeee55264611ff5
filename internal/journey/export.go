package journey

import (
	"fmt"
	"io"

	kml "github.com/twpayne/go-kml"
)

// WriteKML renders a journey as a KML document with one line placemark per
// day, in day order.
func WriteKML(w io.Writer, j *Journey) error {
	children := []kml.Element{
		kml.Name(j.Title),
		kml.Description(fmt.Sprintf("%s to %s, %.1f km over %d days",
			j.Start.Name, j.End.Name, j.TotalDistance/1000, len(j.DayRoutes))),
	}

	for _, d := range j.SortedDayRoutes() {
		children = append(children, kml.Placemark(
			kml.Name(fmt.Sprintf("Day %d: %s → %s", d.DayNumber, d.Start.Name, d.End.Name)),
			kml.Description(fmt.Sprintf("%s, %.1f km, %s",
				d.Date.Format("2006-01-02"), d.Distance/1000, d.Status)),
			kml.LineString(
				kml.Coordinates(
					kml.Coordinate{Lon: d.Start.Point.Lon, Lat: d.Start.Point.Lat},
					kml.Coordinate{Lon: d.End.Point.Lon, Lat: d.End.Point.Lat},
				),
			),
		))
	}

	return kml.KML(kml.Document(children...)).WriteIndent(w, "", "  ")
}

package openrouteservice

// directionsRequest is the ORS directions request body.
type directionsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"` // [lon, lat]
	Instructions bool        `json:"instructions"`
	Geometry     bool        `json:"geometry"`
	Elevation    bool        `json:"elevation"`
	Units        string      `json:"units"`
}

type directionsResponse struct {
	Routes []directionsRoute `json:"routes"`
	BBox   []float64         `json:"bbox,omitempty"`
}

type directionsRoute struct {
	Summary  routeSummary `json:"summary"`
	BBox     []float64    `json:"bbox,omitempty"`
	Geometry string       `json:"geometry"`
}

type routeSummary struct {
	Distance float64 `json:"distance"` // meters
	Duration float64 `json:"duration"` // seconds
}

// errorResponse is the ORS error envelope.
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ORS internal error codes.
const (
	errorCodePointNotFound = 2010 // a point could not be snapped to the network
	errorCodeRouteNotFound = 2009
	errorCodeDistanceLimit = 2004 // request exceeds the server's distance limit
)

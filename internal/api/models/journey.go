package models

import (
	"github.com/walkplan/walkplan/internal/activity"
	"github.com/walkplan/walkplan/internal/journey"
)

// JourneyDetail is a journey with its dashboard figures.
type JourneyDetail struct {
	*journey.Journey
	Progress journey.Progress `json:"progress"`
}

// JourneyList is a list of journeys.
type JourneyList struct {
	Journeys []*journey.Journey `json:"journeys"`
}

// ReplanDefaults pre-fills the route modification screen for a day.
type ReplanDefaults struct {
	JourneyID     string            `json:"journeyId"`
	Day           *journey.DayRoute `json:"day"`
	Destination   journey.Location  `json:"destination"`
	RemainingDays int               `json:"remainingDays"`
}

// ReplanRequest is the body of POST /v1/days/{dayId}/replan.
type ReplanRequest struct {
	NewEnd        *PlaceInput `json:"newEnd"`
	RemainingDays int         `json:"remainingDays"`
}

// Validate returns field errors for a malformed request.
func (r ReplanRequest) Validate() []FieldError {
	var errs []FieldError
	if r.NewEnd == nil {
		errs = append(errs, FieldError{Field: "newEnd", Message: "is required", Code: "required"})
	}
	if r.RemainingDays < 1 {
		errs = append(errs, FieldError{Field: "remainingDays", Message: "must be at least 1", Code: "range"})
	}
	return errs
}

// JournalTextRequest is the body of PUT /v1/days/{dayId}/journal/text.
type JournalTextRequest struct {
	Text string `json:"text"`
}

// PhotoOrderRequest is the body of PUT /v1/days/{dayId}/journal/photos:order.
type PhotoOrderRequest struct {
	PhotoIDs []string `json:"photoIds"`
}

// RecordSamplesRequest is the body of POST /v1/activity/samples.
type RecordSamplesRequest struct {
	Samples []activity.Sample `json:"samples"`
}

// RecordSamplesResponse reports how many samples were accepted.
type RecordSamplesResponse struct {
	Accepted int `json:"accepted"`
}

// ActivityTotalsResponse is the activity recorded in [From, To).
type ActivityTotalsResponse struct {
	From   Timestamp       `json:"from"`
	To     Timestamp       `json:"to"`
	Totals activity.Totals `json:"totals"`
}

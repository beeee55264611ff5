package journey

// StatusChanges maps day route IDs to their new status.
type StatusChanges map[string]DayStatus

// RefreshDayStatuses aligns day statuses with the calendar: the day dated
// today becomes today and future days become upcoming. Completed and skipped
// days are never touched, and past days keep whatever status they had; no
// day is ever marked missed automatically.
//
// The days are updated in place and the changes are returned.
func RefreshDayStatuses(days []*DayRoute, cal Calendar) StatusChanges {
	today := cal.Today()
	changes := StatusChanges{}

	for _, d := range days {
		if d.Status.Settled() {
			continue
		}

		var want DayStatus
		switch offset := cal.DaysBetween(today, d.Date); {
		case offset == 0:
			want = DayToday
		case offset > 0:
			want = DayUpcoming
		default:
			continue
		}

		if d.Status != want {
			d.Status = want
			changes[d.ID] = want
		}
	}

	return changes
}

// AllDaysCompleted reports whether every day route is completed.
func AllDaysCompleted(days []*DayRoute) bool {
	if len(days) == 0 {
		return false
	}
	for _, d := range days {
		if d.Status != DayCompleted {
			return false
		}
	}
	return true
}

// Progress summarizes how far a journey has come.
type Progress struct {
	TotalDays         int       `json:"totalDays"`
	CompletedDays     int       `json:"completedDays"`
	SkippedDays       int       `json:"skippedDays"`
	CompletionRate    float64   `json:"completionRate"`
	CompletedDistance float64   `json:"completedDistance"`
	RemainingDistance float64   `json:"remainingDistance"`
	Today             *DayRoute `json:"today,omitempty"`
}

// ComputeProgress derives the dashboard figures for j. Remaining distance
// counts days that are still upcoming or due today.
func ComputeProgress(j *Journey) Progress {
	p := Progress{TotalDays: len(j.DayRoutes)}

	for _, d := range j.SortedDayRoutes() {
		switch d.Status {
		case DayCompleted:
			p.CompletedDays++
			p.CompletedDistance += d.Distance
		case DaySkipped:
			p.SkippedDays++
		case DayToday:
			p.RemainingDistance += d.Distance
			if p.Today == nil {
				p.Today = d
			}
		case DayUpcoming:
			p.RemainingDistance += d.Distance
		}
	}

	if p.TotalDays > 0 {
		p.CompletionRate = float64(p.CompletedDays) / float64(p.TotalDays)
	}
	return p
}

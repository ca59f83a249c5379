package fleetdf

import "time"

type TransitionDirection string

const (
	TransitionEnter TransitionDirection = "ENTER"
	TransitionExit  TransitionDirection = "EXIT"
)

type TransitionCategory string

const (
	TransitionCategoryZone    TransitionCategory = "BlackDotZone"
	TransitionCategoryStation TransitionCategory = "Station"
)

// TransitionEvent records a vehicle crossing a circular boundary. Zone
// and station transitions are independent state machines per vehicle,
// so a single report can produce one of each.
type TransitionEvent struct {
	PlateNumber string

	Category  TransitionCategory
	Direction TransitionDirection

	StationID string

	RecordedAt time.Time
}

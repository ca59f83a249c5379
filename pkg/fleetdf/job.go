package fleetdf

import "time"

type WaypointKind string

const (
	WaypointKindLoading      WaypointKind = "Loading"
	WaypointKindQualityCheck WaypointKind = "QualityCheck"
	WaypointKindUnloading    WaypointKind = "Unloading"
)

// Job is a linear sequence of waypoints worked through by one vehicle.
// Waypoints are embedded so that a whole workflow transition is a
// single document update.
type Job struct {
	PrimaryIdentifier string

	PlateNumber string

	// SameStation means loading and quality-check are co-located, so the
	// quality-check step is collapsed into the loading visit.
	SameStation bool

	WorkflowStep     int
	WorkflowProgress *int

	Waypoints []*Waypoint

	CreationDateTime     time.Time
	ModificationDateTime time.Time

	FinishedAt *time.Time
}

type Waypoint struct {
	Step int

	StationID string
	Kind      WaypointKind

	Latitude  float64
	Longitude float64
	Radius    float64

	ArrivedAt  *time.Time
	DepartedAt *time.Time

	Completed bool
}

// WaypointAtStep returns the waypoint with the given step, or nil.
func (j *Job) WaypointAtStep(step int) *Waypoint {
	for _, waypoint := range j.Waypoints {
		if waypoint.Step == step {
			return waypoint
		}
	}

	return nil
}

// NextIncompleteWaypoint returns the lowest-step incomplete waypoint at
// or after fromStep, or nil when the job has none left.
func (j *Job) NextIncompleteWaypoint(fromStep int) *Waypoint {
	var next *Waypoint

	for _, waypoint := range j.Waypoints {
		if waypoint.Step < fromStep || waypoint.Completed {
			continue
		}

		if next == nil || waypoint.Step < next.Step {
			next = waypoint
		}
	}

	return next
}

func (w *Waypoint) StationPoint() *StationPoint {
	return &StationPoint{
		StationID: w.StationID,
		Latitude:  w.Latitude,
		Longitude: w.Longitude,
		Radius:    w.Radius,
	}
}

package tracker

import (
	"time"

	"github.com/fleettrack/fleettrack/pkg/fleetdf"
	"github.com/fleettrack/fleettrack/pkg/geomath"
)

// Evaluator detects geofence transitions by comparing a report's
// position against the zone snapshot and the vehicle's target station.
// Zones and station are independent state machines, so one report can
// yield at most one event of each category.
type Evaluator struct {
	forceEvaluate bool
}

func NewEvaluator(forceEvaluate bool) *Evaluator {
	return &Evaluator{
		forceEvaluate: forceEvaluate,
	}
}

// Evaluate mutates the membership flags on state and returns the
// resulting transitions. Stationary vehicles are skipped entirely
// unless force-evaluate is on - parked vehicles drifting around a
// boundary would otherwise generate noise.
func (e *Evaluator) Evaluate(report *fleetdf.PositionReport, state *fleetdf.VehicleTrackingState, zones []fleetdf.GeofenceZone) ([]fleetdf.TransitionEvent, error) {
	if !report.Moving() && !e.forceEvaluate {
		return nil, nil
	}

	recordedAt := time.Now()
	if report.Timestamp != 0 {
		recordedAt = time.UnixMilli(report.Timestamp)
	}

	var events []fleetdf.TransitionEvent

	zoneEvent, err := e.evaluateZones(report, state, zones, recordedAt)
	if err != nil {
		return nil, err
	}
	if zoneEvent != nil {
		events = append(events, *zoneEvent)
	}

	stationEvent, err := e.evaluateStation(report, state, recordedAt)
	if err != nil {
		return nil, err
	}
	if stationEvent != nil {
		events = append(events, *stationEvent)
	}

	return events, nil
}

// evaluateZones runs the black-dot membership state machine. The
// membership flag covers all zones at once: ENTER fires on the first
// zone whose radius strictly contains the position, EXIT only once the
// position is strictly outside every zone. Boundary equality never
// transitions in either direction.
func (e *Evaluator) evaluateZones(report *fleetdf.PositionReport, state *fleetdf.VehicleTrackingState, zones []fleetdf.GeofenceZone, recordedAt time.Time) (*fleetdf.TransitionEvent, error) {
	if !state.InBlackDotZone {
		for _, zone := range zones {
			distance, err := geomath.Distance(report.Latitude, report.Longitude, zone.Latitude, zone.Longitude)
			if err != nil {
				return nil, err
			}

			if distance < zone.Radius {
				state.InBlackDotZone = true

				return &fleetdf.TransitionEvent{
					PlateNumber: state.PlateNumber,
					Category:    fleetdf.TransitionCategoryZone,
					Direction:   fleetdf.TransitionEnter,
					StationID:   zone.StationID,
					RecordedAt:  recordedAt,
				}, nil
			}
		}

		return nil, nil
	}

	var nearestZoneID string
	nearestDistance := -1.0

	for _, zone := range zones {
		distance, err := geomath.Distance(report.Latitude, report.Longitude, zone.Latitude, zone.Longitude)
		if err != nil {
			return nil, err
		}

		if !(distance > zone.Radius) {
			// Still inside (or exactly on the boundary of) this zone
			return nil, nil
		}

		if nearestDistance < 0 || distance < nearestDistance {
			nearestDistance = distance
			nearestZoneID = zone.StationID
		}
	}

	if len(zones) == 0 {
		return nil, nil
	}

	state.InBlackDotZone = false

	return &fleetdf.TransitionEvent{
		PlateNumber: state.PlateNumber,
		Category:    fleetdf.TransitionCategoryZone,
		Direction:   fleetdf.TransitionExit,
		StationID:   nearestZoneID,
		RecordedAt:  recordedAt,
	}, nil
}

func (e *Evaluator) evaluateStation(report *fleetdf.PositionReport, state *fleetdf.VehicleTrackingState, recordedAt time.Time) (*fleetdf.TransitionEvent, error) {
	if state.TargetStation == nil || !state.HasActiveJob() {
		return nil, nil
	}

	station := state.TargetStation

	distance, err := geomath.Distance(report.Latitude, report.Longitude, station.Latitude, station.Longitude)
	if err != nil {
		return nil, err
	}

	if distance < station.Radius && !state.AtTargetStation {
		state.AtTargetStation = true

		return &fleetdf.TransitionEvent{
			PlateNumber: state.PlateNumber,
			Category:    fleetdf.TransitionCategoryStation,
			Direction:   fleetdf.TransitionEnter,
			StationID:   station.StationID,
			RecordedAt:  recordedAt,
		}, nil
	}

	if distance > station.Radius && state.AtTargetStation {
		state.AtTargetStation = false

		return &fleetdf.TransitionEvent{
			PlateNumber: state.PlateNumber,
			Category:    fleetdf.TransitionCategoryStation,
			Direction:   fleetdf.TransitionExit,
			StationID:   station.StationID,
			RecordedAt:  recordedAt,
		}, nil
	}

	return nil, nil
}

package fleetdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpectedArrivalProgress(t *testing.T) {
	assert.Equal(t, 3, ExpectedArrivalProgress(0))
	assert.Equal(t, 7, ExpectedArrivalProgress(1))
	assert.Equal(t, 11, ExpectedArrivalProgress(2))
}

func TestExpectedDepartureProgress(t *testing.T) {
	assert.Equal(t, 6, ExpectedDepartureProgress(0, false))
	assert.Equal(t, 10, ExpectedDepartureProgress(1, false))

	// Same-station skip jumps to the skipped step's departed marker
	assert.Equal(t, 10, ExpectedDepartureProgress(0, true))
}

func TestSameStationSkip(t *testing.T) {
	assert.True(t, SameStationSkip(true, 0))
	assert.False(t, SameStationSkip(true, 1))
	assert.False(t, SameStationSkip(false, 0))
}

func TestNextStep(t *testing.T) {
	assert.Equal(t, 1, NextStep(0, false))
	assert.Equal(t, 2, NextStep(0, true))
	assert.Equal(t, 3, NextStep(2, false))
}

func TestNextIncompleteWaypoint(t *testing.T) {
	job := &Job{
		Waypoints: []*Waypoint{
			{Step: 0, StationID: "S0", Completed: true},
			{Step: 1, StationID: "S1", Completed: true},
			{Step: 2, StationID: "S2"},
		},
	}

	next := job.NextIncompleteWaypoint(1)
	assert.Equal(t, "S2", next.StationID)

	assert.Nil(t, job.NextIncompleteWaypoint(3))

	job.Waypoints[2].Completed = true
	assert.Nil(t, job.NextIncompleteWaypoint(0))
}

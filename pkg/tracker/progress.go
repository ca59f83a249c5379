package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/fleettrack/fleettrack/pkg/fleetdf"
)

// JobStore reads and writes job documents in the backing store. The
// whole waypoint array and progress counter are written back in one
// update so a transition can never be half-applied.
type JobStore interface {
	FindJob(ctx context.Context, jobID string) (*fleetdf.Job, error)
	UpdateJob(ctx context.Context, job *fleetdf.Job) error
}

// ProgressResult describes what a station transition did to the job.
type ProgressResult struct {
	Advanced     bool
	JobCompleted bool

	Progress int
}

// ProgressEngine advances a job's workflow when the vehicle crosses its
// target station boundary. Drivers can confirm phases manually from the
// app, so the engine only auto-advances when the counter is behind - a
// confirmed phase is never written twice and never regressed.
type ProgressEngine struct {
	store JobStore

	timeout time.Duration
}

func NewProgressEngine(store JobStore, timeout time.Duration) *ProgressEngine {
	return &ProgressEngine{
		store:   store,
		timeout: timeout,
	}
}

// HandleStationTransition applies a station ENTER/EXIT to the vehicle's
// active job. The in-memory state is only mutated after the store write
// succeeds; on error the transition is abandoned whole.
func (e *ProgressEngine) HandleStationTransition(ctx context.Context, state *fleetdf.VehicleTrackingState, event fleetdf.TransitionEvent) (*ProgressResult, error) {
	if !state.HasActiveJob() {
		return &ProgressResult{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	switch event.Direction {
	case fleetdf.TransitionEnter:
		return e.handleArrival(ctx, state, event)
	case fleetdf.TransitionExit:
		return e.handleDeparture(ctx, state, event)
	}

	return &ProgressResult{}, nil
}

func (e *ProgressEngine) handleArrival(ctx context.Context, state *fleetdf.VehicleTrackingState, event fleetdf.TransitionEvent) (*ProgressResult, error) {
	expected := fleetdf.ExpectedArrivalProgress(state.WorkflowStep)

	// Driver already confirmed arrival (or a later phase of this step)
	// manually - progress never moves backwards within a job
	if *state.WorkflowProgress >= expected {
		return &ProgressResult{}, nil
	}

	job, err := e.store.FindJob(ctx, state.ActiveJobID)
	if err != nil {
		return nil, err
	}

	waypoint := job.WaypointAtStep(state.WorkflowStep)
	if waypoint == nil {
		return nil, fmt.Errorf("job %s has no waypoint at step %d", job.PrimaryIdentifier, state.WorkflowStep)
	}

	arrivedAt := event.RecordedAt
	waypoint.ArrivedAt = &arrivedAt
	job.WorkflowProgress = &expected
	job.ModificationDateTime = time.Now()

	if err := e.store.UpdateJob(ctx, job); err != nil {
		return nil, err
	}

	state.WorkflowProgress = &expected

	return &ProgressResult{
		Advanced: true,
		Progress: expected,
	}, nil
}

func (e *ProgressEngine) handleDeparture(ctx context.Context, state *fleetdf.VehicleTrackingState, event fleetdf.TransitionEvent) (*ProgressResult, error) {
	skip := fleetdf.SameStationSkip(state.SameStation, state.WorkflowStep)
	expected := fleetdf.ExpectedDepartureProgress(state.WorkflowStep, skip)

	// Already at or past departure for this step
	if *state.WorkflowProgress >= expected {
		return &ProgressResult{}, nil
	}

	job, err := e.store.FindJob(ctx, state.ActiveJobID)
	if err != nil {
		return nil, err
	}

	waypoint := job.WaypointAtStep(state.WorkflowStep)
	if waypoint == nil {
		return nil, fmt.Errorf("job %s has no waypoint at step %d", job.PrimaryIdentifier, state.WorkflowStep)
	}

	departedAt := event.RecordedAt
	waypoint.DepartedAt = &departedAt
	waypoint.Completed = true

	if skip {
		if skipped := job.WaypointAtStep(state.WorkflowStep + 1); skipped != nil {
			skipped.Completed = true
		}
	}

	nextStep := fleetdf.NextStep(state.WorkflowStep, skip)
	next := job.NextIncompleteWaypoint(nextStep)
	job.ModificationDateTime = time.Now()

	if next == nil {
		finished := fleetdf.ProgressFinished
		finishedAt := event.RecordedAt

		job.WorkflowProgress = &finished
		job.FinishedAt = &finishedAt

		if err := e.store.UpdateJob(ctx, job); err != nil {
			return nil, err
		}

		state.ClearJob()

		return &ProgressResult{
			Advanced:     true,
			JobCompleted: true,
			Progress:     finished,
		}, nil
	}

	job.WorkflowStep = next.Step
	job.WorkflowProgress = &expected

	if err := e.store.UpdateJob(ctx, job); err != nil {
		return nil, err
	}

	state.WorkflowStep = next.Step
	state.WorkflowProgress = &expected
	state.TargetStation = next.StationPoint()
	state.AtTargetStation = false

	return &ProgressResult{
		Advanced: true,
		Progress: expected,
	}, nil
}

package fleetdf

// Workflow progress encodes a job's position as step*4 + phase. The
// phase offsets match what the driver app writes when the driver
// confirms a phase manually, so GPS auto-advancement and manual
// confirmation share one counter.
const (
	PhaseArrived      = 3
	PhaseStartedWork  = 4
	PhaseFinishedWork = 5
	PhaseDeparted     = 6

	// ProgressFinished is the sentinel meaning the job has completed.
	ProgressFinished = 0

	phasesPerStep = 4
)

func ExpectedArrivalProgress(step int) int {
	return step*phasesPerStep + PhaseArrived
}

// ExpectedDepartureProgress returns the departed marker for a step. A
// same-station skip jumps straight to the skipped step's departed
// marker, as the quality-check happens during the loading visit.
func ExpectedDepartureProgress(step int, sameStationSkip bool) int {
	progress := step*phasesPerStep + PhaseDeparted

	if sameStationSkip {
		progress += phasesPerStep
	}

	return progress
}

// SameStationSkip applies only at the loading step of a co-located job.
func SameStationSkip(sameStation bool, step int) bool {
	return sameStation && step == 0
}

// NextStep returns the step to advance to after departing the given
// step, skipping the co-located quality-check step when applicable.
func NextStep(step int, sameStationSkip bool) int {
	if sameStationSkip {
		return step + 2
	}

	return step + 1
}

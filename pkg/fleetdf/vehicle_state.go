package fleetdf

// VehicleTrackingState is the mutable per-vehicle state owned by the
// stream processor. Created lazily on the first relevant report, only
// ever evicted by a full cache reload. The membership flags reflect
// nothing but the most recently evaluated position.
type VehicleTrackingState struct {
	PlateNumber string

	InBlackDotZone  bool
	AtTargetStation bool

	ActiveJobID string
	SameStation bool

	WorkflowStep int
	// WorkflowProgress is nil when the vehicle has no tracked workflow,
	// ProgressFinished once the job has completed.
	WorkflowProgress *int

	TargetStation *StationPoint
}

func (s *VehicleTrackingState) HasActiveJob() bool {
	return s.ActiveJobID != "" && s.WorkflowProgress != nil
}

// ClearJob resets the job-related fields after a job completes.
func (s *VehicleTrackingState) ClearJob() {
	s.ActiveJobID = ""
	s.SameStation = false
	s.WorkflowStep = 0
	s.WorkflowProgress = nil
	s.TargetStation = nil
	s.AtTargetStation = false
}

package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/fleettrack/fleettrack/pkg/fleetdf"
	"github.com/rs/zerolog/log"
)

// DirtySignal is the shared key-value flag protocol used by the admin
// side to tell running processors that reference data changed.
type DirtySignal interface {
	ZonesDirty(ctx context.Context) (bool, error)
	ClearZonesDirty(ctx context.Context) error

	// ChangedJobIDs returns nil when the jobs flag is not set.
	ChangedJobIDs(ctx context.Context) ([]string, error)
	ClearJobsDirty(ctx context.Context, jobIDs []string) error
}

// SnapshotLoader performs the bulk reads against the backing store.
type SnapshotLoader interface {
	LoadZones(ctx context.Context) ([]fleetdf.GeofenceZone, error)

	// LoadJobs returns the current state of the given jobs, including
	// ones that have since completed.
	LoadJobs(ctx context.Context, jobIDs []string) ([]*fleetdf.Job, error)
}

// StateStore owns every VehicleTrackingState in this process plus the
// current zone snapshot. It is rebuilt from the backing store at
// startup and refreshed whenever the dirty signal fires.
type StateStore struct {
	signal DirtySignal
	loader SnapshotLoader

	timeout time.Duration

	mutex    sync.RWMutex
	vehicles map[string]*fleetdf.VehicleTrackingState
	zones    []fleetdf.GeofenceZone
}

func NewStateStore(signal DirtySignal, loader SnapshotLoader, timeout time.Duration) *StateStore {
	return &StateStore{
		signal:  signal,
		loader:  loader,
		timeout: timeout,

		vehicles: map[string]*fleetdf.VehicleTrackingState{},
	}
}

// GetOrInit returns the tracking state for a vehicle, creating a
// zero-valued one on first sight. Never touches the backing store.
func (s *StateStore) GetOrInit(plateNumber string) *fleetdf.VehicleTrackingState {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	state := s.vehicles[plateNumber]
	if state == nil {
		state = &fleetdf.VehicleTrackingState{
			PlateNumber: plateNumber,
		}
		s.vehicles[plateNumber] = state
	}

	return state
}

// Zones returns the current immutable zone snapshot. Reloads swap in a
// fresh slice, so callers can keep iterating the one they got.
func (s *StateStore) Zones() []fleetdf.GeofenceZone {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.zones
}

// LoadInitial performs the startup zone load. Failure here is fatal for
// the process, unlike refresh failures.
func (s *StateStore) LoadInitial(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	zones, err := s.loader.LoadZones(ctx)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	s.zones = zones
	s.mutex.Unlock()

	log.Info().Int("zones", len(zones)).Msg("Loaded initial zone snapshot")

	return nil
}

// RefreshIfStale checks both dirty flags and reloads the stale
// categories. A failed reload keeps the previous state and leaves the
// flag set so the next cycle retries. Cheap when nothing is dirty.
func (s *StateStore) RefreshIfStale(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.refreshZones(ctx)
	s.refreshJobs(ctx)
}

func (s *StateStore) refreshZones(ctx context.Context) {
	dirty, err := s.signal.ZonesDirty(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to check zones dirty flag")
		return
	}
	if !dirty {
		return
	}

	zones, err := s.loader.LoadZones(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to reload zones, staying stale")
		return
	}

	s.mutex.Lock()
	s.zones = zones
	s.mutex.Unlock()

	if err := s.signal.ClearZonesDirty(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to clear zones dirty flag")
	}

	log.Info().Int("zones", len(zones)).Msg("Reloaded zone snapshot")
}

func (s *StateStore) refreshJobs(ctx context.Context) {
	jobIDs, err := s.signal.ChangedJobIDs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to check jobs dirty flag")
		return
	}
	if jobIDs == nil {
		return
	}

	jobs, err := s.loader.LoadJobs(ctx, jobIDs)
	if err != nil {
		log.Error().Err(err).Msg("Failed to reload jobs, staying stale")
		return
	}

	s.mutex.Lock()
	for _, job := range jobs {
		s.applyJob(job)
	}
	s.mutex.Unlock()

	if err := s.signal.ClearJobsDirty(ctx, jobIDs); err != nil {
		log.Error().Err(err).Msg("Failed to clear jobs dirty flag")
	}

	log.Info().Int("jobs", len(jobs)).Msg("Reloaded changed jobs")
}

// applyJob maps a job document onto its vehicle's tracking state.
// Caller holds the write lock.
func (s *StateStore) applyJob(job *fleetdf.Job) {
	state := s.vehicles[job.PlateNumber]
	if state == nil {
		state = &fleetdf.VehicleTrackingState{
			PlateNumber: job.PlateNumber,
		}
		s.vehicles[job.PlateNumber] = state
	}

	finished := job.WorkflowProgress == nil || job.FinishedAt != nil

	if finished {
		if state.ActiveJobID == job.PrimaryIdentifier {
			state.ClearJob()
		}
		return
	}

	targetChanged := state.ActiveJobID != job.PrimaryIdentifier || state.WorkflowStep != job.WorkflowStep

	state.ActiveJobID = job.PrimaryIdentifier
	state.SameStation = job.SameStation
	state.WorkflowStep = job.WorkflowStep
	state.WorkflowProgress = job.WorkflowProgress

	if waypoint := job.WaypointAtStep(job.WorkflowStep); waypoint != nil {
		state.TargetStation = waypoint.StationPoint()
	}
	if targetChanged {
		state.AtTargetStation = false
	}
}

package tracker

import (
	"context"
	"errors"

	"github.com/fleettrack/fleettrack/pkg/fleetdf"
)

type fakeDirtySignal struct {
	zonesDirty bool
	jobIDs     []string

	failChecks bool

	zonesCleared bool
	jobsCleared  []string
}

func (s *fakeDirtySignal) ZonesDirty(ctx context.Context) (bool, error) {
	if s.failChecks {
		return false, errors.New("signal unavailable")
	}

	return s.zonesDirty, nil
}

func (s *fakeDirtySignal) ClearZonesDirty(ctx context.Context) error {
	s.zonesDirty = false
	s.zonesCleared = true
	return nil
}

func (s *fakeDirtySignal) ChangedJobIDs(ctx context.Context) ([]string, error) {
	if s.failChecks {
		return nil, errors.New("signal unavailable")
	}

	return s.jobIDs, nil
}

func (s *fakeDirtySignal) ClearJobsDirty(ctx context.Context, jobIDs []string) error {
	s.jobIDs = nil
	s.jobsCleared = jobIDs
	return nil
}

type fakeSnapshotLoader struct {
	zones []fleetdf.GeofenceZone
	jobs  []*fleetdf.Job

	failLoads bool

	zoneLoads int
	jobLoads  int
}

func (l *fakeSnapshotLoader) LoadZones(ctx context.Context) ([]fleetdf.GeofenceZone, error) {
	l.zoneLoads++

	if l.failLoads {
		return nil, errors.New("backing store unavailable")
	}

	return l.zones, nil
}

func (l *fakeSnapshotLoader) LoadJobs(ctx context.Context, jobIDs []string) ([]*fleetdf.Job, error) {
	l.jobLoads++

	if l.failLoads {
		return nil, errors.New("backing store unavailable")
	}

	return l.jobs, nil
}

type fakeJobStore struct {
	job *fleetdf.Job

	failWrites bool

	updates int
}

func (s *fakeJobStore) FindJob(ctx context.Context, jobID string) (*fleetdf.Job, error) {
	if s.job == nil || s.job.PrimaryIdentifier != jobID {
		return nil, errors.New("job not found")
	}

	return s.job, nil
}

func (s *fakeJobStore) UpdateJob(ctx context.Context, job *fleetdf.Job) error {
	if s.failWrites {
		return errors.New("backing store unavailable")
	}

	s.updates++
	s.job = job

	return nil
}

type fakeBindingSource struct {
	binding *fleetdf.VehicleBinding
}

func (s *fakeBindingSource) VehicleBinding(ctx context.Context, plateNumber string) (*fleetdf.VehicleBinding, error) {
	return s.binding, nil
}

type fakeNotificationStore struct {
	inserted []*fleetdf.Notification

	failWrites bool
}

func (s *fakeNotificationStore) Insert(ctx context.Context, notification *fleetdf.Notification) error {
	if s.failWrites {
		return errors.New("backing store unavailable")
	}

	s.inserted = append(s.inserted, notification)

	return nil
}

type fakeLiveDeliverer struct {
	delivered []*fleetdf.Notification
}

func (d *fakeLiveDeliverer) Deliver(ctx context.Context, userID string, notification *fleetdf.Notification) error {
	d.delivered = append(d.delivered, notification)
	return nil
}

type fakePushPublisher struct {
	published [][]byte

	failPublish bool
}

func (p *fakePushPublisher) PublishBytes(payload ...[]byte) error {
	if p.failPublish {
		return errors.New("queue unavailable")
	}

	p.published = append(p.published, payload...)

	return nil
}

type fakeLiveMap struct {
	broadcasts [][]fleetdf.PositionReport
}

func (m *fakeLiveMap) Broadcast(ctx context.Context, reports []fleetdf.PositionReport) {
	m.broadcasts = append(m.broadcasts, reports)
}

type fakePositionRecorder struct {
	batches [][]fleetdf.PositionReport
}

func (r *fakePositionRecorder) RecordBatch(ctx context.Context, reports []fleetdf.PositionReport) error {
	r.batches = append(r.batches, reports)
	return nil
}

type fakeTripStore struct {
	inserted []*fleetdf.TripSummary
}

func (s *fakeTripStore) Insert(ctx context.Context, summary *fleetdf.TripSummary) error {
	s.inserted = append(s.inserted, summary)
	return nil
}

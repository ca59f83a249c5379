package tracker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fleettrack/fleettrack/pkg/fleetdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipelineHarness struct {
	pipeline *Pipeline

	stateStore *StateStore

	signal        *fakeDirtySignal
	loader        *fakeSnapshotLoader
	jobStore      *fakeJobStore
	bindings      *fakeBindingSource
	notifications *fakeNotificationStore
	live          *fakeLiveDeliverer
	pushQueue     *fakePushPublisher
	liveMap       *fakeLiveMap
	positions     *fakePositionRecorder
	trips         *fakeTripStore
}

func newPipelineHarness(t *testing.T, zones []fleetdf.GeofenceZone) *pipelineHarness {
	h := &pipelineHarness{
		signal:        &fakeDirtySignal{},
		loader:        &fakeSnapshotLoader{zones: zones},
		jobStore:      &fakeJobStore{},
		bindings:      &fakeBindingSource{},
		notifications: &fakeNotificationStore{},
		live:          &fakeLiveDeliverer{},
		pushQueue:     &fakePushPublisher{},
		liveMap:       &fakeLiveMap{},
		positions:     &fakePositionRecorder{},
		trips:         &fakeTripStore{},
	}

	h.stateStore = NewStateStore(h.signal, h.loader, time.Second)
	require.NoError(t, h.stateStore.LoadInitial(context.Background()))

	h.pipeline = NewPipeline(
		h.stateStore,
		NewEvaluator(false),
		NewProgressEngine(h.jobStore, time.Second),
		NewDispatcher(h.bindings, h.notifications, h.live, h.pushQueue, time.Second),
		h.liveMap,
		h.positions,
		h.trips,
		time.Second,
	)

	return h
}

func positionBody(reports ...string) []byte {
	body := `{"data":[`
	for i, report := range reports {
		if i > 0 {
			body += ","
		}
		body += report
	}
	body += `]}`

	return []byte(body)
}

func TestPipelineMalformedMessageIgnored(t *testing.T) {
	h := newPipelineHarness(t, nil)

	h.pipeline.HandlePositionMessage(context.Background(), []byte("{not json"))
	h.pipeline.HandlePositionMessage(context.Background(), []byte(`{"other":true}`))

	assert.Empty(t, h.positions.batches)
	assert.Empty(t, h.liveMap.broadcasts)
}

func TestPipelineMalformedReportSkippedRestProcessed(t *testing.T) {
	h := newPipelineHarness(t, nil)

	body := positionBody(
		`{"lng":121.4,"lat":31.2,"speed":40}`,
		`{"plateNum":"AB1234","lng":121.4,"lat":31.2,"speed":40,"timestamp":1767000000000}`,
	)
	h.pipeline.HandlePositionMessage(context.Background(), body)

	// The valid report's vehicle was still tracked
	require.Len(t, h.liveMap.broadcasts, 1)
	assert.Len(t, h.liveMap.broadcasts[0], 1)
	assert.Equal(t, "AB1234", h.liveMap.broadcasts[0][0].PlateNumber)

	// The raw batch including the malformed row still gets recorded
	require.Len(t, h.positions.batches, 1)
	assert.Len(t, h.positions.batches[0], 2)
}

func TestPipelineLiveMapMovingOnly(t *testing.T) {
	h := newPipelineHarness(t, nil)

	body := positionBody(
		`{"plateNum":"AB1234","lng":121.4,"lat":31.2,"speed":40}`,
		`{"plateNum":"CD5678","lng":121.5,"lat":31.3,"speed":0}`,
	)
	h.pipeline.HandlePositionMessage(context.Background(), body)

	require.Len(t, h.liveMap.broadcasts, 1)
	require.Len(t, h.liveMap.broadcasts[0], 1)
	assert.Equal(t, "AB1234", h.liveMap.broadcasts[0][0].PlateNumber)
}

func TestPipelineZoneEnterProducesNotification(t *testing.T) {
	zones := []fleetdf.GeofenceZone{
		{StationID: "ZONE1", Latitude: 31.2304, Longitude: 121.4737, Radius: 500},
	}
	h := newPipelineHarness(t, zones)
	h.bindings.binding = &fleetdf.VehicleBinding{PlateNumber: "AB1234", DriverID: "driver-1"}

	body := positionBody(`{"plateNum":"AB1234","lng":121.4737,"lat":31.2304,"speed":40}`)
	h.pipeline.HandlePositionMessage(context.Background(), body)

	require.Len(t, h.notifications.inserted, 1)
	assert.Equal(t, fleetdf.NotificationCategoryZoneEnter, h.notifications.inserted[0].Category)
	assert.Equal(t, "driver-1", h.notifications.inserted[0].TargetUser)
	assert.True(t, h.stateStore.GetOrInit("AB1234").InBlackDotZone)

	// Same position again: still inside, no second notification
	h.pipeline.HandlePositionMessage(context.Background(), body)
	assert.Len(t, h.notifications.inserted, 1)
}

func TestPipelineStationArrivalAdvancesJob(t *testing.T) {
	h := newPipelineHarness(t, nil)
	h.bindings.binding = &fleetdf.VehicleBinding{PlateNumber: "AB1234", DriverID: "driver-1"}

	job := threeStopJob(false)
	job.Waypoints[0].Latitude = 31.2304
	job.Waypoints[0].Longitude = 121.4737
	job.Waypoints[0].Radius = 500
	h.jobStore.job = job

	*h.stateStore.GetOrInit("AB1234") = *stateForJob(job)

	body := positionBody(`{"plateNum":"AB1234","lng":121.4737,"lat":31.2304,"speed":40}`)
	h.pipeline.HandlePositionMessage(context.Background(), body)

	state := h.stateStore.GetOrInit("AB1234")
	assert.True(t, state.AtTargetStation)
	assert.Equal(t, 3, *state.WorkflowProgress)
	assert.Equal(t, 1, h.jobStore.updates)

	require.Len(t, h.notifications.inserted, 1)
	assert.Equal(t, fleetdf.NotificationCategoryStationArrival, h.notifications.inserted[0].Category)
}

func TestPipelineConfirmedPhaseSuppressesNotification(t *testing.T) {
	h := newPipelineHarness(t, nil)
	h.bindings.binding = &fleetdf.VehicleBinding{PlateNumber: "AB1234", DriverID: "driver-1"}

	job := threeStopJob(false)
	job.Waypoints[0].Latitude = 31.2304
	job.Waypoints[0].Longitude = 121.4737
	job.Waypoints[0].Radius = 500
	confirmed := fleetdf.ExpectedArrivalProgress(0)
	job.WorkflowProgress = &confirmed
	h.jobStore.job = job

	*h.stateStore.GetOrInit("AB1234") = *stateForJob(job)

	body := positionBody(`{"plateNum":"AB1234","lng":121.4737,"lat":31.2304,"speed":40}`)
	h.pipeline.HandlePositionMessage(context.Background(), body)

	// The membership flag flipped but the phase was already confirmed by
	// the driver, so nothing was written or announced
	assert.True(t, h.stateStore.GetOrInit("AB1234").AtTargetStation)
	assert.Zero(t, h.jobStore.updates)
	assert.Empty(t, h.notifications.inserted)
}

func TestPipelineJobStoreFailureSkipsVehicleOnly(t *testing.T) {
	h := newPipelineHarness(t, nil)
	h.bindings.binding = &fleetdf.VehicleBinding{PlateNumber: "AB1234", DriverID: "driver-1"}

	job := threeStopJob(false)
	job.Waypoints[0].Latitude = 31.2304
	job.Waypoints[0].Longitude = 121.4737
	job.Waypoints[0].Radius = 500
	h.jobStore.job = job
	h.jobStore.failWrites = true

	*h.stateStore.GetOrInit("AB1234") = *stateForJob(job)

	body := positionBody(
		`{"plateNum":"AB1234","lng":121.4737,"lat":31.2304,"speed":40}`,
		`{"plateNum":"CD5678","lng":121.9,"lat":31.9,"speed":40}`,
	)
	h.pipeline.HandlePositionMessage(context.Background(), body)

	// The failed transition produced no notification but the batch
	// finished
	assert.Empty(t, h.notifications.inserted)
	require.Len(t, h.positions.batches, 1)
	assert.Len(t, h.positions.batches[0], 2)
	assert.Equal(t, 2, *h.stateStore.GetOrInit("AB1234").WorkflowProgress)
}

func TestPipelineRefreshesOncePerBatch(t *testing.T) {
	h := newPipelineHarness(t, nil)
	h.signal.zonesDirty = true
	loadsAfterInitial := h.loader.zoneLoads

	body := positionBody(
		`{"plateNum":"AB1234","lng":121.4,"lat":31.2,"speed":40}`,
		`{"plateNum":"CD5678","lng":121.5,"lat":31.3,"speed":40}`,
		`{"plateNum":"EF9012","lng":121.6,"lat":31.4,"speed":40}`,
	)
	h.pipeline.HandlePositionMessage(context.Background(), body)

	assert.Equal(t, loadsAfterInitial+1, h.loader.zoneLoads)
}

func TestPipelineTripMessage(t *testing.T) {
	h := newPipelineHarness(t, nil)

	body := []byte(`{"pushTime":1767000300000,"data":{"plateNum":"AB1234","startTime":1767000000000,"endTime":1767000300000,"seconds":300,"startLng":121.4,"startLat":31.2,"endLng":121.5,"endLat":31.3}}`)
	h.pipeline.HandleTripMessage(context.Background(), body)

	require.Len(t, h.trips.inserted, 1)
	summary := h.trips.inserted[0]
	assert.Equal(t, "AB1234", summary.PlateNumber)
	assert.Equal(t, int64(300), summary.DurationSeconds)
	require.NotNil(t, summary.EndTime)
}

func TestPipelineTripMessageMalformed(t *testing.T) {
	h := newPipelineHarness(t, nil)

	h.pipeline.HandleTripMessage(context.Background(), []byte("{not json"))
	h.pipeline.HandleTripMessage(context.Background(), []byte(`{"pushTime":1,"data":{"seconds":10}}`))

	assert.Empty(t, h.trips.inserted)
}

func TestPipelineManyVehiclesIndependentState(t *testing.T) {
	zones := []fleetdf.GeofenceZone{
		{StationID: "ZONE1", Latitude: 31.2304, Longitude: 121.4737, Radius: 500},
	}
	h := newPipelineHarness(t, zones)

	var reports []string
	for i := 0; i < 5; i++ {
		reports = append(reports, fmt.Sprintf(`{"plateNum":"V%d","lng":121.4737,"lat":31.2304,"speed":40}`, i))
	}
	reports = append(reports, `{"plateNum":"FAR","lng":120.0,"lat":30.0,"speed":40}`)

	h.pipeline.HandlePositionMessage(context.Background(), positionBody(reports...))

	for i := 0; i < 5; i++ {
		assert.True(t, h.stateStore.GetOrInit(fmt.Sprintf("V%d", i)).InBlackDotZone)
	}
	assert.False(t, h.stateStore.GetOrInit("FAR").InBlackDotZone)
}

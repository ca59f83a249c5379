package tracker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fleettrack/fleettrack/pkg/fleetdf"
	"github.com/rs/zerolog/log"
)

// LiveMapBroadcaster fans moving-vehicle positions out to the live map.
// Lossy, stateless.
type LiveMapBroadcaster interface {
	Broadcast(ctx context.Context, reports []fleetdf.PositionReport)
}

// PositionRecorder bulk-upserts last-known vehicle positions.
type PositionRecorder interface {
	RecordBatch(ctx context.Context, reports []fleetdf.PositionReport) error
}

type TripStore interface {
	Insert(ctx context.Context, summary *fleetdf.TripSummary) error
}

// Pipeline is the per-message processing chain fed by the broker
// handler: state refresh, then evaluator, progress engine and
// dispatcher for every vehicle in the batch, in batch order.
type Pipeline struct {
	stateStore *StateStore
	evaluator  *Evaluator
	progress   *ProgressEngine
	dispatcher *Dispatcher

	liveMap   LiveMapBroadcaster
	positions PositionRecorder
	trips     TripStore

	storeTimeout time.Duration
}

func NewPipeline(stateStore *StateStore, evaluator *Evaluator, progress *ProgressEngine, dispatcher *Dispatcher, liveMap LiveMapBroadcaster, positions PositionRecorder, trips TripStore, storeTimeout time.Duration) *Pipeline {
	return &Pipeline{
		stateStore: stateStore,
		evaluator:  evaluator,
		progress:   progress,
		dispatcher: dispatcher,

		liveMap:   liveMap,
		positions: positions,
		trips:     trips,

		storeTimeout: storeTimeout,
	}
}

// HandlePositionMessage processes one broker message from the position
// topic. A malformed report or a store failure only ever skips that
// report's vehicle - the rest of the batch always runs.
func (p *Pipeline) HandlePositionMessage(ctx context.Context, body []byte) {
	var batch fleetdf.PositionBatch
	if err := json.Unmarshal(body, &batch); err != nil {
		log.Error().Err(err).Msg("Failed to decode position batch, ignoring message")
		return
	}
	if batch.Data == nil {
		log.Error().Msg("Position message missing data, ignoring")
		return
	}

	// Checked once per batch, not per vehicle
	p.stateStore.RefreshIfStale(ctx)

	zones := p.stateStore.Zones()

	var moving []fleetdf.PositionReport

	for i := range batch.Data {
		report := &batch.Data[i]

		if err := report.Validate(); err != nil {
			log.Error().Err(err).Msg("Skipping malformed position report")
			continue
		}

		if report.Moving() {
			moving = append(moving, *report)
		}

		p.processReport(ctx, report, zones)
	}

	if len(moving) > 0 {
		p.liveMap.Broadcast(ctx, moving)
	}

	if len(batch.Data) > 0 {
		if err := p.positions.RecordBatch(ctx, batch.Data); err != nil {
			log.Error().Err(err).Msg("Failed to record vehicle positions")
		}
	}
}

func (p *Pipeline) processReport(ctx context.Context, report *fleetdf.PositionReport, zones []fleetdf.GeofenceZone) {
	state := p.stateStore.GetOrInit(report.PlateNumber)

	events, err := p.evaluator.Evaluate(report, state, zones)
	if err != nil {
		log.Error().Err(err).Str("plate", report.PlateNumber).Msg("Skipping report with invalid coordinates")
		return
	}

	for _, event := range events {
		var result *ProgressResult

		if event.Category == fleetdf.TransitionCategoryStation {
			result, err = p.progress.HandleStationTransition(ctx, state, event)
			if err != nil {
				log.Error().Err(err).
					Str("plate", event.PlateNumber).
					Str("station", event.StationID).
					Msg("Failed to advance job workflow, abandoning transition")
				continue
			}

			// Driver already confirmed this phase manually - nothing
			// changed, so nothing to announce
			if !result.Advanced {
				continue
			}
		}

		p.dispatcher.DispatchTransition(ctx, event, result)
	}
}

// HandleTripMessage processes one broker message from the trip
// completion topic.
func (p *Pipeline) HandleTripMessage(ctx context.Context, body []byte) {
	var message fleetdf.TripCompletionMessage
	if err := json.Unmarshal(body, &message); err != nil {
		log.Error().Err(err).Msg("Failed to decode trip completion message, ignoring")
		return
	}

	summary, err := message.ToTripSummary()
	if err != nil {
		log.Error().Err(err).Msg("Ignoring malformed trip completion message")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()

	if err := p.trips.Insert(ctx, summary); err != nil {
		log.Error().Err(err).Str("plate", summary.PlateNumber).Msg("Failed to write trip summary")
	}
}

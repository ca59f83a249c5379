package tracker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fleettrack/fleettrack/pkg/elastic_client"
	"github.com/fleettrack/fleettrack/pkg/fleetdf"
)

type TransitionElasticEvent struct {
	Timestamp time.Time

	PlateNumber string
	Category    fleetdf.TransitionCategory
	Direction   fleetdf.TransitionDirection
	StationID   string

	JobAdvanced  bool
	JobCompleted bool
	Progress     int
}

// indexTransitionEvent records the transition for analytics,
// fire-and-forget.
func (d *Dispatcher) indexTransitionEvent(event fleetdf.TransitionEvent, result *ProgressResult) {
	yearNumber, weekNumber := time.Now().ISOWeek()
	indexName := fmt.Sprintf("geofence-transition-events-%d-%d", yearNumber, weekNumber)

	elasticEvent := TransitionElasticEvent{
		Timestamp: event.RecordedAt,

		PlateNumber: event.PlateNumber,
		Category:    event.Category,
		Direction:   event.Direction,
		StationID:   event.StationID,
	}
	if result != nil {
		elasticEvent.JobAdvanced = result.Advanced
		elasticEvent.JobCompleted = result.JobCompleted
		elasticEvent.Progress = result.Progress
	}

	document, _ := json.Marshal(elasticEvent)
	elastic_client.IndexRequest(indexName, bytes.NewReader(document))
}

package fleetdf

import "time"

// TripCompletionMessage is the broker message body on the trip
// completion topic. Times are epoch milliseconds and nullable.
type TripCompletionMessage struct {
	PushTime int64 `json:"pushTime"`

	Data struct {
		PlateNumber string `json:"plateNum"`

		StartTime *int64 `json:"startTime"`
		EndTime   *int64 `json:"endTime"`
		Seconds   int64  `json:"seconds"`

		StartLongitude float64 `json:"startLng"`
		StartLatitude  float64 `json:"startLat"`
		EndLongitude   float64 `json:"endLng"`
		EndLatitude    float64 `json:"endLat"`
	} `json:"data"`
}

// TripSummary is the persisted record of a completed trip.
type TripSummary struct {
	PlateNumber string

	StartTime *time.Time
	EndTime   *time.Time

	DurationSeconds int64

	StartLongitude float64
	StartLatitude  float64
	EndLongitude   float64
	EndLatitude    float64

	CreationDateTime time.Time
}

// ToTripSummary converts the wire message into the persisted record.
func (m *TripCompletionMessage) ToTripSummary() (*TripSummary, error) {
	if m.Data.PlateNumber == "" {
		return nil, ErrMalformedReport
	}

	summary := &TripSummary{
		PlateNumber: m.Data.PlateNumber,

		DurationSeconds: m.Data.Seconds,

		StartLongitude: m.Data.StartLongitude,
		StartLatitude:  m.Data.StartLatitude,
		EndLongitude:   m.Data.EndLongitude,
		EndLatitude:    m.Data.EndLatitude,

		CreationDateTime: time.Now(),
	}

	if m.Data.StartTime != nil {
		startTime := time.UnixMilli(*m.Data.StartTime)
		summary.StartTime = &startTime
	}
	if m.Data.EndTime != nil {
		endTime := time.UnixMilli(*m.Data.EndTime)
		summary.EndTime = &endTime
	}

	return summary, nil
}

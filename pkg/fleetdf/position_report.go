package fleetdf

import "errors"

var ErrMalformedReport = errors.New("malformed position report")

// PositionBatch is the broker message body on the position topic. One
// message carries reports for many vehicles.
type PositionBatch struct {
	Data []PositionReport `json:"data"`
}

// PositionReport is a single vehicle GPS tick. Never persisted as-is;
// consumed and discarded after evaluation.
type PositionReport struct {
	PlateNumber string  `json:"plateNum"`
	Longitude   float64 `json:"lng"`
	Latitude    float64 `json:"lat"`
	SpeedKPH    float64 `json:"speed"`
	Timestamp   int64   `json:"timestamp"`
}

func (r *PositionReport) Validate() error {
	if r.PlateNumber == "" {
		return ErrMalformedReport
	}

	return nil
}

func (r *PositionReport) Moving() bool {
	return r.SpeedKPH != 0
}

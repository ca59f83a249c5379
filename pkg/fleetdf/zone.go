package fleetdf

// GeofenceZone is a monitored "black dot" zone - a restricted or watched
// circular area independent of any job waypoint. Loaded in bulk and
// treated as read-only for the lifetime of a cache generation.
type GeofenceZone struct {
	StationID string

	Latitude  float64
	Longitude float64

	// Radius in meters
	Radius float64
}

// StationPoint is the waypoint a vehicle is currently approaching.
type StationPoint struct {
	StationID string

	Latitude  float64
	Longitude float64
	Radius    float64
}

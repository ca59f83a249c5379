package fleetdf

import (
	"encoding/json"
	"time"
)

type NotificationCategory string

const (
	NotificationCategoryZoneEnter        NotificationCategory = "ZoneEnter"
	NotificationCategoryZoneExit         NotificationCategory = "ZoneExit"
	NotificationCategoryStationArrival   NotificationCategory = "StationArrival"
	NotificationCategoryStationDeparture NotificationCategory = "StationDeparture"
	NotificationCategoryJobCompleted     NotificationCategory = "JobCompleted"
)

// Notification is the persisted record of a message to a bound user. It
// stays queryable even when neither realtime channel delivered it.
type Notification struct {
	TargetUser  string
	PlateNumber string

	Category NotificationCategory

	Title   string
	Message string

	Read bool

	CreationDateTime time.Time
}

func (n *Notification) MarshalBinary() ([]byte, error) {
	return json.Marshal(n)
}


package fleetdf

// VehicleBinding links a vehicle to the users who should be notified
// about its transitions for the active assignment.
type VehicleBinding struct {
	PlateNumber string

	DriverID string
	EscortID string
}

func (b *VehicleBinding) Recipients() []string {
	var recipients []string

	if b.DriverID != "" {
		recipients = append(recipients, b.DriverID)
	}
	if b.EscortID != "" {
		recipients = append(recipients, b.EscortID)
	}

	return recipients
}

// UserPushTarget is a user's registered mobile push token.
type UserPushTarget struct {
	UserID string

	PushNotificationToken string
}

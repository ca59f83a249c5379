package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/fleettrack/fleettrack/pkg/fleetdf"
	"github.com/rs/zerolog/log"
)

// BindingSource resolves the driver/escort bound to a vehicle. Returns
// nil without error for an unbound vehicle.
type BindingSource interface {
	VehicleBinding(ctx context.Context, plateNumber string) (*fleetdf.VehicleBinding, error)
}

type NotificationStore interface {
	Insert(ctx context.Context, notification *fleetdf.Notification) error
}

// LiveDeliverer pushes a notification to a user's currently-bound live
// connection, doing nothing when none is registered.
type LiveDeliverer interface {
	Deliver(ctx context.Context, userID string, notification *fleetdf.Notification) error
}

// PushPublisher enqueues a payload for the push delivery worker.
// Satisfied by rmq.Queue.
type PushPublisher interface {
	PublishBytes(payload ...[]byte) error
}

// Dispatcher turns a confirmed transition into persisted notifications
// and best-effort delivery over the in-app and mobile push channels.
// Every failure past this point is logged and swallowed - the state
// transition has already been committed.
type Dispatcher struct {
	bindings      BindingSource
	notifications NotificationStore
	live          LiveDeliverer
	pushQueue     PushPublisher

	timeout time.Duration
}

func NewDispatcher(bindings BindingSource, notifications NotificationStore, live LiveDeliverer, pushQueue PushPublisher, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		bindings:      bindings,
		notifications: notifications,
		live:          live,
		pushQueue:     pushQueue,

		timeout: timeout,
	}
}

// DispatchTransition fans a transition out to the vehicle's bound
// users. result carries the job advancement for station transitions and
// may be nil for zone transitions.
func (d *Dispatcher) DispatchTransition(ctx context.Context, event fleetdf.TransitionEvent, result *ProgressResult) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	d.indexTransitionEvent(event, result)

	binding, err := d.bindings.VehicleBinding(ctx, event.PlateNumber)
	if err != nil {
		log.Error().Err(err).Str("plate", event.PlateNumber).Msg("Failed to lookup vehicle binding")
		return
	}
	if binding == nil {
		log.Info().Str("plate", event.PlateNumber).Msg("No driver/escort bound to vehicle, skipping dispatch")
		return
	}

	category, title, message := transitionNotification(event, result)

	for _, recipient := range binding.Recipients() {
		notification := &fleetdf.Notification{
			TargetUser:  recipient,
			PlateNumber: event.PlateNumber,

			Category: category,

			Title:   title,
			Message: message,

			CreationDateTime: time.Now(),
		}

		if err := d.notifications.Insert(ctx, notification); err != nil {
			log.Error().Err(err).Str("target", recipient).Msg("Failed to persist notification")
			continue
		}

		if err := d.live.Deliver(ctx, recipient, notification); err != nil {
			log.Error().Err(err).Str("target", recipient).Msg("Failed to deliver in-app notification")
		}

		payload, _ := notification.MarshalBinary()
		if err := d.pushQueue.PublishBytes(payload); err != nil {
			log.Error().Err(err).Str("target", recipient).Msg("Failed to enqueue push notification")
		}
	}
}

func transitionNotification(event fleetdf.TransitionEvent, result *ProgressResult) (fleetdf.NotificationCategory, string, string) {
	if event.Category == fleetdf.TransitionCategoryZone {
		if event.Direction == fleetdf.TransitionEnter {
			return fleetdf.NotificationCategoryZoneEnter,
				"Restricted zone alert",
				fmt.Sprintf("Vehicle %s has entered restricted zone %s", event.PlateNumber, event.StationID)
		}

		return fleetdf.NotificationCategoryZoneExit,
			"Restricted zone alert",
			fmt.Sprintf("Vehicle %s has left restricted zone %s", event.PlateNumber, event.StationID)
	}

	if result != nil && result.JobCompleted {
		return fleetdf.NotificationCategoryJobCompleted,
			"Job completed",
			fmt.Sprintf("Vehicle %s has departed station %s and completed its job", event.PlateNumber, event.StationID)
	}

	if event.Direction == fleetdf.TransitionEnter {
		return fleetdf.NotificationCategoryStationArrival,
			"Station arrival",
			fmt.Sprintf("Vehicle %s has arrived at station %s", event.PlateNumber, event.StationID)
	}

	return fleetdf.NotificationCategoryStationDeparture,
		"Station departure",
		fmt.Sprintf("Vehicle %s has departed station %s", event.PlateNumber, event.StationID)
}

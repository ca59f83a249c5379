package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/fleettrack/fleettrack/pkg/fleetdf"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

const deliveryTimeout = 10 * time.Second

type NotifyBatchConsumer struct {
	Push *PushManager
}

func NewNotifyBatchConsumer(push *PushManager) *NotifyBatchConsumer {
	return &NotifyBatchConsumer{
		Push: push,
	}
}

// Consume delivers a batch of queued notifications. Deliveries within a
// batch are independent, so they fan out concurrently; a failed send is
// logged and dropped, never retried.
func (c *NotifyBatchConsumer) Consume(batch rmq.Deliveries) {
	payloads := batch.Payloads()

	var wg conc.WaitGroup

	for _, payload := range payloads {
		var notification *fleetdf.Notification
		if err := json.Unmarshal([]byte(payload), &notification); err != nil {
			log.Error().Err(err).Msg("Failed to decode queued notification")
			continue
		}

		wg.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
			defer cancel()

			if err := c.Push.SendPush(ctx, notification); err != nil {
				log.Error().Err(err).Str("target", notification.TargetUser).Msg("Failed to send push notification")
			}
		})
	}

	wg.Wait()

	if ackErrors := batch.Ack(); len(ackErrors) > 0 {
		for _, err := range ackErrors {
			log.Fatal().Err(err).Msg("Failed to consume from queue")
		}
	}
}

package tracker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fleettrack/fleettrack/pkg/fleetdf"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const zonesDirtyKey = "fleettrack:dirty:zones"
const jobsDirtyKey = "fleettrack:dirty:jobs"
const changedJobIDsKey = "fleettrack:dirty:job-ids"

const onlineUsersKey = "fleettrack:online-users"
const userChannelFormat = "user-notify:%s"
const liveMapChannel = "fleettrack:live-map"

// RedisDirtySignal implements the dirty-flag protocol over plain redis
// keys. The admin side sets the flags (and fills the changed-job set)
// whenever station or job data changes.
type RedisDirtySignal struct {
	Client *redis.Client
}

func (s RedisDirtySignal) ZonesDirty(ctx context.Context) (bool, error) {
	_, err := s.Client.Get(ctx, zonesDirtyKey).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (s RedisDirtySignal) ClearZonesDirty(ctx context.Context) error {
	return s.Client.Del(ctx, zonesDirtyKey).Err()
}

func (s RedisDirtySignal) ChangedJobIDs(ctx context.Context) ([]string, error) {
	_, err := s.Client.Get(ctx, jobsDirtyKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	jobIDs, err := s.Client.SMembers(ctx, changedJobIDsKey).Result()
	if err != nil {
		return nil, err
	}

	// Flag set with an empty change-set still means "reload nothing",
	// clear it below as usual
	if jobIDs == nil {
		jobIDs = []string{}
	}

	return jobIDs, nil
}

// ClearJobsDirty removes only the job IDs that were just reloaded; IDs
// marked during the reload survive for the next cycle.
func (s RedisDirtySignal) ClearJobsDirty(ctx context.Context, jobIDs []string) error {
	if len(jobIDs) > 0 {
		if err := s.Client.SRem(ctx, changedJobIDsKey, asInterfaces(jobIDs)...).Err(); err != nil {
			return err
		}
	}

	remaining, err := s.Client.SCard(ctx, changedJobIDsKey).Result()
	if err != nil {
		return err
	}

	if remaining == 0 {
		return s.Client.Del(ctx, jobsDirtyKey).Err()
	}

	return nil
}

func asInterfaces(values []string) []interface{} {
	result := make([]interface{}, len(values))
	for i, value := range values {
		result[i] = value
	}

	return result
}

// RedisLiveDeliverer pushes a notification onto the pub/sub channel of
// a user's live connection, if one is currently registered. Nothing is
// retried - an offline user still has the persisted record.
type RedisLiveDeliverer struct {
	Client *redis.Client
}

func (d RedisLiveDeliverer) Deliver(ctx context.Context, userID string, notification *fleetdf.Notification) error {
	online, err := d.Client.SIsMember(ctx, onlineUsersKey, userID).Result()
	if err != nil {
		return err
	}
	if !online {
		return nil
	}

	payload, _ := json.Marshal(notification)

	return d.Client.Publish(ctx, fmt.Sprintf(userChannelFormat, userID), payload).Err()
}

// RedisLiveMap broadcasts moving-vehicle positions for the live map
// view. Fire-and-forget fan-out, no state.
type RedisLiveMap struct {
	Client *redis.Client
}

func (m RedisLiveMap) Broadcast(ctx context.Context, reports []fleetdf.PositionReport) {
	payload, _ := json.Marshal(fleetdf.PositionBatch{Data: reports})

	if err := m.Client.Publish(ctx, liveMapChannel, payload).Err(); err != nil {
		log.Error().Err(err).Msg("Failed to broadcast live map positions")
	}
}

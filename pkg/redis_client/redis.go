package redis_client

import (
	"context"

	"github.com/adjust/rmq/v5"
	"github.com/fleettrack/fleettrack/pkg/config"
	"github.com/redis/go-redis/v9"
)

var Client *redis.Client
var QueueConnection rmq.Connection

func Connect(cfg config.Config) error {
	if cfg.RedisPassword == "" {
		Client = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddress,
			DB:   cfg.RedisDatabase,
		})
	} else {
		Client = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDatabase,
		})
	}

	statusCmd := Client.Ping(context.Background())
	err := statusCmd.Err()
	if err != nil {
		return err
	}

	QueueConnection, err = rmq.OpenConnectionWithRedisClient("fleettrack", Client, nil)

	if err != nil {
		return err
	}

	return nil
}

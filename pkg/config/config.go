package config

import (
	"strconv"
	"time"

	"github.com/fleettrack/fleettrack/pkg/util"
)

// Config is built once at process start and handed to every component
// constructor. Components never read the environment themselves.
type Config struct {
	MongoConnection string
	MongoDatabase   string

	RedisAddress  string
	RedisPassword string
	RedisDatabase int

	ElasticsearchAddress  string
	ElasticsearchUsername string
	ElasticsearchPassword string

	BrokerAddress       string
	BrokerUsername      string
	BrokerPassword      string
	PositionTopic       string
	TripCompletionTopic string

	FirebaseServiceAccount string

	// ForceEvaluate disables the stationary-vehicle skip so parked test
	// vehicles still generate transitions.
	ForceEvaluate bool

	StoreTimeout    time.Duration
	DispatchTimeout time.Duration
}

const defaultMongoConnection = "mongodb://localhost:27017/"
const defaultMongoDatabase = "fleettrack"
const defaultRedisAddress = "localhost:6379"
const defaultBrokerAddress = "localhost:61613"
const defaultPositionTopic = "/topic/vehicle.position"
const defaultTripCompletionTopic = "/topic/vehicle.trip-completion"

func Load() Config {
	env := util.GetEnvironmentVariables()

	cfg := Config{
		MongoConnection: defaultMongoConnection,
		MongoDatabase:   defaultMongoDatabase,

		RedisAddress: defaultRedisAddress,

		BrokerAddress:       defaultBrokerAddress,
		PositionTopic:       defaultPositionTopic,
		TripCompletionTopic: defaultTripCompletionTopic,

		StoreTimeout:    10 * time.Second,
		DispatchTimeout: 5 * time.Second,
	}

	if env["FLEETTRACK_MONGODB_CONNECTION"] != "" {
		cfg.MongoConnection = env["FLEETTRACK_MONGODB_CONNECTION"]
	}
	if env["FLEETTRACK_MONGODB_DATABASE"] != "" {
		cfg.MongoDatabase = env["FLEETTRACK_MONGODB_DATABASE"]
	}

	if env["FLEETTRACK_REDIS_ADDRESS"] != "" {
		cfg.RedisAddress = env["FLEETTRACK_REDIS_ADDRESS"]
	}
	cfg.RedisPassword = env["FLEETTRACK_REDIS_PASSWORD"]
	if env["FLEETTRACK_REDIS_DATABASE"] != "" {
		if n, err := strconv.Atoi(env["FLEETTRACK_REDIS_DATABASE"]); err == nil {
			cfg.RedisDatabase = n
		}
	}

	cfg.ElasticsearchAddress = env["FLEETTRACK_ELASTICSEARCH_ADDRESS"]
	cfg.ElasticsearchUsername = env["FLEETTRACK_ELASTICSEARCH_USERNAME"]
	cfg.ElasticsearchPassword = env["FLEETTRACK_ELASTICSEARCH_PASSWORD"]

	if env["FLEETTRACK_BROKER_ADDRESS"] != "" {
		cfg.BrokerAddress = env["FLEETTRACK_BROKER_ADDRESS"]
	}
	cfg.BrokerUsername = env["FLEETTRACK_BROKER_USERNAME"]
	cfg.BrokerPassword = env["FLEETTRACK_BROKER_PASSWORD"]
	if env["FLEETTRACK_POSITION_TOPIC"] != "" {
		cfg.PositionTopic = env["FLEETTRACK_POSITION_TOPIC"]
	}
	if env["FLEETTRACK_TRIP_COMPLETION_TOPIC"] != "" {
		cfg.TripCompletionTopic = env["FLEETTRACK_TRIP_COMPLETION_TOPIC"]
	}

	cfg.FirebaseServiceAccount = env["FLEETTRACK_FIREBASE_SERVICE_ACCOUNT"]

	cfg.ForceEvaluate = env["FLEETTRACK_FORCE_EVALUATE"] == "YES"

	if env["FLEETTRACK_STORE_TIMEOUT"] != "" {
		if d, err := time.ParseDuration(env["FLEETTRACK_STORE_TIMEOUT"]); err == nil {
			cfg.StoreTimeout = d
		}
	}
	if env["FLEETTRACK_DISPATCH_TIMEOUT"] != "" {
		if d, err := time.ParseDuration(env["FLEETTRACK_DISPATCH_TIMEOUT"]); err == nil {
			cfg.DispatchTimeout = d
		}
	}

	return cfg
}

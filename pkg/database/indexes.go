package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func createIndexes() {
	createIndex("geofence_zones", bson.D{{Key: "stationid", Value: 1}}, true)

	createIndex("jobs", bson.D{{Key: "platenumber", Value: 1}, {Key: "workflowprogress", Value: 1}}, false)

	createIndex("vehicle_bindings", bson.D{{Key: "platenumber", Value: 1}}, true)
	createIndex("user_push_targets", bson.D{{Key: "userid", Value: 1}}, true)

	createIndex("notifications", bson.D{{Key: "targetuser", Value: 1}, {Key: "creationdatetime", Value: -1}}, false)

	createIndex("trip_summaries", bson.D{{Key: "platenumber", Value: 1}, {Key: "endtime", Value: -1}}, false)

	createIndex("vehicle_positions", bson.D{{Key: "platenumber", Value: 1}}, true)
}

func createIndex(collectionName string, keys bson.D, unique bool) {
	collection := GetCollection(collectionName)

	opts := options.Index()
	if unique {
		opts = opts.SetUnique(true)
	}

	_, err := collection.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    keys,
		Options: opts,
	})
	if err != nil {
		log.Error().Err(err).Str("collection", collectionName).Msg("Failed to create index")
	}
}

package tracker

import (
	"context"

	"github.com/fleettrack/fleettrack/pkg/database"
	"github.com/fleettrack/fleettrack/pkg/fleetdf"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoJobStore persists job documents. Waypoints are embedded in the
// job document, so a transition's waypoint timestamps and progress
// counters land in a single atomic update.
type MongoJobStore struct{}

func (s MongoJobStore) FindJob(ctx context.Context, jobID string) (*fleetdf.Job, error) {
	jobsCollection := database.GetCollection("jobs")

	var job *fleetdf.Job
	err := jobsCollection.FindOne(ctx, bson.M{"primaryidentifier": jobID}).Decode(&job)
	if err != nil {
		return nil, err
	}

	return job, nil
}

func (s MongoJobStore) UpdateJob(ctx context.Context, job *fleetdf.Job) error {
	jobsCollection := database.GetCollection("jobs")

	updateMap := bson.M{
		"workflowstep":         job.WorkflowStep,
		"workflowprogress":     job.WorkflowProgress,
		"waypoints":            job.Waypoints,
		"modificationdatetime": job.ModificationDateTime,
		"finishedat":           job.FinishedAt,
	}

	bsonRep, _ := bson.Marshal(bson.M{"$set": updateMap})

	_, err := jobsCollection.UpdateOne(ctx, bson.M{"primaryidentifier": job.PrimaryIdentifier}, bsonRep)

	return err
}

// MongoSnapshotLoader does the bulk reference-data reads for the state
// store.
type MongoSnapshotLoader struct{}

func (l MongoSnapshotLoader) LoadZones(ctx context.Context) ([]fleetdf.GeofenceZone, error) {
	zonesCollection := database.GetCollection("geofence_zones")

	cursor, err := zonesCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	var zones []fleetdf.GeofenceZone
	if err := cursor.All(ctx, &zones); err != nil {
		return nil, err
	}

	return zones, nil
}

func (l MongoSnapshotLoader) LoadJobs(ctx context.Context, jobIDs []string) ([]*fleetdf.Job, error) {
	jobsCollection := database.GetCollection("jobs")

	cursor, err := jobsCollection.Find(ctx, bson.M{"primaryidentifier": bson.M{"$in": jobIDs}})
	if err != nil {
		return nil, err
	}

	var jobs []*fleetdf.Job
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}

	return jobs, nil
}

// MongoBindingSource resolves vehicle bindings straight from the
// backing store. Wrapped by the gocache layer on the dispatch path.
type MongoBindingSource struct{}

func (s MongoBindingSource) VehicleBinding(ctx context.Context, plateNumber string) (*fleetdf.VehicleBinding, error) {
	bindingsCollection := database.GetCollection("vehicle_bindings")

	var binding *fleetdf.VehicleBinding
	err := bindingsCollection.FindOne(ctx, bson.M{"platenumber": plateNumber}).Decode(&binding)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return binding, nil
}

type MongoNotificationStore struct{}

func (s MongoNotificationStore) Insert(ctx context.Context, notification *fleetdf.Notification) error {
	notificationsCollection := database.GetCollection("notifications")

	_, err := notificationsCollection.InsertOne(ctx, notification)

	return err
}

type MongoTripStore struct{}

func (s MongoTripStore) Insert(ctx context.Context, summary *fleetdf.TripSummary) error {
	tripsCollection := database.GetCollection("trip_summaries")

	_, err := tripsCollection.InsertOne(ctx, summary)

	return err
}

// MongoPositionRecorder bulk-upserts the last-known position per
// vehicle, one write model per report in the batch.
type MongoPositionRecorder struct{}

func (r MongoPositionRecorder) RecordBatch(ctx context.Context, reports []fleetdf.PositionReport) error {
	var operations []mongo.WriteModel

	for _, report := range reports {
		updateMap := bson.M{
			"platenumber": report.PlateNumber,
			"longitude":   report.Longitude,
			"latitude":    report.Latitude,
			"speedkph":    report.SpeedKPH,
			"timestamp":   report.Timestamp,
		}

		bsonRep, _ := bson.Marshal(bson.M{"$set": updateMap})

		updateModel := mongo.NewUpdateOneModel()
		updateModel.SetFilter(bson.M{"platenumber": report.PlateNumber})
		updateModel.SetUpdate(bsonRep)
		updateModel.SetUpsert(true)

		operations = append(operations, updateModel)
	}

	positionsCollection := database.GetCollection("vehicle_positions")

	_, err := positionsCollection.BulkWrite(ctx, operations, &options.BulkWriteOptions{})

	return err
}

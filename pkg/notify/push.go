package notify

import (
	"context"
	"encoding/base64"
	"errors"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/fleettrack/fleettrack/pkg/config"
	"github.com/fleettrack/fleettrack/pkg/database"
	"github.com/fleettrack/fleettrack/pkg/fleetdf"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/api/option"
)

type PushManager struct {
	FirebaseApp *firebase.App
}

func (m *PushManager) Setup(cfg config.Config) error {
	decodedKey, err := base64.StdEncoding.DecodeString(cfg.FirebaseServiceAccount)
	if err != nil {
		return err
	}

	opts := []option.ClientOption{option.WithCredentialsJSON(decodedKey)}

	app, err := firebase.NewApp(context.Background(), nil, opts...)
	if err != nil {
		return err
	}

	m.FirebaseApp = app

	return nil
}

// SendPush delivers a notification to the target user's registered
// device. A user without a registered token is not an error worth
// retrying - there is simply nowhere to deliver to.
func (m *PushManager) SendPush(ctx context.Context, notification *fleetdf.Notification) error {
	pushTargetsCollection := database.GetCollection("user_push_targets")

	var pushTarget *fleetdf.UserPushTarget
	err := pushTargetsCollection.FindOne(ctx, bson.M{
		"userid": notification.TargetUser,
	}).Decode(&pushTarget)

	if err == mongo.ErrNoDocuments {
		log.Info().Str("target", notification.TargetUser).Msg("User has no registered push token")
		return nil
	}
	if err != nil {
		return err
	}

	fcmClient, err := m.FirebaseApp.Messaging(ctx)
	if err != nil {
		return err
	}

	if pushTarget.PushNotificationToken == "" {
		return errors.New("user push target has empty token")
	}

	_, err = fcmClient.Send(ctx, &messaging.Message{
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Message,
		},
		Token: pushTarget.PushNotificationToken,
	})

	if err != nil {
		return err
	}

	log.Info().Str("target", notification.TargetUser).Msg("Sent Push Notification")

	return nil
}

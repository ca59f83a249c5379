package tracker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fleettrack/fleettrack/pkg/config"
	"github.com/fleettrack/fleettrack/pkg/consumer"
	"github.com/fleettrack/fleettrack/pkg/database"
	"github.com/fleettrack/fleettrack/pkg/elastic_client"
	"github.com/fleettrack/fleettrack/pkg/fleetdf"
	"github.com/fleettrack/fleettrack/pkg/redis_client"
	"github.com/kr/pretty"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "tracker",
		Usage: "Consumes the vehicle position stream and tracks geofence and job progress",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run an instance of the stream processor",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "broker-address",
						Usage:   "host:port of the STOMP broker",
						EnvVars: []string{"FLEETTRACK_BROKER_ADDRESS"},
					},
					&cli.StringFlag{
						Name:    "broker-username",
						EnvVars: []string{"FLEETTRACK_BROKER_USERNAME"},
					},
					&cli.StringFlag{
						Name:    "broker-password",
						EnvVars: []string{"FLEETTRACK_BROKER_PASSWORD"},
					},
					&cli.StringFlag{
						Name:    "position-topic",
						EnvVars: []string{"FLEETTRACK_POSITION_TOPIC"},
					},
					&cli.StringFlag{
						Name:    "trip-completion-topic",
						EnvVars: []string{"FLEETTRACK_TRIP_COMPLETION_TOPIC"},
					},
				},
				Action: func(c *cli.Context) error {
					cfg := config.Load()

					if c.String("broker-address") != "" {
						cfg.BrokerAddress = c.String("broker-address")
					}
					if c.String("broker-username") != "" {
						cfg.BrokerUsername = c.String("broker-username")
					}
					if c.String("broker-password") != "" {
						cfg.BrokerPassword = c.String("broker-password")
					}
					if c.String("position-topic") != "" {
						cfg.PositionTopic = c.String("position-topic")
					}
					if c.String("trip-completion-topic") != "" {
						cfg.TripCompletionTopic = c.String("trip-completion-topic")
					}

					if err := database.Connect(cfg); err != nil {
						return err
					}
					if err := redis_client.Connect(cfg); err != nil {
						return err
					}
					if err := elastic_client.Connect(cfg, false); err != nil {
						return err
					}

					stateStore := NewStateStore(
						RedisDirtySignal{Client: redis_client.Client},
						MongoSnapshotLoader{},
						cfg.StoreTimeout,
					)

					ctx, cancel := context.WithCancel(context.Background())
					defer cancel()

					// Cannot run without an initial zone set
					if err := stateStore.LoadInitial(ctx); err != nil {
						return err
					}

					pushQueue, err := redis_client.QueueConnection.OpenQueue("notify-queue")
					if err != nil {
						return err
					}

					dispatcher := NewDispatcher(
						NewCachedBindingSource(redis_client.Client, MongoBindingSource{}),
						MongoNotificationStore{},
						RedisLiveDeliverer{Client: redis_client.Client},
						pushQueue,
						cfg.DispatchTimeout,
					)

					pipeline := NewPipeline(
						stateStore,
						NewEvaluator(cfg.ForceEvaluate),
						NewProgressEngine(MongoJobStore{}, cfg.StoreTimeout),
						dispatcher,
						RedisLiveMap{Client: redis_client.Client},
						MongoPositionRecorder{},
						MongoTripStore{},
						cfg.StoreTimeout,
					)

					go consumer.StartStatsServer()

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT)
					defer signal.Stop(signals)

					go func() {
						<-signals // first signal starts graceful shutdown
						cancel()

						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					stompClient := NewStompClient(cfg, pipeline)
					if err := stompClient.Run(ctx); err != nil {
						return err
					}

					elastic_client.WaitUntilQueueEmpty()

					return nil
				},
			},
			{
				Name:  "testevaluate",
				Usage: "feed a synthetic report through the evaluator",
				Action: func(c *cli.Context) error {
					cfg := config.Load()

					state := &fleetdf.VehicleTrackingState{
						PlateNumber: "TEST001",
					}

					zones := []fleetdf.GeofenceZone{
						{
							StationID: "ZONE-DEPOT",
							Latitude:  51.514797,
							Longitude: -0.141944,
							Radius:    150,
						},
					}

					report := &fleetdf.PositionReport{
						PlateNumber: "TEST001",
						Latitude:    51.5146,
						Longitude:   -0.1418,
						SpeedKPH:    40,
					}

					evaluator := NewEvaluator(cfg.ForceEvaluate)

					events, err := evaluator.Evaluate(report, state, zones)
					pretty.Println(events, state, err)

					return nil
				},
			},
		},
	}
}

package tracker

import (
	"context"
	"errors"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/fleettrack/fleettrack/pkg/config"
	"github.com/go-stomp/stomp/v3"
	"github.com/rs/zerolog/log"
)

const inboundQueueSize = 256

type inboundMessage struct {
	topic string
	body  []byte
}

// StompClient owns the broker connection lifecycle and feeds received
// messages through a bounded queue into the pipeline. A single worker
// drains the queue, which keeps per-vehicle processing in strict
// arrival order.
type StompClient struct {
	Address  string
	Username string
	Password string

	PositionTopic       string
	TripCompletionTopic string

	Pipeline *Pipeline

	messages chan inboundMessage
	workers  sync.WaitGroup
}

func NewStompClient(cfg config.Config, pipeline *Pipeline) *StompClient {
	return &StompClient{
		Address:  cfg.BrokerAddress,
		Username: cfg.BrokerUsername,
		Password: cfg.BrokerPassword,

		PositionTopic:       cfg.PositionTopic,
		TripCompletionTopic: cfg.TripCompletionTopic,

		Pipeline: pipeline,
	}
}

// Run blocks until ctx is cancelled. The initial connection failure is
// returned to the caller (process-fatal); connection drops during
// operation reconnect with exponential backoff. On shutdown in-flight
// messages are drained before the worker stops.
func (s *StompClient) Run(ctx context.Context) error {
	conn, err := s.OnConnect()
	if err != nil {
		return err
	}

	s.messages = make(chan inboundMessage, inboundQueueSize)

	s.workers.Add(1)
	go s.runWorker()

	for {
		err := s.consume(ctx, conn)
		s.OnDisconnect(conn)

		if ctx.Err() != nil {
			break
		}

		log.Error().Err(err).Msg("Lost broker connection, reconnecting")

		err = backoff.Retry(func() error {
			var connectErr error
			conn, connectErr = s.OnConnect()
			return connectErr
		}, backoff.WithContext(backoff.NewExponentialBackOff(), ctx))

		if err != nil {
			break
		}
	}

	close(s.messages)
	s.workers.Wait()

	return nil
}

func (s *StompClient) OnConnect() (*stomp.Conn, error) {
	var stompOptions []func(*stomp.Conn) error
	if s.Username != "" {
		stompOptions = append(stompOptions, stomp.ConnOpt.Login(s.Username, s.Password))
	}

	conn, err := stomp.Dial("tcp", s.Address, stompOptions...)
	if err != nil {
		return nil, err
	}

	log.Info().Str("address", s.Address).Msg("Connected to broker")

	return conn, nil
}

func (s *StompClient) OnDisconnect(conn *stomp.Conn) {
	if err := conn.Disconnect(); err != nil {
		log.Debug().Err(err).Msg("Broker disconnect")
	}
}

// OnMessage enqueues a received frame. Blocks when the queue is full -
// backpressure on the broker beats dropping or reordering reports.
func (s *StompClient) OnMessage(topic string, body []byte) {
	s.messages <- inboundMessage{
		topic: topic,
		body:  body,
	}
}

func (s *StompClient) consume(ctx context.Context, conn *stomp.Conn) error {
	positionSub, err := conn.Subscribe(s.PositionTopic, stomp.AckAuto)
	if err != nil {
		return err
	}

	tripSub, err := conn.Subscribe(s.TripCompletionTopic, stomp.AckAuto)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			positionSub.Unsubscribe()
			tripSub.Unsubscribe()
			return nil

		case msg, ok := <-positionSub.C:
			if !ok || msg.Err != nil {
				return subscriptionError(msg)
			}
			s.OnMessage(s.PositionTopic, msg.Body)

		case msg, ok := <-tripSub.C:
			if !ok || msg.Err != nil {
				return subscriptionError(msg)
			}
			s.OnMessage(s.TripCompletionTopic, msg.Body)
		}
	}
}

// runWorker drains the queue until it is closed. In-flight messages
// are still fully processed after shutdown starts, so the worker runs
// on its own context.
func (s *StompClient) runWorker() {
	defer s.workers.Done()

	ctx := context.Background()

	for message := range s.messages {
		switch message.topic {
		case s.PositionTopic:
			s.Pipeline.HandlePositionMessage(ctx, message.body)
		case s.TripCompletionTopic:
			s.Pipeline.HandleTripMessage(ctx, message.body)
		}
	}
}

func subscriptionError(msg *stomp.Message) error {
	if msg != nil && msg.Err != nil {
		return msg.Err
	}

	return errors.New("subscription closed")
}

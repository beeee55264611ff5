package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Messages failing with these are acknowledged without running anything.
var (
	errUnknownJob = errors.New("unknown job type")
	errBadMessage = errors.New("parse message")
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	refreshJob       *RefreshJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RefreshJob       *RefreshJob
	Logger           zerolog.Logger
}

// JobMessage is the payload of a worker job message.
type JobMessage struct {
	JobType string `json:"job_type"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// A refresh touches every active journey; keep them sequential.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.MaxExtension = 5 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		refreshJob:       cfg.RefreshJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages and blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	err := processJob(ctx, h.refreshJob, logger, msg.Data)
	switch {
	case errors.Is(err, errUnknownJob), errors.Is(err, errBadMessage):
		msg.Ack() // redelivery would not help
	case err != nil:
		msg.Nack()
	default:
		msg.Ack()
	}
}

// processJob runs the job described by data.
func processJob(ctx context.Context, job *RefreshJob, logger zerolog.Logger, data []byte) error {
	startTime := time.Now()

	var m JobMessage
	if err := json.Unmarshal(data, &m); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		return fmt.Errorf("%w: %w", errBadMessage, err)
	}

	var err error
	switch m.JobType {
	case JobStatusRefresh:
		err = job.Run(ctx).Err
	case JobHealthCheck:
		err = job.HealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", m.JobType).Msg("unknown job type")
		return fmt.Errorf("%w: %q", errUnknownJob, m.JobType)
	}

	if err != nil {
		logger.Error().Err(err).Str("job_type", m.JobType).Msg("job failed")
		return err
	}

	logger.Info().
		Str("job_type", m.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")
	return nil
}

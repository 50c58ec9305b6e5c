package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/dago-node-render/internal/config"
	"github.com/aescanero/dago-node-render/internal/repeat"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Renderer renders a template against data
type Renderer interface {
	Render(ctx context.Context, templateStr string, data interface{}) (string, error)
}

// Worker represents the render worker
type Worker struct {
	id            string
	config        *config.Config
	redisClient   *redis.Client
	renderer      Renderer
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	done          chan struct{}
	streamKey     string
	consumerGroup string
	resultStream  string
}

// NewWorker creates a new worker
func NewWorker(
	cfg *config.Config,
	redisClient *redis.Client,
	renderer Renderer,
	logger *zap.Logger,
) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:            cfg.WorkerID,
		config:        cfg,
		redisClient:   redisClient,
		renderer:      renderer,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		streamKey:     cfg.StreamKey,
		consumerGroup: cfg.ConsumerGroup,
		resultStream:  cfg.ResultStream,
	}
}

// Start starts the worker
func (w *Worker) Start() error {
	w.logger.Info("starting render worker",
		zap.String("worker_id", w.id),
		zap.String("stream_key", w.streamKey),
		zap.String("consumer_group", w.consumerGroup),
	)

	// Create consumer group if it doesn't exist
	if err := w.ensureConsumerGroup(); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	// Start processing work
	go w.processWork()

	w.logger.Info("render worker started", zap.String("worker_id", w.id))
	return nil
}

// Stop stops the worker and waits for the in-flight render to finish
func (w *Worker) Stop(ctx context.Context) error {
	w.logger.Info("stopping render worker", zap.String("worker_id", w.id))

	// Cancel context to stop work processing
	w.cancel()

	select {
	case <-w.done:
	case <-ctx.Done():
		return fmt.Errorf("worker did not stop: %w", ctx.Err())
	}

	w.logger.Info("render worker stopped", zap.String("worker_id", w.id))
	return nil
}

// ensureConsumerGroup creates the consumer group if it doesn't exist
func (w *Worker) ensureConsumerGroup() error {
	err := w.redisClient.XGroupCreateMkStream(w.ctx, w.streamKey, w.consumerGroup, "0").Err()
	if err != nil {
		// BUSYGROUP error means the group already exists, which is fine
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			w.logger.Debug("consumer group already exists",
				zap.String("group", w.consumerGroup),
			)
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.logger.Info("created consumer group",
		zap.String("group", w.consumerGroup),
		zap.String("stream", w.streamKey),
	)
	return nil
}

// processWork processes work from the Redis stream
func (w *Worker) processWork() {
	defer close(w.done)
	w.logger.Info("starting work processing loop")

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("work processing loop stopped")
			return
		default:
			streams, err := w.redisClient.XReadGroup(w.ctx, &redis.XReadGroupArgs{
				Group:    w.consumerGroup,
				Consumer: w.id,
				Streams:  []string{w.streamKey, ">"},
				Count:    1,
				Block:    w.config.BlockTime,
			}).Result()

			if err != nil {
				if errors.Is(err, redis.Nil) || w.ctx.Err() != nil {
					continue
				}
				w.logger.Error("failed to read from stream", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					w.handleMessage(message)
				}
			}
		}
	}
}

// handleMessage handles a single render request message
func (w *Worker) handleMessage(message redis.XMessage) {
	messageID := message.ID
	w.logger.Info("processing render request", zap.String("message_id", messageID))

	request, err := parseRenderRequest(message.Values)
	if err != nil {
		w.logger.Error("failed to parse render request",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		w.acknowledgeMessage(messageID)
		return
	}

	result, err := w.processRenderRequest(w.ctx, request)
	if err != nil {
		w.logger.Error("failed to process render request",
			zap.String("message_id", messageID),
			zap.String("request_id", request.RequestID),
			zap.String("kind", repeat.Kind(err)),
			zap.Error(err),
		)
		w.publishError(request, err)
	} else if err := w.publish(w.resultStream, result); err != nil {
		w.logger.Error("failed to publish render result",
			zap.String("request_id", request.RequestID),
			zap.Error(err),
		)
	} else {
		w.logger.Info("published render result",
			zap.String("request_id", request.RequestID),
			zap.Int("bytes", len(result.Output)),
		)
	}

	w.acknowledgeMessage(messageID)
}

// RenderRequest represents a render work request
type RenderRequest struct {
	RequestID string      `json:"request_id"`
	Template  string      `json:"template"`
	Data      interface{} `json:"data"`
}

// RenderResult is published for every successful render
type RenderResult struct {
	RequestID string    `json:"request_id"`
	Output    string    `json:"output"`
	Timestamp time.Time `json:"timestamp"`
}

// RenderFailure is published to the error stream
type RenderFailure struct {
	RequestID string    `json:"request_id"`
	Error     string    `json:"error"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// parseRenderRequest parses a render request from a Redis message
func parseRenderRequest(values map[string]interface{}) (*RenderRequest, error) {
	dataStr, ok := values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var request RenderRequest
	if err := json.Unmarshal([]byte(dataStr), &request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal render request: %w", err)
	}

	if request.RequestID == "" {
		return nil, fmt.Errorf("render request missing request_id")
	}

	return &request, nil
}

// processRenderRequest renders a request under the configured timeout
func (w *Worker) processRenderRequest(ctx context.Context, request *RenderRequest) (*RenderResult, error) {
	ctx, cancel := context.WithTimeout(ctx, w.config.RenderTimeout)
	defer cancel()

	output, err := w.renderer.Render(ctx, request.Template, request.Data)
	if err != nil {
		return nil, fmt.Errorf("render failed: %w", err)
	}

	return &RenderResult{
		RequestID: request.RequestID,
		Output:    output,
		Timestamp: time.Now().UTC(),
	}, nil
}

// publishError publishes an error event
func (w *Worker) publishError(request *RenderRequest, err error) {
	failure := RenderFailure{
		RequestID: request.RequestID,
		Error:     err.Error(),
		Kind:      repeat.Kind(err),
		Timestamp: time.Now().UTC(),
	}

	if publishErr := w.publish(w.resultStream+".errors", failure); publishErr != nil {
		w.logger.Error("failed to publish error event", zap.Error(publishErr))
	}
}

// publish adds a JSON payload to a stream
func (w *Worker) publish(stream string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	_, err = w.redisClient.XAdd(w.ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	return nil
}

// acknowledgeMessage acknowledges a message from the stream
func (w *Worker) acknowledgeMessage(messageID string) {
	err := w.redisClient.XAck(w.ctx, w.streamKey, w.consumerGroup, messageID).Err()
	if err != nil {
		w.logger.Error("failed to acknowledge message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aescanero/dago-node-casewhen/internal/casewhen"
	"github.com/aescanero/dago-node-casewhen/internal/config"
	"github.com/aescanero/dago-node-casewhen/internal/eval/template"
	"github.com/aescanero/dago-node-casewhen/internal/table"
)

// publishTimeout bounds result publishing and acknowledgement, which run on
// their own context so a stopping worker still answers its in-flight message
const publishTimeout = 5 * time.Second

// StreamClient is the part of the Redis client the worker uses
type StreamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// Worker consumes case-when requests from a Redis stream
type Worker struct {
	id            string
	config        *config.Config
	redisClient   StreamClient
	evaluator     *casewhen.Evaluator
	templates     *template.Engine
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	done          chan struct{}
	streamKey     string
	consumerGroup string
	resultStream  string
}

// NewWorker creates a new worker. templates may be nil to reject template operands.
func NewWorker(
	cfg *config.Config,
	redisClient StreamClient,
	evaluator *casewhen.Evaluator,
	templates *template.Engine,
	logger *zap.Logger,
) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:            cfg.WorkerID,
		config:        cfg,
		redisClient:   redisClient,
		evaluator:     evaluator,
		templates:     templates,
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
	w.logger.Info("starting casewhen worker",
		zap.String("worker_id", w.id),
		zap.String("stream_key", w.streamKey),
		zap.String("consumer_group", w.consumerGroup),
	)

	if err := w.ensureConsumerGroup(); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	go w.processWork()

	w.logger.Info("casewhen worker started", zap.String("worker_id", w.id))
	return nil
}

// Stop cancels stream reads and waits for the processing loop to exit. A
// message already read is still published and acknowledged.
func (w *Worker) Stop(ctx context.Context) error {
	w.logger.Info("stopping casewhen worker", zap.String("worker_id", w.id))

	w.cancel()

	select {
	case <-w.done:
	case <-ctx.Done():
		return fmt.Errorf("worker did not stop: %w", ctx.Err())
	}

	w.logger.Info("casewhen worker stopped", zap.String("worker_id", w.id))
	return nil
}

// ensureConsumerGroup creates the consumer group if it doesn't exist
func (w *Worker) ensureConsumerGroup() error {
	err := w.redisClient.XGroupCreateMkStream(w.ctx, w.streamKey, w.consumerGroup, "0").Err()
	if err != nil {
		// BUSYGROUP means the group already exists
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

// handleMessage handles a single evaluation request message
func (w *Worker) handleMessage(message redis.XMessage) {
	messageID := message.ID
	w.logger.Info("processing casewhen request",
		zap.String("message_id", messageID),
	)

	request, err := parseRequest(message.Values)
	if err != nil {
		w.logger.Error("failed to parse request",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		w.publishError(&Request{RequestID: messageID}, err)
		w.acknowledgeMessage(messageID)
		return
	}

	result, err := w.Process(request)
	if err != nil {
		w.logger.Error("failed to process request",
			zap.String("message_id", messageID),
			zap.String("request_id", request.RequestID),
			zap.String("error_kind", errorKind(err)),
			zap.Error(err),
		)
		w.publishError(request, err)
	} else if err := w.publishResult(result); err != nil {
		w.logger.Error("failed to publish result",
			zap.String("request_id", request.RequestID),
			zap.Error(err),
		)
		w.publishError(request, err)
	}

	w.acknowledgeMessage(messageID)
}

// Request is a case-when evaluation request
type Request struct {
	RequestID string              `json:"request_id"`
	Output    string              `json:"output,omitempty"`
	Table     *table.Table        `json:"table"`
	Rules     []casewhen.RuleSpec `json:"rules"`
}

// Result is the evaluated output column
type Result struct {
	RequestID string    `json:"request_id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Values    []any     `json:"values"`
	Timestamp time.Time `json:"timestamp"`
}

// parseRequest parses a request from the Redis message's data field
func parseRequest(values map[string]interface{}) (*Request, error) {
	dataStr, ok := values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var request Request
	if err := json.Unmarshal([]byte(dataStr), &request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request: %w", err)
	}

	if request.Table == nil {
		return nil, fmt.Errorf("request %s has no table", request.RequestID)
	}

	return &request, nil
}

// Process evaluates a request without touching Redis
func (w *Worker) Process(request *Request) (*Result, error) {
	if request.Table.NumRows() > w.config.MaxRows {
		return nil, fmt.Errorf("table has %d rows, limit is %d", request.Table.NumRows(), w.config.MaxRows)
	}

	rules, err := casewhen.BuildRules(request.Rules, w.templates)
	if err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	if err := w.evaluator.Check(request.Table.Names(), rules); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	col, err := w.evaluator.Evaluate(request.Table, rules)
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	name := request.Output
	if name == "" {
		name = casewhen.OutputName
	}
	col = col.Rename(name)

	return &Result{
		RequestID: request.RequestID,
		Name:      col.Name(),
		Kind:      col.Kind().String(),
		Values:    col.Values(),
		Timestamp: time.Now().UTC(),
	}, nil
}

// errorKind classifies an error for the error stream
func errorKind(err error) string {
	switch {
	case errors.Is(err, casewhen.ErrShape):
		return "shape"
	case errors.Is(err, casewhen.ErrType):
		return "type"
	case errors.Is(err, casewhen.ErrConfiguration):
		return "configuration"
	default:
		return "request"
	}
}

// publishResult publishes the evaluated column
func (w *Worker) publishResult(result *Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	_, err = w.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: w.resultStream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	w.logger.Info("published casewhen result",
		zap.String("request_id", result.RequestID),
		zap.String("kind", result.Kind),
		zap.Int("rows", len(result.Values)),
	)

	return nil
}

// publishError publishes an error event
func (w *Worker) publishError(request *Request, err error) {
	errorEvent := map[string]interface{}{
		"request_id": request.RequestID,
		"error":      err.Error(),
		"error_kind": errorKind(err),
		"timestamp":  time.Now().UTC(),
	}

	data, marshalErr := json.Marshal(errorEvent)
	if marshalErr != nil {
		w.logger.Error("failed to marshal error event", zap.Error(marshalErr))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	_, publishErr := w.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: w.resultStream + ".errors",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if publishErr != nil {
		w.logger.Error("failed to publish error event", zap.Error(publishErr))
	}
}

// acknowledgeMessage acknowledges a message from the stream
func (w *Worker) acknowledgeMessage(messageID string) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := w.redisClient.XAck(ctx, w.streamKey, w.consumerGroup, messageID).Err()
	if err != nil {
		w.logger.Error("failed to acknowledge message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}

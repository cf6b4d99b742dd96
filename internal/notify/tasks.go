package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-storefront/internal/obs"
)

// Task type names.
const (
	TypeOrderPlaced = "order:placed"
	TypeCartPurge   = "cart:purge"
)

// QueueName is the asynq queue notifications run on.
const QueueName = "notify"

// OrderPlaced is the payload of an order:placed task.
type OrderPlaced struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

// NewOrderPlacedTask builds the task for p. The order id doubles as the task
// id so a retried checkout never queues a second task for the same order.
func NewOrderPlacedTask(p OrderPlaced) (*asynq.Task, error) {
	if p.OrderID == "" {
		return nil, errors.New("notify: order id is required")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOrderPlaced, payload,
		asynq.TaskID("order-placed:"+p.OrderID),
		asynq.Queue(QueueName),
		asynq.MaxRetry(8),
		asynq.Timeout(30*time.Second),
	), nil
}

// NewCartPurgeTask builds the periodic expired-cart cleanup task.
func NewCartPurgeTask() *asynq.Task {
	return asynq.NewTask(TypeCartPurge, nil, asynq.Queue(QueueName), asynq.MaxRetry(1))
}

type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer publishes notification tasks.
type Enqueuer struct {
	Client taskClient
	Log    zerolog.Logger
}

// NewEnqueuer wraps an asynq client.
func NewEnqueuer(client *asynq.Client, log zerolog.Logger) *Enqueuer {
	if client == nil {
		return &Enqueuer{Log: log}
	}
	return &Enqueuer{Client: client, Log: log}
}

// OrderPlaced queues the order:placed task. A duplicate task id counts as
// success.
func (e *Enqueuer) OrderPlaced(ctx context.Context, p OrderPlaced) (err error) {
	if e == nil || e.Client == nil {
		return nil
	}
	defer func() { obs.CountOutcome(obs.TasksEnqueuedTotal, err, TypeOrderPlaced) }()
	task, err := NewOrderPlacedTask(p)
	if err != nil {
		return err
	}
	info, err := e.Client.EnqueueContext(ctx, task)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("enqueue %s: %w", TypeOrderPlaced, err)
	}
	e.Log.Debug().Str("task_id", info.ID).Str("queue", info.Queue).Str("order_number", p.OrderNumber).Msg("task enqueued")
	return nil
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	QueueComprobantes   = "jobs:comprobantes"
	QueueNotificaciones = "jobs:notificaciones"

	// MaxAttempts before a job is moved to the DLQ.
	MaxAttempts = 3
)

// Notification kinds.
const (
	NotifAuditoriaCaja = "auditoria_caja"
	NotifStockBajo     = "stock_bajo"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// ComprobantePayload asks for the invoice PDF of a completed sale.
type ComprobantePayload struct {
	VentaID string `json:"venta_id"`
}

// NotificacionPayload is an operator alert delivered by email.
type NotificacionPayload struct {
	Tipo    string `json:"tipo"`
	Asunto  string `json:"asunto"`
	Mensaje string `json:"mensaje"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

func (d *Dispatcher) EnqueueComprobante(ctx context.Context, p ComprobantePayload) error {
	return d.enqueue(ctx, QueueComprobantes, "comprobante", p)
}

func (d *Dispatcher) EnqueueNotificacion(ctx context.Context, p NotificacionPayload) error {
	return d.enqueue(ctx, QueueNotificaciones, "notificacion", p)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := rdb.LPush(ctx, queue, encoded).Err(); err != nil {
		return fmt.Errorf("worker: enqueue %s: %w", queue, err)
	}
	return nil
}

// Handler processes one job payload. A returned error triggers a retry.
type Handler interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb      *redis.Client
	size     int
	handlers map[string]Handler
	// blockFor bounds each BRPOP so shutdown is noticed promptly.
	blockFor time.Duration
}

func NewPool(rdb *redis.Client, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{rdb: rdb, size: size, handlers: map[string]Handler{}, blockFor: 5 * time.Second}
}

// Handle registers the handler for a queue. Must be called before Run.
func (p *Pool) Handle(queue string, h Handler) { p.handlers[queue] = h }

// Run blocks until ctx is cancelled and every worker has drained its
// current job.
func (p *Pool) Run(ctx context.Context) error {
	queues := make([]string, 0, len(p.handlers))
	for q := range p.handlers {
		queues = append(queues, q)
	}
	if len(queues) == 0 {
		return errors.New("worker: no handlers registered")
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.size; i++ {
		id := i
		g.Go(func() error {
			p.loop(ctx, id, queues)
			return nil
		})
	}
	log.Info().Int("workers", p.size).Strs("queues", queues).Msg("worker pool started")
	return g.Wait()
}

func (p *Pool) loop(ctx context.Context, id int, queues []string) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		default:
		}
		// Blocking pop, waits up to blockFor then loops to check ctx
		result, err := p.rdb.BRPop(ctx, p.blockFor, queues...).Result()
		if err != nil || len(result) < 2 {
			continue
		}
		p.processJob(ctx, result[0], result[1])
	}
}

// processJob runs the handler; failures are re-queued with an incremented
// attempt count until MaxAttempts, then moved to the DLQ.
func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, p.rdb, queue, "desconocido", json.RawMessage(fmt.Sprintf("%q", raw)), "invalid envelope: "+err.Error(), 0)
		return
	}
	h, ok := p.handlers[queue]
	if !ok {
		log.Error().Str("queue", queue).Msg("no handler for queue")
		return
	}

	job.Attempts++
	err := h.Process(ctx, job.Payload)
	if err == nil {
		log.Debug().Str("type", job.Type).Str("queue", queue).Msg("job processed")
		return
	}

	if errors.Is(err, ErrPermanent) || job.Attempts >= MaxAttempts {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		return
	}
	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, re-queued")
	if perr := push(ctx, p.rdb, queue, job); perr != nil {
		log.Error().Err(perr).Str("queue", queue).Msg("could not re-queue job")
	}
}

// ErrPermanent marks failures that retrying cannot fix (bad payload, missing
// row). Wrap it with fmt.Errorf("...: %w", ErrPermanent).
var ErrPermanent = errors.New("permanent job failure")

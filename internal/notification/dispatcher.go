package notification

import (
	"context"
	"log/slog"
	"sync"

	"github.com/wytlabs/cardops/internal/core/events"
)

// MailJob is one email delivery handed to the worker pool.
type MailJob struct {
	NotificationID int64
	To             string
	Subject        string
	Body           string
}

type worker struct {
	id         int
	workerPool chan chan MailJob
	jobChannel chan MailJob
	logger     *slog.Logger
}

func newWorker(id int, workerPool chan chan MailJob, logger *slog.Logger) *worker {
	return &worker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan MailJob),
		logger:     logger,
	}
}

func (w *worker) start(ctx context.Context, wg *sync.WaitGroup, process func(MailJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.workerPool <- w.jobChannel

			select {
			case job := <-w.jobChannel:
				w.logger.Debug("worker delivering mail", "worker_id", w.id, "notification_id", job.NotificationID)
				process(job)
			case <-ctx.Done():
				w.logger.Debug("mail worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

// DispatcherConfig sizes the delivery pool.
type DispatcherConfig struct {
	MaxWorkers   int
	JobQueueSize int
}

// Dispatcher fans queued mail jobs out to a fixed worker pool. It
// subscribes to notification-created events so persistence and delivery
// stay decoupled.
type Dispatcher struct {
	mailer Mailer
	logger *slog.Logger

	jobQueue   chan MailJob
	workerPool chan chan MailJob
	maxWorkers int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func NewDispatcher(config DispatcherConfig, mailer Mailer, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	d := &Dispatcher{
		mailer:     mailer,
		logger:     logger,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan MailJob, jobQueueSize),
		workerPool: make(chan chan MailJob, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	d.startWorkerPool()
	return d
}

func (d *Dispatcher) startWorkerPool() {
	for i := 1; i <= d.maxWorkers; i++ {
		w := newWorker(i, d.workerPool, d.logger)
		w.start(d.ctx, &d.wg, d.deliver)
	}

	d.wg.Add(1)
	go d.dispatch()
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	for {
		select {
		case job := <-d.jobQueue:
			select {
			case jobChannel := <-d.workerPool:
				// The worker may have exited on ctx.Done after parking its
				// channel; never send unguarded or shutdown deadlocks.
				select {
				case jobChannel <- job:
				case <-d.ctx.Done():
					return
				}
			case <-d.ctx.Done():
				return
			}
		case <-d.ctx.Done():
			return
		}
	}
}

// Enqueue queues one delivery; a full queue drops the email copy rather
// than blocking the caller. The in-app notification is already persisted.
func (d *Dispatcher) Enqueue(job MailJob) {
	select {
	case d.jobQueue <- job:
	default:
		d.logger.Warn("mail queue full, dropping email copy",
			"notification_id", job.NotificationID,
			"to", job.To)
	}
}

func (d *Dispatcher) deliver(job MailJob) {
	if job.To == "" {
		d.logger.Warn("notification has no email address", "notification_id", job.NotificationID)
		return
	}
	if err := d.mailer.Send(job.To, job.Subject, job.Body); err != nil {
		d.logger.Error("mail delivery failed",
			"notification_id", job.NotificationID,
			"to", job.To,
			"error", err)
		return
	}
	d.logger.Info("mail delivered", "notification_id", job.NotificationID, "to", job.To)
}

// SubscribeTo wires the dispatcher onto the event bus.
func (d *Dispatcher) SubscribeTo(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeNotificationCreated, func(ctx context.Context, event events.Event) error {
		created, ok := event.(*events.NotificationCreatedEvent)
		if !ok {
			d.logger.Warn("unexpected event payload", "event_type", event.EventType())
			return nil
		}
		d.Enqueue(MailJob{
			NotificationID: created.NotificationID,
			To:             created.Email,
			Subject:        created.Subject,
			Body:           created.Body,
		})
		return nil
	})
}

// Shutdown stops accepting work and waits for in-flight deliveries.
func (d *Dispatcher) Shutdown() {
	d.once.Do(func() {
		d.cancel()
		d.wg.Wait()
	})
}

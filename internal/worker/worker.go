package worker

import (
	"context"
	"errors"
	"math"
	"runtime"
	"strconv"
	"sync"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/anonto42/nano-midea/socialgraph/internal/broker"
	"github.com/anonto42/nano-midea/socialgraph/internal/logger"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"go.uber.org/zap"
)

var logg = logger.New()

// TokenStore is the part of the device registry the worker needs.
type TokenStore interface {
	ListByUser(ctx context.Context, userID uint) ([]models.DeviceToken, error)
	DeleteTokens(ctx context.Context, tokens []string) error
}

// Sender delivers one multicast push. *messaging.Client satisfies it.
type Sender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// ErrDuplicate is returned by Handle for an event already delivered within the dedupe window.
var ErrDuplicate = errors.New("duplicate notification event")

// Worker consumes notification events and pushes them to the recipient's devices.
type Worker struct {
	reader       broker.KafkaReader
	tokens       TokenStore
	sender       Sender
	dedupe       *Deduper
	workerCount  int
	jobQueueSize int

	// isDead reports a per-token failure that means the token should be dropped
	isDead func(error) bool
	// drainTimeout bounds delivery of already-queued jobs after shutdown
	drainTimeout time.Duration
}

// New creates a new concurrent Worker using pre-initialized dependencies.
func New(reader broker.KafkaReader, tokens TokenStore, sender Sender, dedupe *Deduper, workerCount, jobQueueSize int) *Worker {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if jobQueueSize <= 0 {
		jobQueueSize = workerCount * 10
	}
	return &Worker{
		reader:       reader,
		tokens:       tokens,
		sender:       sender,
		dedupe:       dedupe,
		workerCount:  workerCount,
		jobQueueSize: jobQueueSize,
		isDead:       messaging.IsUnregistered,
		drainTimeout: 10 * time.Second,
	}
}

// Run starts message reading and concurrent processing. Once ctx is done it
// stops reading and gives the queued jobs up to drainTimeout to finish; their
// offsets are already committed.
func (w *Worker) Run(ctx context.Context) {
	logg.Info("worker", "Starting push workers",
		zap.Int("workers", w.workerCount), zap.Int("queue_size", w.jobQueueSize))

	jobs := make(chan []byte, w.jobQueueSize)
	var wg sync.WaitGroup

	procCtx, cancelProc := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelProc()

	for i := 0; i < w.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.processLoop(procCtx, jobs)
		}()
	}

	w.readLoop(ctx, jobs)

	close(jobs)
	logg.Info("worker", "Draining queued jobs", zap.Int("queued", len(jobs)), zap.Duration("timeout", w.drainTimeout))
	timer := time.AfterFunc(w.drainTimeout, cancelProc)
	wg.Wait()
	timer.Stop()
	logg.Info("worker", "All workers stopped gracefully")
}

// readLoop reads Kafka messages and pushes them into a job queue.
func (w *Worker) readLoop(ctx context.Context, jobs chan<- []byte) {
	var retry int
	for {
		if ctx.Err() != nil {
			return
		}
		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			backoff := time.Duration(math.Min(1000, math.Pow(2, float64(retry)))) * time.Millisecond
			logg.Error("worker", "Kafka read error, backing off", err, zap.Duration("backoff", backoff))
			if !waitWithContext(ctx, backoff) {
				return
			}
			retry++
			continue
		}
		retry = 0

		if len(msg.Value) == 0 {
			continue
		}

		select {
		case jobs <- msg.Value:
		case <-ctx.Done():
			return
		}
	}
}

// processLoop drains the job queue until it is closed.
func (w *Worker) processLoop(ctx context.Context, jobs <-chan []byte) {
	for data := range jobs {
		err := w.Handle(ctx, data)
		switch {
		case err == nil, errors.Is(err, ErrDuplicate):
		default:
			logg.Error("worker", "Push delivery failed", err)
		}
	}
}

// Handle delivers a single encoded event. Duplicates within the window are
// dropped with ErrDuplicate; a recipient without devices is not an error.
func (w *Worker) Handle(ctx context.Context, data []byte) error {
	event, err := broker.DecodeEvent(data)
	if err != nil {
		return err
	}
	if w.dedupe.Seen(event.DedupeKey()) {
		logg.Debug("worker", "Dropping duplicate notification event", zap.String("event_id", event.EventID))
		return ErrDuplicate
	}

	devices, err := w.tokens.ListByUser(ctx, event.RecipientID)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return nil
	}
	tokens := make([]string, 0, len(devices))
	for _, d := range devices {
		tokens = append(tokens, d.Token)
	}

	resp, err := w.sender.SendEachForMulticast(ctx, buildMessage(event, tokens))
	if err != nil {
		return err
	}
	logg.Info("worker", "Multicast result",
		zap.Uint("recipient_id", event.RecipientID),
		zap.Int("success", resp.SuccessCount),
		zap.Int("failure", resp.FailureCount))

	var dead []string
	for i, r := range resp.Responses {
		if r == nil || r.Success || i >= len(tokens) {
			continue
		}
		if w.isDead(r.Error) {
			dead = append(dead, tokens[i])
		}
	}
	if len(dead) > 0 {
		if err := w.tokens.DeleteTokens(ctx, dead); err != nil {
			logg.Error("worker", "Failed to delete dead tokens", err, zap.Int("tokens", len(dead)))
		}
	}
	return nil
}

func buildMessage(e broker.NotificationEvent, tokens []string) *messaging.MulticastMessage {
	data := map[string]string{
		"notification_id":   strconv.FormatUint(uint64(e.NotificationID), 10),
		"notification_type": string(e.Type),
		"actor_id":          strconv.FormatUint(uint64(e.ActorID), 10),
	}
	if e.TargetID != nil {
		data["target_id"] = strconv.FormatUint(uint64(*e.TargetID), 10)
		data["target_type"] = string(e.TargetType)
	}
	return &messaging.MulticastMessage{
		Notification: &messaging.Notification{
			Title: titleFor(e.Type),
			Body:  e.Verb,
		},
		Data:   data,
		Tokens: tokens,
	}
}

func titleFor(t models.NotificationType) string {
	switch t {
	case models.NotificationTypeFollow:
		return "New follower"
	case models.NotificationTypeLike:
		return "New like"
	case models.NotificationTypeComment:
		return "New comment"
	case models.NotificationTypeMention:
		return "You were mentioned"
	}
	return "New notification"
}

// waitWithContext waits for duration or context cancellation.
func waitWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Close shuts down the Kafka reader.
func (w *Worker) Close() error {
	logg.Info("worker", "Closing Kafka reader")
	if err := w.reader.Close(); err != nil {
		logg.Error("worker", "Error closing Kafka reader", err)
		return err
	}
	return nil
}

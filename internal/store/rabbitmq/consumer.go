package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/recruiter-chat/internal/logger"
	"github.com/suPer8Hu/recruiter-chat/internal/models"
)

const (
	retryHeader = "x-retry-count"
	// MaxRetries is how many times a failing event is re-queued before it
	// is dead-lettered.
	MaxRetries = 3
	retryDelay = 5 * time.Second

	handleTimeout = 10 * time.Second
)

// Handler persists one event. A returned error schedules a retry.
type Handler func(ctx context.Context, ev *models.TokenAnalyticsEvent) error

type Consumer struct {
	conn        *amqp.Connection
	ch          *amqp.Channel
	queue       string
	concurrency int
	handle      Handler
	publish     func(ctx context.Context, queue string, msg amqp.Publishing) error
}

func NewConsumer(url, queue string, concurrency int, handle Handler) (*Consumer, error) {
	conn, ch, err := dial(url, queue)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	// strict concurrency control
	if err := ch.Qos(concurrency, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	c := &Consumer{conn: conn, ch: ch, queue: queue, concurrency: concurrency, handle: handle}
	c.publish = func(ctx context.Context, q string, msg amqp.Publishing) error {
		return ch.PublishWithContext(ctx, "", q, false, false, msg)
	}
	return c, nil
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Run hands deliveries to a bounded goroutine pool until ctx is done,
// then drains in-flight work and returns.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(c.concurrency, func(arg any) {
		defer wg.Done()
		c.process(ctx, arg.(amqp.Delivery))
	})
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	log := logger.Named("worker")
	log.Infow("worker started", "queue", c.queue, "concurrency", c.concurrency)

	for {
		select {
		case <-ctx.Done():
			log.Infow("worker shutting down")
			wg.Wait()
			return nil
		case d, ok := <-msgs:
			if !ok {
				wg.Wait()
				return errors.New("delivery channel closed")
			}
			wg.Add(1)
			// blocks while every worker is busy
			if err := pool.Invoke(d); err != nil {
				wg.Done()
				log.Errorw("dispatch failed, requeueing", "err", err)
				_ = d.Nack(false, true)
			}
		}
	}
}

func (c *Consumer) process(ctx context.Context, d amqp.Delivery) {
	log := logger.Named("worker")

	var ev models.TokenAnalyticsEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil || !ev.FailureReason.Valid() {
		log.Warnw("bad analytics message, dead-lettering", "err", err, "reason", ev.FailureReason)
		_ = d.Nack(false, false)
		return
	}
	ev.ID = 0

	// in-flight events still get stored while Run drains after shutdown
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handleTimeout)
	defer cancel()
	start := time.Now()
	err := c.handle(hctx, &ev)
	if err == nil {
		if err := d.Ack(false); err != nil {
			log.Warnw("ack failed", "err", err)
		}
		return
	}

	attempt := retryCount(d.Headers) + 1
	if attempt > MaxRetries {
		log.Errorw("analytics event failed, dead-lettering", "attempts", attempt-1, "cost", time.Since(start), "err", err)
		_ = d.Nack(false, false)
		return
	}

	log.Warnw("analytics event failed, scheduling retry", "attempt", attempt, "err", err)
	retry := amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		Body:         d.Body,
		Timestamp:    d.Timestamp,
		Expiration:   strconv.FormatInt(retryDelay.Milliseconds(), 10),
		Headers:      amqp.Table{retryHeader: int32(attempt)},
	}
	pctx, pcancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer pcancel()
	if perr := c.publish(pctx, retryQueue(c.queue), retry); perr != nil {
		log.Errorw("publish retry failed, dead-lettering", "err", perr)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func retryCount(h amqp.Table) int {
	switch v := h[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/recruiter-chat/internal/analytics"
	"github.com/suPer8Hu/recruiter-chat/internal/logger"
	"github.com/suPer8Hu/recruiter-chat/internal/models"
)

var _ analytics.Recorder = (*Publisher)(nil)

// publishChannel is the part of *amqp.Channel the publisher needs.
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// Publisher is an analytics.Recorder that hands events to the worker
// instead of writing them inline. A closed channel or connection is
// re-dialed on the next Record.
type Publisher struct {
	mu      sync.Mutex
	conn    io.Closer
	ch      publishChannel
	queue   string
	now     func() time.Time
	connect func() (io.Closer, publishChannel, error)
}

func NewPublisher(url, queue string) (*Publisher, error) {
	p := &Publisher{
		queue: queue,
		now:   time.Now,
		connect: func() (io.Closer, publishChannel, error) {
			conn, ch, err := dial(url, queue)
			if err != nil {
				return nil, nil, err
			}
			return conn, ch, nil
		},
	}
	if err := p.ensure(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reset()
}

// Record publishes a sanitized event. CreatedAt is stamped here so the
// stored time is when the failure happened, not when the worker ran.
func (p *Publisher) Record(ctx context.Context, ev *models.TokenAnalyticsEvent) error {
	msg, err := encodeEvent(ev, p.now())
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensure(); err != nil {
		return err
	}
	err = p.publish(cctx, msg)
	if errors.Is(err, amqp.ErrClosed) {
		logger.Named("analytics").Warnw("rabbitmq channel closed, reconnecting", "queue", p.queue)
		_ = p.reset()
		if err := p.ensure(); err != nil {
			return err
		}
		err = p.publish(cctx, msg)
	}
	return err
}

func (p *Publisher) publish(ctx context.Context, msg amqp.Publishing) error {
	return p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,
		false,
		msg,
	)
}

// ensure dials when there is no open channel. Callers hold mu.
func (p *Publisher) ensure() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	_ = p.reset()
	conn, ch, err := p.connect()
	if err != nil {
		return fmt.Errorf("rabbitmq connect: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *Publisher) reset() error {
	var err error
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err = p.conn.Close()
		p.conn = nil
	}
	return err
}

func encodeEvent(ev *models.TokenAnalyticsEvent, now time.Time) (amqp.Publishing, error) {
	ev = analytics.Sanitize(ev)
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Timestamp:    now,
	}, nil
}

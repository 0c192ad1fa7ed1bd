package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// 送信メール
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer は実際の送信手段（SMTPなどは持たない）。
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ログに出すだけのMailer
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("mail: send")
	return nil
}

type eventQueue interface {
	Dequeue(ctx context.Context) (*QueuedEvent, error)
	Requeue(ctx context.Context, item QueuedEvent, delay time.Duration) error
	Complete(ctx context.Context, eventID string) error
}

type DispatcherConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
	// 再送の初回待ち（試行ごとに倍、MaxRetryDelayで頭打ち）
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	// 待ち時間のゆらぎ（0.2なら±20%）。0ならゆらがない
	Jitter float64
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = 5 * time.Minute
	}
	if c.MaxRetryDelay < c.RetryDelay {
		c.MaxRetryDelay = c.RetryDelay
	}
	return c
}

// n回目の失敗の後に待つ時間
func (c DispatcherConfig) retryDelay(attempts int) time.Duration {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     c.RetryDelay,
		RandomizationFactor: c.Jitter,
		Multiplier:          2,
		MaxInterval:         c.MaxRetryDelay,
	}
	b.Reset()

	delay := b.NextBackOff()
	for i := 1; i < attempts; i++ {
		delay = b.NextBackOff()
	}
	return delay
}

// MailDispatcher はRedisキューからイベントを取り出してメールにする。
type MailDispatcher struct {
	queue  eventQueue
	mailer Mailer
	cfg    DispatcherConfig
}

func NewMailDispatcher(queue eventQueue, mailer Mailer, cfg DispatcherConfig) *MailDispatcher {
	return &MailDispatcher{queue: queue, mailer: mailer, cfg: cfg.withDefaults()}
}

// ctxがキャンセルされるまで回る
func (d *MailDispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		// 溜まっている分は待たずに流す
		for {
			handled, err := d.ProcessOne(ctx)
			if err != nil {
				log.Error().Err(err).Msg("mail dispatcher: queue error")
				break
			}
			if !handled {
				break
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// 1件処理する。キューが空なら false。
func (d *MailDispatcher) ProcessOne(ctx context.Context) (bool, error) {
	item, err := d.queue.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}

	ev := item.Event
	if ev.Recipient == "" {
		log.Warn().Str("event_id", ev.ID).Str("order_number", ev.OrderNumber).Msg("mail dispatcher: no recipient, skipped")
		return true, d.queue.Complete(ctx, ev.ID)
	}

	if err := d.mailer.Send(ctx, RenderMessage(ev)); err != nil {
		item.Attempts++
		if item.Attempts >= d.cfg.MaxAttempts {
			log.Error().
				Err(err).
				Str("event_id", ev.ID).
				Int("attempts", item.Attempts).
				Msg("mail dispatcher: giving up")
			return true, d.queue.Complete(ctx, ev.ID)
		}

		delay := d.cfg.retryDelay(item.Attempts)
		log.Warn().
			Err(err).
			Str("event_id", ev.ID).
			Int("attempts", item.Attempts).
			Dur("delay", delay).
			Msg("mail dispatcher: send failed, requeued")
		return true, d.queue.Requeue(ctx, *item, delay)
	}

	return true, d.queue.Complete(ctx, ev.ID)
}

// イベント→プレーンテキストのメール
func RenderMessage(ev Event) Message {
	var subject string
	var b strings.Builder

	switch ev.Type {
	case EventOrderCreated:
		subject = fmt.Sprintf("Order %s received", ev.OrderNumber)
		fmt.Fprintf(&b, "Thank you for your order %s.\n", ev.OrderNumber)
		fmt.Fprintf(&b, "Total: %d\n", ev.GrandTotal)
	case EventOrderStatusChanged:
		subject = fmt.Sprintf("Order %s is now %s", ev.OrderNumber, ev.Status)
		fmt.Fprintf(&b, "Your order %s changed from %s to %s.\n", ev.OrderNumber, ev.PreviousStatus, ev.Status)
	case EventPaymentStatusChanged:
		subject = fmt.Sprintf("Payment for order %s: %s", ev.OrderNumber, ev.PaymentStatus)
		fmt.Fprintf(&b, "Payment status of order %s is now %s.\n", ev.OrderNumber, ev.PaymentStatus)
	default:
		subject = fmt.Sprintf("Order %s update", ev.OrderNumber)
		fmt.Fprintf(&b, "Order %s was updated.\n", ev.OrderNumber)
	}

	return Message{To: ev.Recipient, Subject: subject, Body: b.String()}
}

package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Gateway は通知の受け口。
// 呼び出し側をブロックせず、失敗も返さない（ログに残すだけ）。
type Gateway interface {
	Notify(ctx context.Context, ev Event)
}

// Sink はイベントの実際の届け先（Redisキュー、Kafkaなど）。
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev Event) error
}

// 何もしないGateway
type NopGateway struct{}

func (NopGateway) Notify(context.Context, Event) {}

type AsyncConfig struct {
	// キューの長さ。溢れたイベントは捨てる。
	Buffer  int
	Workers int
	// 1件・1Sinkあたりの配信タイムアウト
	DeliveryTimeout time.Duration
}

func (c AsyncConfig) withDefaults() AsyncConfig {
	if c.Buffer <= 0 {
		c.Buffer = 256
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.DeliveryTimeout <= 0 {
		c.DeliveryTimeout = 5 * time.Second
	}
	return c
}

// AsyncGateway はメモリ上のキューに積んで、workerがSinkへ配る。
type AsyncGateway struct {
	cfg    AsyncConfig
	sinks  []Sink
	events chan Event

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncGateway(cfg AsyncConfig, sinks ...Sink) *AsyncGateway {
	cfg = cfg.withDefaults()
	g := &AsyncGateway{
		cfg:    cfg,
		sinks:  sinks,
		events: make(chan Event, cfg.Buffer),
	}
	for i := 0; i < cfg.Workers; i++ {
		g.wg.Add(1)
		go g.worker()
	}
	return g
}

func (g *AsyncGateway) Notify(_ context.Context, ev Event) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		log.Warn().Str("event_id", ev.ID).Str("type", string(ev.Type)).Msg("notification: gateway closed, event dropped")
		return
	}

	select {
	case g.events <- ev:
	default:
		log.Warn().
			Str("event_id", ev.ID).
			Str("type", string(ev.Type)).
			Str("order_number", ev.OrderNumber).
			Msg("notification: queue full, event dropped")
	}
}

// 新規受付を止めて、積まれている分を配り終えるまで待つ
func (g *AsyncGateway) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	close(g.events)
	g.mu.Unlock()

	g.wg.Wait()
}

func (g *AsyncGateway) worker() {
	defer g.wg.Done()
	for ev := range g.events {
		for _, s := range g.sinks {
			g.deliver(s, ev)
		}
	}
}

func (g *AsyncGateway) deliver(s Sink, ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), g.cfg.DeliveryTimeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			log.Error().
				Str("sink", s.Name()).
				Str("event_id", ev.ID).
				Str("panic", fmt.Sprint(p)).
				Msg("notification: sink panicked")
		}
	}()

	if err := s.Deliver(ctx, ev); err != nil {
		log.Error().
			Err(err).
			Str("sink", s.Name()).
			Str("event_id", ev.ID).
			Str("type", string(ev.Type)).
			Str("order_number", ev.OrderNumber).
			Msg("notification: delivery failed")
		return
	}
	log.Debug().Str("sink", s.Name()).Str("event_id", ev.ID).Msg("notification: delivered")
}

// ログに出すだけのSink（ブローカー無しの構成用）
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Deliver(_ context.Context, ev Event) error {
	log.Info().
		Str("event_id", ev.ID).
		Str("type", string(ev.Type)).
		Str("order_number", ev.OrderNumber).
		Str("status", ev.Status.String()).
		Str("recipient", ev.Recipient).
		Msg("notification: event")
	return nil
}

// Package ingest runs the notification intake pipeline: filter, then
// normalize, then persist, then enforce the storage budget, then notify
// subscribers. Live events go through a bounded worker pool; the
// synchronous path exists for backfill and tests.
package ingest

import (
	"context"
	"database/sql"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/whyash5114/notistore/internal/config"
	"github.com/whyash5114/notistore/internal/db"
	"github.com/whyash5114/notistore/internal/listener"
	"github.com/whyash5114/notistore/internal/notification"
	"github.com/whyash5114/notistore/internal/parser"
)

// backfillDoneKey marks that the one-time active-notification backfill
// already ran for this store.
const backfillDoneKey = "backfill_done"

// subscriberBuffer is the per-subscriber channel depth. A subscriber
// that falls further behind loses events rather than stalling intake.
const subscriberBuffer = 16

type job struct {
	id  string
	raw listener.RawNotification
}

// Pipeline is the intake pipeline. Construct with New, then Start; live
// events enter through OnPosted, the synchronous path through Ingest.
type Pipeline struct {
	database *sql.DB
	settings *config.Manager
	holder   *listener.Holder
	parseOpt parser.Options
	log      zerolog.Logger

	workChan chan job
	workers  int
	wg       sync.WaitGroup

	mu          sync.Mutex
	subscribers map[int]chan *notification.Record
	nextSubID   int
	started     bool
	quit        chan struct{}

	entropy *ulid.MonotonicEntropy
}

// New builds a pipeline over the given store, settings, and listener
// connection holder. Worker count and queue depth come from settings at
// construction time; later settings changes affect filtering but not
// pool shape.
func New(database *sql.DB, settings *config.Manager, holder *listener.Holder, parseOpt parser.Options, log zerolog.Logger) *Pipeline {
	cfg := settings.Get()
	workers := cfg.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = config.DefaultQueueSize
	}

	return &Pipeline{
		database:    database,
		settings:    settings,
		holder:      holder,
		parseOpt:    parseOpt,
		log:         log,
		workChan:    make(chan job, queueSize),
		workers:     workers,
		subscribers: make(map[int]chan *notification.Record),
		quit:        make(chan struct{}),
		entropy:     ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// Start launches the worker pool. Calling Start twice is a no-op.
func (p *Pipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.log.Info().Int("workers", p.workers).Int("queue", cap(p.workChan)).
		Msg("ingest pipeline started")
}

// Stop halts the workers and closes all subscriber channels. Events
// still queued, and events posted after Stop, are dropped. workChan is
// never closed: OnPosted may race Stop from the platform callback, and
// a send on an open channel is always safe.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	close(p.quit)
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	for id, ch := range p.subscribers {
		close(ch)
		delete(p.subscribers, id)
	}
	p.mu.Unlock()
}

func (p *Pipeline) worker(ctx context.Context, n int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case j := <-p.workChan:
			accepted, err := p.ingestOne(ctx, j.raw, true)
			if err != nil {
				p.log.Error().Err(err).Str("job", j.id).Int("worker", n).
					Str("package", j.raw.PackageName).Msg("ingest failed")
				continue
			}
			if !accepted {
				p.log.Debug().Str("job", j.id).Str("package", j.raw.PackageName).
					Msg("notification filtered")
			}
		}
	}
}

// OnPosted enqueues a live notification event without blocking the
// caller. When the queue is full the event is dropped and logged; the
// platform callback must never stall.
func (p *Pipeline) OnPosted(raw listener.RawNotification) {
	j := job{id: p.newJobID(), raw: raw}

	select {
	case <-p.quit:
	case p.workChan <- j:
	default:
		p.log.Warn().Str("job", j.id).Str("package", raw.PackageName).
			Msg("ingest queue full, dropping event")
	}
}

// Ingest runs the full pipeline synchronously for one event. The bool
// reports whether the event was accepted; a filtered event returns
// (false, nil).
func (p *Pipeline) Ingest(ctx context.Context, raw listener.RawNotification) (bool, error) {
	return p.ingestOne(ctx, raw, true)
}

func (p *Pipeline) ingestOne(ctx context.Context, raw listener.RawNotification, emit bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	cfg := p.settings.Get()
	if raw.Payload != nil {
		if cfg.FilterOngoing && raw.Payload.Flags&listener.FlagOngoingEvent != 0 {
			return false, nil
		}
		if cfg.FilterTransport && raw.Payload.Category == notification.CategoryTransport {
			return false, nil
		}
	}
	if !cfg.LogProgress && parser.HasProgress(raw) {
		return false, nil
	}

	record, ok := parser.Parse(raw, p.parseOpt)
	if !ok {
		return false, nil
	}

	if err := db.InsertOrReplace(p.database, record); err != nil {
		return false, err
	}

	if limit := cfg.StorageLimitBytes(); limit > 0 {
		evicted, err := db.EnforceStorageLimit(p.database, limit)
		if err != nil {
			// The record is already stored; eviction retries on the
			// next insert.
			p.log.Error().Err(err).Msg("storage limit enforcement failed")
		} else if evicted > 0 {
			p.log.Debug().Int64("evicted", evicted).Msg("evicted oldest records")
		}
	}

	if emit {
		p.publish(record)
	}
	return true, nil
}

// Backfill ingests the currently active notifications once per store.
// Subsequent calls, and calls after restart against the same database,
// are no-ops. Backfilled records are persisted but not published to
// subscribers; they are history, not live events.
func (p *Pipeline) Backfill(ctx context.Context) (int, error) {
	done, err := db.GetMeta(p.database, backfillDoneKey)
	if err != nil {
		return 0, err
	}
	if done != "" {
		return 0, nil
	}

	svc := p.holder.Service()
	if svc == nil {
		// No listener connection yet; stay pending so a later call can
		// still run the backfill.
		return 0, nil
	}

	active, err := svc.ActiveNotifications()
	if err != nil {
		return 0, err
	}

	ingested := 0
	for _, raw := range active {
		accepted, err := p.ingestOne(ctx, raw, false)
		if err != nil {
			p.log.Error().Err(err).Str("package", raw.PackageName).
				Msg("backfill ingest failed")
			continue
		}
		if accepted {
			ingested++
		}
	}

	if err := db.SetMeta(p.database, backfillDoneKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return ingested, err
	}
	p.log.Info().Int("ingested", ingested).Int("active", len(active)).
		Msg("backfill complete")
	return ingested, nil
}

// Subscribe registers for accepted live records. The returned cancel
// func is idempotent. Slow subscribers lose events: delivery is
// non-blocking on a small buffer.
func (p *Pipeline) Subscribe() (<-chan *notification.Record, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSubID
	p.nextSubID++
	ch := make(chan *notification.Record, subscriberBuffer)
	p.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if sub, ok := p.subscribers[id]; ok {
				close(sub)
				delete(p.subscribers, id)
			}
		})
	}
	return ch, cancel
}

func (p *Pipeline) publish(record *notification.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, ch := range p.subscribers {
		select {
		case ch <- record:
		default:
			p.log.Warn().Int("subscriber", id).Msg("subscriber behind, dropping record")
		}
	}
}

func (p *Pipeline) newJobID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), p.entropy).String()
}

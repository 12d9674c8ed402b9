package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/kkysen/listenup/internal/content"
)

// Margin thresholds. Defaults match the original buffer of five items per
// replenishment trigger.
const (
	DefaultLowWaterMark  = 5
	DefaultBufferSize    = 5
	defaultReplenishWait = 15 * time.Second
)

type marginState int

const (
	marginSufficient marginState = iota
	marginLow
	marginExhausted
)

func classifyMargin(margin, lowWaterMark int) marginState {
	switch {
	case margin <= 0:
		return marginExhausted
	case margin <= lowWaterMark:
		return marginLow
	default:
		return marginSufficient
	}
}

// CoordinatorOptions tune the prefetch state machine.
type CoordinatorOptions struct {
	LowWaterMark     int
	BufferSize       int
	ReplenishTimeout time.Duration
}

// Coordinator decides, on every delivery, whether a user's remaining pool
// margin warrants replenishment, and serializes background fetches
// against foreground request handling through a single gate: foreground
// operations hold the gate for their whole duration, background tasks
// only around pool-mutating sections. The gate is deliberately coarse —
// outbound content fetches are rare next to request volume, so
// simplicity wins over throughput.
type Coordinator struct {
	gate sync.Mutex

	questions      *content.Pool
	songs          *content.Pool
	questionSource content.Source
	songSource     content.Source

	lowWaterMark     int
	bufferSize       int
	replenishTimeout time.Duration

	// inflight suppresses duplicate background triggers per (user, kind)
	// while one is still running.
	inflight singleflight.Group

	logger zerolog.Logger
}

func NewCoordinator(questions, songs *content.Pool, questionSource, songSource content.Source, opts CoordinatorOptions, logger zerolog.Logger) *Coordinator {
	if opts.LowWaterMark <= 0 {
		opts.LowWaterMark = DefaultLowWaterMark
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.ReplenishTimeout <= 0 {
		opts.ReplenishTimeout = defaultReplenishWait
	}
	return &Coordinator{
		questions:        questions,
		songs:            songs,
		questionSource:   questionSource,
		songSource:       songSource,
		lowWaterMark:     opts.LowWaterMark,
		bufferSize:       opts.BufferSize,
		replenishTimeout: opts.ReplenishTimeout,
		logger:           logger.With().Str("component", "prefetch_coordinator").Logger(),
	}
}

// Lock acquires the foreground gate. Every inbound game operation holds
// it for its full duration so no background network fetch's pool mutation
// can interleave with a foreground handler.
func (c *Coordinator) Lock() { c.gate.Lock() }

// Unlock releases the foreground gate.
func (c *Coordinator) Unlock() { c.gate.Unlock() }

// EnsureQuestions runs the margin state machine for the question pool.
// Must be called with the gate held. On an exhausted margin the
// replenishment happens synchronously and its failure degrades to
// ErrContentUnavailable; on a low margin one background task is
// scheduled and delivery proceeds immediately.
func (c *Coordinator) EnsureQuestions(ctx context.Context, user *Consumption) error {
	margin := int(c.questions.MaxID()) - user.Questions.Len()
	return c.ensure(ctx, c.questions, c.questionSource, user, margin)
}

// EnsureSongs runs the margin state machine for the song pool. Must be
// called with the gate held.
func (c *Coordinator) EnsureSongs(ctx context.Context, user *Consumption) error {
	margin := user.UnconsumedSongIDs(c.songs.IDs()).Len()
	return c.ensure(ctx, c.songs, c.songSource, user, margin)
}

func (c *Coordinator) ensure(ctx context.Context, pool *content.Pool, source content.Source, user *Consumption, margin int) error {
	switch classifyMargin(margin, c.lowWaterMark) {
	case marginSufficient:
		return nil
	case marginLow:
		c.triggerBackground(pool, source, user.UserID, user.Filter)
		return nil
	default:
		return c.replenishSync(ctx, pool, source, user.Filter)
	}
}

// replenishSync grows the pool before delivery; the caller pays the
// network latency exactly once per exhaustion event. The caller already
// holds the gate, so the pool takes a no-op gate.
func (c *Coordinator) replenishSync(ctx context.Context, pool *content.Pool, source content.Source, filter content.FilterOptions) error {
	kind := string(pool.Kind())
	replenishTotal.WithLabelValues(kind, "sync").Inc()

	_, err := pool.FetchMoreUnique(ctx, c.bufferSize, filter, source, content.NopGate{})
	if err != nil {
		replenishFailures.WithLabelValues(kind, "sync").Inc()
		c.logger.Error().Err(err).Str("kind", kind).Msg("synchronous replenishment failed")
		if errors.Is(err, content.ErrExhaustedSource) {
			return fmt.Errorf("%w: %s source exhausted", content.ErrContentUnavailable, kind)
		}
		return fmt.Errorf("%w: %w: %s pool empty", content.ErrContentUnavailable, content.ErrUpstreamFailure, kind)
	}
	return nil
}

// triggerBackground schedules one fire-and-forget replenishment task.
// singleflight keys the task by (user, kind): a duplicate trigger while
// one is in flight joins it instead of starting another.
func (c *Coordinator) triggerBackground(pool *content.Pool, source content.Source, userID uuid.UUID, filter content.FilterOptions) {
	kind := string(pool.Kind())
	key := userID.String() + ":" + kind

	ch := c.inflight.DoChan(key, func() (any, error) {
		replenishTotal.WithLabelValues(kind, "background").Inc()
		ctx, cancel := context.WithTimeout(context.Background(), c.replenishTimeout)
		defer cancel()
		_, err := pool.FetchMoreUnique(ctx, c.bufferSize, filter, source, &c.gate)
		return nil, err
	})

	go func() {
		res := <-ch
		if res.Err == nil {
			return
		}
		replenishFailures.WithLabelValues(kind, "background").Inc()
		// Not retried here: the next low-margin detection tries again
		// naturally on a subsequent request. A timed-out attempt is
		// indistinguishable from an exhausted source for our purposes.
		switch {
		case errors.Is(res.Err, content.ErrExhaustedSource), errors.Is(res.Err, context.DeadlineExceeded):
			c.logger.Warn().Err(res.Err).Str("kind", kind).Msg("background replenishment exhausted source")
		default:
			c.logger.Warn().Err(res.Err).Str("kind", kind).Msg("background replenishment failed")
		}
	}()
}

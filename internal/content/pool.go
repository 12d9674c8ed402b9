package content

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kkysen/listenup/internal/bitset"
)

// maxFetchRounds bounds the dedup-and-retry loop: external rankings
// reshuffle over time and degrade to duplicates, so a source that cannot
// produce enough net-new items within this many rounds is declared
// exhausted rather than hammered forever.
const maxFetchRounds = 8

// Source supplies upstream content records. A fetch may return fewer than
// count records and may repeat content the pool has already seen.
type Source interface {
	Fetch(ctx context.Context, count int, filter FilterOptions) ([]Item, error)
}

// ItemStore persists pool entries. Insert must fail (not silently
// overwrite) when the id or identity key already exists.
type ItemStore interface {
	Insert(ctx context.Context, item Item) error
	LoadAll(ctx context.Context) ([]Item, error)
}

// AudioEnqueuer receives newly inserted items for asynchronous audio
// materialization. Enqueue must not block.
type AudioEnqueuer interface {
	Enqueue(item Item)
}

// Pool is the authoritative deduplicated collection of one content kind.
// Ids are dense, start at 1, and are assigned in insertion order; the
// in-memory index (identity keys plus an id bitset) matches the store at
// the end of every insertion call.
type Pool struct {
	kind   Kind
	store  ItemStore
	audio  AudioEnqueuer
	logger zerolog.Logger

	mu    sync.Mutex
	seen  map[string]uint64
	ids   *bitset.Set
	maxID uint64
}

// NewPool builds an empty pool. Call Load before serving. audio may be
// nil when synthesis is disabled.
func NewPool(kind Kind, store ItemStore, audio AudioEnqueuer, logger zerolog.Logger) *Pool {
	return &Pool{
		kind:   kind,
		store:  store,
		audio:  audio,
		logger: logger.With().Str("component", "pool").Str("kind", string(kind)).Logger(),
		seen:   make(map[string]uint64),
		ids:    bitset.New(),
	}
}

// Load primes the in-memory index from the store.
func (p *Pool) Load(ctx context.Context) error {
	items, err := p.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load %s pool: %w", p.kind, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, item := range items {
		id := itemID(item)
		p.seen[item.IdentityKey()] = id
		p.ids.Add(id)
		if id > p.maxID {
			p.maxID = id
		}
	}
	poolSize.WithLabelValues(string(p.kind)).Set(float64(len(p.seen)))
	p.logger.Info().Int("items", len(p.seen)).Uint64("max_id", p.maxID).Msg("pool loaded")
	return nil
}

// Kind returns the pooled content kind.
func (p *Pool) Kind() Kind { return p.kind }

// Exists reports whether an item with the given identity key is pooled.
func (p *Pool) Exists(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.seen[key]
	return ok
}

// MaxID returns the current high-water mark, 0 when empty.
func (p *Pool) MaxID() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxID
}

// Size returns the number of pooled items.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

// IDs returns a snapshot of all pooled ids.
func (p *Pool) IDs() *bitset.Set {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ids.Clone()
}

// InsertIfNew assigns the next sequential id and persists item only when
// its identity key is unseen; otherwise it returns the existing id with
// inserted=false. Concurrent calls for the same new key settle on a
// single insertion. A failed store write leaves the index untouched and
// the tentative id unassigned.
func (p *Pool) InsertIfNew(ctx context.Context, item Item) (uint64, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := item.IdentityKey()
	if id, ok := p.seen[key]; ok {
		duplicatesTotal.WithLabelValues(string(p.kind)).Inc()
		return id, false, nil
	}

	id := p.maxID + 1
	stamped := item.WithID(id)
	if err := p.store.Insert(ctx, stamped); err != nil {
		return 0, false, &PersistenceError{Op: fmt.Sprintf("insert %s %d", p.kind, id), Err: err}
	}

	p.seen[key] = id
	p.ids.Add(id)
	p.maxID = id
	insertedTotal.WithLabelValues(string(p.kind)).Inc()
	poolSize.WithLabelValues(string(p.kind)).Set(float64(len(p.seen)))

	if p.audio != nil {
		p.audio.Enqueue(stamped)
	}
	return id, true, nil
}

// FetchMoreUnique grows the pool by exactly count net-new unique items
// from source, retrying with the shortfall while the source keeps handing
// back duplicates. gate is held only around the pool-mutating section of
// each round, never across the network call, so foreground handlers can
// interleave between rounds. The returned set holds the inserted ids even
// when the call ends in an error.
func (p *Pool) FetchMoreUnique(ctx context.Context, count int, filter FilterOptions, source Source, gate sync.Locker) (*bitset.Set, error) {
	inserted := bitset.New()
	need := count

	for round := 0; round < maxFetchRounds && need > 0; round++ {
		fetchRoundsTotal.WithLabelValues(string(p.kind)).Inc()
		items, err := source.Fetch(ctx, need, filter)
		if err != nil {
			return inserted, fmt.Errorf("fetch %s content: %w", p.kind, err)
		}

		gate.Lock()
		for _, item := range items {
			if need == 0 {
				break
			}
			if !item.Valid() {
				invalidTotal.WithLabelValues(string(p.kind)).Inc()
				p.logger.Warn().Str("key", item.IdentityKey()).Msg("skipping malformed upstream record")
				continue
			}
			id, ok, err := p.InsertIfNew(ctx, item)
			if err != nil {
				gate.Unlock()
				return inserted, err
			}
			if ok {
				inserted.Add(id)
			}
		}
		gate.Unlock()

		need = count - inserted.Len()
	}

	if need > 0 {
		exhaustedTotal.WithLabelValues(string(p.kind)).Inc()
		return inserted, &ExhaustedSourceError{Kind: p.kind, Requested: count, Added: count - need}
	}
	return inserted, nil
}

// NopGate satisfies sync.Locker for callers that already hold the
// foreground gate for the duration of their request.
type NopGate struct{}

func (NopGate) Lock()   {}
func (NopGate) Unlock() {}

func itemID(item Item) uint64 {
	switch v := item.(type) {
	case Question:
		return v.ID
	case Song:
		return v.ID
	}
	return 0
}

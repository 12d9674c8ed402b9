package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Synthesizer turns narration text into an audio byte stream.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// AudioRefStore records the materialized audio path for a pool entry.
type AudioRefStore interface {
	SetQuestionAudio(ctx context.Context, id uint64, path string) error
	SetSongAudio(ctx context.Context, id uint64, path string) error
}

// AudioWorker materializes audio for newly inserted pool items in the
// background. Insertion never waits on it: Enqueue drops jobs when the
// queue is full, and a failed synthesis only costs the audio ref, never
// pool correctness.
type AudioWorker struct {
	synth    Synthesizer
	store    AudioRefStore
	gate     sync.Locker
	dir      string
	encoding string
	logger   zerolog.Logger
	timeout  time.Duration
	queue    chan Item
}

func NewAudioWorker(synth Synthesizer, store AudioRefStore, gate sync.Locker, dir, encoding string, timeout time.Duration, logger zerolog.Logger) *AudioWorker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if encoding == "" {
		encoding = "wav"
	}
	if gate == nil {
		gate = NopGate{}
	}
	return &AudioWorker{
		synth:    synth,
		store:    store,
		gate:     gate,
		dir:      dir,
		encoding: encoding,
		logger:   logger.With().Str("component", "audio_worker").Logger(),
		timeout:  timeout,
		queue:    make(chan Item, 64),
	}
}

// SetGate installs the foreground gate the store write contends on.
// Must be called before Run.
func (w *AudioWorker) SetGate(gate sync.Locker) {
	w.gate = gate
}

// Enqueue schedules synthesis for item without blocking.
func (w *AudioWorker) Enqueue(item Item) {
	select {
	case w.queue <- item:
	default:
		w.logger.Warn().Str("key", item.IdentityKey()).Msg("audio queue full, dropping job")
	}
}

// Run blocks until context cancellation.
func (w *AudioWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("audio worker stopping")
			return ctx.Err()
		case item := <-w.queue:
			w.handle(ctx, item)
		}
	}
}

func (w *AudioWorker) handle(ctx context.Context, item Item) {
	jobCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	path, err := w.synthesize(jobCtx, item)
	if err != nil {
		w.logger.Warn().Err(err).Str("key", item.IdentityKey()).Msg("audio synthesis failed")
		return
	}

	// Only the store write contends with foreground handlers.
	w.gate.Lock()
	err = w.record(jobCtx, item, path)
	w.gate.Unlock()
	if err != nil {
		w.logger.Warn().Err(err).Str("path", path).Msg("audio ref update failed")
	}
}

func (w *AudioWorker) synthesize(ctx context.Context, item Item) (string, error) {
	var text, name string
	switch v := item.(type) {
	case Question:
		text = v.Narration()
		name = fmt.Sprintf("%d - %s", v.ID, sanitizeFilename(v.Text))
	case Song:
		text = v.Narration()
		name = fmt.Sprintf("%d - %s", v.ID, sanitizeFilename(v.Title))
	default:
		return "", fmt.Errorf("unknown item type %T", item)
	}

	audio, err := w.synth.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}

	subdir := "trivia"
	if _, ok := item.(Song); ok {
		subdir = "songs"
	}
	dir := filepath.Join(w.dir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+"."+w.encoding)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (w *AudioWorker) record(ctx context.Context, item Item, path string) error {
	switch v := item.(type) {
	case Question:
		return w.store.SetQuestionAudio(ctx, v.ID, path)
	case Song:
		return w.store.SetSongAudio(ctx, v.ID, path)
	}
	return nil
}

func sanitizeFilename(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
	if len(mapped) > 80 {
		mapped = mapped[:80]
	}
	return mapped
}

package game

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkysen/listenup/internal/content"
)

type memItemStore struct {
	mu    sync.Mutex
	items []content.Item
}

func (s *memItemStore) Insert(_ context.Context, item content.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
	return nil
}

func (s *memItemStore) LoadAll(_ context.Context) ([]content.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]content.Item(nil), s.items...), nil
}

// countingSource mints endless unique questions and counts fetch calls.
type countingSource struct {
	mu      sync.Mutex
	calls   int
	minted  int
	block   chan struct{} // when set, Fetch waits on it
	failAll bool
	empty   bool // when set, Fetch returns no items
}

func (s *countingSource) Fetch(_ context.Context, count int, _ content.FilterOptions) ([]content.Item, error) {
	s.mu.Lock()
	s.calls++
	block := s.block
	s.mu.Unlock()

	if block != nil {
		<-block
	}
	if s.failAll {
		return nil, fmt.Errorf("source down")
	}
	if s.empty {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]content.Item, count)
	for i := range items {
		s.minted++
		items[i] = content.Question{
			Text:       fmt.Sprintf("Question %d?", s.minted),
			Answer:     "A",
			Choices:    []string{"A", "B", "C", "D"},
			Type:       content.TypeMultiple,
			Difficulty: content.DifficultyEasy,
			Category:   "General Knowledge",
		}
	}
	return items, nil
}

func (s *countingSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type songSource struct {
	mu     sync.Mutex
	minted int
}

func (s *songSource) Fetch(_ context.Context, count int, _ content.FilterOptions) ([]content.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]content.Item, count)
	for i := range items {
		s.minted++
		items[i] = content.Song{
			Artist: fmt.Sprintf("Artist %d", s.minted),
			Title:  fmt.Sprintf("Song %d", s.minted),
			Lyrics: "la la la",
		}
	}
	return items, nil
}

type stubUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*Consumption
	saves int
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: map[uuid.UUID]*Consumption{}}
}

func (s *stubUserStore) Get(_ context.Context, userID uuid.UUID) (*Consumption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *stubUserStore) Create(_ context.Context, username string) (*Consumption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := NewConsumption(uuid.New(), username)
	s.users[user.UserID] = user
	return user, nil
}

func (s *stubUserStore) SaveConsumption(_ context.Context, c *Consumption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	return nil
}

func (s *stubUserStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// poolReader resolves ids against the pool's backing stores.
type poolReader struct {
	questions *memItemStore
	songs     *memItemStore
}

func (r *poolReader) GetQuestion(_ context.Context, id uint64) (content.Question, error) {
	r.questions.mu.Lock()
	defer r.questions.mu.Unlock()
	for _, item := range r.questions.items {
		if q, ok := item.(content.Question); ok && q.ID == id {
			return q, nil
		}
	}
	return content.Question{}, fmt.Errorf("question %d not found", id)
}

func (r *poolReader) GetSong(_ context.Context, id uint64) (content.Song, error) {
	r.songs.mu.Lock()
	defer r.songs.mu.Unlock()
	for _, item := range r.songs.items {
		if s, ok := item.(content.Song); ok && s.ID == id {
			return s, nil
		}
	}
	return content.Song{}, fmt.Errorf("song %d not found", id)
}

type fixture struct {
	service   *Service
	coord     *Coordinator
	questions *content.Pool
	songs     *content.Pool
	qSource   *countingSource
	sSource   *songSource
	users     *stubUserStore
	user      *Consumption
}

func newFixture(t *testing.T, opts CoordinatorOptions, svcOpts ...ServiceOptions) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	qStore := &memItemStore{}
	sStore := &memItemStore{}

	questions := content.NewPool(content.KindQuestion, qStore, nil, logger)
	songs := content.NewPool(content.KindSong, sStore, nil, logger)
	require.NoError(t, questions.Load(context.Background()))
	require.NoError(t, songs.Load(context.Background()))

	qSource := &countingSource{}
	sSource := &songSource{}
	coord := NewCoordinator(questions, songs, qSource, sSource, opts, logger)

	var so ServiceOptions
	if len(svcOpts) > 0 {
		so = svcOpts[0]
	}
	users := newStubUserStore()
	reader := &poolReader{questions: qStore, songs: sStore}
	service := NewService(coord, questions, songs, users, reader, nil, so, logger)

	user, err := service.CreateUser(context.Background(), "ace")
	require.NoError(t, err)

	return &fixture{
		service:   service,
		coord:     coord,
		questions: questions,
		songs:     songs,
		qSource:   qSource,
		sSource:   sSource,
		users:     users,
		user:      user,
	}
}

func (f *fixture) seedQuestions(t *testing.T, n int) {
	t.Helper()
	var gate sync.Mutex
	_, err := f.questions.FetchMoreUnique(context.Background(), n, content.FilterOptions{}, f.qSource, &gate)
	require.NoError(t, err)
}

func TestNextQuestionSufficientMarginNoReplenish(t *testing.T) {
	f := newFixture(t, CoordinatorOptions{LowWaterMark: 5, BufferSize: 5})
	f.seedQuestions(t, 10)
	callsBefore := f.qSource.Calls()

	q, err := f.service.NextQuestion(context.Background(), f.user.UserID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), q.ID)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, callsBefore, f.qSource.Calls(), "margin above low-water mark triggers nothing")
}

func TestNextQuestionLowMarginTriggersOneBackgroundReplenish(t *testing.T) {
	f := newFixture(t, CoordinatorOptions{LowWaterMark: 5, BufferSize: 5})
	f.seedQuestions(t, 3) // margin 3: low but not exhausted
	callsBefore := f.qSource.Calls()

	q, err := f.service.NextQuestion(context.Background(), f.user.UserID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), q.ID, "delivery is immediate, from the existing pool")

	assert.Eventually(t, func() bool {
		return f.questions.Size() == 8
	}, time.Second, 5*time.Millisecond, "background task grows the pool by the buffer size")
	assert.Equal(t, callsBefore+1, f.qSource.Calls(), "exactly one background fetch")
}

func TestNextQuestionExhaustedReplenishesSynchronously(t *testing.T) {
	f := newFixture(t, CoordinatorOptions{LowWaterMark: 5, BufferSize: 5})
	// empty pool: margin 0

	q, err := f.service.NextQuestion(context.Background(), f.user.UserID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), q.ID, "delivery happens after the synchronous replenishment")
	assert.Equal(t, 5, f.questions.Size())

	calls := f.qSource.Calls()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, f.qSource.Calls(), "exhausted path never schedules a background task")
}

func TestNextQuestionExhaustedSourceFailureDegrades(t *testing.T) {
	f := newFixture(t, CoordinatorOptions{LowWaterMark: 5, BufferSize: 5})
	f.qSource.failAll = true

	_, err := f.service.NextQuestion(context.Background(), f.user.UserID)
	assert.ErrorIs(t, err, content.ErrContentUnavailable, "upstream detail is not surfaced")
	assert.ErrorIs(t, err, content.ErrUpstreamFailure, "the source failure is distinguishable from exhaustion")
}

func TestDuplicateBackgroundTriggersSuppressed(t *testing.T) {
	f := newFixture(t, CoordinatorOptions{LowWaterMark: 5, BufferSize: 5})
	f.seedQuestions(t, 4)
	callsBefore := f.qSource.Calls()

	block := make(chan struct{})
	f.qSource.mu.Lock()
	f.qSource.block = block
	f.qSource.mu.Unlock()

	// two low-margin deliveries while the first replenishment is stuck
	_, err := f.service.NextQuestion(context.Background(), f.user.UserID)
	require.NoError(t, err)
	_, err = f.service.NextQuestion(context.Background(), f.user.UserID)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, callsBefore+1, f.qSource.Calls(), "second trigger joined the in-flight task")

	f.qSource.mu.Lock()
	f.qSource.block = nil
	f.qSource.mu.Unlock()
	close(block)

	assert.Eventually(t, func() bool {
		return f.questions.Size() == 9
	}, time.Second, 5*time.Millisecond)
}

func TestCompleteQuestion(t *testing.T) {
	f := newFixture(t, CoordinatorOptions{LowWaterMark: 1, BufferSize: 5})
	f.seedQuestions(t, 5)
	ctx := context.Background()

	q, err := f.service.NextQuestion(ctx, f.user.UserID)
	require.NoError(t, err)

	correct, err := f.service.CompleteQuestion(ctx, f.user.UserID, 0, "wrong answer")
	require.NoError(t, err)
	assert.False(t, correct)
	assert.Equal(t, 0, f.user.Points)

	correct, err = f.service.CompleteQuestion(ctx, f.user.UserID, 0, q.Answer)
	require.NoError(t, err)
	assert.True(t, correct)
	assert.Equal(t, 1, f.user.Points)
	assert.Equal(t, 1, f.users.Saves(), "consumption persisted after the mutation")

	// the next delivery moves past the consumed question
	q2, err := f.service.NextQuestion(ctx, f.user.UserID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), q2.ID)
}

func TestNextSongMintsWhenNoneLeft(t *testing.T) {
	f := newFixture(t, CoordinatorOptions{LowWaterMark: 5, BufferSize: 5})
	ctx := context.Background()

	song, err := f.service.NextSong(ctx, f.user.UserID, true)
	require.NoError(t, err)
	assert.NotZero(t, song.ID)
	assert.True(t, f.user.Songs.Contains(song.ID), "record=true marks the song played")
	assert.Equal(t, 1, f.users.Saves())

	// record=false leaves consumption untouched
	before := f.user.Songs.Len()
	_, err = f.service.NextSong(ctx, f.user.UserID, false)
	require.NoError(t, err)
	assert.Equal(t, before, f.user.Songs.Len())
}

func TestNextSongNeverRepeatsHeardSongs(t *testing.T) {
	f := newFixture(t, CoordinatorOptions{LowWaterMark: 1, BufferSize: 3})
	ctx := context.Background()

	heard := map[uint64]bool{}
	for i := 0; i < 6; i++ {
		song, err := f.service.NextSong(ctx, f.user.UserID, true)
		require.NoError(t, err)
		assert.False(t, heard[song.ID], "song %d repeated", song.ID)
		heard[song.ID] = true
	}
}

func TestClaimWinThroughService(t *testing.T) {
	f := newFixture(t, CoordinatorOptions{LowWaterMark: 1, BufferSize: 10})
	f.seedQuestions(t, 10)
	ctx := context.Background()

	for i := 0; i < DefaultWinningPoints; i++ {
		q, err := f.service.NextQuestion(ctx, f.user.UserID)
		require.NoError(t, err)
		correct, err := f.service.CompleteQuestion(ctx, f.user.UserID, q.ID, q.Answer)
		require.NoError(t, err)
		require.True(t, correct)
	}

	won, err := f.service.ClaimWin(ctx, f.user.UserID)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = f.service.ClaimWin(ctx, f.user.UserID)
	require.NoError(t, err)
	assert.False(t, won, "claim is one-shot")
}

func TestConfiguredWinningPointsApplied(t *testing.T) {
	f := newFixture(t, CoordinatorOptions{LowWaterMark: 1, BufferSize: 5}, ServiceOptions{WinningPoints: 2})
	f.seedQuestions(t, 5)
	ctx := context.Background()

	assert.Equal(t, 2, f.user.WinningPoints)

	for i := 0; i < 2; i++ {
		q, err := f.service.NextQuestion(ctx, f.user.UserID)
		require.NoError(t, err)
		correct, err := f.service.CompleteQuestion(ctx, f.user.UserID, q.ID, q.Answer)
		require.NoError(t, err)
		require.True(t, correct)
	}

	won, err := f.service.ClaimWin(ctx, f.user.UserID)
	require.NoError(t, err)
	assert.True(t, won, "configured threshold, not the default, decides the win")

	// the threshold survives a session reload
	f.service.EndSession(f.user.UserID)
	user, err := f.service.User(ctx, f.user.UserID)
	require.NoError(t, err)
	assert.Equal(t, 2, user.WinningPoints)
}

func TestRecordSongPlayedRejectsUnknownID(t *testing.T) {
	f := newFixture(t, CoordinatorOptions{LowWaterMark: 1, BufferSize: 3})
	ctx := context.Background()

	_, err := f.service.NextSong(ctx, f.user.UserID, false) // mints the first batch
	require.NoError(t, err)

	err = f.service.RecordSongPlayed(ctx, f.user.UserID, 99)
	assert.ErrorIs(t, err, ErrUnknownSong)
	assert.False(t, f.user.Songs.Contains(99), "rejected id never reaches the ledger")
	assert.Equal(t, 0, f.users.Saves())

	require.NoError(t, f.service.RecordSongPlayed(ctx, f.user.UserID, 1))
	assert.True(t, f.user.Songs.Contains(1))
}

func TestSessionReloadsFromStore(t *testing.T) {
	f := newFixture(t, CoordinatorOptions{})
	ctx := context.Background()

	f.service.EndSession(f.user.UserID)
	user, err := f.service.User(ctx, f.user.UserID)
	require.NoError(t, err)
	assert.Equal(t, f.user.UserID, user.UserID)

	_, err = f.service.User(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

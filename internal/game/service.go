package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kkysen/listenup/internal/content"
)

// UserStore loads and persists user consumption state.
type UserStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*Consumption, error)
	Create(ctx context.Context, username string) (*Consumption, error)
	SaveConsumption(ctx context.Context, c *Consumption) error
}

// ContentReader resolves pool ids to full content records.
type ContentReader interface {
	GetQuestion(ctx context.Context, id uint64) (content.Question, error)
	GetSong(ctx context.Context, id uint64) (content.Song, error)
}

// ServiceOptions tune the game rules.
type ServiceOptions struct {
	// WinningPoints is the per-game threshold; zero means the default.
	WinningPoints int
}

// Service is the foreground surface of the content game: next-item
// delivery, answer checking, and play recording. Every operation holds
// the coordinator gate for its full duration, which keeps UserConsumption
// mutations serialized per user and pool mutations serialized globally.
type Service struct {
	coord         *Coordinator
	questions     *content.Pool
	songs         *content.Pool
	users         UserStore
	reader        ContentReader
	cache         *content.Cache
	sessions      *SessionRegistry
	rng           *rand.Rand
	winningPoints int
	logger        zerolog.Logger
}

// NewService wires the game surface. cache may be nil.
func NewService(coord *Coordinator, questions, songs *content.Pool, users UserStore, reader ContentReader, cache *content.Cache, opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.WinningPoints <= 0 {
		opts.WinningPoints = DefaultWinningPoints
	}
	return &Service{
		coord:         coord,
		questions:     questions,
		songs:         songs,
		users:         users,
		reader:        reader,
		cache:         cache,
		sessions:      NewSessionRegistry(),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		winningPoints: opts.WinningPoints,
		logger:        logger.With().Str("component", "game_service").Logger(),
	}
}

// CreateUser registers a new account and opens its session.
func (s *Service) CreateUser(ctx context.Context, username string) (*Consumption, error) {
	s.coord.Lock()
	defer s.coord.Unlock()

	user, err := s.users.Create(ctx, username)
	if err != nil {
		return nil, err
	}
	user.WinningPoints = s.winningPoints
	s.sessions.Put(user)
	return user, nil
}

// User returns the session state for userID, loading it on first use.
func (s *Service) User(ctx context.Context, userID uuid.UUID) (*Consumption, error) {
	s.coord.Lock()
	defer s.coord.Unlock()
	return s.session(ctx, userID)
}

// NextQuestion returns the first question in id order the user has not
// consumed, running the prefetch state machine first so the pool never
// silently runs dry.
func (s *Service) NextQuestion(ctx context.Context, userID uuid.UUID) (content.Question, error) {
	s.coord.Lock()
	defer s.coord.Unlock()

	user, err := s.session(ctx, userID)
	if err != nil {
		return content.Question{}, err
	}

	if err := s.coord.EnsureQuestions(ctx, user); err != nil {
		return content.Question{}, err
	}

	maxID := s.questions.MaxID()
	id := user.NextUnconsumedQuestionID(maxID)
	if id > maxID {
		// replenishment succeeded yet delivered nothing new for this
		// user; treat as unavailable rather than loop
		return content.Question{}, content.ErrContentUnavailable
	}

	question, err := s.getQuestion(ctx, id)
	if err != nil {
		return content.Question{}, err
	}

	user.LastQuestionID = id
	deliveriesTotal.WithLabelValues(string(content.KindQuestion)).Inc()
	return question, nil
}

// CompleteQuestion checks the submitted answer against the question and,
// when correct, marks it consumed and persists the mutation. questionID 0
// means the last delivered question.
func (s *Service) CompleteQuestion(ctx context.Context, userID uuid.UUID, questionID uint64, answer string) (bool, error) {
	s.coord.Lock()
	defer s.coord.Unlock()

	user, err := s.session(ctx, userID)
	if err != nil {
		return false, err
	}

	if questionID == 0 {
		questionID = user.LastQuestionID
	}
	if questionID == 0 {
		return false, fmt.Errorf("no question delivered yet")
	}

	question, err := s.getQuestion(ctx, questionID)
	if err != nil {
		return false, err
	}

	if answer != question.Answer {
		return false, nil
	}

	user.MarkQuestionConsumed(questionID)
	if err := s.users.SaveConsumption(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}

// NextSong returns a uniformly random song the user has not heard,
// minting new songs synchronously when none remain. When record is true
// the delivery is recorded and persisted immediately.
func (s *Service) NextSong(ctx context.Context, userID uuid.UUID, record bool) (content.Song, error) {
	s.coord.Lock()
	defer s.coord.Unlock()

	user, err := s.session(ctx, userID)
	if err != nil {
		return content.Song{}, err
	}

	if err := s.coord.EnsureSongs(ctx, user); err != nil {
		return content.Song{}, err
	}

	id, ok := user.PickRandomSong(s.songs.IDs(), s.rng)
	if !ok {
		return content.Song{}, content.ErrContentUnavailable
	}

	song, err := s.getSong(ctx, id)
	if err != nil {
		return content.Song{}, err
	}

	if record {
		user.MarkSongPlayed(id)
		if err := s.users.SaveConsumption(ctx, user); err != nil {
			return content.Song{}, err
		}
	}
	deliveriesTotal.WithLabelValues(string(content.KindSong)).Inc()
	return song, nil
}

// RecordSongPlayed marks songID heard and persists the mutation. Only
// ids the pool actually issued are accepted, so a client cannot bloat
// the ledger with arbitrary high bits.
func (s *Service) RecordSongPlayed(ctx context.Context, userID uuid.UUID, songID uint64) error {
	s.coord.Lock()
	defer s.coord.Unlock()

	user, err := s.session(ctx, userID)
	if err != nil {
		return err
	}
	if !s.songs.IDs().Contains(songID) {
		return fmt.Errorf("%w: %d", ErrUnknownSong, songID)
	}
	user.MarkSongPlayed(songID)
	return s.users.SaveConsumption(ctx, user)
}

// ClaimWin consumes a win if the user's current game has crossed the
// threshold, returning whether it did.
func (s *Service) ClaimWin(ctx context.Context, userID uuid.UUID) (bool, error) {
	s.coord.Lock()
	defer s.coord.Unlock()

	user, err := s.session(ctx, userID)
	if err != nil {
		return false, err
	}
	won := user.ClaimWin()
	if won {
		winsTotal.Inc()
	}
	return won, nil
}

// SetOptions validates and applies the user's question filter.
func (s *Service) SetOptions(ctx context.Context, userID uuid.UUID, filter content.FilterOptions) error {
	s.coord.Lock()
	defer s.coord.Unlock()

	user, err := s.session(ctx, userID)
	if err != nil {
		return err
	}
	return user.SetFilter(filter)
}

// EndSession drops the live session state for userID.
func (s *Service) EndSession(userID uuid.UUID) {
	s.sessions.Remove(userID)
}

// session returns the live Consumption for userID, loading from the user
// store on the first request of a session.
func (s *Service) session(ctx context.Context, userID uuid.UUID) (*Consumption, error) {
	if user := s.sessions.Get(userID); user != nil {
		return user, nil
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.WinningPoints = s.winningPoints
	s.sessions.Put(user)
	return user, nil
}

func (s *Service) getQuestion(ctx context.Context, id uint64) (content.Question, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetQuestion(ctx, id); err == nil && cached != nil {
			return *cached, nil
		}
	}
	question, err := s.reader.GetQuestion(ctx, id)
	if err != nil {
		return content.Question{}, fmt.Errorf("load question %d: %w", id, err)
	}
	if s.cache != nil {
		if err := s.cache.SetQuestion(ctx, question); err != nil {
			s.logger.Warn().Err(err).Uint64("id", id).Msg("question cache write failed")
		}
	}
	return question, nil
}

func (s *Service) getSong(ctx context.Context, id uint64) (content.Song, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetSong(ctx, id); err == nil && cached != nil {
			return *cached, nil
		}
	}
	song, err := s.reader.GetSong(ctx, id)
	if err != nil {
		return content.Song{}, fmt.Errorf("load song %d: %w", id, err)
	}
	if s.cache != nil {
		if err := s.cache.SetSong(ctx, song); err != nil {
			s.logger.Warn().Err(err).Uint64("id", id).Msg("song cache write failed")
		}
	}
	return song, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kkysen/listenup/internal/bitset"
	"github.com/kkysen/listenup/internal/db"
	"github.com/kkysen/listenup/internal/game"
)

type userStore interface {
	CreateUser(ctx context.Context, row db.UserRow) error
	GetUserByID(ctx context.Context, userID uuid.UUID) (db.UserRow, error)
	UserExists(ctx context.Context, username string) (bool, error)
	UpdateUserConsumption(ctx context.Context, userID uuid.UUID, points int, questions, songs []byte) error
}

// UserRepository stores user accounts and their consumption ledgers. The
// two bitsets travel to Postgres as packed little-endian words in BYTEA
// columns.
type UserRepository struct {
	store userStore
}

// NewUserRepository wraps Queries for user-specific operations.
func NewUserRepository(store userStore) *UserRepository {
	return &UserRepository{store: store}
}

// Create inserts a fresh account with empty consumption ledgers.
func (r *UserRepository) Create(ctx context.Context, username string) (*game.Consumption, error) {
	taken, err := r.store.UserExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, game.ErrUsernameTaken
	}

	user := game.NewConsumption(uuid.New(), username)
	row := db.UserRow{
		UserID:    user.UserID,
		Username:  user.Username,
		Questions: mustMarshal(user.Questions),
		Songs:     mustMarshal(user.Songs),
	}
	if err := r.store.CreateUser(ctx, row); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Get loads an account and rebuilds its session state.
func (r *UserRepository) Get(ctx context.Context, userID uuid.UUID) (*game.Consumption, error) {
	row, err := r.store.GetUserByID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, game.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	questions := bitset.New()
	if err := questions.UnmarshalBinary(row.Questions); err != nil {
		return nil, fmt.Errorf("decode question ledger: %w", err)
	}
	songs := bitset.New()
	if err := songs.UnmarshalBinary(row.Songs); err != nil {
		return nil, fmt.Errorf("decode song ledger: %w", err)
	}
	return game.Restore(row.UserID, row.Username, row.Points, questions, songs), nil
}

// SaveConsumption writes back points and both ledgers.
func (r *UserRepository) SaveConsumption(ctx context.Context, c *game.Consumption) error {
	err := r.store.UpdateUserConsumption(ctx, c.UserID, c.Points,
		mustMarshal(c.Questions), mustMarshal(c.Songs))
	if errors.Is(err, db.ErrNotFound) {
		return game.ErrUserNotFound
	}
	return err
}

func mustMarshal(s *bitset.Set) []byte {
	b, _ := s.MarshalBinary()
	return b
}

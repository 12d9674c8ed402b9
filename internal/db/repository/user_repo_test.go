package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/kkysen/listenup/internal/bitset"
	"github.com/kkysen/listenup/internal/db"
	"github.com/kkysen/listenup/internal/game"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) CreateUser(ctx context.Context, row db.UserRow) error {
	return m.Called(ctx, row).Error(0)
}

func (m *mockUserStore) GetUserByID(ctx context.Context, userID uuid.UUID) (db.UserRow, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(db.UserRow), args.Error(1)
}

func (m *mockUserStore) UserExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserStore) UpdateUserConsumption(ctx context.Context, userID uuid.UUID, points int, questions, songs []byte) error {
	return m.Called(ctx, userID, points, questions, songs).Error(0)
}

func TestUserRepository_Create(t *testing.T) {
	store := new(mockUserStore)
	repo := NewUserRepository(store)

	store.On("UserExists", mock.Anything, "ace").Return(false, nil)
	store.On("CreateUser", mock.Anything, mock.MatchedBy(func(row db.UserRow) bool {
		return row.Username == "ace" && row.Points == 0 &&
			len(row.Questions) == 0 && len(row.Songs) == 0
	})).Return(nil)

	got, err := repo.Create(context.Background(), "ace")

	assert.NoError(t, err)
	assert.Equal(t, "ace", got.Username)
	assert.Equal(t, 0, got.Questions.Len())
	store.AssertExpectations(t)
}

func TestUserRepository_CreateTakenUsername(t *testing.T) {
	store := new(mockUserStore)
	repo := NewUserRepository(store)

	store.On("UserExists", mock.Anything, "ace").Return(true, nil)

	_, err := repo.Create(context.Background(), "ace")

	assert.ErrorIs(t, err, game.ErrUsernameTaken)
	store.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestUserRepository_GetRestoresLedgers(t *testing.T) {
	store := new(mockUserStore)
	repo := NewUserRepository(store)

	userID := uuid.New()
	questions := bitset.FromIDs(1, 2, 4)
	songs := bitset.FromIDs(3)
	row := db.UserRow{
		UserID:    userID,
		Username:  "ace",
		Points:    7,
		Questions: marshalSet(t, questions),
		Songs:     marshalSet(t, songs),
	}
	store.On("GetUserByID", mock.Anything, userID).Return(row, nil)

	got, err := repo.Get(context.Background(), userID)

	assert.NoError(t, err)
	assert.Equal(t, 7, got.Points)
	assert.Equal(t, 7, got.StartingPoints)
	assert.True(t, got.Questions.Contains(4))
	assert.False(t, got.Questions.Contains(3))
	assert.True(t, got.Songs.Contains(3))
	store.AssertExpectations(t)
}

func TestUserRepository_GetNotFound(t *testing.T) {
	store := new(mockUserStore)
	repo := NewUserRepository(store)

	userID := uuid.New()
	store.On("GetUserByID", mock.Anything, userID).Return(db.UserRow{}, db.ErrNotFound)

	_, err := repo.Get(context.Background(), userID)

	assert.ErrorIs(t, err, game.ErrUserNotFound)
}

func TestUserRepository_SaveConsumption(t *testing.T) {
	store := new(mockUserStore)
	repo := NewUserRepository(store)

	user := game.NewConsumption(uuid.New(), "ace")
	user.Questions.Add(1)
	user.Points = 1

	store.On("UpdateUserConsumption", mock.Anything, user.UserID, 1,
		marshalSet(t, user.Questions), marshalSet(t, user.Songs)).Return(nil)

	err := repo.SaveConsumption(context.Background(), user)

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func marshalSet(t *testing.T, s *bitset.Set) []byte {
	t.Helper()
	b, err := s.MarshalBinary()
	assert.NoError(t, err)
	return b
}

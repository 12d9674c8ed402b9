package game

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/kkysen/listenup/internal/bitset"
	"github.com/kkysen/listenup/internal/content"
)

func TestNextUnconsumedQuestionID(t *testing.T) {
	user := NewConsumption(uuid.New(), "ace")
	user.Questions = bitset.FromIDs(1, 2, 4)

	assert.Equal(t, uint64(3), user.NextUnconsumedQuestionID(5), "smallest missing id")

	user.Questions = bitset.FromIDs(1, 2, 3, 4, 5)
	assert.Equal(t, uint64(6), user.NextUnconsumedQuestionID(5), "exhausted pool returns maxID+1")

	user.Questions = bitset.New()
	assert.Equal(t, uint64(1), user.NextUnconsumedQuestionID(5))
	assert.Equal(t, uint64(1), user.NextUnconsumedQuestionID(0), "empty pool returns 1 (= maxID+1)")
}

func TestMarkQuestionConsumedIsIdempotent(t *testing.T) {
	user := NewConsumption(uuid.New(), "ace")

	user.MarkQuestionConsumed(7)
	assert.Equal(t, 1, user.Points)
	assert.True(t, user.Questions.Contains(7))

	user.MarkQuestionConsumed(7)
	assert.Equal(t, 1, user.Points, "re-consuming the same question does not double count")
}

func TestUnconsumedSongIDs(t *testing.T) {
	user := NewConsumption(uuid.New(), "ace")
	user.Songs = bitset.FromIDs(1, 3)

	pool := bitset.FromIDs(1, 2, 3, 4)
	assert.Equal(t, []uint64{2, 4}, user.UnconsumedSongIDs(pool).Members())

	user.Songs = bitset.FromIDs(1, 2, 3, 4)
	assert.Zero(t, user.UnconsumedSongIDs(pool).Len(), "all heard means empty set")
}

func TestPickRandomSong(t *testing.T) {
	user := NewConsumption(uuid.New(), "ace")
	user.Songs = bitset.FromIDs(2)
	pool := bitset.FromIDs(1, 2, 3)
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		id, ok := user.PickRandomSong(pool, r)
		assert.True(t, ok)
		assert.NotEqual(t, uint64(2), id, "never picks a heard song")
	}

	user.Songs = pool.Clone()
	_, ok := user.PickRandomSong(pool, r)
	assert.False(t, ok)
}

func TestClaimWinConsumedOnce(t *testing.T) {
	user := NewConsumption(uuid.New(), "ace")
	user.WinningPoints = 3

	assert.False(t, user.HasWon())
	assert.False(t, user.ClaimWin())

	for id := uint64(1); id <= 3; id++ {
		user.MarkQuestionConsumed(id)
	}

	// HasWon stays true across repeated checks; ClaimWin consumes it
	assert.True(t, user.HasWon())
	assert.True(t, user.HasWon())
	assert.True(t, user.ClaimWin())
	assert.False(t, user.ClaimWin(), "win is one-shot per threshold crossing")
	assert.False(t, user.HasWon())

	// the next game starts from the new baseline
	assert.Equal(t, 0, user.GamePoints())
	for id := uint64(4); id <= 6; id++ {
		user.MarkQuestionConsumed(id)
	}
	assert.True(t, user.ClaimWin())
}

func TestSetFilterValidates(t *testing.T) {
	user := NewConsumption(uuid.New(), "ace")

	err := user.SetFilter(content.FilterOptions{Difficulty: "impossible"})
	assert.ErrorIs(t, err, content.ErrInvalidOption)

	assert.NoError(t, user.SetFilter(content.FilterOptions{
		Type:       "Multiple Choice",
		Difficulty: "Hard",
		Category:   "Default",
	}))
	assert.Equal(t, "Multiple Choice", user.Filter.Type)
	assert.Empty(t, user.Filter.Category, "Default normalizes to unset")
}

func TestRestoreStartsFreshGame(t *testing.T) {
	user := Restore(uuid.New(), "ace", 12, bitset.FromIDs(1, 2), bitset.New())

	assert.Equal(t, 12, user.Points)
	assert.Equal(t, 0, user.GamePoints(), "resumed session begins a new game")
	assert.Equal(t, DefaultWinningPoints, user.WinningPoints)
}

package game

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/kkysen/listenup/internal/bitset"
	"github.com/kkysen/listenup/internal/content"
)

// DefaultWinningPoints is the per-game point threshold.
const DefaultWinningPoints = 5

// Consumption tracks which pool content a user has already received,
// plus their scoring state. Points and the two bitsets are persisted
// after every mutation; StartingPoints, WinningPoints, LastQuestionID and
// Filter live only for the span of a session.
type Consumption struct {
	UserID   uuid.UUID
	Username string

	Points    int
	Questions *bitset.Set
	Songs     *bitset.Set

	StartingPoints int
	WinningPoints  int
	LastQuestionID uint64
	Filter         content.FilterOptions
}

// NewConsumption returns the state of a freshly created account: empty
// sets, zero points, default winning threshold.
func NewConsumption(userID uuid.UUID, username string) *Consumption {
	return &Consumption{
		UserID:        userID,
		Username:      username,
		Questions:     bitset.New(),
		Songs:         bitset.New(),
		WinningPoints: DefaultWinningPoints,
	}
}

// Restore rebuilds session state around persisted fields. StartingPoints
// picks up the current points so a resumed session begins a fresh game.
func Restore(userID uuid.UUID, username string, points int, questions, songs *bitset.Set) *Consumption {
	return &Consumption{
		UserID:         userID,
		Username:       username,
		Points:         points,
		Questions:      questions,
		Songs:          songs,
		StartingPoints: points,
		WinningPoints:  DefaultWinningPoints,
	}
}

// NextUnconsumedQuestionID scans ids 1..maxID in increasing order and
// returns the first one the user has not consumed, or maxID+1 when the
// pool is exhausted for this user. A linear bitset scan is fast here
// because consumption is dense: users work through the pool front to
// back, leaving few gaps.
func (c *Consumption) NextUnconsumedQuestionID(maxID uint64) uint64 {
	return c.Questions.NextAbsent(maxID)
}

// MarkQuestionConsumed records a delivered-and-answered question. The
// insert is idempotent; points only move on the first consumption.
func (c *Consumption) MarkQuestionConsumed(id uint64) {
	if c.Questions.Add(id) {
		c.Points++
	}
}

// MarkSongPlayed records that the song was played for this user.
func (c *Consumption) MarkSongPlayed(id uint64) {
	c.Songs.Add(id)
}

// UnconsumedSongIDs returns the pool ids the user has not heard yet.
func (c *Consumption) UnconsumedSongIDs(poolIDs *bitset.Set) *bitset.Set {
	return poolIDs.Difference(c.Songs)
}

// PickRandomSong selects a uniformly random unheard song id.
func (c *Consumption) PickRandomSong(poolIDs *bitset.Set, r *rand.Rand) (uint64, bool) {
	return c.UnconsumedSongIDs(poolIDs).Pick(r)
}

// GamePoints is the score within the current game.
func (c *Consumption) GamePoints() int {
	return c.Points - c.StartingPoints
}

// HasWon reports whether the current game's points have reached the
// winning threshold. It never mutates state; use ClaimWin to consume the
// win.
func (c *Consumption) HasWon() bool {
	return c.GamePoints() >= c.WinningPoints
}

// ClaimWin consumes a threshold crossing: it reports whether the user had
// won and, if so, resets the game baseline so the same crossing cannot be
// claimed twice.
func (c *Consumption) ClaimWin() bool {
	if !c.HasWon() {
		return false
	}
	c.StartingPoints = c.Points
	return true
}

// SetFilter validates and applies new question filter options.
func (c *Consumption) SetFilter(f content.FilterOptions) error {
	if err := f.Validate(); err != nil {
		return err
	}
	c.Filter = f.Normalize()
	return nil
}

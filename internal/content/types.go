package content

import (
	"math/rand"
	"sort"
	"strings"
)

// Kind discriminates the two pooled content types.
type Kind string

const (
	KindQuestion Kind = "question"
	KindSong     Kind = "song"
)

// Question type constants (OpenTDB vocabulary).
const (
	TypeMultiple = "multiple"
	TypeBoolean  = "boolean"
)

// Difficulty constants.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Item is a pooled content record. IdentityKey is the duplicate-detection
// key: two items with equal keys collapse to one pool entry.
type Item interface {
	IdentityKey() string
	WithID(id uint64) Item
	Valid() bool
}

// keySep separates identity key fields; it cannot occur in upstream text.
const keySep = "\x1f"

// Question is a trivia question. Choices are shuffled once when the
// question is built from an upstream record and keep that order for the
// lifetime of the record.
type Question struct {
	ID         uint64   `json:"id"`
	Text       string   `json:"text"`
	Answer     string   `json:"answer"`
	Choices    []string `json:"choices"`
	Type       string   `json:"type"`
	Difficulty string   `json:"difficulty"`
	Category   string   `json:"category"`
	AudioPath  string   `json:"audio_path,omitempty"`
}

// NewQuestion builds a Question from an upstream record, shuffling the
// correct answer into the incorrect ones.
func NewQuestion(text, answer string, incorrect []string, qType, difficulty, category string) Question {
	choices := make([]string, 0, len(incorrect)+1)
	choices = append(choices, answer)
	choices = append(choices, incorrect...)
	rand.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})
	return Question{
		Text:       text,
		Answer:     answer,
		Choices:    choices,
		Type:       qType,
		Difficulty: difficulty,
		Category:   category,
	}
}

// IdentityKey is text + answer + choices-as-set, so re-fetched copies of
// the same question collapse regardless of choice order.
func (q Question) IdentityKey() string {
	choices := append([]string(nil), q.Choices...)
	sort.Strings(choices)
	return strings.Join(append([]string{q.Text, q.Answer}, choices...), keySep)
}

// Narration is the text read aloud by the synthesizer.
func (q Question) Narration() string {
	return "The question is: " + q.Text + ".  The choices are: " +
		strings.Join(q.Choices, ", ") + ".  Select the correct answer."
}

// WithID returns a copy carrying the assigned pool id.
func (q Question) WithID(id uint64) Item {
	q.ID = id
	return q
}

// Valid reports whether the upstream record is usable.
func (q Question) Valid() bool {
	return q.Text != "" && q.Answer != "" && len(q.Choices) >= 2
}

// Song is a charted song with lyrics.
type Song struct {
	ID        uint64 `json:"id"`
	Artist    string `json:"artist"`
	Title     string `json:"title"`
	Lyrics    string `json:"lyrics"`
	AudioPath string `json:"audio_path,omitempty"`
}

// IdentityKey is artist + title.
func (s Song) IdentityKey() string {
	return s.Artist + keySep + s.Title
}

// Valid reports whether the upstream record is usable.
func (s Song) Valid() bool {
	return s.Artist != "" && s.Title != "" && s.Lyrics != ""
}

// WithID returns a copy carrying the assigned pool id.
func (s Song) WithID(id uint64) Item {
	s.ID = id
	return s
}

var lyricReplacements = []struct{ from, to string }{
	{"fuck", "heck"},
	{"shit", "shoot"},
	{"bitch", "beep"},
	{"damn", "dang"},
	{"cocaine", "coca-cola"},
	{"nigga", "beep"},
	{"ass", "ash"},
	{"hoe", "who"},
	{"pussy", "cat"},
	{"\n", " "},
}

// BleepedLyrics lowercases the lyrics and scrubs words the synthesizer
// should not read.
func (s Song) BleepedLyrics() string {
	lyrics := strings.ToLower(s.Lyrics)
	for _, r := range lyricReplacements {
		lyrics = strings.ReplaceAll(lyrics, r.from, r.to)
	}
	return lyrics
}

// Narration is the text read aloud by the synthesizer.
func (s Song) Narration() string {
	return s.BleepedLyrics()
}

// Package db holds the typed query layer over Postgres.
package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kkysen/listenup/internal/content"
)

// ErrNotFound marks a lookup with no matching row.
var ErrNotFound = errors.New("row not found")

// UserRow is the persisted slice of a user account: identity, points and
// the two serialized consumption bitsets.
type UserRow struct {
	UserID    uuid.UUID
	Username  string
	Points    int
	Questions []byte
	Songs     []byte
}

// Queries executes the application's SQL against a pgx pool.
type Queries struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

func (q *Queries) InsertQuestion(ctx context.Context, question content.Question) error {
	_, err := q.pool.Exec(ctx, `
		INSERT INTO questions (id, text, answer, choices, type, difficulty, category, audio_path, identity_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		question.ID, question.Text, question.Answer, question.Choices,
		question.Type, question.Difficulty, question.Category,
		nullText(question.AudioPath), question.IdentityKey(),
	)
	return err
}

func (q *Queries) GetQuestionByID(ctx context.Context, id uint64) (content.Question, error) {
	row := q.pool.QueryRow(ctx, `
		SELECT id, text, answer, choices, type, difficulty, category, audio_path
		FROM questions WHERE id = $1`, id)
	return scanQuestion(row)
}

func (q *Queries) ListQuestions(ctx context.Context) ([]content.Question, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, text, answer, choices, type, difficulty, category, audio_path
		FROM questions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []content.Question
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, question)
	}
	return out, rows.Err()
}

func (q *Queries) SetQuestionAudio(ctx context.Context, id uint64, path string) error {
	_, err := q.pool.Exec(ctx, `UPDATE questions SET audio_path = $1 WHERE id = $2`, path, id)
	return err
}

func (q *Queries) InsertSong(ctx context.Context, song content.Song) error {
	_, err := q.pool.Exec(ctx, `
		INSERT INTO songs (id, artist, title, lyrics, audio_path)
		VALUES ($1, $2, $3, $4, $5)`,
		song.ID, song.Artist, song.Title, song.Lyrics, nullText(song.AudioPath),
	)
	return err
}

func (q *Queries) GetSongByID(ctx context.Context, id uint64) (content.Song, error) {
	row := q.pool.QueryRow(ctx, `
		SELECT id, artist, title, lyrics, audio_path FROM songs WHERE id = $1`, id)
	return scanSong(row)
}

func (q *Queries) ListSongs(ctx context.Context) ([]content.Song, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, artist, title, lyrics, audio_path FROM songs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []content.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, song)
	}
	return out, rows.Err()
}

func (q *Queries) SetSongAudio(ctx context.Context, id uint64, path string) error {
	_, err := q.pool.Exec(ctx, `UPDATE songs SET audio_path = $1 WHERE id = $2`, path, id)
	return err
}

func (q *Queries) CreateUser(ctx context.Context, row UserRow) error {
	_, err := q.pool.Exec(ctx, `
		INSERT INTO users (user_id, username, points, questions, songs)
		VALUES ($1, $2, $3, $4, $5)`,
		row.UserID, row.Username, row.Points, row.Questions, row.Songs,
	)
	return err
}

func (q *Queries) GetUserByID(ctx context.Context, userID uuid.UUID) (UserRow, error) {
	var row UserRow
	err := q.pool.QueryRow(ctx, `
		SELECT user_id, username, points, questions, songs FROM users WHERE user_id = $1`, userID).
		Scan(&row.UserID, &row.Username, &row.Points, &row.Questions, &row.Songs)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserRow{}, ErrNotFound
	}
	return row, err
}

func (q *Queries) UserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := q.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

func (q *Queries) UpdateUserConsumption(ctx context.Context, userID uuid.UUID, points int, questions, songs []byte) error {
	tag, err := q.pool.Exec(ctx, `
		UPDATE users SET points = $1, questions = $2, songs = $3 WHERE user_id = $4`,
		points, questions, songs, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanQuestion(row pgx.Row) (content.Question, error) {
	var q content.Question
	var audio pgtype.Text
	err := row.Scan(&q.ID, &q.Text, &q.Answer, &q.Choices, &q.Type, &q.Difficulty, &q.Category, &audio)
	if errors.Is(err, pgx.ErrNoRows) {
		return content.Question{}, ErrNotFound
	}
	if err != nil {
		return content.Question{}, err
	}
	q.AudioPath = audio.String
	return q, nil
}

func scanSong(row pgx.Row) (content.Song, error) {
	var s content.Song
	var audio pgtype.Text
	err := row.Scan(&s.ID, &s.Artist, &s.Title, &s.Lyrics, &audio)
	if errors.Is(err, pgx.ErrNoRows) {
		return content.Song{}, ErrNotFound
	}
	if err != nil {
		return content.Song{}, err
	}
	s.AudioPath = audio.String
	return s, nil
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

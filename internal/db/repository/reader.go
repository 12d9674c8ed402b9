package repository

import (
	"context"

	"github.com/kkysen/listenup/internal/content"
)

// ContentReader resolves pool ids across both content kinds.
type ContentReader struct {
	questions *QuestionRepository
	songs     *SongRepository
}

func NewContentReader(questions *QuestionRepository, songs *SongRepository) *ContentReader {
	return &ContentReader{questions: questions, songs: songs}
}

func (r *ContentReader) GetQuestion(ctx context.Context, id uint64) (content.Question, error) {
	return r.questions.GetByID(ctx, id)
}

func (r *ContentReader) GetSong(ctx context.Context, id uint64) (content.Song, error) {
	return r.songs.GetByID(ctx, id)
}

package repository

import (
	"context"

	"github.com/kkysen/listenup/internal/content"
)

type questionStore interface {
	InsertQuestion(ctx context.Context, question content.Question) error
	GetQuestionByID(ctx context.Context, id uint64) (content.Question, error)
	ListQuestions(ctx context.Context) ([]content.Question, error)
	SetQuestionAudio(ctx context.Context, id uint64, path string) error
}

// QuestionRepository adapts the question tables to the content pool's
// store contract.
type QuestionRepository struct {
	store questionStore
}

// NewQuestionRepository wraps Queries for question-specific operations.
func NewQuestionRepository(store questionStore) *QuestionRepository {
	return &QuestionRepository{store: store}
}

// Insert persists one pooled question. The identity_key unique index
// makes duplicate writes fail rather than silently succeed.
func (r *QuestionRepository) Insert(ctx context.Context, item content.Item) error {
	return r.store.InsertQuestion(ctx, item.(content.Question))
}

// LoadAll returns every persisted question for pool index priming.
func (r *QuestionRepository) LoadAll(ctx context.Context) ([]content.Item, error) {
	questions, err := r.store.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]content.Item, len(questions))
	for i, q := range questions {
		items[i] = q
	}
	return items, nil
}

// GetByID fetches a question by pool id.
func (r *QuestionRepository) GetByID(ctx context.Context, id uint64) (content.Question, error) {
	return r.store.GetQuestionByID(ctx, id)
}

// SetAudio records the synthesized narration path for a question.
func (r *QuestionRepository) SetAudio(ctx context.Context, id uint64, path string) error {
	return r.store.SetQuestionAudio(ctx, id, path)
}

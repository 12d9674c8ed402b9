package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/kkysen/listenup/internal/content"
)

type mockQuestionStore struct {
	mock.Mock
}

func (m *mockQuestionStore) InsertQuestion(ctx context.Context, question content.Question) error {
	return m.Called(ctx, question).Error(0)
}

func (m *mockQuestionStore) GetQuestionByID(ctx context.Context, id uint64) (content.Question, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(content.Question), args.Error(1)
}

func (m *mockQuestionStore) ListQuestions(ctx context.Context) ([]content.Question, error) {
	args := m.Called(ctx)
	return args.Get(0).([]content.Question), args.Error(1)
}

func (m *mockQuestionStore) SetQuestionAudio(ctx context.Context, id uint64, path string) error {
	return m.Called(ctx, id, path).Error(0)
}

func TestQuestionRepository_Insert(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store)

	question := content.Question{
		ID:      3,
		Text:    "What is the capital of Peru?",
		Answer:  "Lima",
		Choices: []string{"Quito", "Lima", "Bogota", "Santiago"},
	}
	store.On("InsertQuestion", mock.Anything, question).Return(nil)

	err := repo.Insert(context.Background(), question)

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestQuestionRepository_LoadAll(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store)

	stored := []content.Question{
		{ID: 1, Text: "q1", Answer: "a1", Choices: []string{"a1", "b"}},
		{ID: 2, Text: "q2", Answer: "a2", Choices: []string{"a2", "b"}},
	}
	store.On("ListQuestions", mock.Anything).Return(stored, nil)

	items, err := repo.LoadAll(context.Background())

	assert.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, stored[1], items[1].(content.Question))
	store.AssertExpectations(t)
}

func TestQuestionRepository_SetAudio(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store)

	store.On("SetQuestionAudio", mock.Anything, uint64(4), "audio/trivia/4.wav").Return(nil)

	err := repo.SetAudio(context.Background(), 4, "audio/trivia/4.wav")

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

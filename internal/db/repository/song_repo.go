package repository

import (
	"context"

	"github.com/kkysen/listenup/internal/content"
)

type songStore interface {
	InsertSong(ctx context.Context, song content.Song) error
	GetSongByID(ctx context.Context, id uint64) (content.Song, error)
	ListSongs(ctx context.Context) ([]content.Song, error)
	SetSongAudio(ctx context.Context, id uint64, path string) error
}

// SongRepository adapts the song table to the content pool's store
// contract.
type SongRepository struct {
	store songStore
}

func NewSongRepository(store songStore) *SongRepository {
	return &SongRepository{store: store}
}

func (r *SongRepository) Insert(ctx context.Context, item content.Item) error {
	return r.store.InsertSong(ctx, item.(content.Song))
}

func (r *SongRepository) LoadAll(ctx context.Context) ([]content.Item, error) {
	songs, err := r.store.ListSongs(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]content.Item, len(songs))
	for i, s := range songs {
		items[i] = s
	}
	return items, nil
}

func (r *SongRepository) GetByID(ctx context.Context, id uint64) (content.Song, error) {
	return r.store.GetSongByID(ctx, id)
}

func (r *SongRepository) SetAudio(ctx context.Context, id uint64, path string) error {
	return r.store.SetSongAudio(ctx, id, path)
}

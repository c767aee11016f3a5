package main

import (
	"context"
	"errors"
	"testing"

	"kanalyab/internal/core/models"
	"kanalyab/internal/refresh"
	"kanalyab/internal/youtube"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type stubStore struct {
	err     error
	applied int
}

func (s *stubStore) AllChannels(context.Context) ([]models.Channel, error) {
	return []models.Channel{{ID: "UCa"}}, s.err
}

func (s *stubStore) ApplyRefresh(context.Context, []models.ChannelRefresh) error {
	s.applied++
	return nil
}

type stubFetcher struct{}

func (stubFetcher) FetchChannelInfo(_ context.Context, id string) (*youtube.ChannelInfo, error) {
	return &youtube.ChannelInfo{ID: id}, nil
}

func (stubFetcher) FetchRecentVideos(context.Context, string, int) []youtube.VideoInfo {
	return nil
}

func TestRunOnceExitStatus(t *testing.T) {
	ok := &stubStore{}
	job := refresh.NewJob(ok, stubFetcher{}, zerolog.Nop(), refresh.WithChannelDelay(0))
	assert.Equal(t, 0, runOnce(context.Background(), job, zerolog.Nop()))
	assert.Equal(t, 1, ok.applied)

	failing := &stubStore{err: errors.New("db down")}
	job = refresh.NewJob(failing, stubFetcher{}, zerolog.Nop(), refresh.WithChannelDelay(0))
	assert.Equal(t, 1, runOnce(context.Background(), job, zerolog.Nop()))
	assert.Zero(t, failing.applied)
}

func TestRunOnceCancelledIsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &stubStore{}
	job := refresh.NewJob(store, stubFetcher{}, zerolog.Nop(), refresh.WithChannelDelay(0))
	assert.Equal(t, 1, runOnce(ctx, job, zerolog.Nop()))
	assert.Zero(t, store.applied)
}

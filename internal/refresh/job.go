// Package refresh keeps stored channels current by periodically re-fetching
// their metadata and recent uploads from YouTube.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"kanalyab/internal/core/logging"
	"kanalyab/internal/core/models"
	"kanalyab/internal/youtube"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	DefaultInterval     = 24 * time.Hour
	DefaultChannelDelay = time.Second
)

// ErrAlreadyRunning is returned when a pass is requested while one is in
// progress.
var ErrAlreadyRunning = errors.New("refresh: a pass is already running")

// Store is the persistence the job needs.
type Store interface {
	AllChannels(ctx context.Context) ([]models.Channel, error)
	ApplyRefresh(ctx context.Context, updates []models.ChannelRefresh) error
}

// ChannelFetcher loads channel metadata and uploads from YouTube.
type ChannelFetcher interface {
	FetchChannelInfo(ctx context.Context, channelID string) (*youtube.ChannelInfo, error)
	FetchRecentVideos(ctx context.Context, channelID string, limit int) []youtube.VideoInfo
}

// Result summarizes one pass.
type Result struct {
	Total     int
	Refreshed int
	Failed    int
}

// Job refreshes every stored channel.
type Job struct {
	store    Store
	fetcher  ChannelFetcher
	logger   zerolog.Logger
	interval time.Duration
	delay    time.Duration
	now      func() time.Time
	running  atomic.Bool
}

// Option configures a Job.
type Option func(*Job)

// WithInterval sets the time between passes.
func WithInterval(d time.Duration) Option {
	return func(j *Job) { j.interval = d }
}

// WithChannelDelay sets the pause between two channels of a pass.
func WithChannelDelay(d time.Duration) Option {
	return func(j *Job) { j.delay = d }
}

// NewJob creates a refresh Job.
func NewJob(store Store, fetcher ChannelFetcher, logger zerolog.Logger, opts ...Option) *Job {
	j := &Job{
		store:    store,
		fetcher:  fetcher,
		logger:   logger.With().Str("component", "refresh").Logger(),
		interval: DefaultInterval,
		delay:    DefaultChannelDelay,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// RefreshAllChannels runs one pass over every stored channel.
//
// Channels are processed one at a time with a fixed delay between them. A
// channel whose metadata cannot be fetched keeps its stored data and the pass
// moves on. All updates are committed together once the pass is complete; a
// cancelled pass writes nothing.
func (j *Job) RefreshAllChannels(ctx context.Context) (Result, error) {
	if !j.running.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyRunning
	}
	defer j.running.Store(false)

	channels, err := j.store.AllChannels(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list channels: %w", err)
	}

	res := Result{Total: len(channels)}
	updates := make([]models.ChannelRefresh, 0, len(channels))

	for i, ch := range channels {
		if i > 0 && j.delay > 0 {
			if err := sleep(ctx, j.delay); err != nil {
				return res, err
			}
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		u, err := j.refreshOne(ctx, ch.ID)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
			j.logger.Warn().Err(err).Str("channel_id", ch.ID).Msg("channel refresh failed, keeping stored data")
			continue
		}
		updates = append(updates, u)
		res.Refreshed++
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if err := j.store.ApplyRefresh(ctx, updates); err != nil {
		return res, fmt.Errorf("save refresh: %w", err)
	}
	return res, nil
}

func (j *Job) refreshOne(ctx context.Context, channelID string) (models.ChannelRefresh, error) {
	info, err := j.fetcher.FetchChannelInfo(ctx, channelID)
	if err != nil {
		return models.ChannelRefresh{}, err
	}

	fetched := j.fetcher.FetchRecentVideos(ctx, channelID, youtube.DefaultRecentVideos)
	videos := make([]models.Video, 0, len(fetched))
	for _, v := range fetched {
		videos = append(videos, models.Video{
			ID:           v.ID,
			Title:        v.Title,
			ThumbnailURL: v.ThumbnailURL,
			PublishedAt:  v.PublishedAt,
			ChannelID:    channelID,
		})
	}

	return models.ChannelRefresh{
		ChannelID:       channelID,
		Title:           info.Title,
		Description:     info.Description,
		SubscriberCount: info.SubscriberCount,
		VideoCount:      info.VideoCount,
		ViewCount:       info.ViewCount,
		LastUpdatedAt:   j.now().UTC(),
		Videos:          videos,
	}, nil
}

// Run performs a pass immediately and then one every interval until ctx is
// cancelled. Passes never overlap; a tick that arrives while a pass is still
// running is skipped.
func (j *Job) Run(ctx context.Context) {
	cronLog := logging.CronLogger{Logger: j.logger}
	c := cron.New(cron.WithChain(
		cron.Recover(cronLog),
		cron.SkipIfStillRunning(cronLog),
	))
	c.Schedule(cron.Every(j.interval), cron.FuncJob(func() { j.runPass(ctx) }))

	j.logger.Info().Dur("interval", j.interval).Dur("channel_delay", j.delay).Msg("refresh job started")
	j.runPass(ctx)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	j.logger.Info().Msg("refresh job stopped")
}

func (j *Job) runPass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := j.now()
	res, err := j.RefreshAllChannels(ctx)
	log := j.logger.With().
		Int("total", res.Total).
		Int("refreshed", res.Refreshed).
		Int("failed", res.Failed).
		Dur("took", time.Since(start)).
		Logger()

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Info().Msg("refresh pass cancelled, nothing saved")
	case errors.Is(err, ErrAlreadyRunning):
		log.Warn().Msg("refresh pass skipped, previous pass still running")
	case err != nil:
		log.Error().Err(err).Msg("refresh pass failed")
	default:
		log.Info().Msg("refresh pass complete")
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Package moderation implements submission intake and the approval workflow
// that turns a pending submission into a stored channel.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kanalyab/internal/core/database"
	"kanalyab/internal/core/models"
	"kanalyab/internal/core/validation"
	"kanalyab/internal/youtube"

	"github.com/rs/zerolog"
)

var (
	ErrInvalidInput       = errors.New("invalid submission")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrAlreadySubmitted   = errors.New("channel already submitted or registered")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrNotPending         = errors.New("submission is not pending")
	ErrAlreadyRegistered  = errors.New("channel already registered")
)

// Store is the persistence the workflow needs.
type Store interface {
	CategoryExists(ctx context.Context, id int) (bool, error)
	SubmissionURLTaken(ctx context.Context, channelURL string) (bool, error)
	CreateSubmission(ctx context.Context, s *models.Submission) error
	GetSubmission(ctx context.Context, id int) (*models.Submission, error)
	ListSubmissions(ctx context.Context, status models.SubmissionStatus) ([]models.Submission, error)
	ChannelExists(ctx context.Context, id string) (bool, error)
	UpdateSubmissionStatus(ctx context.Context, id int, from, to models.SubmissionStatus) error
	ApproveSubmission(ctx context.Context, submissionID int, ch models.Channel) error
	DeleteSubmission(ctx context.Context, id int) error
}

// Resolver maps a submitted URL to a canonical channel id.
type Resolver interface {
	ResolveChannelID(ctx context.Context, raw string) (string, error)
}

// ChannelFetcher loads channel metadata from YouTube.
type ChannelFetcher interface {
	FetchChannelInfo(ctx context.Context, channelID string) (*youtube.ChannelInfo, error)
}

// CreateSubmissionInput is what a user sends to suggest a channel.
type CreateSubmissionInput struct {
	ChannelURL       string `json:"channelUrl" validate:"required,http_url,max=2048"`
	CategoryID       int    `json:"categoryId" validate:"gt=0"`
	SubmittedByEmail string `json:"submittedByEmail" validate:"omitempty,email,max=320"`
}

// Service runs the moderation workflow.
type Service struct {
	store    Store
	resolver Resolver
	fetcher  ChannelFetcher
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService wires a moderation Service.
func NewService(store Store, resolver Resolver, fetcher ChannelFetcher, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		fetcher:  fetcher,
		logger:   logger.With().Str("component", "moderation").Logger(),
		now:      time.Now,
	}
}

// CreateSubmission records a new Pending submission. It fails with
// ErrAlreadySubmitted when the URL is pending, was approved, or belongs to a
// stored channel; nothing is written in that case. The URL is only trimmed.
func (s *Service) CreateSubmission(ctx context.Context, in CreateSubmissionInput) (*models.Submission, error) {
	in.ChannelURL = strings.TrimSpace(in.ChannelURL)
	in.SubmittedByEmail = strings.TrimSpace(in.SubmittedByEmail)
	if err := validation.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ok, err := s.store.CategoryExists(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCategoryNotFound
	}

	taken, err := s.store.SubmissionURLTaken(ctx, in.ChannelURL)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrAlreadySubmitted
	}

	sub := &models.Submission{
		ChannelURL:  in.ChannelURL,
		CategoryID:  in.CategoryID,
		SubmittedAt: s.now().UTC(),
		Status:      models.StatusPending,
	}
	if in.SubmittedByEmail != "" {
		email := in.SubmittedByEmail
		sub.SubmittedByEmail = &email
	}

	switch err := s.store.CreateSubmission(ctx, sub); {
	case errors.Is(err, database.ErrDuplicateURL):
		return nil, ErrAlreadySubmitted
	case errors.Is(err, database.ErrBadReference):
		return nil, ErrCategoryNotFound
	case err != nil:
		return nil, err
	}

	s.logger.Info().Int("submission_id", sub.ID).Str("channel_url", sub.ChannelURL).Msg("submission created")
	return sub, nil
}

// ListPending returns the submissions awaiting review, newest first.
func (s *Service) ListPending(ctx context.Context) ([]models.Submission, error) {
	return s.store.ListSubmissions(ctx, models.StatusPending)
}

// ApproveSubmission resolves the submission's channel, fetches its metadata
// and stores it, marking the submission Approved in the same transaction.
//
// Resolution and fetch failures leave the submission Pending so it can be
// retried. If the channel is already stored the submission is marked Rejected
// and ErrAlreadyRegistered is returned.
func (s *Service) ApproveSubmission(ctx context.Context, id int) (*models.Channel, error) {
	log := s.logger.With().Int("submission_id", id).Logger()

	sub, err := s.store.GetSubmission(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	if !sub.Status.CanTransitionTo(models.StatusApproved) {
		return nil, fmt.Errorf("%w: status is %s", ErrNotPending, sub.Status)
	}

	channelID, err := s.resolver.ResolveChannelID(ctx, sub.ChannelURL)
	if err != nil {
		log.Warn().Err(err).Str("channel_url", sub.ChannelURL).Msg("could not resolve channel")
		return nil, fmt.Errorf("resolve channel: %w", err)
	}

	info, err := s.fetcher.FetchChannelInfo(ctx, channelID)
	if err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("could not load channel from youtube")
		return nil, fmt.Errorf("fetch channel %s: %w", channelID, err)
	}

	// Fast path; the primary key on channels is what actually guards
	// against duplicates under concurrent approvals.
	exists, err := s.store.ChannelExists(ctx, info.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, s.rejectDuplicate(ctx, sub, info.ID)
	}

	ch := newChannel(info, sub.CategoryID, s.now().UTC())
	switch err := s.store.ApproveSubmission(ctx, sub.ID, ch); {
	case errors.Is(err, database.ErrChannelExists):
		return nil, s.rejectDuplicate(ctx, sub, info.ID)
	case errors.Is(err, database.ErrNotPending):
		return nil, ErrNotPending
	case errors.Is(err, database.ErrNotFound):
		return nil, ErrSubmissionNotFound
	case err != nil:
		return nil, fmt.Errorf("approve submission: %w", err)
	}

	log.Info().Str("channel_id", ch.ID).Str("title", ch.Title).Msg("submission approved")
	return &ch, nil
}

// rejectDuplicate marks sub Rejected because channelID is already stored.
func (s *Service) rejectDuplicate(ctx context.Context, sub *models.Submission, channelID string) error {
	if !sub.Status.CanTransitionTo(models.StatusRejected) {
		return ErrAlreadyRegistered
	}
	err := s.store.UpdateSubmissionStatus(ctx, sub.ID, sub.Status, models.StatusRejected)
	if err != nil && !errors.Is(err, database.ErrNotPending) {
		return fmt.Errorf("%w (marking submission rejected failed: %v)", ErrAlreadyRegistered, err)
	}
	s.logger.Info().
		Int("submission_id", sub.ID).
		Str("channel_id", channelID).
		Msg("submission rejected: channel already registered")
	return ErrAlreadyRegistered
}

// RejectSubmission removes a submission. Rejected submissions are not kept.
func (s *Service) RejectSubmission(ctx context.Context, id int) error {
	if err := s.deleteSubmission(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int("submission_id", id).Msg("submission rejected and removed")
	return nil
}

// DeleteSubmission removes a submission.
func (s *Service) DeleteSubmission(ctx context.Context, id int) error {
	if err := s.deleteSubmission(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int("submission_id", id).Msg("submission deleted")
	return nil
}

func (s *Service) deleteSubmission(ctx context.Context, id int) error {
	err := s.store.DeleteSubmission(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrSubmissionNotFound
	}
	return err
}

// newChannel builds the stored channel from fetched metadata.
func newChannel(info *youtube.ChannelInfo, categoryID int, now time.Time) models.Channel {
	ch := models.Channel{
		ID:              info.ID,
		Title:           info.Title,
		Description:     info.Description,
		ChannelURL:      "https://www.youtube.com/channel/" + info.ID,
		PublishedAt:     info.PublishedAt,
		Avatar:          info.Avatar,
		SubscriberCount: info.SubscriberCount,
		VideoCount:      info.VideoCount,
		ViewCount:       info.ViewCount,
		Tags:            models.Tags(info.Tags),
		CategoryID:      categoryID,
		LastUpdatedAt:   now,
		RecentVideos:    []models.Video{},
	}
	if ch.Tags == nil {
		ch.Tags = models.Tags{}
	}
	if info.BannerImage != "" {
		banner := info.BannerImage
		ch.BannerImage = &banner
	}
	return ch
}

// Package catalog serves the channel directory: public browsing, the
// administrator's channel edits and category management.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kanalyab/internal/core/database"
	"kanalyab/internal/core/models"
	"kanalyab/internal/core/validation"

	"github.com/rs/zerolog"
	ptime "github.com/yaa110/go-persian-calendar"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrChannelNotFound  = errors.New("channel not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInUse    = errors.New("category is still used by channels")
)

// MaxPageSize caps the limit of a channel listing.
const MaxPageSize = 100

const jalaliLayout = "yyyy/MM/dd"

// Store is the persistence the catalog needs.
type Store interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int) (*models.Category, error)
	CategoryExists(ctx context.Context, id int) (bool, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c models.Category) error
	DeleteCategory(ctx context.Context, id int) error

	GetChannel(ctx context.Context, id string) (*models.Channel, error)
	ListChannels(ctx context.Context, params database.ListChannelsParams) ([]models.Channel, error)
	CountChannels(ctx context.Context, params database.ListChannelsParams) (int, error)
	UpdateChannelDetails(ctx context.Context, ch models.Channel) error
	SetChannelVIP(ctx context.Context, id string, vip bool) error
	DeleteChannel(ctx context.Context, id string) error
}

// ListQuery selects a page of channels.
type ListQuery struct {
	Search     string `validate:"max=200"`
	CategoryID int    `validate:"gte=0"`
	VIPOnly    bool
	Sort       string `validate:"omitempty,oneof=subscribers views videos newest title"`
	Limit      int    `validate:"gte=0"`
	Offset     int    `validate:"gte=0"`
}

// ChannelPage is one listing result.
type ChannelPage struct {
	Channels          []models.Channel `json:"channels"`
	Total             int              `json:"total"`
	LastUpdatedAt     time.Time        `json:"lastUpdatedAt"`
	LastUpdatedJalali string           `json:"lastUpdatedJalali"`
}

// UpdateChannelInput holds the administrator-editable channel fields.
type UpdateChannelInput struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	CategoryID  int      `json:"categoryId" validate:"gt=0"`
	Tags        []string `json:"tags" validate:"max=50,dive,max=100"`
}

// CategoryInput is the body of a category create or update.
type CategoryInput struct {
	Name  string `json:"name" validate:"required,max=100"`
	Icon  string `json:"icon" validate:"max=32"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// Service implements catalog reads and administrator edits.
type Service struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewService wires a catalog Service.
func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("component", "catalog").Logger(),
		now:    time.Now,
	}
}

// JalaliDate formats t as a Persian calendar date in Iran's time zone.
func JalaliDate(t time.Time) string {
	return ptime.New(t.In(ptime.Iran())).Format(jalaliLayout)
}

// ListChannels returns a page of channels with the newest refresh time of the
// page. An empty page reports the current time.
func (s *Service) ListChannels(ctx context.Context, q ListQuery) (*ChannelPage, error) {
	q.Search = validation.CleanString(q.Search)
	if err := validation.Struct(q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}

	params := database.ListChannelsParams{
		Search:     q.Search,
		CategoryID: q.CategoryID,
		VIPOnly:    q.VIPOnly,
		Sort:       q.Sort,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	channels, err := s.store.ListChannels(ctx, params)
	if err != nil {
		return nil, err
	}

	total := len(channels)
	if q.Limit > 0 || q.Offset > 0 {
		if total, err = s.store.CountChannels(ctx, params); err != nil {
			return nil, err
		}
	}

	var last time.Time
	for _, ch := range channels {
		if ch.LastUpdatedAt.After(last) {
			last = ch.LastUpdatedAt
		}
	}
	if last.IsZero() {
		last = s.now()
	}
	last = last.UTC()

	return &ChannelPage{
		Channels:          channels,
		Total:             total,
		LastUpdatedAt:     last,
		LastUpdatedJalali: JalaliDate(last),
	}, nil
}

// GetChannel returns one channel with its category and newest videos.
func (s *Service) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	ch, err := s.store.GetChannel(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrChannelNotFound
	}
	return ch, err
}

// UpdateChannel overwrites title, description, category and tags. Statistics
// stay under the refresh job's control.
func (s *Service) UpdateChannel(ctx context.Context, id string, in UpdateChannelInput) (*models.Channel, error) {
	in.Title = validation.CleanString(in.Title)
	in.Description = validation.CleanString(in.Description)
	in.Tags = validation.CleanStrings(in.Tags)
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

	ch := models.Channel{
		ID:            id,
		Title:         in.Title,
		Description:   in.Description,
		CategoryID:    in.CategoryID,
		Tags:          models.Tags(in.Tags),
		LastUpdatedAt: s.now().UTC(),
	}
	switch err := s.store.UpdateChannelDetails(ctx, ch); {
	case errors.Is(err, database.ErrNotFound):
		return nil, ErrChannelNotFound
	case errors.Is(err, database.ErrBadReference):
		return nil, ErrCategoryNotFound
	case err != nil:
		return nil, err
	}

	s.logger.Info().Str("channel_id", id).Msg("channel updated")
	return s.GetChannel(ctx, id)
}

// SetVIP sets or clears a channel's VIP flag.
func (s *Service) SetVIP(ctx context.Context, id string, vip bool) error {
	if err := s.store.SetChannelVIP(ctx, id, vip); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrChannelNotFound
		}
		return err
	}
	s.logger.Info().Str("channel_id", id).Bool("vip", vip).Msg("channel vip flag changed")
	return nil
}

// DeleteChannel removes a channel together with its videos.
func (s *Service) DeleteChannel(ctx context.Context, id string) error {
	if err := s.store.DeleteChannel(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrChannelNotFound
		}
		return err
	}
	s.logger.Info().Str("channel_id", id).Msg("channel deleted")
	return nil
}

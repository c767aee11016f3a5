package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kanalyab/internal/core/models"

	"github.com/jmoiron/sqlx"
)

const channelColumns = `channel_id, title, description, channel_url, published_at, avatar, banner_image,
	subscriber_count, video_count, view_count, tags, category_id, last_updated_at, is_vip`

// ChannelExists reports whether a channel with the given YouTube id is stored.
func (s *DBStore) ChannelExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM channels WHERE channel_id = $1)`
	if err := s.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check channel: %w", err)
	}
	return exists, nil
}

// GetChannel returns a channel with its category and newest videos.
func (s *DBStore) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	var ch models.Channel
	query := `SELECT ` + channelColumns + ` FROM channels WHERE channel_id = $1`
	if err := s.db.GetContext(ctx, &ch, query, id); err != nil {
		return nil, notFound(err)
	}

	var category models.Category
	err := s.db.GetContext(ctx, &category,
		`SELECT category_id, name, icon, color FROM categories WHERE category_id = $1`, ch.CategoryID)
	if err == nil {
		ch.Category = &category
	} else if !errors.Is(notFound(err), ErrNotFound) {
		return nil, fmt.Errorf("get channel category: %w", err)
	}

	ch.RecentVideos = []models.Video{}
	videoQuery := `SELECT video_id, title, thumbnail_url, published_at, channel_id
		FROM videos WHERE channel_id = $1 ORDER BY published_at DESC LIMIT $2`
	if err := s.db.SelectContext(ctx, &ch.RecentVideos, videoQuery, id, RecentVideoLimit); err != nil {
		return nil, fmt.Errorf("get channel videos: %w", err)
	}
	return &ch, nil
}

// buildChannelFilter turns params into a WHERE clause and its arguments.
func buildChannelFilter(params ListChannelsParams) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	argID := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", argID, argID))
		args = append(args, "%"+params.Search+"%")
		argID++
	}
	if params.CategoryID > 0 {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argID))
		args = append(args, params.CategoryID)
		argID++
	}
	if params.VIPOnly {
		conditions = append(conditions, "is_vip")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func channelOrderBy(sort string) string {
	switch sort {
	case "views":
		return " ORDER BY view_count DESC, channel_id"
	case "videos":
		return " ORDER BY video_count DESC, channel_id"
	case "newest":
		return " ORDER BY published_at DESC, channel_id"
	case "title":
		return " ORDER BY title ASC, channel_id"
	default:
		return " ORDER BY is_vip DESC, subscriber_count DESC, channel_id"
	}
}

// ListChannels returns channels matching params, each with its category.
func (s *DBStore) ListChannels(ctx context.Context, params ListChannelsParams) ([]models.Channel, error) {
	where, args := buildChannelFilter(params)
	query := `SELECT ` + channelColumns + ` FROM channels` + where + channelOrderBy(params.Sort)
	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", params.Limit, max(params.Offset, 0))
	}

	channels := []models.Channel{}
	if err := s.db.SelectContext(ctx, &channels, query, args...); err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]*models.Category, len(categories))
	for i := range categories {
		byID[categories[i].ID] = &categories[i]
	}
	for i := range channels {
		channels[i].Category = byID[channels[i].CategoryID]
		channels[i].RecentVideos = []models.Video{}
	}
	return channels, nil
}

// CountChannels counts channels matching params, ignoring paging.
func (s *DBStore) CountChannels(ctx context.Context, params ListChannelsParams) (int, error) {
	where, args := buildChannelFilter(params)
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM channels`+where, args...); err != nil {
		return 0, fmt.Errorf("count channels: %w", err)
	}
	return n, nil
}

// AllChannels returns every stored channel without videos.
func (s *DBStore) AllChannels(ctx context.Context) ([]models.Channel, error) {
	channels := []models.Channel{}
	query := `SELECT ` + channelColumns + ` FROM channels ORDER BY channel_id`
	if err := s.db.SelectContext(ctx, &channels, query); err != nil {
		return nil, fmt.Errorf("list all channels: %w", err)
	}
	return channels, nil
}

// UpdateChannelDetails writes the administrator-editable fields of ch:
// title, description, category and tags, plus last_updated_at.
func (s *DBStore) UpdateChannelDetails(ctx context.Context, ch models.Channel) error {
	query := `UPDATE channels
		SET title = $1, description = $2, category_id = $3, tags = $4, last_updated_at = $5
		WHERE channel_id = $6`
	res, err := s.db.ExecContext(ctx, query, ch.Title, ch.Description, ch.CategoryID, ch.Tags, ch.LastUpdatedAt, ch.ID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return ErrBadReference
		}
		return fmt.Errorf("update channel: %w", err)
	}
	return expectOneRow(res)
}

// SetChannelVIP sets the administrator-controlled VIP flag.
func (s *DBStore) SetChannelVIP(ctx context.Context, id string, vip bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE channels SET is_vip = $1 WHERE channel_id = $2`, vip, id)
	if err != nil {
		return fmt.Errorf("set channel vip: %w", err)
	}
	return expectOneRow(res)
}

// DeleteChannel removes a channel; its videos go with it.
func (s *DBStore) DeleteChannel(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM channels WHERE channel_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return expectOneRow(res)
}

// ApplyRefresh commits the results of a refresh pass in one transaction. For
// each channel the metadata is overwritten and its video set is replaced
// wholesale. Channels deleted since the pass started are skipped.
func (s *DBStore) ApplyRefresh(ctx context.Context, updates []models.ChannelRefresh) error {
	if len(updates) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, u := range updates {
			if err := s.applyOneRefresh(ctx, tx, u); err != nil {
				if errors.Is(err, ErrNotFound) {
					s.logger.Warn().Str("channel_id", u.ChannelID).Msg("channel vanished during refresh, skipping")
					continue
				}
				return fmt.Errorf("refresh channel %s: %w", u.ChannelID, err)
			}
		}
		return nil
	})
}

// applyOneRefresh overwrites one channel's metadata and videos. A video id
// already owned by another channel stays with that channel.
func (s *DBStore) applyOneRefresh(ctx context.Context, tx *sqlx.Tx, u models.ChannelRefresh) error {
	lastUpdated := u.LastUpdatedAt
	if lastUpdated.IsZero() {
		lastUpdated = time.Now().UTC()
	}

	res, err := tx.ExecContext(ctx, `UPDATE channels
		SET title = $1, description = $2, subscriber_count = $3, video_count = $4,
		    view_count = $5, last_updated_at = $6
		WHERE channel_id = $7`,
		u.Title, u.Description, u.SubscriberCount, u.VideoCount, u.ViewCount, lastUpdated, u.ChannelID)
	if err != nil {
		return err
	}
	if err := expectOneRow(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM videos WHERE channel_id = $1`, u.ChannelID); err != nil {
		return fmt.Errorf("delete videos: %w", err)
	}

	insert := `INSERT INTO videos (video_id, title, thumbnail_url, published_at, channel_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (video_id) DO NOTHING`
	for _, v := range u.Videos {
		res, err := tx.ExecContext(ctx, insert, v.ID, v.Title, v.ThumbnailURL, v.PublishedAt, u.ChannelID)
		if err != nil {
			return fmt.Errorf("insert video %s: %w", v.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			s.logger.Warn().Str("video_id", v.ID).Str("channel_id", u.ChannelID).Msg("video already stored, skipping")
		}
	}
	return nil
}

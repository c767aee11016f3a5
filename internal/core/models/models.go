package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SubmissionStatus is the moderation state of a submission.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "Pending"
	StatusApproved SubmissionStatus = "Approved"
	StatusRejected SubmissionStatus = "Rejected"
)

// CanTransitionTo reports whether s may move to next. Only Pending moves, and
// only to one of the two terminal states.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	return s == StatusPending && (next == StatusApproved || next == StatusRejected)
}

// Category represents the 'categories' table.
type Category struct {
	ID    int    `db:"category_id" json:"id"`
	Name  string `db:"name" json:"name"`
	Icon  string `db:"icon" json:"icon"`
	Color string `db:"color" json:"color"`
}

// Submission represents the 'submissions' table.
type Submission struct {
	ID               int              `db:"submission_id" json:"id"`
	ChannelURL       string           `db:"channel_url" json:"channelUrl"`
	CategoryID       int              `db:"category_id" json:"categoryId"`
	SubmittedByEmail *string          `db:"submitted_by_email" json:"submittedByEmail,omitempty"`
	SubmittedAt      time.Time        `db:"submitted_at" json:"submittedAt"`
	Status           SubmissionStatus `db:"status" json:"status"`
}

// Channel represents the 'channels' table. ID is the YouTube channel id.
type Channel struct {
	ID              string    `db:"channel_id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	ChannelURL      string    `db:"channel_url" json:"channelUrl"`
	PublishedAt     time.Time `db:"published_at" json:"publishedAt"`
	Avatar          string    `db:"avatar" json:"avatar"`
	BannerImage     *string   `db:"banner_image" json:"bannerImage,omitempty"`
	SubscriberCount int64     `db:"subscriber_count" json:"subscriberCount"`
	VideoCount      int64     `db:"video_count" json:"videoCount"`
	ViewCount       int64     `db:"view_count" json:"viewCount"`
	Tags            Tags      `db:"tags" json:"tags"`
	CategoryID      int       `db:"category_id" json:"categoryId"`
	LastUpdatedAt   time.Time `db:"last_updated_at" json:"lastUpdatedAt"`
	IsVIP           bool      `db:"is_vip" json:"isVip"`

	Category     *Category `db:"-" json:"category,omitempty"`
	RecentVideos []Video   `db:"-" json:"recentVideos"`
}

// Video represents the 'videos' table: the recent uploads of a channel.
type Video struct {
	ID           string    `db:"video_id" json:"id"`
	Title        string    `db:"title" json:"title"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnailUrl"`
	PublishedAt  time.Time `db:"published_at" json:"publishedAt"`
	ChannelID    string    `db:"channel_id" json:"channelId"`
}

// ChannelRefresh is the set of fields the refresh job overwrites for one
// channel, together with its complete replacement video list.
type ChannelRefresh struct {
	ChannelID       string
	Title           string
	Description     string
	SubscriberCount int64
	VideoCount      int64
	ViewCount       int64
	LastUpdatedAt   time.Time
	Videos          []Video
}

// Tags is stored as a jsonb array.
type Tags []string

// Value implements driver.Valuer.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("tags: unsupported source type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*t = out
	return nil
}

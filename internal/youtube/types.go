package youtube

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Response shapes of the Data API. Every field is optional: a value of the
// wrong JSON kind decodes to its zero value instead of failing the response.

// lenient decodes T when the JSON value has the expected shape and keeps the
// zero value otherwise.
type lenient[T any] struct {
	V T
}

func (l *lenient[T]) UnmarshalJSON(b []byte) error {
	var v T
	if json.Unmarshal(b, &v) == nil {
		l.V = v
	}
	return nil
}

// count is a statistics counter. The API sends them as strings; anything that
// does not parse as a non-negative integer becomes 0.
type count int64

func (c *count) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		n = 0
	}
	*c = count(n)
	return nil
}

type thumbnail struct {
	URL lenient[string] `json:"url"`
}

type thumbnails struct {
	Default lenient[thumbnail] `json:"default"`
	Medium  lenient[thumbnail] `json:"medium"`
	High    lenient[thumbnail] `json:"high"`
}

// best returns the first non-empty url, preferring the default size.
func (t thumbnails) best() string {
	for _, th := range []thumbnail{t.Default.V, t.Medium.V, t.High.V} {
		if th.URL.V != "" {
			return th.URL.V
		}
	}
	return ""
}

type channelSnippet struct {
	Title       lenient[string]     `json:"title"`
	Description lenient[string]     `json:"description"`
	PublishedAt lenient[string]     `json:"publishedAt"`
	Thumbnails  lenient[thumbnails] `json:"thumbnails"`
}

type channelStatistics struct {
	SubscriberCount count `json:"subscriberCount"`
	VideoCount      count `json:"videoCount"`
	ViewCount       count `json:"viewCount"`
}

type brandingChannel struct {
	Keywords lenient[string] `json:"keywords"`
}

type brandingImage struct {
	BannerExternalURL lenient[string] `json:"bannerExternalUrl"`
}

type brandingSettings struct {
	Channel lenient[brandingChannel] `json:"channel"`
	Image   lenient[brandingImage]   `json:"image"`
}

type channelItem struct {
	ID               lenient[string]            `json:"id"`
	Snippet          lenient[channelSnippet]    `json:"snippet"`
	Statistics       lenient[channelStatistics] `json:"statistics"`
	BrandingSettings lenient[brandingSettings]  `json:"brandingSettings"`
}

type channelListResponse struct {
	Items []channelItem `json:"items"`
}

func (it channelItem) toChannelInfo() *ChannelInfo {
	snippet := it.Snippet.V
	stats := it.Statistics.V
	branding := it.BrandingSettings.V

	return &ChannelInfo{
		ID:              it.ID.V,
		Title:           snippet.Title.V,
		Description:     snippet.Description.V,
		PublishedAt:     parseTime(snippet.PublishedAt.V),
		Avatar:          snippet.Thumbnails.V.best(),
		BannerImage:     branding.Image.V.BannerExternalURL.V,
		SubscriberCount: int64(stats.SubscriberCount),
		VideoCount:      int64(stats.VideoCount),
		ViewCount:       int64(stats.ViewCount),
		Tags:            SplitKeywords(branding.Channel.V.Keywords.V),
	}
}

type searchResultID struct {
	Kind      lenient[string] `json:"kind"`
	VideoID   lenient[string] `json:"videoId"`
	ChannelID lenient[string] `json:"channelId"`
}

type searchSnippet struct {
	ChannelID lenient[string] `json:"channelId"`
}

type searchResult struct {
	ID      lenient[searchResultID] `json:"id"`
	Snippet lenient[searchSnippet]  `json:"snippet"`
}

func (r searchResult) channelID() string {
	if id := r.Snippet.V.ChannelID.V; id != "" {
		return id
	}
	return r.ID.V.ChannelID.V
}

type searchListResponse struct {
	Items []searchResult `json:"items"`
}

type videoSnippet struct {
	Title       lenient[string]     `json:"title"`
	PublishedAt lenient[string]     `json:"publishedAt"`
	Thumbnails  lenient[thumbnails] `json:"thumbnails"`
}

type videoItem struct {
	ID      lenient[string]       `json:"id"`
	Snippet lenient[videoSnippet] `json:"snippet"`
}

type videoListResponse struct {
	Items []videoItem `json:"items"`
}

func (it videoItem) toVideoInfo() VideoInfo {
	return VideoInfo{
		ID:           it.ID.V,
		Title:        it.Snippet.V.Title.V,
		ThumbnailURL: it.Snippet.V.Thumbnails.V.best(),
		PublishedAt:  parseTime(it.Snippet.V.PublishedAt.V),
	}
}

// decode unmarshals a response body. Only syntactically invalid JSON or a
// top level of the wrong shape fails.
func decode(body []byte, v any) error {
	return json.Unmarshal(body, v)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// SplitKeywords turns the branding keywords string into tags. Spaces and
// double quotes both delimit; empty tokens are dropped.
func SplitKeywords(keywords string) []string {
	tags := strings.FieldsFunc(keywords, func(r rune) bool {
		return r == '"' || r == ' '
	})
	if tags == nil {
		return []string{}
	}
	return tags
}

package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	apiBaseURL = "https://www.googleapis.com/youtube/v3"

	// DefaultRecentVideos is how many uploads are kept per channel.
	DefaultRecentVideos = 5

	maxBodyBytes = 4 << 20
)

var (
	// ErrFetchFailed is matched by every FetchChannelInfo failure.
	ErrFetchFailed = errors.New("youtube: fetch failed")

	ErrUpstream        = fmt.Errorf("%w: upstream error", ErrFetchFailed)
	ErrChannelNotFound = fmt.Errorf("%w: channel not found", ErrFetchFailed)
	ErrParse           = fmt.Errorf("%w: parse error", ErrFetchFailed)
)

// ChannelInfo is the channel metadata returned by the channels endpoint after
// every fallback has been applied.
type ChannelInfo struct {
	ID              string
	Title           string
	Description     string
	PublishedAt     time.Time
	Avatar          string
	BannerImage     string
	SubscriberCount int64
	VideoCount      int64
	ViewCount       int64
	Tags            []string
}

// VideoInfo is one recent upload of a channel.
type VideoInfo struct {
	ID           string
	Title        string
	ThumbnailURL string
	PublishedAt  time.Time
}

// Client talks to the YouTube Data API v3.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for upstream diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a YouTube client. timeout bounds every single request.
func NewClient(apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: apiBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get issues a GET against the API and returns the status code and body.
// Transport failures are wrapped in ErrUpstream.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (int, []byte, error) {
	params.Set("key", c.apiKey)
	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}
		return 0, nil, fmt.Errorf("%w: %s: %v", ErrUpstream, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read %s body: %v", ErrUpstream, endpoint, err)
	}
	return resp.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// FetchChannelInfo loads snippet, statistics and branding for a channel id.
// Non-2xx responses, empty result sets and undecodable bodies all fail; the
// raw body is logged in each case.
func (c *Client) FetchChannelInfo(ctx context.Context, channelID string) (*ChannelInfo, error) {
	params := url.Values{}
	params.Set("part", "snippet,statistics,brandingSettings")
	params.Set("id", channelID)

	status, body, err := c.get(ctx, "channels", params)
	if err != nil {
		c.logger.Error().Err(err).Str("channel_id", channelID).Msg("youtube channels request failed")
		return nil, err
	}

	c.logger.Debug().Str("channel_id", channelID).Str("body", string(body)).Msg("youtube channels response")

	if !isSuccess(status) {
		c.logger.Error().
			Str("channel_id", channelID).
			Int("status", status).
			Str("body", string(body)).
			Msg("youtube api returned an error")
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, status, truncate(string(body), 512))
	}

	var resp channelListResponse
	if err := decode(body, &resp); err != nil {
		c.logger.Error().
			Err(err).
			Str("channel_id", channelID).
			Str("body", string(body)).
			Msg("failed to parse youtube channels response")
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if len(resp.Items) == 0 {
		c.logger.Warn().
			Str("channel_id", channelID).
			Str("body", string(body)).
			Msg("youtube channels response contained no items")
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}

	info := resp.Items[0].toChannelInfo()
	if info.ID == "" {
		info.ID = channelID
	}
	return info, nil
}

// SearchChannelID runs a channel search for query and returns the channel id
// of the first hit, or "" when there are no results.
func (c *Client) SearchChannelID(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "channel")
	params.Set("maxResults", "1")

	status, body, err := c.get(ctx, "search", params)
	if err != nil {
		return "", err
	}
	if !isSuccess(status) {
		c.logger.Error().
			Str("query", query).
			Int("status", status).
			Str("body", string(body)).
			Msg("youtube search api failed")
		return "", fmt.Errorf("%w: search status %d", ErrUpstream, status)
	}

	var resp searchListResponse
	if err := decode(body, &resp); err != nil {
		c.logger.Error().Err(err).Str("query", query).Str("body", string(body)).Msg("failed to parse youtube search response")
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	for _, item := range resp.Items {
		if id := item.channelID(); id != "" {
			return id, nil
		}
	}
	c.logger.Warn().Str("query", query).Msg("youtube search returned no channel")
	return "", nil
}

// FetchRecentVideos returns up to limit of the channel's newest uploads,
// newest first. It never fails: any upstream problem yields an empty list.
func (c *Client) FetchRecentVideos(ctx context.Context, channelID string, limit int) []VideoInfo {
	if limit <= 0 {
		limit = DefaultRecentVideos
	}
	log := c.logger.With().Str("channel_id", channelID).Logger()

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("channelId", channelID)
	params.Set("maxResults", fmt.Sprint(limit))
	params.Set("order", "date")
	params.Set("type", "video")

	status, body, err := c.get(ctx, "search", params)
	if err != nil || !isSuccess(status) {
		log.Warn().Err(err).Int("status", status).Str("body", string(body)).Msg("recent video search failed")
		return []VideoInfo{}
	}

	var search searchListResponse
	if err := decode(body, &search); err != nil {
		log.Warn().Err(err).Str("body", string(body)).Msg("failed to parse recent video search")
		return []VideoInfo{}
	}

	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if id := item.ID.V.VideoID.V; id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []VideoInfo{}
	}

	params = url.Values{}
	params.Set("part", "snippet")
	params.Set("id", strings.Join(ids, ","))

	status, body, err = c.get(ctx, "videos", params)
	if err != nil || !isSuccess(status) {
		log.Warn().Err(err).Int("status", status).Str("body", string(body)).Msg("video details request failed")
		return []VideoInfo{}
	}

	var details videoListResponse
	if err := decode(body, &details); err != nil {
		log.Warn().Err(err).Str("body", string(body)).Msg("failed to parse video details")
		return []VideoInfo{}
	}

	videos := make([]VideoInfo, 0, len(details.Items))
	for _, item := range details.Items {
		v := item.toVideoInfo()
		if v.ID == "" {
			continue
		}
		videos = append(videos, v)
	}
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].PublishedAt.After(videos[j].PublishedAt)
	})
	if len(videos) > limit {
		videos = videos[:limit]
	}
	return videos
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

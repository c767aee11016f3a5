package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullChannelJSON = `{
  "items": [{
    "id": "UCabcdefghijklmnopqrstuv",
    "snippet": {
      "title": "Foo Channel",
      "description": "کانال فارسی",
      "publishedAt": "2015-03-01T10:00:00Z",
      "thumbnails": {"default": {"url": "https://yt3.example/avatar.jpg"}}
    },
    "statistics": {"subscriberCount": "1200", "videoCount": "35", "viewCount": "not-a-number"},
    "brandingSettings": {
      "channel": {"keywords": "آموزش \"برنامه نویسی\" go"},
      "image": {"bannerExternalUrl": "https://yt3.example/banner.jpg"}
    }
  }]
}`

type route struct {
	status int
	body   string
}

// newTestServer serves canned responses per endpoint and counts hits.
func newTestServer(t *testing.T, routes map[string]route) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		rt, ok := routes[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(rt.status)
		_, _ = w.Write([]byte(rt.body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient("test-key", 5*time.Second, WithBaseURL(srv.URL))
}

func TestFetchChannelInfo(t *testing.T) {
	srv, _ := newTestServer(t, map[string]route{
		"channels": {http.StatusOK, fullChannelJSON},
	})

	info, err := newTestClient(srv).FetchChannelInfo(context.Background(), "UCabcdefghijklmnopqrstuv")
	require.NoError(t, err)

	assert.Equal(t, "UCabcdefghijklmnopqrstuv", info.ID)
	assert.Equal(t, "Foo Channel", info.Title)
	assert.Equal(t, "کانال فارسی", info.Description)
	assert.Equal(t, time.Date(2015, 3, 1, 10, 0, 0, 0, time.UTC), info.PublishedAt)
	assert.Equal(t, "https://yt3.example/avatar.jpg", info.Avatar)
	assert.Equal(t, "https://yt3.example/banner.jpg", info.BannerImage)
	assert.EqualValues(t, 1200, info.SubscriberCount)
	assert.EqualValues(t, 35, info.VideoCount)
	assert.EqualValues(t, 0, info.ViewCount, "unparseable counters fall back to zero")
	assert.Equal(t, []string{"آموزش", "برنامه", "نویسی", "go"}, info.Tags)
}

func TestFetchChannelInfoMissingFields(t *testing.T) {
	srv, _ := newTestServer(t, map[string]route{
		"channels": {http.StatusOK, `{"items":[{"id":"UCabcdefghijklmnopqrstuv","snippet":"oops","statistics":{"subscriberCount":17}}]}`},
	})

	info, err := newTestClient(srv).FetchChannelInfo(context.Background(), "UCabcdefghijklmnopqrstuv")
	require.NoError(t, err)

	assert.Empty(t, info.Title)
	assert.Empty(t, info.Avatar)
	assert.Empty(t, info.BannerImage)
	assert.True(t, info.PublishedAt.IsZero())
	assert.EqualValues(t, 17, info.SubscriberCount)
	assert.NotNil(t, info.Tags)
	assert.Empty(t, info.Tags)
}

func TestFetchChannelInfoFailures(t *testing.T) {
	tests := []struct {
		name string
		rt   route
		want error
	}{
		{"forbidden", route{http.StatusForbidden, `{"error":{"message":"quotaExceeded"}}`}, ErrUpstream},
		{"no items", route{http.StatusOK, `{"items":[]}`}, ErrChannelNotFound},
		{"items missing", route{http.StatusOK, `{}`}, ErrChannelNotFound},
		{"malformed", route{http.StatusOK, `{"items": [`}, ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, map[string]route{"channels": tt.rt})

			info, err := newTestClient(srv).FetchChannelInfo(context.Background(), "UCabcdefghijklmnopqrstuv")
			assert.Nil(t, info)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrFetchFailed)
		})
	}
}

func TestFetchChannelInfoUpstreamBodyInError(t *testing.T) {
	srv, _ := newTestServer(t, map[string]route{
		"channels": {http.StatusForbidden, `quotaExceeded`},
	})

	_, err := newTestClient(srv).FetchChannelInfo(context.Background(), "UCabcdefghijklmnopqrstuv")
	assert.ErrorContains(t, err, "quotaExceeded")
}

func TestFetchRecentVideos(t *testing.T) {
	srv, _ := newTestServer(t, map[string]route{
		"search": {http.StatusOK, `{"items":[{"id":{"videoId":"v1"}},{"id":{"videoId":"v2"}},{"id":{"kind":"youtube#playlist"}}]}`},
		"videos": {http.StatusOK, `{"items":[
			{"id":"v1","snippet":{"title":"older","publishedAt":"2024-01-01T00:00:00Z","thumbnails":{"default":{"url":"https://i.example/v1.jpg"}}}},
			{"id":"v2","snippet":{"title":"newer","publishedAt":"2024-02-01T00:00:00Z"}}
		]}`},
	})

	videos := newTestClient(srv).FetchRecentVideos(context.Background(), "UCabcdefghijklmnopqrstuv", 5)
	require.Len(t, videos, 2)
	assert.Equal(t, "v2", videos[0].ID)
	assert.Equal(t, "newer", videos[0].Title)
	assert.Equal(t, "v1", videos[1].ID)
	assert.Equal(t, "https://i.example/v1.jpg", videos[1].ThumbnailURL)
}

func TestFetchRecentVideosDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name   string
		routes map[string]route
	}{
		{"search fails", map[string]route{"search": {http.StatusInternalServerError, "boom"}}},
		{"no ids", map[string]route{"search": {http.StatusOK, `{"items":[]}`}}},
		{"details fail", map[string]route{
			"search": {http.StatusOK, `{"items":[{"id":{"videoId":"v1"}}]}`},
			"videos": {http.StatusForbidden, "nope"},
		}},
		{"details malformed", map[string]route{
			"search": {http.StatusOK, `{"items":[{"id":{"videoId":"v1"}}]}`},
			"videos": {http.StatusOK, `{`},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.routes)

			videos := newTestClient(srv).FetchRecentVideos(context.Background(), "UCabcdefghijklmnopqrstuv", 5)
			assert.NotNil(t, videos)
			assert.Empty(t, videos)
		})
	}
}

func TestSearchChannelID(t *testing.T) {
	srv, _ := newTestServer(t, map[string]route{
		"search": {http.StatusOK, `{"items":[{"snippet":{"channelId":"UCxxxxxxxxxxxxxxxxxxxxxx"}}]}`},
	})

	id, err := newTestClient(srv).SearchChannelID(context.Background(), "@foo")
	require.NoError(t, err)
	assert.Equal(t, "UCxxxxxxxxxxxxxxxxxxxxxx", id)
}

func TestSearchChannelIDUpstreamError(t *testing.T) {
	srv, _ := newTestServer(t, map[string]route{
		"search": {http.StatusForbidden, "denied"},
	})

	_, err := newTestClient(srv).SearchChannelID(context.Background(), "@foo")
	assert.True(t, errors.Is(err, ErrUpstream))
}

func TestClientHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(srv).FetchChannelInfo(ctx, "UCabcdefghijklmnopqrstuv")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSplitKeywords(t *testing.T) {
	assert.Equal(t, []string{}, SplitKeywords(""))
	assert.Equal(t, []string{"a", "b", "c"}, SplitKeywords(`  a "b"  c `))
}

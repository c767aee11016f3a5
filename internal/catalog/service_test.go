package catalog

import (
	"context"
	"sort"
	"testing"
	"time"

	"kanalyab/internal/core/database"
	"kanalyab/internal/core/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	categories map[int]models.Category
	channels   map[string]models.Channel
	nextID     int
	lastParams database.ListChannelsParams
}

func newMemStore() *memStore {
	return &memStore{
		categories: map[int]models.Category{1: {ID: 1, Name: "آموزشی", Icon: "📚", Color: "#4caf50"}},
		channels:   map[string]models.Channel{},
		nextID:     1,
	}
}

func (m *memStore) ListCategories(context.Context) ([]models.Category, error) {
	out := []models.Category{}
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetCategory(_ context.Context, id int) (*models.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &c, nil
}

func (m *memStore) CategoryExists(_ context.Context, id int) (bool, error) {
	_, ok := m.categories[id]
	return ok, nil
}

func (m *memStore) CreateCategory(_ context.Context, c *models.Category) error {
	m.nextID++
	c.ID = m.nextID
	m.categories[c.ID] = *c
	return nil
}

func (m *memStore) UpdateCategory(_ context.Context, c models.Category) error {
	if _, ok := m.categories[c.ID]; !ok {
		return database.ErrNotFound
	}
	m.categories[c.ID] = c
	return nil
}

func (m *memStore) DeleteCategory(_ context.Context, id int) error {
	if _, ok := m.categories[id]; !ok {
		return database.ErrNotFound
	}
	for _, ch := range m.channels {
		if ch.CategoryID == id {
			return database.ErrCategoryInUse
		}
	}
	delete(m.categories, id)
	return nil
}

func (m *memStore) GetChannel(_ context.Context, id string) (*models.Channel, error) {
	ch, ok := m.channels[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &ch, nil
}

func (m *memStore) ListChannels(_ context.Context, p database.ListChannelsParams) ([]models.Channel, error) {
	m.lastParams = p
	out := []models.Channel{}
	for _, ch := range m.channels {
		if p.VIPOnly && !ch.IsVIP {
			continue
		}
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubscriberCount > out[j].SubscriberCount })
	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out, nil
}

func (m *memStore) CountChannels(context.Context, database.ListChannelsParams) (int, error) {
	return len(m.channels), nil
}

func (m *memStore) UpdateChannelDetails(_ context.Context, ch models.Channel) error {
	cur, ok := m.channels[ch.ID]
	if !ok {
		return database.ErrNotFound
	}
	cur.Title = ch.Title
	cur.Description = ch.Description
	cur.CategoryID = ch.CategoryID
	cur.Tags = ch.Tags
	cur.LastUpdatedAt = ch.LastUpdatedAt
	m.channels[ch.ID] = cur
	return nil
}

func (m *memStore) SetChannelVIP(_ context.Context, id string, vip bool) error {
	ch, ok := m.channels[id]
	if !ok {
		return database.ErrNotFound
	}
	ch.IsVIP = vip
	m.channels[id] = ch
	return nil
}

func (m *memStore) DeleteChannel(_ context.Context, id string) error {
	if _, ok := m.channels[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.channels, id)
	return nil
}

var fixedNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

func newTestService(store *memStore) *Service {
	svc := NewService(store, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func seedChannel(m *memStore, id string, subs int64, updated time.Time) {
	m.channels[id] = models.Channel{
		ID:              id,
		Title:           id,
		SubscriberCount: subs,
		CategoryID:      1,
		Tags:            models.Tags{},
		LastUpdatedAt:   updated,
	}
}

func TestJalaliDate(t *testing.T) {
	// 2024-03-20 is Nowruz 1403.
	assert.Equal(t, "1403/01/01", JalaliDate(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1402/12/29", JalaliDate(time.Date(2024, 3, 19, 12, 0, 0, 0, time.UTC)))
}

func TestListChannelsReportsNewestUpdate(t *testing.T) {
	store := newMemStore()
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 3, 19, 12, 0, 0, 0, time.UTC)
	seedChannel(store, "UCa", 10, older)
	seedChannel(store, "UCb", 20, newer)

	page, err := newTestService(store).ListChannels(context.Background(), ListQuery{})
	require.NoError(t, err)

	require.Len(t, page.Channels, 2)
	assert.Equal(t, "UCb", page.Channels[0].ID)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, newer, page.LastUpdatedAt)
	assert.Equal(t, "1402/12/29", page.LastUpdatedJalali)
}

func TestListChannelsEmptyUsesNow(t *testing.T) {
	page, err := newTestService(newMemStore()).ListChannels(context.Background(), ListQuery{})
	require.NoError(t, err)

	assert.Empty(t, page.Channels)
	assert.NotNil(t, page.Channels)
	assert.Equal(t, fixedNow, page.LastUpdatedAt)
	assert.Equal(t, "1403/01/01", page.LastUpdatedJalali)
}

func TestListChannelsPaging(t *testing.T) {
	store := newMemStore()
	seedChannel(store, "UCa", 10, fixedNow)
	seedChannel(store, "UCb", 20, fixedNow)
	seedChannel(store, "UCc", 30, fixedNow)
	svc := newTestService(store)

	page, err := svc.ListChannels(context.Background(), ListQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Channels, 2)
	assert.Equal(t, 3, page.Total)

	_, err = svc.ListChannels(context.Background(), ListQuery{Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, store.lastParams.Limit)
}

func TestListChannelsRejectsUnknownSort(t *testing.T) {
	_, err := newTestService(newMemStore()).ListChannels(context.Background(), ListQuery{Sort: "random"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetChannelNotFound(t *testing.T) {
	_, err := newTestService(newMemStore()).GetChannel(context.Background(), "UCmissing")
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestUpdateChannel(t *testing.T) {
	store := newMemStore()
	seedChannel(store, "UCa", 10, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	store.categories[2] = models.Category{ID: 2, Name: "موسیقی"}
	svc := newTestService(store)

	ch, err := svc.UpdateChannel(context.Background(), "UCa", UpdateChannelInput{
		Title:      " عنوان جديد ",
		CategoryID: 2,
		Tags:       []string{"a", " ", "b"},
	})
	require.NoError(t, err)

	assert.Equal(t, "عنوان جدید", ch.Title)
	assert.Equal(t, 2, ch.CategoryID)
	assert.Equal(t, models.Tags{"a", "b"}, ch.Tags)
	assert.Equal(t, int64(10), ch.SubscriberCount)
	assert.Equal(t, fixedNow, ch.LastUpdatedAt)
}

func TestUpdateChannelErrors(t *testing.T) {
	store := newMemStore()
	seedChannel(store, "UCa", 10, fixedNow)
	svc := newTestService(store)

	_, err := svc.UpdateChannel(context.Background(), "UCa", UpdateChannelInput{Title: "x", CategoryID: 9})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	_, err = svc.UpdateChannel(context.Background(), "UCa", UpdateChannelInput{Title: "", CategoryID: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateChannel(context.Background(), "UCnope", UpdateChannelInput{Title: "x", CategoryID: 1})
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestSetVIPAndDelete(t *testing.T) {
	store := newMemStore()
	seedChannel(store, "UCa", 10, fixedNow)
	svc := newTestService(store)

	require.NoError(t, svc.SetVIP(context.Background(), "UCa", true))
	assert.True(t, store.channels["UCa"].IsVIP)

	page, err := svc.ListChannels(context.Background(), ListQuery{VIPOnly: true})
	require.NoError(t, err)
	assert.Len(t, page.Channels, 1)

	require.NoError(t, svc.DeleteChannel(context.Background(), "UCa"))
	assert.ErrorIs(t, svc.DeleteChannel(context.Background(), "UCa"), ErrChannelNotFound)
	assert.ErrorIs(t, svc.SetVIP(context.Background(), "UCa", false), ErrChannelNotFound)
}

func TestCategoryLifecycle(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	c, err := svc.CreateCategory(context.Background(), CategoryInput{Name: " گیمینگ ", Icon: "🎮", Color: "#ff5722"})
	require.NoError(t, err)
	assert.Equal(t, "گیمینگ", c.Name)

	got, err := svc.GetCategory(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, *c, *got)

	updated, err := svc.UpdateCategory(context.Background(), c.ID, CategoryInput{Name: "بازی", Color: "#000"})
	require.NoError(t, err)
	assert.Equal(t, "بازی", updated.Name)

	require.NoError(t, svc.DeleteCategory(context.Background(), c.ID))
	_, err = svc.GetCategory(context.Background(), c.ID)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategoryValidation(t *testing.T) {
	svc := newTestService(newMemStore())

	_, err := svc.CreateCategory(context.Background(), CategoryInput{Name: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateCategory(context.Background(), CategoryInput{Name: "x", Color: "red"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateCategory(context.Background(), 99, CategoryInput{Name: "x"})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestDeleteCategoryInUse(t *testing.T) {
	store := newMemStore()
	seedChannel(store, "UCa", 10, fixedNow)

	err := newTestService(store).DeleteCategory(context.Background(), 1)
	assert.ErrorIs(t, err, ErrCategoryInUse)
	assert.Contains(t, store.categories, 1)
}

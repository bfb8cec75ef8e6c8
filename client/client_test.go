package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songbook/catalog"
	"songbook/client"
	"songbook/database"
	"songbook/handlers"
	"songbook/models"
)

func newServer(t *testing.T) *client.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers.Register(r, catalog.NewService(database.NewMemoryStore(), 0))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return client.New(srv.URL+"/", client.WithHTTPClient(srv.Client()))
}

func TestClient_CRUD(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()

	created, err := c.CreateSong(ctx, models.SongInput{
		Title: " Neon Mirage ", Artist: "Aurora Lane", Album: "Midnight Canvas", Genre: "Synthwave",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Neon Mirage", created.Title)

	got, err := c.GetSong(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	updated, err := c.UpdateSong(ctx, created.ID, models.SongInput{
		Title: "Neon Mirage (Live)", Artist: "Aurora Lane", Album: "Midnight Canvas", Genre: "Synthwave",
	})
	require.NoError(t, err)
	assert.Equal(t, "Neon Mirage (Live)", updated.Title)

	page, err := c.ListSongs(ctx, client.ListParams{Search: "neon"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.NotNil(t, page.Data[0].Score)
	assert.Equal(t, int64(1), page.Pagination.Total)

	stats, err := c.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalSongs)

	deleted, err := c.DeleteSong(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = c.GetSong(ctx, created.ID)
	assert.True(t, client.IsNotFound(err))
}

func TestClient_ValidationError(t *testing.T) {
	c := newServer(t)

	_, err := c.CreateSong(context.Background(), models.SongInput{
		Title: "  ", Artist: "Aurora Lane", Album: "Midnight Canvas", Genre: "Synthwave",
	})

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Title is required", apiErr.Message)
	assert.False(t, client.IsNotFound(err))
}

func TestClient_PlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := client.New(srv.URL).Statistics(context.Background())

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream unavailable", apiErr.Message)
}

func TestListParams_Values(t *testing.T) {
	tests := []struct {
		name   string
		params client.ListParams
		want   string
	}{
		{name: "zero value", params: client.ListParams{}, want: ""},
		{name: "paging", params: client.ListParams{Page: 2, Limit: 5}, want: "limit=5&page=2"},
		{
			name:   "blank filters are dropped",
			params: client.ListParams{Artist: "  ", Genre: "Synthwave", SortBy: "title", SortOrder: "asc"},
			want:   "genre=Synthwave&sortBy=title&sortOrder=asc",
		},
		{name: "search is escaped", params: client.ListParams{Search: "neon mirage"}, want: "search=neon+mirage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.params.Values().Encode())
		})
	}
}

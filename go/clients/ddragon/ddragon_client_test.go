package ddragon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mcdev12/champdraft/go/clients"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, versions string, status int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/versions.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(versions))
	})
	mux.HandleFunc("/cdn/15.1.1/data/ko_KR/champion.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"type": "champion",
			"version": "15.1.1",
			"data": {
				"Ahri": {"id": "Ahri", "key": "103", "name": "아리"},
				"Aatrox": {"id": "Aatrox", "key": "266", "name": "아트록스"},
				"MonkeyKing": {"id": "MonkeyKing", "key": "62", "name": "오공"}
			}
		}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchCatalog(t *testing.T) {
	srv := newServer(t, `["15.1.1", "14.24.1"]`, http.StatusOK)
	c := NewClient(srv.URL+"/", "")

	items, err := c.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "아트록스", items[0].Name)
	assert.Equal(t, srv.URL+"/cdn/15.1.1/img/champion/Aatrox.png", items[0].ImageURL)
	assert.Equal(t, "오공", items[2].Name)
	assert.Equal(t, srv.URL+"/cdn/15.1.1/img/champion/MonkeyKing.png", items[2].ImageURL)
}

func TestFetchCatalogErrors(t *testing.T) {
	t.Run("no versions", func(t *testing.T) {
		c := NewClient(newServer(t, `[]`, http.StatusOK).URL, "ko_KR")
		_, err := c.FetchCatalog(context.Background())
		assert.ErrorIs(t, err, ErrNoVersions)
	})

	t.Run("upstream failure", func(t *testing.T) {
		c := NewClient(newServer(t, `down`, http.StatusServiceUnavailable).URL, "ko_KR")
		_, err := c.FetchCatalog(context.Background())
		var statusErr *clients.StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	})

	t.Run("unknown locale", func(t *testing.T) {
		c := NewClient(newServer(t, `["15.1.1"]`, http.StatusOK).URL, "xx_XX")
		_, err := c.FetchCatalog(context.Background())
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		c := NewClient(newServer(t, `["15.1.1"]`, http.StatusOK).URL, "ko_KR")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.FetchCatalog(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

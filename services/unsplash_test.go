package services_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"honesttravel/services"
)

func unsplashServer(t *testing.T, handler func(query string) (int, any)) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/search/photos", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("client_id"))
		status, body := handler(r.URL.Query().Get("query"))
		writeJSON(w, status, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func photo(url, description string, tags ...string) map[string]any {
	var ts []map[string]string
	for _, tag := range tags {
		ts = append(ts, map[string]string{"title": tag})
	}
	return map[string]any{"results": []any{map[string]any{
		"description": description,
		"urls":        map[string]string{"regular": url},
		"tags":        ts,
	}}}
}

func TestCityImage_relevantLandmark(t *testing.T) {
	srv, calls := unsplashServer(t, func(q string) (int, any) {
		assert.True(t, strings.HasPrefix(q, "Kyoto famous landmark"))
		return http.StatusOK, photo("https://img/kyoto.jpg", "", "kyoto", "temple")
	})
	c := services.NewUnsplashClient("key", srv.URL, 5*time.Second, services.ClientOptions{})

	assert.Equal(t, "https://img/kyoto.jpg", c.CityImage(context.Background(), "Kyoto, Japan"))
	assert.Equal(t, "https://img/kyoto.jpg", c.CityImage(context.Background(), "kyoto"))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "second lookup served from cache")
}

func TestCityImage_irrelevantFallsBackToBareQuery(t *testing.T) {
	srv, calls := unsplashServer(t, func(q string) (int, any) {
		if q == "Lima" {
			return http.StatusOK, photo("https://img/lima.jpg", "")
		}
		return http.StatusOK, photo("https://img/other.jpg", "a bridge somewhere")
	})
	c := services.NewUnsplashClient("key", srv.URL, 5*time.Second, services.ClientOptions{})

	assert.Equal(t, "https://img/lima.jpg", c.CityImage(context.Background(), "Lima"))
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestCityImage_defaults(t *testing.T) {
	srv, _ := unsplashServer(t, func(q string) (int, any) {
		return http.StatusForbidden, map[string]any{"errors": []string{"rate limited"}}
	})
	c := services.NewUnsplashClient("key", srv.URL, 5*time.Second, services.ClientOptions{})
	assert.Equal(t, services.DefaultImage, c.CityImage(context.Background(), "Lima"))

	empty, _ := unsplashServer(t, func(q string) (int, any) {
		return http.StatusOK, map[string]any{"results": []any{}}
	})
	c = services.NewUnsplashClient("key", empty.URL, 5*time.Second, services.ClientOptions{})
	assert.Equal(t, services.DefaultImage, c.CityImage(context.Background(), "Lima"))

	noKey := services.NewUnsplashClient("", empty.URL, 5*time.Second, services.ClientOptions{})
	assert.Equal(t, services.DefaultImage, noKey.CityImage(context.Background(), "Lima"))
}

func TestCityImage_cancelledContext(t *testing.T) {
	srv, _ := unsplashServer(t, func(q string) (int, any) {
		return http.StatusOK, photo("https://img/x.jpg", "x")
	})
	c := services.NewUnsplashClient("key", srv.URL, 5*time.Second, services.ClientOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, services.DefaultImage, c.CityImage(ctx, "Lima"))
}

package owm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"weather-app/internal/cache"
)

const londonPayload = `{
	"name": "London",
	"coord": {"lat": 51.51, "lon": -0.13},
	"weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}],
	"main": {"temp": 12.3, "feels_like": 11.1, "pressure": 1012, "humidity": 81},
	"wind": {"speed": 4.1, "deg": 230},
	"visibility": 10000,
	"sys": {"country": "GB", "sunrise": 1700000000, "sunset": 1700030000},
	"timezone": 0
}`

func newTestClient(t *testing.T, h http.HandlerFunc, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL
	return New("test-key", opts)
}

func TestCurrentByNameBuildsMetricRequest(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		_, _ = w.Write([]byte(londonPayload))
	}, Options{})

	snap, err := c.CurrentByName(context.Background(), "London")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/data/2.5/weather" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotQuery["q"] != "London" || gotQuery["units"] != "metric" || gotQuery["appid"] != "test-key" {
		t.Fatalf("unexpected query %v", gotQuery)
	}
	if snap.Name != "London" || snap.Main.Humidity != 81 || snap.Condition().Main != "Rain" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Sys.Sunrise != 1700000000 || snap.Wind.Deg != 230 {
		t.Fatalf("unexpected sys/wind %+v %+v", snap.Sys, snap.Wind)
	}
}

func TestCurrentByCoords(t *testing.T) {
	var lat, lon string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		lat, lon = r.URL.Query().Get("lat"), r.URL.Query().Get("lon")
		_, _ = w.Write([]byte(londonPayload))
	}, Options{})

	if _, err := c.CurrentByCoords(context.Background(), 51.5073, -0.1276); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lat != "51.5073" || lon != "-0.1276" {
		t.Fatalf("unexpected coords %s,%s", lat, lon)
	}
}

func TestProviderErrorMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}, Options{})

	_, err := c.CurrentByName(context.Background(), "Nowhere")
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Status != http.StatusNotFound || UserMessage(err) != "city not found" {
		t.Fatalf("unexpected error %+v", pe)
	}
}

func TestProviderErrorFallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}, Options{})

	_, err := c.CurrentByName(context.Background(), "Paris")
	if UserMessage(err) != FallbackMessage {
		t.Fatalf("expected fallback message, got %q", UserMessage(err))
	}
}

func TestTransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := New("secret-key", Options{BaseURL: base, Timeout: time.Second})
	_, err := c.CurrentByName(context.Background(), "Paris")
	if err == nil {
		t.Fatalf("expected transport error")
	}
	msg := UserMessage(err)
	if msg == "" || strings.Contains(msg, "secret-key") {
		t.Fatalf("unexpected user message %q", msg)
	}
}

func TestSuggest(t *testing.T) {
	var limit string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geo/1.0/direct" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		limit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`[
			{"name":"Springfield","country":"US","state":"Illinois","lat":39.8,"lon":-89.6},
			{"name":"Springfield","country":"US","state":"Missouri","lat":37.2,"lon":-93.3}
		]`))
	}, Options{})

	got, err := c.Suggest(context.Background(), "Spri")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != "5" {
		t.Fatalf("expected limit=5, got %q", limit)
	}
	if len(got) != 2 || got[1].State != "Missouri" || got[0].Key() != "39.8--89.6" {
		t.Fatalf("unexpected suggestions %+v", got)
	}
}

func TestSnapshotCache(t *testing.T) {
	var hits int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(londonPayload))
	}, Options{Cache: cache.New(time.Minute)})

	for i := 0; i < 3; i++ {
		if _, err := c.CurrentByName(context.Background(), "London"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected one upstream request, got %d", n)
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	var hits int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"city not found"}`))
	}, Options{Cache: cache.New(time.Minute)})

	_, _ = c.CurrentByName(context.Background(), "Nowhere")
	_, _ = c.CurrentByName(context.Background(), "Nowhere")
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("expected two upstream requests, got %d", n)
	}
}

func TestIconURL(t *testing.T) {
	if got := IconURL("10d"); got != "https://openweathermap.org/img/wn/10d@2x.png" {
		t.Fatalf("unexpected %q", got)
	}
}

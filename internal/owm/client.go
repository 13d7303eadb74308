package owm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"weather-app/internal/cache"
	"weather-app/internal/models"
)

const (
	DefaultBaseURL = "http://api.openweathermap.org"
	DefaultLimit   = 5

	// FallbackMessage is shown when the provider gives no usable error text.
	FallbackMessage = "City not found"
)

var providerRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "weather_provider_requests_total",
		Help: "Provider requests by endpoint and outcome.",
	},
	[]string{"endpoint", "outcome"},
)

func init() { prometheus.MustRegister(providerRequests) }

// ProviderError is a non-2xx reply from the provider.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// UserMessage maps an error from this package to the text shown on the page.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Message == "" {
			return FallbackMessage
		}
		return pe.Message
	}
	// url.Error carries the request URL, which includes the API key.
	var ue *url.Error
	if errors.As(err, &ue) {
		err = ue.Err
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackMessage
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	Limit   int
	// Cache is optional; nil disables snapshot caching.
	Cache cache.Cache
}

type Client struct {
	apiKey     string
	baseURL    string
	limit      int
	cache      cache.Cache
	httpClient *http.Client
	tracer     trace.Tracer
}

func New(apiKey string, opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: base,
		limit:   limit,
		cache:   opts.Cache,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tracer: otel.Tracer("weather-app/owm"),
	}
}

// IconURL is the image for a provider icon code such as "10d".
func IconURL(code string) string {
	return "https://openweathermap.org/img/wn/" + url.PathEscape(code) + "@2x.png"
}

// Suggest looks up up to the configured number of places matching query.
func (c *Client) Suggest(ctx context.Context, query string) ([]models.CitySuggestion, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(c.limit))

	var results []models.CitySuggestion
	if err := c.get(ctx, "geo", "/geo/1.0/direct", q, &results); err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.CitySuggestion{}
	}
	return results, nil
}

func (c *Client) CurrentByName(ctx context.Context, city string) (models.WeatherSnapshot, error) {
	q := url.Values{}
	q.Set("q", city)
	return c.current(ctx, q)
}

func (c *Client) CurrentByCoords(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return c.current(ctx, q)
}

func (c *Client) current(ctx context.Context, q url.Values) (models.WeatherSnapshot, error) {
	q.Set("units", "metric")
	cacheKey := q.Encode()
	if c.cache != nil {
		if snap, ok := c.cache.Get(ctx, cacheKey); ok {
			providerRequests.WithLabelValues("weather", "cache_hit").Inc()
			return snap, nil
		}
	}

	var snap models.WeatherSnapshot
	if err := c.get(ctx, "weather", "/data/2.5/weather", q, &snap); err != nil {
		return models.WeatherSnapshot{}, err
	}
	if c.cache != nil {
		c.cache.Set(ctx, cacheKey, snap)
	}
	return snap, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	ctx, span := c.tracer.Start(ctx, "owm "+endpoint)
	defer span.End()
	span.SetAttributes(attribute.String("owm.endpoint", endpoint), attribute.String("owm.query", q.Encode()))

	err := c.do(ctx, path, q, out)
	switch {
	case err == nil:
		providerRequests.WithLabelValues(endpoint, "ok").Inc()
	case isProviderError(err):
		providerRequests.WithLabelValues(endpoint, "provider_error").Inc()
		span.SetStatus(codes.Error, err.Error())
	default:
		providerRequests.WithLabelValues(endpoint, "transport_error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
	}
	return err
}

func (c *Client) do(ctx context.Context, path string, q url.Values, out any) error {
	logQuery := q.Encode()
	q.Set("appid", c.apiKey)
	u := c.baseURL + path + "?" + q.Encode()
	q.Del("appid")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("provider request failed", "path", path, "query", logQuery, "error", UserMessage(err))
		return err
	}
	defer resp.Body.Close()
	slog.Debug("provider request", "path", path, "query", logQuery, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeProviderError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding provider response: %w", err)
	}
	return nil
}

func decodeProviderError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = strings.TrimSpace(payload.Message)
	}
	if msg == "" {
		msg = FallbackMessage
	}
	return &ProviderError{Status: resp.StatusCode, Message: msg}
}

func isProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

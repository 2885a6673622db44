// Package weather looks up current conditions for a place name through the
// Open-Meteo geocoding and forecast APIs.
package weather

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

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/m3rciful/superbot/core/logger"
	"github.com/m3rciful/superbot/core/netutil"
	"github.com/m3rciful/superbot/internal/upstream"
)

const (
	DefaultGeocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	DefaultTimeout     = 15 * time.Second
	DefaultCacheSize   = 256
	DefaultCacheTTL    = 24 * time.Hour

	// rainWindowHours is how far ahead the rain outlook looks.
	rainWindowHours = 3
	maxBodyBytes    = 1 << 20
)

const (
	replyIncomplete = "Data cuaca tidak lengkap. Coba lagi nanti."
	replyException  = "Maaf, terjadi kesalahan saat menghubungi server cuaca."
)

// Place is a geocoded location.
type Place struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
}

// Current holds the subset of current conditions shown to users.
type Current struct {
	Temperature   float64 `json:"temperature_2m"`
	Humidity      float64 `json:"relative_humidity_2m"`
	Precipitation float64 `json:"precipitation"`
	WeatherCode   int     `json:"weather_code"`
	WindSpeed     float64 `json:"wind_speed_10m"`
}

// Report is a forecast for one place.
type Report struct {
	Place      Place
	Current    Current
	HourlyRain []float64
	RainingNow bool
	RainSoon   bool
}

// Config configures the client. Endpoint overrides exist for tests.
type Config struct {
	GeocodeURL  string
	ForecastURL string
	Timeout     time.Duration
	CacheSize   int
	CacheTTL    time.Duration
	HTTPClient  *http.Client
}

// Client performs the geocode then forecast lookup.
type Client struct {
	geocodeURL  string
	forecastURL string
	http        *http.Client
	places      *expirable.LRU[string, Place]
}

// New returns a Client with a bounded geocode cache.
func New(cfg Config) *Client {
	if cfg.GeocodeURL == "" {
		cfg.GeocodeURL = DefaultGeocodeURL
	}
	if cfg.ForecastURL == "" {
		cfg.ForecastURL = DefaultForecastURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = netutil.NewClient(netutil.ClientOptions{Timeout: cfg.Timeout})
	}
	return &Client{
		geocodeURL:  cfg.GeocodeURL,
		forecastURL: cfg.ForecastURL,
		http:        httpClient,
		places:      expirable.NewLRU[string, Place](cfg.CacheSize, nil, cfg.CacheTTL),
	}
}

// Lookup returns the formatted weather summary for city. Every failure is an
// *upstream.Error with the step-specific reply.
func (c *Client) Lookup(ctx context.Context, city string) (summary string, err error) {
	start := time.Now()
	defer func() {
		upstream.Observe(ctx, "weather", start, err, slog.String("city", city))
	}()

	report, err := c.Forecast(ctx, city)
	if err != nil {
		return "", err
	}
	return FormatReport(report), nil
}

// Forecast geocodes city and fetches its current conditions.
func (c *Client) Forecast(ctx context.Context, city string) (Report, error) {
	place, err := c.geocode(ctx, city)
	if err != nil {
		return Report{}, err
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(place.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(place.Longitude, 'f', -1, 64))
	q.Set("current", "temperature_2m,relative_humidity_2m,precipitation,weather_code,wind_speed_10m")
	q.Set("hourly", "precipitation")
	q.Set("forecast_hours", strconv.Itoa(rainWindowHours))
	q.Set("timezone", "auto")

	var body struct {
		Current *Current `json:"current"`
		Hourly  struct {
			Precipitation []float64 `json:"precipitation"`
		} `json:"hourly"`
	}
	status, err := c.getJSON(ctx, c.forecastURL+"?"+q.Encode(), &body)
	if err != nil {
		return Report{}, upstream.Fail("weather.forecast", status, replyException, err)
	}
	if status != http.StatusOK {
		return Report{}, upstream.Fail("weather.forecast", status,
			fmt.Sprintf("Gagal mendapatkan data cuaca dari API. (Status: %d)", status),
			errors.New(http.StatusText(status)))
	}
	if body.Current == nil {
		return Report{}, upstream.Fail("weather.forecast", status, replyIncomplete, errors.New("missing current block"))
	}

	rain := body.Hourly.Precipitation
	if len(rain) > rainWindowHours {
		rain = rain[:rainWindowHours]
	}
	report := Report{
		Place:      place,
		Current:    *body.Current,
		HourlyRain: rain,
		RainingNow: body.Current.Precipitation > 0,
	}
	for _, p := range rain {
		if p > 0 {
			report.RainSoon = true
			break
		}
	}
	return report, nil
}

func (c *Client) geocode(ctx context.Context, city string) (Place, error) {
	key := strings.ToLower(strings.TrimSpace(city))
	if place, ok := c.places.Get(key); ok {
		logger.Debug(ctx, "adapter", "weather.geocode", slog.String("city", city), slog.String("cache", "hit"))
		return place, nil
	}

	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "1")

	var body struct {
		Results []Place `json:"results"`
	}
	status, err := c.getJSON(ctx, c.geocodeURL+"?"+q.Encode(), &body)
	if err != nil {
		return Place{}, upstream.Fail("weather.geocode", status, replyException, err)
	}
	if status != http.StatusOK {
		return Place{}, upstream.Fail("weather.geocode", status,
			fmt.Sprintf("Gagal mencari lokasi kota %q. Coba nama kota lain.", city),
			errors.New(http.StatusText(status)))
	}
	if len(body.Results) == 0 {
		return Place{}, upstream.Fail("weather.geocode", status,
			fmt.Sprintf("Kota %q tidak ditemukan.", city), errors.New("no results"))
	}

	place := body.Results[0]
	c.places.Add(key, place)
	logger.Debug(ctx, "adapter", "weather.geocode", slog.String("city", city), slog.String("cache", "miss"))
	return place, nil
}

// getJSON decodes a 200 response into dst. Non-200 statuses are returned
// without an error so callers can pick their own reply.
func (c *Client) getJSON(ctx context.Context, rawURL string, dst any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		netutil.DrainAndClose(resp.Body, 4096)
		return resp.StatusCode, nil
	}
	defer netutil.DrainAndClose(resp.Body, 4096)

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dst); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// FormatReport renders r as the Markdown summary sent to users.
func FormatReport(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Cuaca di %s saat ini:*\n", r.Place.Name)
	fmt.Fprintf(&b, "- Suhu: %s°C\n", number(r.Current.Temperature))
	fmt.Fprintf(&b, "- Kelembapan: %s%%\n", number(r.Current.Humidity))
	fmt.Fprintf(&b, "- Kondisi: %s\n", Condition(r.Current.WeatherCode))
	fmt.Fprintf(&b, "- Kecepatan angin: %s km/jam\n", number(r.Current.WindSpeed))
	if r.RainingNow {
		b.WriteString("- Sedang turun hujan.\n")
	}
	if r.RainSoon {
		b.WriteString("- Diperkirakan akan hujan dalam 3 jam ke depan.\n")
	} else {
		b.WriteString("- Tidak ada perkiraan hujan dalam 3 jam ke depan.\n")
	}
	return b.String()
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package weather

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/superbot/internal/upstream"
)

const geoBatu = `{"results":[{"name":"Batu","latitude":-7.87,"longitude":112.52,"country":"Indonesia"}]}`

const forecastBatu = `{"current":{"temperature_2m":22.4,"relative_humidity_2m":81,"precipitation":0.2,
	"weather_code":61,"wind_speed_10m":5.1},"hourly":{"precipitation":[0,0.1,0]}}`

type fakeMeteo struct {
	geoStatus      int
	geoBody        string
	forecastStatus int
	forecastBody   string
	geoCalls       atomic.Int32
}

func (f *fakeMeteo) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		f.geoCalls.Add(1)
		assert.Equal(t, "1", r.URL.Query().Get("count"))
		w.WriteHeader(f.geoStatus)
		_, _ = io.WriteString(w, f.geoBody)
	})
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "-7.87", q.Get("latitude"))
		assert.Equal(t, "112.52", q.Get("longitude"))
		assert.Equal(t, "auto", q.Get("timezone"))
		w.WriteHeader(f.forecastStatus)
		_, _ = io.WriteString(w, f.forecastBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(srv *httptest.Server) *Client {
	return New(Config{GeocodeURL: srv.URL + "/v1/search", ForecastURL: srv.URL + "/v1/forecast"})
}

func TestLookupFormatsSummary(t *testing.T) {
	f := &fakeMeteo{geoStatus: 200, geoBody: geoBatu, forecastStatus: 200, forecastBody: forecastBatu}
	c := newClient(f.server(t))

	got, err := c.Lookup(context.Background(), "batu")
	require.NoError(t, err)
	want := "*Cuaca di Batu saat ini:*\n" +
		"- Suhu: 22.4°C\n" +
		"- Kelembapan: 81%\n" +
		"- Kondisi: Hujan ringan\n" +
		"- Kecepatan angin: 5.1 km/jam\n" +
		"- Sedang turun hujan.\n" +
		"- Diperkirakan akan hujan dalam 3 jam ke depan.\n"
	require.Equal(t, want, got)
}

func TestLookupCachesGeocode(t *testing.T) {
	f := &fakeMeteo{geoStatus: 200, geoBody: geoBatu, forecastStatus: 200, forecastBody: forecastBatu}
	c := newClient(f.server(t))

	_, err := c.Lookup(context.Background(), "batu")
	require.NoError(t, err)
	_, err = c.Lookup(context.Background(), "Batu")
	require.NoError(t, err)
	require.EqualValues(t, 1, f.geoCalls.Load())
}

func TestLookupFailureReplies(t *testing.T) {
	cases := []struct {
		name string
		f    fakeMeteo
		want string
	}{
		{
			name: "geocode status",
			f:    fakeMeteo{geoStatus: 500, geoBody: "oops"},
			want: `Gagal mencari lokasi kota "atlantis". Coba nama kota lain.`,
		},
		{
			name: "geocode empty",
			f:    fakeMeteo{geoStatus: 200, geoBody: `{"generationtime_ms":0.5}`},
			want: `Kota "atlantis" tidak ditemukan.`,
		},
		{
			name: "geocode malformed",
			f:    fakeMeteo{geoStatus: 200, geoBody: `{"results":`},
			want: replyException,
		},
		{
			name: "forecast status",
			f:    fakeMeteo{geoStatus: 200, geoBody: geoBatu, forecastStatus: 502, forecastBody: "bad"},
			want: "Gagal mendapatkan data cuaca dari API. (Status: 502)",
		},
		{
			name: "forecast incomplete",
			f:    fakeMeteo{geoStatus: 200, geoBody: geoBatu, forecastStatus: 200, forecastBody: `{"hourly":{}}`},
			want: replyIncomplete,
		},
	}
	for i := range cases {
		tc := &cases[i]
		t.Run(tc.name, func(t *testing.T) {
			c := newClient(tc.f.server(t))
			_, err := c.Lookup(context.Background(), "atlantis")
			require.Error(t, err)
			require.Equal(t, tc.want, upstream.Reply(err, ""))
		})
	}
}

func TestLookupTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := newClient(srv).Lookup(context.Background(), "batu")
	require.Error(t, err)
	require.Equal(t, replyException, upstream.Reply(err, ""))
}

func TestFormatReportDryOutlook(t *testing.T) {
	got := FormatReport(Report{
		Place:   Place{Name: "Malang"},
		Current: Current{Temperature: 30, Humidity: 60, WeatherCode: 42, WindSpeed: 3},
	})
	require.Contains(t, got, "- Kondisi: Tidak diketahui\n")
	require.NotContains(t, got, "Sedang turun hujan")
	require.Contains(t, got, "- Tidak ada perkiraan hujan dalam 3 jam ke depan.\n")
}

func TestCleanQuery(t *testing.T) {
	cases := map[string]string{
		"malang":                        "malang",
		"Kota Malang hari ini?":         "malang",
		"apakah besok hujan di batu?!":  "di batu",
		"  Jakarta Selatan sekarang.  ": "jakarta selatan",
		"kota?":                         "",
		"untuk kedepan":                 "",
		"Kotabaru":                      "kotabaru",
	}
	for in, want := range cases {
		require.Equal(t, want, CleanQuery(in), "input %q", in)
	}
}

package wx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkarshhzz/AviFlux/internal/config"
	"github.com/utkarshhzz/AviFlux/pkg/logger"
)

func newTestClient(baseURL string, maxRetries int) *Client {
	return NewClient(config.WeatherConfig{
		APIBaseURL:            baseURL,
		RequestTimeoutSeconds: 5,
		MaxRetries:            maxRetries,
		PIREPRadiusDeg:        1.0,
		AdvisoryLookbackHours: 4,
	}, logger.NewNop())
}

func TestFetchMETARSuccess(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{"icaoId":"KJFK","rawOb":"KJFK 251651Z 27009KT 10SM","temp":12.5,"wspd":9}]`))
	}))
	defer srv.Close()

	metar, err := newTestClient(srv.URL, 2).FetchMETAR(context.Background(), "KJFK")
	require.NoError(t, err)
	assert.Equal(t, "ids=KJFK&format=json", gotQuery)
	assert.Equal(t, "KJFK", metar.ICAOID)
	require.NotNil(t, metar.Temp)
	assert.InDelta(t, 12.5, *metar.Temp, 1e-9)
}

func TestFetchMETARRetriesThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"icaoId":"KJFK"}]`))
	}))
	defer srv.Close()

	metar, err := newTestClient(srv.URL, 2).FetchMETAR(context.Background(), "KJFK")
	require.NoError(t, err)
	assert.Equal(t, "KJFK", metar.ICAOID)
	assert.Equal(t, 2, calls)
}

func TestFetchMETARFailsAfterMaxRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 1).FetchMETAR(context.Background(), "KJFK")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 502")
	// Initial attempt plus one retry
	assert.Equal(t, 2, calls)
}

func TestFetchMETAREmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 0).FetchMETAR(context.Background(), "KJFK")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no METAR data found for KJFK")
}

func TestFetchMETARMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 0).FetchMETAR(context.Background(), "KJFK")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding weather data")
}

func TestFetchTAFEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 0).FetchTAF(context.Background(), "KLAX")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no TAF data found for KLAX")
}

func TestFetchPIREPsBoundingBox(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{"rawOb":"UA /OV JFK","tbInt1":"MOD"}]`))
	}))
	defer srv.Close()

	reports, err := newTestClient(srv.URL, 0).FetchPIREPs(context.Background(), 40.0, -73.0)
	require.NoError(t, err)
	assert.Equal(t, "format=json&bbox=39.00,-74.00,41.00,-72.00", gotQuery)
	require.Len(t, reports, 1)
	assert.Equal(t, "MOD", reports[0].TbInt)
}

func TestFetchPIREPsEmptyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	reports, err := newTestClient(srv.URL, 0).FetchPIREPs(context.Background(), 40.0, -73.0)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestFetchAdvisoriesLookbackWindow(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{"rawAirSigmet":"SIGMET","hazard":"CONVECTIVE","airSigmetType":"SIGMET"}]`))
	}))
	defer srv.Close()

	advisories, err := newTestClient(srv.URL, 0).FetchAdvisories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "format=json&hazard=all&hours=4", gotQuery)
	require.Len(t, advisories, 1)
	assert.Equal(t, "CONVECTIVE", advisories[0].Hazard)
}

func TestFetchMETARCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"icaoId":"KJFK"}]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv.URL, 2).FetchMETAR(ctx, "KJFK")
	assert.Error(t, err)
}

package nasapower

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow keeps date-range validation deterministic in tests.
var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:    baseURL,
		Client:     &http.Client{Timeout: 5 * time.Second},
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		Now:        func() time.Time { return fixedNow },
	})
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"valid equator", 0, 0, false},
		{"valid extremes", 90, 180, false},
		{"valid negative extremes", -90, -180, false},
		{"valid city", 33.5731, -7.5898, false},
		{"latitude too high", 90.1, 0, true},
		{"latitude too low", -91, 0, true},
		{"longitude too high", 0, 180.5, true},
		{"longitude too low", 0, -181, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinates(tt.lat, tt.lon)
			if tt.wantErr {
				var ve *ValidationError
				require.Error(t, err)
				assert.True(t, errors.As(err, &ve), "expected ValidationError, got %T", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateDateRange(t *testing.T) {
	c := newTestClient("http://example.invalid")

	tests := []struct {
		name         string
		start, end   string
		wantErr      bool
		wantWarnings int
	}{
		{"valid range", "20230601", "20230603", false, 0},
		{"bad start format", "2023-06-01", "20230603", true, 0},
		{"bad end format", "20230601", "june", true, 0},
		{"start after end", "20230605", "20230601", true, 0},
		{"before GEOS-IT coverage", "20191231", "20230601", true, 0},
		{"end at edge of available window", "20240310", "20240312", false, 0},
		{"end within reporting delay", "20240310", "20240314", false, 2},
		{"end in the future", "20240310", "20240401", false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings, err := c.ValidateDateRange(tt.start, tt.end)
			if tt.wantErr {
				var ve *ValidationError
				require.Error(t, err)
				assert.True(t, errors.As(err, &ve))
				return
			}
			require.NoError(t, err)
			assert.Len(t, warnings, tt.wantWarnings)
		})
	}
}

func TestBuildQueryDeterministic(t *testing.T) {
	c := newTestClient("https://power.larc.nasa.gov/api/temporal")

	params := []string{"T2M", "ALLSKY_SFC_SW_DWN"}
	u1 := c.BuildQuery(33.5731, -7.5898, "20230601", "20230603", params)
	u2 := c.BuildQuery(33.5731, -7.5898, "20230601", "20230603", params)

	assert.Equal(t, u1, u2, "identical inputs must produce byte-identical queries")
	assert.Equal(t,
		"https://power.larc.nasa.gov/api/temporal/daily/point"+
			"?start=20230601&end=20230603"+
			"&latitude=33.5731&longitude=-7.5898"+
			"&community=ag"+
			"&parameters=T2M%2CALLSKY_SFC_SW_DWN"+
			"&format=json"+
			"&header=true&time-standard=lst",
		u1)
}

func responseBody(params map[string]map[string]float64) string {
	body := `{"header":{"source":"GEOS-IT"},"properties":{"parameter":{`
	first := true
	for name, series := range params {
		if !first {
			body += ","
		}
		first = false
		body += fmt.Sprintf("%q:{", name)
		inner := true
		for date, v := range series {
			if !inner {
				body += ","
			}
			inner = false
			body += fmt.Sprintf("%q:%v", date, v)
		}
		body += "}"
	}
	return body + `}}}`
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, responseBody(map[string]map[string]float64{
			"T2M": {"20230601": 21.5},
		}))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, err := c.Fetch(context.Background(), 33.5, -7.5, "20230601", "20230601", []string{"T2M"})

	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load(), "two failures then success means exactly 3 attempts")
	assert.Equal(t, 21.5, resp.Properties.Parameter["T2M"]["20230601"])
}

func TestFetchExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Fetch(context.Background(), 33.5, -7.5, "20230601", "20230601", []string{"T2M"})

	var due *DataSourceUnavailableError
	require.Error(t, err)
	require.True(t, errors.As(err, &due), "expected DataSourceUnavailableError, got %T", err)
	assert.Equal(t, 3, due.Attempts)
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetchMalformedBodyIsRetryable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			fmt.Fprint(w, `{"truncated":`)
			return
		}
		fmt.Fprint(w, responseBody(map[string]map[string]float64{
			"T2M": {"20230601": 20.0},
		}))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Fetch(context.Background(), 33.5, -7.5, "20230601", "20230601", []string{"T2M"})

	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestFetchProviderErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"messages":["Error: parameter XYZ is not available"],"properties":{"parameter":{}}}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Fetch(context.Background(), 33.5, -7.5, "20230601", "20230601", []string{"XYZ"})

	var pe *ProviderError
	require.Error(t, err)
	require.True(t, errors.As(err, &pe), "expected ProviderError, got %T", err)
	assert.EqualValues(t, 1, calls.Load(), "embedded provider errors must not be retried")
}

func TestFetchRejectsInvalidInput(t *testing.T) {
	c := newTestClient("http://example.invalid")

	var ve *ValidationError

	_, err := c.Fetch(context.Background(), 99, 0, "20230601", "20230601", []string{"T2M"})
	require.True(t, errors.As(err, &ve))

	_, err = c.Fetch(context.Background(), 33.5, -7.5, "20230605", "20230601", []string{"T2M"})
	require.True(t, errors.As(err, &ve))

	_, err = c.Fetch(context.Background(), 33.5, -7.5, "20230601", "20230601", nil)
	require.True(t, errors.As(err, &ve))
}

func TestCheckAvailability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, responseBody(map[string]map[string]float64{
			"T2M":               {"20240305": 18.0, "20240306": 19.0},
			"ALLSKY_SFC_SW_DWN": {"20240305": 5.1, "20240306": -999},
		}))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	report := c.CheckAvailability(context.Background(), 33.5, -7.5)

	assert.True(t, report.Available)
	assert.Equal(t, 2, report.RecordCount)
	assert.Equal(t, "2024-03-06", report.LatestDate)
	assert.Equal(t, "Some missing values", report.Quality)
	assert.NotEmpty(t, report.Message)
}

func TestCheckAvailabilityNeverErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	report := c.CheckAvailability(context.Background(), 33.5, -7.5)

	assert.False(t, report.Available)
	assert.Equal(t, "N/A", report.Quality)
	assert.NotEmpty(t, report.Message)
}

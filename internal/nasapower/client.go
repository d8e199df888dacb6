package nasapower

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/solarcast/solarcast/internal/common"
)

const (
	// DefaultBaseURL is the NASA POWER temporal API root.
	DefaultBaseURL = "https://power.larc.nasa.gov/api/temporal"

	// SourceLabel identifies the reanalysis source this client is pinned to.
	SourceLabel = "NASA POWER GEOS-IT"

	// community with the best GEOS-IT coverage.
	community = "ag"

	// dateLayout is the 8-digit date format the API expects.
	dateLayout = "20060102"

	// fillValue is the sentinel NASA POWER uses for missing data.
	fillValue = -999.0

	// reportingDelayDays is the typical GEOS-IT publication lag.
	reportingDelayDays = 3
)

// minDate is the start of GEOS-IT coverage.
var minDate = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

var errCircuitOpen = errors.New("circuit breaker open")

// Config bundles the HTTP client and resilience settings.
type Config struct {
	BaseURL    string
	Client     *http.Client
	MaxRetries int           // total attempts, default 3
	RetryDelay time.Duration // backoff base, doubled per attempt
	Now        func() time.Time
}

// Client queries the NASA POWER daily point API with retries, exponential
// backoff, and a circuit breaker.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	circuit    *gobreaker.CircuitBreaker
	now        func() time.Time
}

// NewClient creates a Client, applying defaults for any unset config field.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 1 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nasapower",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: cfg.Client,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		circuit:    cb,
		now:        cfg.Now,
	}
}

// Response is the decoded NASA POWER API payload.
type Response struct {
	Header     Header   `json:"header"`
	Messages   []string `json:"messages"`
	Properties struct {
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
}

// Header carries provenance metadata from the provider.
type Header struct {
	Source    string  `json:"source"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ValidateCoordinates checks that lat/lon form a valid WGS84 point.
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return &ValidationError{
			Field:   "latitude",
			Message: fmt.Sprintf("must be between -90 and 90, got %v", lat),
		}
	}
	if lon < -180 || lon > 180 {
		return &ValidationError{
			Field:   "longitude",
			Message: fmt.Sprintf("must be between -180 and 180, got %v", lon),
		}
	}
	return nil
}

// ValidateDateRange checks format and GEOS-IT availability for a YYYYMMDD
// date pair. Hard failures return a ValidationError; requesting data near
// or past the publication lag only yields warnings.
func (c *Client) ValidateDateRange(startDate, endDate string) ([]string, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, &ValidationError{Field: "start_date", Message: "must be in YYYYMMDD format"}
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil, &ValidationError{Field: "end_date", Message: "must be in YYYYMMDD format"}
	}

	if start.After(end) {
		return nil, &ValidationError{Field: "start_date", Message: "start date must not be after end date"}
	}
	if start.Before(minDate) {
		return nil, &ValidationError{
			Field:   "start_date",
			Message: fmt.Sprintf("GEOS-IT data starts from %s, got %s", minDate.Format("2006-01-02"), start.Format("2006-01-02")),
		}
	}

	var warnings []string
	maxDate := c.maxAvailableDate()
	if end.After(maxDate) {
		warnings = append(warnings, fmt.Sprintf(
			"GEOS-IT data may not be available after %s; requested end date %s",
			maxDate.Format("2006-01-02"), end.Format("2006-01-02")))
	}
	if daysAgo := int(c.now().Sub(end).Hours() / 24); daysAgo < reportingDelayDays {
		warnings = append(warnings, fmt.Sprintf(
			"requesting data from %d days ago; GEOS-IT typically has a %d-4 day delay",
			daysAgo, reportingDelayDays))
	}

	return warnings, nil
}

// maxAvailableDate returns the newest date GEOS-IT is expected to cover.
func (c *Client) maxAvailableDate() time.Time {
	return c.now().AddDate(0, 0, -reportingDelayDays)
}

// BuildQuery deterministically constructs the daily point request URL.
// Identical inputs yield byte-identical URLs.
func (c *Client) BuildQuery(lat, lon float64, startDate, endDate string, parameters []string) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("/daily/point")
	b.WriteString("?start=" + url.QueryEscape(startDate))
	b.WriteString("&end=" + url.QueryEscape(endDate))
	b.WriteString("&latitude=" + formatCoord(lat))
	b.WriteString("&longitude=" + formatCoord(lon))
	b.WriteString("&community=" + community)
	b.WriteString("&parameters=" + url.QueryEscape(strings.Join(parameters, ",")))
	b.WriteString("&format=json")
	b.WriteString("&header=true&time-standard=lst")
	return b.String()
}

func formatCoord(f float64) string {
	return fmt.Sprintf("%v", f)
}

// Fetch validates inputs, then issues the request with up to MaxRetries
// attempts. Transport failures, non-2xx statuses, and undecodable bodies
// are retried with exponential backoff; a decoded body whose messages flag
// an error fails immediately with ProviderError.
func (c *Client) Fetch(ctx context.Context, lat, lon float64, startDate, endDate string, parameters []string) (*Response, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	warnings, err := c.ValidateDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Printf("WARN: nasapower: %s", w)
	}
	if len(parameters) == 0 {
		return nil, &ValidationError{Field: "parameters", Message: "at least one parameter is required"}
	}

	u := c.BuildQuery(lat, lon, startDate, endDate, parameters)

	var lastErr error
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			return c.doOnce(ctx, u)
		})
		if err == nil {
			resp, ok := result.(*Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}

			// A body that parses but carries an error indicator is a
			// provider-side condition; retrying the same request won't help.
			if msgs := errorMessages(resp.Messages); len(msgs) > 0 {
				return nil, &ProviderError{Messages: msgs}
			}

			if resp.Header.Source != "" && !strings.Contains(strings.ToLower(resp.Header.Source), "geos") {
				log.Printf("WARN: nasapower: expected GEOS-IT source, got %q", resp.Header.Source)
			}
			return resp, nil
		}

		// An open circuit means the provider is already known-bad.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &DataSourceUnavailableError{
				Attempts: attempt + 1,
				Err:      fmt.Errorf("%w: %v", errCircuitOpen, err),
			}
		}

		lastErr = err
		if attempt+1 >= c.maxRetries {
			return nil, &DataSourceUnavailableError{Attempts: attempt + 1, Err: lastErr}
		}

		delay := c.retryDelay * time.Duration(1<<attempt)
		log.Printf("INFO: nasapower: attempt %d/%d failed (%v); retrying in %s", attempt+1, c.maxRetries, err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// doOnce performs a single HTTP round trip and decode. Every failure mode
// here is considered retryable by the caller.
func (c *Client) doOnce(ctx context.Context, u string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var payload Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed response body: %w", err)
	}
	return &payload, nil
}

// errorMessages filters provider messages down to the ones flagging errors.
func errorMessages(messages []string) []string {
	var out []string
	for _, m := range messages {
		if common.HasAny(strings.ToLower(m), "error") {
			out = append(out, m)
		}
	}
	return out
}

// FetchTable fetches the named parameter set and parses the response into
// a dated table in one call.
func (c *Client) FetchTable(ctx context.Context, lat, lon float64, startDate, endDate string, set ParameterSet) (*Table, error) {
	resp, err := c.Fetch(ctx, lat, lon, startDate, endDate, Parameters(set))
	if err != nil {
		return nil, err
	}
	return ParseResponse(resp)
}

package covidcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the public Delphi COVIDcast endpoint.
const DefaultBaseURL = "https://api.delphi.cmu.edu/epidata/covidcast/"

// Series requested from COVIDcast: JHU CSSE confirmed cases, 7-day average
// per 100,000 people.
const (
	DataSource = "jhu-csse"
	Signal     = "confirmed_7dav_incidence_prop"
)

// Delphi result codes.
const (
	resultOK        = 1
	resultNoResults = -2
)

// ErrUpstream is returned when the provider answers with a failure.
var ErrUpstream = errors.New("covidcast: upstream error")

// Client queries the COVIDcast daily series.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client. A zero timeout leaves requests bounded only by
// the caller's context.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type epidataResponse struct {
	Result  int      `json:"result"`
	Message string   `json:"message"`
	Epidata []Record `json:"epidata"`
}

// Fetch returns the daily values of region between start and end, inclusive.
// region must already be normalized.
func (c *Client) Fetch(ctx context.Context, region string, start, end time.Time) ([]Record, error) {
	geoType := "state"
	if region == Nation {
		geoType = "nation"
	}

	q := url.Values{}
	q.Set("data_source", DataSource)
	q.Set("signal", Signal)
	q.Set("geo_type", geoType)
	q.Set("geo_values", region)
	q.Set("time_type", "day")
	q.Set("time_values", FormatDate(start)+"-"+FormatDate(end))
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build covidcast request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch covidcast %s: %w", region, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var body epidataResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode covidcast response: %w", err)
	}

	switch body.Result {
	case resultOK:
		return body.Epidata, nil
	case resultNoResults:
		return []Record{}, nil
	default:
		return nil, fmt.Errorf("%w: result %d: %s", ErrUpstream, body.Result, body.Message)
	}
}

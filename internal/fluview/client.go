package fluview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the public Delphi Epidata endpoint.
const DefaultBaseURL = "https://api.delphi.cmu.edu/epidata/api.php"

// Delphi result codes.
const (
	resultOK        = 1
	resultNoResults = -2
)

// ErrUpstream is returned when the provider answers with a failure.
var ErrUpstream = errors.New("fluview: upstream error")

// Client queries the Delphi Epidata fluview source.
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

// Fetch returns every published week for region. Regions are sent as given.
func (c *Client) Fetch(ctx context.Context, region string) ([]Record, error) {
	q := url.Values{}
	q.Set("source", "fluview")
	q.Set("regions", region)
	q.Set("epiweeks", "200000-999999")
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build fluview request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch fluview %s: %w", region, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var body epidataResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode fluview response: %w", err)
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

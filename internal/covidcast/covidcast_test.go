package covidcast

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valuep(v float64) *float64 { return &v }

func days(n int, start time.Time) []Day {
	out := make([]Day, n)
	for i := range out {
		d := start.AddDate(0, 0, i)
		out[i] = Day{Date: d.Year()*10000 + int(d.Month())*100 + d.Day(), Value: float64(i + 1)}
	}
	return out
}

func TestDates(t *testing.T) {
	assert.Equal(t, "20240305", FormatDate(time.Date(2024, time.March, 5, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), ParseDate(20240305))
	assert.Equal(t, "Day of Mar 5, 2024", DayLabel(20240305))
}

func TestNormalizeRegion(t *testing.T) {
	for in, want := range map[string]string{"US": "us", " ca ": "ca", "Tx": "tx"} {
		code, ok := NormalizeRegion(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, code)
	}
	for _, bad := range []string{"nat", "dc", "", "usa"} {
		_, ok := NormalizeRegion(bad)
		assert.False(t, ok, bad)
	}
}

func TestNormalize(t *testing.T) {
	dir := -1
	out := Normalize([]Record{
		{TimeValue: 20240302, Value: valuep(4.5), Issue: 20240304},
		{TimeValue: 20240301, Value: nil, Direction: &dir},
	})

	require.Len(t, out, 2)
	assert.Equal(t, 20240301, out[0].Date)
	assert.Equal(t, "Day of Mar 1, 2024", out[0].Label)
	assert.Zero(t, out[0].Value)
	assert.Equal(t, -1, *out[0].Direction)
	assert.Equal(t, 4.5, out[1].Value)
	assert.Equal(t, 20240304, out[1].Issue)
}

func TestChunkWeeks(t *testing.T) {
	weeks := ChunkWeeks(days(30, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)))

	require.Len(t, weeks, 5)
	assert.Equal(t, 20240201, weeks[0].StartDate)
	assert.Equal(t, 20240207, weeks[0].EndDate)
	assert.Equal(t, 4.0, weeks[0].AverageValue)
	assert.Len(t, weeks[0].Days, 7)

	last := weeks[4]
	assert.Len(t, last.Days, 2)
	assert.Equal(t, 20240229, last.StartDate)
	assert.Equal(t, 20240301, last.EndDate)
	assert.Equal(t, 29.5, last.AverageValue)

	assert.Empty(t, ChunkWeeks(nil))
	assert.NotNil(t, ChunkWeeks(nil))
}

func TestSummarize(t *testing.T) {
	assert.Nil(t, Summarize(nil))

	s := Summarize(days(30, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, s)
	assert.Equal(t, "Last 30 days average", s.Label)
	assert.Equal(t, 15.5, s.AverageValue)
}

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, DataSource, q.Get("data_source"))
		assert.Equal(t, Signal, q.Get("signal"))
		assert.Equal(t, "state", q.Get("geo_type"))
		assert.Equal(t, "ca", q.Get("geo_values"))
		assert.Equal(t, "day", q.Get("time_type"))
		assert.Equal(t, "20240301-20240307", q.Get("time_values"))
		assert.Equal(t, "secret", q.Get("api_key"))
		fmt.Fprint(w, `{"result":1,"message":"success","epidata":[
			{"geo_value":"ca","time_value":20240301,"value":12.25,"issue":20240303,"direction":null}]}`)
	}))
	defer srv.Close()

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	recs, err := NewClient(srv.URL, "secret", time.Second).Fetch(context.Background(), "ca", start, start.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 20240301, recs[0].TimeValue)
	assert.Equal(t, 12.25, *recs[0].Value)
	assert.Nil(t, recs[0].Direction)
}

func TestClientFetch_Nation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "nation", r.URL.Query().Get("geo_type"))
		assert.Empty(t, r.URL.Query().Get("api_key"))
		fmt.Fprint(w, `{"result":-2,"message":"no results"}`)
	}))
	defer srv.Close()

	now := time.Now()
	recs, err := NewClient(srv.URL, "", time.Second).Fetch(context.Background(), Nation, now, now)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestClientFetch_Errors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	now := time.Now()
	_, err := NewClient(failing.URL, "", time.Second).Fetch(context.Background(), "ca", now, now)
	assert.ErrorIs(t, err, ErrUpstream)

	refused := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":-1,"message":"bad signal"}`)
	}))
	defer refused.Close()

	_, err = NewClient(refused.URL, "", time.Second).Fetch(context.Background(), "ca", now, now)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "bad signal")
}

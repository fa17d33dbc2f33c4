package seeder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Ayash-Bera/nearby/internal/places"
	"github.com/Ayash-Bera/nearby/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSearcher struct {
	queries []string
	fail    map[string]bool
}

func (r *recordingSearcher) TextSearch(_ context.Context, req places.TextSearchRequest) (*places.TextSearchResponse, error) {
	r.queries = append(r.queries, req.Query)
	if r.fail[req.Query] {
		return nil, &places.UpstreamError{Status: "OVER_QUERY_LIMIT"}
	}
	return &places.TextSearchResponse{Status: places.StatusOK, Results: []places.Place{{Name: req.Query}}}, nil
}

func TestParseEntries(t *testing.T) {
	entries, err := ParseEntries(strings.NewReader(`[
		{"query": "ramen near Shibuya", "location": {"lat": 35.6595, "lng": 139.7005}, "radiusMeters": 2000, "priority": 5},
		{"query": "  "},
		{"query": " coffee Ebisu "}
	]`))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ramen near Shibuya", entries[0].Query)
	assert.Equal(t, 2000.0, *entries[0].RadiusMeters)
	assert.Equal(t, "coffee Ebisu", entries[1].Query)

	_, err = ParseEntries(strings.NewReader(`[{"query": "x", "location": {"lat": 1, "lng": 2}}]`))
	assert.Error(t, err)

	_, err = ParseEntries(strings.NewReader(`{"query": "not an array"}`))
	assert.Error(t, err)
}

func TestWarm_PriorityOrderLimitAndErrors(t *testing.T) {
	searcher := &recordingSearcher{fail: map[string]bool{"b": true}}
	w := NewWarmer(searcher, utils.DiscardLogger(), 0, false)

	entries := []Entry{
		{Query: "low", Priority: 1},
		{Query: "a", Priority: 9},
		{Query: "b", Priority: 7},
		{Query: "c", Priority: 7},
	}
	report := w.Warm(context.Background(), entries, 3)

	assert.Equal(t, []string{"a", "b", "c"}, searcher.queries)
	assert.Equal(t, 2, report.Warmed)
	require.Len(t, report.Errors, 1)

	var upstreamErr *places.UpstreamError
	assert.True(t, errors.As(report.Errors[0], &upstreamErr))
	assert.Equal(t, "low", entries[0].Query, "input order untouched")
}

func TestWarm_DryRunMakesNoCalls(t *testing.T) {
	searcher := &recordingSearcher{}
	report := NewWarmer(searcher, utils.DiscardLogger(), 0, true).Warm(context.Background(), []Entry{{Query: "a"}, {Query: "b"}}, 0)

	assert.Empty(t, searcher.queries)
	assert.Equal(t, 2, report.Skipped)
}

func TestWarm_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	searcher := &recordingSearcher{}
	report := NewWarmer(searcher, utils.DiscardLogger(), 0, false).Warm(ctx, []Entry{{Query: "a"}, {Query: "b"}}, 0)

	assert.Empty(t, searcher.queries)
	assert.Equal(t, 2, report.Skipped)
}

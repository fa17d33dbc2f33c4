// Package seeder pre-populates the shared places cache with common searches.
package seeder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/Ayash-Bera/nearby/internal/places"
	"github.com/sirupsen/logrus"
)

// Searcher is satisfied by *places.Client.
type Searcher interface {
	TextSearch(ctx context.Context, req places.TextSearchRequest) (*places.TextSearchResponse, error)
}

// Entry is one search to warm. Higher priority entries run first.
type Entry struct {
	Query        string           `json:"query"`
	Location     *places.Location `json:"location,omitempty"`
	RadiusMeters *float64         `json:"radiusMeters,omitempty"`
	Priority     int              `json:"priority"`
}

func (e Entry) request() places.TextSearchRequest {
	return places.TextSearchRequest{
		Query:        e.Query,
		Location:     e.Location,
		RadiusMeters: e.RadiusMeters,
	}
}

// ParseEntries reads a JSON array of entries, dropping blank queries.
func ParseEntries(r io.Reader) ([]Entry, error) {
	var raw []Entry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode entries: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for i, e := range raw {
		e.Query = strings.TrimSpace(e.Query)
		if e.Query == "" {
			continue
		}
		if (e.Location == nil) != (e.RadiusMeters == nil) {
			return nil, fmt.Errorf("entry %d (%q): location and radiusMeters must be set together", i, e.Query)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

type Report struct {
	Warmed  int
	Skipped int
	Errors  []error
}

type Warmer struct {
	places Searcher
	logger *logrus.Logger
	delay  time.Duration
	dryRun bool
}

func NewWarmer(searcher Searcher, logger *logrus.Logger, delay time.Duration, dryRun bool) *Warmer {
	return &Warmer{
		places: searcher,
		logger: logger,
		delay:  delay,
		dryRun: dryRun,
	}
}

// Warm runs entries by descending priority, at most limit of them when
// limit > 0. Individual failures are collected, not fatal.
func (w *Warmer) Warm(ctx context.Context, entries []Entry, limit int) Report {
	ordered := make([]Entry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	if limit > 0 && limit < len(ordered) {
		ordered = ordered[:limit]
		w.logger.WithField("limit", limit).Info("Limited entries to warm")
	}

	var report Report
	for i, entry := range ordered {
		if ctx.Err() != nil {
			report.Skipped += len(ordered) - i
			break
		}

		log := w.logger.WithFields(logrus.Fields{
			"query":    entry.Query,
			"priority": entry.Priority,
			"progress": fmt.Sprintf("%d/%d", i+1, len(ordered)),
		})

		if w.dryRun {
			log.Info("Would warm")
			report.Skipped++
			continue
		}

		resp, err := w.places.TextSearch(ctx, entry.request())
		if err != nil {
			log.WithError(err).Error("Failed to warm entry")
			report.Errors = append(report.Errors, fmt.Errorf("failed to warm %q: %w", entry.Query, err))
		} else {
			log.WithField("results", len(resp.Results)).Info("Entry warmed")
			report.Warmed++
		}

		if w.delay > 0 && i < len(ordered)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(w.delay):
			}
		}
	}

	w.logger.WithFields(logrus.Fields{
		"warmed":  report.Warmed,
		"skipped": report.Skipped,
		"errors":  len(report.Errors),
	}).Info("Cache warming completed")

	return report
}

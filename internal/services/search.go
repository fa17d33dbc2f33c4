package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ayash-Bera/nearby/internal/links"
	"github.com/Ayash-Bera/nearby/internal/llm"
	"github.com/Ayash-Bera/nearby/internal/models"
	"github.com/Ayash-Bera/nearby/internal/places"
	"github.com/sirupsen/logrus"
)

// PlacesSearcher is the subset of places.Client the service needs.
type PlacesSearcher interface {
	TextSearch(ctx context.Context, req places.TextSearchRequest) (*places.TextSearchResponse, error)
}

type SearchService struct {
	extractor llm.Extractor
	places    PlacesSearcher
	links     *links.Builder
	logger    *logrus.Logger
}

var errNoResults = errors.New("search produced no results")

func NewSearchService(
	extractor llm.Extractor,
	placesClient PlacesSearcher,
	linkBuilder *links.Builder,
	logger *logrus.Logger,
) *SearchService {
	return &SearchService{
		extractor: extractor,
		places:    placesClient,
		links:     linkBuilder,
		logger:    logger,
	}
}

// Search runs extract, lookup and shaping for a validated request.
// Upstream failures degrade to a single text-only result; an error is
// returned only when shaping itself goes wrong.
func (s *SearchService) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	start := time.Now()

	query := s.extractor.ExtractQuery(ctx, req.Prompt)

	lookup := places.TextSearchRequest{
		Query:        query,
		RadiusMeters: req.RadiusMeters,
	}
	if loc := req.Location.Point(); loc != nil {
		lookup.Location = &places.Location{Lat: loc.Lat, Lng: loc.Lng}
	}

	raw, err := s.places.TextSearch(ctx, lookup)
	if err != nil {
		s.logger.WithError(err).WithField("query", query).Warn("Places lookup failed, using fallback result")
		raw = nil
	}

	origin := req.Origin.Point()

	var results []models.PlaceResult
	if raw != nil && len(raw.Results) > 0 {
		results = s.shapePlaces(raw.Results, origin)
	} else {
		results = []models.PlaceResult{s.fallbackResult(query, origin)}
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("shape results for %q: %w", query, errNoResults)
	}

	s.logger.WithFields(logrus.Fields{
		"provider":   s.extractor.Provider(),
		"query":      query,
		"results":    len(results),
		"fallback":   raw == nil || len(raw.Results) == 0,
		"has_origin": origin != nil,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("Search completed")

	return &models.SearchResponse{
		Query:   query,
		Results: results,
	}, nil
}

func (s *SearchService) shapePlaces(upstream []places.Place, origin *models.Point) []models.PlaceResult {
	results := make([]models.PlaceResult, 0, len(upstream))
	for _, p := range upstream {
		result := models.PlaceResult{
			Name:             p.Name,
			Address:          p.Address(),
			Rating:           p.Rating,
			UserRatingsTotal: p.UserRatingsTotal,
			PlaceID:          p.PlaceID,
		}
		if loc := p.Geometry.Location; loc != nil {
			result.Location = &models.Point{Lat: loc.Lat, Lng: loc.Lng}
		}

		if p.PlaceID == "" {
			// no identifier to route to, so address the place by text
			text := strings.TrimSpace(p.Name + " " + p.Address())
			result.MapsLink = s.links.FallbackMapsLink(text)
			result.EmbedURL = s.embedFallback(text, origin)
		} else {
			result.MapsLink = s.links.MapsLink(p.PlaceID, p.Name)
			if origin != nil {
				result.EmbedURL = s.links.DirectionsEmbedURL(*origin, p.PlaceID)
			} else {
				result.EmbedURL = s.links.PlaceEmbedURL(p.PlaceID)
			}
		}

		results = append(results, result)
	}
	return results
}

func (s *SearchService) fallbackResult(query string, origin *models.Point) models.PlaceResult {
	return models.PlaceResult{
		Name:     query,
		MapsLink: s.links.FallbackMapsLink(query),
		EmbedURL: s.embedFallback(query, origin),
	}
}

func (s *SearchService) embedFallback(text string, origin *models.Point) string {
	if origin != nil {
		return s.links.FallbackDirectionsEmbedURL(*origin, text)
	}
	return s.links.FallbackEmbedURL(text)
}

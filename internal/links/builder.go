// Package links builds Google Maps embed and deep-link URLs.
package links

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/Ayash-Bera/nearby/internal/models"
)

const (
	embedBaseURL  = "https://www.google.com/maps/embed/v1"
	searchBaseURL = "https://www.google.com/maps/search/"
)

// Builder holds the browser-restricted embed key. It never sees the
// server key used for places search.
type Builder struct {
	embedKey string
}

// NewBuilder creates a builder for the given embed key.
func NewBuilder(embedKey string) *Builder {
	return &Builder{embedKey: embedKey}
}

// HasEmbedKey reports whether embed URLs can render.
func (b *Builder) HasEmbedKey() bool {
	return b.embedKey != ""
}

// PlaceEmbedURL renders a single place by its identifier.
func (b *Builder) PlaceEmbedURL(placeID string) string {
	return b.embed("place", url.Values{
		"q": {"place_id:" + placeID},
	})
}

// DirectionsEmbedURL renders a route from origin to the identified place.
func (b *Builder) DirectionsEmbedURL(origin models.Point, placeID string) string {
	return b.embed("directions", url.Values{
		"origin":      {formatPoint(origin)},
		"destination": {"place_id:" + placeID},
	})
}

// MapsLink opens the maps search UI on the named place.
func (b *Builder) MapsLink(placeID, name string) string {
	params := url.Values{
		"api":   {"1"},
		"query": {name},
	}
	if placeID != "" {
		params.Set("query_place_id", placeID)
	}
	return searchBaseURL + "?" + encode(params)
}

// FallbackEmbedURL searches the embed map for free text.
func (b *Builder) FallbackEmbedURL(query string) string {
	return b.embed("place", url.Values{"q": {query}})
}

// FallbackDirectionsEmbedURL routes from origin to a free-text destination.
func (b *Builder) FallbackDirectionsEmbedURL(origin models.Point, query string) string {
	return b.embed("directions", url.Values{
		"origin":      {formatPoint(origin)},
		"destination": {query},
	})
}

// FallbackMapsLink opens the maps search UI on free text.
func (b *Builder) FallbackMapsLink(query string) string {
	return b.MapsLink("", query)
}

func (b *Builder) embed(mode string, params url.Values) string {
	params.Set("key", b.embedKey)
	return embedBaseURL + "/" + mode + "?" + encode(params)
}

// encode uses %20 for spaces; the embed API does not accept '+'.
func encode(params url.Values) string {
	return strings.ReplaceAll(params.Encode(), "+", "%20")
}

func formatPoint(p models.Point) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

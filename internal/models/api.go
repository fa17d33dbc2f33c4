package models

// LatLng is a WGS84 coordinate. Pointers let validation tell a missing
// field apart from a zero coordinate.
type LatLng struct {
	Lat *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" binding:"required,gte=-180,lte=180"`
}

type SearchRequest struct {
	Prompt       string   `json:"prompt" binding:"required"`
	Location     *LatLng  `json:"location,omitempty"`
	Origin       *LatLng  `json:"origin,omitempty"`
	RadiusMeters *float64 `json:"radiusMeters,omitempty" binding:"omitempty,gte=1,lte=50000"`
}

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point converts a validated LatLng. Callers must have validated it first.
func (l *LatLng) Point() *Point {
	if l == nil || l.Lat == nil || l.Lng == nil {
		return nil
	}
	return &Point{Lat: *l.Lat, Lng: *l.Lng}
}

type PlaceResult struct {
	Name             string   `json:"name"`
	Address          string   `json:"address,omitempty"`
	Location         *Point   `json:"location,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal *int     `json:"userRatingsTotal,omitempty"`
	PlaceID          string   `json:"placeId,omitempty"`
	MapsLink         string   `json:"mapsLink"`
	EmbedURL         string   `json:"embedUrl"`
}

type SearchResponse struct {
	Query   string        `json:"query"`
	Results []PlaceResult `json:"results"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

type ReadinessResponse struct {
	Status   string            `json:"status"`
	Uptime   string            `json:"uptime"`
	Services map[string]string `json:"services"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

package places

// TextSearchResponse is the raw upstream text-search payload. It is what
// gets cached, so it round-trips through JSON.
type TextSearchResponse struct {
	Status           string   `json:"status"`
	ErrorMessage     string   `json:"error_message,omitempty"`
	NextPageToken    string   `json:"next_page_token,omitempty"`
	HTMLAttributions []string `json:"html_attributions,omitempty"`
	Results          []Place  `json:"results"`
}

type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address,omitempty"`
	Vicinity         string   `json:"vicinity,omitempty"`
	Geometry         Geometry `json:"geometry"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal *int     `json:"user_ratings_total,omitempty"`
	BusinessStatus   string   `json:"business_status,omitempty"`
	Types            []string `json:"types,omitempty"`
}

type Geometry struct {
	Location *Location `json:"location,omitempty"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Address prefers the full formatted address over the vicinity summary.
func (p Place) Address() string {
	if p.FormattedAddress != "" {
		return p.FormattedAddress
	}
	return p.Vicinity
}

type TextSearchRequest struct {
	Query        string
	Location     *Location
	RadiusMeters *float64
}

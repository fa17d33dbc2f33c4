package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/Ayash-Bera/nearby/internal/links"
	"github.com/Ayash-Bera/nearby/internal/models"
	"github.com/Ayash-Bera/nearby/pkg/utils"
	"github.com/Ayash-Bera/nearby/web"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type MapHandler struct {
	links  *links.Builder
	logger *logrus.Logger
}

func NewMapHandler(linkBuilder *links.Builder, logger *logrus.Logger) *MapHandler {
	return &MapHandler{
		links:  linkBuilder,
		logger: logger,
	}
}

// HandleMap serves GET /map: a page framing the place, or directions to it
// when both origin coordinates are valid.
func (h *MapHandler) HandleMap(c *gin.Context) {
	placeID := c.Query("place_id")
	if placeID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "place_id is required", nil)
		return
	}
	if !h.links.HasEmbedKey() {
		h.logger.Error("Map requested but GOOGLE_MAPS_EMBED_KEY is not configured")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Map embedding is not configured", nil)
		return
	}

	page := web.MapPage{Title: "Map", EmbedURL: h.links.PlaceEmbedURL(placeID)}
	if origin := parseOrigin(c.Query("origin_lat"), c.Query("origin_lng")); origin != nil {
		page.Title = "Directions"
		page.EmbedURL = h.links.DirectionsEmbedURL(*origin, placeID)
	}

	var buf bytes.Buffer
	if err := web.MapTemplate.Execute(&buf, page); err != nil {
		h.logger.WithError(err).Error("Failed to render map page")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// parseOrigin ignores partial or out-of-range coordinates.
func parseOrigin(latRaw, lngRaw string) *models.Point {
	if latRaw == "" || lngRaw == "" {
		return nil
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil
	}
	return &models.Point{Lat: lat, Lng: lng}
}

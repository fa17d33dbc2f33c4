package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Ayash-Bera/nearby/internal/middleware"
	"github.com/Ayash-Bera/nearby/internal/models"
	"github.com/Ayash-Bera/nearby/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Searcher is implemented by services.SearchService.
type Searcher interface {
	Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error)
}

type SearchHandler struct {
	searcher Searcher
	logger   *logrus.Logger
}

func NewSearchHandler(searcher Searcher, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		searcher: searcher,
		logger:   logger,
	}
}

// HandleSearch serves POST /api/llm/search.
func (h *SearchHandler) HandleSearch(c *gin.Context) {
	log := h.logger.WithField("request_id", c.GetString(middleware.RequestIDKey))

	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Request body too large", nil)
			return
		}
		log.WithError(err).Info("Invalid search request")
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request", bindingDetails(err))
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request", []models.FieldError{
			{Field: "prompt", Message: "must not be blank"},
		})
		return
	}

	log.WithFields(logrus.Fields{
		"prompt_length": len(req.Prompt),
		"has_location":  req.Location != nil,
		"has_origin":    req.Origin != nil,
	}).Debug("Processing search request")

	resp, err := h.searcher.Search(c.Request.Context(), &req)
	if err != nil {
		log.WithError(err).Error("Search failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// bindingDetails turns a bind error into per-field messages keyed by JSON path.
func bindingDetails(err error) []models.FieldError {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]models.FieldError, 0, len(validationErrs))
		for _, fe := range validationErrs {
			details = append(details, models.FieldError{
				Field:   jsonPath(fe.Namespace()),
				Message: fieldMessage(fe),
			})
		}
		return details
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []models.FieldError{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("must be of type %s", typeErr.Type),
		}}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return []models.FieldError{{Field: "body", Message: "must be a JSON object"}}
	}

	return []models.FieldError{{Field: "body", Message: err.Error()}}
}

// jsonPath maps "SearchRequest.Location.Lat" to "location.lat".
func jsonPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

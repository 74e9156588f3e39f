package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"starlog/backend/internal/model"
	"starlog/backend/internal/service"
)

type EntryHandler struct {
	service service.EntryService
}

func NewEntryHandler(service service.EntryService) *EntryHandler {
	return &EntryHandler{service: service}
}

func (h *EntryHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/entries", h.Submit)
	g.GET("/entries", h.List)
	g.GET("/entries/:id", h.GetByID)
}

type submissionRequest struct {
	Title            string `json:"title" form:"title"`
	Body             string `json:"body" form:"body"`
	EntryDate        string `json:"entryDate" form:"entryDate"`
	IncludeAstronomy bool   `json:"includeAstronomy" form:"includeAstronomy"`
	Timezone         int    `json:"timezone" form:"timezone"`
}

type entryResponse struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Body              string  `json:"body"`
	Date              string  `json:"date"`
	CreatedAt         string  `json:"createdAt"`
	IncludeAstronomy  bool    `json:"includeAstronomy"`
	AstronomyImageURL *string `json:"astronomyImageUrl,omitempty"`
}

type entryListResponse struct {
	Entries []entryResponse `json:"entries"`
}

type submissionCreatedResponse struct {
	ID        string `json:"id"`
	EntryDate string `json:"entryDate"`
}

type submissionRejectedResponse struct {
	Outcome   string `json:"outcome"`
	EntryDate string `json:"entryDate"`
}

// Submit creates a new journal entry.
// @Summary Submit entry
// @Description Validate and store a journal entry for a calendar date, optionally enriched with the astronomy picture of that day
// @Tags entries
// @Accept json
// @Produce json
// @Param request body submissionRequest true "Entry submission"
// @Success 201 {object} submissionCreatedResponse
// @Failure 400 {object} submissionRejectedResponse "Malformed or implausible date"
// @Failure 409 {object} submissionRejectedResponse "An entry for that date already exists"
// @Failure 422 {object} submissionRejectedResponse "Date is in the submitter's future"
// @Failure 500 {object} errorResponse
// @Router /entries [post]
func (h *EntryHandler) Submit(c echo.Context) error {
	var req submissionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}

	result, err := h.service.Submit(c.Request().Context(), service.Submission{
		Title:                 req.Title,
		Body:                  req.Body,
		EntryDate:             req.EntryDate,
		IncludeAstronomy:      req.IncludeAstronomy,
		TimezoneOffsetMinutes: req.Timezone,
	})
	if err != nil {
		return writeServiceError(c, err)
	}

	switch result.Status {
	case service.StatusCreated:
		return c.JSON(http.StatusCreated, submissionCreatedResponse{
			ID:        idToString(result.Entry.ID),
			EntryDate: result.EntryDate,
		})
	case service.StatusFutureDate:
		return c.JSON(http.StatusUnprocessableEntity, submissionRejectedResponse{
			Outcome:   string(result.Status),
			EntryDate: result.EntryDate,
		})
	case service.StatusDuplicateDate:
		return c.JSON(http.StatusConflict, submissionRejectedResponse{
			Outcome:   string(result.Status),
			EntryDate: result.EntryDate,
		})
	case service.StatusInvalidDate:
		return c.JSON(http.StatusBadRequest, submissionRejectedResponse{
			Outcome:   string(result.Status),
			EntryDate: result.EntryDate,
		})
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// List returns all entries, newest first.
// @Summary List entries
// @Description Get all journal entries sorted by creation instant descending
// @Tags entries
// @Produce json
// @Success 200 {object} entryListResponse
// @Failure 500 {object} errorResponse
// @Router /entries [get]
func (h *EntryHandler) List(c echo.Context) error {
	entries, err := h.service.List(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}

	response := entryListResponse{
		Entries: make([]entryResponse, len(entries)),
	}
	for i, e := range entries {
		response.Entries[i] = toEntryResponse(e)
	}

	return c.JSON(http.StatusOK, response)
}

// GetByID returns an entry by its ID.
// @Summary Get entry
// @Description Get a single journal entry by its identifier
// @Tags entries
// @Produce json
// @Param id path int true "Entry ID"
// @Success 200 {object} entryResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /entries/{id} [get]
func (h *EntryHandler) GetByID(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid id"})
	}

	entry, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, toEntryResponse(entry))
}

func toEntryResponse(e model.Entry) entryResponse {
	return entryResponse{
		ID:                idToString(e.ID),
		Title:             e.Title,
		Body:              e.Body,
		Date:              e.Date,
		CreatedAt:         e.CreatedAt.UTC().Format(time.RFC3339),
		IncludeAstronomy:  e.IncludeAstronomy,
		AstronomyImageURL: e.AstronomyImageURL,
	}
}

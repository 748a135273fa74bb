package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"warcalendar/backend/internal/models"
	"warcalendar/backend/internal/store"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// EventCreateInput checks that required fields are present, not that they are non-empty.
type EventCreateInput struct {
	Title       *string    `json:"title" binding:"required" swaggertype:"string" example:"День ВДВ РФ"`
	Type        *string    `json:"type" binding:"required" swaggertype:"string" example:"Праздник"`
	StartDate   *Timestamp `json:"start_date" binding:"required" swaggertype:"string" example:"2023-08-02T00:00:00Z"`
	EndDate     *Timestamp `json:"end_date" binding:"required" swaggertype:"string" example:"2023-08-02T23:59:59Z"`
	Description *string    `json:"description"`
	ImageURL    *string    `json:"image_url"`
	SourceURL   *string    `json:"source_url"`
	TagIDs      []uint     `json:"tag_ids"` // unknown ids are ignored
}

// EventUpdateInput is a partial update; absent or null fields are left unchanged.
type EventUpdateInput struct {
	Title       *string    `json:"title"`
	Type        *string    `json:"type"`
	StartDate   *Timestamp `json:"start_date" swaggertype:"string"`
	EndDate     *Timestamp `json:"end_date" swaggertype:"string"`
	Description *string    `json:"description"`
	ImageURL    *string    `json:"image_url"`
	SourceURL   *string    `json:"source_url"`
	TagIDs      *[]uint    `json:"tag_ids"` // replaces the tag set when present
}

func (in EventUpdateInput) patch() store.EventPatch {
	return store.EventPatch{
		Title:       in.Title,
		Type:        in.Type,
		StartDate:   timePtr(in.StartDate),
		EndDate:     timePtr(in.EndDate),
		Description: in.Description,
		ImageURL:    in.ImageURL,
		SourceURL:   in.SourceURL,
		TagIDs:      in.TagIDs,
	}
}

type EventResponse struct {
	ID          uint          `json:"id" example:"1"`
	Title       string        `json:"title"`
	Type        string        `json:"type"`
	StartDate   Timestamp     `json:"start_date" swaggertype:"string"`
	EndDate     Timestamp     `json:"end_date" swaggertype:"string"`
	Description *string       `json:"description"`
	ImageURL    *string       `json:"image_url"`
	SourceURL   *string       `json:"source_url"`
	CreatedAt   Timestamp     `json:"created_at" swaggertype:"string"`
	Tags        []TagResponse `json:"tags"`
}

func newEventResponse(event models.Event) EventResponse {
	tagResponses := make([]TagResponse, 0, len(event.Tags))
	for _, tag := range event.Tags {
		if tag != nil {
			tagResponses = append(tagResponses, newTagResponse(*tag))
		}
	}

	return EventResponse{
		ID:          event.ID,
		Title:       event.Title,
		Type:        event.Type,
		StartDate:   Timestamp{event.StartDate},
		EndDate:     Timestamp{event.EndDate},
		Description: event.Description,
		ImageURL:    event.ImageURL,
		SourceURL:   event.SourceURL,
		CreatedAt:   Timestamp{event.CreatedAt},
		Tags:        tagResponses,
	}
}

// endregion

// region --- Handlers ---

// CreateEvent godoc
// @Summary      Create a new event
// @Description  Creates an event and links it to the given tags. Unknown tag ids are ignored.
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     APIKeyAuth
// @Param        input body EventCreateInput true "Event Info"
// @Success      201  {object}  EventResponse
// @Failure      403  {object}  ErrorResponse "Invalid API Key"
// @Failure      422  {object}  ValidationErrorResponse
// @Router       /events/ [post]
func (h *Handler) CreateEvent(c *gin.Context) {
	var input EventCreateInput
	if !bindJSON(c, &input) {
		return
	}

	event, err := h.Events.Create(c.Request.Context(), store.EventFields{
		Title:       *input.Title,
		Type:        *input.Type,
		StartDate:   input.StartDate.Time,
		EndDate:     input.EndDate.Time,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		SourceURL:   input.SourceURL,
	}, input.TagIDs)
	if err != nil {
		h.respondStoreError(c, err, "Event")
		return
	}

	resp := newEventResponse(event)
	h.publish("event.created", resp)
	c.JSON(http.StatusCreated, resp)
}

// GetEvents godoc
// @Summary      List events
// @Description  Lists events matching every given filter.
// @Tags         events
// @Produce      json
// @Param        type      query  string  false  "Exact event type"
// @Param        tag       query  string  false  "Exact tag name"
// @Param        active    query  bool    false  "Only events in progress now"
// @Param        from_date query  string  false  "Events starting at or after"
// @Param        to_date   query  string  false  "Events ending at or before"
// @Success      200  {array}   EventResponse
// @Failure      422  {object}  ValidationErrorResponse
// @Router       /events/ [get]
func (h *Handler) GetEvents(c *gin.Context) {
	filter, ok := parseEventFilter(c)
	if !ok {
		return
	}

	events, err := h.Events.List(c.Request.Context(), filter)
	if err != nil {
		h.respondStoreError(c, err, "Event")
		return
	}

	response := make([]EventResponse, 0, len(events))
	for _, event := range events {
		response = append(response, newEventResponse(event))
	}
	c.JSON(http.StatusOK, response)
}

func parseEventFilter(c *gin.Context) (store.EventFilter, bool) {
	filter := store.EventFilter{
		Type: c.Query("type"),
		Tag:  c.Query("tag"),
	}
	var errs []FieldError

	if s := c.Query("active"); s != "" {
		active, err := parseBool(s)
		if err != nil {
			errs = append(errs, FieldError{Field: "active", Message: "must be a boolean"})
		}
		filter.Active = active
	}
	if t, err := queryTime(c, "from_date"); err != nil {
		errs = append(errs, *err)
	} else {
		filter.FromDate = t
	}
	if t, err := queryTime(c, "to_date"); err != nil {
		errs = append(errs, *err)
	} else {
		filter.ToDate = t
	}

	if len(errs) > 0 {
		validationFailed(c, errs...)
		return store.EventFilter{}, false
	}
	return filter, true
}

// parseBool accepts the usual query-string spellings of a boolean, in any case.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// queryTime parses an optional timestamp query parameter.
func queryTime(c *gin.Context, name string) (*time.Time, *FieldError) {
	s := c.Query(name)
	if s == "" {
		return nil, nil
	}
	ts, err := ParseTimestamp(s)
	if err != nil {
		return nil, &FieldError{Field: name, Message: err.Error()}
	}
	return &ts.Time, nil
}

// GetEventByID godoc
// @Summary      Get a single event
// @Tags         events
// @Produce      json
// @Param        id path int true "Event ID"
// @Success      200 {object} EventResponse
// @Failure      404 {object} ErrorResponse "Event not found"
// @Router       /events/{id} [get]
func (h *Handler) GetEventByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	event, err := h.Events.Get(c.Request.Context(), id)
	if err != nil {
		h.respondStoreError(c, err, "Event")
		return
	}
	c.JSON(http.StatusOK, newEventResponse(event))
}

// UpdateEvent godoc
// @Summary      Update an event
// @Description  Applies only the fields present. tag_ids, when present, replaces the tag set.
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     APIKeyAuth
// @Param        id    path      int              true  "Event ID"
// @Param        input body      EventUpdateInput true  "Fields to change"
// @Success      200   {object}  EventResponse
// @Failure      403   {object}  ErrorResponse "Invalid API Key"
// @Failure      404   {object}  ErrorResponse "Event not found"
// @Failure      422   {object}  ValidationErrorResponse
// @Router       /events/{id} [put]
func (h *Handler) UpdateEvent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input EventUpdateInput
	if !bindJSON(c, &input) {
		return
	}

	event, err := h.Events.Update(c.Request.Context(), id, input.patch())
	if err != nil {
		h.respondStoreError(c, err, "Event")
		return
	}

	resp := newEventResponse(event)
	h.publish("event.updated", resp)
	c.JSON(http.StatusOK, resp)
}

// DeleteEvent godoc
// @Summary      Delete an event
// @Tags         events
// @Produce      json
// @Security     APIKeyAuth
// @Param        id path int true "Event ID"
// @Success      200 {object} DetailResponse
// @Failure      403 {object} ErrorResponse "Invalid API Key"
// @Failure      404 {object} ErrorResponse "Event not found"
// @Router       /events/{id} [delete]
func (h *Handler) DeleteEvent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.Events.Delete(c.Request.Context(), id); err != nil {
		h.respondStoreError(c, err, "Event")
		return
	}

	h.publish("event.deleted", gin.H{"id": id})
	c.JSON(http.StatusOK, DetailResponse{Detail: "deleted"})
}

// endregion

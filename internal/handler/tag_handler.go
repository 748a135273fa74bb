package handler

import (
	"net/http"

	"warcalendar/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// TagInput requires name to be present; an empty name is accepted.
type TagInput struct {
	Name *string `json:"name" binding:"required" swaggertype:"string" example:"Декаль"`
}

type TagResponse struct {
	ID   uint   `json:"id" example:"1"`
	Name string `json:"name" example:"Декаль"`
}

func newTagResponse(tag models.Tag) TagResponse {
	return TagResponse{
		ID:   tag.ID,
		Name: tag.Name,
	}
}

// CreateTag godoc
// @Summary      Create a new tag
// @Tags         tags
// @Accept       json
// @Produce      json
// @Security     APIKeyAuth
// @Param        input body TagInput true "Tag Info"
// @Success      201  {object}  TagResponse
// @Failure      403  {object}  ErrorResponse "Invalid API Key"
// @Failure      409  {object}  ErrorResponse "Tag already exists"
// @Failure      422  {object}  ValidationErrorResponse
// @Router       /tags/ [post]
func (h *Handler) CreateTag(c *gin.Context) {
	var input TagInput
	if !bindJSON(c, &input) {
		return
	}

	tag, err := h.Tags.Create(c.Request.Context(), *input.Name)
	if err != nil {
		h.respondStoreError(c, err, "Tag")
		return
	}

	resp := newTagResponse(tag)
	h.publish("tag.created", resp)
	c.JSON(http.StatusCreated, resp)
}

// GetTags godoc
// @Summary      Get all tags
// @Tags         tags
// @Produce      json
// @Success      200  {array}   TagResponse
// @Router       /tags/ [get]
func (h *Handler) GetTags(c *gin.Context) {
	tags, err := h.Tags.List(c.Request.Context())
	if err != nil {
		h.respondStoreError(c, err, "Tag")
		return
	}

	response := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		response = append(response, newTagResponse(tag))
	}
	c.JSON(http.StatusOK, response)
}

// UpdateTag godoc
// @Summary      Rename a tag
// @Tags         tags
// @Accept       json
// @Produce      json
// @Security     APIKeyAuth
// @Param        id   path      int      true  "Tag ID"
// @Param        input body TagInput true "New Tag Info"
// @Success      200  {object}  TagResponse
// @Failure      403  {object}  ErrorResponse "Invalid API Key"
// @Failure      404  {object}  ErrorResponse "Tag not found"
// @Failure      409  {object}  ErrorResponse "Tag already exists"
// @Failure      422  {object}  ValidationErrorResponse
// @Router       /tags/{id} [put]
func (h *Handler) UpdateTag(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input TagInput
	if !bindJSON(c, &input) {
		return
	}

	tag, err := h.Tags.Update(c.Request.Context(), id, *input.Name)
	if err != nil {
		h.respondStoreError(c, err, "Tag")
		return
	}

	resp := newTagResponse(tag)
	h.publish("tag.updated", resp)
	c.JSON(http.StatusOK, resp)
}

// DeleteTag godoc
// @Summary      Delete a tag
// @Description  Deletes a tag and detaches it from every event.
// @Tags         tags
// @Produce      json
// @Security     APIKeyAuth
// @Param        id   path      int  true  "Tag ID"
// @Success      200  {object}  DetailResponse
// @Failure      403  {object}  ErrorResponse "Invalid API Key"
// @Failure      404  {object}  ErrorResponse "Tag not found"
// @Router       /tags/{id} [delete]
func (h *Handler) DeleteTag(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.Tags.Delete(c.Request.Context(), id); err != nil {
		h.respondStoreError(c, err, "Tag")
		return
	}

	h.publish("tag.deleted", gin.H{"id": id})
	c.JSON(http.StatusOK, DetailResponse{Detail: "deleted"})
}

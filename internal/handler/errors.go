package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"warcalendar/backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Detail string `json:"detail" example:"Event not found"`
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field" example:"title"`
	Message string `json:"message" example:"is required"`
}

// ValidationErrorResponse is returned with 422 when a request does not match its schema.
type ValidationErrorResponse struct {
	Detail string       `json:"detail" example:"validation failed"`
	Errors []FieldError `json:"errors"`
}

// DetailResponse acknowledges a delete.
type DetailResponse struct {
	Detail string `json:"detail" example:"deleted"`
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator report fields by their json names.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

func validationFailed(c *gin.Context, errs ...FieldError) {
	c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{Detail: "validation failed", Errors: errs})
}

// bindJSON decodes the body into dst, answering 422 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &verrs):
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Message: validationMessage(fe)})
		}
		validationFailed(c, fields...)
	case errors.As(err, &typeErr):
		validationFailed(c, FieldError{Field: typeErr.Field, Message: typeMessage(typeErr)})
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		validationFailed(c, FieldError{Field: "body", Message: "malformed JSON"})
	case errors.Is(err, io.EOF):
		validationFailed(c, FieldError{Field: "body", Message: "request body is required"})
	default:
		validationFailed(c, FieldError{Field: "body", Message: err.Error()})
	}
	return false
}

func typeMessage(err *json.UnmarshalTypeError) string {
	if err.Type == timestampType {
		return "must be an ISO-8601 timestamp, e.g. 2023-01-01T00:00:00"
	}
	return "must be of type " + err.Type.String()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " long"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// parseID reads a positive integer path parameter, answering 422 otherwise.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		validationFailed(c, FieldError{Field: name, Message: "must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}

// respondStoreError maps store error kinds to HTTP statuses. entity names
// the resource in client-facing messages.
func (h *Handler) respondStoreError(c *gin.Context, err error, entity string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: entity + " not found"})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Detail: entity + " conflicts with an existing record"})
	default:
		h.Log.Error().Err(err).Str("path", c.FullPath()).Msg("storage failure")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Internal server error"})
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/payment"

	"github.com/gin-gonic/gin"
)

// envelope is the shape of every JSON response.
type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    interface{}         `json:"data,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type paged struct {
	Items      interface{} `json:"items"`
	Pagination pagination  `json:"pagination"`
}

func ok(c *gin.Context, status int, msg string, data interface{}) {
	c.JSON(status, envelope{Success: true, Message: msg, Data: data})
}

func okPage(c *gin.Context, items interface{}, p database.Page, total int64) {
	p = p.Normalize()
	ok(c, http.StatusOK, "", paged{
		Items:      items,
		Pagination: pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: p.TotalPages(total)},
	})
}

// fail maps a service error onto a status code. Unexpected errors are logged
// and replaced with a generic message.
func (h *Handler) fail(c *gin.Context, err error) {
	if ve, isValidation := apperr.AsValidation(err); isValidation {
		c.JSON(http.StatusBadRequest, envelope{Message: "Validation failed", Errors: ve.Fields})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrInvalidSignature),
		errors.Is(err, apperr.ErrInvalidTransition),
		errors.Is(err, apperr.ErrNotCancellable),
		errors.Is(err, apperr.ErrInsufficientStock):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrDuplicate):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrUnavailable), errors.Is(err, payment.ErrGatewayDisabled):
		status = http.StatusServiceUnavailable
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		_ = c.Error(err)
		msg = "Internal server error"
	}
	c.JSON(status, envelope{Message: msg})
}

// bind decodes a JSON body. Field rules are checked by the services.
func bind(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return bindError(err)
	}
	return nil
}

func bindError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return apperr.Invalid("body", "request body is required")
	case errors.As(err, &typeErr):
		return apperr.Invalid(typeErr.Field, "has the wrong type")
	case errors.As(err, &syntaxErr):
		return apperr.Invalid("body", "malformed JSON")
	default:
		return apperr.Invalid("body", err.Error())
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

func queryFloat(c *gin.Context, key string) float64 {
	f, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil {
		return 0
	}
	return f
}

func queryBool(c *gin.Context, key string) *bool {
	b, err := strconv.ParseBool(c.Query(key))
	if err != nil {
		return nil
	}
	return &b
}

func pageOf(c *gin.Context) database.Page {
	return database.Page{Page: queryInt(c, "page", 1), Limit: queryInt(c, "limit", database.DefaultPageSize)}
}

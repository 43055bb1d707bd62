package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yishak-cs/movierec/internal/database"
	"github.com/yishak-cs/movierec/internal/logger"
	"github.com/yishak-cs/movierec/internal/services"
)

// Error codes returned in the error envelope
const (
	CodeInvalidRequest = "invalid_request"
	CodeNotFound       = "not_found"
	CodeConflict       = "conflict"
	CodeScoringFailed  = "scoring_failed"
	CodeInternal       = "internal_error"
)

type APIError struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondValidation reports request validation failures field by field
func RespondValidation(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ErrorEnvelope{
		Error: APIError{
			Message: "validation failed",
			Code:    CodeInvalidRequest,
			Fields:  fields,
		},
	})
}

// respondServiceError maps store and pipeline errors onto HTTP statuses. Server-side
// failures are logged; their details are not echoed to the client.
func respondServiceError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		RespondError(c, http.StatusNotFound, CodeNotFound, err)
	case errors.Is(err, database.ErrInvalidRating):
		RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
	case errors.Is(err, database.ErrConflict):
		RespondError(c, http.StatusConflict, CodeConflict, database.ErrConflict)
	case errors.Is(err, services.ErrScoring):
		log.Error("Scoring failed", "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "error", err)
		RespondError(c, http.StatusInternalServerError, CodeScoringFailed, services.ErrScoring)
	default:
		log.Error("Request failed", "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "error", err)
		RespondError(c, http.StatusInternalServerError, CodeInternal, errors.New("internal server error"))
	}
}

// intParam parses a required integer path parameter
func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, CodeInvalidRequest, errors.New("invalid "+name))
		return 0, false
	}
	return v, true
}

// intQuery parses an optional integer query parameter
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, CodeInvalidRequest, errors.New("invalid "+name))
		return 0, false
	}
	return v, true
}

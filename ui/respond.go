package ui

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ncsresearch/internal/errors"
)

// envelope mirrors the backend's response contract for the web client
type envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorCode string      `json:"error_code,omitempty"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// respondErr maps application error codes onto HTTP statuses. Backend
// transport failures stay 502: the platform itself is fine, the statistics
// service is not.
func respondErr(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeInvalidInput, errors.CodeValidationError, errors.CodeInvalidTransition:
		status = http.StatusBadRequest
	case errors.CodeUnauthorized:
		status = http.StatusUnauthorized
	case errors.CodeBackendUnreachable, errors.CodeBackendUnhealthy, errors.CodeHTTPStatus:
		status = http.StatusBadGateway
	}
	c.JSON(status, envelope{Success: false, Error: err.Error(), ErrorCode: code})
}

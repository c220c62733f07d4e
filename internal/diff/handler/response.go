// Package handler provides HTTP handlers for diff endpoints.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// errorResponse sends an error response.
func errorResponse(c *gin.Context, code, message string, status int) {
	c.JSON(status, ErrorResponse{
		Error: struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}{
			Code:    code,
			Message: message,
		},
	})
}

// notFoundResponse sends a 404 error response.
func notFoundResponse(c *gin.Context, message string) {
	errorResponse(c, "DOES_NOT_EXIST", message, http.StatusNotFound)
}

// formErrorResponse sends a 400 with per-field validation messages.
func formErrorResponse(c *gin.Context, fields map[string][]string) {
	c.JSON(http.StatusBadRequest, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "INVALID_FORM_DATA",
			"message": "one or more fields had errors",
		},
		"fields": fields,
	})
}

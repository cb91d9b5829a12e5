package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Status values used in response envelopes. 4xx failures report "fail",
// 5xx report "error", everything else "success".
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Envelope is the platform's JSON response shape
type Envelope struct {
	Status  string      `json:"status"`
	Token   string      `json:"token,omitempty"`
	Results *int        `json:"results,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// StatusForCode maps an HTTP status code to an envelope status
func StatusForCode(code int) string {
	switch {
	case code >= 500:
		return StatusError
	case code >= 400:
		return StatusFail
	default:
		return StatusSuccess
	}
}

// OK writes a 200 envelope wrapping data
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{
		Status: StatusSuccess,
		Data:   data,
	})
}

// Created writes a 201 envelope wrapping data
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{
		Status: StatusSuccess,
		Data:   data,
	})
}

// NoContent writes an empty 204 response
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// List writes a 200 envelope carrying a collection and its total count
func List(c *gin.Context, data interface{}, total int) {
	c.JSON(http.StatusOK, Envelope{
		Status:  StatusSuccess,
		Results: &total,
		Data:    data,
	})
}

// WithToken writes an envelope carrying a session token alongside data
func WithToken(c *gin.Context, code int, token string, data interface{}) {
	c.JSON(code, Envelope{
		Status: StatusSuccess,
		Token:  token,
		Data:   data,
	})
}

// Message writes a 200 envelope carrying only a human-readable message
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Envelope{
		Status:  StatusSuccess,
		Message: msg,
	})
}

package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Envelope is the standardized API response body. Every endpoint, success or
// failure, returns this shape so clients parse one structure.
type Envelope struct {
	Data       interface{} `json:"data"`
	Error      *ErrorBody  `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Metadata   Metadata    `json:"metadata"`
}

// ErrorBody carries the machine code, the user-facing message and optional
// per-field validation details.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Pagination holds list paging information.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Metadata includes request tracing and timing.
type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

func write(c *gin.Context, statusCode int, env Envelope) {
	env.Metadata = metadataFor(c)
	c.JSON(statusCode, env)
}

// Success sends data with the given status code.
func Success(c *gin.Context, statusCode int, data interface{}) {
	write(c, statusCode, Envelope{Data: data})
}

// SuccessWithPagination sends data plus paging info.
func SuccessWithPagination(c *gin.Context, statusCode int, data interface{}, pagination *Pagination) {
	write(c, statusCode, Envelope{Data: data, Pagination: pagination})
}

// Fail sends an error response identified by code.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	write(c, statusCode, Envelope{Error: &ErrorBody{Code: code, Message: GetMessage(code)}})
}

// FailWithFields sends an error response with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	write(c, statusCode, Envelope{Error: &ErrorBody{Code: code, Message: GetMessage(code), Fields: fields}})
}

// AbortFail stops the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.Abort()
	Fail(c, statusCode, code)
}

func metadataFor(c *gin.Context) Metadata {
	id := c.GetString(ContextKeyRequestID)
	if id == "" {
		id = uuid.New().String() // Middleware not applied (tests).
	}
	return Metadata{
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

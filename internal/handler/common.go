package handler

import (
	"net/http"
	"strconv"

	"github.com/cbtarena/cbtarena-backend/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// parseUUIDParam extracts and validates a UUID path parameter. On failure it
// writes the error response and returns ok=false.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// parseIntParam extracts and validates an integer path parameter.
func parseIntParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return n, true
}

// queryInt reads an integer query parameter with a default.
func queryInt(c *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return n
}

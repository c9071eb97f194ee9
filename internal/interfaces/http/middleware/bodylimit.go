package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ordersuite/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects oversized requests up front when Content-Length is
// declared, and caps streaming bodies while they are read. Spreadsheets are
// never uploaded through the API, so request bodies stay small.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				c.GetString("request_id"),
			))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

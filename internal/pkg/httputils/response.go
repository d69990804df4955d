// Package httputils provides HTTP utility functions.
package httputils

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/coursemind/internal/pkg/middleware"
	"github.com/kart-io/coursemind/pkg/errors"
	"github.com/kart-io/coursemind/pkg/utils/response"
)

// WriteResponse writes the response to the client.
// Any error becomes an Errno envelope with its mapped HTTP status.
func WriteResponse(c *gin.Context, err error, data any) {
	requestID := middleware.GetRequestID(c)
	if err != nil {
		resp := response.Err(errors.FromError(err), Lang(c)).WithRequestID(requestID)
		c.JSON(resp.HTTPStatus(), resp)
		return
	}

	resp := response.Success(data).WithRequestID(requestID)
	c.JSON(resp.HTTPStatus(), resp)
}

// Lang picks the message language from Accept-Language.
func Lang(c *gin.Context) string {
	al := c.GetHeader("Accept-Language")
	if len(al) >= 2 && al[:2] == "zh" {
		return "zh"
	}
	return "en"
}

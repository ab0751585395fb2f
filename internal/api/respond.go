package api

import (
	"github.com/gin-gonic/gin"

	"github.com/haimn/showerparty/internal/errors"
)

// response is the envelope every endpoint answers with. Result is either
// "success" or "error"; Score only appears on quiz submissions.
type response struct {
	Result  string `json:"result"`
	Message string `json:"message,omitempty"`
	Score   *int   `json:"score,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func success(c *gin.Context, status int, message string, data any) {
	c.JSON(status, response{Result: "success", Message: message, Data: data})
}

func fail(c *gin.Context, err error) {
	e := errors.Convert(err)

	msg := e.Message
	if e.Code == errors.CodeInternal {
		// Never leak backend details to party guests.
		msg = "something went wrong, please try again"
	}

	c.JSON(e.HTTPStatusCode(), response{Result: "error", Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	fail(c, errors.InvalidArgumentf("%s", msg))
}

package httperr

import (
	"github.com/gin-gonic/gin"
)

// RequestIDKey is where the logging middleware leaves the request id.
const RequestIDKey = "request_id"

type ErrorBody struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Response struct {
	Status int       `json:"-"`
	Error  ErrorBody `json:"error"`
	Detail any       `json:"detail,omitempty"`
}

// Problem describes a failed request as the client should see it.
// Code is a stable machine-readable name; Message is for humans.
type Problem struct {
	Status  int
	Code    string
	Message string
	Detail  any
}

// Abort records err on the gin context for the error middleware and writes
// the envelope. The wrapped err never reaches the client.
func Abort(c *gin.Context, err error, p Problem) {
	if err == nil {
		panic("httperr.Abort: err cannot be nil")
	}

	resp := Response{
		Status: p.Status,
		Error: ErrorBody{
			Message:   p.Message,
			Code:      p.Code,
			RequestID: RequestID(c),
		},
		Detail: p.Detail,
	}

	_ = c.Error(&gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(p.Status, resp)
}

// AbortWithError is Abort without a code.
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	Abort(c, err, Problem{Status: status, Message: msg, Detail: detail})
}

func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

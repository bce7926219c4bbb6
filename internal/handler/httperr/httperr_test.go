//go:build unit

package httperr_test

import (
	"net/http"
	nethttptest "net/http/httptest"
	"testing"

	"checkout-core/internal/handler/httperr"
	"checkout-core/internal/pkg/errs"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbort_RecordsPublicError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := nethttptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = nethttptest.NewRequest(http.MethodGet, "/api/orders/x", nil)
	c.Set(httperr.RequestIDKey, "req-7")

	cause := errs.Wrap(errs.ErrOrderNotFound, "find order")
	httperr.Abort(c, cause, httperr.Problem{
		Status:  http.StatusNotFound,
		Code:    "order_not_found",
		Message: "Order not found",
	})

	require.Len(t, c.Errors, 1)
	recorded := c.Errors.Last()
	assert.True(t, recorded.IsType(gin.ErrorTypePublic))
	assert.True(t, errs.Is(recorded.Err, errs.ErrOrderNotFound))

	resp, ok := recorded.Meta.(httperr.Response)
	require.True(t, ok, "meta must carry the envelope")
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "order_not_found", resp.Error.Code)
	assert.Equal(t, "req-7", resp.Error.RequestID)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAbort_NilErrorPanics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(nethttptest.NewRecorder())

	assert.Panics(t, func() {
		httperr.Abort(c, nil, httperr.Problem{Status: http.StatusInternalServerError})
	})
}

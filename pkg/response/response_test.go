package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/pizzashop/pkg/errorx"
	"github.com/wyfcoding/pizzashop/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorBody) {
	t.Helper()
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), "req-42"))
		Error(c, err)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestErrorRendersBusinessError(t *testing.T) {
	rec, body := serve(t, errorx.InvalidState("cart is empty"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errorx.CodeInvalidState, body.Code)
	assert.Equal(t, "cart is empty", body.Error)
	assert.Equal(t, http.StatusBadRequest, body.StatusCode)
	assert.Equal(t, "req-42", body.RequestID)
	assert.False(t, body.Timestamp.IsZero())
}

func TestErrorHidesInternalDetails(t *testing.T) {
	rec, body := serve(t, errors.New("dial tcp 10.0.0.1:3306: refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, errorx.CodeInternal, body.Code)
	assert.Equal(t, "internal server error", body.Error)
}

func TestForbidden(t *testing.T) {
	rec, body := serve(t, errorx.Forbidden("order belongs to another user"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, errorx.CodeForbidden, body.Code)
}

package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/salesledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	newRouter := func(limit int64) *gin.Engine {
		router := gin.New()
		router.Use(RequestID(), BodyLimit(limit))
		router.POST("/sales", func(c *gin.Context) {
			if _, err := io.ReadAll(c.Request.Body); err != nil {
				c.String(http.StatusBadRequest, "body too large")
				return
			}
			c.String(http.StatusOK, "ok")
		})
		return router
	}

	t.Run("allows body within limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(`{"lines":[]}`))
		assert.Equal(t, http.StatusOK, serve(newRouter(1024), req).Code)
	})

	t.Run("rejects declared length over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(strings.Repeat("x", 200)))
		req.ContentLength = 200
		rec := serve(newRouter(100), req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		info := decodeError(t, rec)
		assert.Equal(t, dto.CodeRequestTooLarge, info.Code)
		assert.NotEmpty(t, info.RequestID)
	})

	t.Run("caps streaming body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(strings.Repeat("x", 100)))
		req.ContentLength = -1
		assert.Equal(t, http.StatusBadRequest, serve(newRouter(50), req).Code)
	})
}

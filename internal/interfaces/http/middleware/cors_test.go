package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/salesledger/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCORS_EmptyWhitelist(t *testing.T) {
	router := gin.New()
	router.Use(CORS())
	router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "http://elsewhere.example")
	rec := serve(router, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	preflight := httptest.NewRequest(http.MethodOptions, "/test", nil)
	preflight.Header.Set("Origin", "http://elsewhere.example")
	rec = serve(router, preflight)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWithConfig(t *testing.T) {
	cors := CORSConfigFrom(config.HTTPConfig{
		CORSAllowOrigins: []string{"http://till.example"},
		CORSAllowMethods: []string{"GET", "POST"},
	})

	router := gin.New()
	router.Use(CORSWithConfig(cors))
	router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "http://till.example")
		rec := serve(router, req)
		assert.Equal(t, "http://till.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
		assert.Equal(t, "43200", rec.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "http://other.example")
		rec := serve(router, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/test", nil)
		req.Header.Set("Origin", "http://till.example")
		rec := serve(router, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://till.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard omits credentials", func(t *testing.T) {
		r := gin.New()
		r.Use(CORSWithConfig(CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true}))
		r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "http://any.example")
		rec := serve(r, req)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
	})
}

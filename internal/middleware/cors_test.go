package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/playrummy/backend/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func wsRouter(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.GET("/ws", WebSocketCORSCheck(cfg), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestWebSocketCORSCheck(t *testing.T) {
	dev := &config.Config{Environment: "development"}
	prod := &config.Config{Environment: "production", FrontendURL: "https://rummy.example.com"}

	tests := []struct {
		name   string
		cfg    *config.Config
		origin string
		code   int
	}{
		{"no origin", prod, "", http.StatusNoContent},
		{"frontend", prod, "https://rummy.example.com", http.StatusNoContent},
		{"foreign", prod, "https://evil.example.com", http.StatusForbidden},
		{"dev other port", dev, "http://localhost:3000", http.StatusNoContent},
		{"dev foreign", dev, "https://rummy.example.com", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			req.Header.Set("Connection", "Upgrade")
			req.Header.Set("Upgrade", "websocket")
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			wsRouter(tt.cfg).ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestWebSocketCORSCheckIgnoresPlainRequests(t *testing.T) {
	prod := &config.Config{Environment: "production", FrontendURL: "https://rummy.example.com"}
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	wsRouter(prod).ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCORSMiddlewarePreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware(&config.Config{Environment: "development"}, nil))
	r.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

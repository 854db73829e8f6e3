package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMiddleware_CountsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/items", func(c *gin.Context) { c.Status(http.StatusUnprocessableEntity) })

	for _, path := range []string{"/items/1", "/items/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/items", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	body := scrape(t, m)
	assert.Contains(t, body, `contest_http_requests_total{method="GET",route="/items/:id",status="200"} 2`,
		"Путь с параметром считается по шаблону")
	assert.Contains(t, body, `contest_http_requests_total{method="POST",route="/items",status="422"} 1`)
	assert.Contains(t, body, `contest_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
	assert.Contains(t, body, `contest_http_request_duration_seconds_count{method="GET",route="/items/:id"} 2`)
	assert.Contains(t, body, "contest_http_requests_in_flight 0")
	assert.Contains(t, body, "go_goroutines")
}

func TestGaugeFunc_ReadsOnScrape(t *testing.T) {
	m := New()
	value := 3.0
	m.GaugeFunc("ws_connections", "Open websocket connections.", func() float64 { return value })

	assert.Contains(t, scrape(t, m), "contest_ws_connections 3")
	value = 5
	assert.Contains(t, scrape(t, m), "contest_ws_connections 5")
}

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_GinMiddlewareUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.GinMiddleware("/metrics"))
	r.GET("/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, id := range []string{"a", "b", "c"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/products/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bidhouse_http_requests_total")
	assert.NotContains(t, w.Body.String(), `route="/metrics"`)
}

func TestMetrics_DomainCounters(t *testing.T) {
	m := New()

	m.BidPlaced(120)
	m.BidPlaced(130)
	m.BidRejected("BID_TOO_LOW")
	m.BidRejected("")
	m.BidRetried()
	m.Outbid()
	m.AuctionClosed("sold")
	m.UserRegistered("buyer")
	m.ObserveJob("auction-closer", 0, nil)
	m.ObserveJob("auction-closer", time.Second, errors.New("timeout"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bidsPlaced))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bidsRejected.WithLabelValues("BID_TOO_LOW")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bidsRejected.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bidRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outbids))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.auctionsClosed.WithLabelValues("sold")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.usersRegistered.WithLabelValues("buyer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("auction-closer", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("auction-closer", "false")))
}

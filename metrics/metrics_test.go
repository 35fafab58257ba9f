package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCounterVec(t *testing.T) {
	testCases := []struct {
		subsystem  string
		name       string
		help       string
		labelNames []string
	}{
		{
			subsystem:  "subsys1",
			name:       "counter1",
			help:       "help1",
			labelNames: []string{"action", "status_code", "status"},
		},
		{
			subsystem:  "subsys2",
			name:       "counter2",
			help:       "help2",
			labelNames: []string{"method", "status"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			counterVec := newCounterVec(tc.subsystem, tc.name, tc.help, tc.labelNames...)

			assert.NotNil(t, counterVec)
			assert.IsType(t, &prometheus.CounterVec{}, counterVec)

			labels := make([]string, len(tc.labelNames))
			assert.NotPanics(t, func() { counterVec.WithLabelValues(labels...) })
		})
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Middleware())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(Handler()))

	ok := Requests.WithLabelValues("/ok", "200")
	missing := Requests.WithLabelValues("unmatched", "404")
	before, beforeMissing := counterValue(t, ok), counterValue(t, missing)

	for range 3 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, before+3, counterValue(t, ok))
	assert.Equal(t, beforeMissing+1, counterValue(t, missing))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `subword_http_requests_total{route="/ok",status_code="200"}`))
	assert.Contains(t, string(body), "subword_train_merges_total")
	assert.Contains(t, string(body), "subword_segment_words_total")
}

// Package metrics exposes Prometheus counters for the subword server.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "subword"

var (
	Registry = prometheus.NewRegistry()

	Requests = newCounterVec("http", "requests_total", "HTTP requests by route and status code.", "route", "status_code")

	MergesLearned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "train",
		Name:      "merges_total",
		Help:      "Merges learned by training requests.",
	})

	WordsSegmented = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "segment",
		Name:      "words_total",
		Help:      "Words segmented by segment requests.",
	})
)

func init() {
	Registry.MustRegister(Requests, MergesLearned, WordsSegmented)
}

func newCounterVec(subsystem, name, help string, labelNames ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labelNames)
}

// Middleware counts every request once its handler has finished.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		Requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

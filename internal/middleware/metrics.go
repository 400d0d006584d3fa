package middleware

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

type MetricsMiddleware struct {
	set              *metrics.Set
	requestCounter   *metrics.Counter
	responseTimeHist *metrics.Histogram
	responseSizeHist *metrics.Histogram
}

func NewMetricsMiddleware() *MetricsMiddleware {
	set := metrics.NewSet()
	return &MetricsMiddleware{
		set:              set,
		requestCounter:   set.NewCounter("http_requests_total"),
		responseTimeHist: set.NewHistogram("http_response_time_seconds"),
		responseSizeHist: set.NewHistogram("http_response_size_bytes"),
	}
}

func (m *MetricsMiddleware) WithMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := newLoggingResponseWriter(w)

		m.requestCounter.Inc()
		next.ServeHTTP(lrw, r)

		m.responseTimeHist.UpdateDuration(start)
		m.responseSizeHist.Update(float64(lrw.length))
		m.set.GetOrCreateCounter(fmt.Sprintf(`http_response_status_total{code="%d"}`, lrw.statusCode)).Inc()
	})
}

// WritePrometheus writes the request metrics collected so far.
func (m *MetricsMiddleware) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}

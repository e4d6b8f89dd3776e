package statussrv

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var requestTimes = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Help:      "Status API request handling time",
		Name:      "status_request_duration_seconds",
		Namespace: "blackswan",
	},
	[]string{"method", "code"},
)

func init() {
	prometheus.MustRegister(requestTimes)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func instrument(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h.ServeHTTP(rec, r)
		requestTimes.WithLabelValues(r.Method, strconv.Itoa(rec.code)).Observe(time.Since(start).Seconds())
	})
}

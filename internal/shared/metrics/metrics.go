package metrics

import (
	"bytes"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

var (
	gradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grader",
		Subsystem: "run",
		Name:      "graded_total",
		Help:      "Submissions graded successfully.",
	})

	failedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grader",
		Subsystem: "run",
		Name:      "failed_total",
		Help:      "Submissions that ended in a grading failure.",
	})

	attemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grader",
		Subsystem: "run",
		Name:      "attempts_total",
		Help:      "Model grading attempts issued, retries included.",
	})

	gradeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "grader",
		Subsystem: "run",
		Name:      "grade_duration_seconds",
		Help:      "Wall time from extraction start to terminal outcome per submission.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})
)

// IncGraded increments the success counter.
func IncGraded() { gradedTotal.Inc() }

// IncFailed increments the failure counter.
func IncFailed() { failedTotal.Inc() }

// IncAttempt counts one model request, including retries.
func IncAttempt() { attemptsTotal.Inc() }

// ObserveGradeDuration records how long one submission took to settle.
func ObserveGradeDuration(d time.Duration) { gradeDuration.Observe(d.Seconds()) }

// Render gathers the default registry and encodes it in Prometheus text
// exposition format. There is no scrape endpoint in a single-shot CLI run,
// so the collaborator prints this after the run instead.
func Render() (string, error) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

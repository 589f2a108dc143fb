package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	kreaiteStudio = "kreaite_studio"

	// Job queue metrics
	jobsCreatedTotal   = "jobs_created_total"
	jobsStatusCount    = "jobs_status_count"
	jobDurationSeconds = "job_duration_seconds"

	// Labels
	jobTypeLabel   = "type"
	jobStatusLabel = "status"
)

/**
* Metrics definition
**/
var jobsCreatedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: kreaiteStudio,
		Name:      jobsCreatedTotal,
		Help:      "number of jobs created partitioned by job type",
	},
	[]string{jobTypeLabel},
)

var jobsStatusCountMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: kreaiteStudio,
		Name:      jobsStatusCount,
		Help:      "number of jobs currently in each status",
	},
	[]string{jobStatusLabel},
)

var jobDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: kreaiteStudio,
		Name:      jobDurationSeconds,
		Help:      "time from job start to terminal status partitioned by type and outcome",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	},
	[]string{jobTypeLabel, jobStatusLabel},
)

func IncreaseJobsCreatedTotalMetric(jobType string) {
	jobsCreatedTotalMetric.With(prometheus.Labels{jobTypeLabel: jobType}).Inc()
}

func UpdateJobsStatusCountMetric(status string, count int) {
	jobsStatusCountMetric.With(prometheus.Labels{jobStatusLabel: status}).Set(float64(count))
}

func ObserveJobDurationMetric(jobType, status string, seconds float64) {
	jobDurationMetric.With(prometheus.Labels{jobTypeLabel: jobType, jobStatusLabel: status}).Observe(seconds)
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsCreatedTotalMetric)
	prometheus.MustRegister(jobsStatusCountMetric)
	prometheus.MustRegister(jobDurationMetric)
}

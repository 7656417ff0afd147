// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	CreditAssessments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_assessments_total",
			Help: "Credit assessments produced, by profile, risk tier and verdict",
		},
		[]string{"profile", "risk_tier", "verdict"},
	)

	CreditScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "credit_score",
			Help:    "Distribution of credit scores per profile",
			Buckets: prometheus.LinearBuckets(100, 50, 17),
		},
		[]string{"profile"},
	)

	CreditAssessmentUnavailable = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_assessment_unavailable_total",
			Help: "Assessments not produced because a data source failed",
		},
		[]string{"source"},
	)

	CreditDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_decisions_total",
			Help: "Officer decisions committed, by resulting status",
		},
		[]string{"status"},
	)
)

// ObserveAssessment records one assessment. verdict is "eligible" or
// "not_eligible" for self-assessments and the recommendation for underwriting.
func ObserveAssessment(profile, riskTier, verdict string, score int) {
	CreditAssessments.WithLabelValues(profile, riskTier, verdict).Inc()
	CreditScore.WithLabelValues(profile).Observe(float64(score))
}

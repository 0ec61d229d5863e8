package prometheus

import "time"

// Outcome labels for compounds_resolved_total.
const (
	OutcomeResolved   = "resolved"
	OutcomeUnresolved = "unresolved"
	OutcomeDuplicate  = "duplicate"
)

// PipelineMetrics holds every metric a screening run records.
type PipelineMetrics struct {
	ProviderRequestsTotal   CounterVec
	ProviderRequestDuration HistogramVec
	CompoundsResolvedTotal  CounterVec
	RuleEvaluationsTotal    CounterVec
	CompoundsApproved       GaugeVec
	ExportFilesTotal        CounterVec
	RunDuration             HistogramVec

	collector MetricsCollector
}

// NewPipelineMetrics registers the pipeline metrics on c.
func NewPipelineMetrics(c MetricsCollector) *PipelineMetrics {
	return &PipelineMetrics{
		ProviderRequestsTotal: c.RegisterCounter("provider_requests_total",
			"PUG-REST requests by operation and HTTP status.", "operation", "status"),
		ProviderRequestDuration: c.RegisterHistogram("provider_request_duration_seconds",
			"PUG-REST request latency.", nil, "operation"),
		CompoundsResolvedTotal: c.RegisterCounter("compounds_resolved_total",
			"Input names by resolution outcome.", "outcome"),
		RuleEvaluationsTotal: c.RegisterCounter("rule_evaluations_total",
			"Rule evaluations by rule.", "rule"),
		CompoundsApproved: c.RegisterGauge("compounds_approved",
			"Compounds approved by rule in the last evaluation.", "rule"),
		ExportFilesTotal: c.RegisterCounter("export_files_total",
			"Report files written.", "report"),
		RunDuration: c.RegisterHistogram("run_duration_seconds",
			"Screening run duration by stage and status.",
			[]float64{1, 5, 15, 30, 60, 120, 300, 600}, "stage", "status"),
		collector: c,
	}
}

// ObserveRequest records one provider request. status is the HTTP status
// code, or "error" when no response arrived.
func (m *PipelineMetrics) ObserveRequest(operation, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequestsTotal.WithLabelValues(operation, status).Inc()
	m.ProviderRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordResolution counts the outcome of a collection pass.
func (m *PipelineMetrics) RecordResolution(resolved, unresolved, duplicates int) {
	if m == nil {
		return
	}
	m.CompoundsResolvedTotal.WithLabelValues(OutcomeResolved).Add(float64(resolved))
	m.CompoundsResolvedTotal.WithLabelValues(OutcomeUnresolved).Add(float64(unresolved))
	m.CompoundsResolvedTotal.WithLabelValues(OutcomeDuplicate).Add(float64(duplicates))
}

// RecordRuleEvaluation counts one evaluation of rule and sets how many
// compounds it approved.
func (m *PipelineMetrics) RecordRuleEvaluation(rule string, approved int) {
	if m == nil {
		return
	}
	m.RuleEvaluationsTotal.WithLabelValues(rule).Inc()
	m.CompoundsApproved.WithLabelValues(rule).Set(float64(approved))
}

// RecordExport counts one written report.
func (m *PipelineMetrics) RecordExport(report string) {
	if m == nil {
		return
	}
	m.ExportFilesTotal.WithLabelValues(report).Inc()
}

// RecordRun observes the duration of a pipeline stage.
func (m *PipelineMetrics) RecordRun(stage string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.RunDuration.WithLabelValues(stage, status).Observe(elapsed.Seconds())
}

// WriteTextfile flushes every registered metric to path.
func (m *PipelineMetrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return m.collector.WriteTextfile(path)
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for Leadboard
type Metrics struct {
	// API metrics
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec
	APIErrorsTotal            *prometheus.CounterVec

	// Campaign dispatch metrics
	DispatchesTotal   *prometheus.CounterVec
	CampaignLeadsSent prometheus.Counter
	CSVRowsParsed     *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadboard_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadboard_api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		APIErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadboard_api_errors_total",
				Help: "Total number of API errors",
			},
			[]string{"error_type"},
		),

		DispatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadboard_webhook_dispatches_total",
				Help: "Total number of campaign webhook dispatches",
			},
			[]string{"kind", "outcome"},
		),
		CampaignLeadsSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "leadboard_campaign_leads_sent_total",
				Help: "Total number of leads handed to campaign webhooks",
			},
		),
		CSVRowsParsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadboard_csv_rows_parsed_total",
				Help: "Total number of CSV lead rows parsed",
			},
			[]string{"result"},
		),

		registry: reg,
	}

	reg.MustRegister(
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		m.APIErrorsTotal,
		m.DispatchesTotal,
		m.CampaignLeadsSent,
		m.CSVRowsParsed,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler serving the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncDispatch increments the dispatch counter for a kind/outcome pair
func (m *Metrics) IncDispatch(kind, outcome string) {
	if m != nil {
		m.DispatchesTotal.WithLabelValues(kind, outcome).Inc()
	}
}

// AddLeadsSent adds n to the leads-sent counter
func (m *Metrics) AddLeadsSent(n int) {
	if m != nil {
		m.CampaignLeadsSent.Add(float64(n))
	}
}

// IncCSVRows adds counts of accepted and rejected CSV rows
func (m *Metrics) IncCSVRows(accepted, rejected int) {
	if m != nil {
		m.CSVRowsParsed.WithLabelValues("accepted").Add(float64(accepted))
		m.CSVRowsParsed.WithLabelValues("rejected").Add(float64(rejected))
	}
}

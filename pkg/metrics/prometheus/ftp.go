package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dittoftp/pkg/metrics"
)

// ftpMetrics is the Prometheus implementation of metrics.FTPMetrics.
type ftpMetrics struct {
	commandsTotal         *prometheus.CounterVec
	commandDuration       *prometheus.HistogramVec
	transfersTotal        *prometheus.CounterVec
	transferBytes         *prometheus.CounterVec
	transferDuration      *prometheus.HistogramVec
	transferSize          *prometheus.HistogramVec
	loginsTotal           *prometheus.CounterVec
	capacityRejections    prometheus.Counter
	activeSessions        prometheus.Gauge
	activeDataConnections prometheus.Gauge
	connectionsAccepted   prometheus.Counter
	connectionsClosed     prometheus.Counter
	connectionsForced     prometheus.Counter
}

// NewFTPMetrics creates a new Prometheus-backed FTPMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewFTPMetrics() metrics.FTPMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &ftpMetrics{
		commandsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoftp_ftp_commands_total",
				Help: "Total number of FTP commands by verb and reply code",
			},
			[]string{"verb", "code"},
		),
		commandDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittoftp_ftp_command_duration_milliseconds",
				Help: "Duration of FTP command dispatch in milliseconds",
				Buckets: []float64{
					1,    // 1ms - navigation and bookkeeping
					5,    // 5ms
					10,   // 10ms
					50,   // 50ms - bcrypt login sits here and above
					100,  // 100ms
					500,  // 500ms
					1000, // 1s
					5000, // 5s - active-mode dials against dead peers
				},
			},
			[]string{"verb"},
		),
		transfersTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoftp_ftp_transfers_total",
				Help: "Total number of completed data transfers by direction",
			},
			[]string{"direction"},
		),
		transferBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoftp_ftp_transfer_bytes_total",
				Help: "Total payload bytes moved over data connections",
			},
			[]string{"direction"},
		),
		transferDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittoftp_ftp_transfer_duration_milliseconds",
				Help: "Duration of data transfers in milliseconds",
				Buckets: []float64{
					10,    // 10ms - directory listings
					50,    // 50ms
					100,   // 100ms
					500,   // 500ms
					1000,  // 1s
					5000,  // 5s
					10000, // 10s
					30000, // 30s - large files on slow links
				},
			},
			[]string{"direction"},
		),
		transferSize: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittoftp_ftp_transfer_size_bytes",
				Help: "Distribution of payload bytes per transfer",
				Buckets: []float64{
					1024,      // 1KB
					65536,     // 64KB
					1048576,   // 1MB
					10485760,  // 10MB
					104857600, // 100MB
				},
			},
			[]string{"direction"},
		),
		loginsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoftp_ftp_logins_total",
				Help: "Total number of PASS exchanges by outcome",
			},
			[]string{"outcome"},
		),
		capacityRejections: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittoftp_ftp_capacity_rejections_total",
				Help: "Total number of connections turned away at the session capacity gate",
			},
		),
		activeSessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittoftp_ftp_active_sessions",
				Help: "Current number of admitted control sessions",
			},
		),
		activeDataConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittoftp_ftp_active_data_connections",
				Help: "Current number of open data connections and passive listeners",
			},
		),
		connectionsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittoftp_ftp_connections_accepted_total",
				Help: "Total number of control connections accepted",
			},
		),
		connectionsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittoftp_ftp_connections_closed_total",
				Help: "Total number of control connections closed",
			},
		),
		connectionsForced: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittoftp_ftp_connections_force_closed_total",
				Help: "Total number of control connections force-closed by the admin API or shutdown",
			},
		),
	}
}

func (m *ftpMetrics) RecordCommand(verb string, code uint16, duration time.Duration) {
	if m == nil {
		return
	}

	m.commandsTotal.WithLabelValues(verb, strconv.Itoa(int(code))).Inc()
	m.commandDuration.WithLabelValues(verb).Observe(duration.Seconds() * 1000)
}

func (m *ftpMetrics) RecordTransfer(kind string, bytes uint64, duration time.Duration) {
	if m == nil {
		return
	}

	m.transfersTotal.WithLabelValues(kind).Inc()
	m.transferBytes.WithLabelValues(kind).Add(float64(bytes))
	m.transferDuration.WithLabelValues(kind).Observe(duration.Seconds() * 1000)
	m.transferSize.WithLabelValues(kind).Observe(float64(bytes))
}

func (m *ftpMetrics) RecordLogin(success bool) {
	if m == nil {
		return
	}

	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.loginsTotal.WithLabelValues(outcome).Inc()
}

func (m *ftpMetrics) RecordCapacityRejection() {
	if m == nil {
		return
	}
	m.capacityRejections.Inc()
}

func (m *ftpMetrics) SetActiveSessions(count int32) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(count))
}

func (m *ftpMetrics) SetActiveConnections(count int32) {
	if m == nil {
		return
	}
	m.activeDataConnections.Set(float64(count))
}

func (m *ftpMetrics) RecordConnectionAccepted() {
	if m == nil {
		return
	}
	m.connectionsAccepted.Inc()
}

func (m *ftpMetrics) RecordConnectionClosed() {
	if m == nil {
		return
	}
	m.connectionsClosed.Inc()
}

func (m *ftpMetrics) RecordConnectionForceClosed() {
	if m == nil {
		return
	}
	m.connectionsForced.Inc()
}

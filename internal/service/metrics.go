package service

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Ingestion sources.
const (
	SourceUpload = "upload"
	SourceURL    = "url"
)

// Metrics counts ingestions and deliveries. A nil *Metrics records nothing.
type Metrics struct {
	ingestions    *prometheus.CounterVec
	ingestedBytes *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
}

// NewMetrics registers the media collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ingestions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "media_ingestions_total",
				Help: "Media ingestions by source, kind and result.",
			},
			[]string{"source", "kind", "result"},
		),
		ingestedBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "media_ingested_bytes_total",
				Help: "Bytes committed to the content store.",
			},
			[]string{"source", "kind"},
		),
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "media_deliveries_total",
				Help: "Media responses by kind and status.",
			},
			[]string{"kind", "status"},
		),
	}
	for _, c := range []prometheus.Collector{m.ingestions, m.ingestedBytes, m.deliveries} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ingested(source, kind string, size int64) {
	if m == nil {
		return
	}
	m.ingestions.WithLabelValues(source, kind, "ok").Inc()
	m.ingestedBytes.WithLabelValues(source, kind).Add(float64(size))
}

func (m *Metrics) failed(source, kind string) {
	if m == nil {
		return
	}
	m.ingestions.WithLabelValues(source, kind, "error").Inc()
}

func (m *Metrics) delivered(kind string, status int) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(kind, strconv.Itoa(status)).Inc()
}

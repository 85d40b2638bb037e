package lod

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const layerLabel = "layer"

var (
	nodesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lod_nodes_created_total",
		Help: "Models uploaded to the GPU.",
	}, []string{layerLabel})

	nodesDisposed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lod_nodes_disposed_total",
		Help: "Models released from the GPU.",
	}, []string{layerLabel})

	nodesResident = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lod_nodes_resident",
		Help: "Records holding a GPU model after the last frame.",
	}, []string{layerLabel})

	nodesPending = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lod_nodes_pending",
		Help: "Wanted records still waiting for their GPU model.",
	}, []string{layerLabel})

	nodesDrawn = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lod_nodes_drawn",
		Help: "Records drawn in the last frame.",
	}, []string{layerLabel})

	drawRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lod_draw_records",
		Help: "Live draw records.",
	}, []string{layerLabel})

	frameDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lod_frame_duration_seconds",
		Help:    "Time spent in the residency passes and draw calls.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	}, []string{layerLabel})
)

type rendererMetrics struct {
	layer    string
	created  prometheus.Counter
	disposed prometheus.Counter
	resident prometheus.Gauge
	pending  prometheus.Gauge
	drawn    prometheus.Gauge
	records  prometheus.Gauge
	duration prometheus.Observer
}

func newRendererMetrics(layer string) *rendererMetrics {
	labels := prometheus.Labels{layerLabel: layer}
	return &rendererMetrics{
		layer:    layer,
		created:  nodesCreated.With(labels),
		disposed: nodesDisposed.With(labels),
		resident: nodesResident.With(labels),
		pending:  nodesPending.With(labels),
		drawn:    nodesDrawn.With(labels),
		records:  drawRecords.With(labels),
		duration: frameDuration.With(labels),
	}
}

// unregister removes the layer's series from every vector.
func (m *rendererMetrics) unregister() {
	nodesCreated.DeleteLabelValues(m.layer)
	nodesDisposed.DeleteLabelValues(m.layer)
	nodesResident.DeleteLabelValues(m.layer)
	nodesPending.DeleteLabelValues(m.layer)
	nodesDrawn.DeleteLabelValues(m.layer)
	drawRecords.DeleteLabelValues(m.layer)
	frameDuration.DeleteLabelValues(m.layer)
}

func (m *rendererMetrics) observe(s FrameStats, d time.Duration) {
	m.created.Add(float64(s.Created))
	m.disposed.Add(float64(s.Disposed))
	m.resident.Set(float64(s.Resident))
	m.pending.Set(float64(s.Pending))
	m.drawn.Set(float64(s.Drawn))
	m.records.Set(float64(s.Records))
	m.duration.Observe(d.Seconds())
}

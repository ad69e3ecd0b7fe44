package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the prometheus instruments. A nil *Collector is
// valid and records nothing, which keeps tests away from the global
// registry.
type Collector struct {
	eventsTotal     *prometheus.CounterVec
	reconnectsTotal prometheus.Counter
	framesTotal     prometheus.Counter
	participants    prometheus.Gauge
	cameras         prometheus.Gauge
	httpRequests    *prometheus.CounterVec
}

// NewCollector registers the instruments with the default registry.
// Call it once per process.
func NewCollector() *Collector {
	return &Collector{
		eventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "groupcam_conference_events_total",
			Help: "Conference events received, by type",
		}, []string{"type"}),
		reconnectsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "groupcam_reconnects_total",
			Help: "Reconnect attempts after a lost connection",
		}),
		framesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "groupcam_frames_composited_total",
			Help: "Frames composited and written to output devices",
		}),
		participants: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "groupcam_participants",
			Help: "Channel participants currently tracked",
		}),
		cameras: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "groupcam_cameras",
			Help: "Cameras currently running",
		}),
		httpRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "groupcam_http_requests_total",
			Help: "Management API requests, by method, path and status",
		}, []string{"method", "path", "status"}),
	}
}

func (c *Collector) EventReceived(eventType string) {
	if c == nil {
		return
	}
	c.eventsTotal.WithLabelValues(eventType).Inc()
}

func (c *Collector) ReconnectAttempted() {
	if c == nil {
		return
	}
	c.reconnectsTotal.Inc()
}

func (c *Collector) FrameComposited() {
	if c == nil {
		return
	}
	c.framesTotal.Inc()
}

func (c *Collector) SetParticipants(n int) {
	if c == nil {
		return
	}
	c.participants.Set(float64(n))
}

func (c *Collector) SetCameras(n int) {
	if c == nil {
		return
	}
	c.cameras.Set(float64(n))
}

func (c *Collector) HTTPRequest(method, path, status string) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, path, status).Inc()
}

package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// healthScoreGauge and friends are the Prometheus surface §4.J adds on
// top of the spec.md-required snapshot fields: ambient observability, not
// the human-facing reporting UI the spec excludes.
var (
	healthScoreGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "zonepipe_service_health_score",
		Help: "Latest computed health_score per service, 0-100.",
	}, []string{"service"})

	bottleneckGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "zonepipe_service_bottleneck_count",
		Help: "Number of active bottleneck reasons per service in the latest snapshot.",
	}, []string{"service"})

	snapshotAgeGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zonepipe_health_snapshot_age_seconds",
		Help: "Age in seconds of the most recently computed health snapshot.",
	})
)

// Server exposes the latest Health Snapshot and Prometheus metrics over
// HTTP, refreshed on a fixed interval.
type Server struct {
	monitor *Monitor
	logger  *zap.Logger

	mu     sync.RWMutex
	latest Snapshot
}

// NewServer builds an HTTP surface backed by monitor.
func NewServer(monitor *Monitor, logger *zap.Logger) *Server {
	return &Server{monitor: monitor, logger: logger}
}

// Refresh recomputes the snapshot the server exposes and records it into
// the Prometheus gauges.
func (s *Server) Refresh(ctx context.Context) error {
	snap, err := s.monitor.Snapshot(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()

	for _, svc := range snap.Services {
		healthScoreGauge.WithLabelValues(svc.Service).Set(float64(svc.HealthScore))
		bottleneckGauge.WithLabelValues(svc.Service).Set(float64(len(svc.Bottlenecks)))
	}
	snapshotAgeGauge.Set(0)
	return nil
}

// Handler builds the gin engine serving GET /healthz and GET /metrics.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/healthz", s.handleHealthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func (s *Server) handleHealthz(c *gin.Context) {
	s.mu.RLock()
	snap := s.latest
	s.mu.RUnlock()

	if snap.TakenAt.IsZero() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "no snapshot yet"})
		return
	}

	snapshotAgeGauge.Set(time.Since(snap.TakenAt).Seconds())

	code := http.StatusOK
	if snap.OverallStatus == StatusCritical || snap.OverallStatus == StatusFailed {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, snap)
}

package metrics

import (
	"github.com/blackswanwtf/blackswan-oracle/pkg/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewPrometheusService creates a new service for gathering prometheus metrics.
func NewPrometheusService(cfg config.BasicService, log *zap.Logger) *Service {
	if log == nil {
		return nil
	}
	// Handler is shared between all addresses.
	return NewHandlerService("Prometheus", cfg, promhttp.Handler(), log)
}

/*
Package statussrv implements the HTTP status API of the oracle.

It's a read-only JSON view of the updater state plus a manual trigger
running a single update cycle synchronously.
*/
package statussrv

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/blackswanwtf/blackswan-oracle/pkg/config"
	"github.com/blackswanwtf/blackswan-oracle/pkg/neofs"
	"github.com/blackswanwtf/blackswan-oracle/pkg/services/metrics"
	"github.com/blackswanwtf/blackswan-oracle/pkg/services/updater"
)

// ServiceName is reported by the service descriptor.
const ServiceName = "blackswan-oracle"

type (
	// Updater is the part of updater.Service used by the server.
	Updater interface {
		Status() updater.Status
		Cache() updater.Cache
		Publishing() bool
		RunCycle(ctx context.Context) (updater.Outcome, error)
	}

	// Info is the static configuration reported by /status.
	Info struct {
		Version           string
		PollInterval      time.Duration
		AnalyticsEndpoint string
		RPCEndpoint       string
		Contract          string
		Wallet            string
		// GatewayURL is used to build HTTP links to published analyses.
		GatewayURL string
	}

	// Config contains Server parameters.
	Config struct {
		Log     *zap.Logger
		Service config.BasicService
		Updater Updater
		Info    Info
		// ManualTriggerInterval is the minimum time between two accepted
		// POST /update requests, zero disables the limit.
		ManualTriggerInterval time.Duration
	}

	// Server is the status API server.
	Server struct {
		*metrics.Service

		cfg     Config
		log     *zap.Logger
		limiter *rate.Limiter
		handler http.Handler
		now     func() time.Time
	}
)

// New creates a Server, it's not listening until Start.
func New(cfg Config) *Server {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	s := &Server{
		cfg: cfg,
		log: cfg.Log.With(zap.String("service", "status")),
		now: time.Now,
	}
	if cfg.ManualTriggerInterval > 0 {
		s.limiter = rate.NewLimiter(rate.Every(cfg.ManualTriggerInterval), 1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /scores", s.handleScores)
	mux.HandleFunc("POST /update", s.handleUpdate)
	s.handler = instrument(mux)

	s.Service = metrics.NewHandlerService("Status", cfg.Service, s.handler, cfg.Log)
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, indexResponse{
		Service:    ServiceName,
		Version:    s.cfg.Info.Version,
		Publishing: s.cfg.Updater.Publishing(),
		Endpoints: map[string]string{
			"GET /health":  "service health",
			"GET /status":  "detailed status with current scores and configuration",
			"GET /scores":  "last scores confirmed on chain",
			"POST /update": "run an update cycle now",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h := s.health()
	code := http.StatusOK
	if !h.Healthy {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, h)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	c := s.cfg.Updater.Cache()
	s.writeJSON(w, http.StatusOK, statusResponse{
		healthResponse: s.health(),
		CurrentScores: currentScores{
			Initialized: c.Initialized,
			BlackSwan:   c.BlackSwan,
			MarketPeak:  c.MarketPeak,
			LastUpdate:  timePtr(c.UpdatedAt),
		},
		Configuration: configuration{
			PollInterval:      s.cfg.Info.PollInterval.String(),
			AnalyticsEndpoint: s.cfg.Info.AnalyticsEndpoint,
			RPCEndpoint:       s.cfg.Info.RPCEndpoint,
			Contract:          s.cfg.Info.Contract,
			Wallet:            s.cfg.Info.Wallet,
			Publishing:        s.cfg.Updater.Publishing(),
		},
	})
}

func (s *Server) handleScores(w http.ResponseWriter, _ *http.Request) {
	c := s.cfg.Updater.Cache()
	resp := scoresResponse{
		Initialized: c.Initialized,
		BlackSwan:   c.BlackSwan,
		MarketPeak:  c.MarketPeak,
		LastUpdate:  timePtr(c.UpdatedAt),
		Timestamp:   s.now().UTC(),
	}
	if s.cfg.Updater.Publishing() && c.Initialized {
		resp.Analysis = &analysisRefs{
			BlackSwan:  s.ref(c.BlackSwanRef),
			MarketPeak: s.ref(c.MarketPeakRef),
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ref(r string) contentRef {
	return contentRef{Reference: r, URL: neofs.GatewayURL(s.cfg.Info.GatewayURL, r)}
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		s.writeJSON(w, http.StatusTooManyRequests, updateResponse{
			Error:     "manual update requested too often",
			Timestamp: s.now().UTC(),
		})
		return
	}
	// The cycle outlives the request, a submitted transaction is always
	// awaited.
	out, err := s.cfg.Updater.RunCycle(context.WithoutCancel(r.Context()))
	resp := updateResponse{
		Success:   err == nil,
		CycleID:   out.ID,
		Timestamp: s.now().UTC(),
	}
	if err != nil {
		resp.Error = err.Error()
		code := http.StatusInternalServerError
		switch {
		case errors.Is(err, updater.ErrCycleInProgress):
			code = http.StatusConflict
		case errors.Is(err, updater.ErrNotRunning):
			code = http.StatusServiceUnavailable
		}
		s.writeJSON(w, code, resp)
		return
	}
	if out.Updated {
		resp.Message = "scores updated"
		mode := out.Mode.String()
		resp.Mode = mode
		if out.Result != nil {
			resp.TxHash = "0x" + out.Result.TxHash.StringLE()
		}
	} else {
		resp.Message = "scores are unchanged"
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) health() healthResponse {
	st := s.cfg.Updater.Status()
	status := "healthy"
	if !st.Healthy {
		status = "unhealthy"
	}
	return healthResponse{
		Status:               status,
		Healthy:              st.Healthy,
		Phase:                string(st.Phase),
		Uptime:               st.Uptime(s.now()).Seconds(),
		StartTime:            st.StartTime.UTC(),
		LastUpdate:           timePtr(st.LastAttempt),
		LastSuccessfulUpdate: timePtr(st.LastSuccess),
		UpdateCount:          st.UpdateCount,
		ErrorCount:           st.ErrorCount,
		LastError:            st.LastError,
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}

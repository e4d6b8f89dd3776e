/*
Package metrics implements simple HTTP services exposing internal data of
the oracle: Prometheus metrics, pprof profiles and the status API are all
served by the same Service type.
*/
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blackswanwtf/blackswan-oracle/pkg/config"
	"go.uber.org/zap"
)

// ShutdownTimeout limits the time given to active connections on ShutDown.
const ShutdownTimeout = 10 * time.Second

// Service serves HTTP requests on all configured addresses.
type Service struct {
	http        []*http.Server
	config      config.BasicService
	log         *zap.Logger
	serviceType string
	started     atomic.Bool

	lock      sync.Mutex
	listeners []net.Listener
}

// NewService configures logger and returns new service instance.
func NewService(name string, httpServers []*http.Server, cfg config.BasicService, log *zap.Logger) *Service {
	return &Service{
		http:        httpServers,
		config:      cfg,
		serviceType: name,
		log:         log.With(zap.String("service", name)),
	}
}

// NewHandlerService creates a Service serving the given handler on every
// address of cfg.
func NewHandlerService(name string, cfg config.BasicService, handler http.Handler, log *zap.Logger) *Service {
	addrs := cfg.GetAddresses()
	srvs := make([]*http.Server, len(addrs))
	for i, addr := range addrs {
		srvs[i] = &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}
	return NewService(name, srvs, cfg, log)
}

// Name returns the service name.
func (ms *Service) Name() string {
	return ms.serviceType
}

// Start binds all configured addresses and serves them in separate
// goroutines. Binding errors are returned, Start is a no-op for disabled or
// already started services.
func (ms *Service) Start() error {
	if !ms.config.Enabled {
		ms.log.Info("service hasn't started since it's disabled")
		return nil
	}
	if !ms.started.CompareAndSwap(false, true) {
		ms.log.Info("service already started")
		return nil
	}
	ms.lock.Lock()
	defer ms.lock.Unlock()
	for _, srv := range ms.http {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, l := range ms.listeners {
				_ = l.Close()
			}
			ms.listeners = nil
			ms.started.Store(false)
			return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
		}
		ms.listeners = append(ms.listeners, ln)
	}
	for i, srv := range ms.http {
		ln := ms.listeners[i]
		ms.log.Info("service is running", zap.String("endpoint", ln.Addr().String()))
		go func(srv *http.Server) {
			err := srv.Serve(ln)
			if !errors.Is(err, http.ErrServerClosed) {
				ms.log.Error("failed to serve", zap.String("endpoint", srv.Addr), zap.Error(err))
			}
		}(srv)
	}
	return nil
}

// Addresses returns the addresses the service actually listens on. It's
// empty before Start.
func (ms *Service) Addresses() []string {
	ms.lock.Lock()
	defer ms.lock.Unlock()
	res := make([]string, len(ms.listeners))
	for i, l := range ms.listeners {
		res[i] = l.Addr().String()
	}
	return res
}

// ShutDown stops the service waiting for active requests to complete.
func (ms *Service) ShutDown() {
	if !ms.config.Enabled || !ms.started.CompareAndSwap(true, false) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	for _, srv := range ms.http {
		ms.log.Info("shutting down service", zap.String("endpoint", srv.Addr))
		err := srv.Shutdown(ctx)
		if err != nil {
			ms.log.Error("can't shut service down", zap.String("endpoint", srv.Addr), zap.Error(err))
		}
	}
	ms.lock.Lock()
	ms.listeners = nil
	ms.lock.Unlock()
}

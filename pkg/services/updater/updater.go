/*
Package updater implements the oracle update service.

Every cycle fetches scores, compares them with the values last confirmed on
chain and, if anything has changed, writes only the changed scores to the
oracle contract. With a publisher configured both analysis documents are
stored and their references are written along with the scores. The cache
is only updated after the transaction is accepted, so a failed update is
retried by the next cycle.
*/
package updater

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blackswanwtf/blackswan-oracle/pkg/analysis"
	"github.com/blackswanwtf/blackswan-oracle/pkg/oracle"
	"github.com/blackswanwtf/blackswan-oracle/pkg/scores"
)

// DefaultPollInterval is used when Config.PollInterval is not set.
const DefaultPollInterval = time.Minute

type (
	// Source provides fresh scores.
	Source interface {
		Fetch(ctx context.Context) (scores.Snapshot, error)
		FetchAnalyses(ctx context.Context) (scores.Analyses, error)
	}

	// Publisher stores analysis documents and returns their references.
	Publisher interface {
		Publish(ctx context.Context, name string, payload []byte) (string, error)
	}

	// Writer submits calls to the oracle contract in a single transaction.
	Writer interface {
		Submit(ctx context.Context, calls ...oracle.Call) (*oracle.Result, error)
	}

	// Config contains Service parameters.
	Config struct {
		Log    *zap.Logger
		Source Source
		// Publisher enables analysis publishing, scores are fetched via
		// Source.FetchAnalyses then.
		Publisher Publisher
		Writer    Writer
		// PollInterval is the time between scheduled cycles.
		PollInterval time.Duration
		// BlackSwanSource and MarketPeakSource are stored as dataSource
		// of published documents.
		BlackSwanSource  string
		MarketPeakSource string
	}

	// Service is the oracle update service.
	Service struct {
		Config

		log *zap.Logger
		now func() time.Time

		// runLock serializes Start and Shutdown, started and stopping
		// protect from double start/shutdown.
		runLock  sync.Mutex
		started  atomic.Bool
		stopping atomic.Bool
		inCycle  atomic.Bool
		// lifecycle is held for reading by running cycles.
		lifecycle sync.RWMutex

		lock   sync.RWMutex
		cache  Cache
		status Status

		stopCh chan struct{}
		done   chan struct{}
	}

	// Outcome describes a completed cycle.
	Outcome struct {
		ID       string
		Snapshot scores.Snapshot
		// Updated is false for cycles that found nothing to write.
		Updated bool
		Mode    Mode
		// Result is set if a transaction was sent.
		Result *oracle.Result
	}
)

// New creates a Service. It's not started, but RunCycle can be used
// already.
func New(cfg Config) (*Service, error) {
	if cfg.Source == nil {
		return nil, errors.New("no score source")
	}
	if cfg.Writer == nil {
		return nil, errors.New("no oracle writer")
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	s := &Service{
		Config: cfg,
		log:    cfg.Log.With(zap.String("service", "updater")),
		now:    time.Now,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	s.status = Status{
		Phase:     PhaseStarting,
		Healthy:   true,
		StartTime: s.now(),
	}
	updateHealthyMetric(true)
	return s, nil
}

// Name returns service name.
func (s *Service) Name() string {
	return "updater"
}

// Publishing reports whether analysis documents are published.
func (s *Service) Publishing() bool {
	return s.Publisher != nil
}

// Start runs the first cycle and then one cycle every PollInterval in a
// separate goroutine. The Service only starts once, subsequent calls to
// Start are no-op.
func (s *Service) Start() {
	s.runLock.Lock()
	defer s.runLock.Unlock()
	if s.stopping.Load() || !s.started.CompareAndSwap(false, true) {
		return
	}
	s.log.Info("starting updater", zap.Duration("interval", s.PollInterval),
		zap.Bool("publishing", s.Publishing()))
	s.setPhase(PhaseRunning)
	go s.loop()
}

func (s *Service) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()
	for {
		_, err := s.RunCycle(context.Background())
		switch {
		case errors.Is(err, ErrNotRunning):
			return
		case errors.Is(err, ErrCycleInProgress):
			s.log.Info("skipping scheduled cycle, another one is in progress")
		}
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
		}
	}
}

// Shutdown stops scheduling new cycles and waits for the running one to
// finish. It can only be called once, the Service can't be restarted.
func (s *Service) Shutdown() {
	s.runLock.Lock()
	if !s.stopping.CompareAndSwap(false, true) {
		s.runLock.Unlock()
		return
	}
	s.log.Info("stopping updater")
	s.setPhase(PhaseStopping)
	started := s.started.Load()
	if started {
		close(s.stopCh)
	}
	s.runLock.Unlock()

	if started {
		<-s.done
	}
	s.lifecycle.Lock()
	s.setPhase(PhaseStopped)
	s.lifecycle.Unlock()
	s.log.Info("updater stopped")
}

// Cache returns a copy of the confirmed values.
func (s *Service) Cache() Cache {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.cache
}

// Status returns a copy of the service status.
func (s *Service) Status() Status {
	s.lock.RLock()
	defer s.lock.RUnlock()
	st := s.status
	if st.LastError != nil {
		e := *st.LastError
		st.LastError = &e
	}
	return st
}

func (s *Service) setPhase(p Phase) {
	s.lock.Lock()
	s.status.Phase = p
	s.lock.Unlock()
}

// RunCycle runs a single update cycle. It fails immediately with
// ErrCycleInProgress if another cycle is running and with ErrNotRunning
// after Shutdown. Cycle failures are recorded in the status and returned.
func (s *Service) RunCycle(ctx context.Context) (Outcome, error) {
	s.lifecycle.RLock()
	defer s.lifecycle.RUnlock()
	if s.stopping.Load() {
		return Outcome{}, ErrNotRunning
	}
	if !s.inCycle.CompareAndSwap(false, true) {
		return Outcome{}, ErrCycleInProgress
	}
	defer s.inCycle.Store(false)

	var (
		start = time.Now()
		out   = Outcome{ID: uuid.NewString()}
		log   = s.log.With(zap.String("cycle", out.ID))
	)
	s.lock.Lock()
	s.status.LastAttempt = s.now()
	s.lock.Unlock()

	err := s.cycle(ctx, log, &out)
	switch {
	case err != nil:
		s.fail(log, err)
		updateCycleMetrics("failed", time.Since(start))
	case out.Updated:
		updateCycleMetrics("updated", time.Since(start))
	default:
		updateCycleMetrics("noop", time.Since(start))
	}
	return out, err
}

func (s *Service) cycle(ctx context.Context, log *zap.Logger, out *Outcome) error {
	var (
		snap     scores.Snapshot
		analyses scores.Analyses
		err      error
	)
	if s.Publishing() {
		analyses, err = s.Source.FetchAnalyses(ctx)
		snap = analyses.Snapshot()
	} else {
		snap, err = s.Source.Fetch(ctx)
	}
	if err != nil {
		return &FetchError{Err: err}
	}
	out.Snapshot = snap

	cache := s.Cache()
	mode, changed := selectMode(cache, snap)
	if !changed {
		log.Info("scores are unchanged",
			zap.Int64("blackswan", snap.BlackSwan),
			zap.Int64("marketpeak", snap.MarketPeak))
		s.lock.Lock()
		s.status.Healthy = true
		s.lock.Unlock()
		updateHealthyMetric(true)
		return nil
	}
	out.Mode = mode
	log.Info("scores changed",
		zap.Stringer("mode", mode),
		zap.Bool("initial", !cache.Initialized),
		zap.Int64("blackswan", snap.BlackSwan),
		zap.Int64("marketpeak", snap.MarketPeak))

	var r *refs
	if s.Publishing() {
		r, err = s.publish(ctx, log, analyses)
		if err != nil {
			return err
		}
	}

	res, err := s.Writer.Submit(ctx, plan(mode, snap, r)...)
	out.Result = res
	if err != nil {
		return err
	}
	if !res.Success {
		return &oracle.TransactionError{Reason: oracle.ReasonReverted, TxHash: res.TxHash, Err: oracle.ErrReverted}
	}

	now := s.now()
	next := apply(cache, mode, snap, r)
	next.UpdatedAt = now
	s.lock.Lock()
	s.cache = next
	s.status.LastSuccess = now
	s.status.UpdateCount++
	s.status.Healthy = true
	s.lock.Unlock()

	out.Updated = true
	updateSuccessMetrics(mode, res.GasUsed, next.BlackSwan, next.MarketPeak)
	updateHealthyMetric(true)
	log.Info("scores updated",
		zap.Stringer("tx", res.TxHash),
		zap.Uint32("block", res.BlockNumber),
		zap.Int64("gas", res.GasUsed))
	return nil
}

func (s *Service) publish(ctx context.Context, log *zap.Logger, a scores.Analyses) (*refs, error) {
	var (
		now = s.now()
		r   refs
	)
	for _, d := range []struct {
		doc *analysis.Document
		ref *string
	}{
		{analysis.New(analysis.TypeBlackSwan, a.BlackSwan, s.BlackSwanSource, now), &r.BlackSwan},
		{analysis.New(analysis.TypeMarketPeak, a.MarketPeak, s.MarketPeakSource, now), &r.MarketPeak},
	} {
		data, err := json.Marshal(d.doc)
		if err != nil {
			return nil, &PublishError{Type: d.doc.Type, Err: err}
		}
		ref, err := s.Publisher.Publish(ctx, d.doc.FileName(), data)
		if err != nil {
			return nil, &PublishError{Type: d.doc.Type, Err: err}
		}
		*d.ref = ref
		log.Info("analysis published", zap.String("type", d.doc.Type), zap.String("ref", ref))
	}
	return &r, nil
}

func (s *Service) fail(log *zap.Logger, err error) {
	now := s.now()
	s.lock.Lock()
	s.status.ErrorCount++
	s.status.Healthy = false
	s.status.LastError = &ErrorInfo{Message: err.Error(), Time: now}
	s.lock.Unlock()

	updateErrorMetrics(errorKind(err))
	updateHealthyMetric(false)
	log.Error("update cycle failed", zap.Error(err))
}

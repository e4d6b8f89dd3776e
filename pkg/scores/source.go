package scores

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// DefaultTimeout is used when Config.Timeout is not set.
const DefaultTimeout = 30 * time.Second

// ErrCircuitOpen is returned without contacting the upstream API while the
// circuit breaker is open.
var ErrCircuitOpen = errors.New("upstream circuit is open")

type (
	// Source is a stateless client of the analytics API.
	Source struct {
		Config

		breaker        *gobreaker.CircuitBreaker
		scoresSchema   *jsonschema.Schema
		analysisSchema *jsonschema.Schema
	}

	// Config contains Source parameters.
	Config struct {
		Log            *zap.Logger
		Endpoint       string
		ScoresPath     string
		BlackSwanPath  string
		MarketPeakPath string
		APIKey         string
		// Timeout bounds every single request.
		Timeout time.Duration
		// FailureThreshold is the number of consecutive failures opening
		// the circuit, zero disables the breaker.
		FailureThreshold uint32
		OpenTimeout      time.Duration
		Client           HTTPClient
	}

	// HTTPClient is an interface capable of doing upstream requests.
	HTTPClient interface {
		Do(*http.Request) (*http.Response, error)
	}
)

// New returns new Source instance.
func New(cfg Config) (*Source, error) {
	s := &Source{Config: cfg}
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	if s.Client == nil {
		s.Client = &http.Client{Timeout: s.Timeout}
	}
	s.Endpoint = strings.TrimRight(s.Endpoint, "/")

	var err error
	if s.scoresSchema, err = compileSchema("scores.json", scoresSchema); err != nil {
		return nil, err
	}
	if s.analysisSchema, err = compileSchema("analysis.json", analysisSchema); err != nil {
		return nil, err
	}
	if cfg.FailureThreshold > 0 {
		threshold := cfg.FailureThreshold
		s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "analytics",
			Timeout: cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				s.Log.Info("circuit breaker state changed",
					zap.String("name", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to))
			},
		})
	}
	return s, nil
}

// Fetch returns current scores from the scores endpoint.
func (s *Source) Fetch(ctx context.Context) (Snapshot, error) {
	obj, err := s.getObject(ctx, s.ScoresPath, s.scoresSchema)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if snap.BlackSwan, err = toScore(obj[BlackSwanField]); err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", BlackSwanField, err)
	}
	if snap.MarketPeak, err = toScore(obj[MarketPeakField]); err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", MarketPeakField, err)
	}
	return snap, nil
}

// FetchAnalyses returns current BlackSwan and MarketPeak analyses. Requests
// are made one after another, the first failure aborts the fetch.
func (s *Source) FetchAnalyses(ctx context.Context) (Analyses, error) {
	var (
		res Analyses
		err error
	)
	if res.BlackSwan, err = s.fetchAnalysis(ctx, s.BlackSwanPath); err != nil {
		return Analyses{}, fmt.Errorf("blackswan analysis: %w", err)
	}
	if res.MarketPeak, err = s.fetchAnalysis(ctx, s.MarketPeakPath); err != nil {
		return Analyses{}, fmt.Errorf("marketpeak analysis: %w", err)
	}
	return res, nil
}

func (s *Source) fetchAnalysis(ctx context.Context, path string) (Analysis, error) {
	obj, err := s.getObject(ctx, path, s.analysisSchema)
	if err != nil {
		return Analysis{}, err
	}
	score, err := toScore(obj[ScoreField])
	if err != nil {
		return Analysis{}, err
	}
	delete(obj, ScoreField)
	return Analysis{Score: score, Fields: obj}, nil
}

// getObject performs a GET request through the circuit breaker and returns
// the response validated against the schema.
func (s *Source) getObject(ctx context.Context, path string, schema *jsonschema.Schema) (map[string]any, error) {
	var (
		body []byte
		err  error
	)
	if s.breaker == nil {
		body, err = s.get(ctx, path)
	} else {
		var res any
		res, err = s.breaker.Execute(func() (any, error) {
			return s.get(ctx, path)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}
		if err == nil {
			body = res.([]byte)
		}
	}
	if err != nil {
		return nil, err
	}

	v, err := decodeJSON(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return v.(map[string]any), nil
}

func (s *Source) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	u := s.Endpoint + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	start := time.Now()
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	s.Log.Debug("upstream request done",
		zap.String("url", u),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: u}
	}
	return readResponse(resp.Body, MaxResponseSize)
}

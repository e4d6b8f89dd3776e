package scores

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestSource(t *testing.T, h http.HandlerFunc, mod func(*Config)) *Source {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := Config{
		Log:            zaptest.NewLogger(t),
		Endpoint:       srv.URL + "/",
		ScoresPath:     "/api/scores",
		BlackSwanPath:  "/api/blackswan",
		MarketPeakPath: "/api/marketpeak",
		Timeout:        time.Second,
	}
	if mod != nil {
		mod(&cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func replyWith(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}
}

func TestFetch(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		expected Snapshot
		err      error
	}{
		{"valid", `{"blackSwanScore": 40, "marketPeakScore": 60}`, Snapshot{40, 60}, nil},
		{"extra fields", `{"blackSwanScore": 1, "marketPeakScore": 2, "timestamp": "now"}`, Snapshot{1, 2}, nil},
		{"fractional", `{"blackSwanScore": 40.9, "marketPeakScore": 0.2}`, Snapshot{40, 0}, nil},
		{"zero", `{"blackSwanScore": 0, "marketPeakScore": 0}`, Snapshot{0, 0}, nil},
		{"negative", `{"blackSwanScore": -1, "marketPeakScore": 50}`, Snapshot{}, ErrInvalidResponse},
		{"negative fraction", `{"blackSwanScore": -0.5, "marketPeakScore": 50}`, Snapshot{}, ErrInvalidResponse},
		{"string score", `{"blackSwanScore": "40", "marketPeakScore": 50}`, Snapshot{}, ErrInvalidResponse},
		{"missing one", `{"blackSwanScore": 40}`, Snapshot{}, ErrInvalidResponse},
		{"missing both", `{"score": 40}`, Snapshot{}, ErrInvalidResponse},
		{"not an object", `[40, 60]`, Snapshot{}, ErrInvalidResponse},
		{"malformed", `{"blackSwanScore": 40,`, Snapshot{}, ErrInvalidResponse},
		{"trailing garbage", `{"blackSwanScore": 1, "marketPeakScore": 2} garbage`, Snapshot{}, ErrInvalidResponse},
		{"two values", `{"blackSwanScore": 1, "marketPeakScore": 2}{}`, Snapshot{}, ErrInvalidResponse},
		{"trailing newline", "{\"blackSwanScore\": 1, \"marketPeakScore\": 2}\n", Snapshot{1, 2}, nil},
		{"exponent", `{"blackSwanScore": 2e1, "marketPeakScore": 1.9}`, Snapshot{20, 1}, nil},
		{"empty", ``, Snapshot{}, ErrInvalidResponse},
		{"too big for int64", `{"blackSwanScore": 1e30, "marketPeakScore": 1}`, Snapshot{}, ErrInvalidScore},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSource(t, replyWith(tc.body), nil)
			snap, err := s.Fetch(context.Background())
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, snap)
		})
	}
}

func TestFetchRequest(t *testing.T) {
	var gotPath, gotAuth string
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"blackSwanScore": 1, "marketPeakScore": 2}`))
	}, func(cfg *Config) {
		cfg.APIKey = "secret"
	})

	_, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/api/scores", gotPath)
	require.Equal(t, "Bearer secret", gotAuth)
}

func TestFetchBadStatus(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, nil)

	_, err := s.Fetch(context.Background())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, func(cfg *Config) {
		cfg.Timeout = 50 * time.Millisecond
	})
	defer close(release)

	start := time.Now()
	_, err := s.Fetch(context.Background())
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestFetchTooLarge(t *testing.T) {
	big := `{"blackSwanScore": 1, "marketPeakScore": 2, "pad": "` + strings.Repeat("x", MaxResponseSize) + `"}`
	s := newTestSource(t, replyWith(big), nil)

	_, err := s.Fetch(context.Background())
	require.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestCircuitBreaker(t *testing.T) {
	var hits atomic.Int32
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, func(cfg *Config) {
		cfg.FailureThreshold = 3
		cfg.OpenTimeout = time.Hour
	})

	for range 3 {
		_, err := s.Fetch(context.Background())
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrCircuitOpen)
	}
	_, err := s.Fetch(context.Background())
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.EqualValues(t, 3, hits.Load())
}

func TestFetchAnalyses(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/blackswan":
			_, _ = w.Write([]byte(`{"score": 12.5, "confidence": 0.8, "reasoning": "calm", "indicators": ["vix"]}`))
		case "/api/marketpeak":
			_, _ = w.Write([]byte(`{"score": 77, "confidence": 0.6}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, nil)

	res, err := s.FetchAnalyses(context.Background())
	require.NoError(t, err)
	require.Equal(t, Snapshot{BlackSwan: 12, MarketPeak: 77}, res.Snapshot())
	require.NotContains(t, res.BlackSwan.Fields, ScoreField)
	require.Equal(t, "calm", res.BlackSwan.Fields["reasoning"])
	require.Equal(t, json.Number("0.8"), res.BlackSwan.Fields["confidence"])
	require.Equal(t, []any{"vix"}, res.BlackSwan.Fields["indicators"])
	require.Equal(t, json.Number("0.6"), res.MarketPeak.Fields["confidence"])
}

func TestFetchAnalysesInvalid(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/blackswan":
			_, _ = w.Write([]byte(`{"score": 1}`))
		default:
			_, _ = w.Write([]byte(`{"confidence": 0.6}`))
		}
	}, nil)

	_, err := s.FetchAnalyses(context.Background())
	require.ErrorIs(t, err, ErrInvalidResponse)
	require.Contains(t, err.Error(), "marketpeak")
}

func TestToScore(t *testing.T) {
	for in, expected := range map[string]int64{
		"0":                   0,
		"5":                   5,
		"5.999":               5,
		"1e2":                 100,
		"9223372036854775807": 9223372036854775807,
	} {
		v, err := toScore(json.Number(in))
		require.NoError(t, err, in)
		require.Equal(t, expected, v, in)
	}
	for _, in := range []any{json.Number("-1"), json.Number("9223372036854775808"), "5", 5.0} {
		_, err := toScore(in)
		require.ErrorIs(t, err, ErrInvalidScore)
	}
}

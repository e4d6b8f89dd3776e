package updater

import (
	"time"
)

// Phase is the service lifecycle phase.
type Phase string

// Service phases.
const (
	PhaseStarting Phase = "starting"
	PhaseRunning  Phase = "running"
	PhaseStopping Phase = "stopping"
	PhaseStopped  Phase = "stopped"
)

// Cache holds the values last confirmed on chain.
type Cache struct {
	// Initialized is false until the first successful update.
	Initialized   bool
	BlackSwan     int64
	MarketPeak    int64
	BlackSwanRef  string
	MarketPeakRef string
	UpdatedAt     time.Time
}

// ErrorInfo describes the last cycle failure.
type ErrorInfo struct {
	Message string    `json:"message"`
	Time    time.Time `json:"timestamp"`
}

// Status is the observable state of the service.
type Status struct {
	Phase       Phase
	Healthy     bool
	StartTime   time.Time
	LastAttempt time.Time
	LastSuccess time.Time
	UpdateCount uint64
	ErrorCount  uint64
	LastError   *ErrorInfo
}

// Uptime returns the time since service start.
func (s Status) Uptime(now time.Time) time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	return now.Sub(s.StartTime)
}

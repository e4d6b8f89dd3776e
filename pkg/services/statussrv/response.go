package statussrv

import (
	"time"

	"github.com/blackswanwtf/blackswan-oracle/pkg/services/updater"
)

type (
	indexResponse struct {
		Service    string            `json:"service"`
		Version    string            `json:"version"`
		Publishing bool              `json:"publishing"`
		Endpoints  map[string]string `json:"endpoints"`
	}

	healthResponse struct {
		Status               string             `json:"status"`
		Healthy              bool               `json:"healthy"`
		Phase                string             `json:"phase"`
		Uptime               float64            `json:"uptime"`
		StartTime            time.Time          `json:"startTime"`
		LastUpdate           *time.Time         `json:"lastUpdate"`
		LastSuccessfulUpdate *time.Time         `json:"lastSuccessfulUpdate"`
		UpdateCount          uint64             `json:"updateCount"`
		ErrorCount           uint64             `json:"errorCount"`
		LastError            *updater.ErrorInfo `json:"lastError"`
	}

	statusResponse struct {
		healthResponse
		CurrentScores currentScores `json:"currentScores"`
		Configuration configuration `json:"configuration"`
	}

	currentScores struct {
		Initialized bool       `json:"initialized"`
		BlackSwan   int64      `json:"blackSwanScore"`
		MarketPeak  int64      `json:"marketPeakScore"`
		LastUpdate  *time.Time `json:"lastUpdate"`
	}

	configuration struct {
		PollInterval      string `json:"pollInterval"`
		AnalyticsEndpoint string `json:"analyticsEndpoint"`
		RPCEndpoint       string `json:"rpcEndpoint"`
		Contract          string `json:"contractAddress"`
		Wallet            string `json:"walletAddress"`
		Publishing        bool   `json:"publishing"`
	}

	scoresResponse struct {
		Initialized bool          `json:"initialized"`
		BlackSwan   int64         `json:"blackSwanScore"`
		MarketPeak  int64         `json:"marketPeakScore"`
		Analysis    *analysisRefs `json:"analysis,omitempty"`
		LastUpdate  *time.Time    `json:"lastUpdate"`
		Timestamp   time.Time     `json:"timestamp"`
	}

	analysisRefs struct {
		BlackSwan  contentRef `json:"blackSwan"`
		MarketPeak contentRef `json:"marketPeak"`
	}

	contentRef struct {
		Reference string `json:"reference"`
		URL       string `json:"url,omitempty"`
	}

	updateResponse struct {
		Success   bool      `json:"success"`
		Message   string    `json:"message,omitempty"`
		Error     string    `json:"error,omitempty"`
		CycleID   string    `json:"cycleId,omitempty"`
		Mode      string    `json:"mode,omitempty"`
		TxHash    string    `json:"txHash,omitempty"`
		Timestamp time.Time `json:"timestamp"`
	}
)

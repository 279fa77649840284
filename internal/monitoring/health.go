package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

type HealthChecker struct {
	mu          sync.RWMutex
	lastPoll    time.Time
	lastPrice   map[string]float64
	isConnected bool
	lastError   string
}

type HealthStatus struct {
	Status      string             `json:"status"`
	Timestamp   time.Time          `json:"timestamp"`
	LastPoll    time.Time          `json:"last_poll"`
	LastPrices  map[string]float64 `json:"last_prices"`
	IsConnected bool               `json:"is_connected"`
	Uptime      string             `json:"uptime"`
	LastError   string             `json:"last_error,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		lastPrice: make(map[string]float64),
	}
}

// SetConnected records the exchange connection state.
func (h *HealthChecker) SetConnected(connected bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.isConnected = connected
}

// RecordPoll marks a completed polling cycle for a symbol.
func (h *HealthChecker) RecordPoll(symbol string, price float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastPoll = time.Now()
	h.lastPrice[symbol] = price
}

// RecordError keeps the most recent error for the health report.
func (h *HealthChecker) RecordError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastError = err.Error()
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	if !h.isConnected || time.Since(h.lastPoll) > 10*time.Minute {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	prices := make(map[string]float64, len(h.lastPrice))
	for k, v := range h.lastPrice {
		prices[k] = v
	}

	health := HealthStatus{
		Status:      status,
		Timestamp:   time.Now(),
		LastPoll:    h.lastPoll,
		LastPrices:  prices,
		IsConnected: h.isConnected,
		Uptime:      time.Since(startTime).String(),
		LastError:   h.lastError,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(health)
}

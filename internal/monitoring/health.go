package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker reports bot liveness over HTTP. The trading loop feeds it
// after every tick; a stale tick or lost exchange connection degrades the
// status.
type HealthChecker struct {
	mu          sync.RWMutex
	lastTick    time.Time
	lastPrice   float64
	isConnected bool
	halted      bool
}

type HealthStatus struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	LastTick     time.Time `json:"last_tick"`
	LastPrice    float64   `json:"last_price"`
	IsConnected  bool      `json:"is_connected"`
	DrawdownHalt bool      `json:"drawdown_halt"`
	Uptime       string    `json:"uptime"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

// RecordTick marks a completed trading loop iteration.
func (h *HealthChecker) RecordTick(price float64, connected, halted bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastTick = time.Now()
	h.lastPrice = price
	h.isConnected = connected
	h.halted = halted
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if !h.isConnected || time.Since(h.lastTick) > 5*time.Minute {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	health := HealthStatus{
		Status:       status,
		Timestamp:    time.Now(),
		LastTick:     h.lastTick,
		LastPrice:    h.lastPrice,
		IsConnected:  h.isConnected,
		DrawdownHalt: h.halted,
		Uptime:       time.Since(startTime).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

package config

import (
	"context"
	"sync"
	"time"
)

// Watcher periodically re-reads the trading config file so parameters can be
// tuned without restarting the bot. Exchange credentials are fixed at
// startup; the trading section is swapped wholesale, and a position mode
// change is carried through to the ledger by the consumer.
type Watcher struct {
	mu       sync.RWMutex
	current  TradingConfig
	file     string
	interval time.Duration

	onReload func(TradingConfig)
}

// NewWatcher creates a watcher over the given file, seeded with the already
// loaded trading config.
func NewWatcher(file string, initial TradingConfig, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watcher{
		current:  initial,
		file:     file,
		interval: interval,
	}
}

// OnReload registers a callback invoked with each successfully reloaded
// config.
func (w *Watcher) OnReload(fn func(TradingConfig)) {
	w.onReload = fn
}

// Current returns the latest trading config.
func (w *Watcher) Current() TradingConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Run reloads the file on the configured interval until ctx is cancelled.
// A file that fails to read or validate leaves the current config in place.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	var cfg Config
	if err := cfg.loadFile(w.file); err != nil {
		return
	}
	if err := cfg.validate(); err != nil {
		return
	}

	w.mu.Lock()
	w.current = cfg.Trading
	w.mu.Unlock()

	if w.onReload != nil {
		w.onReload(cfg.Trading)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanlew/algocrypto/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trading_config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{"trading": {"enabled": true}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, cfg.Trading.Assets)
	assert.Equal(t, "60", cfg.Trading.Interval)
	assert.Equal(t, "auto", cfg.Trading.Strategy)
	assert.InDelta(t, 100000, cfg.Trading.Capital, 1e-9)
	assert.InDelta(t, 0.01, cfg.Trading.RiskFraction, 1e-9)
	assert.Equal(t, 5, cfg.Trading.MaxConcurrentTrades)
	assert.InDelta(t, 0.20, cfg.Trading.DrawdownLimit, 1e-9)
	assert.InDelta(t, 0.02, cfg.Trading.StopLossFraction, 1e-9)
	assert.InDelta(t, 0.04, cfg.Trading.TakeProfitFraction, 1e-9)
	assert.Equal(t, 1, cfg.Trading.DefaultLeverage)
	assert.Equal(t, types.ModeOneWay, cfg.Trading.Mode())
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"risk fraction too high", `{"trading": {"risk_fraction": 0.9}}`},
		{"drawdown limit out of range", `{"trading": {"drawdown_limit": 1.5}}`},
		{"unknown strategy", `{"trading": {"strategy": "martingale"}}`},
		{"negative capital", `{"trading": {"capital": -1}}`},
		{"leverage out of range", `{"trading": {"leverage": {"BTCUSDT": 500}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.json)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestModeAndLeverage(t *testing.T) {
	path := writeConfig(t, `{"trading": {
		"hedge_mode": true,
		"leverage": {"BTCUSDT": 3},
		"default_leverage": 2
	}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, types.ModeHedge, cfg.Trading.Mode())
	assert.Equal(t, 3, cfg.Trading.LeverageFor("BTCUSDT"))
	assert.Equal(t, 2, cfg.Trading.LeverageFor("ETHUSDT"))
}

func TestWatcherReload(t *testing.T) {
	path := writeConfig(t, `{"trading": {"enabled": true, "risk_fraction": 0.01}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	w := NewWatcher(path, cfg.Trading, time.Second)

	var reloaded []TradingConfig
	w.OnReload(func(tc TradingConfig) { reloaded = append(reloaded, tc) })

	require.NoError(t, os.WriteFile(path, []byte(`{"trading": {"enabled": false, "risk_fraction": 0.02}}`), 0o644))
	w.reload()

	assert.False(t, w.Current().Enabled)
	assert.InDelta(t, 0.02, w.Current().RiskFraction, 1e-9)
	require.Len(t, reloaded, 1)
}

func TestWatcherKeepsCurrentOnBadFile(t *testing.T) {
	path := writeConfig(t, `{"trading": {"enabled": true}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	w := NewWatcher(path, cfg.Trading, time.Second)

	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))
	w.reload()
	assert.True(t, w.Current().Enabled)

	require.NoError(t, os.WriteFile(path, []byte(`{"trading": {"strategy": "martingale"}}`), 0o644))
	w.reload()
	assert.True(t, w.Current().Enabled)
}

func TestWatcherReloadCarriesModeChange(t *testing.T) {
	path := writeConfig(t, `{"trading": {"hedge_mode": true}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, types.ModeHedge, cfg.Trading.Mode())

	w := NewWatcher(path, cfg.Trading, time.Second)

	require.NoError(t, os.WriteFile(path, []byte(`{"trading": {"hedge_mode": false}}`), 0o644))
	w.reload()
	cur := w.Current()
	assert.Equal(t, types.ModeOneWay, cur.Mode())
}

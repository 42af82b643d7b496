package ops

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Markets, 1)
}

func TestValidateRejectsEmptyMarkets(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsDuplicateSymbol(t *testing.T) {
	cfg := Default()
	cfg.Markets = append(cfg.Markets, cfg.Markets[0])
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownDirection(t *testing.T) {
	cfg := Default()
	cfg.Markets[0].Direction = "sideways"
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresPingTimingWhenEnabled(t *testing.T) {
	cfg := Default()
	cfg.WebSocket.PingIntervalMS = 0
	assert.Error(t, cfg.Validate())
}

func TestResolveMarketsAndFees(t *testing.T) {
	cfg := Default()
	cfg.Simulator = SimulatorConfig{MakerFee: "-0.0002", TakerFee: "0.0007"}
	cfg.Markets[0].PriceTick = "0.5"
	cfg.Markets[0].LotSize = "0.001"

	markets, err := cfg.ResolveMarkets()
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "BTC-USDT", markets[0].Symbol)
	assert.True(t, markets[0].PriceTick.Equal(decimal.RequireFromString("0.5")))

	maker, taker, err := cfg.Fees()
	require.NoError(t, err)
	assert.True(t, maker.Equal(decimal.RequireFromString("-0.0002")))
	assert.True(t, taker.Equal(decimal.RequireFromString("0.0007")))
}

func TestTimingResolvesDurationsAndRetry(t *testing.T) {
	cfg := Default()
	ping, pongAck, abort, retry := cfg.WebSocket.Timing()

	assert.Equal(t, 15*time.Second, ping)
	assert.Equal(t, 5*time.Second, pongAck)
	assert.Equal(t, 2*time.Second, abort)
	assert.Equal(t, 250*time.Millisecond, retry.Min)
	assert.Equal(t, 5*time.Second, retry.Max)
	assert.Equal(t, 2.0, retry.Factor)
}

func TestLoadFromFileYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "markets:\n  - symbol: ETH-USDT\n    direction: linear\nsimulator:\n  maker_fee: \"0\"\n  taker_fee: \"0.0005\"\nwebsocket:\n  ping_pong_enabled: true\n  ping_interval_ms: 10000\n  pong_ack_timeout_ms: 3000\n  abort_timeout_ms: 1500\n  retry_min_ms: 100\n  retry_max_ms: 2000\n  retry_factor: 1.5\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Len(t, cfg.Markets, 1)
	assert.Equal(t, "ETH-USDT", cfg.Markets[0].Symbol)
	assert.Equal(t, "0.0005", cfg.Simulator.TakerFee)
}

func TestLoadFromFileMissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWatchFileNotifiesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("markets:\n  - symbol: A-B\n    direction: linear\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	changes := make(chan *Config, 1)
	go WatchFile(ctx, path, 20*time.Millisecond, func(cfg *Config, err error) {
		if err == nil {
			select {
			case changes <- cfg:
			default:
			}
		}
	})

	time.Sleep(40 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("markets:\n  - symbol: C-D\n    direction: linear\n"), 0o644))

	select {
	case cfg := <-changes:
		assert.Equal(t, "C-D", cfg.Markets[0].Symbol)
	case <-ctx.Done():
		t.Fatal("WatchFile did not observe the file change in time")
	}
}

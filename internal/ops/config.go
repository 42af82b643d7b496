// Package ops loads and validates the toolkit's runtime configuration:
// the market catalog, simulator fee schedule, and websocket transport
// settings, plus a poll-based hot-reload watcher.
//
// Grounded on rustyeddy-trader/config/config.go's
// LoadFromFile/Validate/Default shape from the retrieval pack.
package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/quorumtrade/corehft/internal/schema"
	"github.com/quorumtrade/corehft/pkg/transport/ws"
)

// MarketConfig describes one tradable market.
type MarketConfig struct {
	Symbol     string `json:"symbol" yaml:"symbol"`
	BaseAsset  string `json:"base_asset,omitempty" yaml:"base_asset,omitempty"`
	QuoteAsset string `json:"quote_asset,omitempty" yaml:"quote_asset,omitempty"`
	Direction  string `json:"direction" yaml:"direction"` // "linear" or "inverse"
	PriceTick  string `json:"price_tick,omitempty" yaml:"price_tick,omitempty"`
	LotSize    string `json:"lot_size,omitempty" yaml:"lot_size,omitempty"`
}

// SimulatorConfig configures the matching engine's fee schedule.
type SimulatorConfig struct {
	MakerFee string `json:"maker_fee" yaml:"maker_fee"`
	TakerFee string `json:"taker_fee" yaml:"taker_fee"`
}

// WebSocketConfig configures the resilient transport's timing.
type WebSocketConfig struct {
	PingPongEnabled  bool   `json:"ping_pong_enabled" yaml:"ping_pong_enabled"`
	PingIntervalMS   int    `json:"ping_interval_ms" yaml:"ping_interval_ms"`
	PongAckTimeoutMS int    `json:"pong_ack_timeout_ms" yaml:"pong_ack_timeout_ms"`
	AbortTimeoutMS   int    `json:"abort_timeout_ms" yaml:"abort_timeout_ms"`
	RetryMinMS       int    `json:"retry_min_ms" yaml:"retry_min_ms"`
	RetryMaxMS       int    `json:"retry_max_ms" yaml:"retry_max_ms"`
	RetryFactor      float64 `json:"retry_factor" yaml:"retry_factor"`
}

// Config is the complete toolkit configuration.
type Config struct {
	Markets   []MarketConfig  `json:"markets" yaml:"markets"`
	Simulator SimulatorConfig `json:"simulator" yaml:"simulator"`
	WebSocket WebSocketConfig `json:"websocket" yaml:"websocket"`
}

// Default returns a configuration with sensible defaults: one linear
// market, symmetric zero fees, and conservative reconnect timing.
func Default() *Config {
	return &Config{
		Markets: []MarketConfig{
			{Symbol: "BTC-USDT", Direction: "linear"},
		},
		Simulator: SimulatorConfig{MakerFee: "0", TakerFee: "0"},
		WebSocket: WebSocketConfig{
			PingPongEnabled:  true,
			PingIntervalMS:   15000,
			PongAckTimeoutMS: 5000,
			AbortTimeoutMS:   2000,
			RetryMinMS:       250,
			RetryMaxMS:       5000,
			RetryFactor:      2.0,
		},
	}
}

// LoadFromFile loads configuration from a file, trying YAML then JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
		if err != nil {
			err = json.Unmarshal(data, cfg)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if len(c.Markets) == 0 {
		return fmt.Errorf("markets: at least one market is required")
	}
	seen := make(map[string]struct{}, len(c.Markets))
	for _, m := range c.Markets {
		if m.Symbol == "" {
			return fmt.Errorf("markets: symbol is required")
		}
		if _, dup := seen[m.Symbol]; dup {
			return fmt.Errorf("markets: duplicate symbol %q", m.Symbol)
		}
		seen[m.Symbol] = struct{}{}
		if m.Direction != "linear" && m.Direction != "inverse" {
			return fmt.Errorf("markets[%s]: direction must be linear or inverse", m.Symbol)
		}
	}
	if _, err := decimal.NewFromString(orDefault(c.Simulator.MakerFee, "0")); err != nil {
		return fmt.Errorf("simulator.maker_fee: %w", err)
	}
	if _, err := decimal.NewFromString(orDefault(c.Simulator.TakerFee, "0")); err != nil {
		return fmt.Errorf("simulator.taker_fee: %w", err)
	}
	if c.WebSocket.PingPongEnabled {
		if c.WebSocket.PingIntervalMS <= 0 {
			return fmt.Errorf("websocket.ping_interval_ms must be positive when ping_pong_enabled")
		}
		if c.WebSocket.PongAckTimeoutMS <= 0 {
			return fmt.Errorf("websocket.pong_ack_timeout_ms must be positive when ping_pong_enabled")
		}
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Market resolves one configured market into a schema.Market.
func (m MarketConfig) Market() (schema.Market, error) {
	dir := schema.DirectionLinear
	if m.Direction == "inverse" {
		dir = schema.DirectionInverse
	}
	priceTick := decimal.Zero
	if m.PriceTick != "" {
		var err error
		if priceTick, err = decimal.NewFromString(m.PriceTick); err != nil {
			return schema.Market{}, fmt.Errorf("markets[%s].price_tick: %w", m.Symbol, err)
		}
	}
	lotSize := decimal.Zero
	if m.LotSize != "" {
		var err error
		if lotSize, err = decimal.NewFromString(m.LotSize); err != nil {
			return schema.Market{}, fmt.Errorf("markets[%s].lot_size: %w", m.Symbol, err)
		}
	}
	return schema.Market{
		Symbol:     m.Symbol,
		BaseAsset:  m.BaseAsset,
		QuoteAsset: m.QuoteAsset,
		Direction:  dir,
		PriceTick:  priceTick,
		LotSize:    lotSize,
	}, nil
}

// ResolveMarkets resolves every configured market.
func (c *Config) ResolveMarkets() ([]schema.Market, error) {
	out := make([]schema.Market, 0, len(c.Markets))
	for _, m := range c.Markets {
		mk, err := m.Market()
		if err != nil {
			return nil, err
		}
		out = append(out, mk)
	}
	return out, nil
}

// Fees resolves the simulator's maker/taker fee rates.
func (c *Config) Fees() (maker, taker decimal.Decimal, err error) {
	maker, err = decimal.NewFromString(orDefault(c.Simulator.MakerFee, "0"))
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	taker, err = decimal.NewFromString(orDefault(c.Simulator.TakerFee, "0"))
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return maker, taker, nil
}

// Timing resolves the configured websocket timing into the durations
// and retry-delay function a ws.Config expects. The Dialer, URLFn and
// callback fields remain the caller's responsibility to fill in, since
// those are venue- and use-site-specific.
func (w WebSocketConfig) Timing() (ping, pongAck, abort time.Duration, retry ws.RetryDelay) {
	ping = time.Duration(w.PingIntervalMS) * time.Millisecond
	pongAck = time.Duration(w.PongAckTimeoutMS) * time.Millisecond
	abort = time.Duration(w.AbortTimeoutMS) * time.Millisecond
	retry = ws.RetryDelay{
		Min:    time.Duration(w.RetryMinMS) * time.Millisecond,
		Max:    time.Duration(w.RetryMaxMS) * time.Millisecond,
		Factor: w.RetryFactor,
	}
	return
}

// WatchFile polls path for mtime changes and invokes onChange with the
// freshly parsed config whenever it changes, until ctx is done. This is
// a supplemented feature (hot-reload); polling rather than a
// filesystem-event library because the retrieval pack carries none.
func WatchFile(ctx context.Context, path string, interval time.Duration, onChange func(*Config, error)) {
	if interval <= 0 {
		interval = time.Second
	}
	var lastMod time.Time
	if info, err := os.Stat(path); err == nil {
		lastMod = info.ModTime()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if !info.ModTime().After(lastMod) {
				continue
			}
			lastMod = info.ModTime()
			cfg, err := LoadFromFile(path)
			onChange(cfg, err)
		}
	}
}

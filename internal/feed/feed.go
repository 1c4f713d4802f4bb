package feed

import (
	"fmt"
	"math/rand"
	"time"

	"main/internal/schema"
)

const (
	defaultBasePrice = 100.0
	defaultSpread    = 0.05
	defaultMaxSize   = 10.0
)

var defaultSymbols = []string{"BTCUSDT", "ETHUSDT"}

// Config controls the synthetic tick feed.
type Config struct {
	Symbols   []string
	BasePrice float64
	Spread    float64
	MaxSize   float64
	Seed      int64
}

// DefaultConfig returns a baseline feed configuration.
func DefaultConfig() Config {
	return Config{
		Symbols:   defaultSymbols,
		BasePrice: defaultBasePrice,
		Spread:    defaultSpread,
		MaxSize:   defaultMaxSize,
	}
}

func (c Config) withDefaults() Config {
	if len(c.Symbols) == 0 {
		c.Symbols = defaultSymbols
	}
	if c.BasePrice == 0 {
		c.BasePrice = defaultBasePrice
	}
	if c.Spread == 0 {
		c.Spread = defaultSpread
	}
	if c.MaxSize == 0 {
		c.MaxSize = defaultMaxSize
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UTC().UnixNano()
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("invalid feed config: Symbols is empty")
	}
	if c.BasePrice <= 0 {
		return fmt.Errorf("invalid feed config: BasePrice must be > 0")
	}
	if c.Spread < 0 {
		return fmt.Errorf("invalid feed config: Spread must be >= 0")
	}
	if c.MaxSize <= 0 {
		return fmt.Errorf("invalid feed config: MaxSize must be > 0")
	}
	return nil
}

// Feed produces a seeded random walk of synthetic ticks, round-robining
// the configured symbols. The same seed always yields the same stream.
type Feed struct {
	cfg    Config
	rng    *rand.Rand
	prices []float64
	index  int
}

// New creates a feed with validation.
func New(cfg Config) (*Feed, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prices := make([]float64, len(cfg.Symbols))
	for i := range prices {
		// Stagger base prices so symbols do not tick in lockstep.
		prices[i] = cfg.BasePrice * (1 + 0.1*float64(i))
	}

	return &Feed{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		prices: prices,
	}, nil
}

// Symbols returns the configured symbol rotation.
func (f *Feed) Symbols() []string { return f.cfg.Symbols }

// Next creates the next tick in sequence, stamped with nowNs.
func (f *Feed) Next(nowNs int64) schema.MarketDataEvent {
	i := f.index
	f.index = (f.index + 1) % len(f.cfg.Symbols)

	f.prices[i] += (f.rng.Float64()*2 - 1) * f.cfg.Spread
	if f.prices[i] < f.cfg.Spread*2 {
		// Keep the walk above the spread so quotes stay positive.
		f.prices[i] = f.cfg.Spread * 2
	}
	price := f.prices[i]

	return schema.MarketDataEvent{
		TimestampNs: nowNs,
		Symbol:      f.cfg.Symbols[i],
		Price:       price,
		Volume:      f.rng.Float64() * f.cfg.MaxSize,
		BidPrice:    price - f.cfg.Spread,
		BidSize:     f.rng.Float64() * f.cfg.MaxSize,
		AskPrice:    price + f.cfg.Spread,
		AskSize:     f.rng.Float64() * f.cfg.MaxSize,
	}
}

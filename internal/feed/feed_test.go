package feed

import (
	"testing"

	"main/internal/schema"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		desc    string
		cfg     Config
		wantErr bool
	}{
		{desc: "defaults valid", cfg: DefaultConfig()},
		{desc: "negative base price", cfg: Config{BasePrice: -1, Spread: 0.1, MaxSize: 1, Symbols: []string{"X"}}, wantErr: true},
		{desc: "negative spread", cfg: Config{BasePrice: 1, Spread: -0.1, MaxSize: 1, Symbols: []string{"X"}}, wantErr: true},
		{desc: "negative max size", cfg: Config{BasePrice: 1, Spread: 0.1, MaxSize: -1, Symbols: []string{"X"}}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNextRoundRobinsSymbols(t *testing.T) {
	f, err := New(Config{Symbols: []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, Seed: 1})
	if err != nil {
		t.Fatalf("new feed: %v", err)
	}

	want := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "BTCUSDT", "ETHUSDT", "SOLUSDT"}
	for i, symbol := range want {
		tick := f.Next(int64(i))
		if tick.Symbol != symbol {
			t.Fatalf("symbol mismatch at %d: got %s, want %s", i, tick.Symbol, symbol)
		}
		if tick.TimestampNs != int64(i) {
			t.Fatalf("timestamp mismatch at %d: got %d", i, tick.TimestampNs)
		}
	}
}

func TestNextQuotesStayPositive(t *testing.T) {
	f, err := New(Config{Symbols: []string{"BTCUSDT"}, BasePrice: 0.2, Spread: 0.1, Seed: 7})
	if err != nil {
		t.Fatalf("new feed: %v", err)
	}

	for i := 0; i < 10000; i++ {
		tick := f.Next(int64(i))
		if tick.BidPrice <= 0 {
			t.Fatalf("bid went non-positive at %d: %v", i, tick.BidPrice)
		}
		if tick.AskPrice <= tick.BidPrice {
			t.Fatalf("crossed quote at %d: bid %v ask %v", i, tick.BidPrice, tick.AskPrice)
		}
	}
}

func TestSeedDeterminism(t *testing.T) {
	cfg := Config{Symbols: []string{"BTCUSDT", "ETHUSDT"}, Seed: 99}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new feed: %v", err)
	}
	b, err := New(cfg)
	if err != nil {
		t.Fatalf("new feed: %v", err)
	}

	var ticksA, ticksB []schema.MarketDataEvent
	for i := 0; i < 100; i++ {
		ticksA = append(ticksA, a.Next(int64(i)))
		ticksB = append(ticksB, b.Next(int64(i)))
	}
	for i := range ticksA {
		if ticksA[i] != ticksB[i] {
			t.Fatalf("tick mismatch at %d: %+v vs %+v", i, ticksA[i], ticksB[i])
		}
	}
}

package chaos

import (
	"testing"
	"time"

	"main/internal/schema"
)

func envelopes(n int) []schema.Envelope {
	out := make([]schema.Envelope, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, schema.Envelope{
			ID:          uint64(i + 1),
			TimestampNs: int64(i+1) * int64(time.Millisecond),
			Priority:    schema.PriorityDefault,
			Event:       schema.MarketDataEvent{Symbol: "BTCUSDT", Price: float64(i + 1)},
		})
	}
	return out
}

func runAll(e *Engine, in []schema.Envelope) []schema.Envelope {
	var out []schema.Envelope
	for _, env := range in {
		out = append(out, e.Process(env)...)
	}
	return append(out, e.Flush()...)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		desc    string
		cfg     Config
		wantErr bool
	}{
		{desc: "zero chaos valid", cfg: Config{ReorderWindow: 1}},
		{desc: "drop rate above one", cfg: Config{DropRate: 1.5, ReorderWindow: 1}, wantErr: true},
		{desc: "negative duplicate rate", cfg: Config{DuplicateRate: -0.1, ReorderWindow: 1}, wantErr: true},
		{desc: "negative delay", cfg: Config{MaxDelay: -time.Second, ReorderWindow: 1}, wantErr: true},
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

func TestPassthroughPreservesOrder(t *testing.T) {
	e, err := NewEngine(Config{Seed: 1})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	in := envelopes(10)
	out := runAll(e, in)
	if len(out) != len(in) {
		t.Fatalf("length mismatch: got %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].ID != in[i].ID {
			t.Fatalf("order mismatch at %d: got id %d, want %d", i, out[i].ID, in[i].ID)
		}
	}
}

func TestDropRateOne(t *testing.T) {
	e, err := NewEngine(Config{Seed: 1, DropRate: 1})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	if out := runAll(e, envelopes(20)); len(out) != 0 {
		t.Fatalf("expected all events dropped, got %d", len(out))
	}
}

func TestDuplicateRateOne(t *testing.T) {
	e, err := NewEngine(Config{Seed: 1, DuplicateRate: 1})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	out := runAll(e, envelopes(5))
	if len(out) != 10 {
		t.Fatalf("length mismatch: got %d, want 10", len(out))
	}
	for i := 0; i < len(out); i += 2 {
		if out[i].ID != out[i+1].ID {
			t.Fatalf("duplicate pair mismatch at %d: %d vs %d", i, out[i].ID, out[i+1].ID)
		}
	}
}

func TestReorderWindowConservesEvents(t *testing.T) {
	e, err := NewEngine(Config{Seed: 42, ReorderWindow: 4})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	in := envelopes(20)
	out := runAll(e, in)
	if len(out) != len(in) {
		t.Fatalf("length mismatch: got %d, want %d", len(out), len(in))
	}
	seen := make(map[uint64]int, len(out))
	for _, env := range out {
		seen[env.ID]++
	}
	for _, env := range in {
		if seen[env.ID] != 1 {
			t.Fatalf("event %d seen %d times", env.ID, seen[env.ID])
		}
	}
}

func TestDelayShiftsWithinBound(t *testing.T) {
	e, err := NewEngine(Config{Seed: 7, MaxDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	in := envelopes(50)
	out := runAll(e, in)
	var shifted bool
	for i := range in {
		delta := out[i].TimestampNs - in[i].TimestampNs
		if delta < 0 || delta > int64(time.Millisecond) {
			t.Fatalf("delay out of bounds at %d: %d", i, delta)
		}
		if delta > 0 {
			shifted = true
		}
	}
	if !shifted {
		t.Fatal("expected at least one shifted timestamp")
	}
}

func TestSeedDeterminism(t *testing.T) {
	cfg := Config{Seed: 99, DropRate: 0.3, DuplicateRate: 0.2, ReorderWindow: 3, MaxDelay: time.Millisecond}
	a, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	b, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	outA := runAll(a, envelopes(50))
	outB := runAll(b, envelopes(50))
	if len(outA) != len(outB) {
		t.Fatalf("length mismatch: got %d and %d", len(outA), len(outB))
	}
	for i := range outA {
		if outA[i].ID != outB[i].ID || outA[i].TimestampNs != outB[i].TimestampNs {
			t.Fatalf("determinism mismatch at %d", i)
		}
	}
}

func TestNilEnginePassthrough(t *testing.T) {
	var e *Engine
	env := envelopes(1)[0]
	out := e.Process(env)
	if len(out) != 1 || out[0].ID != env.ID {
		t.Fatalf("nil engine mismatch: got %+v", out)
	}
	if got := e.Flush(); got != nil {
		t.Fatalf("nil engine flush mismatch: got %+v", got)
	}
}

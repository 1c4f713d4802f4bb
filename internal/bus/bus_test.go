package bus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func tick(ts int64, price float64) schema.MarketDataEvent {
	return schema.MarketDataEvent{TimestampNs: ts, Symbol: "ES", Price: price, Volume: 1}
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	b := New()
	sub := b.SubscribeMarketData()
	defer sub.Close()

	require.NoError(t, b.Publish(tick(1, 6000)))

	env, err := sub.Recv(t.Context())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), env.ID)
	assert.Equal(t, schema.PriorityDefault, env.Priority)
	assert.Positive(t, env.TimestampNs)

	md, ok := env.Event.(schema.MarketDataEvent)
	require.True(t, ok)
	assert.Equal(t, "ES", md.Symbol)
	assert.Equal(t, 6000.0, md.Price)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	b := New()
	require.NoError(t, b.Publish(tick(1, 6000)))

	stats, ok := b.TypeStats(schema.TypeMarketData)
	require.True(t, ok)
	assert.Equal(t, uint64(1), stats.Published)
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Zero(t, stats.Received)
}

func TestFanOutDeliversToAllSubscribers(t *testing.T) {
	b := New()
	subs := []*Subscription{
		b.SubscribeMarketData(),
		b.SubscribeMarketData(),
		b.SubscribeMarketData(),
	}

	require.NoError(t, b.Publish(tick(1, 42)))

	for _, sub := range subs {
		env, err := sub.Recv(t.Context())
		require.NoError(t, err)
		assert.Equal(t, uint64(1), env.ID)
		assert.Equal(t, 42.0, env.Event.(schema.MarketDataEvent).Price)

		_, err = sub.TryRecv()
		assert.ErrorIs(t, err, ErrNoEvent)
		sub.Close()
	}
}

func TestTypeIsolation(t *testing.T) {
	b := New()
	signals := b.SubscribeSignals()
	defer signals.Close()

	require.NoError(t, b.Publish(tick(1, 1)))

	_, err := signals.TryRecv()
	assert.ErrorIs(t, err, ErrNoEvent)
}

func TestEnvelopeIDsMonotonicPerBus(t *testing.T) {
	b := New()
	sub := b.SubscribeMarketData()
	defer sub.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Publish(tick(int64(i), float64(i))))
	}

	var last uint64
	for i := 0; i < 5; i++ {
		env, err := sub.Recv(t.Context())
		require.NoError(t, err)
		require.Greater(t, env.ID, last)
		last = env.ID
	}

	// each bus owns its counter
	other := New()
	otherSub := other.SubscribeMarketData()
	defer otherSub.Close()
	require.NoError(t, other.Publish(tick(9, 9)))
	env, err := otherSub.Recv(t.Context())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), env.ID)
}

func TestPublishPriorities(t *testing.T) {
	b := New()
	sub := b.SubscribeFills()
	defer sub.Close()
	pub := NewPublisher(b)

	fill := schema.FillEvent{FillID: 1, TimestampNs: 1, Symbol: "ES", Quantity: 1, Price: 6000}
	require.NoError(t, pub.Publish(fill))
	require.NoError(t, pub.PublishHighPriority(fill))
	require.NoError(t, pub.PublishLowPriority(fill))
	require.NoError(t, b.PublishWithPriority(fill, 42))

	want := []uint8{
		schema.PriorityDefault,
		schema.PriorityHighest,
		schema.PriorityLowest,
		schema.PriorityLowest, // clamped
	}
	for _, p := range want {
		env, err := sub.Recv(t.Context())
		require.NoError(t, err)
		assert.Equal(t, p, env.Priority)
	}
}

type haltEvent struct{}

func (haltEvent) EventType() string { return "Halt" }
func (haltEvent) Priority() uint8   { return schema.PriorityHighest }

func TestPayloadPriorityConsulted(t *testing.T) {
	b := New()
	sub := b.Subscribe("Halt")
	defer sub.Close()

	require.NoError(t, b.Publish(haltEvent{}))

	env, err := sub.Recv(t.Context())
	require.NoError(t, err)
	assert.Equal(t, schema.PriorityHighest, env.Priority)
}

func TestPublishNilEvent(t *testing.T) {
	b := New()
	assert.ErrorIs(t, b.Publish(nil), ErrNilEvent)
	assert.ErrorIs(t, b.PublishWithPriority(nil, 1), ErrNilEvent)
}

func TestRecordingMirrorsPublishes(t *testing.T) {
	b := NewRecording(16)
	require.NotNil(t, b.Recorder())
	sub := b.SubscribeMarketData()
	defer sub.Close()

	for i := 1; i <= 3; i++ {
		require.NoError(t, b.Publish(tick(int64(i), float64(i))))
	}

	events := b.Recorder().Events()
	require.Len(t, events, 3)
	assert.Equal(t, uint64(1), events[0].ID)
	assert.Equal(t, 3.0, events[2].Event.(schema.MarketDataEvent).Price)

	assert.Nil(t, New().Recorder())
}

func TestLazyCreationSingleWinner(t *testing.T) {
	b := New()
	subs := make([]*Subscription, 8)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				subs[i] = b.Subscribe(schema.TypeMarketData)
			} else {
				_ = b.Publish(tick(int64(i), float64(i)))
			}
		}(i)
	}
	wg.Wait()

	b.mu.RLock()
	assert.Len(t, b.channels, 1)
	b.mu.RUnlock()

	// every surviving subscriber hangs off the same channel
	require.NoError(t, b.Publish(tick(100, 999)))
	for i := 0; i < 8; i += 2 {
		var lastPrice float64
		for {
			env, err := subs[i].TryRecv()
			if err != nil {
				break
			}
			lastPrice = env.Event.(schema.MarketDataEvent).Price
		}
		assert.Equal(t, 999.0, lastPrice)
		subs[i].Close()
	}
}

func TestConcurrentPublishers(t *testing.T) {
	const (
		publishers   = 4
		perPublisher = 100
	)

	b := New()
	sub := b.SubscribeMarketData()
	defer sub.Close()

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				_ = b.Publish(tick(1, 1))
			}
		}()
	}
	wg.Wait()

	stats, ok := b.TypeStats(schema.TypeMarketData)
	require.True(t, ok)
	assert.Equal(t, uint64(publishers*perPublisher), stats.Published)
	assert.Zero(t, stats.Dropped)

	count := 0
	for {
		if _, err := sub.TryRecv(); err != nil {
			break
		}
		count++
	}
	assert.Equal(t, publishers*perPublisher, count)
}

func TestStatsSnapshot(t *testing.T) {
	b := New()
	require.NoError(t, b.Publish(tick(1, 1)))
	require.NoError(t, b.Publish(schema.SignalEvent{SignalID: 1, TimestampNs: 1, Symbol: "ES"}))

	stats := b.Stats()
	assert.Len(t, stats, 2)
	assert.Equal(t, uint64(1), stats[schema.TypeMarketData].Published)
	assert.Equal(t, uint64(1), stats[schema.TypeSignal].Published)

	_, ok := b.TypeStats("Bogus")
	assert.False(t, ok)
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"sync"
	"sync/atomic"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"

	"main/internal/bus"
	"main/internal/schema"
)

func main() {
	events := flag.Int("events", 1_000_000, "Events to publish per bus")
	subscribers := flag.Int("subscribers", 1, "Dynamic bus subscriber count")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disabled)")
	flag.Parse()

	if *events <= 0 {
		log.Fatalf("events must be > 0")
	}
	if *subscribers <= 0 {
		log.Fatalf("subscribers must be > 0")
	}

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "eventbus/bench",
			ServerAddress:   *pyroscopeAddr,
			Tags:            map[string]string{"env": "local"},
			Logger:          emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	benchDynamic(*events, *subscribers)
	benchTyped(*events)
}

func benchDynamic(n, subscribers int) {
	ctx := context.Background()
	b := bus.New()

	var delivered, skipped uint64
	var wg sync.WaitGroup
	subs := make([]*bus.Subscription, 0, subscribers)
	for i := 0; i < subscribers; i++ {
		sub := b.SubscribeMarketData()
		subs = append(subs, sub)
		wg.Add(1)
		go func(sub *bus.Subscription) {
			defer wg.Done()
			for {
				_, err := sub.Recv(ctx)
				if err != nil {
					var lagged *bus.LaggedError
					if errors.As(err, &lagged) {
						atomic.AddUint64(&skipped, lagged.Count)
						continue
					}
					return
				}
				atomic.AddUint64(&delivered, 1)
			}
		}(sub)
	}

	tick := schema.MarketDataEvent{TimestampNs: 1, Symbol: "BTCUSDT", Price: 100, Volume: 1}
	start := time.Now()
	for i := 0; i < n; i++ {
		if err := b.Publish(tick); err != nil {
			log.Fatalf("publish failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	for _, sub := range subs {
		sub.Close()
	}
	wg.Wait()

	log.Printf("dynamic bus: published=%d elapsed=%s rate=%.0f/s delivered=%d skipped=%d",
		n, elapsed, float64(n)/elapsed.Seconds(),
		atomic.LoadUint64(&delivered), atomic.LoadUint64(&skipped))
}

func benchTyped(n int) {
	tb := bus.NewTyped()
	rx := bus.Subscribe[schema.FillEvent](tb)
	defer rx.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			if _, err := rx.Recv(); err != nil {
				return
			}
		}
	}()

	fill := schema.FillEvent{FillID: 1, OrderID: 1, Symbol: "BTCUSDT", Side: schema.OrderSideBuy, Quantity: 1, Price: 100}
	start := time.Now()
	for i := 0; i < n; i++ {
		if err := bus.Publish(tb, fill); err != nil {
			log.Fatalf("typed publish failed: %v", err)
		}
	}
	<-done
	elapsed := time.Since(start)

	log.Printf("typed bus: published=%d elapsed=%s rate=%.0f/s", n, elapsed, float64(n)/elapsed.Seconds())
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"

	"main/internal/archive"
	"main/internal/bus"
	"main/internal/recorder"
	"main/internal/replay"
	"main/internal/schema"
)

func main() {
	capturePath := flag.String("capture", "testdata/capture.jsonl", "Capture file to replay")
	archiveDSN := flag.String("archive-dsn", "", "Load events from PostgreSQL instead of a capture file")
	startNs := flag.Int64("start", 0, "Archive range start in nanoseconds")
	endNs := flag.Int64("end", 0, "Archive range end in nanoseconds (0=unbounded)")
	speed := flag.String("speed", "max", "Replay speed: max|realtime|Nx")
	printEvents := flag.Bool("print", false, "Print each replayed event")
	progressInterval := flag.Int("progress-interval", 10000, "Events between progress lines")
	flag.Parse()

	ctx := context.Background()
	events, err := loadEvents(ctx, *capturePath, *archiveDSN, *startNs, *endNs)
	if err != nil {
		log.Fatalf("load failed: %v", err)
	}
	if len(events) == 0 {
		log.Fatalf("no events to replay")
	}

	b := bus.New()
	subs := []*bus.Subscription{
		b.SubscribeMarketData(),
		b.SubscribeSignals(),
		b.SubscribeFills(),
		b.SubscribeOrders(),
		b.SubscribeFeatures(),
	}

	counts := make(map[string]*uint64, len(subs))
	var skipped uint64
	var wg sync.WaitGroup
	for _, sub := range subs {
		var n uint64
		counts[sub.EventType()] = &n
		wg.Add(1)
		go func(sub *bus.Subscription, n *uint64) {
			defer wg.Done()
			for {
				if _, err := sub.Recv(ctx); err != nil {
					var lagged *bus.LaggedError
					if errors.As(err, &lagged) {
						atomic.AddUint64(&skipped, lagged.Count)
						continue
					}
					return
				}
				atomic.AddUint64(n, 1)
			}
		}(sub, &n)
	}

	eng := replay.NewBuilder(b).
		Speed(replay.ParseSpeed(*speed)).
		Events(events).
		ProgressInterval(*progressInterval).
		Build()
	if *printEvents {
		eng.OnEvent(func(i int, env schema.Envelope) {
			fmt.Printf("%06d id=%d type=%s ts=%d priority=%d\n",
				i+1, env.ID, env.Event.EventType(), env.TimestampNs, env.Priority)
		})
	}
	eng.OnProgress(func(p float64, i int) {
		log.Printf("progress: %3.0f%% (%d events)", p*100, i+1)
	})

	stats := eng.Run()
	for _, sub := range subs {
		sub.Close()
	}
	wg.Wait()

	for eventType, n := range counts {
		if delivered := atomic.LoadUint64(n); delivered > 0 {
			log.Printf("delivered: type=%s count=%d", eventType, delivered)
		}
	}
	log.Printf("replay stats: events=%d wall=%s virtual=%s rate=%.0f/s effective=%.1fx skipped=%d",
		stats.EventsReplayed, stats.WallTime, stats.VirtualSpan,
		stats.EventsPerSecond, stats.EffectiveSpeed, atomic.LoadUint64(&skipped))
}

func loadEvents(ctx context.Context, capturePath, archiveDSN string, startNs, endNs int64) ([]schema.Envelope, error) {
	if archiveDSN == "" {
		return recorder.LoadCapture(capturePath)
	}

	store, err := archive.OpenDSN(archiveDSN)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if endNs == 0 {
		endNs = math.MaxInt64
	}
	return store.LoadRange(ctx, startNs, endNs)
}

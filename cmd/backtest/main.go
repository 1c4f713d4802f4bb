package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/pkg/sys"

	"main/internal/archive"
	"main/internal/bus"
	"main/internal/feed"
	"main/internal/recorder"
	"main/internal/replay"
	"main/internal/schema"
)

func main() {
	ticks := flag.Int("ticks", 10000, "Number of ticks to generate")
	symbols := flag.String("symbols", "BTCUSDT,ETHUSDT", "Comma-separated symbol list")
	basePrice := flag.Float64("base-price", 100, "Base price for the random walk")
	spread := flag.Float64("spread", 0.05, "Bid/ask spread")
	maxSize := flag.Float64("max-size", 10, "Max tick size")
	seed := flag.Int64("seed", 0, "RNG seed (0=now)")
	interval := flag.Duration("interval", 0, "Delay between ticks")
	recorderCap := flag.Int("recorder-cap", 100000, "Recorder ring capacity")
	capturePath := flag.String("capture", "", "Write recorded events to a capture file")
	archiveDSN := flag.String("archive-dsn", "", "Archive recorded events to PostgreSQL")
	replaySpeed := flag.String("replay-speed", "max", "Replay speed: max|realtime|Nx")
	continuous := flag.Bool("continuous", false, "Generate until shutdown signal")
	flag.Parse()

	if *ticks <= 0 && !*continuous {
		log.Fatalf("ticks must be > 0")
	}

	f, err := feed.New(feed.Config{
		Symbols:   splitSymbols(*symbols),
		BasePrice: *basePrice,
		Spread:    *spread,
		MaxSize:   *maxSize,
		Seed:      *seed,
	})
	if err != nil {
		log.Fatalf("feed init failed: %v", err)
	}

	ctx := context.Background()
	b := bus.NewRecording(*recorderCap)

	sub := b.SubscribeMarketData()
	var consumed, skipped uint64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		consume(ctx, sub, &consumed, &skipped)
	}()

	published := generate(b, f, *ticks, *interval, *continuous)
	sub.Close()
	wg.Wait()

	events := b.Recorder().Events()
	log.Printf("generated: published=%d consumed=%d skipped=%d recorded=%d",
		published, atomic.LoadUint64(&consumed), atomic.LoadUint64(&skipped), len(events))

	if *capturePath != "" {
		if err := recorder.SaveCapture(*capturePath, events); err != nil {
			log.Fatalf("capture write failed: %v", err)
		}
		log.Printf("capture written: %s", *capturePath)
	}
	if *archiveDSN != "" {
		if err := archiveEvents(ctx, *archiveDSN, events); err != nil {
			log.Fatalf("archive failed: %v", err)
		}
		log.Printf("archived: records=%d", len(events))
	}

	runReplay(ctx, events, replay.ParseSpeed(*replaySpeed))

	for eventType, stats := range b.Stats() {
		log.Printf("bus stats: type=%s published=%d dropped=%d",
			eventType, stats.Published, stats.Dropped)
	}
}

func generate(b *bus.EventBus, f *feed.Feed, ticks int, interval time.Duration, continuous bool) int {
	count := 0
	for continuous || count < ticks {
		select {
		case <-sys.Shutdown():
			return count
		default:
		}
		if err := b.Publish(f.Next(time.Now().UTC().UnixNano())); err != nil {
			log.Fatalf("publish failed: %v", err)
		}
		count++
		if interval > 0 {
			time.Sleep(interval)
		}
	}
	return count
}

func runReplay(ctx context.Context, events []schema.Envelope, speed replay.Speed) {
	if len(events) == 0 {
		log.Printf("nothing to replay")
		return
	}

	rb := bus.New()
	sub := rb.SubscribeMarketData()
	var delivered, skipped uint64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		consume(ctx, sub, &delivered, &skipped)
	}()

	eng := replay.NewBuilder(rb).Speed(speed).Events(events).Build()
	eng.OnProgress(func(p float64, _ int) {
		log.Printf("replay progress: %3.0f%%", p*100)
	})
	stats := eng.Run()
	sub.Close()
	wg.Wait()

	log.Printf("replay stats: events=%d wall=%s virtual=%s rate=%.0f/s effective=%.1fx delivered=%d skipped=%d",
		stats.EventsReplayed, stats.WallTime, stats.VirtualSpan,
		stats.EventsPerSecond, stats.EffectiveSpeed,
		atomic.LoadUint64(&delivered), atomic.LoadUint64(&skipped))
}

func consume(ctx context.Context, sub *bus.Subscription, consumed, skipped *uint64) {
	for {
		if _, err := sub.Recv(ctx); err != nil {
			var lagged *bus.LaggedError
			if errors.As(err, &lagged) {
				atomic.AddUint64(skipped, lagged.Count)
				continue
			}
			return
		}
		atomic.AddUint64(consumed, 1)
	}
}

func archiveEvents(ctx context.Context, dsn string, events []schema.Envelope) error {
	store, err := archive.OpenDSN(dsn)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(ctx, events)
}

func splitSymbols(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

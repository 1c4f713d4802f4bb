package main

import (
	"flag"
	"log"

	"main/internal/chaos"
	"main/internal/recorder"
	"main/internal/schema"
)

func main() {
	input := flag.String("input", "testdata/capture.jsonl", "Input capture file")
	output := flag.String("output", "testdata/capture_chaos.jsonl", "Output capture file")
	seed := flag.Int64("seed", 0, "RNG seed (0=now)")
	dropRate := flag.Float64("drop-rate", 0, "Drop probability [0-1]")
	dupRate := flag.Float64("dup-rate", 0, "Duplicate probability [0-1]")
	reorderWindow := flag.Int("reorder-window", 1, "Reorder window (>=1)")
	maxDelay := flag.Duration("max-delay", 0, "Max injected timestamp delay")
	flag.Parse()

	events, err := recorder.LoadCapture(*input)
	if err != nil {
		log.Fatalf("capture load failed: %v", err)
	}

	engine, err := chaos.NewEngine(chaos.Config{
		Seed:          *seed,
		DropRate:      *dropRate,
		DuplicateRate: *dupRate,
		ReorderWindow: *reorderWindow,
		MaxDelay:      *maxDelay,
	})
	if err != nil {
		log.Fatalf("chaos config invalid: %v", err)
	}

	out := make([]schema.Envelope, 0, len(events))
	for _, env := range events {
		out = append(out, engine.Process(env)...)
	}
	out = append(out, engine.Flush()...)

	if err := recorder.SaveCapture(*output, out); err != nil {
		log.Fatalf("capture write failed: %v", err)
	}
	log.Printf("chaos applied: in=%d out=%d output=%s", len(events), len(out), *output)
}

// Package main provides a performance benchmarking tool for the liferaft
// cache store. It measures snapshot write and read throughput across
// different store sizes and body sizes, treating the first read pass as
// cold and averaging the rest as warm, generating CSV output for
// performance analysis and documentation.
//
// The benchmark runs against a throwaway SQLite database in a temp
// directory, so it needs no running origin or proxy.
//
// Usage: go run benchmark/main.go [output.csv]
//
//	output.csv: Optional path for CSV results (defaults to stdout)
package main

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/liferaft/liferaft/internal/registry"
	"github.com/liferaft/liferaft/schema"
)

// BenchmarkResult holds the result of one scenario (write throughput,
// cold read latency and averaged warm read latency).
type BenchmarkResult struct {
	Entries      int
	BodyBytes    int
	WritesPerSec string
	ColdRead     string
	WarmRead     string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	ReadRuns   int
	EntrySizes []int
	BodySizes  []int
}

func main() {
	config := BenchmarkConfig{
		ReadRuns:   4,
		EntrySizes: []int{100, 1000, 5000},
		BodySizes:  []int{256, 4 << 10, 64 << 10},
	}

	results, err := runBenchmarks(config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	out := os.Stdout
	if len(os.Args) == 2 {
		f, err := os.Create(os.Args[1])
		if err != nil {
			fmt.Printf("Cannot create %s: %v\n", os.Args[1], err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	w := csv.NewWriter(out)
	_ = w.Write([]string{"entries", "body_bytes", "writes_per_sec", "cold_read", "warm_read"})
	for _, r := range results {
		_ = w.Write([]string{
			fmt.Sprintf("%d", r.Entries),
			fmt.Sprintf("%d", r.BodyBytes),
			r.WritesPerSec,
			r.ColdRead,
			r.WarmRead,
		})
	}
	w.Flush()
}

// runBenchmarks executes every entries x body-size scenario against a
// fresh store.
func runBenchmarks(config BenchmarkConfig) ([]BenchmarkResult, error) {
	tempDir, err := os.MkdirTemp("", "liferaft-benchmark-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var results []BenchmarkResult
	for _, entries := range config.EntrySizes {
		for _, bodySize := range config.BodySizes {
			fmt.Fprintf(os.Stderr, "Running %d entries x %d byte bodies...\n", entries, bodySize)
			result, err := runScenario(tempDir, entries, bodySize, config.ReadRuns)
			if err != nil {
				return nil, err
			}
			results = append(results, result)
		}
	}
	return results, nil
}

// runScenario fills one store and times writes and reads.
func runScenario(tempDir string, entries, bodySize, readRuns int) (BenchmarkResult, error) {
	dbPath := filepath.Join(tempDir, fmt.Sprintf("bench-%d-%d.db", entries, bodySize))
	db, _, err := registry.OpenDatabase(schema.SQLiteBackend, dbPath)
	if err != nil {
		return BenchmarkResult{}, err
	}
	defer func() { _ = db.Close() }()

	reg, err := registry.NewRegistry(db, schema.SQLiteBackend, dbPath)
	if err != nil {
		return BenchmarkResult{}, err
	}

	store, err := reg.Open("assets-v1")
	if err != nil {
		return BenchmarkResult{}, err
	}

	body := make([]byte, bodySize)
	for i := range body {
		body[i] = byte('a' + i%26)
	}
	snap := &schema.ResponseSnapshot{
		Status:     http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/plain"}},
		Body:       body,
		CapturedAt: time.Now().Unix(),
	}

	keys := make([]string, entries)
	for i := range keys {
		keys[i] = fmt.Sprintf("GET http://origin.local:8080/asset-%d", i)
	}

	// Write pass
	writeStart := time.Now()
	for _, key := range keys {
		if err := store.Put(key, snap); err != nil {
			return BenchmarkResult{}, err
		}
	}
	writeElapsed := time.Since(writeStart)
	writesPerSec := float64(entries) / writeElapsed.Seconds()

	// Read passes: first is cold, the rest average to warm
	var cold, warmTotal time.Duration
	for run := range readRuns {
		start := time.Now()
		for _, key := range keys {
			if _, err := store.Match(key); err != nil {
				return BenchmarkResult{}, err
			}
		}
		elapsed := time.Since(start)
		if run == 0 {
			cold = elapsed
		} else {
			warmTotal += elapsed
		}
	}
	warm := warmTotal / time.Duration(readRuns-1)

	return BenchmarkResult{
		Entries:      entries,
		BodyBytes:    bodySize,
		WritesPerSec: fmt.Sprintf("%.0f", writesPerSec),
		ColdRead:     cold.Round(time.Millisecond).String(),
		WarmRead:     warm.Round(time.Millisecond).String(),
	}, nil
}

package main

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/memkit/memkit/alloc"
	"github.com/spf13/cobra"
)

var (
	benchOps     int
	benchMaxSize int
	benchSeed    int64
	benchLive    int
)

func init() {
	cmd := newBenchCmd()
	cmd.Flags().IntVar(&benchOps, "ops", 100000, "Number of allocator operations")
	cmd.Flags().IntVar(&benchMaxSize, "max-size", 128*1024, "Largest request size in bytes")
	cmd.Flags().IntVar(&benchLive, "live", 1024, "Target number of live blocks")
	cmd.Flags().Int64Var(&benchSeed, "seed", 1, "Workload RNG seed")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Run a synthetic workload and report allocator statistics",
		Long: `The bench command drives the allocator with a randomized
alloc/free/realloc mix and prints the resulting statistics.

Example:
  memstat bench
  memstat bench --ops 1000000 --max-size 262144
  memstat bench --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench()
		},
	}
}

// BenchReport is the JSON shape of a bench run.
type BenchReport struct {
	Ops       int
	MaxSize   int
	Seed      int64
	Duration  time.Duration
	OpsPerSec float64

	Stats alloc.Stats
}

func runBench() error {
	a, err := alloc.New(nil)
	if err != nil {
		return fmt.Errorf("create allocator: %w", err)
	}
	defer a.Close()

	printVerbose("Running %d operations, max size %d, seed %d\n",
		benchOps, benchMaxSize, benchSeed)

	rng := rand.New(rand.NewSource(benchSeed))
	live := make([][]byte, 0, benchLive)
	start := time.Now()

	for i := 0; i < benchOps; i++ {
		switch {
		case len(live) < benchLive && rng.Intn(3) != 0:
			size := 1 + rng.Intn(benchMaxSize)
			b, err := a.Alloc(size, alloc.Tag(i))
			if err != nil {
				// Exhaustion under an oversized workload is expected;
				// shed some live blocks and keep going.
				printVerbose("alloc %d: %v, shedding\n", size, err)
				live = shed(a, live, rng)
				continue
			}
			live = append(live, b)
		case len(live) > 0 && rng.Intn(4) == 0:
			j := rng.Intn(len(live))
			b, err := a.Realloc(live[j], 1+rng.Intn(benchMaxSize))
			if errors.Is(err, alloc.ErrExhausted) || errors.Is(err, alloc.ErrRegistryFull) {
				printVerbose("realloc: %v, shedding\n", err)
				live = shed(a, live, rng)
				continue
			}
			if err != nil {
				return fmt.Errorf("realloc: %w", err)
			}
			live[j] = b
		case len(live) > 0:
			j := rng.Intn(len(live))
			if err := a.Free(live[j]); err != nil {
				return fmt.Errorf("free: %w", err)
			}
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}
	for _, b := range live {
		if err := a.Free(b); err != nil {
			return fmt.Errorf("final free: %w", err)
		}
	}
	elapsed := time.Since(start)

	if err := a.Validate(); err != nil {
		return fmt.Errorf("post-run validation: %w", err)
	}

	report := BenchReport{
		Ops:       benchOps,
		MaxSize:   benchMaxSize,
		Seed:      benchSeed,
		Duration:  elapsed,
		OpsPerSec: float64(benchOps) / elapsed.Seconds(),
		Stats:     a.Stats(),
	}

	if jsonOut {
		return printJSON(report)
	}

	s := report.Stats
	printInfo("Bench: %d ops in %s (%.0f ops/sec)\n\n", benchOps, elapsed, report.OpsPerSec)
	printInfo("Activity:\n")
	printInfo("  Allocations:   %d (%s)\n", s.TotalAllocations, formatBytes(int64(s.BytesAllocated)))
	printInfo("  Deallocations: %d (%s)\n", s.TotalDeallocations, formatBytes(int64(s.BytesDeallocated)))
	printInfo("  Reallocations: %d (%s)\n\n", s.TotalReallocations, formatBytes(int64(s.BytesReallocated)))
	printInfo("Free lists:\n")
	printInfo("  Cache hits:   %d\n", s.CacheHits)
	printInfo("  Cache misses: %d\n", s.CacheMisses)
	if total := s.CacheHits + s.CacheMisses; total > 0 {
		printInfo("  Hit rate:     %.1f%%\n", float64(s.CacheHits)*100/float64(total))
	}
	printInfo("\nLarge objects:\n")
	printInfo("  Remap moves:  %d\n", s.RemapMoves)
	printInfo("  Remap copies: %d\n", s.RemapCopies)
	printInfo("\nPool:\n")
	printInfo("  Used:          %s of %s\n",
		formatBytes(int64(s.PoolUsed)), formatBytes(int64(s.PoolCapacity)))
	printInfo("  Fragmentation: %.1f%%\n", s.FragmentationRatio*100)
	return nil
}

// shed frees a random half of the live set after an exhaustion error.
func shed(a *alloc.Allocator, live [][]byte, rng *rand.Rand) [][]byte {
	for i := 0; i < len(live); {
		if rng.Intn(2) == 0 {
			_ = a.Free(live[i])
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
			continue
		}
		i++
	}
	return live
}

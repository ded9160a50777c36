package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/dShop/cmd/util"
	"github.com/ValentinKolb/dShop/lib/query"
	"github.com/ValentinKolb/dShop/lib/shop"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	benchCmd = &cobra.Command{
		Use:     "bench",
		Short:   "Benchmark catalogue queries against the current data",
		PreRunE: processBenchConfig,
		RunE:    util.ShopRunE(runBench),
	}
	benchThreads = 10
	benchSkip    = make([]string, 0)
)

// benchCases are the query mixes measured by bench
var benchCases = []struct {
	name   string
	params query.Params
}{
	{"all", query.Params{}},
	{"newest", query.Params{Sort: query.SortNewest}},
	{"name-asc", query.Params{Sort: query.SortNameAsc}},
	{"text", query.Params{Query: "samsung", Sort: query.SortNameAsc}},
	{"department", query.Params{Slug: "informatica", InStockOnly: true}},
	{"last-page", query.Params{Page: 2}},
}

func init() {
	key := "skip"
	benchCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. text,newest)"))
	key = "threads"
	benchCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "csv"
	benchCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	benchThreads = viper.GetInt("threads")
	benchSkip = strings.Split(viper.GetString("skip"), ",")
	return nil
}

func runBench(_ context.Context, cmd *cobra.Command, _ []string, s *shop.Shop) error {
	fmt.Println("Benchmark of catalogue queries")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetConfig().String())
	fmt.Printf("Threads: %d\n", benchThreads)
	fmt.Println()

	engine := query.NewEngine(query.FromTables(s.Products, s.Categories, s.Departments))
	results := make(map[string]testing.BenchmarkResult)
	registry := gometrics.NewRegistry()

	for _, bc := range benchCases {
		timer := gometrics.GetOrRegisterTimer(bc.name, registry)
		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(bc.name) {
				return
			}
			b.SetParallelism(benchThreads)
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					start := time.Now()
					if _, err := engine.Query(bc.params); err != nil {
						b.Errorf("(%s) - query failed: %v", bc.name, err)
						return
					}
					timer.UpdateSince(start)
				}
			})
		})
		results[bc.name] = result
		printResult(bc.name, result, timer.Snapshot())
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	for _, skip := range benchSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult, timer gometrics.Timer) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-14sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)
	ps := timer.Percentiles([]float64{0.5, 0.99})

	fmt.Printf("%-14s%.0fns/op (%s/op)\t%.0f ops/sec\tp50 %s\tp99 %s\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec, time.Duration(ps[0]), time.Duration(ps[1]))
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped", "Threads", "Codec", "Shards"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	cfg := util.GetConfig()
	for test, result := range results {
		var nsPerOp, opsPerSec float64
		skipped := "true"
		if result.NsPerOp() != 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			strconv.Itoa(benchThreads),
			cfg.Codec,
			strconv.Itoa(cfg.Shards),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}
	return nil
}

// README: Smoke and concurrency runner against a live ridebook API; prints PASS/FAIL per case.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

func main() {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	bench := NewRunner(cfg)
	results := bench.RunAll(ctx)

	fmt.Println("\n== Summary ==")
	pass, fail, skipped := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case statusPass:
			pass++
		case statusFail:
			fail++
		case statusSkip:
			skipped++
		}
	}
	fmt.Printf("PASS=%d FAIL=%d SKIP=%d\n", pass, fail, skipped)

	if fail > 0 || (cfg.Strict && skipped > 0) {
		os.Exit(1)
	}
}

type Config struct {
	BaseURL     string
	DSN         string
	RedisAddr   string
	Strict      bool
	Timeout     time.Duration
	Concurrency int
	Duration    time.Duration
	CustomerID  int64
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "base-url", envOrDefault("RIDEBOOK_BENCH_BASE_URL", "http://localhost:8080"), "API base URL")
	flag.StringVar(&cfg.DSN, "dsn", envOrDefault("RIDEBOOK_DB_DSN", ""), "Postgres DSN (optional)")
	flag.StringVar(&cfg.RedisAddr, "redis", envOrDefault("RIDEBOOK_REDIS_ADDR", ""), "Redis address (optional)")
	flag.BoolVar(&cfg.Strict, "strict", cast.ToBool(envOrDefault("RIDEBOOK_BENCH_STRICT", "false")), "Fail on skipped cases")
	flag.DurationVar(&cfg.Timeout, "timeout", cast.ToDuration(envOrDefault("RIDEBOOK_BENCH_TIMEOUT", "60s")), "Total timeout")
	flag.IntVar(&cfg.Concurrency, "concurrency", cast.ToInt(envOrDefault("RIDEBOOK_BENCH_CONCURRENCY", "8")), "Parallel accepts / creators")
	flag.DurationVar(&cfg.Duration, "duration", cast.ToDuration(envOrDefault("RIDEBOOK_BENCH_DURATION", "5s")), "Duration of the create throughput case")
	flag.Int64Var(&cfg.CustomerID, "customer", cast.ToInt64(envOrDefault("RIDEBOOK_BENCH_CUSTOMER", "1001")), "Customer id used for bookings")
	flag.Parse()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Concurrency < 2 {
		cfg.Concurrency = 2
	}
	return cfg
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fleura/storefront/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional, defaults to ~/.config/fleura/config.toml)")
	envPath := flag.String("env", "", "dotenv file with SHOPIFY_* overrides (optional, defaults to ./.env)")
	syncSeconds := flag.Int("sync", 0, "cart reconcile interval in seconds (optional, defaults to 10s)")
	metricsAddr := flag.String("metrics", "", "serve Prometheus metrics on this address (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath:  *configPath,
		EnvPath:     *envPath,
		MetricsAddr: *metricsAddr,
	}
	if sync := *syncSeconds; sync > 0 {
		opts.SyncEvery = sync
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "fleura: %v\n", err)
		return 1
	}
	return 0
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"

	"github.com/btstats/ttwarehouse/internal/app"
	"github.com/btstats/ttwarehouse/internal/config"
	"github.com/btstats/ttwarehouse/internal/observability"
	"github.com/btstats/ttwarehouse/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	os.Exit(run(cfg))
}

func run(cfg config.Config) int {
	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init tracing failed", "error", err)
		return 1
	}
	defer func() {
		_ = shutdownTracing(context.Background())
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("build app failed", "error", err)
		return 1
	}
	defer func() {
		_ = application.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, runErr := application.Pipeline.Run(ctx, app.StagesFromConfig(cfg))
	printReport(report)
	if runErr != nil {
		logger.Error("pipeline run failed", "error", runErr)
		return 1
	}
	return 0
}

func printReport(report any) {
	out, err := sonic.ConfigDefault.MarshalIndent(report, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(out))
}

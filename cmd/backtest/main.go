package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/argo-backtest/internal/backtest"
	"github.com/rxtech-lab/argo-backtest/internal/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("schema") {
		config := backtest.EmptyConfig()

		schema, err := config.GenerateSchemaJSON()
		if err != nil {
			return err
		}

		fmt.Println(schema)

		return nil
	}

	configPath := cmd.String("config")
	if configPath == "" {
		return fmt.Errorf("--config is required")
	}

	level := zapcore.InfoLevel
	if cmd.Bool("debug") {
		level = zapcore.DebugLevel
	}

	log, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	config, err := backtest.LoadConfig(configPath)
	if err != nil {
		return err
	}

	ds, err := datasource.NewDataSource(":memory:", log)
	if err != nil {
		return err
	}
	defer ds.Close()

	runner, err := backtest.NewRunner(config, ds, log)
	if err != nil {
		return err
	}

	runner.SetOnSymbolDone(func(report types.MetricsReport) {
		log.Info("Results written",
			zap.String("symbol", report.Symbol),
			zap.String("equity", report.EquityFilePath),
		)
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = runner.Run(ctx)

	return err
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Version: version.GetVersion(),
		Usage:   "Backtest a long/flat signal generator on daily bars",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the backtest `YAML` configuration",
			},
			&cli.BoolFlag{
				Name:  "schema",
				Usage: "Print the JSON schema of the configuration and exit",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

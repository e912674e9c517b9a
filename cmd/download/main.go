package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// downloadAction builds a DownloadConfig from the flags and runs the download.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("schema") {
		schema, err := marketdata.GetDownloadConfigSchema()
		if err != nil {
			return err
		}

		fmt.Println(schema)

		return nil
	}

	config := marketdata.DownloadConfig{
		Provider:     cmd.String("provider"),
		Ticker:       cmd.String("ticker"),
		StartDate:    cmd.String("start"),
		EndDate:      cmd.String("end"),
		DataPath:     cmd.String("data"),
		ApiKey:       os.Getenv("POLYGON_API_KEY"),
		ForceRefresh: cmd.Bool("force"),
	}

	if err := config.Validate(); err != nil {
		return err
	}

	params, err := config.ToDownloadParams()
	if err != nil {
		return err
	}

	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	client, err := marketdata.NewClient(config.ToClientConfig(), log, nil)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	path, err := client.Download(ctx, params)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	log.Info("Download completed", zap.String("path", path))

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "download",
		Version: version.GetVersion(),
		Usage:   "Download daily bars into the parquet cache",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "ticker",
				Aliases: []string{"t"},
				Usage:   "Ticker symbol",
			},
			&cli.StringFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format (or RFC3339)",
			},
			&cli.StringFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format (or RFC3339)",
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider to use (%s, %s)", marketdata.ProviderPolygon, marketdata.ProviderBinance),
				Value:   string(marketdata.ProviderPolygon),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data output directory",
				Value:   "data",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Download again even if the cache file exists",
			},
			&cli.BoolFlag{
				Name:  "schema",
				Usage: "Print the JSON schema of the download configuration and exit",
			},
		},
		Action: downloadAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

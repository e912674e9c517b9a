// Package marketdata downloads daily bars into a local parquet cache.
package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// ProviderType defines the type of market data provider.
type ProviderType = provider.ProviderType

const (
	ProviderPolygon = provider.ProviderPolygon
	ProviderBinance = provider.ProviderBinance
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  ProviderType `validate:"required,oneof=polygon binance"`
	DataPath      string       `validate:"required"`
	PolygonApiKey string       `validate:"required_if=ProviderType polygon"`
	// ForceRefresh downloads again even when the cache file exists.
	ForceRefresh bool
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Ticker    string    `validate:"required"`
	StartDate time.Time `validate:"required"`
	EndDate   time.Time `validate:"required,gtfield=StartDate"`
}

// Client downloads daily bars from a provider and stores them as parquet files
// under the configured data path.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnDownloadProgress
	logger     *logger.Logger
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, log *logger.Logger, onProgress provider.OnDownloadProgress) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	marketProvider, err := provider.NewMarketDataProvider(config.ProviderType, config.PolygonApiKey)
	if err != nil {
		return nil, err
	}

	return newClientWithProvider(config, marketProvider, log, onProgress), nil
}

func newClientWithProvider(config ClientConfig, p provider.Provider, log *logger.Logger, onProgress provider.OnDownloadProgress) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Client{
		provider:   p,
		config:     config,
		validate:   validator.New(),
		onProgress: onProgress,
		logger:     log,
	}
}

// OutputPath returns the cache file for params: TICKER_START_END_1d.parquet.
func (c *Client) OutputPath(params DownloadParams) string {
	fileName := fmt.Sprintf("%s_%s_%s_1d.parquet",
		strings.ToUpper(params.Ticker),
		params.StartDate.Format(time.DateOnly),
		params.EndDate.Format(time.DateOnly),
	)

	return filepath.Join(c.config.DataPath, fileName)
}

// Download fetches daily bars for params and returns the parquet path. An
// existing cache file is reused unless ForceRefresh is set.
// The context can be used to cancel the download operation.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	outputPath := c.OutputPath(params)
	log := c.logger.ForSymbol(params.Ticker)

	if !c.config.ForceRefresh {
		if _, err := os.Stat(outputPath); err == nil {
			log.Info("Using cached market data", zap.String("path", outputPath))

			return outputPath, nil
		}
	}

	if err := os.MkdirAll(c.config.DataPath, 0755); err != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create data directory %s", c.config.DataPath)
	}

	c.provider.ConfigWriter(writer.NewDuckDBWriter(outputPath))

	log.Info("Downloading market data",
		zap.String("provider", string(c.config.ProviderType)),
		zap.Time("start", params.StartDate),
		zap.Time("end", params.EndDate),
	)

	path, err := c.provider.Download(ctx, params.Ticker, params.StartDate, params.EndDate, c.onProgress)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "download failed for %s", params.Ticker)
	}

	log.Info("Market data saved", zap.String("path", path))

	return path, nil
}

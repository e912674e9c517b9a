package marketdata

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// DownloadConfig is the user-facing description of a download, as passed to
// the download command or as JSON.
type DownloadConfig struct {
	Provider     string `json:"provider" jsonschema:"title=Provider,description=Market data provider,enum=polygon,enum=binance,required" validate:"required,oneof=polygon binance"`
	Ticker       string `json:"ticker" jsonschema:"title=Ticker,description=The trading symbol to download data for (e.g. SPY or BTCUSDT),required" validate:"required"`
	StartDate    string `json:"startDate" jsonschema:"title=Start Date,description=First day to download (YYYY-MM-DD or RFC3339),required" validate:"required"`
	EndDate      string `json:"endDate" jsonschema:"title=End Date,description=Last day to download (YYYY-MM-DD or RFC3339),required" validate:"required"`
	DataPath     string `json:"dataPath" jsonschema:"title=Data Path,description=Directory for the parquet cache,default=data" validate:"required"`
	ApiKey       string `json:"apiKey,omitempty" jsonschema:"title=API Key,description=Polygon.io API key for authentication" validate:"required_if=Provider polygon"`
	ForceRefresh bool   `json:"forceRefresh,omitempty" jsonschema:"title=Force Refresh,description=Download again even if the cache file exists"`
}

// Validate checks required fields, date formats and date order.
func (c *DownloadConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	_, err := c.ToDownloadParams()

	return err
}

// ToDownloadParams parses the dates into DownloadParams.
func (c *DownloadConfig) ToDownloadParams() (DownloadParams, error) {
	startDate, err := ParseDate(c.StartDate)
	if err != nil {
		return DownloadParams{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid startDate", err)
	}

	endDate, err := ParseDate(c.EndDate)
	if err != nil {
		return DownloadParams{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid endDate", err)
	}

	if !endDate.After(startDate) {
		return DownloadParams{}, errors.New(errors.ErrCodeInvalidConfiguration, "endDate must be after startDate")
	}

	return DownloadParams{
		Ticker:    c.Ticker,
		StartDate: startDate,
		EndDate:   endDate,
	}, nil
}

// ToClientConfig converts the download config to a ClientConfig.
func (c *DownloadConfig) ToClientConfig() ClientConfig {
	return ClientConfig{
		ProviderType:  ProviderType(c.Provider),
		DataPath:      c.DataPath,
		PolygonApiKey: c.ApiKey,
		ForceRefresh:  c.ForceRefresh,
	}
}

// ParseDownloadConfig parses and validates a JSON download configuration.
func ParseDownloadConfig(jsonConfig string) (*DownloadConfig, error) {
	var config DownloadConfig
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse JSON config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the time in UTC.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}

	return t.UTC(), nil
}

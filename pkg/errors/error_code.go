package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidInputType     ErrorCode = 102
	ErrCodeMissingParameter     ErrorCode = 103

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202

	// Strategy errors (400-499)
	ErrCodeUnsupportedStrategy ErrorCode = 400

	// Backtest errors (600-699)
	ErrCodeBacktestNoResultsDir ErrorCode = 600
	ErrCodeBacktestWriteFailed  ErrorCode = 601

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidProvider       ErrorCode = 703
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:               "unknown",
	ErrCodeInvalidParameter:      "invalid_parameter",
	ErrCodeInvalidConfiguration:  "invalid_configuration",
	ErrCodeInvalidInputType:      "invalid_input_type",
	ErrCodeMissingParameter:      "missing_parameter",
	ErrCodeDataNotFound:          "data_not_found",
	ErrCodeDataSourceUnavailable: "data_source_unavailable",
	ErrCodeQueryFailed:           "query_failed",
	ErrCodeUnsupportedStrategy:   "unsupported_strategy",
	ErrCodeBacktestNoResultsDir:  "backtest_no_results_dir",
	ErrCodeBacktestWriteFailed:   "backtest_write_failed",
	ErrCodeMarketDataFetchFailed: "market_data_fetch_failed",
	ErrCodeMarketDataWriteFailed: "market_data_write_failed",
	ErrCodeMarketDataParseFailed: "market_data_parse_failed",
	ErrCodeInvalidProvider:       "invalid_provider",
}

// String returns the snake_case name of the code, used as a structured log field.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}

	return "unknown"
}

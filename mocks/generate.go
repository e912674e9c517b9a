package mocks

//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/argo-backtest/internal/datasource DataSource
//go:generate mockgen -destination=./mock_signal_generator.go -package=mocks github.com/rxtech-lab/argo-backtest/internal/strategy SignalGenerator
//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/argo-backtest/pkg/marketdata/provider Provider

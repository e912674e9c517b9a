package backtest

import (
	"encoding/json"
	"os"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/simulation"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultResultsFolder    = "results"
	DefaultDecimalPrecision = 4
)

// StrategyConfig selects a signal generator from the registry.
type StrategyConfig struct {
	Name   string         `yaml:"name" json:"name" jsonschema:"title=Name,description=Registered signal generator name" validate:"required"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty" jsonschema:"title=Params,description=Generator parameters (sma_crossover takes short and long)"`
}

type Config struct {
	Symbols          []string                   `yaml:"symbols" json:"symbols" jsonschema:"title=Symbols,description=Symbols to backtest,minItems=1" validate:"required,min=1,dive,required"`
	DataPath         string                     `yaml:"data_path" json:"data_path" jsonschema:"title=Data Path,description=Parquet or csv file with daily bars" validate:"required"`
	RiskFreePath     string                     `yaml:"risk_free_path,omitempty" json:"risk_free_path,omitempty" jsonschema:"title=Risk-Free Path,description=Optional csv of annualized risk-free rates in percent"`
	CostBps          float64                    `yaml:"cost_bps" json:"cost_bps" jsonschema:"title=Cost (bps),description=Round-trip transaction cost in basis points,default=10"`
	Strategy         StrategyConfig             `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy"`
	StartTime        optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime          optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	ResultsFolder    string                     `yaml:"results_folder" json:"results_folder" jsonschema:"title=Results Folder,default=results" validate:"required"`
	DecimalPrecision int32                      `yaml:"decimal_precision" json:"decimal_precision" jsonschema:"title=Decimal Precision,description=Decimal places of reported metrics,default=4,minimum=0,maximum=12" validate:"gte=0,lte=12"`
	Benchmark        bool                       `yaml:"benchmark" json:"benchmark" jsonschema:"title=Benchmark,description=Also report buy-and-hold metrics over the same dates"`
}

// UnmarshalYAML implements custom unmarshaling for Config. Fields missing from
// the document keep the EmptyConfig defaults.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type rawConfig struct {
		Symbols          []string       `yaml:"symbols"`
		DataPath         string         `yaml:"data_path"`
		RiskFreePath     string         `yaml:"risk_free_path"`
		CostBps          *float64       `yaml:"cost_bps"`
		Strategy         StrategyConfig `yaml:"strategy"`
		StartTime        *time.Time     `yaml:"start_time"`
		EndTime          *time.Time     `yaml:"end_time"`
		ResultsFolder    string         `yaml:"results_folder"`
		DecimalPrecision *int32         `yaml:"decimal_precision"`
		Benchmark        bool           `yaml:"benchmark"`
	}

	var raw rawConfig
	if err := value.Decode(&raw); err != nil {
		return err
	}

	*c = EmptyConfig()

	c.Symbols = raw.Symbols
	c.DataPath = raw.DataPath
	c.RiskFreePath = raw.RiskFreePath
	c.Benchmark = raw.Benchmark

	if raw.Strategy.Name != "" {
		c.Strategy = raw.Strategy
	}

	if raw.CostBps != nil {
		c.CostBps = *raw.CostBps
	}

	if raw.StartTime != nil {
		c.StartTime = optional.Some(*raw.StartTime)
	}

	if raw.EndTime != nil {
		c.EndTime = optional.Some(*raw.EndTime)
	}

	if raw.ResultsFolder != "" {
		c.ResultsFolder = raw.ResultsFolder
	}

	if raw.DecimalPrecision != nil {
		c.DecimalPrecision = *raw.DecimalPrecision
	}

	return nil
}

// MarshalYAML writes the optional times as plain timestamps.
func (c Config) MarshalYAML() (any, error) {
	type rawConfig struct {
		Symbols          []string       `yaml:"symbols"`
		DataPath         string         `yaml:"data_path"`
		RiskFreePath     string         `yaml:"risk_free_path,omitempty"`
		CostBps          float64        `yaml:"cost_bps"`
		Strategy         StrategyConfig `yaml:"strategy"`
		StartTime        *time.Time     `yaml:"start_time,omitempty"`
		EndTime          *time.Time     `yaml:"end_time,omitempty"`
		ResultsFolder    string         `yaml:"results_folder"`
		DecimalPrecision int32          `yaml:"decimal_precision"`
		Benchmark        bool           `yaml:"benchmark"`
	}

	raw := rawConfig{
		Symbols:          c.Symbols,
		DataPath:         c.DataPath,
		RiskFreePath:     c.RiskFreePath,
		CostBps:          c.CostBps,
		Strategy:         c.Strategy,
		ResultsFolder:    c.ResultsFolder,
		DecimalPrecision: c.DecimalPrecision,
		Benchmark:        c.Benchmark,
	}

	if c.StartTime.IsSome() {
		start := c.StartTime.Unwrap()
		raw.StartTime = &start
	}

	if c.EndTime.IsSome() {
		end := c.EndTime.Unwrap()
		raw.EndTime = &end
	}

	return raw, nil
}

// Validate checks required fields and the time range.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest configuration", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "end_time must not be before start_time")
	}

	return nil
}

// ParseConfig parses and validates a YAML configuration.
func ParseConfig(data []byte) (Config, error) {
	config := EmptyConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// LoadConfig reads and validates the YAML configuration at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return ParseConfig(data)
}

// GenerateSchema generates a JSON schema for Config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(optional.Option[time.Time]{}) {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	if strategySchema, ok := schema.Properties.Get("strategy"); ok {
		if nameSchema, ok := strategySchema.Properties.Get("name"); ok {
			for _, name := range strategy.Names() {
				nameSchema.Enum = append(nameSchema.Enum, name)
			}
		}
	}

	schema.Title = "backtest-config"
	schema.Description = "Configuration schema for the daily long/flat backtest runner"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for Config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// EmptyConfig returns a Config with default values and no symbols.
func EmptyConfig() Config {
	return Config{
		Symbols:      nil,
		DataPath:     "",
		RiskFreePath: "",
		CostBps:      simulation.DefaultCostBps,
		Strategy: StrategyConfig{
			Name:   strategy.NameSMACrossover,
			Params: nil,
		},
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
		ResultsFolder:    DefaultResultsFolder,
		DecimalPrecision: DefaultDecimalPrecision,
		Benchmark:        false,
	}
}

// TestConfig returns a valid configuration for symbols, used by tests.
func TestConfig(dataPath string, resultsFolder string, symbols ...string) Config {
	config := EmptyConfig()
	config.Symbols = symbols
	config.DataPath = dataPath
	config.ResultsFolder = resultsFolder

	return config
}

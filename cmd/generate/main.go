package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-backtest/internal/backtest"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata"
	"gopkg.in/yaml.v3"
)

const (
	configDir              = "./config"
	backtestSchemaName     = "backtest-config.json"
	backtestSampleName     = "backtest-config.yaml"
	downloadSchemaFileName = "download-config.json"
)

func main() {
	config := backtest.EmptyConfig()
	config.Symbols = []string{"SPY"}
	config.DataPath = "data/SPY_2015-01-01_2024-12-31_1d.parquet"

	schemaPath := filepath.Join(configDir, backtestSchemaName)
	sampleConfigPath := filepath.Join(configDir, backtestSampleName)

	if err := validatePaths(schemaPath, sampleConfigPath); err != nil {
		log.Fatalf("Invalid paths: %v", err)
	}

	if err := validateSchemaName(backtestSchemaName); err != nil {
		log.Fatalf("Invalid schema name: %v", err)
	}

	if err := generateSchemaFile(config, schemaPath); err != nil {
		log.Fatalf("Failed to generate schema: %v", err)
	}

	if err := generateSampleConfig(config, sampleConfigPath, backtestSchemaName); err != nil {
		log.Fatalf("Failed to generate sample config: %v", err)
	}

	if err := generateDownloadSchemaFile(filepath.Join(configDir, downloadSchemaFileName)); err != nil {
		log.Fatalf("Failed to generate download schema: %v", err)
	}

	log.Printf("Schema successfully generated at %s", schemaPath)
}

// generateSchemaFile writes the JSON schema of the backtest configuration.
func generateSchemaFile(config backtest.Config, schemaPath string) error {
	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	return writeFile(schemaPath, []byte(schemaJSON))
}

func generateDownloadSchemaFile(schemaPath string) error {
	schemaJSON, err := marketdata.GetDownloadConfigSchema()
	if err != nil {
		return fmt.Errorf("failed to generate download schema: %w", err)
	}

	return writeFile(schemaPath, []byte(schemaJSON))
}

// generateSampleConfig writes config as YAML unless samplePath already exists.
func generateSampleConfig(config backtest.Config, samplePath string, schemaName string) error {
	if _, err := os.Stat(samplePath); err == nil {
		return nil
	}

	yamlBytes, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte(getSchemaReference(schemaName)), yamlBytes...)

	if err := writeFile(samplePath, yamlBytes); err != nil {
		return err
	}

	log.Printf("Sample config successfully generated at %s", samplePath)

	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func validatePaths(schemaPath string, sampleConfigPath string) error {
	if schemaPath == "" {
		return fmt.Errorf("schema path cannot be empty")
	}

	if sampleConfigPath == "" {
		return fmt.Errorf("sample config path cannot be empty")
	}

	return nil
}

func validateSchemaName(schemaName string) error {
	if schemaName == "" {
		return fmt.Errorf("schema name cannot be empty")
	}

	if !strings.HasSuffix(schemaName, ".json") {
		return fmt.Errorf("schema name %q must have .json extension", schemaName)
	}

	return nil
}

func getSchemaReference(schemaName string) string {
	return "# yaml-language-server: $schema=" + schemaName + "\n"
}

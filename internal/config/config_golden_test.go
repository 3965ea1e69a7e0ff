package config

import (
	"os"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// TestConfigDefaultsGoldenFile tests that our defaults match the golden file
func TestConfigDefaultsGoldenFile(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.ErrorLevel)
	SetLogger(logger)

	goldenData, err := os.ReadFile("testdata/defaults.yaml")
	if err != nil {
		t.Fatalf("Failed to read golden defaults file: %v", err)
	}

	var goldenConfig Config
	if err := yaml.Unmarshal(goldenData, &goldenConfig); err != nil {
		t.Fatalf("Failed to parse golden config: %v", err)
	}

	testConfig := &Config{}
	ApplyDefaults(testConfig)

	if !reflect.DeepEqual(*testConfig, goldenConfig) {
		t.Errorf("Defaults drifted from testdata/defaults.yaml:\n got  %+v\n want %+v", *testConfig, goldenConfig)
	}
}

// TestConfigDefaultsRoundTrip ensures generate-config output parses back to the same defaults
func TestConfigDefaultsRoundTrip(t *testing.T) {
	cfg := Default()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("Failed to marshal defaults: %v", err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to parse marshalled defaults: %v", err)
	}

	if !reflect.DeepEqual(*cfg, parsed) {
		t.Errorf("Round trip mismatch:\n got  %+v\n want %+v", parsed, *cfg)
	}
}

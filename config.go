package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds every tunable named in SPEC_FULL.md §6/§10: CLI defaults,
// optionally overridden by a YAML file.
type Config struct {
	Nodes    int     `mapstructure:"nodes"`
	Duration float64 `mapstructure:"duration"`

	CSVFile       string `mapstructure:"csv-file"`
	TraceMobility bool   `mapstructure:"trace-mobility"`
	MetricsAddr   string `mapstructure:"metrics-addr"`
	LogLevel      string `mapstructure:"log-level"`
	Seed          int64  `mapstructure:"seed"`

	SpeedMin float64 `mapstructure:"speed-min"`
	SpeedMax float64 `mapstructure:"speed-max"`

	CPUSpeedMin float64 `mapstructure:"cpu-speed-min"`
	CPUSpeedMax float64 `mapstructure:"cpu-speed-max"`

	// BandwidthW{Min,Max}/BandwidthWD{Min,Max} bound the per-node PHY
	// transmit-rate capacity sampled for each interface, Mbps — the
	// allocator's speed_W/speed_WD input (§4.I), independent of traffic
	// actually observed on the interface.
	BandwidthWMin  float64 `mapstructure:"bandwidth-w-min"`
	BandwidthWMax  float64 `mapstructure:"bandwidth-w-max"`
	BandwidthWDMin float64 `mapstructure:"bandwidth-wd-min"`
	BandwidthWDMax float64 `mapstructure:"bandwidth-wd-max"`

	ServicePeriod float64 `mapstructure:"service-period"`

	SortByCPU bool `mapstructure:"sort-by-cpu"`
	UseMaxCPU bool `mapstructure:"use-max-cpu"`
}

// DefaultConfig returns the spec's documented defaults (§10 CLI).
func DefaultConfig() Config {
	return Config{
		Nodes:          10,
		Duration:       300,
		CSVFile:        "results.csv",
		TraceMobility:  false,
		MetricsAddr:    "",
		LogLevel:       "info",
		Seed:           1,
		SpeedMin:       1,
		SpeedMax:       15,
		CPUSpeedMin:    1.0,
		CPUSpeedMax:    4.0,
		BandwidthWMin:  4,
		BandwidthWMax:  8,
		BandwidthWDMin: 8,
		BandwidthWDMax: 16,
		ServicePeriod:  2,
		SortByCPU:      false,
		UseMaxCPU:      false,
	}
}

// LoadConfig merges an optional YAML config file over the defaults,
// per SPEC_FULL.md §10's viper+yaml.v3 pairing. An empty path is a
// no-op; a missing file at a non-empty path is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigType("yaml")
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := v.ReadConfig(f); err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	defaults := DefaultConfig()

	csvFileFlag := flag.String("csv-file", defaults.CSVFile, "output CSV path (alias --CSVfileName)")
	flag.String("CSVfileName", defaults.CSVFile, "alias of --csv-file")
	traceMobilityFlag := flag.Bool("trace-mobility", defaults.TraceMobility, "enable per-tick mobility trace (alias --traceMobility)")
	flag.Bool("traceMobility", defaults.TraceMobility, "alias of --trace-mobility")
	flag.String("protocol", "", "reserved; accepted and ignored")
	nodesFlag := flag.Int("nodes", defaults.Nodes, "number of simulated nodes")
	durationFlag := flag.Float64("duration", defaults.Duration, "simulation duration in seconds")
	configFlag := flag.String("config", "", "optional YAML config file")
	metricsAddrFlag := flag.String("metrics-addr", defaults.MetricsAddr, "Prometheus /metrics listen address; empty disables the exporter")
	logLevelFlag := flag.String("log-level", defaults.LogLevel, "debug|info|warn|error")

	flag.Parse()

	cfg, err := LoadConfig(*configFlag)
	if err != nil {
		return Wrap(ErrSocketBindFailed, err.Error())
	}

	cfg.CSVFile = resolveAlias(*csvFileFlag, "CSVfileName", defaults.CSVFile)
	cfg.TraceMobility = *traceMobilityFlag
	cfg.Nodes = *nodesFlag
	cfg.Duration = *durationFlag
	cfg.MetricsAddr = *metricsAddrFlag
	cfg.LogLevel = *logLevelFlag

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	csvFile, err := os.Create(cfg.CSVFile)
	if err != nil {
		return Wrap(ErrSocketBindFailed, fmt.Sprintf("create csv file: %s", err))
	}
	defer csvFile.Close()

	var traceFile *os.File
	if cfg.TraceMobility {
		traceFile, err = os.Create(cfg.CSVFile + ".mobility.csv")
		if err != nil {
			return Wrap(ErrSocketBindFailed, fmt.Sprintf("create trace file: %s", err))
		}
		defer traceFile.Close()
		_, _ = traceFile.WriteString("sim_second,node_id,x,y,z,location\n")
	}

	log.WithFields(log.Fields{"nodes": cfg.Nodes, "duration": cfg.Duration}).Info("starting simulation")

	var traceWriter io.Writer
	if traceFile != nil {
		traceWriter = traceFile
	}
	sim := NewSimulation(cfg, csvFile, traceWriter)
	sim.Run(cfg.Duration)

	log.Info("simulation complete")
	return nil
}

// resolveAlias picks whichever of two pflag-parsed values differs from
// its default, preferring the canonical flag when both were set
// (spec.md §6 names both spellings as accepted CLI aliases).
func resolveAlias(canonical, aliasName, def string) string {
	if canonical != def {
		return canonical
	}
	if v := flag.Lookup(aliasName); v != nil && v.Value.String() != def {
		return v.Value.String()
	}
	return canonical
}

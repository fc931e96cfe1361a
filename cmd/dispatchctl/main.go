package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/dispatcher/pkg/config"
	"github.com/cuemby/dispatcher/pkg/dispatcher"
	"github.com/cuemby/dispatcher/pkg/log"
	"github.com/cuemby/dispatcher/pkg/metrics"
	"github.com/cuemby/dispatcher/pkg/request"
	"github.com/cuemby/dispatcher/pkg/simulator"
	"github.com/cuemby/dispatcher/pkg/strategy"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dispatchctl",
	Short: "Hospital patient-transport dispatcher",
	Long: `dispatchctl runs the patient-transport assignment and execution engine:
a weighted hospital graph, a pluggable assignment strategy, and a
concurrent executor that drives transporters through their queues and
re-optimizes as requests, transporters, and rest cycles change.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"dispatchctl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse a configuration file and report the resulting graph shape",
	Long: `Load a dispatch.yaml configuration file, build its department/corridor
graph, and report the node and edge counts without starting the engine.
Useful for checking a hand-authored graph before deploying it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		g, err := cfg.BuildGraph()
		if err != nil {
			return err
		}
		fmt.Printf("departments: %d\n", len(g.Nodes()))
		fmt.Printf("corridors: %d\n", len(cfg.Corridors))
		fmt.Printf("speed factor: %gx\n", cfg.SpeedFactor)
		fmt.Printf("strategy: %s\n", cfg.Strategy)
		fmt.Printf("re-plan coalescing window: %s\n", cfg.ReplanCoalesceWindow)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringP("config", "c", "", "Path to dispatch.yaml (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dispatcher engine",
	Long: `Start the dispatcher engine: load the hospital graph and strategy from
config, apply any initial fleet and requests, optionally run the
synthetic-load simulator, expose Prometheus metrics, and run until
interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("config", "c", "", "Path to dispatch.yaml (required)")
	serveCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address for the Prometheus /metrics endpoint")
	serveCmd.Flags().Bool("simulate", false, "Run the synthetic-load simulator")
	serveCmd.Flags().Duration("simulate-interval", 5*time.Second, "Synthetic request generation interval")
	serveCmd.Flags().Bool("log-events", true, "Log every event published on the broker")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	simulate, _ := cmd.Flags().GetBool("simulate")
	simulateInterval, _ := cmd.Flags().GetDuration("simulate-interval")
	logEvents, _ := cmd.Flags().GetBool("log-events")

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	g, err := cfg.BuildGraph()
	if err != nil {
		return err
	}

	s, err := buildStrategy(cfg.Strategy, cfg.ILPTimeout)
	if err != nil {
		return err
	}

	d := dispatcher.New(dispatcher.Config{
		Graph:                g,
		SpeedFactor:          cfg.SpeedFactor,
		ReplanCoalesceWindow: cfg.ReplanCoalesceWindow,
		ILPTimeout:           cfg.ILPTimeout,
		RestThreshold:        cfg.RestThreshold,
		RestDuration:         cfg.RestDuration,
		Strategy:             s,
	})
	d.Start()
	defer d.Stop()

	if logEvents {
		go logBrokerEvents(d)
	}

	for _, t := range cfg.InitialFleet {
		if _, errc := d.AddTransporter(t.Name); errc != nil {
			return fmt.Errorf("initial fleet: %w", errc)
		}
	}
	for _, r := range cfg.InitialRequests {
		if _, errc := d.CreateRequest(r.Origin, r.Destination, request.TransportType(r.Type), r.Urgent); errc != nil {
			return fmt.Errorf("initial requests: %w", errc)
		}
	}

	collector := dispatcher.NewMetricsCollector(d, 15*time.Second)
	collector.Start()
	defer collector.Stop()

	var sim *simulator.Simulator
	if simulate {
		sim = simulator.New(d, simulateInterval, time.Now().UnixNano())
		sim.Start()
		defer sim.Stop()
		fmt.Printf("✓ Simulator running (every %s)\n", simulateInterval)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Logger.Error().Err(err).Msg("metrics server error")
		}
	}()
	fmt.Printf("✓ Dispatcher running (%d departments, %d corridors, strategy %s)\n", len(g.Nodes()), len(cfg.Corridors), cfg.Strategy)
	fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", metricsAddr)
	fmt.Println("Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")
	_ = server.Close()
	return nil
}

func buildStrategy(name string, ilpTimeout time.Duration) (strategy.Strategy, error) {
	switch name {
	case "", "ilp:makespan":
		return strategy.NewILP(strategy.Makespan, ilpTimeout), nil
	case "ilp:equal_workload":
		return strategy.NewILP(strategy.EqualWorkload, ilpTimeout), nil
	case "ilp:urgency_first":
		return strategy.NewILP(strategy.UrgencyFirst, ilpTimeout), nil
	case "random":
		return strategy.NewRandom(time.Now().UnixNano()), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

func logBrokerEvents(d *dispatcher.Dispatcher) {
	sub := d.EventBroker().Subscribe()
	defer d.EventBroker().Unsubscribe(sub)
	logger := log.WithComponent("events")
	for ev := range sub {
		logger.Info().Str("type", string(ev.Type)).Fields(ev.Payload).Msg("event")
	}
}

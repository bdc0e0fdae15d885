package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/edp1096/circuit-sim/internal/config"
	"github.com/edp1096/circuit-sim/internal/waveform"
	"github.com/edp1096/circuit-sim/pkg/analysis"
	"github.com/edp1096/circuit-sim/pkg/netlist"
	"github.com/edp1096/circuit-sim/pkg/util"
)

var (
	configPath = flag.String("config", "", "solver config file (.yaml or .json)")
	mode       = flag.String("mode", "", "override mode: newton or linear")
	solverName = flag.String("solver", "", "override linear solver: lu, bicg, gmres, dense")
	dt         = flag.Float64("dt", 0, "override timestep")
	steps      = flag.Int("steps", 0, "override timesteps per solve")
	maxIter    = flag.Int("maxiter", 0, "override Newton iteration limit")
	adaptive   = flag.Bool("adaptive", false, "enable adaptive Newton damping")
	stop       = flag.Float64("stop", 0, "override transient stop time")
	plotPath   = flag.String("plot", "", "write node voltages to this image file")
	jsonOut    = flag.Bool("json", false, "print the topology as JSON and exit")
	verbose    = flag.Bool("v", false, "debug logging")
)

func printResults(results map[string][]float64) {
	fmt.Println("\nAnalysis Results:")
	fmt.Println("================")

	voltageNames, currentNames := util.SignalNames(results)
	columns := append(append([]string(nil), voltageNames...), currentNames...)

	// DC Sweep
	if sweep1, isDC := results["SWEEP1"]; isDC {
		fmt.Printf("\nDC Sweep Analysis Results (%d points):\n", len(sweep1))
		fmt.Println("Sweep Values    Node Voltages        Branch Currents")
		fmt.Println("------------------------------------------------")

		for i := range sweep1 {
			fmt.Printf("V=%-9s  ", util.FormatValueFactor(sweep1[i], "V"))
			printRow(results, columns, i)
		}
		return
	}

	// Operating point
	if _, isTran := results["TIME"]; !isTran {
		fmt.Println("\nNode Voltages:")
		for _, name := range voltageNames {
			fmt.Printf("%s = %s\n", name, util.FormatValueFactor(results[name][0], "V"))
		}
		fmt.Println("\nBranch Currents:")
		for _, name := range currentNames {
			fmt.Printf("%s = %s\n", name, util.FormatValueFactor(results[name][0], "A"))
		}
		return
	}

	// Transient
	times := results["TIME"]
	fmt.Printf("\nTransient Analysis Results (%d time points):\n", len(times))
	fmt.Println("Time        Node Voltages        Branch Currents")
	fmt.Println("------------------------------------------------")

	for i, t := range times {
		fmt.Printf("%9s  ", util.FormatValueFactor(t, "s"))
		printRow(results, columns, i)
	}
}

func printRow(results map[string][]float64, columns []string, i int) {
	for _, name := range columns {
		if values, ok := results[name]; ok && i < len(values) {
			fmt.Printf("%s=%s  ", name, util.FormatValueFactor(values[i], util.Unit(name)))
		}
	}
	fmt.Println()
}

func flagOverrides() config.Overrides {
	return config.Overrides{
		Mode:       *mode,
		Solver:     *solverName,
		Dt:         *dt,
		NTimesteps: *steps,
		MaxNRIters: *maxIter,
		Adaptive:   *adaptive,
	}
}

func loadConfig() analysis.Config {
	cfg := analysis.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
	}
	return cfg
}

func newAnalyzer(ckt *netlist.Netlist, cfg analysis.Config, logger *slog.Logger) analysis.Analysis {
	opt := analysis.WithLogger(logger)

	switch ckt.Analysis {
	case netlist.AnalysisOP:
		return analysis.NewOP(cfg, opt)
	case netlist.AnalysisTRAN:
		tstop := ckt.Tran.TStop
		if *stop > 0 {
			tstop = *stop
		}
		return analysis.NewTransient(tstop, cfg, opt)
	case netlist.AnalysisDC:
		source, err := ckt.SourceIndex(ckt.DC.Source)
		if err != nil {
			log.Fatalf("Error resolving sweep source: %v", err)
		}
		dc, err := analysis.NewDCSweep(source, ckt.DC.Start, ckt.DC.Stop, ckt.DC.Increment, cfg, opt)
		if err != nil {
			log.Fatalf("Error creating DC sweep: %v", err)
		}
		return dc
	}

	log.Fatalf("Unsupported analysis type: %v", ckt.Analysis)
	return nil
}

func savePlot(ckt *netlist.Netlist, results map[string][]float64) {
	axis := "TIME"
	if _, ok := results["SWEEP1"]; ok {
		axis = "SWEEP1"
	}
	voltageNames, _ := util.SignalNames(results)

	rec, err := waveform.FromResults(results, axis, voltageNames...)
	if err != nil {
		log.Fatalf("Error collecting waveforms: %v", err)
	}
	if err := rec.SavePNG(*plotPath, ckt.Title); err != nil {
		log.Fatalf("Error saving plot: %v", err)
	}
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("Usage: circuit-sim [flags] <netlist_file>")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	content, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("Error reading netlist file: %v", err)
	}

	ckt, err := netlist.Load(string(content), loadConfig())
	if err != nil {
		log.Fatalf("Error parsing netlist: %v", err)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ckt.Topology); err != nil {
			log.Fatalf("Error encoding topology: %v", err)
		}
		return
	}

	overrides := flagOverrides()
	cfg, err := overrides.Apply(ckt.Config)
	if err != nil {
		log.Fatalf("Error applying flags: %v", err)
	}

	logger.Info("netlist loaded",
		"title", ckt.Title,
		"analysis", ckt.Analysis,
		"nodes", ckt.Topology.NumNodes,
		"components", len(ckt.Topology.TwoTerminal)+len(ckt.Topology.ThreeTerminal),
		"mode", cfg.Mode,
		"solver", strings.ToLower(cfg.LinearSolver.String()))

	analyzer := newAnalyzer(ckt, cfg, logger)
	analyzer.(interface{ SetLabels(analysis.Labels) }).SetLabels(ckt.Labels)

	if err := analyzer.Setup(ckt.Topology); err != nil {
		log.Fatalf("Analysis setup failed: %v", err)
	}
	if err := analyzer.Execute(); err != nil {
		log.Fatalf("Analysis execution failed: %v", err)
	}

	results := analyzer.GetResults()
	printResults(results)

	if *plotPath != "" && ckt.Analysis != netlist.AnalysisOP {
		savePlot(ckt, results)
		logger.Info("plot written", "path", *plotPath)
	}
}

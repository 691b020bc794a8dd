package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitrdm/presskit/internal/config"
	"github.com/gitrdm/presskit/internal/logging"
	"github.com/gitrdm/presskit/internal/metrics"
	"github.com/gitrdm/presskit/internal/puzzle"
	"github.com/gitrdm/presskit/pkg/ilp"
	"github.com/gitrdm/presskit/pkg/machine"
	"github.com/gitrdm/presskit/pkg/orchestrator"
)

func newSolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve <file>",
		Short: "Solve every machine in a puzzle file",
		Long: `Reads one machine per line ("-" reads stdin) and prints the total minimal
presses per domain. Flags override the config file and PRESSKIT_* variables.`,
		Args: cobra.ExactArgs(1),
		RunE: runSolve,
	}
	f := cmd.Flags()
	f.String("domain", "both", "domain to solve: toggle, counter or both")
	f.Int("workers", 0, "concurrent machine solves (0 = number of CPUs)")
	f.Int("bound", 0, "search press bound for both domains (0 = derive per machine)")
	f.String("optimizer", "lp", "integer-program backend: lp, fd or pb")
	f.Int("press-limit", 0, "per-action press limit of the integer program (0 = largest target)")
	f.Int("scale-limit", 0, "largest counter state space searched alongside the integer program")
	f.Bool("verify-toggle", false, "cross-check toggle search with the SAT parity oracle")
	f.Bool("metrics", false, "write Prometheus metrics to stderr after solving")
	return cmd
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	domains, err := parseDomains(cmd)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Observability.LogLevel)
	if err != nil {
		return err
	}
	log := logging.NewWithWriter(cmd.ErrOrStderr(), level)

	machines, err := readMachines(cmd, args[0])
	if err != nil {
		return err
	}
	log.Debug("parsed puzzle", "file", args[0], "machines", len(machines))

	var rec *metrics.Recorder
	var extra []ilp.Option
	if cfg.Observability.Metrics {
		rec = metrics.New()
		extra = append(extra, ilp.WithMonitor(rec.Monitor()))
	}
	oc, err := cfg.Orchestrator(extra...)
	if err != nil {
		return err
	}
	oc.Logger = log
	if rec != nil {
		oc.Observer = rec
	}
	solver := orchestrator.New(oc)

	for _, d := range domains {
		total, err := solver.Total(cmd.Context(), machines, d)
		if err != nil {
			return fmt.Errorf("%s: %w", d, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", d, total)
	}
	if rec != nil {
		return rec.WriteText(cmd.ErrOrStderr())
	}
	return nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	f := cmd.Flags()
	if f.Changed("log-level") {
		cfg.Observability.LogLevel, _ = f.GetString("log-level")
	}
	if f.Changed("workers") {
		cfg.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("bound") {
		b, _ := f.GetInt("bound")
		cfg.Search.ToggleBound, cfg.Search.CounterBound = b, b
	}
	if f.Changed("optimizer") {
		cfg.Optimizer.Backend, _ = f.GetString("optimizer")
	}
	if f.Changed("press-limit") {
		cfg.Optimizer.PressLimit, _ = f.GetInt("press-limit")
	}
	if f.Changed("scale-limit") {
		cfg.Search.ScaleLimit, _ = f.GetInt("scale-limit")
	}
	if f.Changed("verify-toggle") {
		cfg.Search.VerifyToggle, _ = f.GetBool("verify-toggle")
	}
	if f.Changed("metrics") {
		cfg.Observability.Metrics, _ = f.GetBool("metrics")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func parseDomains(cmd *cobra.Command) ([]orchestrator.Domain, error) {
	s, _ := cmd.Flags().GetString("domain")
	if s == "both" {
		return []orchestrator.Domain{orchestrator.DomainToggle, orchestrator.DomainCounter}, nil
	}
	d, err := orchestrator.ParseDomain(s)
	if err != nil {
		return nil, err
	}
	return []orchestrator.Domain{d}, nil
}

func readMachines(cmd *cobra.Command, path string) ([]*machine.Machine, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	ms, err := puzzle.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ms, nil
}

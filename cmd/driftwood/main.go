// Command driftwood is a standalone CDCL SAT solver binary, wired as a
// thin cobra CLI over the sat package. Exit codes follow the SAT
// competition convention (spec.md §6): 10=SAT, 20=UNSAT, 0=unknown/
// interrupted; any other code is a crash.
package main

import (
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/cdclsat/driftwood/internal/dimacs"
	"github.com/cdclsat/driftwood/sat"
)

var (
	flagConfig     string
	flagDRAT       string
	flagGzip       bool
	flagCPUProfile string
	flagMemProfile string
	flagTimeout    time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "driftwood",
		Short: "driftwood is an incremental CDCL SAT solver",
	}
	root.AddCommand(newSolveCmd())
	return root
}

func newSolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve <instance.cnf>",
		Short: "Solve a DIMACS CNF instance",
		Args:  cobra.ExactArgs(1),
		RunE:  runSolve,
	}
	cmd.Flags().StringVar(&flagConfig, "config", "", "path to a YAML solver configuration file")
	cmd.Flags().StringVar(&flagDRAT, "drat", "", "write a DRAT proof to this path")
	cmd.Flags().BoolVar(&flagGzip, "gzip", false, "treat the instance file as gzip-compressed")
	cmd.Flags().StringVar(&flagCPUProfile, "cpuprofile", "", "write a pprof CPU profile to this path")
	cmd.Flags().StringVar(&flagMemProfile, "memprofile", "", "write a pprof heap profile to this path")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "wall-clock search budget (0 = unbounded)")
	return cmd
}

func runSolve(cmd *cobra.Command, args []string) error {
	logger := hclog.New(&hclog.LoggerOptions{Name: "driftwood", Level: hclog.Info})

	opts, err := loadOptions()
	if err != nil {
		return err
	}
	opts.Logger = logger
	if flagTimeout > 0 {
		opts.Timeout = flagTimeout
	}

	dratPath := flagDRAT
	if dratPath == "" {
		dratPath = opts.DRATPath
	}
	if dratPath != "" {
		f, err := os.Create(dratPath)
		if err != nil {
			return wrapf(err, "opening DRAT output %q", dratPath)
		}
		opts = opts.WithSink(sat.NewTextSink(f))
	}

	if flagCPUProfile != "" {
		f, err := os.Create(flagCPUProfile)
		if err != nil {
			return wrapf(err, "opening CPU profile %q", flagCPUProfile)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	s := sat.NewSolver(opts)
	defer s.Release()

	instance := args[0]
	if err := dimacs.LoadDIMACS(instance, flagGzip, s); err != nil {
		return wrapf(err, "loading instance %q", instance)
	}
	logger.Info("instance loaded", "variables", s.NumVariables())

	start := time.Now()
	status := s.Solve()
	elapsed := time.Since(start)

	logger.Info("search finished",
		"status", status.String(),
		"elapsed", elapsed,
	)

	if flagMemProfile != "" {
		f, err := os.Create(flagMemProfile)
		if err != nil {
			return wrapf(err, "opening heap profile %q", flagMemProfile)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return wrapf(err, "writing heap profile")
		}
	}

	fmt.Println(statusLine(status))
	// os.Exit skips deferred calls: close the DRAT sink and stop the CPU
	// profile first.
	if err := s.Release(); err != nil {
		logger.Error("closing DRAT output", "error", err)
	}
	pprof.StopCPUProfile()
	os.Exit(int(status))
	return nil
}

func statusLine(status sat.Status) string {
	switch status {
	case sat.StatusSAT:
		return "s SATISFIABLE"
	case sat.StatusUnsat:
		return "s UNSATISFIABLE"
	default:
		return "s UNKNOWN"
	}
}

func loadOptions() (sat.Options, error) {
	if flagConfig == "" {
		return sat.DefaultOptions(), nil
	}
	return sat.LoadOptionsYAML(flagConfig)
}

func wrapf(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

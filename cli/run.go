// Package cli implements the inspectflow command set.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inspect-labs/inspectflow"
	"github.com/inspect-labs/inspectflow/config"
	"github.com/inspect-labs/inspectflow/faults"
	"github.com/inspect-labs/inspectflow/solutionfile"
	"github.com/inspect-labs/inspectflow/store"
	"github.com/inspect-labs/inspectflow/tools"
)

// NewRunCmd creates the "run" subcommand.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <solution.yaml>",
		Short: "Run an inspection solution",
		Args:  cobra.ExactArgs(1),
		RunE:  runRun,
	}

	cmd.Flags().BoolP("continuous", "c", false, "Run continuously until interrupted")
	cmd.Flags().Duration("interval", 0, "Continuous run interval (default: solution file setting)")
	cmd.Flags().Duration("timeout", 0, "Abort a one-shot run after this long")
	cmd.Flags().String("format", "pretty", "Output format: json | pretty")
	cmd.Flags().String("store-path", "", "Record run events to this SQLite database")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	sol, err := buildSolution(args[0])
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("store-path")
	if path == "" {
		path = configuredStorePath()
	}
	if path != "" {
		es, err := store.NewSQLiteEventStore(store.SQLiteStoreConfig{DSN: path})
		if err != nil {
			return exitError(exitRuntime, "opening event store: %v", err)
		}
		defer es.Close()
		sol.Subscribe(store.NewSubscriber(es, nil).Handle)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	continuous, _ := cmd.Flags().GetBool("continuous")
	if continuous {
		interval, _ := cmd.Flags().GetDuration("interval")
		if interval <= 0 {
			interval = sol.RunInterval()
		}
		recovery := faults.DefaultManager(nil)
		for _, proc := range sol.Procedures() {
			for _, t := range proc.Tools() {
				t.SetRecovery(recovery)
			}
		}
		if err := sol.RunContinuous(ctx, interval); err != nil {
			return exitError(exitRuntime, "continuous run: %v", err)
		}
		<-ctx.Done()
		sol.Stop()
		return nil
	}

	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	results, err := sol.RunOnce(ctx)
	if err != nil {
		return exitError(exitRuntime, "run: %v", err)
	}

	format, _ := cmd.Flags().GetString("format")
	if err := writeResults(cmd.OutOrStdout(), results, format); err != nil {
		return exitError(exitRuntime, "%v", err)
	}
	if failed := countFailures(results); failed > 0 {
		return exitError(exitRuntime, "%d tool run(s) failed", failed)
	}
	return nil
}

// configuredStorePath reads store.path from the discovered config
// file. Empty when no config exists or the key is unset.
func configuredStorePath() string {
	cfgPath, exists, err := config.DiscoverPath("")
	if err != nil || !exists {
		return ""
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return ""
	}
	return cfg.GetString("store.path", "")
}

// buildSolution loads a solution file and instantiates it against the
// built-in catalog.
func buildSolution(path string) (*inspectflow.Solution, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, exitError(exitFileNotFound, "solution file %s: %v", path, err)
	}
	def, err := solutionfile.Load(path)
	if err != nil {
		return nil, exitError(exitValidation, "%v", err)
	}

	reg := inspectflow.NewRegistry()
	tools.RegisterBuiltins(reg)

	sol, err := solutionfile.Build(def, reg)
	if err != nil {
		return nil, exitError(exitValidation, "%v", err)
	}
	return sol, nil
}

func countFailures(results inspectflow.SolutionResults) int {
	n := 0
	for _, procResults := range results {
		for _, r := range procResults {
			if r.Err != nil {
				n++
			}
		}
	}
	return n
}

func writeResults(w io.Writer, results inspectflow.SolutionResults, format string) error {
	switch format {
	case "json":
		return writeResultsJSON(w, results)
	case "pretty":
		writeResultsPretty(w, results)
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

type toolResultJSON struct {
	Status  bool           `json:"status"`
	Message string         `json:"message,omitempty"`
	Values  map[string]any `json:"values,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func writeResultsJSON(w io.Writer, results inspectflow.SolutionResults) error {
	out := make(map[string]map[string]toolResultJSON, len(results))
	for proc, procResults := range results {
		out[proc] = make(map[string]toolResultJSON, len(procResults))
		for tool, r := range procResults {
			tr := toolResultJSON{Status: r.Err == nil}
			if r.Result != nil {
				tr.Status = r.Result.Status
				tr.Message = r.Result.Message
				tr.Values = r.Result.Values
			}
			if r.Err != nil {
				tr.Error = r.Err.Error()
			}
			out[proc][tool] = tr
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeResultsPretty(w io.Writer, results inspectflow.SolutionResults) {
	procs := make([]string, 0, len(results))
	for name := range results {
		procs = append(procs, name)
	}
	sort.Strings(procs)

	for _, proc := range procs {
		fmt.Fprintf(w, "%s:\n", proc)
		toolNames := make([]string, 0, len(results[proc]))
		for name := range results[proc] {
			toolNames = append(toolNames, name)
		}
		sort.Strings(toolNames)

		for _, name := range toolNames {
			r := results[proc][name]
			mark := "ok"
			if r.Err != nil {
				mark = "FAIL"
			}
			fmt.Fprintf(w, "  %-24s %s", name, mark)
			if r.Err != nil {
				var ferr *faults.Error
				if errors.As(r.Err, &ferr) {
					fmt.Fprintf(w, "  %s", faults.FormatMessage(ferr.Code, ferr.Message))
				} else {
					fmt.Fprintf(w, "  %v", r.Err)
				}
			} else if r.Result != nil && len(r.Result.Values) > 0 {
				fmt.Fprintf(w, "  %s", compactValues(r.Result.Values))
			}
			fmt.Fprintln(w)
		}
	}
}

func compactValues(values map[string]any) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		switch v := values[k].(type) {
		case float64:
			out += fmt.Sprintf("%s=%.4g", k, v)
		default:
			out += fmt.Sprintf("%s=%v", k, v)
		}
	}
	return out
}

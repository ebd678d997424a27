package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/inspect-labs/inspectflow"
	"github.com/inspect-labs/inspectflow/tools"
)

// NewToolsCmd creates the "tools" command group.
func NewToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect the built-in tool catalog",
	}
	cmd.AddCommand(newToolsListCmd())
	cmd.AddCommand(newToolsInspectCmd())
	return cmd
}

func newToolsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every registered tool kind",
		Args:  cobra.NoArgs,
		RunE:  runToolsList,
	}
	cmd.Flags().String("category", "", "Limit output to one category")
	return cmd
}

func runToolsList(cmd *cobra.Command, args []string) error {
	reg := inspectflow.NewRegistry()
	tools.RegisterBuiltins(reg)

	filter, _ := cmd.Flags().GetString("category")

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tKIND\tDESCRIPTION")
	for _, cat := range reg.Categories() {
		if filter != "" && !strings.EqualFold(filter, cat.String()) {
			continue
		}
		for _, spec := range reg.ListByCategory(cat) {
			fmt.Fprintf(w, "%s\t%s\t%s\n", spec.Category, spec.Kind, spec.Description)
		}
	}
	return w.Flush()
}

func newToolsInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <category.kind>",
		Short: "Show a tool kind's ports and parameters",
		Args:  cobra.ExactArgs(1),
		RunE:  runToolsInspect,
	}
}

func runToolsInspect(cmd *cobra.Command, args []string) error {
	category, kind, ok := strings.Cut(args[0], ".")
	if !ok {
		return exitError(exitValidation, "expected <category.kind>, got %q", args[0])
	}

	reg := inspectflow.NewRegistry()
	tools.RegisterBuiltins(reg)

	spec, found := reg.Spec(inspectflow.Category(category), kind)
	if !found {
		return exitError(exitValidation, "unknown tool kind %q", args[0])
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s.%s\n", spec.Category, spec.Kind)
	if spec.Description != "" {
		fmt.Fprintf(out, "  %s\n", spec.Description)
	}
	if spec.Source {
		fmt.Fprintln(out, "  source tool (no bound input)")
	}

	if len(spec.InputPorts) > 0 {
		fmt.Fprintln(out, "inputs:")
		for _, p := range spec.InputPorts {
			fmt.Fprintf(out, "  %s (%s)\n", p.Name, p.Kind)
		}
	}
	if len(spec.OutputPorts) > 0 {
		fmt.Fprintln(out, "outputs:")
		for _, p := range spec.OutputPorts {
			fmt.Fprintf(out, "  %s (%s)\n", p.Name, p.Kind)
		}
	}
	if len(spec.Params) > 0 {
		fmt.Fprintln(out, "parameters:")
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, ps := range spec.Params {
			bounds := ""
			if ps.HasBounds {
				bounds = fmt.Sprintf("%g..%g", ps.Min, ps.Max)
			}
			if len(ps.Options) > 0 {
				bounds = strings.Join(ps.Options, "|")
			}
			fmt.Fprintf(w, "  %s\t%s\tdefault=%v\t%s\t%s\n", ps.Name, ps.Kind, ps.Default, bounds, ps.Description)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

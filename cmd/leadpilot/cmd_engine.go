package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/leadpilot/internal/signals"
	"github.com/matthewbaird/leadpilot/internal/types"
	"github.com/matthewbaird/leadpilot/internal/workspace"
)

// ── explain ─────────────────────────────────────────────────────────────────

var (
	explainBody     string
	explainPriority string
	explainCategory string
	explainAction   string
	explainJSON     bool
)

var explainCmd = &cobra.Command{
	Use:   "explain [subject]",
	Short: "Explain why a message would be prioritized",
	Example: `  leadpilot explain "Urgent pricing quote" --body "Can we book a demo today?"
  leadpilot explain "Invoice question" --priority low --json`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := signals.ExplanationInput{
			Subject:    strings.Join(args, " "),
			Body:       explainBody,
			Priority:   explainPriority,
			Category:   explainCategory,
			ActionType: explainAction,
		}
		if strings.TrimSpace(in.Subject+in.Body) == "" {
			return fmt.Errorf("a subject argument or --body is required")
		}
		e := signals.BuildExplanation(in)
		if explainJSON {
			return writeJSON(cmd.OutOrStdout(), e)
		}
		printExplanation(cmd.OutOrStdout(), e)
		return nil
	},
}

func printExplanation(w io.Writer, e types.Explanation) {
	fmt.Fprintf(w, "%s\n\n%s\n\n", e.Summary, e.Reason)
	for _, s := range e.Signals {
		fmt.Fprintf(w, "  %-12s %s\n", s.Label+":", s.Value)
	}
	fmt.Fprintf(w, "\nConfidence: %d%% (%s)\n", e.Confidence.Score, e.Confidence.Level)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── scope ───────────────────────────────────────────────────────────────────

var (
	scopeWorkspace string
	scopeDecimals  int
	scopeMin       float64
	scopeMax       float64
	scopeMinLength int
)

var scopeCmd = &cobra.Command{
	Use:   "scope",
	Short: "Show metrics and lists the way a workspace sees them",
}

var scopeMetricCmd = &cobra.Command{
	Use:   "metric VALUE",
	Short: "Scale a metric by the workspace multiplier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[0], err)
		}
		ws, err := scopeTarget(cmd)
		if err != nil {
			return err
		}
		adjusted := workspace.AdjustMetric(value, ws.MetricMultiplier, workspace.MetricOptions{
			Min:      scopeMin,
			Max:      scopeMax,
			Decimals: scopeDecimals,
		})
		fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(adjusted, 'f', -1, 64))
		return nil
	},
}

var scopeListCmd = &cobra.Command{
	Use:   "list ITEM...",
	Short: "Rotate and trim a list for the workspace",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := scopeTarget(cmd)
		if err != nil {
			return err
		}
		for _, item := range workspace.ScopeCollection(ws.ID, args, scopeMinLength) {
			fmt.Fprintln(cmd.OutOrStdout(), item)
		}
		return nil
	},
}

// scopeTarget resolves --workspace against the catalog, defaulting to the
// active workspace.
func scopeTarget(cmd *cobra.Command) (types.Workspace, error) {
	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return types.Workspace{}, err
	}
	defer a.Close()

	if scopeWorkspace == "" {
		return a.model.Active(), nil
	}
	ws, ok := a.model.Lookup(scopeWorkspace)
	if !ok {
		return types.Workspace{}, fmt.Errorf("unknown workspace %q", scopeWorkspace)
	}
	return ws, nil
}

// ── workspaces ──────────────────────────────────────────────────────────────

var workspacesCmd = &cobra.Command{
	Use:   "workspaces",
	Short: "List workspaces and the active one",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		active := a.model.Active().ID
		for _, ws := range a.model.Workspaces() {
			marker := " "
			if ws.ID == active {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-12s %-20s %-7s x%.2f\n",
				marker, ws.ID, ws.Name, ws.Role, ws.MetricMultiplier)
		}
		return nil
	},
}

var workspacesUseCmd = &cobra.Command{
	Use:   "use ID",
	Short: "Switch the active workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		ws, ok := a.model.Switch(cmd.Context(), args[0])
		if !ok {
			return fmt.Errorf("unknown workspace %q", args[0])
		}
		profile := workspace.ProfileFor(ws.Role)
		fmt.Fprintf(cmd.OutOrStdout(), "Switched to %s (%s, %s)\n", ws.Name, ws.Role, profile.Scope)
		return nil
	},
}

func init() {
	explainCmd.Flags().StringVar(&explainBody, "body", "", "Message body")
	explainCmd.Flags().StringVar(&explainPriority, "priority", "", "Known priority (high, medium, low)")
	explainCmd.Flags().StringVar(&explainCategory, "category", "", "Fallback category")
	explainCmd.Flags().StringVar(&explainAction, "action", "", "Decision being explained")
	explainCmd.Flags().BoolVar(&explainJSON, "json", false, "Print JSON")

	scopeCmd.PersistentFlags().StringVarP(&scopeWorkspace, "workspace", "w", "", "Workspace id (default: active)")
	scopeMetricCmd.Flags().IntVar(&scopeDecimals, "decimals", 0, "Decimal places")
	scopeMetricCmd.Flags().Float64Var(&scopeMin, "min", 0, "Lower bound")
	scopeMetricCmd.Flags().Float64Var(&scopeMax, "max", 0, "Upper bound (0 = unbounded)")
	scopeListCmd.Flags().IntVar(&scopeMinLength, "min", 1, "Minimum result length")
	scopeCmd.AddCommand(scopeMetricCmd, scopeListCmd)

	workspacesCmd.AddCommand(workspacesUseCmd)
}

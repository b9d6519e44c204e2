package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"vehicle-intel/pkg/services"
)

func NewQCCommand(rootOpts *RootOptions) *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "qc <file>",
		Short: "Run quality control on an article file",
		Long: `Run the quality-control rules against an article stored as JSON or YAML.

Exits non-zero when an error-severity rule fails.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			article, err := readArticle(args[0])
			if err != nil {
				return err
			}
			eval, err := newEvaluator(rulesPath)
			if err != nil {
				return fmt.Errorf("load qc rules: %w", err)
			}
			report := eval.Evaluate(article)
			if err := printReport(cmd.OutOrStdout(), rootOpts.Format, report); err != nil {
				return err
			}
			return report.Err()
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", os.Getenv("QC_RULES_PATH"), "QC rule table (YAML or TOML)")
	return cmd
}

func printReport(w io.Writer, format string, report services.Report) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, res := range report.Results {
		status := "PASS"
		if !res.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%-4s %-7s %-28s %s\n", status, res.Severity, res.RuleID, res.Message)
	}
	fmt.Fprintf(w, "errors: %d, warnings: %d, info: %d\n",
		report.Counts[services.SeverityError],
		report.Counts[services.SeverityWarning],
		report.Counts[services.SeverityInfo])
	if report.Publishable {
		fmt.Fprintln(w, "publishable")
	} else {
		fmt.Fprintln(w, "blocked")
	}
	return nil
}

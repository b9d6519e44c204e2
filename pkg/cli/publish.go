package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"vehicle-intel/pkg/models"
)

func NewPublishCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "publish <file>",
		Short:        "Check and publish an article file to the configured store",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			article, err := readArticle(args[0])
			if err != nil {
				return err
			}
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			return publishChecked(cmd, rootOpts, a, article)
		},
	}
	return cmd
}

// publishChecked publishes only articles that pass quality control.
func publishChecked(cmd *cobra.Command, rootOpts *RootOptions, a *app, article *models.Article) error {
	w := cmd.OutOrStdout()
	report := a.evaluator.Evaluate(article)
	if !report.Publishable {
		if err := printReport(w, rootOpts.Format, report); err != nil {
			return err
		}
		return report.Err()
	}

	res, err := a.publisher.Publish(cmd.Context(), article)
	if err != nil {
		return err
	}
	if rootOpts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	verb := "updated"
	if res.Created {
		verb = "created"
	}
	fmt.Fprintf(w, "%s %s (%s)\n", verb, res.URL, a.store.Name())
	return nil
}

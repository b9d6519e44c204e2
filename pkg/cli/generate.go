package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vehicle-intel/pkg/services"
)

type generateOptions struct {
	out     string
	publish bool
}

func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate an article, falling back to the built-in template",
		Long: `Generate an article for a prompt such as "2026 Honda Accord vs Toyota Camry".

Configured Gemini providers are tried in order (SDK, then REST). When none
returns a usable article, a deterministic article is built from the prompt.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, rootOpts, opts, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the article JSON to this file")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "run quality control and publish the article")
	return cmd
}

func runGenerate(cmd *cobra.Command, rootOpts *RootOptions, opts *generateOptions, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if len([]rune(prompt)) < 5 {
		return fmt.Errorf("prompt must be at least 5 characters")
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	var (
		a         *app
		generator *services.Generator
	)
	if opts.publish {
		if a, err = newApp(ctx, cfg, logger); err != nil {
			return err
		}
		defer a.Close()
		generator = a.generator
	} else {
		generator = newGenerator(cfg, logger)
	}

	res := generator.Generate(ctx, prompt)
	if a != nil {
		if err := a.history.RecordGeneration(ctx, res); err != nil {
			logger.Warn("record generation", zap.Error(err))
		}
	}

	if opts.out != "" {
		if err := writeArticle(opts.out, res.Article); err != nil {
			return err
		}
	}
	if err := printGeneration(cmd.OutOrStdout(), rootOpts.Format, res, opts.out == ""); err != nil {
		return err
	}

	if a == nil {
		return nil
	}
	return publishChecked(cmd, rootOpts, a, res.Article)
}

func printGeneration(w io.Writer, format string, res services.Result, withArticle bool) error {
	if format == "json" {
		body := map[string]any{
			"success":      true,
			"usedFallback": res.UsedFallback,
			"method":       res.Method,
		}
		if withArticle {
			body["article"] = res.Article
		}
		if diag := res.Diagnostics(); diag != "" {
			body["error"] = diag
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(body)
	}

	fmt.Fprintf(w, "method: %s\n", res.Method)
	fmt.Fprintf(w, "slug: %s\n", res.Article.Slug)
	for _, at := range res.Attempts {
		switch {
		case at.Skipped:
			fmt.Fprintf(w, "  %s: skipped (not configured)\n", at.Method)
		case at.Error != "":
			fmt.Fprintf(w, "  %s: %s\n", at.Method, at.Error)
		default:
			fmt.Fprintf(w, "  %s: ok (%dms)\n", at.Method, at.DurationMS)
		}
	}
	if withArticle {
		data, err := json.MarshalIndent(res.Article, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	}
	return nil
}

package main

import (
	"fmt"

	"icabridge/internal/argv"
	"icabridge/internal/render"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runLine         string
	runContacts     []string
	runOutputFormat string
	reportLimit     int
)

// runCmd runs one analyzer and prints the decoded rows
var runCmd = &cobra.Command{
	Use:   "run [analyzer] [-- tool args...]",
	Short: "Run an analyzer and print its results",
	Long: `Runs an ica analyzer with --format csv enforced and prints the decoded rows.

The analyzer is a built-in name or a path to an analyzer file. Tool arguments
go after "--" so they are passed through untouched. The contacts saved with
"icabridge contacts set" are used unless --contact is given or the tool
arguments already carry a contact flag.

Examples:
  icabridge run message_totals
  icabridge run transcript -- --from-date 2024-01-01
  icabridge run --line 'count_phrases "good morning" -c "Jane Doe"'`,
	RunE: runAnalyzer,
}

// exportCmd writes analyzer results to a file through the tool itself
var exportCmd = &cobra.Command{
	Use:   "export <path> [analyzer] [-- tool args...]",
	Short: "Run an analyzer and have it write CSV to a file",
	Args:  cobra.MinimumNArgs(1),
	RunE:  exportAnalyzer,
}

// reportCmd runs several analyzers in parallel
var reportCmd = &cobra.Command{
	Use:   "report <analyzer>...",
	Short: "Run several analyzers in parallel and print each result",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReport,
}

func init() {
	runCmd.Flags().StringVar(&runLine, "line", "", "Full argument line, shell-quoted")
	runCmd.Flags().StringArrayVarP(&runContacts, "contact", "c", nil, "Contact to analyze (repeatable; overrides saved contacts)")
	runCmd.Flags().StringVarP(&runOutputFormat, "output-format", "O", string(render.FormatTable), "Output format: table, json or csv")

	exportCmd.Flags().StringVar(&runLine, "line", "", "Full argument line, shell-quoted")
	exportCmd.Flags().StringArrayVarP(&runContacts, "contact", "c", nil, "Contact to analyze (repeatable; overrides saved contacts)")

	reportCmd.Flags().IntVar(&reportLimit, "concurrency", 0, "Maximum parallel runs (default: limits.max_concurrent_runs)")
	reportCmd.Flags().StringArrayVarP(&runContacts, "contact", "c", nil, "Contact to analyze (repeatable; overrides saved contacts)")
	reportCmd.Flags().StringVarP(&runOutputFormat, "output-format", "O", string(render.FormatTable), "Output format: table, json or csv")
}

func runAnalyzer(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(runOutputFormat)
	if err != nil {
		return err
	}
	toolArgs, err := buildArgs(runLine, args)
	if err != nil {
		return err
	}

	client, cleanup, err := newClient(runContacts)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	res, err := client.InvokeCSV(ctx, toolArgs)
	if err != nil {
		return err
	}
	logger.Info("analyzer finished",
		zap.String("invocation", res.InvocationID),
		zap.Strings("args", res.Args),
		zap.Int("rows", len(res.Rows)))
	if res.Stderr != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), res.Stderr)
	}

	return render.Write(cmd.OutOrStdout(), format, res.Table())
}

func exportAnalyzer(cmd *cobra.Command, args []string) error {
	path := args[0]
	toolArgs, err := buildArgs(runLine, args[1:])
	if err != nil {
		return err
	}

	client, cleanup, err := newClient(runContacts)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	res, err := client.InvokeCSVToFile(ctx, toolArgs, path)
	if err != nil {
		return err
	}
	logger.Info("export finished",
		zap.String("invocation", res.InvocationID),
		zap.String("path", path))

	if res.Stdout != "" {
		fmt.Fprintln(cmd.OutOrStdout(), res.Stdout)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(runOutputFormat)
	if err != nil {
		return err
	}

	requests := make([]argv.Args, len(args))
	for i, name := range args {
		a, err := registry.Resolve(name)
		if err != nil {
			return err
		}
		requests[i] = argv.List{a.Arg()}
	}

	limit := reportLimit
	if limit <= 0 {
		limit = cfg.Limits.MaxConcurrentRuns
	}

	client, cleanup, err := newClient(runContacts)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	results, err := client.InvokeMany(ctx, requests, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "== %s ==\n", args[i])
		if err := render.Write(out, format, res.Table()); err != nil {
			return err
		}
	}
	return nil
}

// Package main provides the CLI entry point for formrelay.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/ukaji3/formrelay-go/pkg/formrelay"
	"github.com/ukaji3/formrelay-go/pkg/formrelay/notify"
	"github.com/ukaji3/formrelay-go/pkg/formrelay/records"
	"github.com/ukaji3/formrelay-go/pkg/formrelay/storage"
	"github.com/ukaji3/formrelay-go/pkg/formrelay/workbook"
	"go.uber.org/zap"
)

var (
	configPath string
	envFile    string
	logFile    string
	verbose    bool
	dryRun     bool
	outputPath string
	sheetName  string
	pretty     bool

	cfg         *formrelay.Config
	logger      *zap.Logger
	closeLogger func() error
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "formrelay",
		Short: "Fill spreadsheet templates from submitted forms and mail them",
		Long: `formrelay picks the next uploaded project from PocketBase, writes its
form data into a spreadsheet template stored in S3, mails the result
through SES and marks the project as processed.`,
		SilenceUsage: true,
	}

	runCmd := &cobra.Command{
		Use:               "run",
		Short:             "Process one pending project",
		Args:              cobra.NoArgs,
		PersistentPreRunE: setup,
		RunE:              runPipeline,
	}
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	runCmd.Flags().StringVar(&envFile, "env-file", "", "dotenv file (default: .env if present)")
	runCmd.Flags().StringVar(&logFile, "log-file", "", "Log file path (default: LOG_FILE or script.log)")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also log debug output to stderr")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Fill the template without sending email or updating the record")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "With --dry-run, write the populated workbook here")

	fillCmd := &cobra.Command{
		Use:   "fill [template.xlsx] [values.json]",
		Short: "Fill a local template from a JSON object of cell -> value",
		Args:  cobra.ExactArgs(2),
		RunE:  runFill,
	}
	fillCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output workbook path")
	fillCmd.Flags().StringVar(&sheetName, "sheet", "", "Sheet to fill (default: active sheet)")
	fillCmd.MarkFlagRequired("output")

	inspectCmd := &cobra.Command{
		Use:   "inspect [template.xlsx]",
		Short: "List the non-empty cells of a template as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	inspectCmd.Flags().StringVar(&sheetName, "sheet", "", "Sheet to inspect (default: active sheet)")
	inspectCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")

	rootCmd.AddCommand(runCmd, fillCmd, inspectCmd)
	return rootCmd
}

func setup(cmd *cobra.Command, args []string) error {
	var loadErr error
	cfg, loadErr = formrelay.Load(formrelay.LoadOptions{ConfigFile: configPath, EnvFile: envFile})

	var err error
	logger, closeLogger, err = newLogger(logPath(cfg), verbose)
	if err != nil {
		return errors.Join(loadErr, err)
	}
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	if loadErr != nil {
		logger.Error("configuration failed", zap.Error(loadErr))
		teardown(cmd, args)
		return loadErr
	}
	return nil
}

// logPath picks the log file: --log-file, then the loaded config, then LOG_FILE.
// The environment is consulted directly when the config failed to load.
func logPath(cfg *formrelay.Config) string {
	switch {
	case logFile != "":
		return logFile
	case cfg != nil:
		return cfg.LogFile
	case os.Getenv("LOG_FILE") != "":
		return os.Getenv("LOG_FILE")
	}
	return formrelay.DefaultLogFile
}

func teardown(cmd *cobra.Command, args []string) {
	if logger != nil {
		_ = logger.Sync()
	}
	if closeLogger != nil {
		_ = closeLogger()
	}
	logger, closeLogger = nil, nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	defer teardown(cmd, args)
	ctx := cmd.Context()
	logger.Info("starting script execution")

	awsCfg, err := cfg.AWSConfig(ctx)
	if err != nil {
		logger.Error("aws configuration failed", zap.Error(err))
		return err
	}

	p := &formrelay.Pipeline{
		Records: records.NewClient(cfg.PocketBaseURL, logger,
			records.WithToken(cfg.PocketBaseToken),
			records.WithPageSize(cfg.PageSize),
			records.WithTimeout(cfg.HTTPTimeout.Duration),
		),
		Storage: storage.NewFromConfig(awsCfg, storage.Options{
			Endpoint:     cfg.Endpoint,
			UsePathStyle: cfg.UsePathStyle,
		}, logger),
		Mailer: notify.NewFromConfig(awsCfg, cfg.Endpoint, logger),
		Config: cfg,
		Logger: logger,
		DryRun: dryRun,
	}

	var output bytes.Buffer
	if dryRun && outputPath != "" {
		p.Output = &output
	}

	result, err := p.Run(ctx)
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "no pending project")
		return nil
	}

	if result.DryRun {
		if p.Output != nil {
			if err := os.WriteFile(outputPath, output.Bytes(), 0644); err != nil {
				logger.Error("write output failed", zap.String("path", outputPath), zap.Error(err))
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "dry run: project %s, %d cells filled\n", result.ProjectID, len(result.Cells))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "project %s mailed to %v (message id %s)\n",
		result.ProjectID, result.Recipients, result.MessageID)
	return nil
}

func runFill(cmd *cobra.Command, args []string) error {
	template, err := readInput(args[0])
	if err != nil {
		return err
	}
	rawValues, err := readInput(args[1])
	if err != nil {
		return err
	}

	var values map[string]any
	if err := json.Unmarshal(rawValues, &values); err != nil {
		return fmt.Errorf("invalid values file: %w", err)
	}

	out, err := workbook.Fill(template, sheetName, values)
	if err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}

	if err := os.WriteFile(outputPath, out, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	data, err := readInput(args[0])
	if err != nil {
		return err
	}

	info, err := workbook.Inspect(data, filepath.Base(args[0]), sheetName)
	if err != nil {
		return fmt.Errorf("inspection failed: %w", err)
	}

	return writeJSON(cmd.OutOrStdout(), info, pretty)
}

func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return data, err
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	return nil
}

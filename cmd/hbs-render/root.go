package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aescanero/dago-node-render/internal/config"
	"github.com/aescanero/dago-node-render/internal/eval/template"
	"github.com/aescanero/dago-node-render/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type options struct {
	templateFile string
	dataFile     string
	maxCount     uint64
	logLevel     string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "hbs-render",
		Short: "Render Handlebars templates with the repeat helper",
		Long: `hbs-render renders Handlebars templates with the same helpers as the
render worker, including the repeat block helper:

  {{#repeat 3}}{{@index}}{{#unless @last}}, {{/unless}}{{else}}none{{/repeat}}

Defaults for --max-count and --log-level come from REPEAT_MAX_COUNT and LOG_LEVEL.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.templateFile, "template", "t", "", "Template file")
	rootCmd.PersistentFlags().Uint64Var(&opts.maxCount, "max-count", 0, "Maximum repeat count (0 = unlimited)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	_ = rootCmd.MarkPersistentFlagRequired("template")

	rootCmd.AddCommand(newRenderCmd(opts), newCheckCmd(opts))
	return rootCmd
}

func newRenderCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a template to stdout",
		Long: `Render a template against a JSON or YAML data file.

Examples:
  hbs-render render -t list.hbs -d data.json
  hbs-render render -t list.hbs -d data.yaml --max-count 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dataFile, "data", "d", "", "Data file (.json, .yaml or .yml)")
	return cmd
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check repeat call sites without rendering",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := newEngine(cmd, opts)
			if err != nil {
				return err
			}
			source, err := os.ReadFile(opts.templateFile)
			if err != nil {
				return fmt.Errorf("failed to read template: %w", err)
			}
			if err := engine.ValidateTemplate(string(source)); err != nil {
				return fmt.Errorf("%s: %w", opts.templateFile, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", opts.templateFile)
			return nil
		},
	}
}

func runRender(cmd *cobra.Command, opts *options) error {
	engine, logger, err := newEngine(cmd, opts)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	source, err := os.ReadFile(opts.templateFile)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	data, err := loadData(opts.dataFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out, err := engine.Render(ctx, string(source), data)
	if err != nil {
		logger.Error("render failed", zap.String("template", opts.templateFile), zap.Error(err))
		return err
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

// newEngine applies environment defaults, then flags that were set explicitly.
func newEngine(cmd *cobra.Command, opts *options) (*template.Engine, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	level := cfg.LogLevel
	if cmd.Flags().Changed("log-level") {
		level = opts.logLevel
	}
	maxCount := cfg.RepeatMaxCount
	if cmd.Flags().Changed("max-count") {
		maxCount = opts.maxCount
	}

	logger, err := logging.New(level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return template.NewEngine(template.WithLogger(logger), template.WithMaxCount(maxCount)), logger, nil
}

// loadData reads a JSON or YAML data file; an empty path yields no data.
func loadData(path string) (interface{}, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	var data map[string]interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &data)
	case ".json":
		err = json.Unmarshal(raw, &data)
	default:
		return nil, fmt.Errorf("unsupported data file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return data, nil
}

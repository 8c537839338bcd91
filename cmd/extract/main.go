package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/zatekoja/medicaid-docextract/internal/app"
	"github.com/zatekoja/medicaid-docextract/internal/application/services"
	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
	"github.com/zatekoja/medicaid-docextract/internal/infrastructure/observability"
	"github.com/zatekoja/medicaid-docextract/pkg/config"
	"github.com/zatekoja/medicaid-docextract/pkg/secrets"
)

type extractOptions struct {
	text     string
	file     string
	format   string
	patterns string
	offline  bool
	progress bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract Medicaid claim fields from a healthcare document",
		Long: `Extract patient, diagnosis, procedure and claim details from a document.

Input is either inline text (--text) or a file (--file). Supported files are
PDF, XLSX and plain text. The result is printed as JSON or YAML.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), opts, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVar(&opts.text, "text", "", "Document text to extract from")
	flags.StringVar(&opts.file, "file", "", "Path to a PDF, XLSX or text document")
	flags.StringVar(&opts.format, "format", "json", "Output format: json or yaml")
	flags.StringVar(&opts.patterns, "patterns", "", "YAML pattern table overriding the built-in patterns")
	flags.BoolVar(&opts.offline, "offline", false, "Skip the analyzer and use pattern extraction only")
	flags.BoolVar(&opts.progress, "progress", false, "Print pipeline progress to stderr")
	cmd.MarkFlagsMutuallyExclusive("text", "file")

	return cmd
}

func runExtract(ctx context.Context, opts *extractOptions, stdout, stderr io.Writer) error {
	if opts.text == "" && opts.file == "" {
		return errors.New("one of --text or --file is required")
	}
	if opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("unsupported format %q", opts.format)
	}

	vaultResult, vaultErr := secrets.ApplyVaultSecrets(ctx, secrets.LoadVaultConfigFromEnv())

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.patterns != "" {
		cfg.Extraction.PatternsFile = opts.patterns
	}

	// stdout carries the result only
	observability.InitLoggerWithWriter(stderr, cfg.OTEL.ServiceName, cfg.Environment, cfg.LogLevel)
	logger := observability.GetLogger()
	if vaultErr != nil {
		logger.Warn().Err(vaultErr).Msg("failed to load vault secrets")
	} else if vaultResult.Enabled {
		logger.Debug().Strs("loaded", vaultResult.Loaded).Msg("vault secrets applied")
	}

	svc, err := app.NewExtractionService(ctx, cfg, app.Options{Offline: opts.offline})
	if err != nil {
		return err
	}

	var sink services.ProgressSink
	if opts.progress {
		sink = func(event entities.ProgressEvent) {
			fmt.Fprintf(stderr, "[%3d%%] %s\n", event.Progress, event.Step)
		}
	}

	result, err := svc.ProcessDocument(ctx, entities.ExtractionRequest{
		Text:     opts.text,
		FilePath: opts.file,
	}, sink)
	if err != nil {
		return err
	}

	return writeResult(stdout, result, opts.format)
}

func writeResult(w io.Writer, result *entities.DocumentResult, format string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if format == "yaml" {
		// go through JSON so the record keeps its wire field names
		data, err = yaml.JSONToYAML(data)
		if err != nil {
			return fmt.Errorf("failed to encode result as yaml: %w", err)
		}
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

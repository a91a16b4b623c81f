// Copyright © 2025 The typls authors

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/typls/typls/lsp"
	"github.com/typls/typls/world"
)

// LSPCommand creates the "lsp" cobra command. Embedders can pass options
// to attach their own compile trace annotators.
func LSPCommand(opts ...lsp.Option) *cobra.Command {
	var (
		stdio     bool
		port      int
		verbosity int
		logFile   string
		traceMode string
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the Typst language server",
		Long: `Start an LSP server for Typst source files.

The language server provides real-time IDE features including diagnostics,
hover documentation, completion, signature help, document and workspace
symbols, semantic tokens, folding ranges, formatting, and PDF export.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Compile tracing (written to stdout, so use with --port):
  --trace otel         Emit OpenTelemetry spans for each compilation
  --trace opencensus   Emit OpenCensus spans for each compilation

Examples:
  typls lsp                          Start with stdio transport
  typls lsp --stdio                  Same as above (explicit)
  typls lsp --port 7998              Start with TCP on port 7998
  typls lsp -v --log-file /tmp/typls.log

Editor configuration (VS Code):
  Install a generic LSP client extension and configure it to run
  "typls lsp --stdio" for .typ files.`,
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if logFile != "" {
				commonlog.Configure(verbosity, &logFile)
			} else {
				commonlog.Configure(verbosity, nil)
			}

			serverOpts := opts
			if annotator, err := traceAnnotator(traceMode); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			} else if annotator != nil {
				serverOpts = append(serverOpts, lsp.WithAnnotators(annotator))
			}

			srv := lsp.New(serverOpts...)

			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				log.Printf("typls LSP server listening on %s", addr)
				if err := srv.RunTCP(addr); err != nil {
					fmt.Fprintf(os.Stderr, "lsp server error: %v\n", err)
					os.Exit(1)
				}
			} else {
				if err := srv.RunStdio(); err != nil {
					fmt.Fprintf(os.Stderr, "lsp server error: %v\n", err)
					os.Exit(1)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")
	cmd.Flags().CountVarP(&verbosity, "verbose", "v",
		"Increase log verbosity (repeatable)")
	cmd.Flags().StringVar(&logFile, "log-file", "",
		"Write logs to a file instead of stderr")
	cmd.Flags().StringVar(&traceMode, "trace", "",
		`Compile tracing backend: "otel" or "opencensus"`)

	return cmd
}

// traceAnnotator builds and enables the annotator for the requested
// tracing backend. An empty mode disables tracing.
func traceAnnotator(mode string) (world.Annotator, error) {
	switch mode {
	case "":
		return nil, nil
	case "otel":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("stdouttrace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		otel.SetTracerProvider(tp)
		annotator := world.NewOpenTelemetryAnnotator(context.Background())
		if err := annotator.Enable(); err != nil {
			return nil, err
		}
		return annotator, nil
	case "opencensus":
		annotator := world.NewOpenCensusAnnotator(context.Background())
		if err := annotator.Enable(); err != nil {
			return nil, err
		}
		return annotator, nil
	default:
		return nil, fmt.Errorf(`unknown trace backend %q (want "otel" or "opencensus")`, mode)
	}
}

func init() {
	rootCmd.AddCommand(LSPCommand())
}

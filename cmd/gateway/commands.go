package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stylefit/internal/gateway/app"
	"stylefit/internal/gateway/config"
	"stylefit/internal/logging"
	"stylefit/internal/persona"
)

const shutdownTimeout = 5 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stylefit-gateway",
		Short:         "Style recommendation session gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newPersonasCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway until SIGINT or SIGTERM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Start()
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func newPersonasCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "personas",
		Short: "List the personas of the question bank",
		Long:  "List the personas of the built-in question bank, or validate and list a bank file given with --file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bank, err := loadBank(file)
			if err != nil {
				return err
			}
			return printPersonas(cmd.OutOrStdout(), bank)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "question bank YAML to validate instead of the built-in one")
	return cmd
}

func loadBank(path string) (*persona.Bank, error) {
	if path == "" {
		return persona.DefaultBank()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank: %w", err)
	}
	return persona.LoadBank(data)
}

func printPersonas(w io.Writer, bank *persona.Bank) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tLABEL\tNAME")
	for _, p := range bank.Personas() {
		fmt.Fprintf(tw, "%s (%s)\t%s\t%s\n", p.Type, bank.TypeName(p.Type), p.Label, p.Name)
	}
	return tw.Flush()
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fs-organizer/internal/handlers"
	"fs-organizer/internal/http"
	"fs-organizer/internal/organizer"
	"fs-organizer/internal/service"
	"fs-organizer/internal/storage"
)

func newOrganizeCommand(a *app) *cobra.Command {
	var depth int
	var apply bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "organize <dir>",
		Short: "Classify a directory and print the resulting plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if depth <= 0 {
				depth = a.cfg.MaxDepth
			}

			summary, err := a.pipeline.Run(ctx, args[0], depth)
			if summary != nil {
				printRunSummary(out, summary)
			}
			if err != nil && !errors.Is(err, organizer.ErrBatchesFailed) {
				return err
			}
			runErr := err

			plan, err := a.pipeline.Plan(ctx, args[0])
			if err != nil {
				return err
			}
			printPlan(out, plan)

			if apply && len(plan.Movements) > 0 {
				if !yes && !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Move %d items under %s?", len(plan.Movements), plan.Root)) {
					fmt.Fprintln(out, "Aborted; nothing was moved.")
					return runErr
				}
				_, report, err := a.pipeline.Apply(ctx, args[0], false)
				if report != nil {
					printReport(out, report, false)
				}
				if err != nil {
					return err
				}
			}
			if runErr != nil {
				return fmt.Errorf("%w; run organize again to retry them", runErr)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "How many directory levels to scan (default from config)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Move files after planning")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation before moving")
	return cmd
}

func newPlanCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <dir>",
		Short: "Print the plan derived from the stored classification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.pipeline.Plan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), plan)
			return nil
		},
	}
}

func newApplyCommand(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "apply <dir>",
		Short: "Create cabinets and shelves and move classified items into them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			_, report, err := a.pipeline.Apply(cmd.Context(), args[0], dryRun)
			if report != nil {
				printReport(out, report, dryRun)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would move without touching the filesystem")
	return cmd
}

func newCatalogCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog <dir>",
		Short: "List cabinets and shelves with item counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			plan, err := a.pipeline.Plan(ctx, args[0])
			if err != nil {
				return err
			}
			printCatalog(out, plan)

			run, err := a.pipeline.LatestRun(ctx, args[0])
			switch {
			case errors.Is(err, storage.ErrNotFound):
				return nil
			case err != nil:
				return err
			}
			printLatestRun(out, run)
			return nil
		},
	}
}

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			router := http.NewRouter(&http.Deps{
				OrganizeService: service.NewOrganizeService(a.pipeline),
				HealthChecks: map[string]handlers.HealthCheck{
					"llm": a.llm.Ping,
				},
			})

			addr := ":" + a.cfg.APIPort
			server := &nethttp.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("Starting API server", "addr", addr)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("API server failed: %w", err)
			case <-ctx.Done():
			}

			slog.Info("Shutting down API server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown API server: %w", err)
			}
			return nil
		},
	}
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AndyHydro/plasma-contracts/internal/artifacts"
	"github.com/AndyHydro/plasma-contracts/internal/database"
	"github.com/AndyHydro/plasma-contracts/internal/deploy"
	"github.com/AndyHydro/plasma-contracts/internal/lock"
	"github.com/AndyHydro/plasma-contracts/internal/metrics"
	"github.com/AndyHydro/plasma-contracts/internal/report"
	"github.com/AndyHydro/plasma-contracts/internal/repository"
)

type migrateFlags struct {
	network   string
	plan      string
	artifacts string
	bundle    string
	checksum  string
	noReport  bool
}

func (a *app) migrateCmd() *cobra.Command {
	var f migrateFlags

	cmd := &cobra.Command{
		Use:     "migrate",
		Aliases: []string{"deploy"},
		Short:   "Deploy the migration plan to a network",
		Long: `Deploy every step of the migration plan, in order, to the selected network.

Each deployed address is logged as "<Contract> deployed at address: <address>"
and the full record is printed when the run ends. A failed step stops the run;
steps that already completed stay deployed and are listed in the output.`,
		Example: `  plasma-migrate migrate --network development
  plasma-migrate deploy -n rinkeby --plan plan.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMigrate(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVarP(&f.network, "network", "n", "", "network profile to deploy to (required)")
	cmd.Flags().StringVar(&f.plan, "plan", "", "YAML migration plan (default is the built-in plan)")
	cmd.Flags().StringVar(&f.artifacts, "artifacts", "", "directory of compiled contract artifacts")
	cmd.Flags().StringVar(&f.bundle, "bundle", "", "zip bundle of artifacts (path or http(s) URL)")
	cmd.Flags().StringVar(&f.checksum, "checksum", "", "sha256:<hex> checksum of the bundle")
	cmd.Flags().BoolVar(&f.noReport, "no-report", false, "skip the gas report")
	_ = cmd.MarkFlagRequired("network")

	return cmd
}

func (a *app) runMigrate(ctx context.Context, f migrateFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	profile, err := a.cfg.Profile(f.network)
	if err != nil {
		return err
	}

	planPath := f.plan
	if planPath == "" {
		planPath = a.cfg.Plan.Path
	}
	steps, err := deploy.LoadPlan(planPath)
	if err != nil {
		return err
	}
	// a bad plan fails before any external I/O
	if err := deploy.Validate(steps); err != nil {
		return err
	}

	store, err := a.loadArtifacts(ctx, f)
	if err != nil {
		return err
	}

	opts := []deploy.Option{deploy.WithLogger(a.logger)}

	var gasReport *report.GasReport
	if a.cfg.Report.Enabled && !f.noReport {
		gasReport = report.New(a.cfg.Report.ShowTimeSpent)
		opts = append(opts, deploy.WithObserver(gasReport.Observe))
	}

	collector := metrics.New()
	opts = append(opts, deploy.WithObserver(collector.Observe))

	if a.cfg.Database.Enabled {
		pg, err := database.NewPostgres(ctx, a.cfg.Database)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := database.RunMigrations(a.cfg.Database); err != nil {
			return err
		}
		recorder := repository.NewRecorder(repository.NewPostgresRepository(pg.Pool()), a.logger)
		opts = append(opts, deploy.WithObserver(recorder.Observe))
	}

	if a.cfg.Redis.Enabled {
		client, err := database.NewRedis(ctx, a.cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()

		lk, err := lock.New(client, a.cfg.Redis.LockTTL).Acquire(ctx, profile.Name)
		if err != nil {
			return err
		}
		defer func() {
			// the run context may already be cancelled
			if err := lk.Release(context.WithoutCancel(ctx)); err != nil {
				a.logger.Warn("failed to release deploy lock", slog.String("error", err.Error()))
			}
		}()
	}

	o := deploy.NewOrchestrator(a.newDialer(store, a.logger), opts...)
	record, runErr := o.Run(ctx, steps, profile)

	if record.Len() > 0 || runErr == nil {
		if err := a.printRecord(record); err != nil {
			return err
		}
	}
	if gasReport != nil && gasReport.Len() > 0 && !a.jsonOut {
		fmt.Fprintln(a.out)
		if err := gasReport.Write(a.out); err != nil {
			return err
		}
	}

	if a.cfg.Metrics.PushURL != "" {
		if err := collector.Push(context.WithoutCancel(ctx), a.cfg.Metrics.PushURL, a.cfg.Metrics.Job, profile.Name, nil); err != nil {
			a.logger.Warn("failed to push metrics", slog.String("error", err.Error()))
		}
	}

	return runErr
}

func (a *app) loadArtifacts(ctx context.Context, f migrateFlags) (*artifacts.Store, error) {
	store := artifacts.NewStore()

	bundle, checksum := f.bundle, f.checksum
	if bundle == "" {
		bundle, checksum = a.cfg.Artifacts.Bundle, a.cfg.Artifacts.Checksum
	}
	if bundle != "" {
		n, err := store.LoadBundle(ctx, bundle, checksum)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("loaded artifact bundle", slog.String("source", bundle), slog.Int("contracts", n))
		return store, nil
	}

	dir := f.artifacts
	if dir == "" {
		dir = a.cfg.Artifacts.Dir
	}
	n, err := store.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		a.logger.Warn("no contract artifacts found", slog.String("dir", dir))
	}
	a.logger.Debug("loaded artifacts", slog.String("dir", dir), slog.Int("contracts", n))
	return store, nil
}

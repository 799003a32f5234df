package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AndyHydro/plasma-contracts/internal/database"
	"github.com/AndyHydro/plasma-contracts/internal/pkg/ulid"
	"github.com/AndyHydro/plasma-contracts/internal/repository"
)

var errHistoryDisabled = errors.New("run history requires database.enabled in the config")

func (a *app) historyCmd() *cobra.Command {
	var (
		network string
		runID   string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded migration runs",
		Example: `  plasma-migrate history --network rinkeby
  plasma-migrate history --run 01HXYZ...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.cfg.Database.Enabled {
				return errHistoryDisabled
			}
			if network == "" && runID == "" {
				return errors.New("either --network or --run is required")
			}
			if runID != "" {
				if err := ulid.Validate(runID); err != nil {
					return err
				}
			}

			pg, err := database.NewPostgres(cmd.Context(), a.cfg.Database)
			if err != nil {
				return err
			}
			defer pg.Close()
			repo := repository.NewPostgresRepository(pg.Pool())

			if runID != "" {
				steps, err := repo.GetRunSteps(cmd.Context(), runID)
				if err != nil {
					return fmt.Errorf("get run %s: %w", runID, err)
				}
				return a.printSteps(steps)
			}

			runs, err := repo.ListRuns(cmd.Context(), network, limit)
			if err != nil {
				return err
			}
			return a.printRuns(runs)
		},
	}

	cmd.Flags().StringVarP(&network, "network", "n", "", "network profile name")
	cmd.Flags().StringVar(&runID, "run", "", "show the steps of one run")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")

	cmd.AddCommand(a.schemaCmd())
	return cmd
}

// schemaCmd manages the history tables outside a run.
func (a *app) schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the run history schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending history schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if !a.cfg.Database.Enabled {
				return errHistoryDisabled
			}
			if err := database.RunMigrations(a.cfg.Database); err != nil {
				return err
			}
			fmt.Fprintln(a.out, colorGreen("✓"), "history schema is up to date")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:     "down",
		Short:   "Roll back history schema migrations",
		Example: `  plasma-migrate history schema down --steps 1`,
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if steps < 1 {
				return database.ErrInvalidSteps
			}
			if !a.cfg.Database.Enabled {
				return errHistoryDisabled
			}
			if err := database.MigrateDown(a.cfg.Database, steps); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s rolled back %d history schema migration(s)\n", colorGreen("✓"), steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

func (a *app) printRuns(runs []*repository.Run) error {
	if a.jsonOut {
		if runs == nil {
			runs = []*repository.Run{}
		}
		return printJSON(a.out, runs)
	}

	w := newTable(a.out)
	printTableHeader(w, "RUN", "STATUS", "STEPS", "FAILED STEP", "STARTED", "FINISHED")
	for _, r := range runs {
		finished := "-"
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Format(time.RFC3339)
		}
		failed := "-"
		if r.FailedStep != nil {
			failed = *r.FailedStep
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			r.ID, colorStatus(r.Status), r.TotalSteps, failed, r.StartedAt.Format(time.RFC3339), finished)
	}
	return w.Flush()
}

func (a *app) printSteps(steps []repository.Step) error {
	if a.jsonOut {
		if steps == nil {
			steps = []repository.Step{}
		}
		return printJSON(a.out, steps)
	}

	w := newTable(a.out)
	printTableHeader(w, "#", "STEP", "CONTRACT", "ADDRESS", "TX HASH", "GAS USED")
	for _, s := range steps {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n", s.Position, s.Name, s.Contract, s.Address, s.TxHash, s.GasUsed)
	}
	return w.Flush()
}

func colorStatus(s repository.Status) string {
	switch s {
	case repository.StatusCompleted:
		return colorGreen(string(s))
	case repository.StatusFailed:
		return colorRed(string(s))
	default:
		return colorYellow(string(s))
	}
}

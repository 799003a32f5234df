package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AndyHydro/plasma-contracts/internal/deploy"
)

type stepView struct {
	Name     string   `json:"name"`
	Contract string   `json:"contract"`
	Args     []string `json:"args"`
}

func (a *app) planCmd() *cobra.Command {
	var planPath string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show and validate the migration plan without touching a network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if planPath == "" {
				planPath = a.cfg.Plan.Path
			}
			steps, err := deploy.LoadPlan(planPath)
			if err != nil {
				return err
			}
			if err := deploy.Validate(steps); err != nil {
				return err
			}

			views := make([]stepView, len(steps))
			for i, s := range steps {
				args := make([]string, len(s.Args))
				for j, arg := range s.Args {
					args[j] = arg.String()
				}
				views[i] = stepView{Name: s.Name, Contract: s.ContractName(), Args: args}
			}

			if a.jsonOut {
				return printJSON(a.out, views)
			}

			w := newTable(a.out)
			printTableHeader(w, "#", "STEP", "CONTRACT", "ARGS")
			for i, v := range views {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, v.Name, v.Contract, strings.Join(v.Args, ", "))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&planPath, "plan", "", "YAML migration plan (default is the built-in plan)")
	return cmd
}

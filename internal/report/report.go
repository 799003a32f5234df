// Package report prints a gas summary of a migration run.
package report

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/AndyHydro/plasma-contracts/internal/deploy"
)

// GasReport collects completed steps from run events.
type GasReport struct {
	mu            sync.Mutex
	network       string
	entries       []deploy.Entry
	showTimeSpent bool
}

// New creates an empty report.
func New(showTimeSpent bool) *GasReport {
	return &GasReport{showTimeSpent: showTimeSpent}
}

// Observe is a deploy.Observer.
func (g *GasReport) Observe(_ context.Context, ev deploy.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch ev.Kind {
	case deploy.EventRunStarted:
		g.network = ev.Network
		g.entries = nil
	case deploy.EventStepCompleted:
		if ev.Entry != nil {
			g.entries = append(g.entries, *ev.Entry)
		}
	}
}

// Len returns the number of collected steps.
func (g *GasReport) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// TotalGas returns the gas used by every collected step.
func (g *GasReport) TotalGas() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	var total uint64
	for _, e := range g.entries {
		total += e.GasUsed
	}
	return total
}

// Write renders the report as an aligned table.
func (g *GasReport) Write(w io.Writer) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := "STEP\tCONTRACT\tADDRESS\tGAS USED\tGAS PRICE (GWEI)\tCOST (ETH)"
	if g.showTimeSpent {
		header += "\tTIME"
	}
	fmt.Fprintln(tw, header)

	var (
		totalGas  uint64
		totalCost = new(big.Int)
		totalTime time.Duration
	)
	for _, e := range g.entries {
		cost := weiCost(e.GasUsed, e.GasPrice)
		totalGas += e.GasUsed
		totalCost.Add(totalCost, cost)
		totalTime += e.Duration

		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s", e.Name, e.Contract, e.Address, e.GasUsed, formatUnits(e.GasPrice, 9, 2), formatUnits(cost, 18, 6))
		if g.showTimeSpent {
			fmt.Fprintf(tw, "\t%s", e.Duration.Round(time.Millisecond))
		}
		fmt.Fprintln(tw)
	}

	fmt.Fprintf(tw, "TOTAL (%s)\t\t\t%d\t\t%s", g.network, totalGas, formatUnits(totalCost, 18, 6))
	if g.showTimeSpent {
		fmt.Fprintf(tw, "\t%s", totalTime.Round(time.Millisecond))
	}
	fmt.Fprintln(tw)

	return tw.Flush()
}

func weiCost(gasUsed uint64, gasPrice *big.Int) *big.Int {
	if gasPrice == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(gasUsed), gasPrice)
}

// formatUnits renders v / 10^decimals with prec fractional digits.
func formatUnits(v *big.Int, decimals, prec int) string {
	if v == nil {
		return "-"
	}
	f := new(big.Float).SetInt(v)
	f.Quo(f, new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)))
	return f.Text('f', prec)
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/AndyHydro/plasma-contracts/internal/deploy"
)

// Output helpers

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable creates a new tabwriter for formatted output.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// printTableHeader prints a bold header row.
func printTableHeader(w *tabwriter.Writer, columns ...string) {
	for i, col := range columns {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, colorBold(col))
	}
	fmt.Fprintln(w)
}

func (a *app) printRecord(record *deploy.Record) error {
	if a.jsonOut {
		return printJSON(a.out, record)
	}

	w := newTable(a.out)
	printTableHeader(w, "STEP", "CONTRACT", "ADDRESS", "TX HASH")
	for _, e := range record.Entries() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, e.Contract, e.Address, e.TxHash)
	}
	return w.Flush()
}

// Terminal colors

func colorRed(s string) string {
	return "\033[31m" + s + "\033[0m"
}

func colorGreen(s string) string {
	return "\033[32m" + s + "\033[0m"
}

func colorYellow(s string) string {
	return "\033[33m" + s + "\033[0m"
}

func colorBold(s string) string {
	return "\033[1m" + s + "\033[0m"
}

package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AndyHydro/plasma-contracts/internal/config"
)

type networkView struct {
	Name        string             `json:"name"`
	Endpoint    string             `json:"endpoint"`
	NetworkID   string             `json:"network_id"`
	GasLimit    uint64             `json:"gas_limit,omitempty"`
	GasPrice    uint64             `json:"gas_price,omitempty"`
	Credentials config.Credentials `json:"credentials"`
}

func (a *app) networksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List configured network profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			views := make([]networkView, 0, len(a.cfg.Networks))
			for _, name := range a.cfg.NetworkNames() {
				p := a.cfg.Networks[name]
				views = append(views, networkView{
					Name:        name,
					Endpoint:    displayEndpoint(p),
					NetworkID:   p.NetworkID,
					GasLimit:    p.GasLimit,
					GasPrice:    p.GasPrice,
					Credentials: p.Credentials.Masked(),
				})
			}

			if a.jsonOut {
				return printJSON(a.out, views)
			}

			w := newTable(a.out)
			printTableHeader(w, "NAME", "ENDPOINT", "NETWORK ID", "GAS LIMIT", "GAS PRICE", "CREDENTIALS")
			for _, v := range views {
				kind := a.cfg.Networks[v.Name].Credentials.Kind()
				if kind == "none" {
					kind = colorYellow(kind)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					v.Name, v.Endpoint, v.NetworkID, orAuto(v.GasLimit), orAuto(v.GasPrice), kind)
			}
			return w.Flush()
		},
	}
}

// displayEndpoint shows the endpoint without expanding ${VAR} references, so
// API keys stay out of the output.
func displayEndpoint(p config.NetworkProfile) string {
	if p.URL != "" {
		return p.URL
	}
	return "http://" + net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

func orAuto(v uint64) string {
	if v == 0 {
		return "auto"
	}
	return strconv.FormatUint(v, 10)
}

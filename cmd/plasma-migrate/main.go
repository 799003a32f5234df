// Command plasma-migrate deploys the plasma contracts to a configured network.
package main

import (
	"os"

	"github.com/AndyHydro/plasma-contracts/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

// Command amp follows the commits and builds of an Amplication project.
package main

import (
	"os"

	"github.com/rohitmondal03/amplication/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
